package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/easymark/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no saved assignment matches.
var ErrNotFound = errors.New("assignment not found")

type Store struct {
	db *sql.DB
}

// Summary describes a saved assignment without loading it.
type Summary struct {
	ID        int64
	Course    string
	Title     string
	Students  int
	Questions int
	OutOf     float64
	UpdatedAt time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course TEXT NOT NULL,
		title TEXT NOT NULL,
		next_id INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (course, title)
	);

	CREATE TABLE IF NOT EXISTS students (
		assignment_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (assignment_id, position),
		UNIQUE (assignment_id, name),
		FOREIGN KEY (assignment_id) REFERENCES assignments(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS questions (
		assignment_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		num INTEGER NOT NULL,
		part INTEGER NOT NULL,
		out_of REAL NOT NULL,
		PRIMARY KEY (assignment_id, position),
		UNIQUE (assignment_id, num, part),
		FOREIGN KEY (assignment_id) REFERENCES assignments(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS comments (
		assignment_id INTEGER NOT NULL,
		id INTEGER NOT NULL,
		num INTEGER NOT NULL,
		part INTEGER NOT NULL,
		position INTEGER NOT NULL,
		deduction REAL NOT NULL DEFAULT 0,
		text TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (assignment_id, id),
		FOREIGN KEY (assignment_id, num, part) REFERENCES questions(assignment_id, num, part) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS comment_students (
		assignment_id INTEGER NOT NULL,
		comment_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (assignment_id, comment_id, name),
		FOREIGN KEY (assignment_id, comment_id) REFERENCES comments(assignment_id, id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes the assignment, replacing any saved assignment with the same
// course and title, and returns its id.
func (s *Store) Save(ctx context.Context, a *model.Assignment) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM assignments WHERE course = ? AND title = ?`, a.Course, a.Title,
	).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (course, title, next_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			a.Course, a.Title, a.NextID(), now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert assignment: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, fmt.Errorf("find assignment: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE assignments SET next_id = ?, updated_at = ? WHERE id = ?`, a.NextID(), now, id,
		); err != nil {
			return 0, fmt.Errorf("update assignment: %w", err)
		}
		if err := clearChildren(ctx, tx, id); err != nil {
			return 0, err
		}
	}

	if err := insertChildren(ctx, tx, id, a); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Debug("saved assignment", "id", id, "course", a.Course, "title", a.Title)
	return id, nil
}

func clearChildren(ctx context.Context, tx *sql.Tx, id int64) error {
	for _, table := range []string{"comment_students", "comments", "questions", "students"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE assignment_id = ?`, id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, id int64, a *model.Assignment) error {
	for i, name := range a.Students() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO students (assignment_id, position, name) VALUES (?, ?, ?)`, id, i, name,
		); err != nil {
			return fmt.Errorf("insert student %q: %w", name, err)
		}
	}
	for i, q := range a.Questions() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (assignment_id, position, num, part, out_of) VALUES (?, ?, ?, ?, ?)`,
			id, i, q.Num, q.Part, q.OutOf,
		); err != nil {
			return fmt.Errorf("insert question %s: %w", q.Label(), err)
		}
		for j, c := range a.Comments(q) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO comments (assignment_id, id, num, part, position, deduction, text) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, c.ID, q.Num, q.Part, j, c.Deduction, c.Text,
			); err != nil {
				return fmt.Errorf("insert comment %d: %w", c.ID, err)
			}
			for _, name := range c.Names() {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO comment_students (assignment_id, comment_id, name) VALUES (?, ?, ?)`,
					id, c.ID, name,
				); err != nil {
					return fmt.Errorf("insert comment %d student %q: %w", c.ID, name, err)
				}
			}
		}
	}
	return nil
}

// Load reads a saved assignment by id.
func (s *Store) Load(ctx context.Context, id int64) (*model.Assignment, error) {
	var course, title string
	var nextID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT course, title, next_id FROM assignments WHERE id = ?`, id,
	).Scan(&course, &title, &nextID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	r := model.NewRestorer(title, course, nextID)

	students, err := s.students(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, name := range students {
		r.Student(name)
	}

	questions, err := s.questions(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		r.Question(q)
	}

	names, err := s.commentNames(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.num, c.part, c.deduction, c.text
		 FROM comments c JOIN questions q
		   ON q.assignment_id = c.assignment_id AND q.num = c.num AND q.part = c.part
		 WHERE c.assignment_id = ?
		 ORDER BY q.position, c.position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid       int64
			q         model.Question
			deduction float64
			text      string
		)
		if err := rows.Scan(&cid, &q.Num, &q.Part, &deduction, &text); err != nil {
			return nil, err
		}
		r.Comment(q, cid, deduction, text, names[cid])
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r.Build()
}

func (s *Store) students(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM students WHERE assignment_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *Store) questions(ctx context.Context, id int64) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT num, part, out_of FROM questions WHERE assignment_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var qs []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.Num, &q.Part, &q.OutOf); err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

func (s *Store) commentNames(ctx context.Context, id int64) (map[int64][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT comment_id, name FROM comment_students WHERE assignment_id = ? ORDER BY comment_id, name`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[int64][]string)
	for rows.Next() {
		var cid int64
		var n string
		if err := rows.Scan(&cid, &n); err != nil {
			return nil, err
		}
		names[cid] = append(names[cid], n)
	}
	return names, rows.Err()
}

// FindID returns the id of the assignment saved under course and title.
func (s *Store) FindID(ctx context.Context, course, title string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM assignments WHERE course = ? AND title = ?`, course, title,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s %s", ErrNotFound, course, title)
	}
	return id, err
}

// LoadByName reads the assignment saved under course and title.
func (s *Store) LoadByName(ctx context.Context, course, title string) (*model.Assignment, error) {
	id, err := s.FindID(ctx, course, title)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, id)
}

// List returns a summary of every saved assignment, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.course, a.title, a.updated_at,
		        (SELECT COUNT(*) FROM students s WHERE s.assignment_id = a.id),
		        (SELECT COUNT(*) FROM questions q WHERE q.assignment_id = a.id),
		        (SELECT COALESCE(SUM(q.out_of), 0) FROM questions q WHERE q.assignment_id = a.id)
		 FROM assignments a ORDER BY a.updated_at DESC, a.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Course, &sum.Title, &sum.UpdatedAt, &sum.Students, &sum.Questions, &sum.OutOf); err != nil {
			return nil, err
		}
		list = append(list, sum)
	}
	return list, rows.Err()
}

// Delete removes a saved assignment.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	slog.Info("deleted assignment", "id", id)
	return nil
}

// Count returns the number of saved assignments.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments`).Scan(&count)
	return count, err
}
