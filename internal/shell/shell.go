// Package shell is the interactive grading session: menus over a line
// reader that drive the assignment model and save after every change.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pavelanni/easymark/internal/i18n"
	"github.com/pavelanni/easymark/internal/model"
	"github.com/pavelanni/easymark/internal/render"
	"github.com/pavelanni/easymark/internal/store"
)

const clearScreen = "\033[H\033[2J"

// Repository is the persistence the shell needs.
type Repository interface {
	Save(ctx context.Context, a *model.Assignment) (int64, error)
	Load(ctx context.Context, id int64) (*model.Assignment, error)
	FindID(ctx context.Context, course, title string) (int64, error)
	List(ctx context.Context) ([]store.Summary, error)
	SetLastAssignment(ctx context.Context, id int64) error
	LastAssignment(ctx context.Context) (int64, bool, error)
}

// Config holds the session options.
type Config struct {
	// OutDir receives exported grade sheets and .emark files.
	OutDir string
	// FileDir is searched for .emark files to import.
	FileDir string
	Styles  render.Styles
	// Clear clears the terminal after each menu choice.
	Clear bool
}

// Shell runs one interactive session.
type Shell struct {
	p    prompter
	repo Repository
	cfg  Config

	a  *model.Assignment
	id int64
}

// New creates a shell reading commands from in and writing to out.
func New(in io.Reader, out io.Writer, repo Repository, cfg Config) *Shell {
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	if cfg.FileDir == "" {
		cfg.FileDir = "."
	}
	return &Shell{
		p:    prompter{in: bufio.NewReader(in), out: out},
		repo: repo,
		cfg:  cfg,
	}
}

// Run shows the main menu until the user quits or input ends.
func (s *Shell) Run(ctx context.Context) error {
	err := s.mainMenu(ctx)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// Open starts the session on a saved assignment, skipping the main menu.
func (s *Shell) Open(ctx context.Context, id int64) error {
	if err := s.load(ctx, id); err != nil {
		return err
	}
	err := s.assignmentMenu(ctx)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// output helpers

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.p.out, format, args...)
}

func (s *Shell) header(title string) {
	st := s.cfg.Styles
	s.printf("%s\n", st.Apply(st.Menu, "==== "+title+" ===="))
}

func (s *Shell) notice(ctx context.Context, msgID string) {
	s.noticeText(i18n.T(ctx, msgID))
}

func (s *Shell) noticeText(text string) {
	st := s.cfg.Styles
	s.printf("\n%s\n\n", st.Apply(st.Error, "*** "+text+" ***"))
}

func (s *Shell) clear() {
	if s.cfg.Clear {
		s.printf("%s", clearScreen)
	}
}

// input helpers

// menu lists items and returns the 0-based index of the chosen one.
func (s *Shell) menu(ctx context.Context, title string, items []string) (int, error) {
	for {
		s.header(title)
		for i, item := range items {
			s.printf("%d. %s\n", i+1, item)
		}
		ans, err := s.p.line(i18n.T(ctx, "Choice"))
		if err != nil {
			return 0, err
		}
		if n, ok := parseWhole(ans); ok && n >= 1 && n <= len(items) {
			s.clear()
			return n - 1, nil
		}
		s.notice(ctx, "InvalidChoice")
	}
}

// text reads a non-empty line.
func (s *Shell) text(ctx context.Context, prompt string) (string, error) {
	for {
		ans, err := s.p.line(prompt)
		if err != nil || ans != "" {
			return ans, err
		}
		s.notice(ctx, "InputEmpty")
	}
}

// textOr reads a line, keeping current when the line is empty.
func (s *Shell) textOr(prompt, current string) (string, error) {
	ans, err := s.p.line(prompt)
	if err != nil || ans != "" {
		return ans, err
	}
	return current, nil
}

func (s *Shell) whole(ctx context.Context, prompt string) (int, error) {
	for {
		ans, err := s.text(ctx, prompt)
		if err != nil {
			return 0, err
		}
		if n, ok := parseWhole(ans); ok {
			return n, nil
		}
		s.notice(ctx, "NotAWholeNumber")
	}
}

// amount reads a non-negative decimal. An empty line keeps current when
// hasCurrent is set.
func (s *Shell) amount(ctx context.Context, prompt, negativeID string, current float64, hasCurrent bool) (float64, error) {
	for {
		var ans string
		var err error
		if hasCurrent {
			ans, err = s.textOr(prompt, render.Num(current))
		} else {
			ans, err = s.text(ctx, prompt)
		}
		if err != nil {
			return 0, err
		}
		f, ok := parseDecimal(ans)
		switch {
		case !ok:
			s.notice(ctx, "NotANumber")
		case f < 0:
			s.notice(ctx, negativeID)
		default:
			return f, nil
		}
	}
}

func (s *Shell) confirm(ctx context.Context) (bool, error) {
	ans, err := s.text(ctx, i18n.T(ctx, "Satisfied"))
	if err != nil {
		return false, err
	}
	s.clear()
	return strings.EqualFold(ans, "y"), nil
}

// persistence

func (s *Shell) load(ctx context.Context, id int64) error {
	a, err := s.repo.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load assignment %d: %w", id, err)
	}
	s.a, s.id = a, id
	slog.Info("opened assignment", "id", id, "course", a.Course, "title", a.Title)
	return s.repo.SetLastAssignment(ctx, id)
}

func (s *Shell) save(ctx context.Context) error {
	id, err := s.repo.Save(ctx, s.a)
	if err != nil {
		return fmt.Errorf("save assignment: %w", err)
	}
	if id != s.id {
		s.id = id
		return s.repo.SetLastAssignment(ctx, id)
	}
	return nil
}

// apply runs a model mutation and saves on success. A rejected mutation is
// reported and the session continues.
func (s *Shell) apply(ctx context.Context, op string, fn func() error) error {
	if err := fn(); err != nil {
		slog.Error("operation failed", "op", op, "error", err)
		s.noticeText(i18n.Td(ctx, "OperationFailed", map[string]any{"Error": err.Error()}))
		return nil
	}
	slog.Debug("applied", "op", op)
	return s.save(ctx)
}
