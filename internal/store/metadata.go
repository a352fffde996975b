package store

import (
	"context"
	"database/sql"
	"strconv"
)

const lastAssignmentKey = "last_assignment_id"

// SetMetadata upserts a key-value pair in the metadata table.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetLastAssignment remembers the assignment most recently worked on.
func (s *Store) SetLastAssignment(ctx context.Context, id int64) error {
	return s.SetMetadata(ctx, lastAssignmentKey, strconv.FormatInt(id, 10))
}

// LastAssignment returns the assignment most recently worked on, if any.
func (s *Store) LastAssignment(ctx context.Context) (int64, bool, error) {
	v, err := s.GetMetadata(ctx, lastAssignmentKey)
	if err != nil || v == "" {
		return 0, false, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
