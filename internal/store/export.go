package store

import (
	"context"
	"fmt"

	"github.com/pavelanni/easymark/internal/model"
)

// ExportAll builds export-ready results for every saved assignment.
func (s *Store) ExportAll(ctx context.Context) ([]model.AssignmentExport, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	exports := make([]model.AssignmentExport, 0, len(list))
	for _, sum := range list {
		a, err := s.Load(ctx, sum.ID)
		if err != nil {
			return nil, fmt.Errorf("load assignment %d: %w", sum.ID, err)
		}
		exports = append(exports, model.ExportAssignment(a))
	}
	return exports, nil
}
