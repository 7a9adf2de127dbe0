package source

import (
	"context"
	"fmt"

	"github.com/itsmops/refdata-validator/pkg/models"
)

// Source yields named tabular datasets. The loader is agnostic to the
// physical backing: CSV files, MySQL tables, and MongoDB collections all
// produce the same string-valued records.
type Source interface {
	// Fetch returns the table for a dataset name
	Fetch(ctx context.Context, name string) (models.Table, error)
	// Close releases any underlying connection
	Close() error
}

// Static is an in-memory source backed by a fixed table set
type Static struct {
	Tables map[string]models.Table
}

// NewStatic creates a source over pre-built tables
func NewStatic(tables ...models.Table) *Static {
	m := make(map[string]models.Table, len(tables))
	for _, t := range tables {
		m[t.Name] = t
	}
	return &Static{Tables: m}
}

// Fetch returns the named table
func (s *Static) Fetch(_ context.Context, name string) (models.Table, error) {
	table, ok := s.Tables[name]
	if !ok {
		return models.Table{}, fmt.Errorf("no table %q in static source", name)
	}
	return table, nil
}

// Close is a no-op for static sources
func (s *Static) Close() error { return nil }
