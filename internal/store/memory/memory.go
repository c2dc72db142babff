// Package memory is an in-process RowStore. It backs the offline demo mode
// and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jwalitptl/clinical-records/internal/store"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
)

// Store keeps rows per table in insertion order.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]store.Row
	// missing lists tables that behave as not migrated.
	missing map[string]bool
}

func New(tables ...string) *Store {
	s := &Store{
		tables:  make(map[string][]store.Row),
		missing: make(map[string]bool),
	}
	for _, t := range tables {
		s.tables[t] = nil
	}
	return s
}

// DropTable makes every later call on table fail with SchemaMismatch.
func (s *Store) DropTable(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, table)
	s.missing[table] = true
}

// Rows returns a copy of every row of table, for assertions.
func (s *Store) Rows(table string) []store.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Row, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

func (s *Store) check(table string) error {
	if s.missing[table] {
		return apperrors.SchemaMismatch(table, fmt.Errorf("relation %q does not exist", table))
	}
	return nil
}

func (s *Store) Query(ctx context.Context, table string, filter store.Filter, order *store.Order) ([]store.Row, error) {
	if err := filter.Validate(); err != nil {
		return nil, apperrors.Internal(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(table); err != nil {
		return nil, err
	}

	var out []store.Row
	for _, r := range s.tables[table] {
		if matches(r, filter) {
			out = append(out, copyRow(r))
		}
	}
	if order != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if order.Desc {
				return less(out[j][order.Column], out[i][order.Column])
			}
			return less(out[i][order.Column], out[j][order.Column])
		})
	}
	return out, nil
}

func (s *Store) QueryOne(ctx context.Context, table string, filter store.Filter) (store.Row, error) {
	rows, err := s.Query(ctx, table, filter, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound(table+" row", nil)
	}
	return rows[0], nil
}

func (s *Store) Insert(ctx context.Context, table string, row store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(table); err != nil {
		return err
	}
	s.tables[table] = append(s.tables[table], copyRow(row))
	return nil
}

func (s *Store) Update(ctx context.Context, table string, filter store.Filter, patch store.Row) error {
	if err := filter.Validate(); err != nil {
		return apperrors.Internal(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(table); err != nil {
		return err
	}
	for _, r := range s.tables[table] {
		if matches(r, filter) {
			for k, v := range patch {
				r[k] = v
			}
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, table string, filter store.Filter) error {
	if err := filter.Validate(); err != nil {
		return apperrors.Internal(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(table); err != nil {
		return err
	}
	kept := s.tables[table][:0]
	for _, r := range s.tables[table] {
		if !matches(r, filter) {
			kept = append(kept, r)
		}
	}
	s.tables[table] = kept
	return nil
}

func matches(r store.Row, filter store.Filter) bool {
	for _, c := range filter {
		v, ok := r[c.Column]
		switch c.Op {
		case store.OpEq:
			if !ok || !equal(v, c.Value) {
				return false
			}
		case store.OpIn:
			if !ok {
				return false
			}
			found := false
			for _, want := range c.Value.([]string) {
				if equal(v, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func equal(a, b interface{}) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func less(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func copyRow(r store.Row) store.Row {
	out := make(store.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
