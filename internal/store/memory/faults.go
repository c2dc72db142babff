package memory

import (
	"context"
	"sync"

	"github.com/jwalitptl/clinical-records/internal/store"
)

// Faulty wraps a RowStore and fails calls on selected tables. It counts
// queries per table so tests can assert round trips.
type Faulty struct {
	store.RowStore

	mu      sync.Mutex
	failing map[string]error
	queries map[string]int
}

func NewFaulty(inner store.RowStore) *Faulty {
	return &Faulty{
		RowStore: inner,
		failing:  make(map[string]error),
		queries:  make(map[string]int),
	}
}

// FailTable makes every call on table return err. A nil err clears it.
func (f *Faulty) FailTable(table string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failing, table)
		return
	}
	f.failing[table] = err
}

// Queries returns how many Query/QueryOne calls reached table.
func (f *Faulty) Queries(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[table]
}

// ResetCounts clears the query counters.
func (f *Faulty) ResetCounts() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = make(map[string]int)
}

func (f *Faulty) enter(table string, query bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if query {
		f.queries[table]++
	}
	return f.failing[table]
}

func (f *Faulty) Query(ctx context.Context, table string, filter store.Filter, order *store.Order) ([]store.Row, error) {
	if err := f.enter(table, true); err != nil {
		return nil, err
	}
	return f.RowStore.Query(ctx, table, filter, order)
}

func (f *Faulty) QueryOne(ctx context.Context, table string, filter store.Filter) (store.Row, error) {
	if err := f.enter(table, true); err != nil {
		return nil, err
	}
	return f.RowStore.QueryOne(ctx, table, filter)
}

func (f *Faulty) Insert(ctx context.Context, table string, row store.Row) error {
	if err := f.enter(table, false); err != nil {
		return err
	}
	return f.RowStore.Insert(ctx, table, row)
}

func (f *Faulty) Update(ctx context.Context, table string, filter store.Filter, patch store.Row) error {
	if err := f.enter(table, false); err != nil {
		return err
	}
	return f.RowStore.Update(ctx, table, filter, patch)
}

func (f *Faulty) Delete(ctx context.Context, table string, filter store.Filter) error {
	if err := f.enter(table, false); err != nil {
		return err
	}
	return f.RowStore.Delete(ctx, table, filter)
}
