// Package store defines the narrow row-level contract the reconciliation
// layer uses to talk to the hosted database.
package store

import (
	"context"
	"fmt"
	"regexp"
)

// Row is one table row keyed by column name.
type Row map[string]interface{}

// Op is a comparison operator in a Filter.
type Op string

const (
	OpEq Op = "="
	OpIn Op = "IN"
)

// Cond compares one column against a value. For OpIn, Value is a []string.
type Cond struct {
	Column string
	Op     Op
	Value  interface{}
}

// Filter is a conjunction of conditions. An empty filter matches every row.
type Filter []Cond

// Eq matches rows whose column equals v.
func Eq(column string, v interface{}) Cond {
	return Cond{Column: column, Op: OpEq, Value: v}
}

// In matches rows whose column is one of values. An empty set matches nothing.
func In(column string, values []string) Cond {
	return Cond{Column: column, Op: OpIn, Value: values}
}

// Where builds a Filter from conditions.
func Where(conds ...Cond) Filter {
	return Filter(conds)
}

// Order sorts a query result by one column.
type Order struct {
	Column string
	Desc   bool
}

// RowStore is the backend capability consumed by the repositories. Errors
// carry a pkg/errors code: NotFound (QueryOne only), SchemaMismatch,
// BackendUnavailable or Internal.
type RowStore interface {
	Query(ctx context.Context, table string, filter Filter, order *Order) ([]Row, error)
	QueryOne(ctx context.Context, table string, filter Filter) (Row, error)
	Insert(ctx context.Context, table string, row Row) error
	Update(ctx context.Context, table string, filter Filter, patch Row) error
	Delete(ctx context.Context, table string, filter Filter) error
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to splice into SQL.
func ValidIdentifier(name string) bool {
	return identifier.MatchString(name)
}

// Validate checks the column names and operand shapes of f.
func (f Filter) Validate() error {
	for _, c := range f {
		if !ValidIdentifier(c.Column) {
			return fmt.Errorf("invalid column name %q", c.Column)
		}
		switch c.Op {
		case OpEq:
		case OpIn:
			if _, ok := c.Value.([]string); !ok {
				return fmt.Errorf("IN operand for %q must be []string", c.Column)
			}
		default:
			return fmt.Errorf("unsupported operator %q", c.Op)
		}
	}
	return nil
}

// MatchesNothing reports whether an IN condition has an empty operand, so
// the query can be skipped.
func (f Filter) MatchesNothing() bool {
	for _, c := range f {
		if c.Op == OpIn {
			if vs, ok := c.Value.([]string); ok && len(vs) == 0 {
				return true
			}
		}
	}
	return false
}
