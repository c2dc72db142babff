package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinical-records/internal/store"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/metrics"
)

// Store implements store.RowStore on top of PostgreSQL.
type Store struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

func NewStore(db *sqlx.DB, m *metrics.Metrics) *Store {
	return &Store{db: db, metrics: m}
}

func (s *Store) Query(ctx context.Context, table string, filter store.Filter, order *store.Order) ([]store.Row, error) {
	if filter.MatchesNothing() {
		return nil, nil
	}
	where, args, err := buildWhere(filter, 1)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !store.ValidIdentifier(table) {
		return nil, apperrors.Internal(fmt.Errorf("invalid table name %q", table))
	}

	query := "SELECT * FROM " + table + where
	if order != nil {
		if !store.ValidIdentifier(order.Column) {
			return nil, apperrors.Internal(fmt.Errorf("invalid order column %q", order.Column))
		}
		query += " ORDER BY " + order.Column
		if order.Desc {
			query += " DESC"
		}
	}

	start := time.Now()
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		s.observe("query", table, start, err)
		return nil, classify(table, err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		r := make(map[string]interface{})
		if err := rows.MapScan(r); err != nil {
			s.observe("query", table, start, err)
			return nil, classify(table, err)
		}
		out = append(out, normalize(r))
	}
	err = rows.Err()
	s.observe("query", table, start, err)
	if err != nil {
		return nil, classify(table, err)
	}
	return out, nil
}

func (s *Store) QueryOne(ctx context.Context, table string, filter store.Filter) (store.Row, error) {
	rows, err := s.Query(ctx, table, filter, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound(table+" row", sql.ErrNoRows)
	}
	return rows[0], nil
}

func (s *Store) Insert(ctx context.Context, table string, row store.Row) error {
	if !store.ValidIdentifier(table) {
		return apperrors.Internal(fmt.Errorf("invalid table name %q", table))
	}
	cols := sortedColumns(row)
	placeholders := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		if !store.ValidIdentifier(c) {
			return apperrors.Internal(fmt.Errorf("invalid column name %q", c))
		}
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[c]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	start := time.Now()
	_, err := s.db.ExecContext(ctx, query, args...)
	s.observe("insert", table, start, err)
	if err != nil {
		return classify(table, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, table string, filter store.Filter, patch store.Row) error {
	if !store.ValidIdentifier(table) {
		return apperrors.Internal(fmt.Errorf("invalid table name %q", table))
	}
	if len(patch) == 0 || filter.MatchesNothing() {
		return nil
	}
	cols := sortedColumns(patch)
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+len(filter))
	for i, c := range cols {
		if !store.ValidIdentifier(c) {
			return apperrors.Internal(fmt.Errorf("invalid column name %q", c))
		}
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
		args = append(args, patch[c])
	}
	where, whereArgs, err := buildWhere(filter, len(cols)+1)
	if err != nil {
		return apperrors.Internal(err)
	}
	args = append(args, whereArgs...)

	query := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + where

	start := time.Now()
	_, err = s.db.ExecContext(ctx, query, args...)
	s.observe("update", table, start, err)
	if err != nil {
		return classify(table, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, table string, filter store.Filter) error {
	if !store.ValidIdentifier(table) {
		return apperrors.Internal(fmt.Errorf("invalid table name %q", table))
	}
	if filter.MatchesNothing() {
		return nil
	}
	if len(filter) == 0 {
		return apperrors.Internal(fmt.Errorf("refusing unfiltered delete on %s", table))
	}
	where, args, err := buildWhere(filter, 1)
	if err != nil {
		return apperrors.Internal(err)
	}

	start := time.Now()
	_, err = s.db.ExecContext(ctx, "DELETE FROM "+table+where, args...)
	s.observe("delete", table, start, err)
	if err != nil {
		return classify(table, err)
	}
	return nil
}

func (s *Store) observe(op, table string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(op, table, status).Inc()
	s.metrics.StoreLatency.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
}

// buildWhere renders filter with placeholders numbered from first.
func buildWhere(filter store.Filter, first int) (string, []interface{}, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}
	if len(filter) == 0 {
		return "", nil, nil
	}
	parts := make([]string, len(filter))
	args := make([]interface{}, len(filter))
	for i, c := range filter {
		n := first + i
		switch c.Op {
		case store.OpIn:
			parts[i] = fmt.Sprintf("%s = ANY($%d)", c.Column, n)
			args[i] = pq.Array(c.Value.([]string))
		default:
			parts[i] = fmt.Sprintf("%s = $%d", c.Column, n)
			args[i] = c.Value
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func sortedColumns(row store.Row) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// normalize turns driver byte slices (numeric, uuid) into strings.
func normalize(r map[string]interface{}) store.Row {
	out := make(store.Row, len(r))
	for k, v := range r {
		if b, ok := v.([]byte); ok {
			out[k] = string(b)
			continue
		}
		out[k] = v
	}
	return out
}

// classify maps driver errors onto the error taxonomy.
func classify(table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(table+" row", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "42P01", pqErr.Code == "42703":
			return apperrors.SchemaMismatch(table, err)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "53",
			pqErr.Code == "57P01", pqErr.Code == "57P02", pqErr.Code == "57P03":
			return apperrors.BackendUnavailable(err)
		}
		return apperrors.Internal(err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &netErr) {
		return apperrors.BackendUnavailable(err)
	}
	return apperrors.Internal(err)
}
