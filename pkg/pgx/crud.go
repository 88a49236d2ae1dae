package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

// uniqueViolation is the SQLSTATE of a duplicate key.
const uniqueViolation = "23505"

// Table is a rest.Store backed by one PostgreSQL table. Every declared
// field of the resource is a column; the first field is the primary key.
// Rows are scanned into T by column name, so T's db tags must match the
// declared columns.
type Table[T any] struct {
	conn    Conn
	name    string
	ident   string
	fields  map[string]rest.Field[T]
	ordered []rest.Field[T]
}

// TableOption configures a Table.
type TableOption func(*tableConfig)

type tableConfig struct {
	schema string
}

// WithSchema places the table in schema instead of public.
func WithSchema(schema string) TableOption {
	return func(c *tableConfig) {
		if schema != "" {
			c.schema = schema
		}
	}
}

// NewTable returns a store for res over the table name.
func NewTable[T any](conn Conn, res rest.Resource[T], name string, opts ...TableOption) *Table[T] {
	cfg := tableConfig{schema: "public"}
	for _, opt := range opts {
		opt(&cfg)
	}

	ordered := res.Fields()
	fields := make(map[string]rest.Field[T], len(ordered))
	for _, f := range ordered {
		fields[f.Name] = f
	}
	return &Table[T]{
		conn:    conn,
		name:    name,
		ident:   pgx.Identifier{cfg.schema, name}.Sanitize(),
		fields:  fields,
		ordered: ordered,
	}
}

func (t *Table[T]) with(conn Conn) *Table[T] {
	c := *t
	c.conn = conn
	return &c
}

func (t *Table[T]) idColumn() string {
	return pgx.Identifier{t.ordered[0].Column}.Sanitize()
}

func (t *Table[T]) columnList() string {
	cols := make([]string, len(t.ordered))
	for i, f := range t.ordered {
		cols[i] = pgx.Identifier{f.Column}.Sanitize()
	}
	return strings.Join(cols, ", ")
}

func (t *Table[T]) countSQL(preds []rest.Predicate) (string, []any, error) {
	qb := &queryBuilder{}
	w, err := where(qb, t.fields, preds)
	if err != nil {
		return "", nil, err
	}
	return "SELECT count(*) FROM " + t.ident + w, qb.args, nil
}

func (t *Table[T]) selectSQL(q rest.Query) (string, []any, error) {
	qb := &queryBuilder{}
	w, err := where(qb, t.fields, q.Predicates)
	if err != nil {
		return "", nil, err
	}
	o, err := orderBy(t.fields, q.Order)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s%s", t.columnList(), t.ident, w, o)
	if q.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %s", qb.placeholder(q.Offset))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %s", qb.placeholder(q.Limit))
	}
	return sb.String(), qb.args, nil
}

func (t *Table[T]) insertSQL(entity *T) (string, []any) {
	qb := &queryBuilder{}
	placeholders := make([]string, len(t.ordered))
	for i, f := range t.ordered {
		placeholders[i] = qb.placeholder(sqlValue(f.Kind, f.Get(entity)))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.ident, t.columnList(), strings.Join(placeholders, ", ")), qb.args
}

func (t *Table[T]) updateSQL(entity *T) (string, []any) {
	qb := &queryBuilder{}
	sets := make([]string, 0, len(t.ordered)-1)
	for _, f := range t.ordered[1:] {
		sets = append(sets, fmt.Sprintf("%s = %s",
			pgx.Identifier{f.Column}.Sanitize(),
			qb.placeholder(sqlValue(f.Kind, f.Get(entity)))))
	}
	id := qb.placeholder(t.ordered[0].Get(entity))
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		t.ident, strings.Join(sets, ", "), t.idColumn(), id), qb.args
}

func (t *Table[T]) Count(ctx context.Context, preds []rest.Predicate) (int64, error) {
	sql, args, err := t.countSQL(preds)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := t.conn.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func (t *Table[T]) Find(ctx context.Context, q rest.Query) ([]T, error) {
	sql, args, err := t.selectSQL(q)
	if err != nil {
		return nil, err
	}
	rows, err := t.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	return items, nil
}

func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", t.columnList(), t.ident, t.idColumn())
	rows, err := t.conn.Query(ctx, sql, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to query record: %w", err)
	}
	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return item, rest.ErrNoRecord
	}
	if err != nil {
		return item, fmt.Errorf("failed to scan record: %w", err)
	}
	return item, nil
}

func (t *Table[T]) Insert(ctx context.Context, entity *T) error {
	sql, args := t.insertSQL(entity)
	if _, err := t.conn.Exec(ctx, sql, args...); err != nil {
		if conflict := t.conflict(err, entity); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (t *Table[T]) Replace(ctx context.Context, entity *T) error {
	sql, args := t.updateSQL(entity)
	tag, err := t.conn.Exec(ctx, sql, args...)
	if err != nil {
		if conflict := t.conflict(err, entity); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rest.ErrNoRecord
	}
	return nil
}

// conflict maps a unique violation to rest.ErrConflict, or to a
// *rest.ConflictError when the violated constraint is the default
// <table>_<column>_key of a unique field. It returns nil for other errors.
func (t *Table[T]) conflict(err error, entity *T) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	for _, f := range t.ordered[1:] {
		if f.Unique && pgErr.ConstraintName == t.name+"_"+f.Column+"_key" {
			return &rest.ConflictError{Field: f.Name, Value: f.Get(entity)}
		}
	}
	return rest.ErrConflict
}

func (t *Table[T]) Delete(ctx context.Context, id string) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", t.ident, t.idColumn())
	tag, err := t.conn.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rest.ErrNoRecord
	}
	return nil
}

// InTx runs fn in a transaction, or in a savepoint when t is already bound
// to one. The transaction commits when fn returns nil.
func (t *Table[T]) InTx(ctx context.Context, fn func(ctx context.Context, tx rest.Store[T]) error) error {
	return pgx.BeginFunc(ctx, t.conn, func(tx pgx.Tx) error {
		return fn(ctx, t.with(tx))
	})
}
