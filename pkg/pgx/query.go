package pgx

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

var sqlOps = map[rest.Op]string{
	rest.OpEq:   "=",
	rest.OpGt:   ">",
	rest.OpGe:   ">=",
	rest.OpLt:   "<",
	rest.OpLe:   "<=",
	rest.OpFrom: ">",
	rest.OpTo:   "<",
	rest.OpLike: "LIKE",
}

// queryBuilder accumulates positional arguments while SQL text is built.
type queryBuilder struct {
	args []any
}

func (qb *queryBuilder) placeholder(value any) string {
	qb.args = append(qb.args, value)
	return fmt.Sprintf("$%d", len(qb.args))
}

// where translates preds into a WHERE clause; empty preds yield "".
func where[T any](qb *queryBuilder, fields map[string]rest.Field[T], preds []rest.Predicate) (string, error) {
	if len(preds) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(preds))
	for _, p := range preds {
		f, ok := fields[p.Field]
		if !ok {
			return "", fmt.Errorf("pgx: unknown field %q", p.Field)
		}
		op, ok := sqlOps[p.Op]
		if !ok {
			return "", fmt.Errorf("pgx: unsupported operator %q", p.Op)
		}

		column := pgx.Identifier{f.Column}.Sanitize()
		if p.Op == rest.OpLike && p.Fold {
			column = "lower(" + column + ")"
		}
		clauses = append(clauses, fmt.Sprintf("%s %s %s", column, op, qb.placeholder(sqlValue(f.Kind, p.Value))))
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

// orderBy translates order into an ORDER BY clause; empty order yields "".
func orderBy[T any](fields map[string]rest.Field[T], order []rest.OrderParam) (string, error) {
	if len(order) == 0 {
		return "", nil
	}

	terms := make([]string, 0, len(order))
	for _, o := range order {
		f, ok := fields[o.Field]
		if !ok {
			return "", fmt.Errorf("pgx: unknown sort field %q", o.Field)
		}
		dir := "ASC"
		if o.Direction == rest.Desc {
			dir = "DESC"
		}
		terms = append(terms, pgx.Identifier{f.Column}.Sanitize()+" "+dir)
	}
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

// sqlValue maps a field value to its query argument. Zero dates are NULL.
func sqlValue(kind rest.Kind, v any) any {
	if kind != rest.KindDate {
		return v
	}
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return rest.NewDate(t)
	case rest.Date:
		if t.IsZero() {
			return nil
		}
		return t
	}
	return v
}
