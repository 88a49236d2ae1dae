// Package memstore is an in-memory rest.Store. It evaluates predicates and
// sort orders in process and gives each transaction a private copy of the
// data that replaces the shared one on commit.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

// Store keeps the rows of one resource in memory.
type Store[T any] struct {
	txMu sync.Mutex // serializes transactions

	mu   sync.RWMutex // guards data
	data *table[T]
}

// New returns an empty store for res.
func New[T any](res rest.Resource[T]) *Store[T] {
	fields := make(map[string]rest.Field[T])
	var unique []rest.Field[T]
	for _, f := range res.Fields() {
		fields[f.Name] = f
		if f.Unique {
			unique = append(unique, f)
		}
	}
	return &Store[T]{
		data: &table[T]{
			rows:   make(map[string]T),
			fields: fields,
			unique: unique,
			id:     res.ID,
		},
	}
}

func (s *Store[T]) snapshot() *table[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Store[T]) Count(_ context.Context, preds []rest.Predicate) (int64, error) {
	return s.snapshot().count(preds)
}

func (s *Store[T]) Find(_ context.Context, q rest.Query) ([]T, error) {
	return s.snapshot().find(q)
}

func (s *Store[T]) Get(_ context.Context, id string) (T, error) {
	return s.snapshot().get(id)
}

func (s *Store[T]) Insert(ctx context.Context, entity *T) error {
	return s.InTx(ctx, func(ctx context.Context, tx rest.Store[T]) error {
		return tx.Insert(ctx, entity)
	})
}

func (s *Store[T]) Replace(ctx context.Context, entity *T) error {
	return s.InTx(ctx, func(ctx context.Context, tx rest.Store[T]) error {
		return tx.Replace(ctx, entity)
	})
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	return s.InTx(ctx, func(ctx context.Context, tx rest.Store[T]) error {
		return tx.Delete(ctx, id)
	})
}

// InTx runs fn against a private copy of the data. The copy becomes the
// store's data when fn returns nil and is dropped otherwise. Transactions
// run one at a time; reads outside a transaction see the last commit.
func (s *Store[T]) InTx(ctx context.Context, fn func(ctx context.Context, tx rest.Store[T]) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	work := s.snapshot().clone()
	if err := fn(ctx, &txView[T]{t: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = work
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored rows.
func (s *Store[T]) Len() int {
	return len(s.snapshot().rows)
}

// txView is the view of a running transaction.
type txView[T any] struct {
	t *table[T]
}

func (x *txView[T]) Count(_ context.Context, preds []rest.Predicate) (int64, error) {
	return x.t.count(preds)
}

func (x *txView[T]) Find(_ context.Context, q rest.Query) ([]T, error) {
	return x.t.find(q)
}

func (x *txView[T]) Get(_ context.Context, id string) (T, error) {
	return x.t.get(id)
}

func (x *txView[T]) Insert(_ context.Context, entity *T) error {
	id := x.t.id(entity)
	if _, ok := x.t.rows[id]; ok {
		return rest.ErrConflict
	}
	if err := x.t.checkUnique(id, entity); err != nil {
		return err
	}
	x.t.rows[id] = *entity
	return nil
}

func (x *txView[T]) Replace(_ context.Context, entity *T) error {
	id := x.t.id(entity)
	if _, ok := x.t.rows[id]; !ok {
		return rest.ErrNoRecord
	}
	if err := x.t.checkUnique(id, entity); err != nil {
		return err
	}
	x.t.rows[id] = *entity
	return nil
}

func (x *txView[T]) Delete(_ context.Context, id string) error {
	if _, ok := x.t.rows[id]; !ok {
		return rest.ErrNoRecord
	}
	delete(x.t.rows, id)
	return nil
}

// InTx on a running transaction joins it.
func (x *txView[T]) InTx(ctx context.Context, fn func(ctx context.Context, tx rest.Store[T]) error) error {
	return fn(ctx, x)
}

type table[T any] struct {
	rows   map[string]T
	fields map[string]rest.Field[T]
	unique []rest.Field[T]
	id     func(*T) string
}

func (t *table[T]) clone() *table[T] {
	return &table[T]{
		rows:   maps.Clone(t.rows),
		fields: t.fields,
		unique: t.unique,
		id:     t.id,
	}
}

// checkUnique reports the first unique field of entity whose value is held
// by a row other than id. Missing values never clash, as NULLs in SQL.
func (t *table[T]) checkUnique(id string, entity *T) error {
	for _, f := range t.unique {
		v := f.Get(entity)
		if isNull(f.Kind, v) {
			continue
		}
		for otherID, row := range t.rows {
			if otherID != id && compareValues(f.Kind, f.Get(&row), v) == 0 {
				return &rest.ConflictError{Field: f.Name, Value: v}
			}
		}
	}
	return nil
}

func (t *table[T]) get(id string) (T, error) {
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, rest.ErrNoRecord
	}
	return row, nil
}

func (t *table[T]) count(preds []rest.Predicate) (int64, error) {
	m, err := t.matcher(preds)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, row := range t.rows {
		if m(&row) {
			n++
		}
	}
	return n, nil
}

func (t *table[T]) find(q rest.Query) ([]T, error) {
	m, err := t.matcher(q.Predicates)
	if err != nil {
		return nil, err
	}
	sorter, err := t.sorter(q.Order)
	if err != nil {
		return nil, err
	}

	ids := slices.Sorted(maps.Keys(t.rows))
	matched := make([]T, 0, len(ids))
	for _, id := range ids {
		row := t.rows[id]
		if m(&row) {
			matched = append(matched, row)
		}
	}
	slices.SortStableFunc(matched, sorter)

	if q.Offset >= len(matched) {
		return []T{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// matcher compiles preds into one function reporting whether a row
// satisfies all of them.
func (t *table[T]) matcher(preds []rest.Predicate) (func(*T) bool, error) {
	tests := make([]func(*T) bool, 0, len(preds))
	for _, p := range preds {
		f, ok := t.fields[p.Field]
		if !ok {
			return nil, fmt.Errorf("memstore: unknown field %q", p.Field)
		}
		test, err := compile(f, p)
		if err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}
	return func(row *T) bool {
		for _, test := range tests {
			if !test(row) {
				return false
			}
		}
		return true
	}, nil
}

func (t *table[T]) sorter(order []rest.OrderParam) (func(a, b T) int, error) {
	getters := make([]rest.Field[T], 0, len(order))
	for _, o := range order {
		f, ok := t.fields[o.Field]
		if !ok {
			return nil, fmt.Errorf("memstore: unknown sort field %q", o.Field)
		}
		getters = append(getters, f)
	}
	return func(a, b T) int {
		for i, f := range getters {
			c := compareValues(f.Kind, f.Get(&a), f.Get(&b))
			if order[i].Direction == rest.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}, nil
}
