package rest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kelvi11/smart-warehouse/pkg/events"
)

// Query parameters controlling the result window and ordering.
const (
	ParamStartRow = "startRow"
	ParamPageSize = "pageSize"
	ParamOrderBy  = "orderBy"
)

// DefaultPageSize is used when a list request omits pageSize.
const DefaultPageSize = 10

// Window is the requested slice of a result set. PageSize 0 means all rows.
type Window struct {
	StartRow int
	PageSize int
}

func parseWindow(p *Params) (Window, error) {
	w := Window{PageSize: DefaultPageSize}

	if p.Present(ParamStartRow) {
		n, err := p.Int(ParamStartRow)
		if err != nil {
			return w, err
		}
		if n < 0 {
			return w, InvalidParameter("%s must not be negative", ParamStartRow)
		}
		w.StartRow = n
	}
	if p.Present(ParamPageSize) {
		n, err := p.Int(ParamPageSize)
		if err != nil {
			return w, err
		}
		if n < 0 {
			return w, InvalidParameter("%s must not be negative", ParamPageSize)
		}
		w.PageSize = n
	}
	return w, nil
}

// Query is what a Store receives for a page read.
type Query struct {
	Predicates []Predicate
	Order      []OrderParam
	Offset     int
	Limit      int
}

// Page is one window of a list result. ListSize is the total number of
// matching rows, independent of the window.
type Page[T any] struct {
	Items    []T
	StartRow int
	PageSize int
	ListSize int64
}

// Store is the storage collaborator of an Engine. Implementations
// interpret predicates and order params against their own backend.
type Store[T any] interface {
	Count(ctx context.Context, preds []Predicate) (int64, error)
	Find(ctx context.Context, q Query) ([]T, error)
	// Get returns ErrNoRecord when no row has id.
	Get(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, entity *T) error
	// Replace and Delete return ErrNoRecord when no row has the entity's id.
	Replace(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id string) error
	// InTx runs fn inside one transaction; tx is bound to it.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store[T]) error) error
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger    *zap.Logger
	publisher events.Publisher
}

// WithLogger sets the logger used for lifecycle and storage messages.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPublisher sets where change events go after a committed write.
func WithPublisher(p events.Publisher) EngineOption {
	return func(o *engineOptions) {
		if p != nil {
			o.publisher = p
		}
	}
}

// Engine runs list queries and lifecycle operations for one resource type.
type Engine[T any] struct {
	res          Resource[T]
	store        Store[T]
	fields       fieldSet[T]
	defaultOrder []OrderParam
	humanName    string
	logger       *zap.Logger
	publisher    events.Publisher
}

// NewEngine checks the resource declaration and returns an engine over store.
// An inconsistent declaration yields a *ConfigurationError.
func NewEngine[T any](res Resource[T], store Store[T], opts ...EngineOption) (*Engine[T], error) {
	o := engineOptions{
		logger:    zap.NewNop(),
		publisher: events.Nop{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	fields, err := newFieldSet(res)
	if err != nil {
		return nil, err
	}

	defaultOrder := parseOrderBy(res.DefaultOrderBy())
	if len(defaultOrder) == 0 {
		return nil, &ConfigurationError{Resource: res.Name(), Message: fmt.Sprintf("default order %q has no valid directive", res.DefaultOrderBy())}
	}
	if err := fields.checkOrder(res.Name(), defaultOrder); err != nil {
		return nil, err
	}

	return &Engine[T]{
		res:          res,
		store:        store,
		fields:       fields,
		defaultOrder: defaultOrder,
		humanName:    Humanize(res.Name()),
		logger:       o.logger.With(zap.String("resource", res.Name())),
		publisher:    o.publisher,
	}, nil
}

// Resource returns the resource the engine serves.
func (e *Engine[T]) Resource() Resource[T] {
	return e.res
}

// Count returns the number of rows matching preds.
func (e *Engine[T]) Count(ctx context.Context, preds []Predicate) (int64, error) {
	if err := e.fields.checkPredicates(e.res.Name(), preds); err != nil {
		return 0, err
	}
	n, err := e.store.Count(ctx, preds)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", e.res.Name(), err)
	}
	return n, nil
}

// List returns one page of the rows matching the request parameters.
// Parameters are fully validated before storage is touched. Count and page
// read run in the same transaction; no page read is issued when nothing
// matches. A pageSize of 0 returns every matching row.
func (e *Engine[T]) List(ctx context.Context, p *Params) (*Page[T], error) {
	window, err := parseWindow(p)
	if err != nil {
		return nil, err
	}
	q, err := e.query(p)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{
		Items:    []T{},
		StartRow: window.StartRow,
		PageSize: window.PageSize,
	}

	err = e.store.InTx(ctx, func(ctx context.Context, tx Store[T]) error {
		count, err := tx.Count(ctx, q.Predicates)
		if err != nil {
			return fmt.Errorf("count %s: %w", e.res.Name(), err)
		}
		page.ListSize = count
		if count == 0 {
			return nil
		}
		if page.PageSize == 0 {
			page.PageSize = int(count)
		}

		q.Offset = page.StartRow
		q.Limit = page.PageSize
		items, err := tx.Find(ctx, q)
		if err != nil {
			return fmt.Errorf("find %s: %w", e.res.Name(), err)
		}
		if items != nil {
			page.Items = items
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// All returns every row matching the request filters in the requested
// order, ignoring the window.
func (e *Engine[T]) All(ctx context.Context, p *Params) ([]T, error) {
	q, err := e.query(p)
	if err != nil {
		return nil, err
	}

	var items []T
	err = e.store.InTx(ctx, func(ctx context.Context, tx Store[T]) error {
		count, err := tx.Count(ctx, q.Predicates)
		if err != nil || count == 0 {
			return err
		}
		q.Limit = int(count)
		items, err = tx.Find(ctx, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list all %s: %w", e.res.Name(), err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// query builds the predicates and order of a request without the window.
func (e *Engine[T]) query(p *Params) (Query, error) {
	preds, err := e.res.Filters(p)
	if err != nil {
		return Query{}, err
	}
	if err := e.fields.checkPredicates(e.res.Name(), preds); err != nil {
		return Query{}, err
	}

	order := e.defaultOrder
	if raw, ok := p.Get(ParamOrderBy); ok {
		order = parseOrderBy(raw)
		if err := e.fields.checkOrder(e.res.Name(), order); err != nil {
			return Query{}, err
		}
	}

	return Query{Predicates: preds, Order: order}, nil
}
