package rest_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Kelvi11/smart-warehouse/pkg/events"
	"github.com/Kelvi11/smart-warehouse/pkg/memstore"
	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

type stockItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	Received rest.Date `json:"received"`
}

type stockItems struct{}

func (stockItems) Name() string { return "StockItem" }

func (stockItems) Fields() []rest.Field[stockItem] {
	return []rest.Field[stockItem]{
		{Name: "id", Column: "id", Kind: rest.KindString, Get: func(s *stockItem) any { return s.ID }},
		{Name: "name", Column: "name", Kind: rest.KindString, Get: func(s *stockItem) any { return s.Name }},
		{Name: "quantity", Column: "quantity", Kind: rest.KindInt, Get: func(s *stockItem) any { return s.Quantity }},
		{Name: "received", Column: "received", Kind: rest.KindDate, Get: func(s *stockItem) any { return s.Received.Time }},
	}
}

func (stockItems) DefaultOrderBy() string { return "name asc" }

func (stockItems) Filters(p *rest.Params) ([]rest.Predicate, error) {
	return rest.NewFilterBuilder(p).Like("name").Int("quantity").Date("received").Equal("id").Predicates()
}

func (stockItems) Validate(s *stockItem) error {
	if s.Quantity < 1 {
		return rest.InvalidParameter("Stock item quantity should be a positive number!")
	}
	return nil
}

func (stockItems) ID(s *stockItem) string { return s.ID }

func (stockItems) SetID(s *stockItem, id string) { s.ID = id }

// brokenFilters declares a filter on a field that does not exist.
type brokenFilters struct{ stockItems }

func (brokenFilters) Filters(*rest.Params) ([]rest.Predicate, error) {
	return []rest.Predicate{{Field: "colour", Op: rest.OpEq, Value: "red"}}, nil
}

// spyStore counts page reads, including those made inside transactions,
// and fails every call when fail is set.
type spyStore struct {
	rest.Store[stockItem]
	finds *atomic.Int32
	fail  error
}

func (s spyStore) Find(ctx context.Context, q rest.Query) ([]stockItem, error) {
	s.finds.Add(1)
	return s.Store.Find(ctx, q)
}

func (s spyStore) Get(ctx context.Context, id string) (stockItem, error) {
	if s.fail != nil {
		return stockItem{}, s.fail
	}
	return s.Store.Get(ctx, id)
}

func (s spyStore) InTx(ctx context.Context, fn func(ctx context.Context, tx rest.Store[stockItem]) error) error {
	if s.fail != nil {
		return s.fail
	}
	return s.Store.InTx(ctx, func(ctx context.Context, tx rest.Store[stockItem]) error {
		return fn(ctx, spyStore{Store: tx, finds: s.finds})
	})
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) Close() error { return nil }

func newEngine(t *testing.T, opts ...rest.EngineOption) (*rest.Engine[stockItem], *spyStore) {
	t.Helper()
	spy := &spyStore{Store: memstore.New[stockItem](stockItems{}), finds: new(atomic.Int32)}
	e, err := rest.NewEngine[stockItem](stockItems{}, spy, opts...)
	require.NoError(t, err)
	return e, spy
}

func seedItems(t *testing.T, store rest.Store[stockItem], n int) {
	t.Helper()
	for i := range n {
		item := stockItem{ID: fmt.Sprintf("s-%02d", i), Name: fmt.Sprintf("item %02d", i), Quantity: i}
		require.NoError(t, store.Insert(context.Background(), &item))
	}
}

func TestListWindow(t *testing.T) {
	e, spy := newEngine(t)
	seedItems(t, spy.Store, 25)

	tests := []struct {
		name     string
		query    url.Values
		ids      []string
		listSize int64
		startRow int
		pageSize int
	}{
		{"default window", url.Values{}, []string{"s-00", "s-01", "s-02", "s-03", "s-04", "s-05", "s-06", "s-07", "s-08", "s-09"}, 25, 0, 10},
		{"second page", url.Values{"startRow": {"20"}, "pageSize": {"10"}}, []string{"s-20", "s-21", "s-22", "s-23", "s-24"}, 25, 20, 10},
		{"all rows", url.Values{"pageSize": {"0"}, "le.quantity": {"2"}}, []string{"s-00", "s-01", "s-02"}, 3, 0, 3},
		{"past the end", url.Values{"startRow": {"30"}}, []string{}, 25, 30, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := e.List(context.Background(), rest.NewParams(tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.ids, ids(page.Items))
			assert.Equal(t, tt.listSize, page.ListSize)
			assert.Equal(t, tt.startRow, page.StartRow)
			assert.Equal(t, tt.pageSize, page.PageSize)
		})
	}
}

func TestListSkipsPageReadWhenNothingMatches(t *testing.T) {
	e, spy := newEngine(t)
	seedItems(t, spy.Store, 5)

	page, err := e.List(context.Background(), rest.NewParams(url.Values{"ge.quantity": {"100"}}))
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.ListSize)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, int32(0), spy.finds.Load())

	_, err = e.List(context.Background(), rest.NewParams(nil))
	require.NoError(t, err)
	assert.Equal(t, int32(1), spy.finds.Load())
}

func TestListRejectsBadParameters(t *testing.T) {
	e, spy := newEngine(t)
	seedItems(t, spy.Store, 3)

	for name, query := range map[string]url.Values{
		"negative start": {"startRow": {"-1"}},
		"text page size": {"pageSize": {"ten"}},
		"bad quantity":   {"ge.quantity": {"many"}},
		"bad date":       {"from.received": {"2024-13-01"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.List(context.Background(), rest.NewParams(query))
			require.Error(t, err)
			assert.Equal(t, 400, rest.StatusCode(err, 0))
		})
	}
	assert.Equal(t, int32(0), spy.finds.Load())
}

func TestListDateBoundsAreExclusive(t *testing.T) {
	e, spy := newEngine(t)
	for i, day := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		d, err := rest.ParseDate(day)
		require.NoError(t, err)
		item := stockItem{ID: fmt.Sprintf("d-%d", i), Name: day, Quantity: 1, Received: d}
		require.NoError(t, spy.Store.Insert(context.Background(), &item))
	}
	require.NoError(t, spy.Store.Insert(context.Background(), &stockItem{ID: "undated", Name: "undated", Quantity: 1}))

	page, err := e.List(context.Background(), rest.NewParams(url.Values{
		"from.received": {"2024-03-01"},
		"to.received":   {"2024-03-03"},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"d-1"}, ids(page.Items))
}

func TestListOrder(t *testing.T) {
	e, spy := newEngine(t)
	seedItems(t, spy.Store, 4)

	page, err := e.List(context.Background(), rest.NewParams(url.Values{"orderBy": {"quantity desc"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"s-03", "s-02", "s-01", "s-00"}, ids(page.Items))

	page, err = e.List(context.Background(), rest.NewParams(url.Values{"orderBy": {"quantity sideways"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"s-00", "s-01", "s-02", "s-03"}, ids(page.Items), "invalid directives fall back to the default order")

	_, err = e.List(context.Background(), rest.NewParams(url.Values{"orderBy": {"colour asc"}}))
	var cfgErr *rest.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 500, rest.StatusCode(err, 0))
}

func TestListUndeclaredFilterField(t *testing.T) {
	store := memstore.New[stockItem](stockItems{})
	e, err := rest.NewEngine[stockItem](brokenFilters{}, store)
	require.NoError(t, err)

	_, err = e.List(context.Background(), rest.NewParams(nil))
	var cfgErr *rest.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "colour")
}

func TestAll(t *testing.T) {
	e, spy := newEngine(t)

	items, err := e.All(context.Background(), rest.NewParams(nil))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	seedItems(t, spy.Store, 15)
	items, err = e.All(context.Background(), rest.NewParams(url.Values{"pageSize": {"2"}, "orderBy": {"quantity desc"}}))
	require.NoError(t, err)
	require.Len(t, items, 15)
	assert.Equal(t, "s-14", items[0].ID)
}

func TestCreate(t *testing.T) {
	pub := &recorder{}
	e, spy := newEngine(t, rest.WithPublisher(pub))

	created, err := e.Create(context.Background(), &stockItem{Name: "pallet jack", Quantity: 2})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	stored, err := spy.Store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "pallet jack", stored.Name)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "stock-item", ev.Resource)
	assert.Equal(t, events.OpCreated, ev.Op)
	assert.Equal(t, created.ID, ev.EntityID)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%q,"name":"pallet jack","quantity":2,"received":null}`, created.ID), string(ev.Data))

	_, err = e.Create(context.Background(), &stockItem{Name: "empty", Quantity: 0})
	var inv *rest.InvalidParameterError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "Stock item quantity should be a positive number!", inv.Message)

	_, err = e.Create(context.Background(), &stockItem{ID: created.ID, Name: "again", Quantity: 1})
	require.ErrorIs(t, err, rest.ErrConflict)
	assert.Equal(t, fmt.Sprintf("Stock item with id [%s] already exists: duplicate id", created.ID), err.Error())
	assert.Len(t, pub.events, 1)
}

func TestPublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	pub := &recorder{err: errors.New("broker down")}
	e, _ := newEngine(t, rest.WithPublisher(pub), rest.WithLogger(zap.New(core)))

	_, err := e.Create(context.Background(), &stockItem{ID: "s-1", Name: "crate", Quantity: 1})
	require.NoError(t, err)

	entries := logs.FilterMessage("event publish failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "StockItem", entries[0].ContextMap()["resource"])
	assert.Equal(t, "broker down", entries[0].ContextMap()["error"])
}

func TestFetchUpdateDelete(t *testing.T) {
	pub := &recorder{}
	e, spy := newEngine(t, rest.WithPublisher(pub))
	seedItems(t, spy.Store, 2)
	ctx := context.Background()

	got, err := e.Fetch(ctx, "s-01")
	require.NoError(t, err)
	assert.Equal(t, "item 01", got.Name)

	_, err = e.Fetch(ctx, " ")
	require.ErrorIs(t, err, rest.ErrIDMissing)

	_, err = e.Fetch(ctx, "s-99")
	var nf *rest.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Stock item with id [s-99] doesn't exist in database!", nf.Error())

	updated, err := e.Update(ctx, "s-01", &stockItem{ID: "ignored", Name: "renamed", Quantity: 0})
	require.NoError(t, err)
	assert.Equal(t, "s-01", updated.ID)
	got, err = e.Fetch(ctx, "s-01")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	_, err = e.Update(ctx, "s-99", &stockItem{Name: "ghost"})
	require.ErrorAs(t, err, &nf)
	_, err = e.Update(ctx, "", &stockItem{})
	require.ErrorIs(t, err, rest.ErrIDMissing)

	require.NoError(t, e.Delete(ctx, "s-00"))
	_, err = spy.Store.Get(ctx, "s-00")
	require.ErrorIs(t, err, rest.ErrNoRecord)
	require.ErrorAs(t, e.Delete(ctx, "s-00"), &nf)

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.OpUpdated, pub.events[0].Op)
	assert.Equal(t, events.OpDeleted, pub.events[1].Op)
	assert.Equal(t, "s-00", pub.events[1].EntityID)
	assert.Empty(t, pub.events[1].Data)
}

func TestStorageFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	e, spy := newEngine(t, rest.WithLogger(zap.New(core)))
	spy.fail = errors.New("connection reset")

	_, err := e.Fetch(context.Background(), "s-01")
	require.Error(t, err)
	assert.Equal(t, "StockItem s-01: connection reset", err.Error())
	assert.Equal(t, 500, rest.StatusCode(err, 0))

	_, err = e.List(context.Background(), rest.NewParams(nil))
	assert.ErrorContains(t, err, "connection reset")

	_, err = e.Create(context.Background(), &stockItem{Name: "crate", Quantity: 1})
	assert.ErrorContains(t, err, "insert StockItem: connection reset")

	assert.Equal(t, 2, logs.Len())
}

func ids(items []stockItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
