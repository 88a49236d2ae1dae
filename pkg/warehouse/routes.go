package warehouse

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Kelvi11/smart-warehouse/pkg/events"
	"github.com/Kelvi11/smart-warehouse/pkg/httputil"
	"github.com/Kelvi11/smart-warehouse/pkg/memstore"
	pgxstore "github.com/Kelvi11/smart-warehouse/pkg/pgx"
	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

// Resource paths relative to the API base URL.
const (
	PathInventoryItems = "/inventory-items"
	PathOrders         = "/orders"
	PathOrderItems     = "/order-items"
	PathTrucks         = "/trucks"
	PathOrdersExport   = PathOrders + "/export"
)

// Stores holds the storage of every warehouse resource.
type Stores struct {
	InventoryItems rest.Store[InventoryItem]
	Orders         rest.Store[Order]
	OrderItems     rest.Store[OrderItem]
	Trucks         rest.Store[Truck]
}

// MemoryStores keeps every resource in process memory.
func MemoryStores() Stores {
	return Stores{
		InventoryItems: memstore.New[InventoryItem](InventoryItems{}),
		Orders:         memstore.New[Order](Orders{}),
		OrderItems:     memstore.New[OrderItem](OrderItems{}),
		Trucks:         memstore.New[Truck](Trucks{}),
	}
}

// PostgresStores keeps every resource in its table in schema.
func PostgresStores(conn pgxstore.Conn, schema string) Stores {
	opt := pgxstore.WithSchema(schema)
	return Stores{
		InventoryItems: pgxstore.NewTable[InventoryItem](conn, InventoryItems{}, TableInventoryItems, opt),
		Orders:         pgxstore.NewTable[Order](conn, Orders{}, TableOrders, opt),
		OrderItems:     pgxstore.NewTable[OrderItem](conn, OrderItems{}, TableOrderItems, opt),
		Trucks:         pgxstore.NewTable[Truck](conn, Trucks{}, TableTrucks, opt),
	}
}

// Options configures Register.
type Options struct {
	Logger         *zap.Logger
	Publisher      events.Publisher
	NotFoundStatus int
}

// API holds the handler of each resource.
type API struct {
	InventoryItems *rest.Handler[InventoryItem]
	Orders         *rest.Handler[Order]
	OrderItems     *rest.Handler[OrderItem]
	Trucks         *rest.Handler[Truck]
}

// Register mounts the warehouse resources and the order export on r.
// A resource declaration that does not match its fields is reported as a
// *rest.ConfigurationError.
func Register(r *httputil.Router, stores Stores, opts Options) (*API, error) {
	engineOpts := []rest.EngineOption{rest.WithLogger(opts.Logger), rest.WithPublisher(opts.Publisher)}
	handlerOpts := &rest.HandlerOptions{NotFoundStatus: opts.NotFoundStatus, Logger: opts.Logger}

	inventory, err := rest.NewEngine[InventoryItem](InventoryItems{}, stores.InventoryItems, engineOpts...)
	if err != nil {
		return nil, err
	}
	orders, err := rest.NewEngine[Order](Orders{}, stores.Orders, engineOpts...)
	if err != nil {
		return nil, err
	}
	orderItems, err := rest.NewEngine[OrderItem](OrderItems{}, stores.OrderItems, engineOpts...)
	if err != nil {
		return nil, err
	}
	trucks, err := rest.NewEngine[Truck](Trucks{}, stores.Trucks, engineOpts...)
	if err != nil {
		return nil, err
	}

	api := &API{
		InventoryItems: rest.Register(r, PathInventoryItems, inventory, handlerOpts),
		Orders:         rest.Register(r, PathOrders, orders, handlerOpts),
		OrderItems:     rest.Register(r, PathOrderItems, orderItems, handlerOpts),
		Trucks:         rest.Register(r, PathTrucks, trucks, handlerOpts),
	}
	r.Handle("GET "+PathOrdersExport, ExportOrders(api.Orders))
	return api, nil
}

// Health answers {"status":"ok"} while ping succeeds. A nil ping always
// succeeds.
func Health(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				httputil.Error(w, http.StatusServiceUnavailable, fmt.Sprintf("storage unavailable: %v", err))
				return
			}
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
