package warehouse

import (
	"strings"

	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

// OrderItem is one line of an order: a quantity of an inventory item.
type OrderItem struct {
	UUID      string `json:"uuid" db:"uuid"`
	ItemUUID  string `json:"itemUuid" db:"item_uuid"`
	OrderUUID string `json:"orderUuid" db:"order_uuid"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

// OrderItems is the resource declaration of OrderItem.
type OrderItems struct{}

func (OrderItems) Name() string { return "OrderItem" }

func (OrderItems) Fields() []rest.Field[OrderItem] {
	return []rest.Field[OrderItem]{
		{Name: "uuid", Column: "uuid", Kind: rest.KindString, Get: func(i *OrderItem) any { return i.UUID }},
		{Name: "itemUuid", Column: "item_uuid", Kind: rest.KindString, Get: func(i *OrderItem) any { return i.ItemUUID }},
		{Name: "orderUuid", Column: "order_uuid", Kind: rest.KindString, Get: func(i *OrderItem) any { return i.OrderUUID }},
		{Name: "quantity", Column: "quantity", Kind: rest.KindInt, Get: func(i *OrderItem) any { return i.Quantity }},
	}
}

func (OrderItems) DefaultOrderBy() string { return "quantity desc" }

func (OrderItems) Filters(p *rest.Params) ([]rest.Predicate, error) {
	return rest.NewFilterBuilder(p).
		Equal("orderUuid").
		Equal("itemUuid").
		Int("quantity").
		Predicates()
}

func (OrderItems) Validate(i *OrderItem) error {
	switch {
	case strings.TrimSpace(i.OrderUUID) == "":
		return rest.InvalidParameter("Order item order uuid is required!")
	case strings.TrimSpace(i.ItemUUID) == "":
		return rest.InvalidParameter("Order item uuid of item is required!")
	case i.Quantity < 1:
		return rest.InvalidParameter("Order item quantity should be a positive number!")
	}
	return nil
}

func (OrderItems) ID(i *OrderItem) string { return i.UUID }

func (OrderItems) SetID(i *OrderItem, id string) { i.UUID = id }
