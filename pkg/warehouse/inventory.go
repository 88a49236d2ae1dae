// Package warehouse declares the resources of the smart warehouse API
// (inventory items, orders, order items and trucks), their storage layout
// and the HTTP routes that expose them.
package warehouse

import "github.com/Kelvi11/smart-warehouse/pkg/rest"

// InventoryItem is a product kept in stock.
type InventoryItem struct {
	UUID          string  `json:"uuid" db:"uuid"`
	Name          string  `json:"name" db:"name"`
	Quantity      int     `json:"quantity" db:"quantity"`
	UnitPrice     float64 `json:"unitPrice" db:"unit_price"`
	PackageVolume float64 `json:"packageVolume" db:"package_volume"`
}

// InventoryItems is the resource declaration of InventoryItem.
type InventoryItems struct{}

func (InventoryItems) Name() string { return "InventoryItem" }

func (InventoryItems) Fields() []rest.Field[InventoryItem] {
	return []rest.Field[InventoryItem]{
		{Name: "uuid", Column: "uuid", Kind: rest.KindString, Get: func(i *InventoryItem) any { return i.UUID }},
		{Name: "name", Column: "name", Kind: rest.KindString, Get: func(i *InventoryItem) any { return i.Name }},
		{Name: "quantity", Column: "quantity", Kind: rest.KindInt, Get: func(i *InventoryItem) any { return i.Quantity }},
		{Name: "unitPrice", Column: "unit_price", Kind: rest.KindFloat, Get: func(i *InventoryItem) any { return i.UnitPrice }},
		{Name: "packageVolume", Column: "package_volume", Kind: rest.KindFloat, Get: func(i *InventoryItem) any { return i.PackageVolume }},
	}
}

func (InventoryItems) DefaultOrderBy() string { return "name asc" }

func (InventoryItems) Filters(p *rest.Params) ([]rest.Predicate, error) {
	return rest.NewFilterBuilder(p).
		Like("name").
		Int("quantity").
		Float("unitPrice").
		Float("packageVolume").
		Equal("uuid").
		Predicates()
}

func (InventoryItems) Validate(i *InventoryItem) error {
	switch {
	case i.Quantity < 1:
		return rest.InvalidParameter("Inventory item quantity should be a positive number!")
	case i.UnitPrice < 1:
		return rest.InvalidParameter("Inventory item price per unit should be a positive number!")
	case i.PackageVolume < 1:
		return rest.InvalidParameter("Inventory item volume per package should be a positive number!")
	}
	return nil
}

func (InventoryItems) ID(i *InventoryItem) string { return i.UUID }

func (InventoryItems) SetID(i *InventoryItem, id string) { i.UUID = id }
