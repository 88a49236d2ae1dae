package warehouse

import (
	"strings"

	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

// Truck is a delivery vehicle identified by its chassis number.
type Truck struct {
	ChassisNumber   string  `json:"chassisNumber" db:"chassis_number"`
	LicensePlate    string  `json:"licensePlate" db:"license_plate"`
	ContainerVolume float64 `json:"containerVolume" db:"container_volume"`
}

// Trucks is the resource declaration of Truck.
type Trucks struct{}

func (Trucks) Name() string { return "Truck" }

func (Trucks) Fields() []rest.Field[Truck] {
	return []rest.Field[Truck]{
		{Name: "chassisNumber", Column: "chassis_number", Kind: rest.KindString, Get: func(t *Truck) any { return t.ChassisNumber }},
		{Name: "licensePlate", Column: "license_plate", Kind: rest.KindString, Get: func(t *Truck) any { return t.LicensePlate }, Unique: true},
		{Name: "containerVolume", Column: "container_volume", Kind: rest.KindFloat, Get: func(t *Truck) any { return t.ContainerVolume }},
	}
}

func (Trucks) DefaultOrderBy() string { return "licensePlate asc" }

func (Trucks) Filters(p *rest.Params) ([]rest.Predicate, error) {
	return rest.NewFilterBuilder(p).
		Equal("chassisNumber").
		Equal("licensePlate").
		Float("containerVolume").
		Predicates()
}

// Validate requires the caller to supply the chassis number, so a truck is
// never given a generated id.
func (Trucks) Validate(t *Truck) error {
	switch {
	case strings.TrimSpace(t.ChassisNumber) == "":
		return rest.InvalidParameter("Truck chassis number is required!")
	case strings.TrimSpace(t.LicensePlate) == "":
		return rest.InvalidParameter("Truck license plate is required!")
	case t.ContainerVolume < 0:
		return rest.InvalidParameter("Truck container volume can't be a negative value!")
	}
	return nil
}

func (Trucks) ID(t *Truck) string { return t.ChassisNumber }

func (Trucks) SetID(t *Truck, id string) { t.ChassisNumber = id }
