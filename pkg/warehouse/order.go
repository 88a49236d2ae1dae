package warehouse

import (
	"encoding/json"
	"slices"

	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

// OrderStatus is the stage of an order.
type OrderStatus string

const (
	StatusCreated          OrderStatus = "CREATED"
	StatusAwaitingApproval OrderStatus = "AWAITING_APPROVAL"
	StatusApproved         OrderStatus = "APPROVED"
	StatusDeclined         OrderStatus = "DECLINED"
	StatusUnderDelivery    OrderStatus = "UNDER_DELIVERY"
	StatusFulfilled        OrderStatus = "FULFILLED"
	StatusCanceled         OrderStatus = "CANCELED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusCreated,
	StatusAwaitingApproval,
	StatusApproved,
	StatusDeclined,
	StatusUnderDelivery,
	StatusFulfilled,
	StatusCanceled,
}

func (s OrderStatus) Valid() bool {
	return slices.Contains(OrderStatuses, s)
}

// UnmarshalJSON accepts the known statuses and the empty string, which
// Validate turns into CREATED on create.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if status := OrderStatus(v); status == "" || status.Valid() {
		*s = status
		return nil
	}
	return rest.InvalidParameter("Order status %s is not supported!", v)
}

// Order is a customer order. Its lines are OrderItems.
type Order struct {
	UUID          string      `json:"uuid" db:"uuid"`
	SubmittedDate rest.Date   `json:"submittedDate" db:"submitted_date"`
	DeadlineDate  rest.Date   `json:"deadlineDate" db:"deadline_date"`
	Status        OrderStatus `json:"status" db:"status"`
}

// Orders is the resource declaration of Order.
type Orders struct{}

func (Orders) Name() string { return "Order" }

func (Orders) Fields() []rest.Field[Order] {
	return []rest.Field[Order]{
		{Name: "uuid", Column: "uuid", Kind: rest.KindString, Get: func(o *Order) any { return o.UUID }},
		{Name: "submittedDate", Column: "submitted_date", Kind: rest.KindDate, Get: func(o *Order) any { return o.SubmittedDate.Time }},
		{Name: "deadlineDate", Column: "deadline_date", Kind: rest.KindDate, Get: func(o *Order) any { return o.DeadlineDate.Time }},
		{Name: "status", Column: "status", Kind: rest.KindString, Get: func(o *Order) any { return string(o.Status) }},
	}
}

func (Orders) DefaultOrderBy() string { return "submittedDate asc" }

func (Orders) Filters(p *rest.Params) ([]rest.Predicate, error) {
	statuses := make([]string, len(OrderStatuses))
	for i, s := range OrderStatuses {
		statuses[i] = string(s)
	}
	return rest.NewFilterBuilder(p).
		Date("submittedDate").
		Date("deadlineDate").
		Enum("status", statuses...).
		Predicates()
}

// Validate checks the deadline and fills in the submission date and status
// of a new order.
func (Orders) Validate(o *Order) error {
	today := rest.Today()
	if o.DeadlineDate.IsZero() {
		return rest.InvalidParameter("Order deadline date is required!")
	}
	if !o.DeadlineDate.After(today.Time) {
		return rest.InvalidParameter("Order deadline date should be in the future!")
	}
	if o.Status == "" {
		o.Status = StatusCreated
	} else if !o.Status.Valid() {
		return rest.InvalidParameter("Order status %s is not supported!", o.Status)
	}
	if o.SubmittedDate.IsZero() {
		o.SubmittedDate = today
	}
	return nil
}

func (Orders) ID(o *Order) string { return o.UUID }

func (Orders) SetID(o *Order, id string) { o.UUID = id }
