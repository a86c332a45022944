package models

import "time"

// Filters is the client-local filter criteria for the order feed. Zero
// values mean "no constraint" and are never sent on the wire. The three
// boolean filters are tri-state: nil or false is absent, only an
// explicit true is serialized.
type Filters struct {
	Search         string
	OrderStatus    OrderStatus
	FoodCategory   string
	OrderCompleted *bool
	OrderCanceled  *bool
	PaymentSuccess *bool
	StartDate      *time.Time
	EndDate        *time.Time
}

// Active reports whether any criterion beyond the defaults is set.
func (f Filters) Active() bool {
	return f.Search != "" ||
		f.OrderStatus != "" ||
		f.FoodCategory != "" ||
		f.OrderCompleted != nil ||
		f.OrderCanceled != nil ||
		f.PaymentSuccess != nil ||
		f.StartDate != nil ||
		f.EndDate != nil
}

// DatesValid enforces the inclusive end >= start bound when both dates
// are set.
func (f Filters) DatesValid() bool {
	if f.StartDate == nil || f.EndDate == nil {
		return true
	}
	return !f.EndDate.Before(*f.StartDate)
}
