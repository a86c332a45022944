package models

import "time"

// FoodDetails is a read-only snapshot of the food entity an item was
// ordered against, captured at checkout time.
type FoodDetails struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	CategoryID   string `json:"category"`
	CategoryName string `json:"categoryName"`
	Image        string `json:"image"`
}

// OrderItem is a single food line within an order group.
type OrderItem struct {
	ID          string      `json:"_id"`
	OrderID     string      `json:"orderId"`
	Status      OrderStatus `json:"orderStatus"`
	FoodDetails FoodDetails `json:"foodDetails"`
	Count       int64       `json:"count"`
}

// TotalPrice is the line total in integer currency units.
func (i OrderItem) TotalPrice() int64 {
	return i.FoodDetails.Price * i.Count
}

// OrderGroup is one checkout batch. Items keep insertion order; that
// order is the display order.
type OrderGroup struct {
	ID        string      `json:"_id"`
	OrderID   string      `json:"orderId"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"order"`
}

// OrderPage is one page of the paginated order feed.
type OrderPage struct {
	Docs      []OrderGroup `json:"docs"`
	TotalDocs int          `json:"totalDocs"`
}

// StatusUpdateEvent is the real-time push emitted when an item's status
// changes server-side.
type StatusUpdateEvent struct {
	MainOrderID string      `json:"mainOrderId"`
	OrderID     string      `json:"orderId"`
	OrderStatus OrderStatus `json:"orderStatus"`
}

// Category is a food category used by the filter UI.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
