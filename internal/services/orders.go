package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/chefdesk/internal/client"
	"github.com/example/chefdesk/internal/models"
	"github.com/example/chefdesk/internal/query"
)

// OrderService fetches the order feed and issues status mutations.
type OrderService struct {
	gw     *client.Gateway
	tokens TokenProvider
	log    *zap.Logger
}

// NewOrderService constructs OrderService.
func NewOrderService(gw *client.Gateway, tokens TokenProvider, log *zap.Logger) *OrderService {
	return &OrderService{gw: gw, tokens: tokens, log: log}
}

// FetchOrders returns one page of the feed for the given criteria.
func (s *OrderService) FetchOrders(ctx context.Context, f models.Filters, page, limit int) (models.OrderPage, error) {
	res, err := s.gw.Get(ctx, ordersPath, query.Build(f, page, limit), s.tokens.Token())
	if err != nil {
		return models.OrderPage{}, err
	}
	if !res.OK() {
		return models.OrderPage{}, serverError(res)
	}

	var page0 models.OrderPage
	if err := res.Decode(&page0); err != nil {
		return models.OrderPage{}, err
	}
	return page0, nil
}

type statusUpdateRequest struct {
	OrderID   string             `json:"orderId"`
	NewStatus models.OrderStatus `json:"newStatus"`
	Completed bool               `json:"completed"`
}

// UpdateOrderStatus moves one item to newStatus. completed carries the
// customer-notification flag decided client-side for transitions into
// Complete or Collected.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, itemID string, newStatus models.OrderStatus, completed bool) error {
	body := statusUpdateRequest{OrderID: itemID, NewStatus: newStatus, Completed: completed}
	res, err := s.gw.Put(ctx, orderStatusPath, body, s.tokens.Token())
	if err != nil {
		return err
	}
	if !res.OK() {
		return serverError(res)
	}
	s.log.Debug("order status updated",
		zap.String("item_id", itemID),
		zap.String("status", string(newStatus)))
	return nil
}

// CreateOrderItem is one requested line in a new order.
type CreateOrderItem struct {
	FoodID string `json:"foodId"`
	Count  int64  `json:"count"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"order"`
	Notes string            `json:"notes,omitempty"`
}

// CreatedOrder is the backend's acknowledgement of a new order.
type CreatedOrder struct {
	ID      string `json:"_id"`
	OrderID string `json:"orderId"`
}

// CreateOrder places a new order batch.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreatedOrder, error) {
	res, err := s.gw.Post(ctx, createOrderPath, req, s.tokens.Token())
	if err != nil {
		return CreatedOrder{}, err
	}
	if !res.OK() {
		return CreatedOrder{}, serverError(res)
	}

	var created CreatedOrder
	if err := res.Decode(&created); err != nil {
		return CreatedOrder{}, err
	}
	return created, nil
}
