package services

import (
	"context"

	"github.com/example/chefdesk/internal/client"
)

// PaymentService covers the payment endpoints the console reaches:
// creating a payment (and its payment order) and flipping an order's
// payment status. Payment processing itself lives server-side.
type PaymentService struct {
	gw     *client.Gateway
	tokens TokenProvider
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(gw *client.Gateway, tokens TokenProvider) *PaymentService {
	return &PaymentService{gw: gw, tokens: tokens}
}

// PaymentRequest is the create-payment payload.
type PaymentRequest struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
	Method  string `json:"method"`
}

// PaymentResult is the backend acknowledgement.
type PaymentResult struct {
	ID      string `json:"_id"`
	Success bool   `json:"success"`
}

// CreatePayment records a payment against an order.
func (s *PaymentService) CreatePayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	return s.post(ctx, paymentPath, req)
}

// CreatePaymentOrder opens a payment order ahead of collection.
func (s *PaymentService) CreatePaymentOrder(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	return s.post(ctx, paymentOrderPath, req)
}

func (s *PaymentService) post(ctx context.Context, path string, req PaymentRequest) (PaymentResult, error) {
	res, err := s.gw.Post(ctx, path, req, s.tokens.Token())
	if err != nil {
		return PaymentResult{}, err
	}
	if !res.OK() {
		return PaymentResult{}, serverError(res)
	}

	var result PaymentResult
	if err := res.Decode(&result); err != nil {
		return PaymentResult{}, err
	}
	return result, nil
}

type paymentStatusRequest struct {
	OrderID string `json:"orderId"`
	Success bool   `json:"paymentSuccess"`
}

// UpdatePaymentStatus marks an order's payment outcome.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, orderID string, success bool) error {
	res, err := s.gw.Put(ctx, paymentStatusPath, paymentStatusRequest{OrderID: orderID, Success: success}, s.tokens.Token())
	if err != nil {
		return err
	}
	if !res.OK() {
		return serverError(res)
	}
	return nil
}
