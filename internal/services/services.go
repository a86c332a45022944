// Package services exposes the typed REST operations the console uses:
// staff login, the order feed, status mutations, categories and
// payments. Each service owns its outbound calls through the gateway
// and translates resolved error bodies into *ServerError values.
package services

import (
	"encoding/json"
	"fmt"

	"github.com/example/chefdesk/internal/client"
)

// Endpoint paths, relative to the configured API base URL.
const (
	loginPath         = "/api/user/login"
	ordersPath        = "/api/order/all"
	orderStatusPath   = "/api/order/status"
	createOrderPath   = "/api/order"
	categoriesPath    = "/api/category/all"
	paymentPath       = "/api/payment"
	paymentOrderPath  = "/api/payment/order"
	paymentStatusPath = "/api/order/payment-status"
)

// TokenProvider supplies the current bearer token, or "" when logged
// out.
type TokenProvider interface {
	Token() string
}

// ServerError is a business-level failure the server resolved with an
// error payload. It is returned, never panicked, so callers branch on
// it explicitly.
type ServerError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// serverError extracts the error message from a resolved non-2xx
// result body.
func serverError(res client.Result) *ServerError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := "request failed"
	if err := json.Unmarshal(res.Body, &payload); err == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	return &ServerError{Status: res.Status, Message: msg, Body: res.Body}
}
