package query

import (
	"strconv"
	"time"

	"github.com/example/chefdesk/internal/models"
)

// Build translates filter criteria into wire query parameters. Absent
// fields are omitted entirely: the server treats absence as "no
// constraint", never as "constrain to empty". The boolean filters are
// asymmetric tri-state: only an explicit true is ever serialized.
func Build(f models.Filters, page, limit int) map[string]string {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	params := map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	}

	if f.Search != "" {
		params["search"] = f.Search
	}
	if f.OrderStatus != "" {
		params["orderStatus"] = string(f.OrderStatus)
	}
	if f.FoodCategory != "" {
		params["foodCategory"] = f.FoodCategory
	}
	if f.OrderCompleted != nil && *f.OrderCompleted {
		params["orderCompleted"] = "true"
	}
	if f.OrderCanceled != nil && *f.OrderCanceled {
		params["orderCanceled"] = "true"
	}
	if f.PaymentSuccess != nil && *f.PaymentSuccess {
		params["paymentSuccess"] = "true"
	}
	if f.StartDate != nil {
		params["startDate"] = f.StartDate.UTC().Format(time.RFC3339)
	}
	if f.EndDate != nil {
		params["endDate"] = f.EndDate.UTC().Format(time.RFC3339)
	}

	return params
}
