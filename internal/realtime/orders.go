package realtime

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/example/chefdesk/internal/models"
)

// EventOrderStatusUpdate is the push emitted when an item's status
// changes server-side.
const EventOrderStatusUpdate = "orderStatusUpdate"

// SubscribeOrderStatus wires fn to order-status pushes. Events missing
// either identifier are logged and dropped; they must never take the
// read loop down.
func SubscribeOrderStatus(c *Channel, log *zap.Logger, fn func(models.StatusUpdateEvent)) {
	c.Subscribe(EventOrderStatusUpdate, func(data json.RawMessage) {
		var ev models.StatusUpdateEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn("malformed status update dropped", zap.Error(err))
			return
		}
		if ev.MainOrderID == "" || ev.OrderID == "" {
			log.Warn("status update missing identifiers dropped",
				zap.String("main_order_id", ev.MainOrderID),
				zap.String("order_id", ev.OrderID))
			return
		}
		fn(ev)
	})
}
