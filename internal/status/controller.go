// Package status enforces the allowed progression of an order item's
// status and drives the corresponding mutation requests.
package status

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/chefdesk/internal/models"
	"github.com/example/chefdesk/internal/orderstore"
)

// Updater issues the status mutation request.
type Updater interface {
	UpdateOrderStatus(ctx context.Context, itemID string, newStatus models.OrderStatus, completed bool) error
}

// Confirmer asks the operator to confirm a transition. The UI layer
// supplies it; the controller only calls it.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Notifier surfaces failures to the operator.
type Notifier interface {
	Notify(title, message string)
}

// Controller validates transitions, gates them behind confirmation and
// the per-item mutation lock, and refreshes the store on success.
type Controller struct {
	store   *orderstore.Store
	updater Updater
	confirm Confirmer
	notify  Notifier
	log     *zap.Logger
}

// NewController constructs Controller.
func NewController(store *orderstore.Store, updater Updater, confirm Confirmer, notify Notifier, log *zap.Logger) *Controller {
	return &Controller{store: store, updater: updater, confirm: confirm, notify: notify, log: log}
}

// ErrNoTransition means the item's status has no forward step.
var ErrNoTransition = errors.New("no transition from current status")

// Advance moves an item one step along the chain. Transitions into
// Complete or Collected carry the customer-notification flag.
func (c *Controller) Advance(ctx context.Context, item models.OrderItem) error {
	target := item.Status.Next()
	if target == item.Status {
		return ErrNoTransition
	}
	return c.transition(ctx, item, target, target.ShouldNotify())
}

// Cancel cancels an item. Allowed from Received, Preparing and
// Complete only.
func (c *Controller) Cancel(ctx context.Context, item models.OrderItem) error {
	if !item.Status.CanCancel() {
		return ErrNoTransition
	}
	return c.transition(ctx, item, models.StatusCancel, false)
}

// NotCollected reverts a Collected item to Complete, without the
// notification flag.
func (c *Controller) NotCollected(ctx context.Context, item models.OrderItem) error {
	if item.Status != models.StatusCollected {
		return ErrNoTransition
	}
	return c.transition(ctx, item, models.StatusComplete, false)
}

func (c *Controller) transition(ctx context.Context, item models.OrderItem, target models.OrderStatus, completed bool) error {
	prompt := fmt.Sprintf("Mark order %s as %s?", item.OrderID, target)
	if !c.confirm.Confirm(prompt) {
		return nil
	}

	// Double-tap guard: a second request for an item that is already
	// mid-mutation is a no-op, not queued.
	if !c.store.BeginMutation(item.ID) {
		c.log.Debug("mutation already in flight, ignoring",
			zap.String("item_id", item.ID))
		return nil
	}
	defer c.store.EndMutation(item.ID)

	if err := c.updater.UpdateOrderStatus(ctx, item.ID, target, completed); err != nil {
		c.notify.Notify("Update Failed", "Failed to update order status. Please try again.")
		return err
	}

	// Wholesale refresh rather than a targeted patch: the server
	// computes side effects (completion flags) this client cannot.
	return c.store.Refresh(ctx)
}
