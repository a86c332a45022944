package models

// OrderStatus is the lifecycle state of a single order item.
type OrderStatus string

const (
	StatusReceived  OrderStatus = "Received"
	StatusPreparing OrderStatus = "Preparing"
	StatusComplete  OrderStatus = "Complete"
	StatusCollected OrderStatus = "Collected"
	StatusCancel    OrderStatus = "Cancel"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusPreparing, StatusComplete, StatusCollected, StatusCancel:
		return true
	}
	return false
}

// Next returns the following status along the fixed progression.
// Collected is the one status that steps backward, to Complete ("Not
// Collected"). Cancel has no successor and maps to itself.
func (s OrderStatus) Next() OrderStatus {
	switch s {
	case StatusReceived:
		return StatusPreparing
	case StatusPreparing:
		return StatusComplete
	case StatusComplete:
		return StatusCollected
	case StatusCollected:
		return StatusComplete
	default:
		return s
	}
}

// CanCancel reports whether an item in this status may still be
// cancelled. Collected and Cancel are terminal for cancellation.
func (s OrderStatus) CanCancel() bool {
	switch s {
	case StatusReceived, StatusPreparing, StatusComplete:
		return true
	}
	return false
}

// ShouldNotify reports whether a transition INTO this status carries a
// customer notification flag on the wire.
func (s OrderStatus) ShouldNotify() bool {
	return s == StatusComplete || s == StatusCollected
}
