package domain

// Actions carried on order lifecycle events.
const (
	ActionStatusUpdated = "status_updated"
)

// OrderEvent is the message published to the orders queue on lifecycle
// changes. Creation events omit Action; status changes carry old and new
// status. The JSON field names are the wire contract consumed downstream.
type OrderEvent struct {
	OrderID   int64  `json:"orderId"`
	Action    string `json:"action,omitempty"`
	OldStatus string `json:"oldStatus,omitempty"`
	NewStatus string `json:"newStatus,omitempty"`
	Product   string `json:"product,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
	Message   string `json:"message"`
}
