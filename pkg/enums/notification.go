package enums

// NotificationKind labels in-app notifications.
type NotificationKind string

const (
	NotificationOrderAssigned   NotificationKind = "order_assigned"
	NotificationOrderReassigned NotificationKind = "order_reassigned"
	NotificationOrderUnassigned NotificationKind = "order_unassigned"
	NotificationOrderStatus     NotificationKind = "order_status"
	NotificationTicketReply     NotificationKind = "ticket_reply"
)

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}
