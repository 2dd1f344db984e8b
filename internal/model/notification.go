package model

import "time"

// Notification types.
const (
	NotifyServiceRequest   = "service_request"
	NotifySupportRequest   = "support_request"
	NotifyUserRegistration = "user_registration"
	NotifyStatusUpdate     = "status_update"
	NotifyPaymentReceived  = "payment_received"
	NotifyAssignmentUpdate = "assignment_update"
	NotifyInventoryLow     = "inventory_low_stock"
	NotifyInventoryUpdate  = "inventory_update"
)

// Entity names usable in notifications.related_model.
const (
	RelatedServiceRequest = "ServiceRequest"
	RelatedSupportRequest = "SupportRequest"
	RelatedUser           = "User"
	RelatedInventory      = "Inventory"
)

// Notification is a row in the `notifications` table.  A notification
// targets either a set of roles or a set of specific users (held in
// notification_targets).  IsRead is the global read flag: for
// user-targeted notifications it flips only once every targeted user
// has read it, for role-targeted ones the first reader flips it.
// Individual reads are kept in notification_reads regardless.
type Notification struct {
	ID           uint64    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	RelatedID    uint64    `json:"relatedId"`
	RelatedModel string    `json:"relatedModel"`
	TargetRoles  []string  `json:"targetRoles"`
	TargetUsers  []uint64  `json:"targetUsers,omitempty"`
	IsRead       bool      `json:"isRead"`
	Priority     string    `json:"priority"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NotificationRead records who read a notification and when.
type NotificationRead struct {
	NotificationID uint64    `json:"notificationId"`
	UserID         uint64    `json:"userId"`
	ReadAt         time.Time `json:"readAt"`
}
