package model

import "time"

// Support ticket statuses.  escalated is not a status of its own; it
// lives on the IsEscalated flag orthogonally to the lifecycle.
const (
	SupportOpen       = "open"
	SupportInProgress = "in_progress"
	SupportResolved   = "resolved"
	SupportClosed     = "closed"
)

// ValidSupportStatus reports whether s is a known ticket status.
func ValidSupportStatus(s string) bool {
	switch s {
	case SupportOpen, SupportInProgress, SupportResolved, SupportClosed:
		return true
	}
	return false
}

// Priorities shared by support tickets and notifications.
var Priorities = []string{"low", "medium", "high", "urgent"}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// SupportRequest is a row in the `support_requests` table: a free-form
// contact ticket with a smaller lifecycle than a service request.
// ResolvedDate/ResolvedBy and ResponseDate/RespondedBy follow the same
// write-once rule as the service request timestamps.
type SupportRequest struct {
	ID               uint64     `json:"id"`
	UserID           *uint64    `json:"userId,omitempty"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            *string    `json:"phone,omitempty"`
	Subject          string     `json:"subject"`
	Message          string     `json:"message"`
	Category         string     `json:"category"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	AssignedToID     *uint64    `json:"assignedToId,omitempty"`
	AssignedDate     *time.Time `json:"assignedDate,omitempty"`
	AdminResponse    *string    `json:"adminResponse,omitempty"`
	ResponseDate     *time.Time `json:"responseDate,omitempty"`
	RespondedByID    *uint64    `json:"respondedById,omitempty"`
	ResolutionNotes  *string    `json:"resolutionNotes,omitempty"`
	ResolvedDate     *time.Time `json:"resolvedDate,omitempty"`
	ResolvedByID     *uint64    `json:"resolvedById,omitempty"`
	IsEscalated      bool       `json:"isEscalated"`
	EscalationReason *string    `json:"escalationReason,omitempty"`
	EscalatedDate    *time.Time `json:"escalatedDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
