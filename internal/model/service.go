package model

import "time"

// Service request statuses stored in service_requests.status.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusOnHold     = "on_hold"
)

// Payment statuses stored in service_requests.payment_status.  Payments
// are recorded, never processed.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// statusTransitions is the explicit transition table for service
// requests.  Self-transitions on in_progress and completed are allowed
// so that repeated status calls stay idempotent; the write-once
// timestamps guarantee they do not restamp anything.  completed and
// cancelled are terminal apart from the completed self-loop.
var statusTransitions = map[string][]string{
	StatusPending:    {StatusApproved, StatusAssigned, StatusCancelled, StatusOnHold},
	StatusApproved:   {StatusAssigned, StatusCancelled, StatusOnHold},
	StatusAssigned:   {StatusAssigned, StatusInProgress, StatusCancelled, StatusOnHold},
	StatusInProgress: {StatusInProgress, StatusCompleted, StatusCancelled, StatusOnHold},
	StatusOnHold:     {StatusAssigned, StatusInProgress, StatusCancelled},
	StatusCompleted:  {StatusCompleted},
	StatusCancelled:  {},
}

// CanTransition reports whether a service request may move from one
// status to another.
func CanTransition(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether a request in the given status admits
// no further assignment.
func TerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// ValidStatus reports whether status is a known service request status.
func ValidStatus(status string) bool {
	_, ok := statusTransitions[status]
	return ok
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentRefunded
}

// ServiceType is a catalog entry in the `service_types` table.  The
// base price is copied onto each request at creation time; later
// catalog edits never touch existing requests.
type ServiceType struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	BasePrice         int64     `json:"basePrice"`
	EstimatedDuration string    `json:"estimatedDuration"`
	Category          string    `json:"category"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Service type categories.
var ServiceCategories = []string{"hardware", "software", "network", "security", "maintenance", "other"}

// ValidServiceCategory reports whether c is a known catalog category.
func ValidServiceCategory(c string) bool {
	for _, v := range ServiceCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ServiceRequest is the central workflow entity, one row in
// `service_requests`.  AssignedDate, ActualStartDate and CompletedAt
// are write-once: the repository stamps each the first time its
// triggering condition holds and never overwrites it afterwards.
type ServiceRequest struct {
	ID                 uint64     `json:"id"`
	UserID             uint64     `json:"userId"`
	ServiceTypeID      uint64     `json:"serviceTypeId"`
	DeviceType         string     `json:"deviceType"`
	DeviceBrand        *string    `json:"deviceBrand,omitempty"`
	DeviceModel        *string    `json:"deviceModel,omitempty"`
	ProblemDescription string     `json:"problemDescription"`
	UrgencyLevel       string     `json:"urgencyLevel"`
	City               string     `json:"city"`
	Address            string     `json:"address"`
	PreferredDate      time.Time  `json:"preferredDate"`
	PreferredTime      string     `json:"preferredTime"`
	ContactMethod      string     `json:"contactMethod"`
	AdditionalInfo     *string    `json:"additionalInfo,omitempty"`
	Status             string     `json:"status"`
	AssignedMasterID   *uint64    `json:"assignedMasterId,omitempty"`
	AssignedDate       *time.Time `json:"assignedDate,omitempty"`
	FixedPrice         int64      `json:"fixedPrice"`
	FinalPrice         *int64     `json:"finalPrice,omitempty"`
	PaymentStatus      string     `json:"paymentStatus"`
	ManagerNotes       *string    `json:"managerNotes,omitempty"`
	MasterNotes        *string    `json:"masterNotes,omitempty"`
	IsAutoCreatedUser  bool       `json:"isAutoCreatedUser"`
	ActualStartDate    *time.Time `json:"actualStartDate,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// RequestDetails is a ServiceRequest joined with the names a client
// needs to render it without extra lookups.
type RequestDetails struct {
	ServiceRequest
	ServiceTypeName string  `json:"serviceTypeName"`
	CustomerName    string  `json:"customerName"`
	CustomerEmail   string  `json:"customerEmail"`
	MasterName      *string `json:"masterName,omitempty"`
}

// Device types accepted on a service request.
var DeviceTypes = []string{"desktop", "laptop", "server", "printer", "network", "other"}

// ValidDeviceType reports whether t is an accepted device descriptor.
func ValidDeviceType(t string) bool {
	for _, v := range DeviceTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Urgency levels accepted on a service request.
var UrgencyLevels = []string{"low", "medium", "high", "critical"}

// ValidUrgency reports whether u is an accepted urgency level.
func ValidUrgency(u string) bool {
	for _, v := range UrgencyLevels {
		if v == u {
			return true
		}
	}
	return false
}

// Contact methods accepted on a service request.
func ValidContactMethod(m string) bool {
	return m == "phone" || m == "email" || m == "both"
}
