// Package queue defines message payloads exchanged over the message broker.
package queue

// RequestCompletedEvent is published when a service request reaches the
// completed status. It carries enough information for downstream
// consumers to log, bill, or notify without querying the primary
// database.
type RequestCompletedEvent struct {
	RequestID    uint64 `json:"request_id"`
	CustomerID   uint64 `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	MasterID     uint64 `json:"master_id"`
	ServiceType  string `json:"service_type"`
	DeviceType   string `json:"device_type"`
	FinalPrice   int64  `json:"final_price"`
	CompletedAt  string `json:"completed_at"`
}
