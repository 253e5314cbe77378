package models

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "pending"
	PaymentProcessing     PaymentStatus = "processing"
	PaymentSuccess        PaymentStatus = "success"
	PaymentFailed         PaymentStatus = "failed"
	PaymentAmountMismatch PaymentStatus = "amount_mismatch"
	PaymentInventoryError PaymentStatus = "inventory_error"
	PaymentReviewRequired PaymentStatus = "review_required"
)

// Terminal reports whether no further automatic transition may occur.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentSuccess, PaymentFailed, PaymentAmountMismatch, PaymentInventoryError, PaymentReviewRequired:
		return true
	}
	return false
}

// Payment is one ledger entry: the durable record of a single purchase
// attempt and its lifecycle. Amount is in minor currency units.
type Payment struct {
	ID                  string          `json:"id"`
	Reference           string          `json:"reference"`
	BuyerID             string          `json:"buyer_id"`
	Email               string          `json:"email"`
	FirstName           string          `json:"firstname"`
	LastName            string          `json:"lastname"`
	EventID             string          `json:"event_id"`
	TicketTypeID        string          `json:"ticket_type_id"`
	Quantity            int             `json:"quantity"`
	Amount              int64           `json:"amount"`
	Currency            string          `json:"currency"`
	Status              PaymentStatus   `json:"status"`
	GatewayResponse     json.RawMessage `json:"gateway_response,omitempty"`
	TicketInstanceIDs   []string        `json:"ticket_instances,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	ProcessingStartedAt *time.Time      `json:"processing_started_at,omitempty"`
	PaidAt              *time.Time      `json:"paid_at,omitempty"`
}
