package models

import (
	"time"
)

type TicketStatus string

const (
	TicketValid       TicketStatus = "valid"
	TicketUsed        TicketStatus = "used"
	TicketCancelled   TicketStatus = "cancelled"
	TicketTransferred TicketStatus = "transferred"
)

// TicketMetadata is the purchase-time snapshot denormalized onto every
// instance so later event edits cannot rewrite what was sold.
type TicketMetadata struct {
	EventTitle     string    `json:"event_title"`
	EventDate      time.Time `json:"event_date"`
	EventLocation  string    `json:"event_location"`
	TicketTypeName string    `json:"ticket_type_name"`
	Price          int64     `json:"price"`
	OrderReference string    `json:"order_reference"`
	PurchaseDate   time.Time `json:"purchase_date"`
}

// TicketInstance is one redeemable unit of purchased access. TicketNumber and
// Token are globally unique and immutable after minting.
type TicketInstance struct {
	ID            string         `json:"id"`
	PaymentID     string         `json:"payment_id"`
	BuyerID       string         `json:"buyer_id"`
	EventID       string         `json:"event_id"`
	TicketTypeID  string         `json:"ticket_type_id"`
	TicketNumber  string         `json:"ticket_number"`
	Token         string         `json:"token"`
	QRCode        string         `json:"qr_code,omitempty"`
	AttendeeName  string         `json:"attendee_name"`
	AttendeeEmail string         `json:"attendee_email"`
	Status        TicketStatus   `json:"status"`
	UsedAt        *time.Time     `json:"used_at,omitempty"`
	ScannedBy     string         `json:"scanned_by,omitempty"`
	Metadata      TicketMetadata `json:"metadata"`
}
