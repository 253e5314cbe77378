package models

import (
	"time"
)

type EventStatus string

const (
	EventDraft EventStatus = "draft"
	EventLive  EventStatus = "live"
	EventEnded EventStatus = "ended"
)

type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Status      EventStatus `json:"status"`
	CreatedBy   string      `json:"created_by"`
}

type TicketTypeStatus string

const (
	TicketTypeAvailable   TicketTypeStatus = "available"
	TicketTypeSoldOut     TicketTypeStatus = "sold_out"
	TicketTypeUnavailable TicketTypeStatus = "unavailable"
)

// TicketType is one sellable inventory line of an event. Price is in minor
// currency units. QuantityAvailable is mutated only through the store's
// atomic conditional decrement.
type TicketType struct {
	ID                string           `json:"id"`
	EventID           string           `json:"event_id"`
	Name              string           `json:"name"`
	Kind              string           `json:"kind"` // paid, free
	Price             int64            `json:"price"`
	QuantityAvailable int              `json:"quantity_available"`
	MaxPerOrder       int              `json:"max_per_order"`
	Status            TicketTypeStatus `json:"status"`
}
