package store

import (
	"context"
	"time"

	"eventra/models"
)

// Store is the persistence boundary of the purchase flow. Every cross-request
// shared mutation (the ledger claim, the inventory decrement, redemption) is
// a single conditional write on the implementation side; correctness must not
// depend on application-level locking.
type Store interface {
	FindEvent(ctx context.Context, id string) (*models.Event, error)
	FindTicketType(ctx context.Context, id string) (*models.TicketType, error)

	// CreatePayment persists a new pending ledger entry.
	CreatePayment(ctx context.Context, p *models.Payment) error

	FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)

	// ClaimPayment atomically moves a pending entry (or a processing entry
	// stale since before reclaimBefore) to processing. The bool reports
	// whether this caller won the claim; on the losing path the entry is
	// returned read-only with its current status.
	ClaimPayment(ctx context.Context, reference string, reclaimBefore time.Time) (*models.Payment, bool, error)

	// MarkPaymentTerminal finalizes a processing entry to a terminal status.
	// Entries already terminal are left untouched.
	MarkPaymentTerminal(ctx context.Context, reference string, st models.PaymentStatus, gatewayRaw []byte) error

	// CompletePurchase runs the issuance transaction: conditional inventory
	// decrement, instance creation, and ledger finalization to success.
	// Returns status.ErrInsufficientInventory (and leaves nothing behind)
	// when the decrement predicate fails.
	CompletePurchase(ctx context.Context, p *models.Payment, instances []*models.TicketInstance, gatewayRaw []byte) error

	// RedeemTicket atomically transitions a valid instance matching
	// {event, number, token} to used. Losing paths classify without
	// mutating: status.ErrTicketNotFound, ErrWrongEvent, ErrTicketUsed,
	// ErrTicketNotRedeemable.
	RedeemTicket(ctx context.Context, eventID, ticketNumber, token, scannedBy string) (*models.TicketInstance, error)

	ListTicketsByBuyer(ctx context.Context, buyerID string) ([]*models.TicketInstance, error)
}
