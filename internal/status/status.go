package status

import "errors"

var (
	// validation / conflict
	ErrEventNotLive          = errors.New("event: event is not open for ticket sales")
	ErrFreeTicketType        = errors.New("ticket type: free tickets do not require payment")
	ErrTicketUnavailable     = errors.New("ticket type: not available or sold out")
	ErrMaxPerOrder           = errors.New("ticket type: requested quantity exceeds max per order")
	ErrInsufficientInventory = errors.New("inventory: insufficient quantity available")

	// ledger / catalog
	ErrPaymentNotFound    = errors.New("payment: payment record not found")
	ErrEventNotFound      = errors.New("event: event not found")
	ErrTicketTypeNotFound = errors.New("ticket type: ticket type not found")

	// security
	ErrAmountMismatch   = errors.New("payment: captured amount does not match expected amount")
	ErrInvalidSignature = errors.New("webhook: invalid signature")

	// gateway
	ErrGatewayDeclined = errors.New("gateway: transaction failed or declined")

	// check-in
	ErrTicketNotFound      = errors.New("ticket: ticket not found or invalid")
	ErrTicketUsed          = errors.New("ticket: ticket already used")
	ErrWrongEvent          = errors.New("ticket: ticket belongs to a different event")
	ErrTicketNotRedeemable = errors.New("ticket: ticket is not in a redeemable state")
)
