package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventra/internal/status"
	"eventra/internal/store"
	"eventra/models"
	"eventra/utils"

	qrcode "github.com/skip2/go-qrcode"
)

const ticketTokenBytes = 32

// Check-in outcomes reported to the gate scanner.
const (
	CheckInAdmitted   = "admitted"
	CheckInDuplicate  = "duplicate"
	CheckInNotFound   = "not_found"
	CheckInWrongEvent = "wrong_event"
)

type TicketService struct {
	store store.Store
}

func NewTicketService(st store.Store) *TicketService {
	return &TicketService{store: st}
}

// TicketNumber derives a human-readable number from the payment reference so
// every instance of an order shares a recognizable stem. The sequence keeps
// numbers unique within the order.
func TicketNumber(reference string, sequence int) string {
	stem := reference
	if parts := strings.Split(reference, "_"); len(parts) >= 5 {
		stem = parts[2] + "-" + parts[4]
	}
	return fmt.Sprintf("TKT-%d-%s-%02d", time.Now().Year(), stem, sequence)
}

// credentialPayload is the scanned contract: the gate re-derives these three
// fields from the QR image and submits them for redemption.
type credentialPayload struct {
	Event        string `json:"event"`
	TicketNumber string `json:"ticket_number"`
	Token        string `json:"token"`
}

// EncodeCredential renders the scannable credential as a PNG data URL.
// Error correction is set high so damaged prints still scan.
func EncodeCredential(eventID, ticketNumber, token string) (string, error) {
	payload, err := json.Marshal(credentialPayload{
		Event:        eventID,
		TicketNumber: ticketNumber,
		Token:        token,
	})
	if err != nil {
		return "", fmt.Errorf("ticket: marshal credential: %w", err)
	}

	png, err := qrcode.Encode(string(payload), qrcode.High, 300)
	if err != nil {
		return "", fmt.Errorf("ticket: encode credential: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Mint builds the ticket instances for a captured payment. Instances are not
// persisted here; the caller commits them together with the inventory
// decrement and ledger finalization.
func (s *TicketService) Mint(payment *models.Payment, tt *models.TicketType, ev *models.Event) ([]*models.TicketInstance, error) {
	attendeeName := strings.TrimSpace(payment.FirstName + " " + payment.LastName)
	purchaseDate := time.Now()

	instances := make([]*models.TicketInstance, 0, payment.Quantity)
	for i := 1; i <= payment.Quantity; i++ {
		token, err := utils.GenerateTicketToken(ticketTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("ticket: generate token: %w", err)
		}

		number := TicketNumber(payment.Reference, i)
		qr, err := EncodeCredential(ev.ID, number, token)
		if err != nil {
			return nil, err
		}

		instances = append(instances, &models.TicketInstance{
			PaymentID:     payment.ID,
			BuyerID:       payment.BuyerID,
			EventID:       ev.ID,
			TicketTypeID:  tt.ID,
			TicketNumber:  number,
			Token:         token,
			QRCode:        qr,
			AttendeeName:  attendeeName,
			AttendeeEmail: payment.Email,
			Status:        models.TicketValid,
			Metadata: models.TicketMetadata{
				EventTitle:     ev.Title,
				EventDate:      ev.StartDate,
				EventLocation:  ev.Location,
				TicketTypeName: tt.Name,
				Price:          tt.Price,
				OrderReference: payment.Reference,
				PurchaseDate:   purchaseDate,
			},
		})
	}
	return instances, nil
}

type CheckInRequest struct {
	EventID      string `json:"event"`
	TicketNumber string `json:"ticket_number"`
	Token        string `json:"token"`
	ScannedBy    string `json:"scanned_by"`
}

type CheckInTicket struct {
	TicketNumber   string     `json:"ticket_number"`
	AttendeeName   string     `json:"attendee_name"`
	EventTitle     string     `json:"event_title"`
	TicketTypeName string     `json:"ticket_type_name"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
}

type CheckInResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Ticket  *CheckInTicket `json:"ticket,omitempty"`
}

// CheckIn redeems a scanned credential. Classification is deliberate: a
// ticket that was already admitted reports duplicate (with the original scan
// time) so the gate can tell fraud from a bad print.
func (s *TicketService) CheckIn(ctx context.Context, req *CheckInRequest) (*CheckInResult, error) {
	inst, err := s.store.RedeemTicket(ctx, req.EventID, req.TicketNumber, req.Token, req.ScannedBy)

	switch {
	case err == nil:
		return &CheckInResult{
			Status:  CheckInAdmitted,
			Message: "Check-in successful",
			Ticket:  checkInTicket(inst),
		}, nil

	case errors.Is(err, status.ErrTicketUsed):
		return &CheckInResult{
			Status:  CheckInDuplicate,
			Message: "Ticket has already been used",
			Ticket:  checkInTicket(inst),
		}, nil

	case errors.Is(err, status.ErrWrongEvent):
		return &CheckInResult{
			Status:  CheckInWrongEvent,
			Message: "Ticket belongs to a different event",
		}, nil

	case errors.Is(err, status.ErrTicketNotFound):
		return &CheckInResult{
			Status:  CheckInNotFound,
			Message: "Ticket not found or credential invalid",
		}, nil

	case errors.Is(err, status.ErrTicketNotRedeemable):
		res := &CheckInResult{
			Status:  string(models.TicketCancelled),
			Message: "Ticket is not admissible",
		}
		if inst != nil {
			res.Status = string(inst.Status)
			res.Ticket = checkInTicket(inst)
		}
		return res, nil

	default:
		return nil, err
	}
}

func checkInTicket(inst *models.TicketInstance) *CheckInTicket {
	if inst == nil {
		return nil
	}
	return &CheckInTicket{
		TicketNumber:   inst.TicketNumber,
		AttendeeName:   inst.AttendeeName,
		EventTitle:     inst.Metadata.EventTitle,
		TicketTypeName: inst.Metadata.TicketTypeName,
		UsedAt:         inst.UsedAt,
	}
}

func (s *TicketService) ListBuyerTickets(ctx context.Context, buyerID string) ([]*models.TicketInstance, error) {
	return s.store.ListTicketsByBuyer(ctx, buyerID)
}
