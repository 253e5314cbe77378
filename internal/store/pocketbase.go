package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventra/internal/status"
	"eventra/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// PBStore implements Store on top of a PocketBase app. Conditional writes go
// through raw dbx queries so the predicate and the mutation are one
// statement; record plumbing is used everywhere else.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) FindEvent(_ context.Context, id string) (*models.Event, error) {
	rec, err := s.app.FindRecordById("events", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, fmt.Errorf("store: find event: %w", err)
	}
	return mapEvent(rec), nil
}

func (s *PBStore) FindTicketType(_ context.Context, id string) (*models.TicketType, error) {
	rec, err := s.app.FindRecordById("ticket_types", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTicketTypeNotFound
		}
		return nil, fmt.Errorf("store: find ticket type: %w", err)
	}
	return mapTicketType(rec), nil
}

func (s *PBStore) CreatePayment(_ context.Context, p *models.Payment) error {
	col, err := s.app.FindCollectionByNameOrId("payments")
	if err != nil {
		return err
	}

	rec := core.NewRecord(col)
	rec.Set("reference", p.Reference)
	rec.Set("buyer", p.BuyerID)
	rec.Set("email", p.Email)
	rec.Set("firstname", p.FirstName)
	rec.Set("lastname", p.LastName)
	rec.Set("event", p.EventID)
	rec.Set("ticket_type", p.TicketTypeID)
	rec.Set("quantity", p.Quantity)
	rec.Set("amount", p.Amount)
	rec.Set("currency", p.Currency)
	rec.Set("status", string(models.PaymentPending))

	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("store: create payment: %w", err)
	}

	p.ID = rec.Id
	p.Status = models.PaymentPending
	p.CreatedAt = rec.GetDateTime("created").Time()
	return nil
}

func (s *PBStore) FindPaymentByReference(_ context.Context, reference string) (*models.Payment, error) {
	rec, err := s.findPaymentRecord(reference)
	if err != nil {
		return nil, err
	}
	return mapPayment(rec), nil
}

func (s *PBStore) findPaymentRecord(reference string) (*core.Record, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"payments",
		"reference = {:reference}",
		dbx.Params{"reference": reference},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("store: find payment: %w", err)
	}
	return rec, nil
}

func (s *PBStore) ClaimPayment(ctx context.Context, reference string, reclaimBefore time.Time) (*models.Payment, bool, error) {
	now := types.NowDateTime()

	res, err := s.app.DB().NewQuery(`
		UPDATE payments
		SET status = {:processing}, processing_started_at = {:now}
		WHERE reference = {:reference}
		  AND (status = {:pending}
		   OR (status = {:processing} AND processing_started_at < {:cutoff}))`).
		Bind(dbx.Params{
			"processing": string(models.PaymentProcessing),
			"pending":    string(models.PaymentPending),
			"now":        now.String(),
			"cutoff":     reclaimBefore.UTC().Format(types.DefaultDateLayout),
			"reference":  reference,
		}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return nil, false, fmt.Errorf("store: claim payment: %w", err)
	}

	rec, err := s.findPaymentRecord(reference)
	if err != nil {
		return nil, false, err
	}

	affected, _ := res.RowsAffected()
	return mapPayment(rec), affected == 1, nil
}

func (s *PBStore) MarkPaymentTerminal(ctx context.Context, reference string, st models.PaymentStatus, gatewayRaw []byte) error {
	if !st.Terminal() {
		return fmt.Errorf("store: %q is not a terminal status", st)
	}

	raw := string(gatewayRaw)
	if raw == "" {
		raw = "null"
	}

	// Only a processing entry may be finalized; terminal entries are
	// immutable and the condition leaves them untouched.
	_, err := s.app.DB().NewQuery(`
		UPDATE payments
		SET status = {:status}, gateway_response = {:raw}
		WHERE reference = {:reference} AND status = {:processing}`).
		Bind(dbx.Params{
			"status":     string(st),
			"raw":        raw,
			"reference":  reference,
			"processing": string(models.PaymentProcessing),
		}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return fmt.Errorf("store: mark payment %s: %w", st, err)
	}
	return nil
}

func (s *PBStore) CompletePurchase(ctx context.Context, p *models.Payment, instances []*models.TicketInstance, gatewayRaw []byte) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		// Atomic conditional decrement: the sufficiency predicate and the
		// decrement are one statement, so concurrent buyers can never drive
		// the counter below zero.
		res, err := txApp.DB().NewQuery(`
			UPDATE ticket_types
			SET quantity_available = quantity_available - {:qty}
			WHERE id = {:id} AND quantity_available >= {:qty}`).
			Bind(dbx.Params{
				"qty": p.Quantity,
				"id":  p.TicketTypeID,
			}).
			WithContext(ctx).
			Execute()
		if err != nil {
			return fmt.Errorf("store: reserve inventory: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return status.ErrInsufficientInventory
		}

		if _, err := txApp.DB().NewQuery(`
			UPDATE ticket_types
			SET status = {:soldout}
			WHERE id = {:id} AND quantity_available = 0`).
			Bind(dbx.Params{
				"soldout": string(models.TicketTypeSoldOut),
				"id":      p.TicketTypeID,
			}).
			WithContext(ctx).
			Execute(); err != nil {
			return fmt.Errorf("store: mark sold out: %w", err)
		}

		col, err := txApp.FindCollectionByNameOrId("ticket_instances")
		if err != nil {
			return err
		}

		instanceIDs := make([]string, 0, len(instances))
		for _, inst := range instances {
			rec := core.NewRecord(col)
			rec.Set("payment", p.ID)
			rec.Set("buyer", inst.BuyerID)
			rec.Set("event", inst.EventID)
			rec.Set("ticket_type", inst.TicketTypeID)
			rec.Set("ticket_number", inst.TicketNumber)
			rec.Set("token", inst.Token)
			rec.Set("qr_code", inst.QRCode)
			rec.Set("attendee_name", inst.AttendeeName)
			rec.Set("attendee_email", inst.AttendeeEmail)
			rec.Set("status", string(models.TicketValid))
			metaRaw, err := json.Marshal(inst.Metadata)
			if err != nil {
				return fmt.Errorf("store: marshal ticket metadata: %w", err)
			}
			rec.Set("metadata", string(metaRaw))

			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("store: create ticket instance: %w", err)
			}

			inst.ID = rec.Id
			inst.PaymentID = p.ID
			inst.Status = models.TicketValid
			instanceIDs = append(instanceIDs, rec.Id)
		}

		payRec, err := txApp.FindFirstRecordByFilter(
			"payments",
			"reference = {:reference}",
			dbx.Params{"reference": p.Reference},
		)
		if err != nil {
			return fmt.Errorf("store: finalize payment: %w", err)
		}
		if payRec.GetString("status") != string(models.PaymentProcessing) {
			return fmt.Errorf("store: finalize payment: unexpected status %q", payRec.GetString("status"))
		}

		paidAt := types.NowDateTime()
		payRec.Set("status", string(models.PaymentSuccess))
		payRec.Set("paid_at", paidAt)
		payRec.Set("gateway_response", string(gatewayRaw))
		payRec.Set("ticket_instances", instanceIDs)

		if err := txApp.Save(payRec); err != nil {
			return fmt.Errorf("store: finalize payment: %w", err)
		}

		p.Status = models.PaymentSuccess
		p.TicketInstanceIDs = instanceIDs
		t := paidAt.Time()
		p.PaidAt = &t
		return nil
	})
}

func (s *PBStore) RedeemTicket(ctx context.Context, eventID, ticketNumber, token, scannedBy string) (*models.TicketInstance, error) {
	now := types.NowDateTime()

	res, err := s.app.DB().NewQuery(`
		UPDATE ticket_instances
		SET status = {:used}, used_at = {:now}, scanned_by = {:agent}
		WHERE ticket_number = {:number} AND token = {:token}
		  AND event = {:event} AND status = {:valid}`).
		Bind(dbx.Params{
			"used":   string(models.TicketUsed),
			"valid":  string(models.TicketValid),
			"now":    now.String(),
			"agent":  scannedBy,
			"number": ticketNumber,
			"token":  token,
			"event":  eventID,
		}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("store: redeem ticket: %w", err)
	}

	rec, err := s.app.FindFirstRecordByFilter(
		"ticket_instances",
		"ticket_number = {:number} && token = {:token}",
		dbx.Params{"number": ticketNumber, "token": token},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTicketNotFound
		}
		return nil, fmt.Errorf("store: redeem ticket: %w", err)
	}

	inst := mapTicketInstance(rec)

	if affected, _ := res.RowsAffected(); affected == 1 {
		return inst, nil
	}

	// Losing path: classify without mutating.
	if inst.EventID != eventID {
		return inst, status.ErrWrongEvent
	}
	switch inst.Status {
	case models.TicketUsed:
		return inst, status.ErrTicketUsed
	default:
		return inst, status.ErrTicketNotRedeemable
	}
}

func (s *PBStore) ListTicketsByBuyer(_ context.Context, buyerID string) ([]*models.TicketInstance, error) {
	recs, err := s.app.FindRecordsByFilter(
		"ticket_instances",
		"buyer = {:buyer}",
		"-created",
		0,
		0,
		dbx.Params{"buyer": buyerID},
	)
	if err != nil {
		return nil, fmt.Errorf("store: list tickets: %w", err)
	}

	instances := make([]*models.TicketInstance, 0, len(recs))
	for _, rec := range recs {
		instances = append(instances, mapTicketInstance(rec))
	}
	return instances, nil
}

func mapEvent(rec *core.Record) *models.Event {
	return &models.Event{
		ID:          rec.Id,
		Title:       rec.GetString("title"),
		Description: rec.GetString("description"),
		Location:    rec.GetString("location"),
		StartDate:   rec.GetDateTime("start_date").Time(),
		EndDate:     rec.GetDateTime("end_date").Time(),
		Status:      models.EventStatus(rec.GetString("status")),
		CreatedBy:   rec.GetString("created_by"),
	}
}

func mapTicketType(rec *core.Record) *models.TicketType {
	return &models.TicketType{
		ID:                rec.Id,
		EventID:           rec.GetString("event"),
		Name:              rec.GetString("name"),
		Kind:              rec.GetString("kind"),
		Price:             int64(rec.GetFloat("price")),
		QuantityAvailable: rec.GetInt("quantity_available"),
		MaxPerOrder:       rec.GetInt("max_per_order"),
		Status:            models.TicketTypeStatus(rec.GetString("status")),
	}
}

func mapPayment(rec *core.Record) *models.Payment {
	p := &models.Payment{
		ID:           rec.Id,
		Reference:    rec.GetString("reference"),
		BuyerID:      rec.GetString("buyer"),
		Email:        rec.GetString("email"),
		FirstName:    rec.GetString("firstname"),
		LastName:     rec.GetString("lastname"),
		EventID:      rec.GetString("event"),
		TicketTypeID: rec.GetString("ticket_type"),
		Quantity:     rec.GetInt("quantity"),
		Amount:       int64(rec.GetFloat("amount")),
		Currency:     rec.GetString("currency"),
		Status:       models.PaymentStatus(rec.GetString("status")),
		CreatedAt:    rec.GetDateTime("created").Time(),
	}

	if raw := rec.GetString("gateway_response"); raw != "" && raw != "null" {
		p.GatewayResponse = json.RawMessage(raw)
	}
	p.TicketInstanceIDs = rec.GetStringSlice("ticket_instances")

	if d := rec.GetDateTime("processing_started_at"); !d.IsZero() {
		t := d.Time()
		p.ProcessingStartedAt = &t
	}
	if d := rec.GetDateTime("paid_at"); !d.IsZero() {
		t := d.Time()
		p.PaidAt = &t
	}
	return p
}

func mapTicketInstance(rec *core.Record) *models.TicketInstance {
	inst := &models.TicketInstance{
		ID:            rec.Id,
		PaymentID:     rec.GetString("payment"),
		BuyerID:       rec.GetString("buyer"),
		EventID:       rec.GetString("event"),
		TicketTypeID:  rec.GetString("ticket_type"),
		TicketNumber:  rec.GetString("ticket_number"),
		Token:         rec.GetString("token"),
		QRCode:        rec.GetString("qr_code"),
		AttendeeName:  rec.GetString("attendee_name"),
		AttendeeEmail: rec.GetString("attendee_email"),
		Status:        models.TicketStatus(rec.GetString("status")),
		ScannedBy:     rec.GetString("scanned_by"),
	}

	if d := rec.GetDateTime("used_at"); !d.IsZero() {
		t := d.Time()
		inst.UsedAt = &t
	}
	if raw := rec.GetString("metadata"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &inst.Metadata)
	}
	return inst
}
