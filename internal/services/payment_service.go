package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventra/config"
	"eventra/internal/services/gateway"
	"eventra/internal/services/notifier"
	"eventra/internal/status"
	"eventra/internal/store"
	"eventra/models"
	"eventra/monitoring"
	"eventra/utils"

	"github.com/redis/go-redis/v9"
)

// PaymentService orchestrates the purchase flow: initialization against the
// gateway, verification of captured money, issuance, and terminal status
// bookkeeping. Every internal failure during verification is translated into
// exactly one terminal ledger status; errors escape only when nothing was
// decided.
type PaymentService struct {
	store    store.Store
	gateway  gateway.Client
	tickets  *TicketService
	notifier notifier.Dispatcher
	redis    *redis.Client
	cfg      *config.Config
	breaker  *utils.CircuitBreaker
}

func NewPaymentService(
	st store.Store,
	gw gateway.Client,
	tickets *TicketService,
	dispatcher notifier.Dispatcher,
	redisClient *redis.Client,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		store:    st,
		gateway:  gw,
		tickets:  tickets,
		notifier: dispatcher,
		redis:    redisClient,
		cfg:      cfg,
		breaker:  utils.NewCircuitBreaker("payment-gateway", 30*time.Second),
	}
}

// BuildReference composes the unique order reference. Embedding the ticket
// type, a millisecond timestamp, the buyer and a random suffix keeps
// references collision-free and traceable without a lookup.
func BuildReference(ticketTypeID, buyerID string) string {
	suffix, err := utils.GenerateCode(4)
	if err != nil {
		suffix = fmt.Sprintf("%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("TKT_%s_%d_%s_%s", ticketTypeID, time.Now().UnixMilli(), buyerID, suffix)
}

type InitializePaymentRequest struct {
	BuyerID      string
	Email        string
	FirstName    string
	LastName     string
	TicketTypeID string
	Quantity     int
}

type InitializePaymentResponse struct {
	Reference   string `json:"reference"`
	PaymentID   string `json:"payment_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	CheckoutURL string `json:"checkout_url"`
	AccessCode  string `json:"access_code"`
}

// Initialize validates the purchase preconditions, opens a gateway checkout
// and records the pending ledger entry. The amount is computed server-side
// from the stored price; client-supplied amounts are never trusted.
func (s *PaymentService) Initialize(ctx context.Context, req *InitializePaymentRequest) (*InitializePaymentResponse, error) {
	tt, err := s.store.FindTicketType(ctx, req.TicketTypeID)
	if err != nil {
		return nil, err
	}

	ev, err := s.store.FindEvent(ctx, tt.EventID)
	if err != nil {
		return nil, err
	}

	if ev.Status != models.EventLive {
		return nil, status.ErrEventNotLive
	}
	if tt.Kind == "free" {
		return nil, status.ErrFreeTicketType
	}
	if tt.Status != models.TicketTypeAvailable || tt.QuantityAvailable <= 0 {
		return nil, status.ErrTicketUnavailable
	}
	if tt.MaxPerOrder > 0 && req.Quantity > tt.MaxPerOrder {
		return nil, status.ErrMaxPerOrder
	}
	if req.Quantity > tt.QuantityAvailable {
		return nil, status.ErrInsufficientInventory
	}

	amount := tt.Price * int64(req.Quantity)
	reference := BuildReference(tt.ID, req.BuyerID)

	checkout, err := s.initializeWithGateway(ctx, &gateway.InitializeRequest{
		Email:       req.Email,
		Amount:      amount,
		Currency:    s.cfg.Currency,
		Reference:   reference,
		CallbackURL: s.cfg.CallbackURL,
		Metadata: map[string]any{
			"buyer":       req.BuyerID,
			"event":       ev.ID,
			"ticket_type": tt.ID,
			"quantity":    req.Quantity,
			"firstname":   req.FirstName,
			"lastname":    req.LastName,
		},
	})
	if err != nil {
		monitoring.TrackInitialization("gateway_error")
		return nil, fmt.Errorf("payment: initialize checkout: %w", err)
	}

	payment := &models.Payment{
		Reference:    reference,
		BuyerID:      req.BuyerID,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		EventID:      ev.ID,
		TicketTypeID: tt.ID,
		Quantity:     req.Quantity,
		Amount:       amount,
		Currency:     s.cfg.Currency,
		Status:       models.PaymentPending,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		monitoring.TrackInitialization("store_error")
		return nil, fmt.Errorf("payment: create ledger entry: %w", err)
	}

	s.cacheStatus(ctx, reference, models.PaymentPending, amount)
	monitoring.TrackInitialization("success")

	slog.Info("payment initialized",
		"reference", reference,
		"buyer", req.BuyerID,
		"ticket_type", tt.ID,
		"quantity", req.Quantity,
		"amount", amount,
	)

	return &InitializePaymentResponse{
		Reference:   reference,
		PaymentID:   payment.ID,
		Amount:      amount,
		Currency:    s.cfg.Currency,
		CheckoutURL: checkout.CheckoutURL,
		AccessCode:  checkout.AccessCode,
	}, nil
}

// VerifyOutcome is the result of a verification pass over one reference.
type VerifyOutcome struct {
	Reference      string                   `json:"reference"`
	Status         models.PaymentStatus     `json:"status"`
	AlreadyHandled bool                     `json:"already_handled,omitempty"`
	Message        string                   `json:"message"`
	Tickets        []*models.TicketInstance `json:"tickets,omitempty"`
}

// Verify drives one reference to a terminal status. It is safe to call
// concurrently and repeatedly for the same reference: only the caller that
// wins the ledger claim does any work, everyone else observes the recorded
// outcome.
func (s *PaymentService) Verify(ctx context.Context, reference string) (*VerifyOutcome, error) {
	reclaimBefore := time.Now().Add(-s.cfg.ProcessingReclaim)

	payment, claimed, err := s.store.ClaimPayment(ctx, reference, reclaimBefore)
	if err != nil {
		return nil, err
	}

	if !claimed {
		monitoring.TrackVerification("already_handled")
		return &VerifyOutcome{
			Reference:      reference,
			Status:         payment.Status,
			AlreadyHandled: true,
			Message:        fmt.Sprintf("Transaction already finalized with status: %s", payment.Status),
		}, nil
	}

	result, err := s.verifyWithGateway(ctx, reference)
	if err != nil {
		slog.Error("gateway verification failed", "reference", reference, "error", err)
		s.finalize(ctx, payment, models.PaymentFailed, nil)
		return &VerifyOutcome{
			Reference: reference,
			Status:    models.PaymentFailed,
			Message:   "Payment verification failed",
		}, nil
	}

	if !result.Success {
		s.finalize(ctx, payment, models.PaymentFailed, result.Raw)
		return &VerifyOutcome{
			Reference: reference,
			Status:    models.PaymentFailed,
			Message:   "Payment was not successful",
		}, nil
	}

	if result.Amount != payment.Amount {
		slog.Error("captured amount does not match expected amount",
			"reference", reference,
			"expected", payment.Amount,
			"captured", result.Amount,
			"buyer", payment.BuyerID,
		)
		s.finalize(ctx, payment, models.PaymentAmountMismatch, result.Raw)
		return &VerifyOutcome{
			Reference: reference,
			Status:    models.PaymentAmountMismatch,
			Message:   "Payment verification failed",
		}, nil
	}

	tt, err := s.store.FindTicketType(ctx, payment.TicketTypeID)
	if err != nil {
		slog.Error("ticket type missing for captured payment", "reference", reference, "error", err)
		s.finalize(ctx, payment, models.PaymentReviewRequired, result.Raw)
		return s.reviewOutcome(reference), nil
	}
	ev, err := s.store.FindEvent(ctx, payment.EventID)
	if err != nil {
		slog.Error("event missing for captured payment", "reference", reference, "error", err)
		s.finalize(ctx, payment, models.PaymentReviewRequired, result.Raw)
		return s.reviewOutcome(reference), nil
	}

	instances, err := s.tickets.Mint(payment, tt, ev)
	if err != nil {
		slog.Error("ticket minting failed for captured payment", "reference", reference, "error", err)
		s.finalize(ctx, payment, models.PaymentReviewRequired, result.Raw)
		return s.reviewOutcome(reference), nil
	}

	txErr := s.completeWithRetry(ctx, payment, instances, result.Raw)
	if txErr != nil {
		if errors.Is(txErr, status.ErrInsufficientInventory) {
			monitoring.TrackInventoryConflict()
			s.finalize(ctx, payment, models.PaymentInventoryError, result.Raw)
			slog.Warn("inventory exhausted after capture", "reference", reference, "quantity", payment.Quantity)
			return &VerifyOutcome{
				Reference: reference,
				Status:    models.PaymentInventoryError,
				Message:   "Tickets sold out before payment completed; a refund is required",
			}, nil
		}

		slog.Error("purchase transaction failed for captured payment", "reference", reference, "error", txErr)
		s.finalize(ctx, payment, models.PaymentReviewRequired, result.Raw)
		return s.reviewOutcome(reference), nil
	}

	monitoring.TrackVerification(string(models.PaymentSuccess))
	monitoring.TrackTicketsMinted(len(instances))
	s.cacheStatus(ctx, reference, models.PaymentSuccess, payment.Amount)

	slog.Info("payment verified and tickets issued",
		"reference", reference,
		"buyer", payment.BuyerID,
		"tickets", len(instances),
	)

	go s.dispatchNotifications(payment, instances, tt, ev)

	return &VerifyOutcome{
		Reference: reference,
		Status:    models.PaymentSuccess,
		Message:   "Payment verified and tickets issued",
		Tickets:   instances,
	}, nil
}

// Status reports the current ledger status for a reference, preferring the
// redis cache over a store read.
func (s *PaymentService) Status(ctx context.Context, reference string) (*models.Payment, error) {
	if s.redis != nil {
		cached, err := s.redis.HGet(ctx, statusCacheKey(reference), "status").Result()
		if err == nil && cached != "" {
			amount, _ := s.redis.HGet(ctx, statusCacheKey(reference), "amount").Int64()
			return &models.Payment{
				Reference: reference,
				Status:    models.PaymentStatus(cached),
				Amount:    amount,
			}, nil
		}
	}
	return s.store.FindPaymentByReference(ctx, reference)
}

func (s *PaymentService) reviewOutcome(reference string) *VerifyOutcome {
	return &VerifyOutcome{
		Reference: reference,
		Status:    models.PaymentReviewRequired,
		Message:   "Payment captured but issuance could not complete; flagged for manual review",
	}
}

// completeWithRetry retries the purchase transaction on transient storage
// contention. The ledger claim is never re-entered: retries stay inside the
// processing window this caller already owns.
func (s *PaymentService) completeWithRetry(ctx context.Context, p *models.Payment, instances []*models.TicketInstance, gatewayRaw []byte) error {
	var err error
	for attempt := 0; attempt <= s.cfg.TxMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
		}
		err = s.store.CompletePurchase(ctx, p, instances, gatewayRaw)
		if err == nil || !isTransient(err) {
			return err
		}
		slog.Warn("purchase transaction contention, retrying",
			"reference", p.Reference, "attempt", attempt+1, "error", err)
	}
	return err
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "busy")
}

// finalize records a non-success terminal status. Failures here are logged
// loudly but not propagated; the caller already has an outcome to report.
func (s *PaymentService) finalize(ctx context.Context, p *models.Payment, st models.PaymentStatus, gatewayRaw []byte) {
	if err := s.store.MarkPaymentTerminal(ctx, p.Reference, st, gatewayRaw); err != nil {
		slog.Error("failed to finalize payment status",
			"reference", p.Reference, "status", st, "error", err)
		return
	}
	monitoring.TrackVerification(string(st))
	s.cacheStatus(ctx, p.Reference, st, p.Amount)
}

func statusCacheKey(reference string) string {
	return fmt.Sprintf("payment:%s", reference)
}

func (s *PaymentService) cacheStatus(ctx context.Context, reference string, st models.PaymentStatus, amount int64) {
	if s.redis == nil {
		return
	}

	key := statusCacheKey(reference)
	if err := s.redis.HSet(ctx, key,
		"status", string(st),
		"amount", amount,
		"updated_at", time.Now().Format(time.RFC3339),
	).Err(); err != nil {
		slog.Warn("failed to cache payment status", "reference", reference, "error", err)
		return
	}
	s.redis.Expire(ctx, key, s.cfg.StatusCacheTTL)
}

func (s *PaymentService) initializeWithGateway(ctx context.Context, req *gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	start := time.Now()
	res, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.gateway.Initialize(ctx, req)
	})
	monitoring.ObserveGateway("initialize", time.Since(start))
	if err != nil {
		return nil, err
	}
	return res.(*gateway.InitializeResult), nil
}

func (s *PaymentService) verifyWithGateway(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	start := time.Now()
	res, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.gateway.Verify(ctx, reference)
	})
	monitoring.ObserveGateway("verify", time.Since(start))
	if err != nil {
		return nil, err
	}
	return res.(*gateway.VerifyResult), nil
}

// dispatchNotifications runs after commit in its own goroutine with a fresh
// context so a slow or failing delivery side cannot affect the ledger.
func (s *PaymentService) dispatchNotifications(p *models.Payment, instances []*models.TicketInstance, tt *models.TicketType, ev *models.Event) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.notifier.SendPurchaseConfirmation(ctx, &notifier.PurchaseConfirmation{
		Email:          p.Email,
		FirstName:      p.FirstName,
		Reference:      p.Reference,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Quantity:       p.Quantity,
		EventTitle:     ev.Title,
		TicketTypeName: tt.Name,
	}); err != nil {
		slog.Error("failed to queue purchase confirmation", "reference", p.Reference, "error", err)
	}

	artifacts := &notifier.TicketArtifacts{
		Email:     p.Email,
		BuyerID:   p.BuyerID,
		Reference: p.Reference,
	}
	for _, inst := range instances {
		artifacts.Tickets = append(artifacts.Tickets, notifier.TicketArtifact{
			TicketNumber: inst.TicketNumber,
			QRCode:       inst.QRCode,
			AttendeeName: inst.AttendeeName,
			EventTitle:   ev.Title,
		})
	}
	if err := s.notifier.SendTicketArtifacts(ctx, artifacts); err != nil {
		slog.Error("failed to queue ticket artifacts", "reference", p.Reference, "error", err)
	}
}
