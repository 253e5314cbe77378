package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"eventra/config"
	"eventra/internal/services/gateway"
	"eventra/internal/status"
	"eventra/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store that honors the same conditional-write
// semantics as the real implementation: the claim, the inventory decrement
// and redemption all check-and-mutate under one lock.
type fakeStore struct {
	mu        sync.Mutex
	events    map[string]*models.Event
	types     map[string]*models.TicketType
	payments  map[string]*models.Payment        // keyed by reference
	instances map[string]*models.TicketInstance // keyed by ticket number
	nextID    int

	// failCompleteTimes makes CompletePurchase fail with a transient error
	// this many times before succeeding.
	failCompleteTimes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:    make(map[string]*models.Event),
		types:     make(map[string]*models.TicketType),
		payments:  make(map[string]*models.Payment),
		instances: make(map[string]*models.TicketInstance),
	}
}

func (f *fakeStore) genID() string {
	f.nextID++
	return fmt.Sprintf("rec%012d", f.nextID)
}

func (f *fakeStore) FindEvent(_ context.Context, id string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, status.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeStore) FindTicketType(_ context.Context, id string) (*models.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tt, ok := f.types[id]
	if !ok {
		return nil, status.ErrTicketTypeNotFound
	}
	cp := *tt
	return &cp, nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.payments[p.Reference]; exists {
		return fmt.Errorf("UNIQUE constraint failed: payments.reference")
	}
	p.ID = f.genID()
	p.Status = models.PaymentPending
	p.CreatedAt = time.Now()
	cp := *p
	f.payments[p.Reference] = &cp
	return nil
}

func (f *fakeStore) FindPaymentByReference(_ context.Context, reference string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[reference]
	if !ok {
		return nil, status.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ClaimPayment(_ context.Context, reference string, reclaimBefore time.Time) (*models.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[reference]
	if !ok {
		return nil, false, status.ErrPaymentNotFound
	}

	claimable := p.Status == models.PaymentPending ||
		(p.Status == models.PaymentProcessing &&
			p.ProcessingStartedAt != nil && p.ProcessingStartedAt.Before(reclaimBefore))
	if claimable {
		now := time.Now()
		p.Status = models.PaymentProcessing
		p.ProcessingStartedAt = &now
	}

	cp := *p
	return &cp, claimable, nil
}

func (f *fakeStore) MarkPaymentTerminal(_ context.Context, reference string, st models.PaymentStatus, gatewayRaw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[reference]
	if !ok {
		return status.ErrPaymentNotFound
	}
	if p.Status != models.PaymentProcessing {
		return nil
	}
	p.Status = st
	p.GatewayResponse = gatewayRaw
	return nil
}

func (f *fakeStore) CompletePurchase(_ context.Context, p *models.Payment, instances []*models.TicketInstance, gatewayRaw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCompleteTimes > 0 {
		f.failCompleteTimes--
		return errors.New("database is locked")
	}

	tt, ok := f.types[p.TicketTypeID]
	if !ok {
		return status.ErrTicketTypeNotFound
	}
	if tt.QuantityAvailable < p.Quantity {
		return status.ErrInsufficientInventory
	}
	tt.QuantityAvailable -= p.Quantity
	if tt.QuantityAvailable == 0 {
		tt.Status = models.TicketTypeSoldOut
	}

	ids := make([]string, 0, len(instances))
	for _, inst := range instances {
		inst.ID = f.genID()
		inst.PaymentID = p.ID
		inst.Status = models.TicketValid
		cp := *inst
		f.instances[inst.TicketNumber] = &cp
		ids = append(ids, inst.ID)
	}

	stored := f.payments[p.Reference]
	if stored.Status != models.PaymentProcessing {
		return fmt.Errorf("unexpected status %q", stored.Status)
	}
	now := time.Now()
	stored.Status = models.PaymentSuccess
	stored.PaidAt = &now
	stored.GatewayResponse = gatewayRaw
	stored.TicketInstanceIDs = ids

	p.Status = models.PaymentSuccess
	p.PaidAt = &now
	p.TicketInstanceIDs = ids
	return nil
}

func (f *fakeStore) RedeemTicket(_ context.Context, eventID, ticketNumber, token, scannedBy string) (*models.TicketInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inst, ok := f.instances[ticketNumber]
	if !ok || inst.Token != token {
		return nil, status.ErrTicketNotFound
	}

	cp := *inst
	if inst.EventID != eventID {
		return &cp, status.ErrWrongEvent
	}
	switch inst.Status {
	case models.TicketValid:
		now := time.Now()
		inst.Status = models.TicketUsed
		inst.UsedAt = &now
		inst.ScannedBy = scannedBy
		cp = *inst
		return &cp, nil
	case models.TicketUsed:
		return &cp, status.ErrTicketUsed
	default:
		return &cp, status.ErrTicketNotRedeemable
	}
}

func (f *fakeStore) ListTicketsByBuyer(_ context.Context, buyerID string) ([]*models.TicketInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.TicketInstance
	for _, inst := range f.instances {
		if inst.BuyerID == buyerID {
			cp := *inst
			out = append(out, &cp)
		}
	}
	return out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Currency:          "NGN",
		CallbackURL:       "http://localhost:8090/api/v1/payments/verify",
		ProcessingReclaim: 15 * time.Minute,
		TxMaxRetries:      3,
		StatusCacheTTL:    time.Minute,
	}
}

type fixture struct {
	store    *fakeStore
	gateway  *gateway.MockClient
	tickets  *TicketService
	payments *PaymentService
}

func newFixture(quantityAvailable int) *fixture {
	st := newFakeStore()
	st.events["ev1"] = &models.Event{
		ID:        "ev1",
		Title:     "Go Conference",
		Location:  "Lagos",
		StartDate: time.Now().Add(30 * 24 * time.Hour),
		Status:    models.EventLive,
	}
	st.types["tt1"] = &models.TicketType{
		ID:                "tt1",
		EventID:           "ev1",
		Name:              "Regular",
		Kind:              "paid",
		Price:             50000,
		QuantityAvailable: quantityAvailable,
		MaxPerOrder:       5,
		Status:            models.TicketTypeAvailable,
	}

	gw := gateway.NewMockClient("test_secret")
	tickets := NewTicketService(st)
	payments := NewPaymentService(st, gw, tickets, nil, nil, testConfig())

	return &fixture{store: st, gateway: gw, tickets: tickets, payments: payments}
}

func (fx *fixture) initialize(t *testing.T, buyerID string, quantity int) *InitializePaymentResponse {
	t.Helper()
	resp, err := fx.payments.Initialize(context.Background(), &InitializePaymentRequest{
		BuyerID:      buyerID,
		Email:        buyerID + "@example.com",
		FirstName:    "Ada",
		LastName:     "Obi",
		TicketTypeID: "tt1",
		Quantity:     quantity,
	})
	require.NoError(t, err)
	return resp
}

func TestInitializeComputesAmountServerSide(t *testing.T) {
	fx := newFixture(10)

	resp := fx.initialize(t, "buyer1", 3)

	assert.Equal(t, int64(150000), resp.Amount)
	assert.Equal(t, "NGN", resp.Currency)
	assert.True(t, strings.HasPrefix(resp.Reference, "TKT_tt1_"))
	assert.Contains(t, resp.Reference, "buyer1")
	assert.NotEmpty(t, resp.CheckoutURL)

	p, err := fx.store.FindPaymentByReference(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Equal(t, int64(150000), p.Amount)
}

func TestInitializePreconditions(t *testing.T) {
	t.Run("event not live", func(t *testing.T) {
		fx := newFixture(10)
		fx.store.events["ev1"].Status = models.EventDraft

		_, err := fx.payments.Initialize(context.Background(), &InitializePaymentRequest{
			BuyerID: "b", Email: "b@example.com", TicketTypeID: "tt1", Quantity: 1,
		})
		assert.ErrorIs(t, err, status.ErrEventNotLive)
	})

	t.Run("free ticket type", func(t *testing.T) {
		fx := newFixture(10)
		fx.store.types["tt1"].Kind = "free"

		_, err := fx.payments.Initialize(context.Background(), &InitializePaymentRequest{
			BuyerID: "b", Email: "b@example.com", TicketTypeID: "tt1", Quantity: 1,
		})
		assert.ErrorIs(t, err, status.ErrFreeTicketType)
	})

	t.Run("over max per order", func(t *testing.T) {
		fx := newFixture(10)

		_, err := fx.payments.Initialize(context.Background(), &InitializePaymentRequest{
			BuyerID: "b", Email: "b@example.com", TicketTypeID: "tt1", Quantity: 6,
		})
		assert.ErrorIs(t, err, status.ErrMaxPerOrder)
	})

	t.Run("sold out", func(t *testing.T) {
		fx := newFixture(0)
		fx.store.types["tt1"].Status = models.TicketTypeSoldOut

		_, err := fx.payments.Initialize(context.Background(), &InitializePaymentRequest{
			BuyerID: "b", Email: "b@example.com", TicketTypeID: "tt1", Quantity: 1,
		})
		assert.ErrorIs(t, err, status.ErrTicketUnavailable)
	})

	t.Run("unknown ticket type", func(t *testing.T) {
		fx := newFixture(10)

		_, err := fx.payments.Initialize(context.Background(), &InitializePaymentRequest{
			BuyerID: "b", Email: "b@example.com", TicketTypeID: "missing", Quantity: 1,
		})
		assert.ErrorIs(t, err, status.ErrTicketTypeNotFound)
	})
}

func TestVerifySuccessIssuesTickets(t *testing.T) {
	fx := newFixture(10)
	resp := fx.initialize(t, "buyer1", 3)

	outcome, err := fx.payments.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentSuccess, outcome.Status)
	assert.False(t, outcome.AlreadyHandled)
	require.Len(t, outcome.Tickets, 3)

	numbers := map[string]bool{}
	tokens := map[string]bool{}
	for _, inst := range outcome.Tickets {
		numbers[inst.TicketNumber] = true
		tokens[inst.Token] = true
		assert.Equal(t, models.TicketValid, inst.Status)
		assert.Equal(t, "buyer1", inst.BuyerID)
		assert.Equal(t, "Go Conference", inst.Metadata.EventTitle)
		assert.Equal(t, resp.Reference, inst.Metadata.OrderReference)
	}
	assert.Len(t, numbers, 3)
	assert.Len(t, tokens, 3)

	tt, _ := fx.store.FindTicketType(context.Background(), "tt1")
	assert.Equal(t, 7, tt.QuantityAvailable)

	p, _ := fx.store.FindPaymentByReference(context.Background(), resp.Reference)
	assert.Equal(t, models.PaymentSuccess, p.Status)
	assert.NotNil(t, p.PaidAt)
	assert.Len(t, p.TicketInstanceIDs, 3)
}

func TestVerifyIsIdempotent(t *testing.T) {
	fx := newFixture(10)
	resp := fx.initialize(t, "buyer1", 2)

	first, err := fx.payments.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	require.Equal(t, models.PaymentSuccess, first.Status)

	second, err := fx.payments.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.True(t, second.AlreadyHandled)
	assert.Equal(t, models.PaymentSuccess, second.Status)

	// Inventory decremented exactly once, no extra instances.
	tt, _ := fx.store.FindTicketType(context.Background(), "tt1")
	assert.Equal(t, 8, tt.QuantityAvailable)
	assert.Len(t, fx.store.instances, 2)
}

func TestVerifyAmountMismatch(t *testing.T) {
	fx := newFixture(10)
	resp := fx.initialize(t, "buyer1", 10)
	require.Equal(t, int64(500000), resp.Amount)

	fx.gateway.SetCapturedAmount(resp.Reference, 499000)

	outcome, err := fx.payments.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentAmountMismatch, outcome.Status)
	assert.Empty(t, outcome.Tickets)

	// No issuance, no inventory movement.
	tt, _ := fx.store.FindTicketType(context.Background(), "tt1")
	assert.Equal(t, 10, tt.QuantityAvailable)
	assert.Empty(t, fx.store.instances)

	p, _ := fx.store.FindPaymentByReference(context.Background(), resp.Reference)
	assert.Equal(t, models.PaymentAmountMismatch, p.Status)
}

func TestVerifyDeclined(t *testing.T) {
	fx := newFixture(10)
	resp := fx.initialize(t, "buyer1", 1)

	fx.gateway.SetDeclined(resp.Reference)

	outcome, err := fx.payments.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, outcome.Status)
	assert.Empty(t, fx.store.instances)
}

func TestVerifyUnknownReference(t *testing.T) {
	fx := newFixture(10)

	_, err := fx.payments.Verify(context.Background(), "TKT_nope")
	assert.ErrorIs(t, err, status.ErrPaymentNotFound)
}

func TestVerifyMissingTicketTypeFlagsReview(t *testing.T) {
	fx := newFixture(10)
	resp := fx.initialize(t, "buyer1", 1)

	fx.store.mu.Lock()
	delete(fx.store.types, "tt1")
	fx.store.mu.Unlock()

	outcome, err := fx.payments.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentReviewRequired, outcome.Status)

	p, _ := fx.store.FindPaymentByReference(context.Background(), resp.Reference)
	assert.Equal(t, models.PaymentReviewRequired, p.Status)
}

func TestVerifyRetriesTransientErrors(t *testing.T) {
	fx := newFixture(10)
	resp := fx.initialize(t, "buyer1", 2)

	fx.store.failCompleteTimes = 2

	outcome, err := fx.payments.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, outcome.Status)
	assert.Len(t, outcome.Tickets, 2)
}

func TestOversellSafety(t *testing.T) {
	// One ticket left, two captured payments racing: exactly one buyer wins,
	// the other ends in inventory_error, and the counter never goes negative.
	fx := newFixture(1)

	respA := fx.initialize(t, "buyerA", 1)
	respB := fx.initialize(t, "buyerB", 1)

	var wg sync.WaitGroup
	outcomes := make([]*VerifyOutcome, 2)
	for i, ref := range []string{respA.Reference, respB.Reference} {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			out, err := fx.payments.Verify(context.Background(), ref)
			require.NoError(t, err)
			outcomes[i] = out
		}(i, ref)
	}
	wg.Wait()

	var successes, conflicts int
	for _, out := range outcomes {
		switch out.Status {
		case models.PaymentSuccess:
			successes++
		case models.PaymentInventoryError:
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	tt, _ := fx.store.FindTicketType(context.Background(), "tt1")
	assert.Equal(t, 0, tt.QuantityAvailable)
	assert.Equal(t, models.TicketTypeSoldOut, tt.Status)
	assert.Len(t, fx.store.instances, 1)
}

func TestConcurrentVerifySameReference(t *testing.T) {
	fx := newFixture(10)
	resp := fx.initialize(t, "buyer1", 2)

	const callers = 8
	var wg sync.WaitGroup
	outcomes := make([]*VerifyOutcome, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := fx.payments.Verify(context.Background(), resp.Reference)
			require.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	var winners int
	for _, out := range outcomes {
		if !out.AlreadyHandled {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	tt, _ := fx.store.FindTicketType(context.Background(), "tt1")
	assert.Equal(t, 8, tt.QuantityAvailable)
	assert.Len(t, fx.store.instances, 2)
}

func TestStatusFallsBackToStore(t *testing.T) {
	fx := newFixture(10)
	resp := fx.initialize(t, "buyer1", 1)

	p, err := fx.payments.Status(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)

	_, err = fx.payments.Status(context.Background(), "TKT_unknown")
	assert.ErrorIs(t, err, status.ErrPaymentNotFound)
}

func TestBuildReferenceShape(t *testing.T) {
	ref := BuildReference("tt1", "buyer1")

	parts := strings.Split(ref, "_")
	require.Len(t, parts, 5)
	assert.Equal(t, "TKT", parts[0])
	assert.Equal(t, "tt1", parts[1])
	assert.Equal(t, "buyer1", parts[3])
	assert.NotEmpty(t, parts[4])

	assert.NotEqual(t, ref, BuildReference("tt1", "buyer1"))
}
