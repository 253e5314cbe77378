package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubnub "github.com/pubnub/go/v7"
	"github.com/redis/go-redis/v9"
)

// PurchaseConfirmation is the payload for the buyer's confirmation email.
type PurchaseConfirmation struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstname"`
	Reference      string `json:"reference"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Quantity       int    `json:"quantity"`
	EventTitle     string `json:"event_title"`
	TicketTypeName string `json:"ticket_type_name"`
}

// TicketArtifact is one deliverable ticket (number plus rendered credential).
type TicketArtifact struct {
	TicketNumber string `json:"ticket_number"`
	QRCode       string `json:"qr_code"`
	AttendeeName string `json:"attendee_name"`
	EventTitle   string `json:"event_title"`
}

// TicketArtifacts is the payload for the buyer's ticket delivery email.
type TicketArtifacts struct {
	Email     string           `json:"email"`
	BuyerID   string           `json:"buyer_id"`
	Reference string           `json:"reference"`
	Tickets   []TicketArtifact `json:"tickets"`
}

// Dispatcher hands completed purchase data to the delivery side. Both calls
// are fire-and-forget from the orchestrator's perspective; failures are
// observability events only and never touch the ledger.
type Dispatcher interface {
	SendPurchaseConfirmation(ctx context.Context, c *PurchaseConfirmation) error
	SendTicketArtifacts(ctx context.Context, a *TicketArtifacts) error
}

type job struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt int64           `json:"created_at"`
}

// RedisDispatcher queues delivery jobs on a redis list consumed by the email
// worker, and publishes a realtime payment event to the buyer's channel.
type RedisDispatcher struct {
	redis    *redis.Client
	pubnub   *pubnub.PubNub
	queueKey string
}

func NewRedisDispatcher(redisClient *redis.Client, pn *pubnub.PubNub, queueKey string) *RedisDispatcher {
	return &RedisDispatcher{
		redis:    redisClient,
		pubnub:   pn,
		queueKey: queueKey,
	}
}

func (d *RedisDispatcher) SendPurchaseConfirmation(ctx context.Context, c *PurchaseConfirmation) error {
	if err := d.enqueue(ctx, "purchase_confirmation", c); err != nil {
		return err
	}

	d.publish(c.Reference, map[string]any{
		"type":      "payment_success",
		"reference": c.Reference,
		"amount":    c.Amount,
		"currency":  c.Currency,
	})
	return nil
}

func (d *RedisDispatcher) SendTicketArtifacts(ctx context.Context, a *TicketArtifacts) error {
	if err := d.enqueue(ctx, "ticket_artifacts", a); err != nil {
		return err
	}

	d.publishTo(fmt.Sprintf("user-%s", a.BuyerID), map[string]any{
		"type":      "tickets_issued",
		"reference": a.Reference,
		"count":     len(a.Tickets),
	})
	return nil
}

func (d *RedisDispatcher) enqueue(ctx context.Context, jobType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notifier: marshal %s: %w", jobType, err)
	}

	data, err := json.Marshal(job{
		Type:      jobType,
		Payload:   body,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("notifier: marshal job: %w", err)
	}

	if err := d.redis.LPush(ctx, d.queueKey, string(data)).Err(); err != nil {
		return fmt.Errorf("notifier: enqueue %s: %w", jobType, err)
	}
	return nil
}

func (d *RedisDispatcher) publish(reference string, message map[string]any) {
	d.publishTo(fmt.Sprintf("payment-%s", reference), message)
}

func (d *RedisDispatcher) publishTo(channel string, message map[string]any) {
	if d.pubnub == nil {
		return
	}

	d.pubnub.Publish().
		Channel(channel).
		Message(message).
		Execute()
}
