package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPurchaseConfirmationEnqueues(t *testing.T) {
	db, mock := redismock.NewClientMock()
	d := NewRedisDispatcher(db, nil, "notifications:outbox")

	mock.Regexp().
		ExpectLPush("notifications:outbox", `"type":"purchase_confirmation"`).
		SetVal(1)

	err := d.SendPurchaseConfirmation(context.Background(), &PurchaseConfirmation{
		Email:      "buyer1@example.com",
		FirstName:  "Ada",
		Reference:  "TKT_tt1_1724800000000_buyer1_AB12",
		Amount:     50000,
		Currency:   "NGN",
		Quantity:   1,
		EventTitle: "Go Conference",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendTicketArtifactsEnqueues(t *testing.T) {
	db, mock := redismock.NewClientMock()
	d := NewRedisDispatcher(db, nil, "notifications:outbox")

	mock.Regexp().
		ExpectLPush("notifications:outbox", `"type":"ticket_artifacts"`).
		SetVal(1)

	err := d.SendTicketArtifacts(context.Background(), &TicketArtifacts{
		Email:     "buyer1@example.com",
		BuyerID:   "buyer1",
		Reference: "TKT_tt1_1724800000000_buyer1_AB12",
		Tickets: []TicketArtifact{
			{TicketNumber: "TKT-2026-1724800000000-AB12-01", AttendeeName: "Ada Obi"},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueueFailureIsReported(t *testing.T) {
	db, mock := redismock.NewClientMock()
	d := NewRedisDispatcher(db, nil, "notifications:outbox")

	mock.Regexp().
		ExpectLPush("notifications:outbox", `"type":"purchase_confirmation"`).
		SetErr(errors.New("connection refused"))

	err := d.SendPurchaseConfirmation(context.Background(), &PurchaseConfirmation{
		Email:     "buyer1@example.com",
		Reference: "TKT_tt1_1724800000000_buyer1_AB12",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue")
}
