package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"eventra/internal/services"
	"eventra/internal/services/gateway"
	"eventra/internal/status"
	"eventra/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	gateway        gateway.Client
}

func NewPaymentHandler(paymentService *services.PaymentService, gw gateway.Client) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		gateway:        gw,
	}
}

// InitializePayment - open a gateway checkout for a ticket type
func (h *PaymentHandler) InitializePayment(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Quantity  int    `json:"quantity"`
		Email     string `json:"email"`
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	email := req.Email
	if email == "" {
		email = e.Auth.GetString("email")
	}
	if email == "" {
		return apis.NewBadRequestError("Email is required", nil)
	}
	firstName := req.FirstName
	if firstName == "" {
		firstName = e.Auth.GetString("name")
	}

	ctx := e.Request.Context()
	resp, err := h.paymentService.Initialize(ctx, &services.InitializePaymentRequest{
		BuyerID:      e.Auth.Id,
		Email:        email,
		FirstName:    firstName,
		LastName:     req.LastName,
		TicketTypeID: e.Request.PathValue("ticketTypeId"),
		Quantity:     req.Quantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, status.ErrTicketTypeNotFound), errors.Is(err, status.ErrEventNotFound):
			return apis.NewNotFoundError("Ticket type not found", nil)
		case errors.Is(err, status.ErrEventNotLive):
			return apis.NewBadRequestError("Event is not open for ticket sales", nil)
		case errors.Is(err, status.ErrFreeTicketType):
			return apis.NewBadRequestError("Free tickets do not require payment", nil)
		case errors.Is(err, status.ErrMaxPerOrder):
			return apis.NewBadRequestError("Requested quantity exceeds the per-order limit", nil)
		case errors.Is(err, status.ErrTicketUnavailable), errors.Is(err, status.ErrInsufficientInventory):
			return e.JSON(http.StatusConflict, map[string]any{
				"status":  "error",
				"message": "Tickets are not available in the requested quantity",
			})
		default:
			slog.Error("h.paymentService.Initialize()", "error", err)
			return apis.NewInternalServerError("Failed to initialize payment", nil)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"data":   resp,
	})
}

// VerifyPayment - drive a reference to its terminal status
func (h *PaymentHandler) VerifyPayment(e *core.RequestEvent) error {
	reference := e.Request.URL.Query().Get("reference")
	if reference == "" {
		return apis.NewBadRequestError("Reference is required", nil)
	}

	ctx := e.Request.Context()
	outcome, err := h.paymentService.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, status.ErrPaymentNotFound) {
			return apis.NewNotFoundError("Payment not found", nil)
		}
		slog.Error("h.paymentService.Verify()", "reference", reference, "error", err)
		return apis.NewInternalServerError("Verification failed", nil)
	}

	return e.JSON(verifyStatusCode(outcome), map[string]any{
		"status":  string(outcome.Status),
		"message": outcome.Message,
		"data":    outcome,
	})
}

func verifyStatusCode(outcome *services.VerifyOutcome) int {
	if outcome.AlreadyHandled {
		return http.StatusOK
	}
	switch outcome.Status {
	case models.PaymentInventoryError:
		return http.StatusConflict
	case models.PaymentFailed, models.PaymentAmountMismatch:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}

// PaymentStatus - poll the current ledger status for a reference
func (h *PaymentHandler) PaymentStatus(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	reference := e.Request.PathValue("reference")
	ctx := e.Request.Context()

	payment, err := h.paymentService.Status(ctx, reference)
	if err != nil {
		if errors.Is(err, status.ErrPaymentNotFound) {
			return apis.NewNotFoundError("Payment not found", nil)
		}
		slog.Error("h.paymentService.Status()", "reference", reference, "error", err)
		return apis.NewInternalServerError("Failed to read payment status", nil)
	}

	if payment.BuyerID != "" && payment.BuyerID != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"reference": reference,
		"status":    string(payment.Status),
		"amount":    payment.Amount,
	})
}

// HandleGatewayWebhook - gateway callback entry point
func (h *PaymentHandler) HandleGatewayWebhook(e *core.RequestEvent) error {
	r := e.Request

	var b bytes.Buffer
	if _, err := b.ReadFrom(r.Body); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(b.Bytes()))
	rawBody := b.Bytes()

	signature := r.Header.Get("x-paystack-signature")
	if !h.gateway.VerifyWebhookSignature(rawBody, signature) {
		slog.Error("webhook signature verification failed", "remote", r.RemoteAddr)
		return apis.NewUnauthorizedError("Invalid signature", nil)
	}

	var event gateway.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return apis.NewBadRequestError("Invalid webhook payload", err)
	}

	if event.Event == gateway.EventChargeSuccess && event.Data.Reference != "" {
		ctx := r.Context()
		if _, err := h.paymentService.Verify(ctx, event.Data.Reference); err != nil {
			// Acknowledge anyway so the gateway does not retry forever; the
			// claim makes a later manual verify safe.
			slog.Error("webhook verification failed", "reference", event.Data.Reference, "error", err)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Webhook processed"})
}
