package handlers

import (
	"log/slog"
	"net/http"

	"eventra/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/crypto/bcrypt"
)

type TicketHandler struct {
	ticketService  *services.TicketService
	checkinKeyHash string
}

func NewTicketHandler(ticketService *services.TicketService, checkinKeyHash string) *TicketHandler {
	return &TicketHandler{
		ticketService:  ticketService,
		checkinKeyHash: checkinKeyHash,
	}
}

// CheckInTicket - redeem a scanned credential at the gate
func (h *TicketHandler) CheckInTicket(e *core.RequestEvent) error {
	if !h.authorizeAgent(e.Request.Header.Get("X-Checkin-Key")) {
		return apis.NewUnauthorizedError("Invalid check-in key", nil)
	}

	var req services.CheckInRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" || req.TicketNumber == "" || req.Token == "" {
		return apis.NewBadRequestError("event, ticket_number and token are required", nil)
	}

	ctx := e.Request.Context()
	result, err := h.ticketService.CheckIn(ctx, &req)
	if err != nil {
		slog.Error("h.ticketService.CheckIn()", "ticket_number", req.TicketNumber, "error", err)
		return apis.NewInternalServerError("Check-in failed", nil)
	}

	return e.JSON(checkInStatusCode(result.Status), result)
}

func checkInStatusCode(outcome string) int {
	switch outcome {
	case services.CheckInAdmitted:
		return http.StatusOK
	case services.CheckInDuplicate:
		return http.StatusConflict
	case services.CheckInNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func (h *TicketHandler) authorizeAgent(key string) bool {
	if h.checkinKeyHash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.checkinKeyHash), []byte(key)) == nil
}

// MyTickets - list the authenticated buyer's ticket instances
func (h *TicketHandler) MyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ctx := e.Request.Context()
	tickets, err := h.ticketService.ListBuyerTickets(ctx, e.Auth.Id)
	if err != nil {
		slog.Error("h.ticketService.ListBuyerTickets()", "buyer", e.Auth.Id, "error", err)
		return apis.NewInternalServerError("Failed to list tickets", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"count":   len(tickets),
		"tickets": tickets,
	})
}
