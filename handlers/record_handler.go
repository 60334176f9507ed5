package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trucoapp/tournament-manager/middleware"
	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/services"
)

// RecordHandler covers the QR ticket lifecycle: issuing tickets, the public
// payment form, and the admin confirmation queue.
type RecordHandler struct {
	ticketService    services.TicketService
	reconcileService services.ReconcileService
	baseURL          string
}

func NewRecordHandler(ticketService services.TicketService, reconcileService services.ReconcileService, baseURL string) *RecordHandler {
	return &RecordHandler{
		ticketService:    ticketService,
		reconcileService: reconcileService,
		baseURL:          baseURL,
	}
}

// IssueTicket mints a payment ticket and its QR code. Admin only.
func (h *RecordHandler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	var ticket services.Ticket
	if err := readJSON(w, r, &ticket); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	issued, err := h.ticketService.Issue(r.Context(), h.baseURL, ticket)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"ticket": issued}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TicketQR renders the QR PNG for an already-issued ticket so the admin can
// reprint it without another upload.
func (h *RecordHandler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticket := *services.TicketFromQuery(chi.URLParam(r, "ticketID"), r.URL.Query())

	paymentURL := h.ticketService.BuildPaymentURL(h.baseURL, ticket)
	png, err := h.ticketService.RenderPNG(paymentURL)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// PaymentForm rebuilds the ticket snapshot the public form renders from.
// The data lives entirely in the URL; nothing is read from the database.
func (h *RecordHandler) PaymentForm(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	if ticketID == "" {
		notFoundResponse(w, r)
		return
	}

	ticket := services.TicketFromQuery(ticketID, r.URL.Query())
	if err := writeJSON(w, http.StatusOK, jsonResponse{"ticket": ticket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitRegistration is the public form POST for cash and transfer payments.
func (h *RecordHandler) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	var input services.RegistrationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.reconcileService.SubmitRegistration(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Queued {
		// The record is durable but not yet visible to the admin queue.
		status = http.StatusAccepted
	}
	if err := writeJSON(w, status, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordStatus lets the payer check what happened to their ticket.
func (h *RecordHandler) RecordStatus(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	if ticketID == "" {
		notFoundResponse(w, r)
		return
	}

	record, err := h.reconcileService.GetRecordByTicketID(r.Context(), ticketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"ticket_id": record.TicketID,
		"status":    record.Status,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.PaymentRecordStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.PaymentRecordStatus(raw)
		status = &s
	}

	records, err := h.reconcileService.ListRecords(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"records": records}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	record, err := h.reconcileService.GetRecord(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"record": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RecordHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.reconcileService.ConfirmRecord)
}

func (h *RecordHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.reconcileService.RejectRecord)
}

func (h *RecordHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, recordID, adminID int) (*models.PaymentRecord, error),
) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid token")
		return
	}

	id, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	record, err := apply(r.Context(), id, adminID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"record": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
