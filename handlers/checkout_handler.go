package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trucoapp/tournament-manager/checkout"
	"github.com/trucoapp/tournament-manager/services"
)

// CheckoutHandler fronts the Mercado Pago integration: preference creation,
// the webhook receiver, and the return pages the gateway redirects back to.
type CheckoutHandler struct {
	reconcileService services.ReconcileService
}

func NewCheckoutHandler(reconcileService services.ReconcileService) *CheckoutHandler {
	return &CheckoutHandler{reconcileService: reconcileService}
}

// CreatePreference starts a hosted checkout. Responds with the redirect URL
// and the preference id.
func (h *CheckoutHandler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	var req checkout.PreferenceRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.TournamentName == "" || req.PlayerName == "" || req.Amount <= 0 {
		badRequestResponse(w, r, errors.New("tournamentName, playerName and a positive amount are required"))
		return
	}

	pref, err := h.reconcileService.CreateCheckout(r.Context(), req)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, pref, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Webhook receives payment notifications. Mercado Pago sends the reference
// either as query parameters (?topic=payment&id=...) or as a JSON body
// ({"type":"payment","data":{"id":"..."}}); both shapes are accepted.
// Redeliveries are no-ops, so a 200 here is always safe.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = r.URL.Query().Get("type")
	}
	paymentID := r.URL.Query().Get("id")

	if topic == "" || paymentID == "" {
		var body struct {
			Type string `json:"type"`
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			if topic == "" {
				topic = body.Type
			}
			if paymentID == "" {
				paymentID = body.Data.ID
			}
		}
	}

	if err := h.reconcileService.ProcessGatewayNotification(r.Context(), topic, paymentID); err != nil {
		// A non-2xx makes the gateway retry later.
		serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Return pages. The gateway redirects the payer here after checkout; the
// webhook is the source of truth, so these endpoints change nothing.
func (h *CheckoutHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	h.returnPage(w, r, "approved")
}

func (h *CheckoutHandler) PaymentFailure(w http.ResponseWriter, r *http.Request) {
	h.returnPage(w, r, "rejected")
}

func (h *CheckoutHandler) PaymentPending(w http.ResponseWriter, r *http.Request) {
	h.returnPage(w, r, "pending")
}

func (h *CheckoutHandler) returnPage(w http.ResponseWriter, r *http.Request, outcome string) {
	response := jsonResponse{
		"outcome":   outcome,
		"ticket_id": r.URL.Query().Get("ticketId"),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
