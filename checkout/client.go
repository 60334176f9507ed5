// Package checkout talks to the Mercado Pago REST API: preference creation
// for the hosted checkout redirect, and payment lookup for the webhook
// receiver. Everything else about the gateway (the checkout UI itself, card
// processing) stays on the processor's side.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultAPIBase = "https://api.mercadopago.com"

// statementDescriptor shows up on the payer's card statement.
const statementDescriptor = "TORNEO TRUCO"

// PreferenceRequest carries the fields of POST /api/create-preference.
type PreferenceRequest struct {
	TournamentName string  `json:"tournamentName"`
	Amount         float64 `json:"amount"`
	PlayerName     string  `json:"playerName"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	TicketID       string  `json:"ticketId"`
	TournamentID   string  `json:"tournamentId"`
	PlayerID       string  `json:"playerId"`
	BaseURL        string  `json:"baseUrl"`
}

// Preference is the subset of the processor's response the app needs:
// the redirect URL and the preference identifier.
type Preference struct {
	InitPoint    string `json:"init_point"`
	PreferenceID string `json:"preference_id"`
}

// PaymentInfo is what the webhook receiver needs to reconcile a gateway
// payment back onto a ticket.
type PaymentInfo struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"` // approved, rejected, pending, ...
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	PayerEmail        string  `json:"payer_email"`
}

type Client interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
}

type mercadoPagoClient struct {
	accessToken string
	apiBase     string
	httpClient  *http.Client
}

func NewMercadoPagoClient(accessToken string) Client {
	return &mercadoPagoClient{
		accessToken: accessToken,
		apiBase:     defaultAPIBase,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewMercadoPagoClientWithBase exists for tests against an httptest server.
func NewMercadoPagoClientWithBase(accessToken, apiBase string) Client {
	return &mercadoPagoClient{
		accessToken: accessToken,
		apiBase:     apiBase,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferencePhone struct {
	AreaCode string `json:"area_code"`
	Number   string `json:"number"`
}

type preferencePayer struct {
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Phone preferencePhone `json:"phone"`
}

type preferenceBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceBody struct {
	Items               []preferenceItem   `json:"items"`
	Payer               preferencePayer    `json:"payer"`
	BackURLs            preferenceBackURLs `json:"back_urls"`
	AutoReturn          string             `json:"auto_return"`
	ExternalReference   string             `json:"external_reference"`
	StatementDescriptor string             `json:"statement_descriptor"`
	NotificationURL     string             `json:"notification_url"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

func (c *mercadoPagoClient) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	externalRef := req.TicketID
	if externalRef == "" {
		externalRef = fmt.Sprintf("ticket-%d", time.Now().UnixMilli())
	}

	areaCode, number := splitPhone(req.Phone)

	base := req.BaseURL
	q := url.Values{}
	q.Set("ticketId", req.TicketID)

	failure := base + "/pago/fallido?" + q.Encode()
	pending := base + "/pago/pendiente?" + q.Encode()
	q.Set("tournamentId", req.TournamentID)
	q.Set("playerId", req.PlayerID)
	success := base + "/pago/exitoso?" + q.Encode()

	body := preferenceBody{
		Items: []preferenceItem{{
			Title:      req.TournamentName,
			Quantity:   1,
			UnitPrice:  req.Amount,
			CurrencyID: "ARS",
		}},
		Payer: preferencePayer{
			Name:  req.PlayerName,
			Email: req.Email,
			Phone: preferencePhone{AreaCode: areaCode, Number: number},
		},
		BackURLs: preferenceBackURLs{
			Success: success,
			Failure: failure,
			Pending: pending,
		},
		AutoReturn:          "approved",
		ExternalReference:   externalRef,
		StatementDescriptor: statementDescriptor,
		NotificationURL:     base + "/api/webhook/mercadopago",
	}

	var resp preferenceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/checkout/preferences", body, &resp); err != nil {
		return nil, err
	}
	return &Preference{InitPoint: resp.InitPoint, PreferenceID: resp.ID}, nil
}

func (c *mercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	var raw struct {
		ID                int64   `json:"id"`
		Status            string  `json:"status"`
		ExternalReference string  `json:"external_reference"`
		TransactionAmount float64 `json:"transaction_amount"`
		Payer             struct {
			Email string `json:"email"`
		} `json:"payer"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &raw); err != nil {
		return nil, err
	}
	return &PaymentInfo{
		ID:                raw.ID,
		Status:            raw.Status,
		ExternalReference: raw.ExternalReference,
		TransactionAmount: raw.TransactionAmount,
		PayerEmail:        raw.Payer.Email,
	}, nil
}

func (c *mercadoPagoClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mercado pago request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mercado pago returned status %d: %s", resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode mercado pago response: %w", err)
		}
	}
	return nil
}

// splitPhone extracts the area code the way the original endpoint did:
// first two digits, defaulting to Buenos Aires ("11").
func splitPhone(phone string) (areaCode, number string) {
	if len(phone) >= 2 {
		return phone[:2], phone[2:]
	}
	return "11", ""
}
