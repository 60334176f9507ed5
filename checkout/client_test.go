package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePreference(t *testing.T) {
	var captured preferenceBody
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]string{
			"id":         "pref-123",
			"init_point": "https://www.mercadopago.com.ar/checkout/v1/redirect?pref_id=pref-123",
		})
	}))
	defer server.Close()

	client := NewMercadoPagoClientWithBase("test-token", server.URL)

	pref, err := client.CreatePreference(context.Background(), PreferenceRequest{
		TournamentName: "Torneo de Verano",
		Amount:         1500.5,
		PlayerName:     "Juan Pérez",
		Email:          "juan@example.com",
		Phone:          "1122334455",
		TicketID:       "TRU-1700000000000-ABC123XYZ",
		TournamentID:   "7",
		PlayerID:       "3",
		BaseURL:        "https://torneos.example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "pref-123", pref.PreferenceID)
	assert.Contains(t, pref.InitPoint, "pref_id=pref-123")
	assert.Equal(t, "Bearer test-token", authHeader)

	require.Len(t, captured.Items, 1)
	assert.Equal(t, "Torneo de Verano", captured.Items[0].Title)
	assert.Equal(t, 1, captured.Items[0].Quantity)
	assert.Equal(t, 1500.5, captured.Items[0].UnitPrice)
	assert.Equal(t, "ARS", captured.Items[0].CurrencyID)

	assert.Equal(t, "11", captured.Payer.Phone.AreaCode)
	assert.Equal(t, "22334455", captured.Payer.Phone.Number)

	assert.Equal(t, "approved", captured.AutoReturn)
	assert.Equal(t, "TRU-1700000000000-ABC123XYZ", captured.ExternalReference)
	assert.Equal(t, "TORNEO TRUCO", captured.StatementDescriptor)
	assert.Equal(t, "https://torneos.example.com/api/webhook/mercadopago", captured.NotificationURL)

	assert.Contains(t, captured.BackURLs.Success, "/pago/exitoso?")
	assert.Contains(t, captured.BackURLs.Success, "ticketId=TRU-1700000000000-ABC123XYZ")
	assert.Contains(t, captured.BackURLs.Success, "tournamentId=7")
	assert.Contains(t, captured.BackURLs.Success, "playerId=3")
	assert.Contains(t, captured.BackURLs.Failure, "/pago/fallido?")
	assert.Contains(t, captured.BackURLs.Pending, "/pago/pendiente?")
}

func TestCreatePreferenceMissingTicketGetsFallbackReference(t *testing.T) {
	var captured preferenceBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]string{"id": "pref-1", "init_point": "https://mp/init"})
	}))
	defer server.Close()

	client := NewMercadoPagoClientWithBase("test-token", server.URL)
	_, err := client.CreatePreference(context.Background(), PreferenceRequest{
		TournamentName: "Torneo",
		Amount:         100,
		PlayerName:     "Juan",
		Email:          "juan@example.com",
		BaseURL:        "https://torneos.example.com",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^ticket-\d+$`, captured.ExternalReference)
}

func TestCreatePreferenceGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid access token"}`))
	}))
	defer server.Close()

	client := NewMercadoPagoClientWithBase("bad-token", server.URL)
	_, err := client.CreatePreference(context.Background(), PreferenceRequest{
		TournamentName: "Torneo",
		Amount:         100,
		BaseURL:        "https://torneos.example.com",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestGetPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 123,
			"status":             "approved",
			"external_reference": "TRU-1700000000000-ABC123XYZ",
			"transaction_amount": 1500.5,
			"payer":              map[string]string{"email": "juan@example.com"},
		})
	}))
	defer server.Close()

	client := NewMercadoPagoClientWithBase("test-token", server.URL)
	info, err := client.GetPayment(context.Background(), "123")
	require.NoError(t, err)

	assert.Equal(t, int64(123), info.ID)
	assert.Equal(t, "approved", info.Status)
	assert.Equal(t, "TRU-1700000000000-ABC123XYZ", info.ExternalReference)
	assert.Equal(t, 1500.5, info.TransactionAmount)
	assert.Equal(t, "juan@example.com", info.PayerEmail)
}
