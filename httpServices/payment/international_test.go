package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	paymentModel "rally-booking/models/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntlCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		var req intlOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "120.00", req.Amount.Value)
		assert.Equal(t, "USD", req.Amount.CurrencyCode)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(intlOrderResponse{
			OrderID: "ord-9",
			Status:  "CREATED",
			Links: []intlLink{
				{Rel: "self", Href: "https://intl.example/v2/orders/ord-9"},
				{Rel: "approve", Href: "https://intl.example/approve/ord-9"},
			},
		})
	}))
	defer srv.Close()

	client := NewIntlClient(srv.URL, "client-id", "client-secret")
	intent, err := client.CreateIntent(context.Background(), IntentRequest{
		Amount:    decimal.NewFromInt(120),
		Currency:  paymentModel.CurrencyUSD,
		Reference: "rental-3",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-9", intent.ExternalID)
	assert.Equal(t, "https://intl.example/approve/ord-9", intent.PaymentURL)
}

func TestIntlCreateIntentMissingApproveLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(intlOrderResponse{OrderID: "ord-10", Status: "CREATED"})
	}))
	defer srv.Close()

	client := NewIntlClient(srv.URL, "id", "secret")
	_, err := client.CreateIntent(context.Background(), IntentRequest{
		Amount:   decimal.NewFromInt(1),
		Currency: paymentModel.CurrencyUSD,
	})
	require.Error(t, err)
}

func TestIntlVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/orders/ord-9", r.URL.Path)
		json.NewEncoder(w).Encode(intlOrderResponse{OrderID: "ord-9", Status: "COMPLETED"})
	}))
	defer srv.Close()

	client := NewIntlClient(srv.URL, "id", "secret")
	status, err := client.Verify(context.Background(), "ord-9")
	require.NoError(t, err)
	assert.Equal(t, paymentModel.StatusSucceeded, status)
}

func TestIntlParseWebhook(t *testing.T) {
	client := NewIntlClient("http://unused", "id", "secret")

	tests := []struct {
		name    string
		payload string
		want    paymentModel.Status
		wantErr bool
	}{
		{"completed event", `{"event_type":"ORDER.COMPLETED","resource":{"order_id":"o-1","status":"COMPLETED"}}`, paymentModel.StatusSucceeded, false},
		{"declined event", `{"event_type":"ORDER.DECLINED","resource":{"order_id":"o-2","status":"DECLINED"}}`, paymentModel.StatusFailed, false},
		{"event type wins over resource", `{"event_type":"ORDER.VOIDED","resource":{"order_id":"o-3","status":"CREATED"}}`, paymentModel.StatusFailed, false},
		{"created stays pending", `{"event_type":"ORDER.CREATED","resource":{"order_id":"o-4","status":"CREATED"}}`, paymentModel.StatusPending, false},
		{"missing order id", `{"event_type":"ORDER.COMPLETED","resource":{"status":"COMPLETED"}}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := client.ParseWebhook([]byte(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome.Status)
		})
	}
}
