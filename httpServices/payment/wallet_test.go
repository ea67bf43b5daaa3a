package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rally-booking/apperrors"
	paymentModel "rally-booking/models/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/intents", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req walletIntentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "15000.00", req.Amount)
		assert.Equal(t, "ARS", req.Currency)
		assert.Equal(t, "purchase-7", req.ExternalReference)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(walletIntentResponse{
			ID:        "wallet-123",
			InitPoint: "https://wallet.example/pay/wallet-123",
			Status:    "pending",
		})
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, "test-token")
	intent, err := client.CreateIntent(context.Background(), IntentRequest{
		Amount:    decimal.NewFromInt(15000),
		Currency:  paymentModel.CurrencyARS,
		Reference: "purchase-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "wallet-123", intent.ExternalID)
	assert.Equal(t, "https://wallet.example/pay/wallet-123", intent.PaymentURL)
}

func TestWalletCreateIntentProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, "test-token")
	_, err := client.CreateIntent(context.Background(), IntentRequest{
		Amount:   decimal.NewFromInt(1),
		Currency: paymentModel.CurrencyARS,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindExternalProviderUnavailable))
}

func TestWalletVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/wallet-123", r.URL.Path)
		json.NewEncoder(w).Encode(walletPaymentResponse{ID: "wallet-123", Status: "approved"})
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, "test-token")
	status, err := client.Verify(context.Background(), "wallet-123")
	require.NoError(t, err)
	assert.Equal(t, paymentModel.StatusSucceeded, status)
}

func TestWalletParseWebhook(t *testing.T) {
	client := NewWalletClient("http://unused", "t")

	tests := []struct {
		name    string
		payload string
		want    paymentModel.Status
		wantErr bool
	}{
		{"approved", `{"action":"payment.updated","data":{"id":"w-1","status":"approved"}}`, paymentModel.StatusSucceeded, false},
		{"accredited", `{"action":"payment.updated","data":{"id":"w-2","status":"accredited"}}`, paymentModel.StatusSucceeded, false},
		{"rejected", `{"action":"payment.updated","data":{"id":"w-3","status":"rejected"}}`, paymentModel.StatusFailed, false},
		{"charged back", `{"action":"payment.updated","data":{"id":"w-4","status":"charged_back"}}`, paymentModel.StatusFailed, false},
		{"in process stays pending", `{"action":"payment.created","data":{"id":"w-5","status":"in_process"}}`, paymentModel.StatusPending, false},
		{"missing id", `{"action":"payment.updated","data":{"status":"approved"}}`, "", true},
		{"not json", `<xml/>`, "", true},
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
