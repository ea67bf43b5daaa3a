package webhook

import (
	"net/http/httptest"
	"strings"
	"testing"

	gateway "rally-booking/httpServices/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMalformedWebhookGetsBadRequest(t *testing.T) {
	wallet := gateway.NewWalletClient("http://unused", "t")
	intl := gateway.NewIntlClient("http://unused", "id", "secret")
	wc := NewWebhookController(nil, wallet, intl, nil)

	app := fiber.New()
	app.Post("/api/webhooks/wallet", wc.WalletWebhook)
	app.Post("/api/webhooks/international", wc.InternationalWebhook)

	for _, path := range []string{"/api/webhooks/wallet", "/api/webhooks/international"} {
		req := httptest.NewRequest("POST", path, strings.NewReader("not json"))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestWebhookMissingIDGetsBadRequest(t *testing.T) {
	wallet := gateway.NewWalletClient("http://unused", "t")
	wc := NewWebhookController(nil, wallet, nil, nil)

	app := fiber.New()
	app.Post("/api/webhooks/wallet", wc.WalletWebhook)

	req := httptest.NewRequest("POST", "/api/webhooks/wallet",
		strings.NewReader(`{"action":"payment.updated","data":{"status":"approved"}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
