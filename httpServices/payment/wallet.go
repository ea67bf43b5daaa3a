package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rally-booking/apperrors"
	"rally-booking/models/payment"
)

// WalletClient talks to the regional wallet-style processor over its HTTP
// API. All calls carry a bounded timeout; a timed-out intent creation
// leaves the booking pending, which is safe because approval is keyed by
// the external transaction id, not by request.
type WalletClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

func NewWalletClient(baseURL, accessToken string) *WalletClient {
	return &WalletClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		accessToken: accessToken,
	}
}

type walletIntentRequest struct {
	Amount            string `json:"transaction_amount"`
	Currency          string `json:"currency_id"`
	ExternalReference string `json:"external_reference"`
	Description       string `json:"description"`
}

type walletIntentResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
	Status    string `json:"status"`
}

type walletPaymentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type walletWebhookPayload struct {
	Action string `json:"action"`
	Data   struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

func (c *WalletClient) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	body, err := json.Marshal(walletIntentRequest{
		Amount:            req.Amount.StringFixed(2),
		Currency:          string(req.Currency),
		ExternalReference: req.Reference,
		Description:       req.Description,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/intents", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindExternalProviderUnavailable, "wallet processor unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apperrors.New(apperrors.KindExternalProviderUnavailable,
			"wallet processor returned non-OK status: "+resp.Status)
	}

	var apiResp walletIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	if apiResp.ID == "" || apiResp.InitPoint == "" {
		return nil, errors.New("wallet processor returned an incomplete intent")
	}

	return &Intent{PaymentURL: apiResp.InitPoint, ExternalID: apiResp.ID}, nil
}

func (c *WalletClient) Verify(ctx context.Context, externalID string) (payment.Status, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/payments/%s", c.baseURL, externalID), nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExternalProviderUnavailable, "wallet processor unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.KindExternalProviderUnavailable,
			"wallet processor returned non-OK status: "+resp.Status)
	}

	var apiResp walletPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", err
	}

	return walletStatus(apiResp.Status), nil
}

func (c *WalletClient) ParseWebhook(raw []byte) (*Outcome, error) {
	var payload walletWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("malformed wallet webhook: %w", err)
	}
	if payload.Data.ID == "" {
		return nil, errors.New("wallet webhook missing payment id")
	}

	return &Outcome{
		ExternalID: payload.Data.ID,
		Status:     walletStatus(payload.Data.Status),
	}, nil
}

// walletStatus folds the processor's vocabulary into ours. Anything not
// clearly settled stays pending so a later delivery or poll can decide.
func walletStatus(s string) payment.Status {
	switch s {
	case "approved", "accredited":
		return payment.StatusSucceeded
	case "rejected", "cancelled", "refunded", "charged_back":
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}
