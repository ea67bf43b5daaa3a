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

// IntlClient talks to the international card processor. Its API is
// order-based: an order is created, the user approves it on the provider's
// page, and a webhook (or a poll) reports the final order status.
type IntlClient struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
}

func NewIntlClient(baseURL, clientID, clientSecret string) *IntlClient {
	return &IntlClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

type intlOrderRequest struct {
	Amount      intlAmount `json:"amount"`
	ReferenceID string     `json:"reference_id"`
	Description string     `json:"description"`
}

type intlAmount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type intlOrderResponse struct {
	OrderID string     `json:"order_id"`
	Status  string     `json:"status"`
	Links   []intlLink `json:"links"`
}

type intlLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type intlWebhookPayload struct {
	EventType string `json:"event_type"`
	Resource  struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	} `json:"resource"`
}

func (c *IntlClient) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	body, err := json.Marshal(intlOrderRequest{
		Amount: intlAmount{
			Value:        req.Amount.StringFixed(2),
			CurrencyCode: string(req.Currency),
		},
		ReferenceID: req.Reference,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/orders", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindExternalProviderUnavailable, "international processor unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apperrors.New(apperrors.KindExternalProviderUnavailable,
			"international processor returned non-OK status: "+resp.Status)
	}

	var apiResp intlOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	if apiResp.OrderID == "" {
		return nil, errors.New("international processor returned no order id")
	}

	approveURL := ""
	for _, link := range apiResp.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	if approveURL == "" {
		return nil, errors.New("international processor returned no approve link")
	}

	return &Intent{PaymentURL: approveURL, ExternalID: apiResp.OrderID}, nil
}

func (c *IntlClient) Verify(ctx context.Context, externalID string) (payment.Status, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v2/orders/%s", c.baseURL, externalID), nil)
	if err != nil {
		return "", err
	}
	httpReq.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExternalProviderUnavailable, "international processor unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.KindExternalProviderUnavailable,
			"international processor returned non-OK status: "+resp.Status)
	}

	var apiResp intlOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", err
	}

	return intlStatus(apiResp.Status), nil
}

func (c *IntlClient) ParseWebhook(raw []byte) (*Outcome, error) {
	var payload intlWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("malformed international webhook: %w", err)
	}
	if payload.Resource.OrderID == "" {
		return nil, errors.New("international webhook missing order id")
	}

	status := intlStatus(payload.Resource.Status)
	// Some event families carry the outcome in the type, not the resource.
	switch payload.EventType {
	case "ORDER.COMPLETED":
		status = payment.StatusSucceeded
	case "ORDER.DECLINED", "ORDER.VOIDED":
		status = payment.StatusFailed
	}

	return &Outcome{ExternalID: payload.Resource.OrderID, Status: status}, nil
}

func intlStatus(s string) payment.Status {
	switch s {
	case "COMPLETED":
		return payment.StatusSucceeded
	case "DECLINED", "VOIDED":
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}
