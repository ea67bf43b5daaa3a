package webhook

import (
	"fmt"

	"rally-booking/apperrors"
	gateway "rally-booking/httpServices/payment"
	"rally-booking/logger"
	paymentModel "rally-booking/models/payment"
	"rally-booking/models/webhooklog"
	"rally-booking/services/reconcile"
	"rally-booking/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WebhookController receives payment provider callbacks. Handled outcomes
// are always acknowledged with 200, including unknown transaction ids,
// because a non-2xx makes providers redeliver forever. Only a payload the
// gateway cannot parse gets a 400.
type WebhookController struct {
	DB         *gorm.DB
	Wallet     gateway.Gateway
	Intl       gateway.Gateway
	Reconciler *reconcile.Service
}

// NewWebhookController creates a new webhook controller
func NewWebhookController(db *gorm.DB, wallet, intl gateway.Gateway, rec *reconcile.Service) *WebhookController {
	return &WebhookController{
		DB:         db,
		Wallet:     wallet,
		Intl:       intl,
		Reconciler: rec,
	}
}

// WalletWebhook handles callbacks from the wallet processor.
func (wc *WebhookController) WalletWebhook(c *fiber.Ctx) error {
	return wc.handle(c, "wallet", wc.Wallet)
}

// InternationalWebhook handles callbacks from the card processor.
func (wc *WebhookController) InternationalWebhook(c *fiber.Ctx) error {
	return wc.handle(c, "international", wc.Intl)
}

// Confirm polls the owning provider for a transaction's current status
// and applies it. The manual fallback when a webhook never arrived.
func (wc *WebhookController) Confirm(c *fiber.Ctx) error {
	externalID := c.Params("externalId")
	if externalID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Transaction id is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	method, err := wc.grantMethod(c, externalID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "No grant holds this transaction",
			Status:  fiber.StatusNotFound,
			Error:   string(apperrors.KindUnknownExternalTransaction),
		})
	}

	gw := gateway.ForMethod(method, wc.Wallet, wc.Intl)
	result, err := wc.Reconciler.Confirm(c.Context(), gw, externalID)
	if err != nil {
		logger.Error("Manual confirmation failed for "+externalID, err)
		return apperrors.Respond(c, err, "Failed to confirm transaction")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Transaction reconciled",
		Status:  fiber.StatusOK,
		Data:    result,
	})
}

func (wc *WebhookController) grantMethod(c *fiber.Ctx, externalID string) (paymentModel.Method, error) {
	if p, err := wc.Reconciler.Ledger.FindPurchaseByExternalID(c.Context(), externalID); err == nil {
		return p.Method, nil
	}
	r, err := wc.Reconciler.Ledger.FindRentalByExternalID(c.Context(), externalID)
	if err != nil {
		return "", err
	}
	return r.Method, nil
}

func (wc *WebhookController) handle(c *fiber.Ctx, provider string, gw gateway.Gateway) error {
	raw := c.Body()

	outcome, err := gw.ParseWebhook(raw)
	if err != nil {
		logger.Warning("Rejected malformed " + provider + " webhook: " + err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Malformed webhook payload",
			Status:  fiber.StatusBadRequest,
		})
	}

	result, err := wc.Reconciler.Apply(c.Context(), *outcome)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindUnknownExternalTransaction) {
			// Acknowledged so the provider stops retrying; kept in the
			// audit table for the operator.
			logger.Warning("Webhook for unknown transaction " + outcome.ExternalID + " from " + provider)
			wc.audit(provider, outcome, "unknown_transaction", raw)
			return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
				Message: "Acknowledged",
				Status:  fiber.StatusOK,
			})
		}
		logger.Error("Webhook reconciliation failed for "+outcome.ExternalID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Reconciliation failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	outcomeLabel := fmt.Sprintf("%s_%s", result.Kind, result.State)
	if result.RefundRequired {
		outcomeLabel += "_refund_required"
	}
	wc.audit(provider, outcome, outcomeLabel, raw)

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Acknowledged",
		Status:  fiber.StatusOK,
		Data:    result,
	})
}

// audit is best-effort; a failed insert never turns into a provider retry.
func (wc *WebhookController) audit(provider string, outcome *gateway.Outcome, label string, raw []byte) {
	entry := webhooklog.Delivery{
		Provider:              provider,
		ExternalTransactionID: outcome.ExternalID,
		Status:                string(outcome.Status),
		Outcome:               label,
		Payload:               string(raw),
	}
	if err := wc.DB.Create(&entry).Error; err != nil {
		logger.Error("Failed to record webhook delivery", err)
	}
}
