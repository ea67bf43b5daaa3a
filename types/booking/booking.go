package booking

// CreatePurchaseRequest starts a purchase payment intent.
type CreatePurchaseRequest struct {
	VehicleID uint   `json:"vehicle_id" validate:"required"`
	Currency  string `json:"currency" validate:"required,oneof=ARS USD"`
	Method    string `json:"payment_method" validate:"required,oneof=wallet international"`
}

// CreateRentalRequest starts a rental payment intent.
type CreateRentalRequest struct {
	VehicleID uint   `json:"vehicle_id" validate:"required"`
	RallyID   uint   `json:"rally_id" validate:"required"`
	Currency  string `json:"currency" validate:"required,oneof=ARS USD"`
	Method    string `json:"payment_method" validate:"required,oneof=wallet international"`
}

// IntentResponse is returned for a freshly created pending grant.
type IntentResponse struct {
	Grant      interface{} `json:"grant"`
	PaymentURL string      `json:"payment_url"`
	ExternalID string      `json:"external_transaction_id"`
}

// ApproveRequest is the admin approval body.
type ApproveRequest struct {
	ExternalTransactionID string `json:"external_transaction_id" validate:"required"`
}
