package authtypes

// RequestVerificationRequest asks for a fresh verification token.
type RequestVerificationRequest struct {
	Type string `json:"type" validate:"required,oneof=email_verification password_reset"`
}

// ConfirmVerificationRequest consumes a token. Type defaults to
// email_verification when omitted.
type ConfirmVerificationRequest struct {
	Token string `json:"token" validate:"required"`
	Type  string `json:"type" validate:"omitempty,oneof=email_verification password_reset"`
}
