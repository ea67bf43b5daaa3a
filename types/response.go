package types

// ApiResponse is the uniform JSON envelope. Error carries a
// machine-readable kind ("duplicate_active_grant", ...) on failures;
// clients get a concise reason, everything else stays server-side.
type ApiResponse struct {
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
