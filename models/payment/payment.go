package payment

// Currency of a grant's amount.
type Currency string

const (
	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"
)

func (c Currency) IsValid() bool {
	return c == CurrencyARS || c == CurrencyUSD
}

// Method names the external processor a grant was paid through.
type Method string

const (
	MethodWallet        Method = "wallet"
	MethodInternational Method = "international"
)

func (m Method) IsValid() bool {
	return m == MethodWallet || m == MethodInternational
}

// Status is a provider-reported payment outcome.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusPending   Status = "pending"
)
