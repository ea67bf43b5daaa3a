package payment

import (
	"testing"

	paymentModel "rally-booking/models/payment"

	"github.com/stretchr/testify/assert"
)

func TestForMethod(t *testing.T) {
	wallet := NewWalletClient("http://wallet", "t")
	intl := NewIntlClient("http://intl", "id", "secret")

	assert.Same(t, wallet, ForMethod(paymentModel.MethodWallet, wallet, intl).(*WalletClient))
	assert.Same(t, intl, ForMethod(paymentModel.MethodInternational, wallet, intl).(*IntlClient))
}
