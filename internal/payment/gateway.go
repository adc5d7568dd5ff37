package payment

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
)

const (
	minCardDigits = 12
	txnAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	txnLength     = 8
)

// Charge is a card payment request.
type Charge struct {
	Amount     decimal.Decimal `json:"amount"`
	CardNumber string          `json:"cardNumber" validate:"required"`
	Name       string          `json:"name" validate:"required"`
	Expiry     string          `json:"exp" validate:"required"`
	CVV        string          `json:"cvv" validate:"required"`
}

// Receipt is returned for an approved charge.
type Receipt struct {
	TransactionID string          `json:"txnId"`
	Amount        decimal.Decimal `json:"amount"`
}

// Gateway is a mock card processor. It approves any card number passing the
// Luhn check after a simulated network delay.
type Gateway struct {
	latency time.Duration
}

func NewGateway(latency time.Duration) *Gateway {
	return &Gateway{latency: latency}
}

// Charge waits for the simulated latency and approves or declines the card.
func (g *Gateway) Charge(ctx context.Context, charge Charge) (Receipt, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "payment gateway timed out")
		case <-timer.C:
		}
	}
	if charge.Amount.IsNegative() {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	if !ValidCardNumber(charge.CardNumber) {
		return Receipt{}, pkgerrors.New(pkgerrors.CodePaymentDeclined, "invalid card number")
	}
	id, err := transactionID()
	if err != nil {
		return Receipt{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate transaction id")
	}
	return Receipt{TransactionID: id, Amount: charge.Amount}, nil
}

// ValidCardNumber strips everything but ASCII digits and applies the Luhn
// checksum. At least twelve digits are required.
func ValidCardNumber(number string) bool {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if len(digits) < minCardDigits {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func transactionID() (string, error) {
	buf := make([]byte, txnLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = txnAlphabet[int(b)%len(txnAlphabet)]
	}
	return "TXN-" + string(buf), nil
}
