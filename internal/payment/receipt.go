package payment

import (
	"strings"

	"storefront-be/internal/apperr"

	"github.com/shopspring/decimal"
)

// StatusCompleted is the PayPal order status for a captured payment.
const StatusCompleted = "COMPLETED"

var (
	ErrReceiptMissingID = apperr.Validation("payment id is required")
	ErrPaymentNotFound  = apperr.New(apperr.KindValidation, "Payment not found at provider")
	ErrMixedCurrency    = apperr.Validation("payment mixes currencies")
)

type Payer struct {
	EmailAddress string `json:"email_address"`
}

type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type PurchaseUnit struct {
	Amount Amount `json:"amount"`
}

// Receipt is the order details object the PayPal checkout widget hands back
// to the storefront after approval.
type Receipt struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	UpdateTime    string         `json:"update_time"`
	Payer         Payer          `json:"payer"`
	EmailAddress  string         `json:"email_address,omitempty"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
}

func (r Receipt) Email() string {
	if r.Payer.EmailAddress != "" {
		return r.Payer.EmailAddress
	}
	return r.EmailAddress
}

// Capture is a payment as confirmed by whichever verifier is configured.
type Capture struct {
	ID           string
	Status       string
	UpdateTime   string
	EmailAddress string
	Amount       decimal.Decimal
	Currency     string
	HasAmount    bool
}

func (c *Capture) Completed() bool {
	return strings.EqualFold(c.Status, StatusCompleted)
}

// sumUnits adds the amounts of every purchase unit. ok is false when no unit
// carries a parsable amount. Units in different currencies are rejected.
func sumUnits(units []PurchaseUnit) (total decimal.Decimal, currency string, ok bool, err error) {
	for _, u := range units {
		if u.Amount.Value == "" {
			continue
		}
		v, perr := decimal.NewFromString(u.Amount.Value)
		if perr != nil {
			return decimal.Zero, "", false, apperr.Wrap(apperr.KindValidation, "invalid payment amount", perr)
		}
		code := strings.ToUpper(strings.TrimSpace(u.Amount.CurrencyCode))
		if ok && code != currency {
			return decimal.Zero, "", false, ErrMixedCurrency
		}
		total = total.Add(v)
		currency = code
		ok = true
	}
	return total, currency, ok, nil
}
