package payment

import (
	"context"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Verifier interface {
	// Verify confirms a receipt and returns the capture that should be
	// recorded on the order.
	Verify(ctx context.Context, receipt Receipt) (*Capture, error)
}

// NewVerifier returns the PayPal gateway when a secret is configured and a
// receipt-trusting verifier otherwise.
func NewVerifier(clientID, secret, mode string) Verifier {
	if secret == "" {
		logger.L().Warn("PAYPAL_SECRET is empty, payment receipts will not be verified with the provider")
		return receiptVerifier{}
	}
	return NewPayPalGateway(clientID, secret, mode)
}

type receiptVerifier struct{}

func (receiptVerifier) Verify(ctx context.Context, receipt Receipt) (*Capture, error) {
	if receipt.ID == "" {
		return nil, ErrReceiptMissingID
	}

	amount, currency, ok, err := sumUnits(receipt.PurchaseUnits)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Warn("accepting unverified payment receipt",
		zap.String("payment_id", receipt.ID),
		zap.String("status", receipt.Status),
	)

	return &Capture{
		ID:           receipt.ID,
		Status:       receipt.Status,
		UpdateTime:   receipt.UpdateTime,
		EmailAddress: receipt.Email(),
		Amount:       amount,
		Currency:     currency,
		HasAmount:    ok,
	}, nil
}
