package order

import "storefront-be/internal/apperr"

var (
	ErrEmptyOrder            = apperr.New(apperr.KindEmptyOrder, "No order items")
	ErrOrderNotFound         = apperr.New(apperr.KindNotFound, "Order not found")
	ErrForbidden             = apperr.New(apperr.KindForbidden, "Not authorized to access this order")
	ErrOrderNotPaid          = apperr.New(apperr.KindValidation, "Order has not been paid")
	ErrOrderAlreadyPaid      = apperr.New(apperr.KindConflict, "Order is already paid")
	ErrOrderAlreadyDelivered = apperr.New(apperr.KindConflict, "Order is already delivered")
	ErrPaymentIncomplete     = apperr.New(apperr.KindValidation, "Payment is not completed")
	ErrPaymentAmountMissing  = apperr.New(apperr.KindValidation, "Payment amount is missing")
	ErrAmountMismatch        = apperr.New(apperr.KindValidation, "Payment amount does not match order total")
	ErrCurrencyMismatch      = apperr.New(apperr.KindValidation, "Payment currency does not match shop currency")
	ErrPaymentReused         = apperr.New(apperr.KindConflict, "Payment has already been applied to another order")
)
