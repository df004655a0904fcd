package product

import "storefront-be/internal/apperr"

var (
	ErrProductNotFound = apperr.New(apperr.KindNotFound, "Product not found")
	ErrAlreadyReviewed = apperr.New(apperr.KindDuplicateReview, "Product already reviewed")
)
