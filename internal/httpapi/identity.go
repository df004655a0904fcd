package httpapi

import (
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/utils"
)

// requireCaller returns the identity attached by RequireAuth.
func requireCaller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		utils.WriteError(w, r, auth.ErrMissingToken)
	}
	return id, ok
}
