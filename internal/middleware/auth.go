package middleware

import (
	"context"
	"net/http"

	"storefront-be/internal/apperr"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

var ErrNotAdmin = apperr.New(apperr.KindForbidden, "Not authorized as an admin")

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// IdentityResolver loads the current state of the account behind a token.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (auth.Identity, error)
}

type Authenticator struct {
	tokens TokenParser
	users  IdentityResolver
}

func NewAuthenticator(tokens TokenParser, users IdentityResolver) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// RequireAuth rejects the request with 401 unless it carries a valid bearer
// token for an existing user, and attaches that user's identity to the context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractAccessToken(r)
		if token == "" {
			utils.WriteError(w, r, auth.ErrMissingToken)
			return
		}

		claims, err := a.tokens.Parse(token)
		if err != nil {
			logger.FromCtx(r.Context()).Debug("token rejected", zap.Error(err))
			utils.WriteError(w, r, err)
			return
		}

		identity, err := a.users.Resolve(r.Context(), claims.UserID)
		if err != nil {
			utils.WriteError(w, r, err)
			return
		}

		ctx := auth.WithIdentity(r.Context(), identity)
		ctx = logger.WithUserID(ctx, identity.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFrom(r.Context())
		if !ok {
			utils.WriteError(w, r, auth.ErrMissingToken)
			return
		}
		if !identity.IsAdmin {
			logger.FromCtx(r.Context()).Warn("admin route refused",
				zap.String("path", r.URL.Path),
			)
			utils.WriteError(w, r, ErrNotAdmin)
			return
		}
		next.ServeHTTP(w, r)
	})
}
