// Package httpapi exposes the storefront services over JSON/HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"
	"storefront-be/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Deps struct {
	Users    user.Service
	Products product.Service
	Orders   order.Service

	Tokens  middleware.TokenParser
	Limiter *middleware.RateLimiter
	Metrics *metrics.Registry

	PayPalClientID string
	CORSOrigin     string

	// Ping reports storage health for /health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// NewRouter wires every route and the middleware chain around them.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware)
	}

	authn := middleware.NewAuthenticator(d.Tokens, d.Users)
	protect := func(h http.HandlerFunc) http.Handler {
		return authn.RequireAuth(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authn.RequireAuth(middleware.RequireAdmin(h))
	}

	r.HandleFunc("/health", healthHandler(d.Ping)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	ph := &productHandler{svc: d.Products}
	api.HandleFunc("/product", ph.list).Methods(http.MethodGet)
	api.Handle("/product", admin(ph.create)).Methods(http.MethodPost)
	api.HandleFunc("/product/all", ph.all).Methods(http.MethodGet)
	api.HandleFunc("/product/top", ph.top).Methods(http.MethodGet)
	api.Handle("/product/{id}/reviews", protect(ph.createReview)).Methods(http.MethodPost)
	api.HandleFunc("/product/{id}", ph.get).Methods(http.MethodGet)
	api.Handle("/product/{id}", admin(ph.update)).Methods(http.MethodPut)
	api.Handle("/product/{id}", admin(ph.delete)).Methods(http.MethodDelete)

	uh := &userHandler{svc: d.Users}
	api.HandleFunc("/users/login", uh.login).Methods(http.MethodPost)
	api.HandleFunc("/users", uh.register).Methods(http.MethodPost)
	api.Handle("/users", admin(uh.list)).Methods(http.MethodGet)
	api.Handle("/users/profile", protect(uh.profile)).Methods(http.MethodGet)
	api.Handle("/users/profile", protect(uh.updateProfile)).Methods(http.MethodPut)
	api.Handle("/users/{id}", admin(uh.get)).Methods(http.MethodGet)
	api.Handle("/users/{id}", admin(uh.update)).Methods(http.MethodPut)
	api.Handle("/users/{id}", admin(uh.delete)).Methods(http.MethodDelete)

	oh := &orderHandler{svc: d.Orders}
	api.Handle("/orders", protect(oh.create)).Methods(http.MethodPost)
	api.Handle("/orders", admin(oh.listAll)).Methods(http.MethodGet)
	api.Handle("/orders/myorders", protect(oh.listMine)).Methods(http.MethodGet)
	api.Handle("/orders/{id}", protect(oh.get)).Methods(http.MethodGet)
	api.Handle("/orders/{id}/pay", protect(oh.pay)).Methods(http.MethodPut)
	api.Handle("/orders/{id}/deliver", admin(oh.deliver)).Methods(http.MethodPut)

	api.HandleFunc("/config/paypal", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, d.PayPalClientID)
	}).Methods(http.MethodGet)

	if d.Metrics != nil {
		api.Handle("/metrics", admin(func(w http.ResponseWriter, r *http.Request) {
			utils.WriteJSON(w, http.StatusOK, d.Metrics.Snapshot())
		})).Methods(http.MethodGet)
	}

	var h http.Handler = r
	h = middleware.Logging(h)
	h = middleware.Recover(h)
	h = logger.RequestIDMiddleware(h)
	if d.CORSOrigin != "" {
		h = middleware.CORS(d.CORSOrigin)(h)
	}
	return h
}

func notFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteMessage(w, http.StatusNotFound, "Not Found - "+r.URL.RequestURI())
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.WriteMessage(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.FromCtx(r.Context()).Warn("health check failed", zap.Error(err))
				utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
