package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/httpapi"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

const (
	shutdownTimeout  = 10 * time.Second
	visitorIdleAfter = 3 * time.Minute
)

// stores bundles the repositories of whichever backend STORE_DRIVER selects.
type stores struct {
	users    user.Repository
	products product.Repository
	orders   order.Repository
	ping     func(ctx context.Context) error
	close    func()
}

var (
	initStoresFunc  = initStores
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func initStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		database, err := db.NewDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:    user.NewPostgresRepository(database),
			products: product.NewPostgresRepository(database),
			orders:   order.NewPostgresRepository(database),
			ping:     database.PingContext,
			close:    func() { _ = database.Close() },
		}, nil
	default:
		client, database, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &stores{
			users:    user.NewMongoRepository(database),
			products: product.NewMongoRepository(database),
			orders:   order.NewMongoRepository(database),
			ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:    func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}
}

func newServer(cfg *config.Config, st *stores, limiter *middleware.RateLimiter) http.Handler {
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	userSvc := user.NewService(st.users, tokens)
	productSvc := product.NewService(st.products, cfg.Policy.PageSize, cfg.Policy.TopProducts)

	verifier := payment.NewVerifier(cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalMode)
	orderSvc := order.NewService(st.orders, productSvc, userSvc, verifier, order.Policy{
		TaxRate:               cfg.Policy.TaxRate,
		FreeShippingThreshold: cfg.Policy.FreeShippingThreshold,
		ShippingPrice:         cfg.Policy.ShippingPrice,
		Currency:              cfg.Policy.Currency,
	})

	return httpapi.NewRouter(httpapi.Deps{
		Users:          userSvc,
		Products:       productSvc,
		Orders:         orderSvc,
		Tokens:         tokens,
		Limiter:        limiter,
		Metrics:        metrics.NewRegistry(),
		PayPalClientID: cfg.PayPalClientID,
		CORSOrigin:     cfg.CORSOrigin,
		Ping:           st.ping,
	})
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := initStoresFunc(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)

	c := cron.New()
	if err := c.AddFunc("@every 1m", func() {
		if n := limiter.Cleanup(visitorIdleAfter); n > 0 {
			log.Debug("rate limiter visitors evicted", zap.Int("count", n), zap.Int("remaining", limiter.Len()))
		}
	}); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, st, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront API listening",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.StoreDriver),
			zap.String("env", cfg.AppEnv),
		)
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}
