package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"babumoshai/auth"
	"babumoshai/cart"
	"babumoshai/config"
	"babumoshai/db"
	"babumoshai/idempotency"
	"babumoshai/logger"
	"babumoshai/middleware"
	"babumoshai/mq"
	"babumoshai/orderfeed"
	"babumoshai/orders"
	"babumoshai/products"
	"babumoshai/ratelim"
	"babumoshai/rdx"
	"babumoshai/routes"
	"babumoshai/settings"
	"babumoshai/users"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const settingsCacheTTL = 5 * time.Minute

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// originChecker mirrors the CORS allow-list for websocket upgrades.
func originChecker(allowed []string) func(*http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl := logger.NewForEnvironment(cfg.App.Env, cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped with error", zap.Error(err))
	}
	zl.Info("server stopped cleanly")
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	cols, err := db.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cols.Close(closeCtx); err != nil {
			zl.Warn("mongo disconnect", zap.Error(err))
		}
	}()
	if err := cols.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := rdx.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)
	userStore := users.NewMongoStore(cols.Users)
	userSvc := users.NewService(userStore, tokens, zl)
	if err := userSvc.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return err
	}

	productStore := products.NewMongoStore(cols.Products)
	settingsSvc := settings.NewService(
		settings.NewCachedStore(settings.NewMongoStore(cols.Settings), rdx.NewCache(rdb, "settings:"), settingsCacheTTL, zl),
		zl)
	cartStore := cart.NewRedisStore(rdb, cfg.Redis.CartTTL)
	bus := mq.NewRedisBus(rdb, zl)
	orderSvc := orders.NewService(orders.NewMongoStore(cols.Orders), productStore, settingsSvc, cartStore, bus, zl)

	hub := orderfeed.NewHub(zl)
	go hub.Run(ctx)
	go func() {
		if err := bus.Subscribe(ctx, hub.Forward); err != nil {
			zl.Error("order event subscription ended", zap.Error(err))
		}
	}()

	limiter := ratelim.NewRateLimiter(cfg.HTTP.AuthRateLimit, cfg.HTTP.AuthRateBurst)
	go limiter.Run(ctx)

	router := httprouter.New()
	routes.RoutesWrapper(router, routes.Deps{
		Auth:        middleware.NewAuthenticator(tokens, userStore, zl),
		Limiter:     limiter,
		Idempotency: idempotency.New(idempotency.NewMongoStore(cols.Idempotency), idempotency.DefaultTTL, zl),
		Users:       users.NewHandler(userSvc, zl),
		Products:    products.NewHandler(productStore, zl),
		Cart:        cart.NewHandler(cartStore, productStore, settingsSvc, zl),
		Orders:      orders.NewHandler(orderSvc, settingsSvc, zl),
		Settings:    settings.NewHandler(settingsSvc, zl),
		Feed:        orderfeed.NewHandler(ctx, hub, originChecker(cfg.HTTP.CORSAllowOrigins), zl),
	})

	// CORS → security headers → access log → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", idempotency.Header, "X-Request-ID"},
		ExposedHeaders:   []string{idempotency.ReplayHeader, "X-Request-ID", "Content-Disposition"},
		AllowCredentials: !slices.Contains(cfg.HTTP.CORSAllowOrigins, "*"),
	}).Handler(router)
	handler := logger.AccessLog(zl)(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", server.Addr), zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
