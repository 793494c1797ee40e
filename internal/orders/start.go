package orders

import (
	"context"
	"fmt"
	"net/http"

	"nublack-orders/internal/auth"
	"nublack-orders/internal/cart"
	"nublack-orders/internal/catalog"
	"nublack-orders/internal/common/httpx"
	"nublack-orders/internal/common/logger"
	"nublack-orders/internal/config"
	"nublack-orders/internal/connections/database"
	"nublack-orders/internal/connections/rabbitmq"
	"nublack-orders/internal/metrics"
	"nublack-orders/internal/notifier"
	"nublack-orders/internal/orders/handlers"
	"nublack-orders/internal/orders/repository"
	"nublack-orders/internal/orders/service"
)

// Run wires the order service and serves until the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, lg *logger.Logger) error {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	rmq, err := rabbitmq.Dial(cfg.RabbitMQ, false)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer rmq.Close()
	if err := rmq.DeclareTopology(); err != nil {
		return fmt.Errorf("declare rabbitmq topology: %w", err)
	}

	m := metrics.New("orders", nil)
	jwtSvc := auth.NewJWTService(cfg.HTTP.JWTSecret, auth.DefaultTokenTTL)

	svc := service.New(
		db,
		repository.New(),
		catalog.NewRepository(lg),
		cart.New(),
		notifier.NewAMQP(rmq, lg),
		m,
		lg,
	)

	h := handlers.New(svc, lg)
	mux := h.Routes(jwtSvc, m)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := rmq.Ping(); err != nil {
			http.Error(w, "broker unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	lg.Info("listening", map[string]any{"addr": addr})
	srv := httpx.New(addr, mux)
	return srv.Run(ctx)
}
