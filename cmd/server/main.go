package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/promarket/promarket/internal/config"
	"github.com/promarket/promarket/internal/es"
	"github.com/promarket/promarket/internal/handlers"
	"github.com/promarket/promarket/internal/logging"
	mw "github.com/promarket/promarket/internal/middleware/auth"
	"github.com/promarket/promarket/internal/mykafka"
	"github.com/promarket/promarket/internal/repo"
	authsvc "github.com/promarket/promarket/internal/service/auth"
	cartsvc "github.com/promarket/promarket/internal/service/cart"
	catalogsvc "github.com/promarket/promarket/internal/service/catalog"
	"github.com/promarket/promarket/internal/service/token"
	"github.com/promarket/promarket/internal/upload"
	httpserver "github.com/promarket/promarket/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()
	db, err := config.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers, []string{"user_events", "cart_events", "product_events"})
		if err != nil {
			log.Fatalf("kafka init: %v", err)
		}
	} else {
		logger.Warn("KAFKA_BROKERS not set, events disabled")
	}

	r := repo.New(db)
	tokens := &token.Service{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL}
	auth := &authsvc.Service{Repo: r, Tokens: tokens, Producer: prod, RevocationMode: cfg.RevocationMode}
	cart := &cartsvc.Service{Repo: r, Producer: prod}
	uploads := upload.NewStorage(cfg.UploadDir)

	catalog := &catalogsvc.Service{Repo: r, Producer: prod, Index: "products"}
	var searchHandler *handlers.SearchHandler
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init: %v", err)
		}
		catalog.ES = esClient
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: "products"}
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), logger)))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		AuthMW:              &mw.Middleware{Auth: auth},
		AuthHandler:         &handlers.AuthHandler{Auth: auth},
		ProductHandler:      &handlers.ProductHandler{Catalog: catalog},
		CartHandler:         &handlers.CartHandler{Cart: cart},
		ManufacturerHandler: &handlers.ManufacturerHandler{Repo: r, Catalog: catalog, Uploads: uploads},
		ProfessionalHandler: &handlers.ProfessionalHandler{Repo: r, Uploads: uploads},
		SearchHandler:       searchHandler,
		UploadDir:           cfg.UploadDir,
	}
	httpserver.Register(e, &deps)

	pruneCtx, stopPrune := context.WithCancel(ctx)
	go pruneExpiredTokens(pruneCtx, r, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopPrune()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func pruneExpiredTokens(ctx context.Context, r *repo.GormRepo, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.PruneExpiredTokens(ctx); err != nil {
				logger.Warn("token prune failed", "error", err)
			}
		}
	}
}
