package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopswift/internal/commerce"
	"github.com/Skotchmaster/shopswift/internal/config"
	"github.com/Skotchmaster/shopswift/internal/db"
	"github.com/Skotchmaster/shopswift/internal/events"
	"github.com/Skotchmaster/shopswift/internal/httpserver"
	"github.com/Skotchmaster/shopswift/internal/logging"
	"github.com/Skotchmaster/shopswift/internal/metrics"
	"github.com/Skotchmaster/shopswift/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/shopswift/internal/middleware/logging"
	"github.com/Skotchmaster/shopswift/internal/middleware/session"
	"github.com/Skotchmaster/shopswift/internal/notify"
	"github.com/Skotchmaster/shopswift/internal/repo"
	"github.com/Skotchmaster/shopswift/internal/search"
	"github.com/Skotchmaster/shopswift/internal/service"
	"github.com/Skotchmaster/shopswift/internal/state"
	"github.com/Skotchmaster/shopswift/internal/storage"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	m := metrics.New()
	ready := map[string]httpserver.ReadyCheck{}

	tokens := commerce.NewTokenCache(cfg.Commerce.AuthURL, map[commerce.Scope]commerce.Credentials{
		commerce.ScopeCustomer: commerce.Credentials(cfg.Commerce.Customer),
		commerce.ScopeAdmin:    commerce.Credentials(cfg.Commerce.Admin),
	}, nil)
	backend := commerce.NewClient(cfg.Commerce.APIURL, cfg.Commerce.ProjectKey, tokens, nil)
	backend.Obs = m

	var (
		store state.Store
		rdb   *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = state.NewRedisClient(cfg.RedisAddr)
		rs := state.NewRedisStore(rdb, cfg.SessionTTL)
		store = rs
		ready["redis"] = rs.Ping
		logger.Info("session_store", "kind", "redis", "addr", cfg.RedisAddr)
	} else {
		store = state.NewMemoryStore(cfg.SessionTTL)
		logger.Info("session_store", "kind", "memory")
	}

	catalog := &service.CatalogService{Products: backend}

	var gdb *gorm.DB
	if cfg.CacheDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var err error
		gdb, err = db.Open(ctx, cfg.CacheDSN)
		if err == nil {
			err = (&repo.GormRepo{DB: gdb}).Migrate(ctx)
		}
		cancel()
		if err != nil {
			log.Fatalf("product cache: %v", err)
		}
		catalog.Cache = &repo.GormRepo{DB: gdb}
		ready["cache"] = func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	catalog.Searcher = search.NewMemory()
	if cfg.ESURL != "" {
		es, err := search.NewElastic(search.ElasticConfig{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		}, logger)
		if err != nil {
			logger.Warn("es_unavailable", "reason", "falling back to in-memory search", "error", err)
		} else {
			catalog.Searcher = es
		}
	}

	var emitter events.Emitter = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, logger, m)
		emitter = producer
	}

	var notifier notify.Notifier = notify.Nop{}
	var webhook *notify.Webhook
	if cfg.NotifyURL != "" {
		webhook = notify.NewWebhook(cfg.NotifyURL, logger)
		notifier = webhook
	}

	var images storage.ImageStore
	if cfg.S3.Bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3store, err := storage.NewS3Store(ctx, storage.Options(cfg.S3))
		cancel()
		if err != nil {
			log.Fatalf("image store: %v", err)
		}
		images = s3store
	}

	sessions := session.NewManager(store, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)
	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Use(m.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc:      &service.AuthService{Customers: backend, Admins: cfg.AdminAccounts, Events: emitter},
			Sessions: sessions,
		},
		Storefront: &httpserver.StorefrontHTTP{
			Catalog:  catalog,
			Cart:     &service.CartService{TaxRate: cfg.TaxRate},
			Checkout: &service.CheckoutService{Orders: backend, Notifier: notifier, Events: emitter, NewKey: uuid.NewString},
			Sessions: sessions,
		},
		Admin: &httpserver.AdminHTTP{
			Svc:      &service.AdminService{Products: backend, Orders: backend, Images: images, Sessions: store, Events: emitter},
			Sessions: sessions,
		},
		Sessions: sessions,
		Metrics:  m,
		CSRF:     csrfCfg,
		Ready:    ready,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if webhook != nil {
		webhook.Wait()
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	if gdb != nil {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("shutdown complete")
}
