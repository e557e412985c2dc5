package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpAdapter "github.com/lorrc/insuredesk-backend/internal/adapters/primary/http"
	mw "github.com/lorrc/insuredesk-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/insuredesk-backend/internal/adapters/primary/websocket"
	"github.com/lorrc/insuredesk-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/insuredesk-backend/internal/adapters/secondary/salesforce"
	"github.com/lorrc/insuredesk-backend/internal/adapters/secondary/zendesk"
	"github.com/lorrc/insuredesk-backend/internal/auth"
	"github.com/lorrc/insuredesk-backend/internal/config"
	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
	"github.com/lorrc/insuredesk-backend/internal/core/services"
	"github.com/lorrc/insuredesk-backend/internal/infrastructure/logging"
	"github.com/lorrc/insuredesk-backend/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Initialize Metrics, Security & Real-time Components
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	hubMetrics := metrics.NewHubMetrics(registry)
	pollerMetrics := metrics.NewPollerMetrics(registry)

	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(logger, hubMetrics)
	go hub.Run()

	// 5. Initialize Rate Limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	userRepo := postgres.NewUserRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)

	// Services (Core)
	authService := services.NewAuthService(userRepo, auditRepo, logger)
	webhookService := services.NewWebhookService(hub, logger)
	pushFeedService := services.NewPushFeedService(hub, logger)

	// Telephony platform (Secondary Adapter). Each integration starts
	// independently so a misconfigured or failing platform never takes
	// the other down.
	var telephony ports.TelephonyGateway
	var queuePoller, agentPoller *services.Poller
	if cfg.ZendeskConfigured() {
		zdClient := zendesk.NewClient(cfg.Zendesk, logger)
		telephony = zdClient

		clock := clockwork.NewRealClock()
		queuePoller = services.NewQueuePoller(zdClient, hub, cfg.Polling.QueueInterval, clock, logger, pollerMetrics)
		agentPoller = services.NewAgentPoller(zdClient, hub, cfg.Polling.AgentInterval, clock, logger, pollerMetrics)
		queuePoller.Start()
		agentPoller.Start()
		logger.Info("telephony polling active",
			"queue_interval", cfg.Polling.QueueInterval,
			"agent_interval", cfg.Polling.AgentInterval,
		)
	} else {
		logger.Warn("telephony integration not configured, polling disabled")
	}

	// CRM platform (Secondary Adapter)
	var crm ports.CRMGateway
	var streamer *salesforce.Streamer
	if cfg.SalesforceConfigured() {
		sfClient := salesforce.NewClient(cfg.Salesforce, logger)
		crm = sfClient

		loginCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := sfClient.Login(loginCtx)
		cancel()
		if err != nil {
			logger.Error("crm connection failed, continuing without push feed", "error", err)
		} else {
			streamer = salesforce.NewStreamer(sfClient, logger)
			streamer.SubscribeClaimUpdates(pushFeedService.HandleClaimChange)
			streamer.SubscribePolicyUpdates(pushFeedService.HandlePolicyChange)
			if err := streamer.Start(ctx); err != nil {
				logger.Error("push feed subscription failed", "error", err)
				streamer = nil
			} else {
				logger.Info("crm push feed active")
			}
		}
	} else {
		logger.Warn("crm integration not configured")
	}

	// Handlers (Primary Adapters)
	authHandler := httpAdapter.NewAuthHandler(authService, userRepo, tokenManager, errorHandler)
	webhookHandler := httpAdapter.NewWebhookHandler(webhookService, auditRepo, errorHandler, logger)
	customerHandler := httpAdapter.NewCustomerHandler(crm, errorHandler)
	callHandler := httpAdapter.NewCallHandler(telephony, errorHandler)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, hub, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health and metrics endpoints (outside /api for standard probe paths)
	r.Get("/health", healthHandler.HandleReadiness)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with stricter rate limiting
		r.Group(func(r chi.Router) {
			if authRateLimiter != nil {
				r.Use(authRateLimiter.Middleware)
			}
			r.Post("/auth/login", authHandler.HandleLogin)
			r.Post("/auth/register", authHandler.HandleRegister)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))
			r.Get("/auth/me", authHandler.HandleMe)
		})

		// WebSocket route (authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Webhook receiver (called by the ticketing platform, not by users)
		r.Post("/webhooks/zendesk", webhookHandler.HandleZendeskWebhook)

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(domain.RoleAgent, domain.RoleManager, domain.RoleAdmin))
				r.Get("/calls/queue", callHandler.HandleQueue)
				r.Get("/calls/agents", callHandler.HandleAgentActivity)
				r.Get("/calls/tickets/{ticketID}", callHandler.HandleTicket)
				r.Get("/customers/{policyNumber}", customerHandler.HandleCustomer360)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(domain.RoleManager, domain.RoleAdmin))
				r.Get("/agents/{agentID}/csat", callHandler.HandleAgentCSAT)
			})
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Stop the producers first so no broadcast races the server teardown.
	if queuePoller != nil {
		queuePoller.Stop()
	}
	if agentPoller != nil {
		agentPoller.Stop()
	}
	if streamer != nil {
		streamer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
