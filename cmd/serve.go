package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AchAffand/SuratJalan-sub001/config"
	"github.com/AchAffand/SuratJalan-sub001/internal/api"
	"github.com/AchAffand/SuratJalan-sub001/internal/cache"
	"github.com/AchAffand/SuratJalan-sub001/internal/db"
	"github.com/AchAffand/SuratJalan-sub001/internal/messagebus"
	"github.com/AchAffand/SuratJalan-sub001/internal/notestore"
	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
	"github.com/AchAffand/SuratJalan-sub001/internal/search"
	"github.com/AchAffand/SuratJalan-sub001/internal/service"
	"github.com/AchAffand/SuratJalan-sub001/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		// Load configuration
		cfg, err := config.Load()
		if err != nil {
			logrus.Fatalf("Failed to load configuration: %v", err)
		}

		// Setup logger
		logger := logrus.New()
		if cfg.Logging.JSON {
			logger.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logger.SetFormatter(&logrus.TextFormatter{
				FullTimestamp: true,
			})
		}

		level, err := logrus.ParseLevel(cfg.Logging.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)

		// Connect to database
		dbConn, err := db.Connect(&cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}

		// Run migrations
		if err := db.Migrate(dbConn); err != nil {
			logger.Fatalf("Failed to run database migrations: %v", err)
		}

		// Initialize cache
		cacheClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}

		// Initialize message bus
		var busClient messagebus.Client
		if cfg.ServiceBus.Enabled {
			busClient, err = messagebus.NewClient(&cfg.ServiceBus)
			if err != nil {
				logger.Fatalf("Failed to initialize message bus: %v", err)
			}
		}

		// Initialize search
		var searchClient search.Client
		if cfg.Elasticsearch.Enabled {
			searchClient, err = search.NewClient(cfg.Elasticsearch)
			if err != nil {
				logger.Fatalf("Failed to initialize Elasticsearch: %v", err)
			}
		}

		// Initialize telemetry
		nrApp, err := telemetry.InitNewRelic(cfg.NewRelic)
		if err != nil {
			logger.Warnf("Failed to initialize New Relic: %v", err)
		}

		// Create repositories
		noteRepo := repository.NewDeliveryNoteRepository(dbConn)
		poRepo := repository.NewPurchaseOrderRepository(dbConn)
		userRepo := repository.NewUserRepository(dbConn)

		// Create services
		notifier := service.NewNotifier(busClient, cfg.ServiceBus.NotificationsQueue)
		reconciler := service.NewReconciler(noteRepo, poRepo, cacheClient)
		noteService := service.NewDeliveryNoteService(
			noteRepo,
			notestore.New(),
			cacheClient,
			searchClient,
			notifier,
			reconciler,
			cfg.Reconcile.DebounceInterval,
		)
		poService := service.NewPurchaseOrderService(poRepo, cacheClient, reconciler)
		userService := service.NewUserService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

		// Warm the working set before accepting traffic
		if err := noteService.LoadAll(context.Background()); err != nil {
			logger.Warnf("Failed to preload delivery notes: %v", err)
		}

		// Create API handler and middleware
		handler := api.NewHandler(noteService, poService, userService)
		middleware := api.NewMiddleware(logger)

		// Create router
		router := mux.NewRouter()
		router.Use(middleware.Logger)
		router.Use(middleware.Recover)
		router.Use(middleware.CORS(cfg.Server.CorsWhiteList))
		router.Use(api.MetricsMiddleware)
		router.Use(api.TracingMiddleware(nrApp))

		// Register routes
		handler.RegisterRoutes(router.PathPrefix("/api/v1").Subrouter(), middleware, cfg.Auth.JWTSecret)

		// Setup server
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		// Start server in a goroutine
		go func() {
			logger.Infof("Starting server on %s", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("Failed to start server: %v", err)
			}
		}()

		// Wait for interrupt signal
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("Shutting down server...")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Fatalf("Server shutdown failed: %v", err)
		}

		// Commit any edits still waiting on their debounce timer
		noteService.FlushPending(shutdownCtx)

		if busClient != nil {
			if err := busClient.Close(shutdownCtx); err != nil {
				logger.Errorf("Message bus closure failed: %v", err)
			}
		}

		logger.Info("Server shutdown complete")
	},
}
