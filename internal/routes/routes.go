// Package routes defines the API routing configuration.
// It wires repositories, services and handlers and registers every
// HTTP route the scanner and transaction subsystems expose.
package routes

import (
	"sync"
	"time"

	"scanpay/internal/config"
	"scanpay/internal/handlers"
	"scanpay/internal/middleware"
	"scanpay/internal/repositories"
	"scanpay/internal/services/compat"
	"scanpay/internal/services/fallback"
	"scanpay/internal/services/monitor"
	"scanpay/internal/services/optimizer"
	"scanpay/internal/services/permission"
	"scanpay/internal/services/security"
	"scanpay/internal/services/session"
	"scanpay/internal/services/transaction"
	"scanpay/internal/telemetry"
	"scanpay/internal/utils"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var sessionService session.Service

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB, logger *zap.Logger) {
	clock := monitor.SystemClock{}
	collector := telemetry.NewPrometheusCollector()
	signer := utils.NewQRSigner(config.GetEnv("QR_SIGNING_KEY", ""))

	// Repositories
	transactionRepo := repositories.NewTransactionRepository(db)

	// Services
	compatService := compat.NewService(logger)
	monitorService := monitor.NewService(clock, logger, collector)
	optimizerService := optimizer.NewService(
		optimizer.NewTimedProber(config.GetEnv("NETWORK_PROBE_URL", "https://www.gstatic.com/generate_204")),
		logger,
	)
	permissionService := permission.NewService()
	sessionService = session.NewService(clock,
		config.GetDurationEnv("SESSION_IDLE_TTL", 15*time.Minute))
	fallbackService := fallback.NewService(nil, clock)
	securityService := security.NewService(clock, logger, collector, signer)

	// A nil *CacheService must stay a nil interface inside the
	// transaction service.
	var transactionCache transaction.TransactionCache
	if repositories.CacheService != nil {
		transactionCache = repositories.CacheService
	}
	gateway := transaction.NewSimulatedGateway()
	gateway.SuccessRate = config.GetFloatEnv("GATEWAY_SUCCESS_RATE", gateway.SuccessRate)
	transactionService := transaction.NewService(
		transactionRepo,
		transactionCache,
		gateway,
		securityService,
		clock,
		logger,
		collector,
		signer,
	)

	// Handlers
	scannerHandler := handlers.NewScannerHandler(compatService, monitorService, optimizerService, repositories.CacheService)
	sessionHandler := handlers.NewSessionHandler(sessionService, compatService)
	permissionHandler := handlers.NewPermissionHandler(permissionService, compatService)
	fallbackHandler := handlers.NewFallbackHandler(fallbackService, compatService)
	scanHandler := handlers.NewScanHandler(securityService, transactionService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	healthHandler := handlers.NewHealthHandler()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "ScanPay API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})
	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Scanner environment routes
	scanner := api.Group("/scanner", middleware.ClientID)
	scanner.Post("/capabilities", scannerHandler.DetectCapabilities)
	scanner.Delete("/capabilities", scannerHandler.InvalidateCapabilities)
	scanner.Post("/config", scannerHandler.OptimizedConfig)
	scanner.Post("/metrics", scannerHandler.RecordMetric)
	scanner.Get("/stats", scannerHandler.Stats)
	scanner.Post("/permission", permissionHandler.Guidance)

	// Capture session routes
	sessions := scanner.Group("/sessions")
	sessions.Post("/", sessionHandler.Start)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Post("/:id/restart", sessionHandler.Restart)
	sessions.Post("/:id/stop", sessionHandler.Stop)
	sessions.Post("/:id/torch", sessionHandler.SetTorch)
	sessions.Post("/:id/facing", sessionHandler.SwitchFacing)
	sessions.Post("/:id/config", sessionHandler.UpdateConfig)

	// Fallback acquisition routes
	fb := scanner.Group("/fallback")
	fb.Post("/options", fallbackHandler.Options)
	fb.Post("/manual", fallbackHandler.SubmitManual)
	fb.Post("/image", fallbackHandler.UploadImage)
	fb.Post("/capture", fallbackHandler.NativeCapture)

	// Scan processing and transaction routes
	api.Post("/scan", middleware.ClientID, scanHandler.ProcessScan)
	api.Get("/scan/audit", scanHandler.AuditTrail)
	api.Get("/transactions", transactionHandler.History)
	api.Get("/transactions/analytics", transactionHandler.Analytics)
	api.Post("/qr/payment", transactionHandler.GeneratePaymentQR)
	api.Post("/qr/member", transactionHandler.GenerateMemberPaymentQR)
}

// StartSessionJanitor prunes idle capture sessions until the returned
// stop function is called. Stopping is idempotent and also ends the
// pruning goroutine; a stopped ticker alone would leave it blocked.
func StartSessionJanitor(logger *zap.Logger) (stop func()) {
	ticker := time.NewTicker(time.Minute)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if sessionService == nil {
					continue
				}
				if pruned := sessionService.PruneIdle(); pruned > 0 {
					logger.Info("pruned idle scan sessions", zap.Int("count", pruned))
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
