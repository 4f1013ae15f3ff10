package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shiprate-backend/config"
	"shiprate-backend/internal/delivery/http/middleware"
	v1 "shiprate-backend/internal/delivery/http/v1"
	"shiprate-backend/internal/domain"
	"shiprate-backend/internal/infrastructure/cache"
	pgrepo "shiprate-backend/internal/repository/postgres"
	"shiprate-backend/internal/usecase"
	"shiprate-backend/pkg/logger"
	"shiprate-backend/pkg/storage"
	"shiprate-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"
)

const serviceName = "shiprate-api"

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	ctx := context.Background()

	pgxPool, err := pgrepo.NewPgxPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgxPool.Close()
	log.Info().Msg("Connected to PostgreSQL")

	if err := pgrepo.Migrate(ctx, pgxPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	// Repositories
	refRepo := pgrepo.NewReferenceRepository(pgxPool)
	logRepo := pgrepo.NewCalculationLogRepository(pgxPool)

	// Reference data changes rarely; expire per CACHE_REFERENCE_TTL, sweep every 2x.
	memCache := cache.NewMemoryCache(cfg.CacheReferenceTTL, 2*cfg.CacheReferenceTTL)
	cachedRefRepo := cache.NewReferenceRepository(refRepo, memCache, cfg.CacheReferenceTTL)

	// Reference data checks
	referenceUC := usecase.NewReferenceUsecase(refRepo, cachedRefRepo, cfg.RequestTimeout)
	conflicts, err := referenceUC.ZoneConflicts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load shipping zones")
	}
	for _, c := range conflicts {
		log.Warn().Str("country", c.Country).Strs("zones", c.ZoneNames).Msg("Country assigned to more than one active zone")
	}
	if len(conflicts) > 0 && cfg.StrictZoneValidation {
		log.Fatal().Int("conflicts", len(conflicts)).Msg("Ambiguous zone assignments; fix reference data or set STRICT_ZONE_VALIDATION=false")
	}

	// History export storage (optional)
	var exportStorage domain.ObjectStorage
	if cfg.ExportEnabled() {
		r2Storage, err := storage.NewR2Storage(ctx, storage.R2Options{
			AccountID:     cfg.R2AccountID,
			AccessKey:     cfg.R2AccessKeyID,
			SecretKey:     cfg.R2AccessKeySecret,
			BucketName:    cfg.R2BucketName,
			PublicURL:     cfg.R2PublicURL,
			UploadTimeout: cfg.R2UploadTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 Storage")
		}
		exportStorage = r2Storage
	} else {
		log.Info().Msg("R2 not configured, history export disabled")
	}

	// Usecases
	resolver := usecase.NewRateResolver(cachedRefRepo, logRepo, cfg.RequestTimeout, cfg.BulkConcurrency)
	optionsUC := usecase.NewShippingOptionsUsecase(cachedRefRepo, resolver, cfg.OptionsLimit)
	historyUC := usecase.NewHistoryUsecase(logRepo, exportStorage, cfg.RequestTimeout)

	// Handlers
	shippingHandler := v1.NewShippingHandler(resolver, optionsUC, cfg.MaxBulkItems)
	referenceHandler := v1.NewReferenceHandler(cachedRefRepo)
	adminShippingHandler := v1.NewAdminShippingHandler(historyUC, referenceUC)

	mux := http.NewServeMux()
	v1.RegisterRoutes(mux, shippingHandler, referenceHandler, adminShippingHandler)

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pgxPool.Ping(pingCtx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "unreachable"})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "connected"})
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)

	rateLimiter := middleware.NewRateLimiter(
		ctx,
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,   // cleanup period
		3*time.Minute, // client TTL
	)

	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	logger.ServiceStart(serviceName, "v1", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	rateLimiter.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.ServiceStop(serviceName)
}
