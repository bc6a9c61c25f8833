package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/config"
	"github.com/iliyamo/device-ops-dashboard/internal/database"
	"github.com/iliyamo/device-ops-dashboard/internal/handler"
	"github.com/iliyamo/device-ops-dashboard/internal/identity"
	"github.com/iliyamo/device-ops-dashboard/internal/jobs"
	"github.com/iliyamo/device-ops-dashboard/internal/logging"
	"github.com/iliyamo/device-ops-dashboard/internal/middleware"
	"github.com/iliyamo/device-ops-dashboard/internal/pincode"
	"github.com/iliyamo/device-ops-dashboard/internal/queue"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
	"github.com/iliyamo/device-ops-dashboard/internal/router"
	"github.com/iliyamo/device-ops-dashboard/internal/service"
	"github.com/iliyamo/device-ops-dashboard/internal/storage"
)

func main() {
	config.LoadDotEnv(".env")
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	params := database.Params{User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName}
	if cfg.DBMigrate {
		if err := database.Migrate(params, logger); err != nil {
			return err
		}
	}
	db, err := database.Open(params)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
		logger.Info("redis connected")
	} else {
		logger.Info("redis disabled; cache, rate limit and sweep dedupe are off")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events service.EventPublisher = queue.Nop{}
	if cfg.RabbitMQURL != "" {
		pub := queue.NewPublisher(cfg.RabbitMQURL, logger.Named("publisher"))
		defer pub.Close()
		events = pub
		go queue.NewAuditConsumer(cfg.RabbitMQURL, logger).Run(ctx)
	}

	// Repositories.
	profiles := repository.NewProfileRepo(db)
	regions := repository.NewRegionRepo(db)
	hospitals := repository.NewHospitalRepo(db)
	devices := repository.NewDeviceRepo(db)
	catalog := repository.NewCatalogRepo(db)
	warehouses := repository.NewWarehouseRepo(db)
	sessions := repository.NewDemoSessionRepo(db)
	assignments := repository.NewEngineerHospitalRepo(db)
	summary := repository.NewSummaryRepo(db)

	// External clients.
	idp := identity.NewClient(cfg.IdentityURL, cfg.IdentityServiceKey, logger)
	objects := storage.NewClient(cfg.StorageURL, cfg.IdentityServiceKey, cfg.StorageBucket, logger)
	pincodes := pincode.NewClient(cfg.PincodeAPIURL, cfg.PincodeTimeout, rdb, logger)

	// Services.
	demoSvc := service.NewDemoService(sessions, devices, catalog, hospitals, regions, profiles, summary, events, logger)
	hospitalSvc := service.NewHospitalService(hospitals, regions, devices, assignments, warehouses, profiles, pincodes, logger)
	regionSvc := service.NewRegionService(regions, logger)
	teamSvc := service.NewTeamService(profiles, regions, assignments, devices, idp, events, logger)
	catalogSvc := service.NewCatalogService(catalog, devices, warehouses, objects, logger)
	inventorySvc := service.NewInventoryService(summary, summary, catalog, devices)

	sweep := jobs.NewOverdueSweep(sessions, events, rdb, logger.Named("sweep"))
	scheduler, err := jobs.Schedule(cfg.DemoSweepSpec, cfg.DemoSweepTimeout, sweep, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLog(logger.Named("http")))
	e.Use(middleware.CORS(cfg.CORSOrigins))

	t := cfg.RequestTimeout
	guard := middleware.NewGuard(cfg.JWTSecret, teamSvc)
	router.Register(e, router.Handlers{
		Auth:      handler.NewAuthHandler(teamSvc, guard, t),
		Demo:      handler.NewDemoHandler(demoSvc, t),
		Inventory: handler.NewInventoryHandler(inventorySvc, t),
		Hospital:  handler.NewHospitalHandler(hospitalSvc, t),
		Region:    handler.NewRegionHandler(regionSvc, t),
		Team:      handler.NewTeamHandler(teamSvc, t),
		Catalog:   handler.NewCatalogHandler(catalogSvc, t),
		Field:     handler.NewFieldHandler(teamSvc, hospitalSvc, t),
	}, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Guard:     guard,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		Logger:    logger,
		DB:        db,
	})

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
