package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shiftdesk/internal/assistant"
	"shiftdesk/internal/geo"
	"shiftdesk/internal/handler"
	"shiftdesk/internal/httpserver"
	"shiftdesk/internal/jobs"
	"shiftdesk/internal/messaging"
	"shiftdesk/internal/repository"
	"shiftdesk/internal/service"
	"shiftdesk/pkg/config"
	"shiftdesk/pkg/db"
	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/mq"
	"shiftdesk/pkg/outbox"
	"shiftdesk/pkg/redis"
)

func main() {
	env := config.GetConfigEnv()
	cfg, err := config.Load(config.GetEnv("CONFIG_DIR", "config"), env)
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(env)
	defer log.Sync()

	log.Info("Starting shiftdesk server...",
		zap.String("env", env),
		zap.String("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn, log); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Redis
	rdb, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to init Redis", zap.Error(err))
	}
	defer rdb.Close()

	// MQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	shiftRepo := repository.NewShiftRepository(dbConn)
	stores := service.NewStores(
		repository.NewAdminRepository(dbConn),
		repository.NewFacilityRepository(dbConn),
		repository.NewCoordinatorRepository(dbConn),
		repository.NewShiftTemplateRepository(dbConn),
		repository.NewNurseRepository(dbConn),
		repository.NewNurseTypeRepository(dbConn),
		shiftRepo,
		repository.NewChatRepository(dbConn),
	)
	outboxRepo := outbox.NewRepository(dbConn)
	tx := db.NewTxRunner(dbConn)

	// Upstreams
	geocoder := geo.NewResilientGeocoder(geo.NewOpenCage(cfg.Geo, log), geo.NewRedisCache(rdb), cfg.Geo.CacheTTL, log)

	gemini, err := assistant.NewGemini(ctx, cfg.Gemini, log)
	if err != nil {
		log.Fatal("Failed to init Gemini client", zap.Error(err))
	}
	intents := assistant.New(gemini, log)
	notifier := messaging.NewOutboxNotifier(outboxRepo, log)

	// Services
	matcher := service.NewMatcher(stores, intents, notifier, tx, cfg.Matching.RadiusMiles, log)
	authService := service.NewAuthService(stores.Admins, cfg.JWT.Secret, cfg.JWT.TTL, log)
	facilityService := service.NewFacilityService(stores, geocoder, tx, log)
	coordinatorService := service.NewCoordinatorService(stores.Coordinators, log)
	nurseService := service.NewNurseService(stores, matcher, geocoder, tx, log)
	nurseTypeService := service.NewNurseTypeService(stores.NurseTypes, tx, log)
	shiftService := service.NewShiftService(stores, notifier, tx, log)
	coordinatorBot := service.NewCoordinatorBot(stores, intents, matcher, notifier, tx, log)
	nurseBot := service.NewNurseBot(stores, intents, matcher, notifier, tx, log)

	// Router
	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:        handler.NewAuthHandler(authService, cfg.JWT.Secure, log),
		Facility:    handler.NewFacilityHandler(facilityService, log),
		Coordinator: handler.NewCoordinatorHandler(coordinatorService, log),
		Nurse:       handler.NewNurseHandler(nurseService, log),
		NurseType:   handler.NewNurseTypeHandler(nurseTypeService, log),
		Shift:       handler.NewShiftHandler(shiftService, log),
		Chat:        handler.NewChatHandler(coordinatorBot, nurseBot, log),
		Admin:       handler.NewAdminHandler(outbox.NewReplayService(outboxRepo, log), log),
	}, httpserver.Options{
		JWTSecret:      cfg.JWT.Secret,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		DB:             dbConn,
		Logger:         log,
	})
	srv := router.Server(cfg.Server.Port)

	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	scheduler := jobs.NewScheduler(outboxRepo, shiftRepo, cfg.Jobs, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return scheduler.Start(gctx)
	})
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		return
	}
	log.Info("Server exited")
}
