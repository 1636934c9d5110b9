package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	mqcontracts "shiftdesk/contracts/mq"
	"shiftdesk/internal/messaging"
	"shiftdesk/internal/mqhandler"
	"shiftdesk/pkg/config"
	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/mq"
	"shiftdesk/pkg/redis"
	"shiftdesk/pkg/util"
)

const prefetch = 10

func main() {
	env := config.GetConfigEnv()
	cfg, err := config.Load(config.GetEnv("CONFIG_DIR", "config"), env)
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(env)
	defer log.Sync()

	log.Info("Starting worker service...", zap.String("env", env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to init Redis", zap.Error(err))
	}
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, cfg.Relay.DedupTTL, log)
	retryCounter := util.NewRetryCounter(rdb, time.Hour)

	// DLQ publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	sendHandler := mqhandler.NewMessageSendHandler(
		messaging.NewRelayClient(cfg.Relay, log),
		deduper,
		retryCounter,
		publisher,
		cfg.Relay.DeliveryDelay,
		cfg.Relay.MaxRetries,
		log,
	)

	log.Info("Init consumer", zap.String("queue", mqcontracts.QueueMessageSend))
	consumer, err := mq.NewConsumer(
		cfg.MQ.URL,
		mqcontracts.QueueMessageSend,
		mqcontracts.RoutingKeyMessageSend,
		prefetch,
		log,
	)
	if err != nil {
		log.Fatal("Message consumer init failed", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetHandler(sendHandler.Handle)

	// Health + metrics
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	srv := &http.Server{Addr: cfg.Worker.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.StartConsuming(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down worker...")
		consumer.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("Worker running")
	if err := g.Wait(); err != nil {
		log.Error("Worker exited with error", zap.Error(err))
		return
	}
	log.Info("Worker exited")
}
