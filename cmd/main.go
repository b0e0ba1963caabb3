package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gitlab.com/code-engine.net/internal/adapter/amqp/submissionqueue"
	"gitlab.com/code-engine.net/internal/adapter/crypto"
	"gitlab.com/code-engine.net/internal/adapter/logging"
	"gitlab.com/code-engine.net/internal/adapter/postgres/taskstore"
	"gitlab.com/code-engine.net/internal/adapter/redis/statuscache"
	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/services/judge"
	logger2 "gitlab.com/code-engine.net/internal/global/logger"
	http2 "gitlab.com/code-engine.net/internal/http"
)

func main() {
	InitReader()
	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger2.Info("Starting code engine service")

	logger := logger2.Logger

	sysCfg := config.NewSystemConfig()
	if sysCfg.DebugMode {
		logger = logging.NewDebugLogger()
	}

	db, err := setupDatabase(sysCfg.PostgresConfig)
	if err != nil {
		panic(err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password, // no password set
		DB:       sysCfg.RedisConfig.DB,       // use default DB
	})

	// SECONDARY PORTS
	taskRepo := taskstore.NewTaskStatusRepository(db, logger)
	statusCache := statuscache.NewTaskStatusCache(redisClient, sysCfg.RedisConfig.StatusTTL, logger)

	connector, err := submissionqueue.NewConnector(sysCfg.AmqpConfig, logger)
	if err != nil {
		logger.Error("Failed to connect to broker", "error", err)
		os.Exit(1)
	}
	publishChannel, err := connector.OpenChannel()
	if err != nil {
		logger.Error("Failed to open publish channel", "error", err)
		os.Exit(1)
	}
	publisher := submissionqueue.NewPublisher(publishChannel, connector.QueueName(), logger)

	//primary ports
	tokenService := crypto.NewTokenService(sysCfg.JwtConfig)

	//services
	judgeSvc := judge.NewJudgeService(taskRepo, statusCache, publisher, sysCfg.JudgeConfig, logger)
	serviceProvider := http2.NewServiceProvider(judgeSvc, tokenService, sysCfg.JwtConfig)

	//consumer pool
	ctxBg := context.Background()
	consumeCtx, stopConsuming := context.WithCancel(ctxBg)
	consumer := submissionqueue.NewConsumer(
		connector,
		sysCfg.JudgeConfig.WorkerCount,
		sysCfg.JudgeConfig.QueueCapacity,
		judgeSvc,
		logger,
	)
	if err := consumer.Start(consumeCtx); err != nil {
		logger.Error("Failed to start consumer", "error", err)
		os.Exit(1)
	}

	//server
	httServer := http2.NewServer(sysCfg.ServerConfig.Port, "codeEngine", *serviceProvider, logger)
	err = httServer.Init()
	if err != nil {
		panic(err)
	}
	httServer.Start(ctxBg)

	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctxBg, 30*time.Second)
	defer cancel()
	httServer.Stop(ctx)
	stopConsuming()
	consumer.Wait()
	_ = connector.Close()
	_ = db.Close()
	_ = redisClient.Close()

	logger.Info("successfully shutdown server")
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(cfg *config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Url)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// InitReader loads environment variables from an env file. With an explicit
// environment argument the named file must exist; otherwise .env is loaded
// when present.
func InitReader() {
	if len(os.Args) >= 2 {
		environment := os.Args[1]
		if err := godotenv.Load(environment + ".env"); err != nil {
			log.Fatalf("Error loading %s.env file", environment)
		}
		return
	}
	_ = godotenv.Load()
}
