package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	accountapp "pair_chat_service/internal/account/app"
	accountdomain "pair_chat_service/internal/account/domain"
	accountrepo "pair_chat_service/internal/account/repository"
	accountrouter "pair_chat_service/internal/account/router"
	"pair_chat_service/internal/pairing/app"
	"pair_chat_service/internal/pairing/repository"
	"pair_chat_service/internal/pairing/router"
	"pair_chat_service/pkg/config"
	"pair_chat_service/pkg/database"
	"pair_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.PairingService, config.EnvConfig.PairingServiceLogPath)
	cfg := config.LoadConfig[config.Pairing](config.EnvConfig.PairingService, config.EnvConfig.PairingServiceYAMLPath)

	// 建立 Mongo 連線 (rooms / messages / users / ratings / words / accounts)
	ctx := context.Background()
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Mongo.User, cfg.Mongo.Password, cfg.Mongo.Host, cfg.Mongo.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.Mongo.RetryCount,
			RetryInterval: time.Duration(cfg.Mongo.RetryInterval),
		},
		cfg.Mongo.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	// 建立 Redis 連線 (Pub/Sub + session)
	rdb, err := newRedis(cfg)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// 初始化 Repository
	pubsub := repository.NewRedisPubSub(rdb)
	roomRepo := repository.NewMongoRoomRepository(mongo.Database, pubsub)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database, pubsub)
	userRepo := repository.NewMongoUserRepository(mongo.Database)
	wordRepo := repository.NewMongoWordRepository(mongo.Database)
	accountRepo := accountrepo.NewMongoAccountRepository(mongo.Database)

	// 初始化 UseCases
	lifecycleUC := app.NewLifecycleUseCase(roomRepo, msgRepo)
	matcherUC := app.NewMatcherUseCase(roomRepo, userRepo, lifecycleUC)
	directory := app.NewDirectoryCache(userRepo)
	hub := app.NewSubscriptionHub(pubsub, roomRepo, msgRepo, userRepo, directory)
	ratingUC := app.NewRatingUseCase(userRepo, msgRepo)
	words := app.NewWordDirectory(wordRepo)
	accountUC := accountapp.NewAccountUseCase(accountRepo, userRepo, cfg.SessionTTL,
		database.NewRedisRepository[accountdomain.AccountSession](rdb))

	// 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.PairingServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	// 註冊路由
	accountrouter.RegisterRoutes(r, accountapp.NewAccountHTTPHandler(accountUC))
	router.RegisterRoutes(r, app.NewPairingWebsocketHandler(
		matcherUC, lifecycleUC, hub, ratingUC,
		userRepo, msgRepo, roomRepo, directory, words,
	))

	// Listen
	port := ":" + cfg.Port
	log.Printf("Pairing Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}

// newRedis yaml 有給 addr 就走單機, 否則讀 .env 的 sentinel 設定
func newRedis(cfg config.Pairing) (*redis.Client, error) {
	if cfg.Redis.Addr != "" {
		return database.NewRedisSimpleClient(cfg.Redis.Addr, cfg.Redis.RedisDB)
	}
	masterName, sentinel := config.GetRedisSetting()
	return database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
}
