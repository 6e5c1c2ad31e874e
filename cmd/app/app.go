package app

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"chatService/configs"
	"chatService/internal/handlers"
	"chatService/internal/hub"
	"chatService/internal/logger"
	"chatService/internal/repositories"
	"chatService/internal/servers/database"
	"chatService/internal/servers/http"
	"chatService/internal/services"
)

var (
	app  *App
	once sync.Once
)

type App struct {
	ctx     context.Context
	configs *configs.Config
	redis   *redis.Client
}

func GetApp() *App {
	once.Do(func() {
		app = &App{}
	})
	return app
}

func (app *App) Run() {
	app.ctx = context.Background()
	app.configs = configs.GetConfig()

	logger.Setup(
		app.configs.Viper.GetString("log.level"),
		app.configs.Viper.GetBool("log.pretty"),
	)
	log := logger.For("app")

	db := database.GetDB(app.configs)
	chatRepo := repositories.NewChatRepository(db)
	chatService := services.NewChatService(chatRepo)

	redisEnabled := app.configs.Viper.GetBool("redis.enabled")
	if redisEnabled {
		app.redis = redis.NewClient(&redis.Options{
			Addr: app.configs.Viper.GetString("redis.addr"),
		})
	}

	// Broadcast bus: local hub, relayed over Redis when more than one
	// instance shares the traffic.
	localHub := hub.NewHub()
	var bus hub.Bus = localHub
	if redisEnabled {
		redisBus := hub.NewRedisBus(localHub, app.redis, app.configs.Viper.GetString("redis.broadcast_channel"))
		go func() {
			if err := redisBus.Run(app.ctx); err != nil && app.ctx.Err() == nil {
				log.Error().Err(err).Msg("redis broadcast relay stopped")
			}
		}()
		bus = redisBus
	}

	// Domain events go to the Redis stream when available, otherwise to the
	// structured log.
	var sink services.EventSink
	if redisEnabled {
		sink = services.NewRedisStreamSink(app.redis, app.configs.Viper.GetString("redis.events_stream"))
	} else {
		sink = services.NewLogEventSink()
	}
	publisher := services.NewAsyncEventPublisher(sink)
	defer publisher.Close()

	var fileManagerService *services.FileManagerService
	if app.configs.Viper.GetBool("minio.enabled") {
		minioService, err := services.NewMinioService(app.configs)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize minio")
		}
		fileManagerService = services.NewFileManagerService(minioService)
	}

	jwtKey := []byte(app.configs.Viper.GetString("identity.jwt_key"))
	restHandler := handlers.NewRestHandler(chatService, publisher, fileManagerService)
	socketChatHandler := handlers.NewSocketChatHandler(bus, chatService, publisher, jwtKey)

	http.NewHttpServer(app.configs, restHandler, socketChatHandler).Run()

	localHub.Close()
}
