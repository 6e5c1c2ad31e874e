package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chatService/configs"
	"chatService/internal/handlers"
	"chatService/internal/logger"
)

var (
	httpServer *HttpServer
	once       sync.Once
)

type HttpServer struct {
	config            *configs.Config
	router            *gin.Engine
	restHandler       *handlers.RestHandler
	socketChatHandler *handlers.SocketChatHandler
	log               zerolog.Logger
}

func NewHttpServer(
	config *configs.Config,
	restHandler *handlers.RestHandler,
	socketChatHandler *handlers.SocketChatHandler,
) *HttpServer {
	once.Do(func() {
		httpServer = &HttpServer{
			config:            config,
			restHandler:       restHandler,
			socketChatHandler: socketChatHandler,
			log:               logger.For("http"),
		}
	})
	return httpServer
}

func (hs *HttpServer) Run() {
	hs.initializeGin()
	hs.setupRoutes()

	server := hs.startServer()
	hs.waitForShutdown(server)
}

func (hs *HttpServer) initializeGin() {
	gin.SetMode(hs.config.Viper.GetString("server.mode"))
	hs.router = gin.New()
	hs.router.Use(gin.Recovery())
}

func (hs *HttpServer) setupRoutes() {
	hs.router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	jwtKey := []byte(hs.config.Viper.GetString("identity.jwt_key"))

	api := hs.router.Group("/api/v1")
	api.Use(handlers.IdentityMiddleware(jwtKey))
	{
		api.POST("/conversations", hs.restHandler.CreateConversation)
		api.GET("/conversations/:id", hs.restHandler.GetConversation)
		api.GET("/conversations/:id/messages", hs.restHandler.GetConversationMessages)
		api.POST("/conversations/:id/messages", hs.restHandler.SendMessage)
		api.POST("/conversations/:id/leave", hs.restHandler.LeaveConversation)
		api.GET("/users/:userID/conversations", hs.restHandler.GetUserConversations)
		api.PUT("/messages/:id/read", hs.restHandler.MarkMessageAsRead)
		api.GET("/messages/:id/receipt", hs.restHandler.GetReceipt)
		api.DELETE("/messages/:id", hs.restHandler.DeleteMessage)
		api.POST("/attachments", hs.restHandler.UploadAttachment)
	}

	hs.router.GET("/ws/chat/:conversationID", hs.socketChatHandler.HandleSocketChatRoute)
}

func (hs *HttpServer) startServer() *http.Server {
	addr := fmt.Sprintf(":%d", hs.config.Viper.GetInt("server.port"))
	server := &http.Server{
		Addr:    addr,
		Handler: hs.router,
	}

	go func() {
		hs.log.Info().Str("addr", addr).Msg("http server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hs.log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	return server
}

func (hs *HttpServer) waitForShutdown(server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	hs.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		hs.log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	hs.log.Info().Msg("server exiting")
}
