package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"message-service/internal/auth"
	"message-service/internal/config"
	"message-service/internal/db"
	"message-service/internal/handlers"
	"message-service/internal/middleware"
	"message-service/internal/observability"
	"message-service/internal/rabbitmq"
	"message-service/internal/repositories"
	"message-service/internal/telemetry"
	"message-service/internal/ws"
)

const serviceName = "message-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.Mode(publisher))
	audit := telemetry.NewAuditEmitter(publisher, "audit.messages", serviceName, cfg.Environment)

	tokens := auth.NewTokenService(cfg.PrivateKey)

	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()

	userHandler := handlers.NewUserHandler(userRepo, groupRepo, tokens, audit)
	groupHandler := handlers.NewGroupHandler(groupRepo, messageRepo, userRepo, hub, audit)
	groupFeed := ws.NewGroupFeedHandler(hub, groupRepo, tokens)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.Auth(tokens)
	memberOnly := middleware.RequireGroupMember(groupRepo)
	ownerOnly := middleware.RequireGroupOwner(groupRepo)

	router.POST("/api/user/signup", userHandler.Signup)
	router.POST("/api/user/signin", middleware.ValidateSignin(), userHandler.Signin)

	router.GET("/api/user/:username", authRequired, userHandler.Get)
	router.PUT("/api/user/:username", authRequired, userHandler.Update)
	router.DELETE("/api/user/:username", authRequired, userHandler.Delete)
	router.GET("/api/user/:username/groups", authRequired, userHandler.Groups)

	router.POST("/api/group", authRequired, groupHandler.Create)
	router.POST("/api/group/:groupId/user", authRequired, memberOnly, groupHandler.AddUser)
	router.DELETE("/api/group/:groupId/user", authRequired, ownerOnly, groupHandler.RemoveUser)
	router.POST("/api/group/:groupId/message", authRequired, memberOnly, groupHandler.AddMessage)
	router.GET("/api/group/:groupId/messages", authRequired, memberOnly, groupHandler.Messages)

	router.GET("/ws/group/:groupId", groupFeed.Handle)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
