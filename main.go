package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"popup-service/internal/db"
	"popup-service/internal/handlers"
	"popup-service/internal/middleware"
	"popup-service/internal/notify"
	"popup-service/internal/observability"
	"popup-service/internal/rabbitmq"
	"popup-service/internal/repositories"
	"popup-service/internal/service"
	"popup-service/internal/stream"
	"popup-service/internal/telemetry"
)

func main() {
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.SetupTracing(ctx, getEnv("OTLP_ENDPOINT", ""), "popup-service")
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	broadcastRepo := repositories.NewBroadcastRepo(database)
	pushRepo := repositories.NewPushSubscriptionRepo(database)
	smsRepo := repositories.NewSMSSubscriberRepo(database)

	hub := stream.NewHub()

	publisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "popup.events"))
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, "audit.popup", "popup-service", getEnv("ENVIRONMENT", "dev"))

	pushCfg := notify.WebPushConfig{
		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		Subscriber:      getEnv("VAPID_CLAIM_EMAIL", "mailto:admin@local"),
	}
	dispatcher := notify.NewDispatcher(
		pushRepo,
		smsRepo,
		notify.NewWebPushSender(pushCfg),
		notify.NewHTTPGatewaySender(getEnv("SMS_GATEWAY_URL", "")),
	)

	broadcastService := service.NewBroadcastService(broadcastRepo, hub, dispatcher, publisher, audit)

	reapInterval, err := time.ParseDuration(getEnv("REAP_INTERVAL", "5m"))
	if err != nil {
		log.Fatalf("invalid REAP_INTERVAL: %v", err)
	}
	reaper := service.NewReaper(broadcastRepo, hub, publisher, reapInterval)
	go reaper.Run(ctx)

	broadcastHandler := handlers.NewBroadcastHandler(broadcastService)
	subscriptionHandler := handlers.NewSubscriptionHandler(pushRepo, smsRepo)
	systemHandler := handlers.NewSystemHandler(pushCfg, dispatcher)
	streamHandler := stream.NewHandler(hub)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(middleware.NoStore())

	router.POST("/broadcasts", broadcastHandler.Create)
	router.GET("/broadcasts", broadcastHandler.List)
	router.POST("/delete_broadcast", broadcastHandler.Delete)

	router.POST("/subscribe", subscriptionHandler.SubscribePush)
	router.POST("/subscribe_sms", subscriptionHandler.SubscribeSMS)

	router.GET("/stream", streamHandler.HandleSSE)
	router.GET("/ws/stream", streamHandler.HandleWS)

	router.GET("/health", systemHandler.Health)
	router.GET("/vapid_public_key", systemHandler.VAPIDPublicKey)
	router.GET("/test_push", systemHandler.TestPush)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := getEnv("PORT", "5000")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
