package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-api/access"
	"marketplace-api/auth"
	"marketplace-api/cache"
	"marketplace-api/config"
	"marketplace-api/events"
	"marketplace-api/handlers"
	"marketplace-api/routes"
	"marketplace-api/service"
	"marketplace-api/store"
	"marketplace-api/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  .env not loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize tracing: ", err)
	}

	db, err := config.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	users := store.NewUserStore(db)
	roles := store.NewRoleStore(db)
	profiles := store.NewProfileStore(db)
	orders := store.NewOrderStore(db)
	resolver := access.NewResolver(roles, profiles)
	tokens := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTTTL)

	var orderCache cache.OrderCache = cache.Nop{}
	var closeRedis func() error
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("Failed to connect to redis: ", err)
		}
		orderCache = cache.NewRedisOrderCache(rdb, cfg.OrderCacheTTL)
		closeRedis = rdb.Close
		log.Printf("✅ Order cache enabled (%s)", cfg.RedisAddr)
	}

	listeners := []service.StatusListener{cache.Invalidator{Cache: orderCache}}
	var publisher *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaStatusTopic, cfg.ServiceName, 1024)
		publisher.Start()
		listeners = append(listeners, publisher)
		log.Printf("✅ Status events enabled (topic %s)", cfg.KafkaStatusTopic)
	}

	statusService := service.NewOrderStatusService(tokens, orders, resolver,
		service.WithCache(orderCache),
		service.WithListeners(listeners...),
	)

	h := &handlers.Handler{
		Users:    users,
		Roles:    roles,
		Profiles: profiles,
		Orders:   orders,
		Status:   statusService,
		Tokens:   tokens,
		Cache:    orderCache,
	}

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()
	routes.SetupRoutes(r, h, resolver)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           tracing.WrapHandler(r, cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running on http://localhost%s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if publisher != nil {
		publisher.Close()
		if err := publisher.WaitClosed(shutdownCtx); err != nil {
			log.Printf("kafka flush: %v", err)
		}
	}
	if closeRedis != nil {
		if err := closeRedis(); err != nil {
			log.Printf("redis close: %v", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
