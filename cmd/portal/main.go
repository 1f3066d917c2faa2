package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aadrigaar/portal-productos/internal/auth"
	"github.com/aadrigaar/portal-productos/internal/cache"
	"github.com/aadrigaar/portal-productos/internal/config"
	"github.com/aadrigaar/portal-productos/internal/domain"
	gqlschema "github.com/aadrigaar/portal-productos/internal/graphql"
	"github.com/aadrigaar/portal-productos/internal/handler"
	"github.com/aadrigaar/portal-productos/internal/hub"
	"github.com/aadrigaar/portal-productos/internal/presence"
	"github.com/aadrigaar/portal-productos/internal/repository"
	"github.com/aadrigaar/portal-productos/internal/service"
	"github.com/aadrigaar/portal-productos/pkg/database"
	"github.com/aadrigaar/portal-productos/pkg/jwt"
	"github.com/aadrigaar/portal-productos/pkg/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Msg("starting portal server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.ProductModel{},
		&domain.OrderModel{},
		&domain.OrderItemModel{},
		&domain.ChatMessageModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	userRepo := repository.NewGormUserRepository(db)
	productRepo := repository.NewGormProductRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	var historyCache cache.HistoryCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisHistoryCache(cfg.Redis, "chat:history")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		historyCache = redisCache
		logger.Info().Str("address", cfg.Redis.Address).Msg("history cache enabled")
	}

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Duration, cfg.JWT.Issuer)
	verifier := auth.NewVerifier(tokens, userRepo)
	middleware := auth.NewMiddleware(verifier)

	chatHub := hub.NewHub()
	registry := presence.NewRegistry()

	userService := service.NewUserService(userRepo, tokens)
	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(orderRepo, productRepo)
	chatService := service.NewChatService(chatHub, registry, messageRepo, cfg.Chat.HistoryLimit)
	historyService := service.NewHistoryService(messageRepo, historyCache, cfg.Redis.CacheTTL)

	schema, err := gqlschema.NewSchema(productService, orderService)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build graphql schema")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(*logger))

	dbPing := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}

	wsHandler := handler.NewWSHandler(verifier, chatService, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(
		userService, productService, orderService,
		historyService, chatService, middleware, schema, dbPing,
	)
	httpHandler.Register(router, wsHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("server stopped")
}
