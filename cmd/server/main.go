package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"forumhub/internal/chat"
	"forumhub/internal/config"
	"forumhub/internal/db"
	"forumhub/internal/middleware"
	"forumhub/internal/notification"
	"forumhub/internal/presence"
	"forumhub/internal/privatemsg"
	"forumhub/internal/retention"
	"forumhub/internal/user"
	"forumhub/internal/ws"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("❌ Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Platform layer: PostgreSQL + Redis
	database, err := db.NewDatabase(cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("❌ Failed to connect to DB")
	}
	defer database.Close()
	logger.Info().Msg("✅ Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal().Err(err).Msg("❌ Migration failed")
	}
	logger.Info().Msg("✅ Database schema initialized")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal().Err(err).Msg("❌ Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("✅ Connected to Redis")

	// 3. Users & auth
	userRepo := user.NewRepository(database.Conn)
	userService := user.NewService(userRepo, cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	// 4. Presence & the websocket hub
	directory := presence.NewDirectory(presence.NewRedisStore(redisClient), logger)
	presenceHandler := presence.NewHandler(directory)
	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	// 5. Notifications; the hub is the push surface
	notificationRepo := notification.NewRepository(database.Conn)
	notificationService := notification.NewService(notificationRepo, hub, logger)
	notificationHandler := notification.NewHandler(notificationService)

	// 6. Chat + private messaging, both fanning out through notifications
	chatRepo := chat.NewRepository(database.Conn)
	chatService := chat.NewService(chatRepo, userService, notificationService, logger)
	chatHandler := chat.NewHandler(chatService)

	pmRepo := privatemsg.NewRepository(database.Conn)
	pmService := privatemsg.NewService(pmRepo, userService, notificationService, logger)
	pmHandler := privatemsg.NewHandler(pmService)

	wsServer := ws.NewServer(hub, directory, userService, chatService, pmService, logger)

	// 7. Chat retention
	retentionJob := retention.NewJob(chatRepo, cfg.ChatRetentionWindow,
		cfg.ChatRetentionInterval, cfg.ChatRetentionInitialDelay, logger)
	if err := retentionJob.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("❌ Failed to start retention job")
	}
	defer retentionJob.Stop()

	authMiddleware := middleware.NewAuth(userService)

	// 8. Routes
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)

		r.Get("/ws", wsServer.ServeWS)

		r.Get("/api/chat/messages", chatHandler.GetHistory)

		r.Get("/api/presence/{userID}", presenceHandler.GetPresence)

		r.Get("/api/conversations", pmHandler.ListConversations)
		r.Get("/api/conversations/{userID}/messages", pmHandler.GetMessages)
		r.Get("/api/conversations/unread-count", pmHandler.UnreadCount)

		r.Get("/api/notifications", notificationHandler.List)
		r.Get("/api/notifications/unread-count", notificationHandler.UnreadCount)
		r.Put("/api/notifications/read-all", notificationHandler.MarkAllRead)
		r.Put("/api/notifications/{notificationID}/read", notificationHandler.MarkRead)
		r.Get("/api/notifications/settings", notificationHandler.GetSettings)
		r.Put("/api/notifications/settings", notificationHandler.UpdateSettings)
	})

	server := &http.Server{Addr: cfg.Addr, Handler: r}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", cfg.Addr).Msg("🚀 Server starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("❌ Server failed")
	}
	logger.Info().Msg("Server stopped")
}
