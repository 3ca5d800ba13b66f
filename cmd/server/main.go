package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devsync/teamchat-api/internal/cache"
	"github.com/devsync/teamchat-api/internal/config"
	"github.com/devsync/teamchat-api/internal/credential"
	"github.com/devsync/teamchat-api/internal/database"
	"github.com/devsync/teamchat-api/internal/github"
	"github.com/devsync/teamchat-api/internal/handlers"
	applog "github.com/devsync/teamchat-api/internal/log"
	"github.com/devsync/teamchat-api/internal/middleware"
	"github.com/devsync/teamchat-api/internal/repository"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/devsync/teamchat-api/internal/ws"
	"github.com/devsync/teamchat-api/internal/zoom"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg := config.Load()
	applog.Init(cfg.Env)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	cipher, err := credential.NewCipher(cfg.SecretKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid SECRET_KEY")
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	db := database.GetDB()

	// Setup session store with Redis
	store, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		cfg.RedisAddr,
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis session store")
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})

	gateway, err := github.New(cfg.GitHubAPIURL, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create GitHub client")
	}
	var provider services.Gateway = gateway
	if cfg.UsernameCacheTTL > 0 {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		logins := cache.NewUsernameStore(rdb, cfg.UsernameCacheTTL)
		provider = services.WithUsernameResolver(gateway, cache.NewCachingResolver(gateway, logins))
		log.Info().Dur("ttl", cfg.UsernameCacheTTL).Msg("provider username cache enabled")
	}

	var meetings services.MeetingCreator
	if cfg.ZoomEnabled() {
		meetings = zoom.New(zoom.Config{
			AccountID:    cfg.ZoomAccountID,
			ClientID:     cfg.ZoomClientID,
			ClientSecret: cfg.ZoomClientSecret,
			APIURL:       cfg.ZoomAPIURL,
			TokenURL:     cfg.ZoomTokenURL,
		}, nil)
	}

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	phaseRepo := repository.NewPhaseRepository(db)
	creds := services.NewCredentials(cipher)
	hub := ws.NewHub()

	chatService := services.NewChatService(userRepo, chatRepo, provider, creds)
	phaseService := services.NewPhaseService(phaseRepo)
	provisioner := services.NewProvisioner(userRepo, chatRepo, provider, creds, services.ProvisionerConfig{
		DefaultBranch: cfg.GitHubDefaultBranch,
		FanOutLimit:   cfg.GitHubFanOutLimit,
	})
	messageService := services.NewMessageService(repository.NewMessageRepository(db), chatRepo, chatService, hub)
	taskService := services.NewTaskService(repository.NewTaskRepository(db), chatRepo, services.NewAIService(cfg.OpenAIAPIKey))

	rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 10*time.Minute)
	go rateLimiter.Run()
	defer rateLimiter.Stop()

	r := handlers.SetupRouter(handlers.Dependencies{
		Env:          cfg.Env,
		JWTSecret:    cfg.JWTSecret,
		CORSOrigin:   cfg.CORSOrigin,
		SessionStore: store,
		RateLimiter:  rateLimiter,
		Users:        handlers.NewUserHandler(services.NewAuthService(userRepo, creds), cfg.JWTSecret, cfg.AccessTokenTTL),
		Chats:        handlers.NewChatHandler(chatService, provisioner),
		Messages:     handlers.NewMessageHandler(messageService),
		Repos:        handlers.NewRepoHandler(services.NewRepoService(userRepo, provider, creds)),
		Phases:       handlers.NewPhaseHandler(phaseService),
		Tasks:        handlers.NewTaskHandler(taskService),
		Meetings:     handlers.NewMeetingHandler(services.NewMeetingService(chatRepo, meetings)),
		ChatService:  chatService,
		PhaseService: phaseService,
		Hub:          hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
