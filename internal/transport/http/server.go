package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamify/internal/cache"
	"streamify/internal/config"
	"streamify/internal/database"
	"streamify/internal/handler"
	"streamify/internal/logging"
	"streamify/internal/queue"
	"streamify/internal/redis"
	"streamify/internal/repository"
	"streamify/internal/service"
	"streamify/internal/storage"
	"streamify/internal/transport/http/middleware"
	"streamify/internal/worker"
)

const (
	// ShutdownTimeout bounds how long in-flight requests get to finish.
	ShutdownTimeout = 10 * time.Second

	// tokenPurgeInterval is how often expired refresh tokens are deleted.
	tokenPurgeInterval = time.Hour

	// tokenRetention keeps expired tokens around long enough to detect reuse.
	tokenRetention = 7 * 24 * time.Hour

	authRateWindow = time.Minute
)

// Run wires the application and serves until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx = logging.WithLogger(ctx, logger)

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	// 3. Redis and object storage
	redisClient, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}

	// 4. Repositories and services
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	playlistRepo := repository.NewPlaylistRepository(db)
	historyRepo := repository.NewWatchHistoryRepository(db)
	tx := repository.NewTxRunner(db)

	feedCache := cache.NewFeedCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)

	userService := service.NewUserService(userRepo, subscriptionRepo, historyRepo)
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	mediaService := service.NewMediaService(store)
	videoService := service.NewVideoService(videoRepo, userRepo, likeRepo, subscriptionRepo, historyRepo, publisher)
	commentService := service.NewCommentService(commentRepo, videoRepo)
	tweetService := service.NewTweetService(tweetRepo, userRepo, likeRepo)
	likeService := service.NewLikeService(likeRepo, tx)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, userRepo, tx, publisher)
	playlistService := service.NewPlaylistService(playlistRepo, videoRepo, userRepo, tx)
	feedService := service.NewFeedService(feedCache, videoRepo, subscriptionRepo, likeRepo)

	// 5. Feed workers
	workers := worker.NewManager(
		queue.NewConsumer(redisClient.Client),
		worker.NewHandler(feedCache, subscriptionRepo, videoRepo),
		worker.ManagerConfig{WorkerCount: cfg.WorkerCount},
	)
	if err := workers.Start(ctx); err != nil {
		return fmt.Errorf("failed to start feed workers: %w", err)
	}
	defer workers.Stop()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go purgeRefreshTokens(janitorCtx, authService)

	// 6. Router
	router := NewRouter(RouterConfig{
		UserHandler:         handler.NewUserHandler(userService, authService, mediaService, cfg),
		VideoHandler:        handler.NewVideoHandler(videoService, mediaService, feedService),
		CommentHandler:      handler.NewCommentHandler(commentService),
		TweetHandler:        handler.NewTweetHandler(tweetService),
		LikeHandler:         handler.NewLikeHandler(likeService),
		SubscriptionHandler: handler.NewSubscriptionHandler(subscriptionService),
		PlaylistHandler:     handler.NewPlaylistHandler(playlistService),
		HealthHandler: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": db,
			"redis":    handler.PingFunc(redisClient.Ping),
		}),
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
		AuthLimiter: middleware.NewIPRateLimiter(cfg.AuthRateLimit, authRateWindow, cfg.AuthRateLimit, 10*time.Minute),

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	// 7. Serve
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "port", cfg.ServerPort)
		srvErr <- srv.ListenAndServe()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func purgeRefreshTokens(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := authService.PurgeExpired(ctx, tokenRetention); err != nil {
				logging.Component(ctx, "token_janitor").Error("purge expired refresh tokens failed", "error", err)
			}
		}
	}
}
