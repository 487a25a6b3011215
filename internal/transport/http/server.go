package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"orkutbook/internal/cache"
	"orkutbook/internal/config"
	"orkutbook/internal/database"
	"orkutbook/internal/handler"
	"orkutbook/internal/queue"
	appredis "orkutbook/internal/redis"
	"orkutbook/internal/repository"
	"orkutbook/internal/service"
	"orkutbook/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Run wires the whole application together and serves until interrupted.
// Redis is optional: without it the signed-link cache runs in memory and no
// maintenance workers start.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var (
		links     cache.LinkCache
		publisher queue.Publisher
		consumer  queue.Consumer
	)
	if cfg.RedisURL != "" {
		redisClient, err := appredis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		defer redisClient.Close()

		links = cache.NewLinkCache(redisClient.Client)
		publisher = queue.NewPublisher(redisClient.Client)
		consumer = queue.NewConsumer(redisClient.Client)
	} else {
		log.Println("REDIS_URL not set, using in-memory link cache without workers")
		links = cache.NewMemoryLinkCache()
	}

	mediaService, err := service.NewMediaService(ctx, cfg, links)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	feedService := service.NewFeedService(profileRepo, postRepo, commentRepo, mediaService)
	postService := service.NewPostService(postRepo, mediaService, feedService, publisher)
	commentService := service.NewCommentService(commentRepo, postRepo, feedService)
	profileService := service.NewProfileService(profileRepo, mediaService)

	if consumer != nil {
		manager := worker.NewManager(consumer, worker.NewHandler(mediaService), worker.DefaultManagerConfig())
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	}

	router := NewRouter(RouterConfig{
		FeedHandler:    handler.NewFeedHandler(feedService),
		PostHandler:    handler.NewPostHandler(postService),
		CommentHandler: handler.NewCommentHandler(commentService),
		ProfileHandler: handler.NewProfileHandler(profileService),
		MediaHandler:   handler.NewMediaHandler(mediaService),
		JWTSecret:      cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
