package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UkralStul/yatube/internal/auth"
	"github.com/UkralStul/yatube/internal/cache"
	"github.com/UkralStul/yatube/internal/config"
	"github.com/UkralStul/yatube/internal/domain"
	"github.com/UkralStul/yatube/internal/live"
	"github.com/UkralStul/yatube/internal/logs"
	"github.com/UkralStul/yatube/internal/media"
	"github.com/UkralStul/yatube/internal/storage"
	"github.com/UkralStul/yatube/internal/storage/inmemory"
	"github.com/UkralStul/yatube/internal/storage/sqlstore"
	"github.com/UkralStul/yatube/internal/web"

	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm/logger"
)

func main() {
	storageType := flag.String("storage", "in-memory", "Storage type (in-memory, postgres or mysql)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.LogFile != "" {
		closer := logs.EnableFile(cfg.LogFile)
		defer closer.Close()
	}
	log.SetOutput(logs.Writer())
	middleware.DefaultLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(logs.Writer(), "", log.LstdFlags),
		NoColor: cfg.IsProduction(),
	})

	logs.LogJSON("INFO", "starting server", map[string]interface{}{
		"storage": *storageType,
		"env":     cfg.Env,
		"port":    cfg.Port,
	})

	var store storage.Storage
	switch *storageType {
	case sqlstore.DriverPostgres, sqlstore.DriverMySQL:
		if cfg.DatabaseURL == "" {
			log.Fatalf("DATABASE_URL must be set for %s storage", *storageType)
		}
		logLevel := logger.Warn
		if !cfg.IsProduction() {
			logLevel = logger.Info
		}
		sqlStore, err := sqlstore.Open(*storageType, cfg.DatabaseURL, logLevel)
		if err != nil {
			log.Fatalf("failed to connect to %s: %v", *storageType, err)
		}
		defer sqlStore.Close()
		if err := sqlStore.Migrate(); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		store = sqlStore
	case "in-memory":
		memStore := inmemory.New()
		// Заполним данными для ручной проверки
		fillWithMockData(memStore)
		store = memStore
	default:
		log.Fatalf("unknown storage type %q", *storageType)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mediaStore, err := newMediaStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to set up media storage: %v", err)
	}

	server, err := web.NewServer(store, web.Options{
		PostsPerPage: cfg.PostsPerPage,
		Cache:        cache.NewLRU(cfg.CacheSize, cfg.CacheTTL),
		Sessions:     auth.NewSessions(store, cfg.SecretKey, cfg.SessionTTL, cfg.IsProduction()),
		Media:        mediaStore,
		Observer:     live.NewCommentObserver(),
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("connect to http://localhost:%s/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.LogJSON("ERROR", "graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}

func newMediaStorage(ctx context.Context, cfg *config.Config) (media.Storage, error) {
	if cfg.MediaBackend == "s3" {
		return media.NewS3(ctx, media.S3Config{
			Bucket:          cfg.AWSBucket,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
	}
	if err := os.MkdirAll(cfg.MediaRoot, 0o755); err != nil {
		return nil, err
	}
	return media.NewLocal(cfg.MediaRoot, cfg.MediaURL), nil
}

func fillWithMockData(s storage.Storage) {
	ctx := context.Background()

	hash, err := auth.HashPassword("yatube-demo")
	if err != nil {
		log.Fatalf("fillWithMockData: failed to hash password: %v", err)
	}

	leo, err := s.CreateUser(ctx, &domain.User{Username: "leo", FirstName: "Лев", LastName: "Толстой", PasswordHash: hash})
	if err != nil {
		log.Fatalf("fillWithMockData: failed to create user leo: %v", err)
	}
	reader, err := s.CreateUser(ctx, &domain.User{Username: "reader", PasswordHash: hash})
	if err != nil {
		log.Fatalf("fillWithMockData: failed to create user reader: %v", err)
	}

	group, err := s.CreateGroup(ctx, &domain.Group{
		Title:       "Лев Толстой - зеркало русской революции",
		Slug:        "leo",
		Description: "Группа, посвящённая творчеству Льва Толстого.",
	})
	if err != nil {
		log.Fatalf("fillWithMockData: failed to create group: %v", err)
	}

	post, err := s.CreatePost(ctx, &domain.Post{
		Text:     "Все счастливые семьи похожи друг на друга, каждая несчастливая семья несчастлива по-своему.",
		AuthorID: leo.ID,
		GroupID:  &group.ID,
	})
	if err != nil {
		log.Fatalf("fillWithMockData: failed to create post: %v", err)
	}

	if _, err := s.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: reader.ID, Text: "Отличное начало!"}); err != nil {
		log.Fatalf("fillWithMockData: failed to create comment: %v", err)
	}
	if _, err := s.CreateFollow(ctx, &domain.Follow{UserID: reader.ID, AuthorID: leo.ID}); err != nil {
		log.Fatalf("fillWithMockData: failed to create follow: %v", err)
	}

	log.Printf("Mock data filled successfully. Users leo and reader share password %q, post ID: %d", "yatube-demo", post.ID)
}
