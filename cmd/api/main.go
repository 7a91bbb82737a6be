package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/hobbiz/hobbiz-backend/internal/cache"
	"github.com/hobbiz/hobbiz-backend/internal/config"
	"github.com/hobbiz/hobbiz-backend/internal/db"
	"github.com/hobbiz/hobbiz-backend/internal/events"
	appmw "github.com/hobbiz/hobbiz-backend/internal/middleware"
	"github.com/hobbiz/hobbiz-backend/internal/push"
	"github.com/hobbiz/hobbiz-backend/internal/server"
	"github.com/hobbiz/hobbiz-backend/internal/storage"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	jww "github.com/spf13/jwalterweatherman"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Set at build time with -ldflags "-X main.gitSHA=... -X main.buildTime=...".
var (
	gitSHA    = "dev"
	buildTime = ""
)

// summaryTTL matches the client's unread polling interval.
const summaryTTL = 30 * time.Second

func main() {
	_ = godotenv.Load()
	jww.SetStdoutThreshold(jww.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		jww.FATAL.Fatalf("config load error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		jww.FATAL.Fatalf("mongo connect error: %v", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	authMw, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
	if err != nil {
		jww.FATAL.Fatalf("failed to init firebase auth: %v", err)
	}

	files, err := newStore(ctx, cfg)
	if err != nil {
		jww.FATAL.Fatalf("attachment storage: %v", err)
	}

	bus := newBus(ctx, cfg)
	defer bus.Close()

	dispatcher := push.New(ctx, push.Config{
		CredentialsPath: cfg.FirebaseCredentialPath,
		ProjectID:       cfg.FirebaseProjectID,
		RatePerSecond:   cfg.PushRatePerSecond,
	})

	deps := server.Deps{
		Mongo:          mongoClient.Database(cfg.MongoDatabase),
		Auth:           authMw,
		Files:          files,
		Summaries:      newSummaryCache(ctx, cfg),
		Bus:            bus,
		Pusher:         dispatcher,
		AllowedOrigins: cfg.AllowedOrigins,
		SHA:            gitSHA,
		BuildTime:      buildTime,
	}
	if cfg.StorageBucket == "" {
		deps.UploadDir = cfg.UploadDir
	}
	srv := server.New(deps)

	if err := bus.Subscribe(ctx, srv.Notifications().HandleMessageCreated); err != nil {
		jww.FATAL.Fatalf("subscribe to events: %v", err)
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		jww.INFO.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	// MySQL may take a while on a cold Cloud SQL instance; serve health checks
	// meanwhile.
	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			jww.ERROR.Printf("db connect error: %v", err)
			return
		}
		if err := db.Migrate(conn); err != nil {
			jww.ERROR.Printf("auto migrate error: %v", err)
		}
		srv.SetDB(conn)
		jww.INFO.Printf("database ready")
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			jww.FATAL.Fatalf("server stopped: %v", err)
		}
	case <-ctx.Done():
		jww.INFO.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			jww.ERROR.Printf("shutdown: %v", err)
		}
	}
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "create storage client")
		}
		return storage.NewGCS(client, cfg.StorageBucket), nil
	}
	jww.INFO.Printf("STORAGE_BUCKET not set, keeping attachments in %s", cfg.UploadDir)
	return storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
}

func newBus(ctx context.Context, cfg *config.Config) events.Bus {
	if cfg.NatsURL != "" {
		nb, err := events.NewNats(ctx, cfg.NatsURL)
		if err == nil {
			return nb
		}
		jww.WARN.Printf("NATS unavailable, delivering events in-process: %+v", err)
	}
	return events.NewLocal()
}

func newSummaryCache(ctx context.Context, cfg *config.Config) cache.SummaryCache {
	if cfg.RedisAddr == "" {
		return cache.NewNoop()
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		jww.WARN.Printf("redis unavailable, summaries are not cached: %v", err)
		_ = rdb.Close()
		return cache.NewNoop()
	}
	return cache.NewRedis(rdb, summaryTTL)
}
