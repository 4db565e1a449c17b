package main

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/example/fritter/internal/platform/auth"
	"github.com/example/fritter/internal/platform/db"
	"github.com/example/fritter/internal/platform/events"
	"github.com/example/fritter/internal/platform/httpserver"
	"github.com/example/fritter/internal/platform/logging"
	"github.com/example/fritter/internal/platform/natsconn"
	"github.com/example/fritter/internal/platform/run"
	"github.com/example/fritter/services/freets/internal/blocks"
	"github.com/example/fritter/services/freets/internal/cache"
	"github.com/example/fritter/services/freets/internal/comments"
	"github.com/example/fritter/services/freets/internal/config"
	"github.com/example/fritter/services/freets/internal/grpcapi"
	"github.com/example/fritter/services/freets/internal/handlers"
	"github.com/example/fritter/services/freets/internal/idempotency"
	"github.com/example/fritter/services/freets/internal/store"
	"github.com/example/fritter/services/freets/internal/worker"
)

type stores struct {
	comments store.CommentStore
	posts    store.PostStore
	blocks   store.BlockStore
	pool     *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	st := initStores(cfg, log)
	if st.pool != nil {
		defer st.pool.Close()
	}

	var rdb *redis.Client
	if rc := initAuthorCache(cfg, log); rc != nil {
		rdb = rc.Client
		defer func() { _ = rc.Close() }()
		st.posts = store.NewCachedPostStore(st.posts, rc, newBreaker(cfg, log), log)
	}

	var (
		nc  *nats.Conn
		js  nats.JetStreamContext
		pub *events.Publisher
	)
	if conn, err := natsconn.Connect(natsconn.Options{Name: cfg.ServiceName, Logger: log}); err != nil {
		log.Error("nats connect, events disabled", zap.Error(err))
	} else {
		nc = conn
		defer nc.Close()
		js, err = nc.JetStream()
		if err == nil {
			err = events.EnsureStream(js)
		}
		if err != nil {
			log.Error("jetstream unavailable, events disabled", zap.Error(err))
			js = nil
		}
	}
	if js != nil && cfg.PublishEvents {
		pub = events.New(js, log)
	}

	blockSvc := blocks.NewService(st.blocks, pub, log)
	opts := []comments.Option{comments.WithLogger(log)}
	if pub != nil {
		opts = append(opts, comments.WithEvents(pub))
	}
	if cfg.HideBlockedAuthors {
		opts = append(opts, comments.WithBlockLookup(blockSvc))
	}
	commentSvc := comments.NewService(st.comments, st.posts, opts...)

	routerCfg := httpserver.RouterConfig{Logger: log}
	if st.pool != nil {
		routerCfg.ReadyFunc = db.ReadyFunc(st.pool)
	}
	r := chi.NewRouter()
	httpserver.SetupRouter(r, routerCfg)
	h := &handlers.Handlers{Comments: commentSvc, Blocks: blockSvc, Posts: st.posts, Log: log}
	h.Routes(r, auth.JWTVerifier{Secret: cfg.JWTSecret})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		run.Exit(1)
	}
	grpcSrv := grpc.NewServer()
	grpcapi.RegisterCommentServer(grpcSrv, &grpcapi.CommentService{Comments: commentSvc, Log: log})
	go func() {
		log.Info("grpc server starting", zap.String("addr", cfg.GRPCAddr))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc serve", zap.Error(err))
		}
	}()

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if js != nil {
			seen, err := idempotency.NewStore(rdb, st.pool, cfg.IdempotencyTTL, cfg.IsProduction())
			if err != nil {
				return err
			}
			consumer := &worker.PostsConsumer{
				Posts:         st.posts,
				Seen:          seen,
				Log:           log.Named("posts-consumer"),
				BatchSize:     cfg.WorkerBatchSize,
				BatchInterval: cfg.WorkerBatchInterval,
			}
			go func() {
				if err := consumer.Run(ctx, js); err != nil {
					log.Error("posts consumer stopped", zap.Error(err))
				}
			}()
		}
		return srv.Start(log)
	})

	runner.Graceful(
		func(ctx context.Context) error {
			stopped := make(chan struct{})
			go func() {
				grpcSrv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-ctx.Done():
				grpcSrv.Stop()
			}
			return nil
		},
		srv.Shutdown,
		func(context.Context) error {
			if nc == nil {
				return nil
			}
			return nc.Drain()
		},
	)

	log.Info("exit", zap.Int("code", code))
	_ = log.Sync()
	run.Exit(code)
}

// initStores selects Postgres when DATABASE_URL is reachable and the
// in-memory stores otherwise. Production refuses the fallback.
func initStores(cfg config.Config, log *zap.Logger) stores {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.OpenDSN(ctx, cfg.DatabaseURL)
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production", zap.Error(err))
			_ = log.Sync()
			run.Exit(1)
		}
		if errors.Is(err, db.ErrNoDSN) {
			log.Warn("DATABASE_URL not set, using in-memory stores (development only)")
		} else {
			log.Warn("postgres unavailable, falling back to in-memory stores", zap.Error(err))
		}
		return stores{
			comments: store.NewInMemoryCommentStore(),
			posts:    store.NewInMemoryPostStore(),
			blocks:   store.NewInMemoryBlockStore(),
		}
	}

	log.Info("stores: postgres")
	return stores{
		comments: store.NewPostgresCommentStore(pool),
		posts:    store.NewPostgresPostStore(pool),
		blocks:   store.NewPostgresBlockStore(pool),
		pool:     pool,
	}
}

// initAuthorCache returns nil when REDIS_URL is unset or unreachable; the
// directory is then read straight from its store.
func initAuthorCache(cfg config.Config, log *zap.Logger) *cache.RedisCache {
	if cfg.RedisURL == "" {
		return nil
	}
	rc, err := cache.NewRedisCache(cfg.RedisURL, cfg.AuthorCacheTTL, "freets:author:")
	if err != nil {
		log.Warn("redis url invalid, author cache disabled", zap.Error(err))
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn("redis ping failed, author cache disabled", zap.Error(err))
		_ = rc.Close()
		return nil
	}
	log.Info("author cache: redis")
	return rc
}

func newBreaker(cfg config.Config, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "author-cache",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CBFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit-breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}
