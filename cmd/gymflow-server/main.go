package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"google.golang.org/grpc"

	"gymflow/backend/internal/config"
	"gymflow/backend/internal/directory/catalog"
	"gymflow/backend/internal/notify"
	"gymflow/backend/internal/service/trainings"
	"gymflow/backend/internal/store"
	"gymflow/backend/internal/store/memory"
	"gymflow/backend/internal/store/postgres"
	grpcTransport "gymflow/backend/internal/transport/grpc"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "gymflow-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "gymflow-server"),
	)
	slog.SetDefault(log)

	grpcAddr := net.JoinHostPort(cfg.GRPCHost, strconv.Itoa(cfg.GRPCPort))
	log.Info(
		"starting",
		slog.String("grpc_addr", grpcAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("directory_source", cfg.DirectorySource),
		slog.String("time_zone", cfg.TimeZone.String()),
	)

	var db *bun.DB
	if cfg.StoreDriver == config.StoreDriverPostgres {
		log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err = postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		cancel()
		if err != nil {
			args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
			log.Error("database connection failed", args...)
			os.Exit(1)
		}
		defer func() {
			if err := postgres.Close(db); err != nil {
				log.Warn("database close failed", slog.Any("err", err))
			}
		}()
	}

	var repo store.SessionRepository
	if db != nil {
		repo = postgres.NewSessionRepo(db)
	} else {
		log.Warn("using in-memory session store; sessions are lost on restart")
		repo = memory.NewSessionStore()
	}

	var dir store.ResourceDirectory
	switch cfg.DirectorySource {
	case config.DirectorySourceFile:
		fileDir, err := catalog.Load(cfg.DirectoryFile)
		if err != nil {
			log.Error("directory load failed", slog.Any("err", err), slog.String("directory_file", cfg.DirectoryFile))
			os.Exit(1)
		}
		dir = fileDir
	default:
		dir = postgres.NewDirectoryRepo(db)
	}

	notifier, closeNotifier, err := newNotifier(cfg, log)
	if err != nil {
		log.Error("notifier setup failed", slog.Any("err", err), slog.String("redis_addr", cfg.RedisAddr))
		os.Exit(1)
	}
	defer closeNotifier()

	svc := trainings.NewService(repo, dir,
		trainings.WithNotifier(notifier),
		trainings.WithLogger(log),
		trainings.WithLocation(cfg.TimeZone),
	)

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(defaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout)),
	)
	grpcTransport.RegisterTrainingsServiceServer(grpcServer, grpcTransport.NewTrainingsServer(svc, log))

	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", grpcAddr))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()

	log.Info("grpc server started", slog.String("grpc_addr", grpcAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, grpcServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// newNotifier returns the redis queue dispatcher when redis is configured and
// the log-only dispatcher otherwise.
func newNotifier(cfg config.Config, log *slog.Logger) (notify.Dispatcher, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured; notifications are only logged")
		return notify.NewLog(log), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	closeClient := func() {
		if err := client.Close(); err != nil {
			log.Warn("redis close failed", slog.Any("err", err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		closeClient()
		return nil, nil, err
	}

	d, err := notify.NewRedis(&notify.RedisConfig{
		RedisClient: client,
		Queue:       cfg.NotifyQueue,
	})
	if err != nil {
		closeClient()
		return nil, nil, err
	}
	log.Info("notifications enqueued to redis", slog.String("redis_addr", cfg.RedisAddr), slog.String("queue", cfg.NotifyQueue))
	return d, closeClient, nil
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func shutdown(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
