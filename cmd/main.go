package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwrk-planet/relay-service/config"
	"github.com/cwrk-planet/relay-service/internal/memstore"
	"github.com/cwrk-planet/relay-service/internal/postgres"
	"github.com/cwrk-planet/relay-service/internal/ratelimit"
	"github.com/cwrk-planet/relay-service/internal/registry"
	"github.com/cwrk-planet/relay-service/internal/security"
	"github.com/cwrk-planet/relay-service/internal/service"
	grpcx "github.com/cwrk-planet/relay-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/relay-service/internal/transport/http"
	"github.com/cwrk-planet/relay-service/internal/transport/ws"
	"github.com/cwrk-planet/relay-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting relay-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- users ---
	var users service.UserRepository
	if cfg.Postgres.DSN != "" {
		db, err := postgres.New(ctx, cfg.Postgres.ToPGConfig())
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}
		users = postgres.NewUserRepository(db.Pool)
		slog.Info("user store: postgres")
	} else {
		users = memstore.NewUserRepository()
		slog.Info("user store: memory")
	}

	// --- rate limits ---
	var loginLimiter, roomLimiter ratelimit.Limiter
	loginWin := ratelimit.Window{Limit: cfg.RateLimit.Login.Limit, Period: cfg.RateLimit.Login.Period}
	roomWin := ratelimit.Window{Limit: cfg.RateLimit.CreateRoom.Limit, Period: cfg.RateLimit.CreateRoom.Period}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, limits fail open", "addr", cfg.Redis.Addr, "err", err)
		}
		loginLimiter = ratelimit.NewRedisLimiter(rdb, "relay:login", loginWin)
		roomLimiter = ratelimit.NewRedisLimiter(rdb, "relay:create-room", roomWin)
	} else {
		loginLimiter = ratelimit.NewMemoryLimiter(loginWin)
		roomLimiter = ratelimit.NewMemoryLimiter(roomWin)
	}

	// --- services ---
	rooms := registry.New()
	signer := security.NewJWTSigner(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.AccessTTL, cfg.Auth.ClockSkew)
	authSvc := service.NewAuthService(users, signer, &security.BcryptConfig{
		Cost:      cfg.Auth.BcryptCost,
		MinLength: cfg.Auth.MinLength,
	})
	roomSvc := service.NewRoomService(rooms)

	// --- WS Hub & Server ---
	hub := ws.NewHub(rooms)
	wsServer := ws.NewServer(rooms, hub, ws.Options{
		SendBuffer:     cfg.WS.SendBuffer,
		WriteWait:      cfg.WS.WriteWait,
		PingEvery:      cfg.WS.PingEvery,
		MaxMessageSize: cfg.WS.MaxMessageSize,
		FrameRate:      cfg.WS.FrameRate,
		FrameBurst:     cfg.WS.FrameBurst,
	})

	// --- HTTP ---
	router := httpx.NewRouter(httpx.Deps{
		Handler:           httpx.NewHandler(roomSvc, authSvc),
		WS:                wsServer.HandleWS,
		LoginLimiter:      loginLimiter,
		RoomLimiter:       roomLimiter,
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	})
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// --- gRPC ---
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(cfg.GRPC.DefaultTimeout)),
		grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor()),
	)
	health := grpcx.Register(grpcServer, grpcx.NewServer(roomSvc, authSvc))

	// --- run both servers ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		return grpcServer.Serve(lis)
	})

	// --- graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		health.Shutdown()
		grpcServer.GracefulStop()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown", "err", err)
		}
		// hijacked websocket connections are not covered by http.Server.Shutdown
		if err := wsServer.Shutdown(cfg.HTTP.ShutdownTimeout); err != nil {
			slog.Error("ws shutdown", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}
