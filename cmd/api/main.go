package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/PaulBabatuyi/bookhub/internal/auth"
	"github.com/PaulBabatuyi/bookhub/internal/config"
	"github.com/PaulBabatuyi/bookhub/internal/data"
	"github.com/PaulBabatuyi/bookhub/internal/db"
	"github.com/PaulBabatuyi/bookhub/internal/health"
	"github.com/PaulBabatuyi/bookhub/internal/logging"
	"github.com/PaulBabatuyi/bookhub/internal/middleware"
	"github.com/PaulBabatuyi/bookhub/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log.Slog())

	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logging.SlogLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info(ctx, "starting", "config", cfg.String())

	dbClient, err := db.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("connect to DB: %w", err)
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = dbClient.Close(cctx)
	}()

	if err := dbClient.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	usersStore := data.NewUsersStore(dbClient.UsersCollection())
	listingsStore := data.NewListingsStore(dbClient.ListingsCollection())

	var jwtMgr *auth.JWTManager
	if len(cfg.JWTKeys) > 0 {
		jwtMgr = auth.NewJWTManagerFromKeys(cfg.JWTKeys, cfg.JWTActiveKid, cfg.TokenTTL)
	} else {
		jwtMgr = auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	}
	hasher := auth.NewHasher(cfg.PasswordHasher, cfg.HashConcurrency)

	accounts := service.NewAccounts(usersStore, jwtMgr, hasher, log.With("component", "accounts"), service.AccountsOptions{
		AllowedEmailDomain: cfg.AllowedEmailDomain,
		StorageTimeout:     cfg.StorageTimeout,
	})
	listings := service.NewListings(listingsStore, log.With("component", "listings"), service.ListingsOptions{
		AuthRequired:   cfg.AuthRequired(),
		StorageTimeout: cfg.StorageTimeout,
		MaxImageBytes:  int(cfg.MaxBodyBytes),
	})

	// signup and login only; small burst allows a couple of quick retries
	limiter := middleware.NewLimiterStore(cfg.RateLimitRPM, cfg.RateLimitBurst, time.Minute)
	defer limiter.Stop()

	monitor := health.NewMonitor(dbClient, log.With("component", "health"), 15*time.Second)

	srv := newServer(accounts, listings, monitor, limiter, log.With("component", "http"), serverConfig{
		authRequired: cfg.AuthRequired(),
		maxBodyBytes: cfg.MaxBodyBytes,
		corsOrigin:   cfg.CORSOrigin,
		staticDir:    cfg.StaticDir,
	})
	httpServer := newHTTPServer(cfg.HTTPAddr, srv.routes())

	var (
		grpcServer *grpc.Server
		grpcLis    net.Listener
	)
	if cfg.GRPCHealthAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.GRPCHealthAddr, err)
		}
		grpcServer = grpc.NewServer()
		monitor.Register(grpcServer)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info(gctx, "HTTP server listening", "addr", cfg.HTTPAddr, "auth_mode", cfg.AuthMode, "tls", cfg.TLSCert != "")
		var err error
		if cfg.TLSCert != "" {
			err = httpServer.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if grpcServer != nil {
		g.Go(func() error {
			log.Info(gctx, "gRPC health server listening", "addr", cfg.GRPCHealthAddr)
			return grpcServer.Serve(grpcLis)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down")

		monitor.Shutdown()
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(sctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
