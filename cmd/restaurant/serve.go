package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/restaurant/gateway"
	"github.com/example/restaurant/pkg/audit"
	"github.com/example/restaurant/pkg/cart"
	"github.com/example/restaurant/pkg/catalog"
	"github.com/example/restaurant/pkg/config"
	"github.com/example/restaurant/pkg/database"
	"github.com/example/restaurant/pkg/discovery"
	grpcsvc "github.com/example/restaurant/pkg/grpc"
	"github.com/example/restaurant/pkg/metrics"
	"github.com/example/restaurant/pkg/order"
	"github.com/example/restaurant/pkg/payment"
	"github.com/example/restaurant/pkg/report"
	"github.com/example/restaurant/pkg/repository"
	"github.com/example/restaurant/pkg/seed"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	shutdownTimeout     = 10 * time.Second
	memorySweepInterval = 5 * time.Minute
)

func runServe(configPath string) error {
	cfg, logger, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting restaurant service",
		zap.String("address", cfg.Server.Addr()),
		zap.String("database", cfg.Database.Driver),
		zap.String("cart_store", cfg.Session.Store))

	db, err := database.Open(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	store, closeStore, err := newCartStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	recorder, closeAudit, err := newAuditRecorder(cfg, logger)
	if err != nil {
		return err
	}
	defer closeAudit()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	fs := afero.NewOsFs()
	menu := catalog.NewService(db, catalog.NewFileImageStore(fs, cfg.Storage.UploadDir, cfg.Storage.URLPrefix), recorder, logger.Named("catalog"))
	carts := cart.NewService(store, menu, m, logger.Named("cart"))
	orders := order.NewService(db, carts, recorder, m, logger.Named("order"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Server.SeedOnStart {
		if err := seedAll(ctx, seed.NewSeeder(menu, fs, cfg.Storage.UploadDir, logger.Named("seed"))); err != nil {
			logger.Warn("Seeding failed, continuing", zap.Error(err))
		}
	}

	health := func(ctx context.Context) error { return database.Ping(ctx, db) }

	gw := gateway.NewGateway(cfg, logger, m, reg, gateway.Services{
		Catalog:  menu,
		Carts:    carts,
		Orders:   orders,
		Payments: payment.NewGenerator(&cfg.Payment),
		Reports:  report.NewService(db),
		Health:   health,
	})
	gw.SetupRoutes()

	errCh := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	if cfg.GRPC.Enabled {
		hs := grpcsvc.NewHealthServer(&cfg.GRPC, cfg.Server.Name, health, logger.Named("grpc"))
		go hs.Watch(ctx)
		go func() {
			if err := hs.Start(); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
		defer hs.Stop()
	}

	if len(cfg.Etcd.Endpoints) > 0 {
		deregister := register(ctx, cfg, logger)
		defer deregister()
	}

	logger.Info("Restaurant service started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	logger.Info("Restaurant service stopped")
	return nil
}

func newCartStore(cfg *config.Config) (cart.Store, func(), error) {
	if cfg.Session.Store != "redis" {
		store := cart.NewMemoryStore(cfg.Session.MaxAge)
		ctx, cancel := context.WithCancel(context.Background())
		go store.Run(ctx, memorySweepInterval)
		return store, cancel, nil
	}

	repo := repository.NewRedisRepository(&cfg.Redis, cfg.Session.MaxAge)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.Ping(ctx); err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return repo, func() { repo.Close() }, nil
}

// newAuditRecorder routes audit entries through an actor into Mongo, or into
// the log when Mongo is disabled.
func newAuditRecorder(cfg *config.Config, logger *zap.Logger) (audit.Recorder, func(), error) {
	var (
		sink    audit.Sink = audit.LogSink{Logger: logger.Named("audit")}
		closers []func()
	)

	if cfg.MongoDB.Enabled {
		repo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		ictx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := repo.EnsureIndexes(ictx); err != nil {
			logger.Warn("Audit indexes not created", zap.Error(err))
		}
		cancel()
		sink = audit.MongoSink{Repo: repo}
		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := repo.Close(ctx); err != nil {
				logger.Warn("Failed to close MongoDB", zap.Error(err))
			}
		})
	}

	rec, err := audit.NewActorRecorder(actor.NewActorSystem(), sink, cfg.Server.Name, logger)
	if err != nil {
		return nil, nil, err
	}

	return rec, func() {
		if err := rec.Close(); err != nil {
			logger.Warn("Failed to stop audit actor", zap.Error(err))
		}
		for _, c := range closers {
			c()
		}
	}, nil
}

// register announces this instance in etcd. Failure is logged, not fatal.
func register(ctx context.Context, cfg *config.Config, logger *zap.Logger) func() {
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger.Named("discovery"))
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		return func() {}
	}

	host, err := os.Hostname()
	if err != nil {
		host = cfg.Server.Host
	}
	inst := &discovery.ServiceInstance{
		Name:     cfg.Server.Name,
		ID:       uuid.NewString(),
		HTTPAddr: net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)),
	}
	if cfg.GRPC.Enabled {
		inst.GRPCAddr = net.JoinHostPort(host, strconv.Itoa(cfg.GRPC.Port))
	}

	if err := sd.Register(ctx, inst); err != nil {
		logger.Warn("Service registration failed", zap.Error(err))
		sd.Close()
		return func() {}
	}

	return func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sd.Deregister(dctx, inst); err != nil {
			logger.Warn("Service deregistration failed", zap.Error(err))
		}
		sd.Close()
	}
}
