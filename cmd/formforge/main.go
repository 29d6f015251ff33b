package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/formforge/formforge/internal/builder"
	"github.com/formforge/formforge/internal/logging"
	"github.com/formforge/formforge/internal/scheduler"
	"github.com/formforge/formforge/internal/store"
	"github.com/formforge/formforge/internal/streaming"
	"github.com/formforge/formforge/pkg/mcp"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			printVersion()
			return
		case "install":
			runInstall(os.Args[2:])
			return
		case "serve":
			// Fall through to the default path.
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (expected serve, install, or version)\n", os.Args[1])
			os.Exit(1)
		}
	}

	if err := runServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe() error {
	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := streaming.NewMemoryHub()

	b, err := builder.New(ctx,
		builder.WithStore(st),
		builder.WithStorageKey(cfg.StorageKey),
		builder.WithHub(hub),
		builder.WithProjectID(cfg.ProjectID),
		builder.WithHistoryCapacity(cfg.HistoryCapacity),
		builder.WithExpressionEngine(cfg.ExpressionEngine),
		builder.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create builder: %w", err)
	}

	sched, err := startScheduler(ctx, cfg, b, st, logger)
	if err != nil {
		return err
	}
	defer sched.Stop()

	srv := mcp.NewBuilderServer(mcp.BuilderServerDeps{
		Builder: b,
		Logger:  logger,
	})

	// Push document changes to connected MCP clients.
	events, cancelSub, err := b.Subscribe(ctx, streaming.EventFilter{ProjectID: cfg.ProjectID})
	if err != nil {
		return fmt.Errorf("subscribe to builder events: %w", err)
	}
	defer cancelSub()
	notifier := mcp.NewMCPNotifier(srv.MCPServer(), srv.Sessions(), logger)
	go notifier.Watch(ctx, events)

	logger.Info("formforge started",
		slog.String("store", cfg.StoreDriver),
		slog.String("project_id", cfg.ProjectID),
	)

	if serveErr := srv.Serve(ctx); serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return fmt.Errorf("mcp serve: %w", serveErr)
	}

	logger.Info("formforge stopped")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	// Stdout belongs to the stdio transport; logs go to stderr.
	inner := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}

func openStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemoryStore(), nil

	case "redis":
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil

	case "libsql":
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		st, err := store.NewLibSQLStore("file:" + cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q (expected libsql, redis, or memory)", cfg.StoreDriver)
	}
}

func startScheduler(ctx context.Context, cfg Config, b *builder.Builder, st store.Store, logger *slog.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.NewScheduler(logger)

	if err := sched.AddJob("autosave", cfg.AutosaveCron, scheduler.AutosaveJob(b, st, cfg.StorageKey)); err != nil {
		return nil, fmt.Errorf("register autosave job: %w", err)
	}

	if revlog, ok := st.(store.RevisionLogger); ok {
		if err := sched.AddJob("backup", cfg.BackupCron, scheduler.BackupJob(b, revlog, cfg.StorageKey, cfg.BackupKeep)); err != nil {
			return nil, fmt.Errorf("register backup job: %w", err)
		}
	}

	if libsql, ok := st.(*store.LibSQLStore); ok {
		if err := sched.AddJob("vacuum", cfg.VacuumCron, scheduler.VacuumJob(libsql)); err != nil {
			return nil, fmt.Errorf("register vacuum job: %w", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}
	return sched, nil
}
