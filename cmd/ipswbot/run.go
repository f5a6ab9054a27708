package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	coreconfig "github.com/m3rciful/ipswbot/core/config"
	"github.com/m3rciful/ipswbot/core/database"
	"github.com/m3rciful/ipswbot/core/logger"
	tg "github.com/m3rciful/ipswbot/core/telegram"
	"github.com/m3rciful/ipswbot/core/telegram/router"
	"github.com/m3rciful/ipswbot/core/telegram/state"
	"github.com/m3rciful/ipswbot/internal/bot"
	"github.com/m3rciful/ipswbot/internal/catalog"
	"github.com/m3rciful/ipswbot/internal/ipsw"
	"github.com/m3rciful/ipswbot/internal/subscription"
	"github.com/m3rciful/ipswbot/internal/watcher"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and the signing watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot()
		},
	}
}

func runBot() error {
	cfg, err := coreconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitLogger(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Shutdown()

	cat, err := buildCatalog(cfg)
	if err != nil {
		return err
	}

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	subs := subscription.NewService(store)
	source := ipsw.NewClient(ipsw.Options{
		Timeout: time.Duration(cfg.Watcher.RequestTimeoutSeconds) * time.Second,
	})

	controller := &bot.Controller{
		Catalog: cat,
		Subs:    subs,
		Source:  source,
		States:  state.NewMemoryManager(),
	}

	reg := tg.NewRegistry()
	if err := controller.Register(reg); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: cfg.Telegram.AdminID})
	routes = append(routes,
		router.CallbackRoute(reg, router.CallbackOptions{}),
		router.TextRoute(reg, router.TextOptions{}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	return tg.RunTelegram(ctx, tg.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			w := &watcher.Watcher{
				Subs:    subs,
				Catalog: cat,
				Source:  source,
				Notifier: &bot.TelegramNotifier{
					Bot:        rt.Bot,
					Dispatcher: rt.Dispatcher,
				},
				Interval: time.Duration(cfg.Watcher.IntervalMinutes) * time.Minute,
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.Run(ctx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			wg.Wait()
			return nil
		},
	})
}

func buildCatalog(cfg *coreconfig.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path != "" {
		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		logger.CAT.Info("catalog override loaded",
			slog.String("event", "load"),
			slog.String("path", cfg.Catalog.Path),
			slog.Int("devices", cat.Len()),
		)
		return cat, nil
	}
	cat := catalog.Default()
	logger.CAT.Info("built-in catalog",
		slog.String("event", "load"),
		slog.Int("devices", cat.Len()),
	)
	return cat, nil
}

// buildStore selects the subscription backend. The returned cleanup closes
// any held resources and is safe to call once.
func buildStore(cfg *coreconfig.Config) (subscription.Store, func(), error) {
	switch cfg.Storage.Backend {
	case coreconfig.StorageBackendPostgres:
		db, err := database.Connect(databaseConfig(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		return subscription.NewPostgresStore(db), func() { _ = db.Close() }, nil
	default:
		return subscription.NewFileStore(cfg.Storage.Path), func() {}, nil
	}
}

func databaseConfig(cfg *coreconfig.Config) database.Config {
	return database.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Name:           cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: cfg.Database.MaxConnections,
	}
}
