// Command magnate is the main entry point for the Magnate Discord game
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/magnate-game/magnate/internal/character"
	"github.com/magnate-game/magnate/internal/config"
	discordbot "github.com/magnate-game/magnate/internal/discord"
	"github.com/magnate-game/magnate/internal/discord/commands"
	"github.com/magnate-game/magnate/internal/game"
	"github.com/magnate-game/magnate/internal/gamestore"
	"github.com/magnate-game/magnate/internal/health"
	"github.com/magnate-game/magnate/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "magnate: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "magnate: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("magnate starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Character catalog ─────────────────────────────────────────────────────
	catalog, err := character.LoadDir(cfg.Game.CharactersDir, logger)
	if err != nil {
		slog.Error("failed to load character catalog", "dir", cfg.Game.CharactersDir, "err", err)
		return 1
	}
	slog.Info("character catalog loaded", "dir", cfg.Game.CharactersDir, "characters", catalog.Len())

	// ── Game store ────────────────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg.Database.PostgresDSN)
	if err != nil {
		slog.Error("failed to open game store", "err", err)
		return 1
	}
	defer closeStore()

	// ── Session registry ──────────────────────────────────────────────────────
	registry := game.NewRegistry(game.RegistryConfig{
		Characters: catalog,
		Archiver:   gamestore.NewSessionArchiver(store),
		Hooks:      metrics.GameHooks(),
		Logger:     logger,
	})

	// ── Discord bot ───────────────────────────────────────────────────────────
	bot, err := discordbot.New(ctx, discordbot.Config{
		Token:         cfg.Discord.Token,
		GuildID:       cfg.Discord.GuildID,
		GameChannelID: cfg.Discord.GameChannelID,
	})
	if err != nil {
		slog.Error("failed to create Discord bot", "err", err)
		return 1
	}
	defer func() {
		if err := bot.Close(); err != nil {
			slog.Warn("discord bot close error", "err", err)
		}
	}()

	router := bot.Router()
	router.SetObserver(metrics.CommandObserver())
	commands.NewGameCommands(registry, catalog, store, bot.Gate()).Register(router)
	commands.NewStatsCommands(store).Register(router)
	commands.NewLeaderboardCommands(store, catalog).Register(router)
	commands.NewFeedbackCommands(store, cfg.Game.FeedbackCooldown.Std()).Register(router)
	commands.NewHelpCommands(catalog).Register(router)

	// ── Idle sweeper ──────────────────────────────────────────────────────────
	sweeper := discordbot.NewSweeper(discordbot.SweeperConfig{
		Session:  bot.Session(),
		Expirer:  registry,
		MaxIdle:  cfg.Game.SessionTimeout.Std(),
		Interval: cfg.Game.SweepInterval.Std(),
	})
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.LogLevelChanged {
			logLevel.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level updated", "log_level", diff.NewLogLevel)
		}
		if diff.SessionTimeoutChanged {
			// The sweeper holds its window for the process lifetime.
			slog.Warn("session_timeout changed; restart to apply", "session_timeout", diff.NewSessionTimeout)
		}
		if diff.RestartRequired {
			slog.Warn("configuration changes require a restart to take effect")
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── HTTP sidecar (health + metrics) ───────────────────────────────────────
	mux := http.NewServeMux()
	health.New(
		health.Catalog(catalog),
		health.Database(store),
	).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	printStartupSummary(cfg, catalog.Len())

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("discord bot: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.Server.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// openStore connects the persistent game store, falling back to the
// in-memory store when no DSN is configured. The returned closer releases
// the connection pool; it is a no-op for the in-memory store.
func openStore(ctx context.Context, dsn string) (gamestore.Store, func(), error) {
	if dsn == "" {
		slog.Info("using in-memory game store; results are lost on restart")
		return gamestore.NewMemStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := gamestore.NewPostgres(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	slog.Info("postgres game store ready")
	return store, pool.Close, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, characters int) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Magnate — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	if cfg.Discord.GuildID != "" {
		printRow("Guild", cfg.Discord.GuildID)
	} else {
		printRow("Guild", "(global commands)")
	}
	if cfg.Discord.GameChannelID != "" {
		printRow("Game channel", cfg.Discord.GameChannelID)
	} else {
		printRow("Game channel", "(any channel)")
	}
	printRow("Characters", fmt.Sprintf("%d", characters))
	if cfg.Database.PostgresDSN != "" {
		printRow("Store", "postgres")
	} else {
		printRow("Store", "in-memory")
	}
	if cfg.Game.SessionTimeout > 0 {
		printRow("Session timeout", cfg.Game.SessionTimeout.String())
	} else {
		printRow("Session timeout", "(disabled)")
	}
	printRow("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(name, value string) {
	if len([]rune(value)) > 19 {
		value = string([]rune(value)[:16]) + "…"
	}
	fmt.Printf("║  %-15s : %-19s ║\n", name, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
