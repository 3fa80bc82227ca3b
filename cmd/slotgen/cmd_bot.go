package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"slotgen/internal/bot"
	"slotgen/internal/cache"
	"slotgen/internal/config"
	"slotgen/internal/db"
	"slotgen/internal/export"
	"slotgen/internal/metrics"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	Long:  "Run the Telegram front end with the settings store, batch cache, exports, health and metrics servers.",
	RunE:  runBot,
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return fmt.Errorf("set telegram.bot_token in the config")
	}

	database, err := db.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	batches := cache.NewBatchCache(rdb, cfg.CacheTTL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var exporter *export.SheetsExporter
	if cfg.Sheets.Enabled {
		exporter, err = export.NewSheetsExporter(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID)
		if err != nil {
			return fmt.Errorf("sheets exporter: %w", err)
		}
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.SendRate()), cfg.SendBurst())

	b, err := bot.New(cfg.Telegram.BotToken, cfg.Telegram.Debug, database, batches, exporter, limiter, &logger)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	// Profiles are optional for the bot: without them /generate still
	// works from per-user settings.
	if err := config.WatchProfiles(ctx, cfg.ProfilesPath(), cfg.ProfilesReload(), b.SetProfiles); err != nil {
		logger.Warn().Err(err).Msg("Profiles not loaded, /profile disabled")
	}

	if cfg.Backup.Enabled {
		dir := cfg.Backup.Path
		if dir == "" {
			dir = "data/backups"
		}
		backups := db.NewBackupService(cfg.Database.Path, dir, cfg.BackupInterval(), cfg.Backup.RetentionDays, &logger)
		go backups.Start(ctx)
	}

	healthPort := cfg.Monitoring.HealthCheckPort
	if healthPort == 0 {
		healthPort = 8090
	}
	go startHealthServer(ctx, healthPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		promPort := cfg.Monitoring.PrometheusPort
		if promPort == 0 {
			promPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, promPort, &logger)
	}

	logger.Info().Msg("Slot generator bot started")
	b.Start(ctx)
	return nil
}

func startHealthServer(ctx context.Context, port int, database *db.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
