package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"sportsync/internal/pkg/config"
	"sportsync/internal/pkg/loader"
	"sportsync/internal/pkg/logging"
	"sportsync/internal/pkg/notify"
	"sportsync/internal/pkg/storage"
	"sportsync/internal/pkg/validation"
	"sportsync/internal/reconcile"
	syncpkg "sportsync/internal/sync"
)

const defaultConfigPath = "configs/example.yaml"

// Default minting name column per entity.
var defaultNameColumns = map[string]string{
	"team":   syncpkg.ColTeamName,
	"player": syncpkg.ColPlayerName,
	"match":  syncpkg.ColHomeTeamID,
}

func main() {
	var configPath string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := validation.NewValidator().ValidateConfig(cfg); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.SetupLogger(&cfg.Logging, "reconcile")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize mapping store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close mapping store", "error", err)
		}
	}()

	contents := make([]syncpkg.SyncableContent, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		content, err := loader.Load(p)
		if err != nil {
			log.Fatalf("Failed to load provider feed: %v", err)
		}
		slog.Info("Provider feed loaded", "provider", p.Name, "records", len(content.Records))
		contents = append(contents, content)
	}

	engine, err := syncpkg.NewEngine(syncpkg.EntityType(cfg.Sync.Entity), syncpkg.Options{
		UseCompetitionContext: cfg.Sync.UseCompetitionContext,
		Verbose:               cfg.Sync.Verbose,
		Logger:                logger,
	})
	if err != nil {
		log.Fatalf("Failed to create sync engine: %v", err)
	}

	table, err := engine.Synchronize(contents)
	if err != nil {
		log.Fatalf("Synchronization failed: %v", err)
	}
	slog.Info("Synchronization finished", "entity", cfg.Sync.Entity, "rows", len(table.Rows))

	nameColumn := cfg.Reconcile.NameColumn
	if nameColumn == "" {
		nameColumn = defaultNameColumns[cfg.Sync.Entity]
	}

	reconciler, err := reconcile.NewReconciler(store, reconcile.Options{
		Entity:          cfg.Sync.Entity,
		NameColumn:      nameColumn,
		PartitionColumn: cfg.Reconcile.PartitionColumn,
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("Failed to create reconciler: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := reconciler.Reconcile(ctx, table)
	if err != nil {
		log.Fatalf("Reconciliation failed: %v", err)
	}

	slog.Info("Reconciliation report",
		"run_id", report.RunID,
		"minted", report.Minted,
		"updated", report.Updated,
		"quarantined", len(report.Quarantined))

	if len(report.Quarantined) > 0 {
		notifyQuarantine(cfg, report)
	}
}

func notifyQuarantine(cfg *config.Config, report *reconcile.Report) {
	token := cfg.Notify.TelegramBotToken
	if envToken := os.Getenv("TELEGRAM_BOT_TOKEN"); envToken != "" {
		token = envToken
	}
	chatID := cfg.Notify.TelegramChatID
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if parsed, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			chatID = parsed
		}
	}
	if token == "" || chatID == 0 {
		return
	}

	notifier := notify.NewTelegramNotifier(token, chatID)
	if notifier == nil {
		return
	}
	defer notifier.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := notifier.SendQuarantineAlert(ctx, report.RunID, cfg.Sync.Entity, len(report.Quarantined)); err != nil {
		slog.Warn("Failed to send quarantine alert", "error", err)
	}
}
