package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strconv"
	gosync "sync"
	"time"

	"sportsync/internal/pkg/config"
	"sportsync/internal/pkg/export"
	"sportsync/internal/pkg/loader"
	"sportsync/internal/pkg/logging"
	"sportsync/internal/pkg/notify"
	"sportsync/internal/pkg/validation"
	syncpkg "sportsync/internal/sync"
)

const defaultConfigPath = "configs/example.yaml"

func main() {
	var configPath string
	var outputPath string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&outputPath, "output", "", "Write the result table as CSV to this path (default: render to stdout)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := validation.NewValidator().ValidateConfig(cfg); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.SetupLogger(&cfg.Logging, "syncrun")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}

	startedAt := time.Now()
	slog.Info("Loading provider feeds", "providers", len(cfg.Providers))

	contents := make([]syncpkg.SyncableContent, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		content, err := loader.Load(p)
		if err != nil {
			log.Fatalf("Failed to load provider feed: %v", err)
		}
		slog.Info("Provider feed loaded", "provider", p.Name, "records", len(content.Records))
		contents = append(contents, content)
	}

	table, err := run(cfg, contents, logger)
	if err != nil {
		log.Fatalf("Synchronization failed: %v", err)
	}

	slog.Info("Synchronization finished",
		"entity", cfg.Sync.Entity,
		"rows", len(table.Rows),
		"duration", time.Since(startedAt).Round(time.Millisecond))

	exporter := export.NewExporter()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		if err := exporter.WriteCSV(f, table); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to close output file: %v", err)
		}
		slog.Info("Result table written", "path", outputPath)
	} else {
		fmt.Println(exporter.RenderTable(table))
	}

	notifyRun(cfg, contents, table, startedAt)
}

// run synchronizes the loaded feeds. When a group column is configured,
// groups are synchronized independently on a bounded worker pool and the
// per-group tables are merged.
func run(cfg *config.Config, contents []syncpkg.SyncableContent, logger *slog.Logger) (*syncpkg.ResultTable, error) {
	entity := syncpkg.EntityType(cfg.Sync.Entity)
	opts := syncpkg.Options{
		UseCompetitionContext: cfg.Sync.UseCompetitionContext,
		Verbose:               cfg.Sync.Verbose,
		Logger:                logger,
	}

	if cfg.Sync.GroupColumn == "" {
		engine, err := syncpkg.NewEngine(entity, opts)
		if err != nil {
			return nil, err
		}
		return engine.Synchronize(contents)
	}

	groups := splitByGroup(contents, cfg.Sync.GroupColumn)
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slog.Info("Synchronizing groups", "group_column", cfg.Sync.GroupColumn, "groups", len(keys), "workers", cfg.Sync.Workers)

	var (
		mu      gosync.Mutex
		wg      gosync.WaitGroup
		results = make(map[string]*syncpkg.ResultTable, len(keys))
		errs    = make(map[string]error, len(keys))
		jobs    = make(chan string)
	)

	workers := cfg.Sync.Workers
	if workers > len(keys) {
		workers = len(keys)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				engine, err := syncpkg.NewEngine(entity, opts)
				if err == nil {
					var table *syncpkg.ResultTable
					table, err = engine.Synchronize(groups[key])
					if err == nil {
						mu.Lock()
						results[key] = table
						mu.Unlock()
						continue
					}
				}
				mu.Lock()
				errs[key] = err
				mu.Unlock()
			}
		}()
	}
	for _, key := range keys {
		jobs <- key
	}
	close(jobs)
	wg.Wait()

	for _, key := range keys {
		if err := errs[key]; err != nil {
			return nil, fmt.Errorf("group %q: %w", key, err)
		}
	}

	merged := &syncpkg.ResultTable{}
	seen := map[string]bool{}
	for _, key := range keys {
		t := results[key]
		for _, col := range t.Columns {
			if !seen[col] {
				seen[col] = true
				merged.Columns = append(merged.Columns, col)
			}
		}
		merged.Rows = append(merged.Rows, t.Rows...)
	}
	return merged, nil
}

// splitByGroup partitions each provider's records by the group column.
// Records with a null group value form their own group.
func splitByGroup(contents []syncpkg.SyncableContent, column string) map[string][]syncpkg.SyncableContent {
	groups := map[string][]syncpkg.SyncableContent{}

	for ci, content := range contents {
		byKey := map[string][]syncpkg.Record{}
		for _, r := range content.Records {
			key := ""
			if v, ok := r[column]; ok && v != nil {
				key = fmt.Sprint(v)
			}
			byKey[key] = append(byKey[key], r)
		}
		for key, records := range byKey {
			if _, ok := groups[key]; !ok {
				groups[key] = make([]syncpkg.SyncableContent, len(contents))
				for i, c := range contents {
					groups[key][i] = syncpkg.SyncableContent{Provider: c.Provider}
				}
			}
			groups[key][ci].Records = records
		}
	}

	return groups
}

func notifyRun(cfg *config.Config, contents []syncpkg.SyncableContent, table *syncpkg.ResultTable, startedAt time.Time) {
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

	providers := make([]string, 0, len(contents))
	for _, c := range contents {
		providers = append(providers, c.Provider)
	}

	fullyLinked := 0
	for _, row := range table.Rows {
		linked := 0
		for _, p := range providers {
			if _, ok := row.ID(p); ok {
				linked++
			}
		}
		if linked == len(providers) {
			fullyLinked++
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := notifier.SendRunSummary(ctx, notify.RunSummary{
		Entity:      cfg.Sync.Entity,
		Providers:   providers,
		Rows:        len(table.Rows),
		FullyLinked: fullyLinked,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
	}); err != nil {
		slog.Warn("Failed to send run summary", "error", err)
	}
}
