// catalog-warm pre-populates the cache database from the primary source so
// the API can keep serving listings and details through upstream outages.
// Run it from cron or a one-off container; it exits when the warm completes.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"novelhub/database"
	"novelhub/internal/config"
	"novelhub/internal/ingestion"
	"novelhub/internal/ingestion/royalroad"
	"novelhub/internal/repository"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	pages := getEnvInt("WARM_PAGES", 3)
	workers := getEnvInt("WARM_WORKERS", 4)
	withDetails := getEnvBool("WARM_DETAILS", true)
	categories := getEnvList("WARM_CATEGORIES", []string{"all", "fantasy", "action"})

	logger.Info("catalog warm starting",
		"pages", pages,
		"workers", workers,
		"details", withDetails,
		"categories", categories,
	)

	client := royalroad.NewClient(royalroad.Config{
		BaseURL:    cfg.RoyalRoadBaseURL,
		Timeout:    cfg.RoyalRoadTimeout,
		RatePerSec: float64(cfg.RoyalRoadRate),
	})
	repo := repository.NewNovelRepo(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received, stopping warm run")
		cancel()
	}()

	warmer := &warmer{client: client, repo: repo, logger: logger}

	// Phase 1: listing pages. Detail identifiers are collected here and
	// warmed in a second pool so no worker ever submits into its own queue.
	pagePool := ingestion.NewWorkerPool(ctx, workers, logger)
	pagePool.Start()
	for _, category := range categories {
		for page := 1; page <= pages; page++ {
			category, page := category, page
			pagePool.Submit(func(ctx context.Context) error {
				return warmer.warmPage(ctx, category, page)
			})
		}
	}
	pagePool.Wait()

	if withDetails {
		ids := warmer.pendingDetails()
		logger.Info("warming details", "count", len(ids))

		detailPool := ingestion.NewWorkerPool(ctx, workers, logger)
		detailPool.Start()
		for _, id := range ids {
			id := id
			detailPool.Submit(func(ctx context.Context) error {
				return warmer.warmDetail(ctx, id)
			})
		}
		detailPool.Wait()
	}

	logger.Info("catalog warm finished")
}

type warmer struct {
	client *royalroad.Client
	repo   *repository.NovelRepo
	logger *slog.Logger

	mu      sync.Mutex
	details []string
}

// warmPage fetches one listing page, persists it, and records novels the
// cache has no chapter index for yet.
func (w *warmer) warmPage(ctx context.Context, category string, page int) error {
	listings, err := w.client.FetchListing(ctx, page, category)
	if err != nil {
		return err
	}
	if err := w.repo.UpsertListings(ctx, listings); err != nil {
		return err
	}
	w.logger.Info("page warmed", "category", category, "page", page, "novels", len(listings))

	for _, l := range listings {
		if stored, err := w.repo.ReadDetail(ctx, l.ExternalID); err == nil && stored.TotalChapters > 0 {
			continue
		}
		w.mu.Lock()
		w.details = append(w.details, l.ExternalID)
		w.mu.Unlock()
	}
	return nil
}

// pendingDetails returns the collected identifiers, deduplicated; the same
// novel can appear on several category pages.
func (w *warmer) pendingDetails() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]bool, len(w.details))
	out := make([]string, 0, len(w.details))
	for _, id := range w.details {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (w *warmer) warmDetail(ctx context.Context, externalID string) error {
	detail, err := w.client.FetchDetail(ctx, externalID)
	if err != nil {
		return err
	}
	stored, err := w.repo.UpsertDetail(ctx, externalID, detail)
	if err != nil {
		return err
	}
	return w.repo.AppendChaptersIfAbsent(ctx, stored.ID, detail.Chapters)
}

// Helper functions

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
