// Package app wires configuration, harvesting, corpus storage, training and
// the run catalog into the two command entry points.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/deusflow/newscorpus/internal/classifier"
	"github.com/deusflow/newscorpus/internal/config"
	"github.com/deusflow/newscorpus/internal/dataset"
	"github.com/deusflow/newscorpus/internal/fetch"
	"github.com/deusflow/newscorpus/internal/harvest"
	"github.com/deusflow/newscorpus/internal/logger"
	"github.com/deusflow/newscorpus/internal/ratelimit"
	"github.com/deusflow/newscorpus/internal/retry"
	"github.com/deusflow/newscorpus/internal/sources"
	"github.com/deusflow/newscorpus/internal/storage"
)

// Harvest builds the corpus file of every configured category.
func Harvest(ctx context.Context, cfg *config.Config) error {
	client := retry.NewClient(fetch.NewClient(cfg.RequestTimeout), retry.Policy{
		MaxAttempts: cfg.FetchRetries + 1,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
	})
	return harvestWith(ctx, cfg, client)
}

func harvestWith(ctx context.Context, cfg *config.Config, client fetch.HTTPClient) error {
	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	catalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	if catalog != nil {
		defer catalog.Close()
	}

	h := harvest.New(reg, client, cfg.UserAgent)
	h.Limiter = ratelimit.NewHostLimiter(cfg.RequestsPerSecond)
	writer := storage.NewCorpusWriter(cfg.ArticlesDir, cfg.ShuffleSeed)
	runID := storage.NewRunID()

	logger.Info("Harvest started", "run_id", runID, "categories", reg.Names())
	for _, cat := range reg.Categories {
		previous := lastHarvestSize(ctx, catalog, cat.Name)

		res, err := h.Category(ctx, cat)
		if err != nil {
			return fmt.Errorf("harvest %s: %w", cat.Name, err)
		}

		path, err := writer.Write(cat.Name, res.Bodies)
		if err != nil {
			return fmt.Errorf("write %s corpus: %w", cat.Name, err)
		}
		logger.Info("Category harvested", append(res.Stats.Attrs(), "path", path, "previous_articles", previous)...)

		if catalog != nil {
			run := storage.HarvestRun{
				RunID:        runID,
				Category:     cat.Name,
				CorpusPath:   path,
				Articles:     len(res.Bodies),
				FeedsFetched: res.Stats.FeedsFetched,
				FeedsSkipped: res.Stats.FeedsSkipped,
				FinishedAt:   time.Now(),
			}
			if err := catalog.RecordHarvest(ctx, run); err != nil {
				logger.Warn("Failed to record harvest run", "category", cat.Name, "error", err)
			}
		}
	}
	logger.Info("Harvest finished", "run_id", runID)
	return nil
}

// Train balances the corpus, fits the model and saves the bundle.
func Train(ctx context.Context, cfg *config.Config) error {
	_, err := trainAt(ctx, cfg, time.Now())
	return err
}

func trainAt(ctx context.Context, cfg *config.Config, now time.Time) (string, error) {
	catalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return "", err
	}
	if catalog != nil {
		defer catalog.Close()
		if runs, err := catalog.RecentTrainings(ctx, 1); err != nil {
			logger.Warn("Failed to read training history", "error", err)
		} else if len(runs) > 0 {
			logger.Info("Previous bundle", "path", runs[0].BundlePath, "samples", runs[0].Samples)
		}
	}

	ds, err := dataset.Load(cfg.ArticlesDir)
	if err != nil {
		return "", err
	}
	logger.Info("Dataset loaded",
		"categories", len(ds.Categories),
		"per_category", ds.PerCategory,
		"samples", len(ds.Samples))

	start := time.Now()
	bundle, err := classifier.Train(ds.Bodies(), ds.Labels(), classifier.DefaultOptions())
	if err != nil {
		return "", fmt.Errorf("training failed: %w", err)
	}
	logger.Info("Model trained",
		"vocabulary", len(bundle.Vectorizer.Vocabulary),
		"selected", bundle.FeatureSelection.NOut,
		"solver_iterations", bundle.Clf.Iterations,
		"duration_ms", time.Since(start).Milliseconds())

	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := classifier.SaveBundle(cfg.TrainingDir, bundle, now)
	if err != nil {
		return "", err
	}
	logger.Info("Bundle saved", "path", path)

	if catalog != nil {
		run := storage.TrainingRun{
			RunID:       storage.NewRunID(),
			BundlePath:  path,
			Categories:  ds.Categories,
			PerCategory: ds.PerCategory,
			Samples:     len(ds.Samples),
			Vocabulary:  len(bundle.Vectorizer.Vocabulary),
			Selected:    bundle.FeatureSelection.NOut,
			FinishedAt:  time.Now(),
		}
		if err := catalog.RecordTraining(ctx, run); err != nil {
			logger.Warn("Failed to record training run", "error", err)
		}
	}
	return path, nil
}

// lastHarvestSize returns the article count of the previous harvest of
// category, or -1 when unknown.
func lastHarvestSize(ctx context.Context, catalog *storage.Catalog, category string) int {
	if catalog == nil {
		return -1
	}
	run, err := catalog.LatestHarvest(ctx, category)
	if err != nil {
		logger.Warn("Failed to read harvest history", "category", category, "error", err)
		return -1
	}
	if run == nil {
		return -1
	}
	return run.Articles
}

func loadRegistry(cfg *config.Config) (*sources.Registry, error) {
	if cfg.SourcesConfigPath == "" {
		reg := sources.Default()
		if err := reg.Validate(); err != nil {
			return nil, fmt.Errorf("built-in sources: %w", err)
		}
		return reg, nil
	}
	reg, err := sources.LoadFile(cfg.SourcesConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	logger.Info("Sources loaded", "path", cfg.SourcesConfigPath, "categories", len(reg.Categories))
	return reg, nil
}

// openCatalog returns nil when the catalog is disabled.
func openCatalog(ctx context.Context, cfg *config.Config) (*storage.Catalog, error) {
	if cfg.CatalogPath == "" {
		return nil, nil
	}
	c, err := storage.OpenCatalog(ctx, cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", cfg.CatalogPath, err)
	}
	return c, nil
}
