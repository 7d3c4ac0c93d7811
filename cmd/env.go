package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/match"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/server"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/pkg/apollo"
)

// openStore builds the configured persistence backend and applies migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	switch cfg.Store.Driver {
	case "memory":
		st = store.NewMemory()
	case "sqlite":
		s, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = s
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
		if err != nil {
			return nil, err
		}
		st = s
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// newScorer builds the scorer from the configured vocabulary and thresholds.
func newScorer() (*match.Scorer, error) {
	vocab := match.DefaultVocab()
	if cfg.Match.VocabPath != "" {
		v, err := match.LoadVocab(cfg.Match.VocabPath)
		if err != nil {
			return nil, err
		}
		vocab = v
	}
	return match.NewScorer(match.NewMatcher(vocab), cfg.Match.Thresholds), nil
}

// newSourceFactory returns the per-batch lookup client constructor. Without
// an API key every batch gets a stub seeded with its own records.
func newSourceFactory() server.SourceFactory {
	if cfg.Apollo.Stub() {
		zap.L().Info("no external source key configured, using stub source")
		return func(records []model.Record) apollo.Client {
			return enrich.NewStubSource(records)
		}
	}

	client := apollo.NewClient(cfg.Apollo.Key,
		apollo.WithBaseURL(cfg.Apollo.BaseURL),
		apollo.WithRequestBudget(cfg.Apollo.RateLimitPerMinute),
	)
	return func([]model.Record) apollo.Client { return client }
}

// retryConfig derives the lookup retry policy from batch settings.
func retryConfig() resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	if cfg.Batch.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.Batch.MaxAttempts
	}
	rc.OnRetry = resilience.RetryLogger("lookup")
	return rc
}

// orchestratorConfig derives group processing settings for the active source.
func orchestratorConfig() enrich.OrchestratorConfig {
	return enrich.OrchestratorConfig{
		GroupSize: cfg.Batch.GroupSize,
		Pacing:    cfg.Batch.EffectivePacing(cfg.Apollo.Stub()),
	}
}
