package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/store"
)

// ErrBatchNotStartable is returned when analysis is requested for a batch
// that is not in the uploaded state.
var ErrBatchNotStartable = eris.New("enrich: batch is not in the uploaded state")

// OrchestratorConfig tunes batch processing.
type OrchestratorConfig struct {
	// GroupSize is the number of records resolved concurrently per group.
	GroupSize int `yaml:"group_size" mapstructure:"group_size"`
	// Pacing is the delay inserted between consecutive groups.
	Pacing time.Duration `yaml:"pacing" mapstructure:"pacing"`
}

// DefaultOrchestratorConfig matches the external source's tolerated burst size.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{GroupSize: 5, Pacing: 2 * time.Second}
}

// Orchestrator drives a batch through its lifecycle: it resolves records in
// fixed-size concurrent groups, persists a snapshot after every group so
// pollers see live progress, and settles the batch into a terminal state.
type Orchestrator struct {
	store    store.Store
	resolver *Resolver
	cfg      OrchestratorConfig
}

// NewOrchestrator creates an Orchestrator. Zero config fields fall back to
// defaults.
func NewOrchestrator(st store.Store, resolver *Resolver, cfg OrchestratorConfig) *Orchestrator {
	def := DefaultOrchestratorConfig()
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = def.GroupSize
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = 0
	}
	return &Orchestrator{store: st, resolver: resolver, cfg: cfg}
}

// Run processes the identified batch to completion. Only an uploaded batch
// may start; anything else returns ErrBatchNotStartable so callers can map
// repeat requests to a conflict.
//
// A fatal fault from the external source aborts the run: unresolved records
// are marked not_processed and the batch is failed. Context cancellation
// persists whatever progress was made and leaves the batch in the analyzing
// state for inspection.
func (o *Orchestrator) Run(ctx context.Context, batchID string) error {
	b, err := o.store.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if b.Status != model.BatchStatusUploaded {
		return eris.Wrapf(ErrBatchNotStartable, "batch %s is %s", b.ID, b.Status)
	}

	log := zap.L().With(zap.String("batch", b.ID))

	now := time.Now().UTC()
	b.Status = model.BatchStatusAnalyzing
	b.StartedAt = &now
	if err := o.store.PutBatch(ctx, b); err != nil {
		return err
	}

	log.Info("batch analysis started",
		zap.Int("records", len(b.Records)),
		zap.Int("group_size", o.cfg.GroupSize),
	)

	for start := 0; start < len(b.Records); start += o.cfg.GroupSize {
		end := start + o.cfg.GroupSize
		if end > len(b.Records) {
			end = len(b.Records)
		}

		if err := o.processGroup(ctx, b, start, end); err != nil {
			if resilience.IsFatal(err) {
				return o.failBatch(ctx, b, err)
			}
			// Cancellation: keep the snapshot, leave the batch analyzing.
			if putErr := o.store.PutBatch(context.WithoutCancel(ctx), b); putErr != nil {
				log.Warn("persist on cancellation failed", zap.Error(putErr))
			}
			return err
		}

		if err := o.store.PutBatch(ctx, b); err != nil {
			return err
		}
		log.Debug("group processed",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("progress", b.Progress()),
		)

		if end < len(b.Records) && o.cfg.Pacing > 0 {
			select {
			case <-time.After(o.cfg.Pacing):
			case <-ctx.Done():
				if putErr := o.store.PutBatch(context.WithoutCancel(ctx), b); putErr != nil {
					log.Warn("persist on cancellation failed", zap.Error(putErr))
				}
				return ctx.Err()
			}
		}
	}

	completed := time.Now().UTC()
	b.Status = model.BatchStatusCompleted
	b.CompletedAt = &completed
	if err := o.store.PutBatch(ctx, b); err != nil {
		return err
	}

	c := b.Counts()
	log.Info("batch analysis completed",
		zap.Int("exact", c.Exact),
		zap.Int("partial", c.Partial),
		zap.Int("invalid", c.Invalid),
	)
	return nil
}

// processGroup resolves records [start, end) concurrently. Each goroutine
// writes only its own outcome slot.
func (o *Orchestrator) processGroup(ctx context.Context, b *model.Batch, start, end int) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := start; i < end; i++ {
		i := i
		g.Go(func() error {
			outcome, err := o.resolver.Resolve(gctx, b.Records[i])
			if err != nil {
				return err
			}
			b.Outcomes[i] = outcome
			return nil
		})
	}
	return g.Wait()
}

// failBatch settles the batch as failed: records never resolved are marked
// not_processed so every record carries a terminal outcome.
func (o *Orchestrator) failBatch(ctx context.Context, b *model.Batch, cause error) error {
	now := time.Now().UTC()
	for i, outcome := range b.Outcomes {
		if outcome != nil {
			continue
		}
		b.Outcomes[i] = &model.Outcome{
			Record:      b.Records[i],
			Status:      model.StatusNotProcessed,
			ProcessedAt: now,
			Error:       "run aborted before this record was processed",
		}
	}
	b.Status = model.BatchStatusFailed
	b.Error = eris.ToString(cause, false)
	b.CompletedAt = &now

	zap.L().Error("batch analysis failed",
		zap.String("batch", b.ID),
		zap.Error(cause),
	)

	if err := o.store.PutBatch(context.WithoutCancel(ctx), b); err != nil {
		return err
	}
	return cause
}
