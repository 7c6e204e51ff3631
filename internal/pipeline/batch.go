package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadscout/internal/model"
)

// BatchResult counts the outcome of ProcessBatch.
type BatchResult struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// ProcessBatch runs ProcessEvent over events with at most concurrency in
// flight. Individual failures are logged and counted; only context
// cancellation aborts the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, events []model.Event, concurrency int) (BatchResult, error) {
	if len(events) == 0 {
		zap.L().Info("pipeline: no events to process")
		return BatchResult{}, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("pipeline: processing batch",
		zap.Int("events", len(events)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	for i, ev := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log := zap.L().With(zap.Int("index", i), zap.String("domain", ev.Company.Domain))

			res, err := p.ProcessEvent(gctx, ev)
			if err != nil {
				failed.Add(1)
				log.Error("pipeline: event failed", zap.Error(err))
				return nil
			}
			succeeded.Add(1)
			log.Debug("pipeline: event processed",
				zap.Int64("company_id", res.Company.ID),
				zap.Bool("created", res.Created),
			)
			return nil
		})
	}

	out := BatchResult{}
	err := g.Wait()
	out.Succeeded, out.Failed = succeeded.Load(), failed.Load()
	if err != nil {
		return out, eris.Wrap(err, "pipeline: batch processing")
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int64("succeeded", out.Succeeded),
		zap.Int64("failed", out.Failed),
	)
	return out, nil
}
