package notify

import (
	"context"

	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

// Fanout publishes every batch to all sinks concurrently. It returns the
// joined errors of the sinks that failed.
type Fanout struct {
	sinks  []notification.Publisher
	logger *logging.Logger
}

func NewFanout(logger *logging.Logger, sinks ...notification.Publisher) *Fanout {
	if logger == nil {
		logger = logging.Default()
	}
	filtered := make([]notification.Publisher, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return &Fanout{sinks: filtered, logger: logger}
}

func (f *Fanout) Publish(ctx context.Context, events ...notification.Event) error {
	if len(events) == 0 || len(f.sinks) == 0 {
		return nil
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, sink := range f.sinks {
		sink := sink
		p.Go(func(ctx context.Context) error {
			return sink.Publish(ctx, events...)
		})
	}
	if err := p.Wait(); err != nil {
		f.logger.WarnContext(ctx, "notification fanout partially failed", "events", len(events), "error", err)
		return err
	}
	return nil
}
