package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type requeuer interface {
	Requeue(ctx context.Context, id uuid.UUID) error
}

// requeueEvents puts parked events back in the publish queue. ids is a
// comma-separated list; every id is attempted and failures are combined.
func requeueEvents(ctx context.Context, repo requeuer, logg *logger.Logger, ids string) (int, error) {
	var (
		requeued int
		errs     error
	)
	for _, raw := range strings.Split(ids, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("event id %q: %w", raw, err))
			continue
		}
		if err := repo.Requeue(ctx, id); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("requeue %s: %w", id, err))
			continue
		}
		requeued++
		if logg != nil {
			logg.Info(logg.WithField(ctx, "event_id", id.String()), "outbox event requeued")
		}
	}
	if requeued == 0 && errs == nil {
		return 0, fmt.Errorf("no event ids given")
	}
	return requeued, errs
}
