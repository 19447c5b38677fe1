package pincode

import (
	"context"
	"io"
	"log/slog"

	"github.com/piratesdroid/travel-guide/internal/metrics"
)

// Store keeps successful outcomes per candidate.
type Store interface {
	Get(ctx context.Context, key string) (Outcome, bool, error)
	Set(ctx context.Context, key string, o Outcome) error
}

// Cached wraps lookup so that successful outcomes are served from store.
// Failed and empty outcomes are never stored. Store errors degrade to a
// plain lookup.
func Cached(lookup LookupFunc, store Store, log *slog.Logger) LookupFunc {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return func(ctx context.Context, candidate string) (Outcome, error) {
		if o, ok, err := store.Get(ctx, candidate); err != nil {
			log.Warn("postal cache read failed", slog.String("candidate", candidate), slog.Any("err", err))
		} else if ok {
			metrics.RecordCache(true)
			return o, nil
		}
		metrics.RecordCache(false)

		o, err := lookup(ctx, candidate)
		if err != nil || !o.OK() {
			return o, err
		}
		if err := store.Set(ctx, candidate, o); err != nil {
			log.Warn("postal cache write failed", slog.String("candidate", candidate), slog.Any("err", err))
		}
		return o, nil
	}
}
