package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/piratesdroid/travel-guide/internal/elasticsearch"
	"github.com/piratesdroid/travel-guide/internal/metrics"
	"github.com/piratesdroid/travel-guide/internal/models"
	"github.com/piratesdroid/travel-guide/internal/pincode"
)

type recordStore interface {
	ListMissingPincode(ctx context.Context, kind models.Kind, size int) ([]json.RawMessage, error)
	PutRecord(ctx context.Context, kind models.Kind, id string, doc any) error
}

type resolver interface {
	Resolve(ctx context.Context, q pincode.Query) *models.PostalResult
}

type refresher struct {
	log         *slog.Logger
	store       recordStore
	resolver    resolver
	batchSize   int
	concurrency int
	now         func() time.Time
}

type runStats struct {
	scanned int
	updated int64
}

// pending is a record whose postal fields can be filled in place.
type pending struct {
	kind   models.Kind
	id     string
	query  pincode.Query
	postal *models.Postal
	doc    any
}

// run resolves a batch of places and forts stored without a pincode. Every
// tried record is written back with its check time, so records that stay
// unresolved sort behind the ones not yet tried on the next run.
func (j *refresher) run(ctx context.Context) (runStats, error) {
	var stats runStats
	now := j.now
	if now == nil {
		now = time.Now
	}

	batch, err := j.load(ctx)
	if err != nil {
		return stats, err
	}
	stats.scanned = len(batch)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(j.concurrency, 1))

	for _, item := range batch {
		g.Go(func() error {
			res := j.resolver.Resolve(gctx, item.query)
			if res == nil && gctx.Err() != nil {
				// Interrupted, not tried: leave it first in line.
				return nil
			}
			checked := now().UTC()
			item.postal.CheckedAt = &checked
			item.postal.Apply(res)
			if err := j.store.PutRecord(gctx, item.kind, item.id, item.doc); err != nil {
				metrics.RecordProcessed(string(item.kind), "failed")
				return fmt.Errorf("write %s %s: %w", item.kind, item.id, err)
			}
			if res == nil {
				metrics.RecordProcessed(string(item.kind), "unresolved")
				return nil
			}
			metrics.RecordProcessed(string(item.kind), "refreshed")
			atomic.AddInt64(&stats.updated, 1)
			j.log.Debug("pincode refreshed",
				slog.String("kind", string(item.kind)),
				slog.String("id", item.id),
				slog.String("pincode", res.Pincode),
			)
			return nil
		})
	}

	err = g.Wait()
	return stats, err
}

func (j *refresher) load(ctx context.Context) ([]pending, error) {
	places, err := listMissing[models.Place](ctx, j.store, models.KindPlace, j.batchSize)
	if err != nil {
		return nil, err
	}
	forts, err := listMissing[models.Fort](ctx, j.store, models.KindFort, j.batchSize)
	if err != nil {
		return nil, err
	}

	out := make([]pending, 0, len(places)+len(forts))
	for i := range places {
		p := &places[i]
		if p.ID == "" {
			continue
		}
		out = append(out, pending{
			kind:   models.KindPlace,
			id:     p.ID,
			query:  pincode.Query{Title: p.Title, Address: p.Add},
			postal: &p.Postal,
			doc:    p,
		})
	}
	for i := range forts {
		f := &forts[i]
		if f.ID == "" {
			continue
		}
		out = append(out, pending{
			kind:   models.KindFort,
			id:     f.ID,
			query:  pincode.Query{Title: f.DisplayTitle(), Address: f.Address},
			postal: &f.Postal,
			doc:    f,
		})
	}
	return out, nil
}

func listMissing[T any](ctx context.Context, store recordStore, kind models.Kind, size int) ([]T, error) {
	raw, err := store.ListMissingPincode(ctx, kind, size)
	if err != nil {
		return nil, fmt.Errorf("list %s missing pincode: %w", kind, err)
	}
	return elasticsearch.Decode[T](raw)
}
