// Package pincode resolves the postal code of a place from its free-text
// title and address using the India Post lookup service.
package pincode

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/piratesdroid/travel-guide/internal/metrics"
	"github.com/piratesdroid/travel-guide/internal/models"
)

// StatusSuccess is the Status value of a response that found offices.
const StatusSuccess = "Success"

// Outcome is the answer of the postal service for one candidate.
type Outcome struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Offices []models.PostOffice `json:"offices,omitempty"`
}

// OK reports whether the outcome carries at least one office.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess && len(o.Offices) > 0
}

// LookupFunc queries the postal service with one candidate string.
type LookupFunc func(ctx context.Context, candidate string) (Outcome, error)

// Resolver turns a Query into a postal result by probing candidates in order.
type Resolver struct {
	lookup  LookupFunc
	log     *slog.Logger
	timeout time.Duration
}

// NewResolver builds a resolver. timeout bounds a whole Resolve call; zero disables it.
func NewResolver(lookup LookupFunc, log *slog.Logger, timeout time.Duration) *Resolver {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{lookup: lookup, log: log, timeout: timeout}
}

// Resolve returns the postal result for q, or nil when nothing matched.
//
// A six-digit token in the address wins without any lookup. Otherwise the
// candidates are tried one at a time and the first office of the first
// successful answer is used. Failed lookups are logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, q Query) *models.PostalResult {
	if code, ok := FromAddress(q.Address); ok {
		metrics.RecordResolution("address")
		return &models.PostalResult{Pincode: code}
	}

	candidates := Candidates(q)
	if len(candidates) == 0 {
		metrics.RecordResolution("invalid")
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			r.log.Debug("pincode resolve stopped",
				slog.String("candidate", candidate),
				slog.Any("err", ctx.Err()),
			)
			metrics.RecordResolution("canceled")
			return nil
		}

		out, err := r.lookup(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			metrics.RecordLookup("error")
			r.log.Warn("pincode lookup failed",
				slog.String("candidate", candidate),
				slog.Any("err", err),
			)
			continue
		}
		if !out.OK() {
			metrics.RecordLookup("empty")
			r.log.Debug("pincode candidate did not resolve",
				slog.String("candidate", candidate),
				slog.String("status", out.Status),
			)
			continue
		}

		metrics.RecordLookup("success")
		metrics.RecordResolution("lookup")
		return models.ResultFromOffice(out.Offices[0])
	}

	metrics.RecordResolution("none")
	return nil
}
