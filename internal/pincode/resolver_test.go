package pincode_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/piratesdroid/travel-guide/internal/models"
	"github.com/piratesdroid/travel-guide/internal/pincode"
)

type fakeLookup struct {
	calls   []string
	answers map[string]pincode.Outcome
	errs    map[string]error
}

func (f *fakeLookup) Lookup(_ context.Context, candidate string) (pincode.Outcome, error) {
	f.calls = append(f.calls, candidate)
	if err, ok := f.errs[candidate]; ok {
		return pincode.Outcome{}, err
	}
	return f.answers[candidate], nil
}

func success(offices ...models.PostOffice) pincode.Outcome {
	return pincode.Outcome{Status: pincode.StatusSuccess, Offices: offices}
}

func TestResolveAddressFastPath(t *testing.T) {
	f := &fakeLookup{}
	r := pincode.NewResolver(f.Lookup, nil, 0)

	got := r.Resolve(context.Background(), pincode.Query{Title: "Anything", Address: "Near Market Road, Pune, 411001"})
	require.Equal(t, &models.PostalResult{Pincode: "411001"}, got)
	require.Empty(t, f.calls)
}

func TestResolveFirstSuccessWins(t *testing.T) {
	f := &fakeLookup{
		errs: map[string]error{"Shaniwarwada": errors.New("connection reset")},
		answers: map[string]pincode.Outcome{
			"Maharashtra": success(
				models.PostOffice{Name: "X", Pincode: "412105", District: "Pune", State: "Maharashtra"},
				models.PostOffice{Name: "Y", Pincode: "999999"},
			),
			"Pune": success(models.PostOffice{Name: "Z", Pincode: "411001"}),
		},
	}
	r := pincode.NewResolver(f.Lookup, nil, 0)

	got := r.Resolve(context.Background(), pincode.Query{Title: "Shaniwarwada, Pune", Address: "Pune, Maharashtra"})
	require.Equal(t, &models.PostalResult{Pincode: "412105", District: "Pune", State: "Maharashtra"}, got)
	require.Equal(t, []string{"Shaniwarwada", "Maharashtra"}, f.calls)
}

func TestResolveNoResult(t *testing.T) {
	f := &fakeLookup{
		errs: map[string]error{"Mahad": errors.New("timeout")},
		answers: map[string]pincode.Outcome{
			"Raigad":      {Status: "Error", Message: "No records found"},
			"Maharashtra": {Status: pincode.StatusSuccess},
		},
	}
	r := pincode.NewResolver(f.Lookup, nil, 0)

	got := r.Resolve(context.Background(), pincode.Query{Title: "Raigad", Address: "Maharashtra, Mahad"})
	require.Nil(t, got)
	require.Equal(t, []string{"Raigad", "Mahad", "Maharashtra"}, f.calls)
}

func TestResolveInvalidInput(t *testing.T) {
	f := &fakeLookup{}
	r := pincode.NewResolver(f.Lookup, nil, 0)

	require.Nil(t, r.Resolve(context.Background(), pincode.Query{}))
	require.Nil(t, r.Resolve(context.Background(), pincode.Query{Title: "  ", Address: "MH"}))
	require.Empty(t, f.calls)
}

func TestResolveCandidatesAreUnique(t *testing.T) {
	f := &fakeLookup{}
	r := pincode.NewResolver(f.Lookup, nil, 0)

	r.Resolve(context.Background(), pincode.Query{Title: "Pune, India", Address: "Pune, Pune, Maharashtra, Pune"})
	require.Equal(t, []string{"Pune", "Maharashtra"}, f.calls)
}

func TestResolveStopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls []string
	lookup := func(_ context.Context, candidate string) (pincode.Outcome, error) {
		calls = append(calls, candidate)
		cancel()
		return pincode.Outcome{}, context.Canceled
	}
	r := pincode.NewResolver(lookup, nil, 0)

	require.Nil(t, r.Resolve(ctx, pincode.Query{Title: "A fort", Address: "Mahad, Raigad"}))
	require.Equal(t, []string{"A fort"}, calls)
}

func TestResolveOverallTimeout(t *testing.T) {
	var calls int
	lookup := func(ctx context.Context, _ string) (pincode.Outcome, error) {
		calls++
		<-ctx.Done()
		return pincode.Outcome{}, ctx.Err()
	}
	r := pincode.NewResolver(lookup, nil, 20*time.Millisecond)

	require.Nil(t, r.Resolve(context.Background(), pincode.Query{Title: "One", Address: "Two, Three"}))
	require.Equal(t, 1, calls)
}
