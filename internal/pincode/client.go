package pincode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/piratesdroid/travel-guide/internal/models"
)

// DefaultBaseURL is the public India Post lookup API.
const DefaultBaseURL = "https://api.postalpincode.in"

var (
	// ErrNotFound is returned when the service has no matching office.
	ErrNotFound = errors.New("post office not found")
	// ErrUpstream wraps transport failures, non-2xx answers and undecodable
	// bodies from the service. A "no records" answer is not one of them.
	ErrUpstream = errors.New("postal service unavailable")
)

var exactPincode = regexp.MustCompile(`^\d{6}$`)

// Client talks to the postal lookup service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a client. Requests are throttled to limit per second with
// the given burst; a zero limit disables throttling.
func NewClient(baseURL string, timeout time.Duration, limit rate.Limit, burst int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if limit <= 0 {
		limit = rate.Inf
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type apiResponse struct {
	Message    string              `json:"Message"`
	Status     string              `json:"Status"`
	PostOffice []models.PostOffice `json:"PostOffice"`
}

// LookupPostOffice searches offices by branch or place name.
func (c *Client) LookupPostOffice(ctx context.Context, name string) (Outcome, error) {
	return c.get(ctx, "/postoffice/"+url.PathEscape(name))
}

// LookupPincode lists the offices sharing a pincode.
func (c *Client) LookupPincode(ctx context.Context, code string) (Outcome, error) {
	return c.get(ctx, "/pincode/"+url.PathEscape(code))
}

// Lookup adapts LookupPostOffice to a LookupFunc.
func (c *Client) Lookup(ctx context.Context, candidate string) (Outcome, error) {
	return c.LookupPostOffice(ctx, candidate)
}

// Search runs the pincode tool query: six digits look up a pincode,
// anything else a post office name. Empty queries and queries the service
// has no records for yield no offices and no error.
func (c *Client) Search(ctx context.Context, query string) ([]models.PostOffice, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var (
		out Outcome
		err error
	)
	if exactPincode.MatchString(query) {
		out, err = c.LookupPincode(ctx, query)
	} else {
		out, err = c.LookupPostOffice(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	if !out.OK() {
		return []models.PostOffice{}, nil
	}
	return out.Offices, nil
}

// Details returns the office called name among those of pincode.
func (c *Client) Details(ctx context.Context, name, code string) (*models.PostOffice, error) {
	if name == "" || code == "" {
		return nil, ErrNotFound
	}
	out, err := c.LookupPincode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !out.OK() {
		return nil, fmt.Errorf("%w: no offices for %s", ErrNotFound, code)
	}
	for _, po := range out.Offices {
		if po.Name == name {
			return &po, nil
		}
	}
	return nil, ErrNotFound
}

func (c *Client) get(ctx context.Context, path string) (Outcome, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Outcome{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("build postal request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: postal request: %w", ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return Outcome{}, fmt.Errorf("%w: %s: %s", ErrUpstream, res.Status, strings.TrimSpace(string(body)))
	}

	var parsed []apiResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Outcome{}, fmt.Errorf("%w: decode postal response: %w", ErrUpstream, err)
	}
	if len(parsed) == 0 {
		return Outcome{}, fmt.Errorf("%w: decode postal response: empty array", ErrUpstream)
	}

	first := parsed[0]
	return Outcome{
		Status:  first.Status,
		Message: first.Message,
		Offices: first.PostOffice,
	}, nil
}
