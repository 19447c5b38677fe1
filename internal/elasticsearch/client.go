package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/piratesdroid/travel-guide/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// DefaultListSize caps how many records a collection load returns.
const DefaultListSize = 1000

// Client wraps go-elasticsearch with helpers tailored to this project.
// Each record kind lives in its own index named "<prefix>_<kind>".
type Client struct {
	es     *elasticsearch.Client
	prefix string
	log    *slog.Logger
}

// New instantiates the Elasticsearch client.
func New(addr, prefix string, logger *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, prefix: prefix, log: logger}, nil
}

func (c *Client) index(kind models.Kind) string {
	return c.prefix + "_" + string(kind)
}

func (c *Client) favoritesIndex() string {
	return c.prefix + "_favorites"
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// Health reports cluster health.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

// PutRecord writes doc under id in the index of kind.
func (c *Client) PutRecord(ctx context.Context, kind models.Kind, id string, doc any) error {
	return c.put(ctx, c.index(kind), id, doc)
}

// GetRecord loads the record id of kind into dst.
func (c *Client) GetRecord(ctx context.Context, kind models.Kind, id string, dst any) error {
	return c.get(ctx, c.index(kind), id, dst)
}

// DeleteRecord removes the record id of kind.
func (c *Client) DeleteRecord(ctx context.Context, kind models.Kind, id string) error {
	return c.delete(ctx, c.index(kind), id)
}

// ListRecords returns up to size raw records of kind ordered by ID.
func (c *Client) ListRecords(ctx context.Context, kind models.Kind, size int) ([]json.RawMessage, error) {
	return c.search(ctx, c.index(kind), map[string]any{"match_all": map[string]any{}}, size, nil)
}

// ListMissingPincode returns up to size raw records of kind without a pincode,
// never-checked records first, then the ones checked longest ago.
func (c *Client) ListMissingPincode(ctx context.Context, kind models.Kind, size int) ([]json.RawMessage, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must_not": []map[string]any{
				{"exists": map[string]any{"field": "pincode"}},
			},
		},
	}
	byChecked := map[string]any{
		"pincode_checked_at": map[string]any{"order": "asc", "missing": "_first", "unmapped_type": "date"},
	}
	return c.search(ctx, c.index(kind), query, size, byChecked)
}

// Decode unmarshals raw records into T.
func Decode[T any](raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var doc T
		if err := json.Unmarshal(r, &doc); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *Client) put(ctx context.Context, index, id string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index doc: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index doc failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

func (c *Client) get(ctx context.Context, index, id string, dst any) error {
	res, err := c.es.Get(index, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("get doc: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("get doc failed: %s", strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode get response: %w", err)
	}
	if !parsed.Found {
		return ErrNotFound
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(parsed.Source, dst); err != nil {
		return fmt.Errorf("decode doc: %w", err)
	}
	return nil
}

func (c *Client) delete(ctx context.Context, index, id string) error {
	res, err := c.es.Delete(index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete doc: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("delete doc failed: %s", strings.TrimSpace(string(body)))
	}
	return nil
}

// search runs query sorted by first (when set) and then by ID.
func (c *Client) search(ctx context.Context, index string, query map[string]any, size int, first map[string]any) ([]json.RawMessage, error) {
	if size <= 0 || size > DefaultListSize {
		size = DefaultListSize
	}

	sort := []map[string]any{
		{"ID.keyword": map[string]any{"order": "asc", "unmapped_type": "keyword"}},
	}
	if first != nil {
		sort = append([]map[string]any{first}, sort...)
	}
	body := map[string]any{
		"size":  size,
		"query": query,
		"sort":  sort,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
		c.es.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]json.RawMessage, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}
	return items, nil
}

// Favorite is the stored form of Favorite/Place/{uid}/{placeId}.
type Favorite struct {
	UserID    string    `json:"uid"`
	PlaceID   string    `json:"place_id"`
	CreatedAt time.Time `json:"created_at"`
}

func favoriteID(uid, placeID string) string {
	return uid + "__" + placeID
}

// SetFavorite marks placeID as a favorite of uid.
func (c *Client) SetFavorite(ctx context.Context, uid, placeID string) error {
	fav := Favorite{UserID: uid, PlaceID: placeID, CreatedAt: time.Now().UTC()}
	return c.put(ctx, c.favoritesIndex(), favoriteID(uid, placeID), fav)
}

// DeleteFavorite removes the favorite; a missing favorite is not an error.
func (c *Client) DeleteFavorite(ctx context.Context, uid, placeID string) error {
	err := c.delete(ctx, c.favoritesIndex(), favoriteID(uid, placeID))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// IsFavorite reports whether uid favorited placeID.
func (c *Client) IsFavorite(ctx context.Context, uid, placeID string) (bool, error) {
	err := c.get(ctx, c.favoritesIndex(), favoriteID(uid, placeID), nil)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListFavorites returns the place IDs favorited by uid.
func (c *Client) ListFavorites(ctx context.Context, uid string) ([]string, error) {
	query := map[string]any{
		"term": map[string]any{"uid.keyword": uid},
	}
	raw, err := c.search(ctx, c.favoritesIndex(), query, DefaultListSize, nil)
	if err != nil {
		return nil, err
	}
	favs, err := Decode[Favorite](raw)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.PlaceID)
	}
	return ids, nil
}
