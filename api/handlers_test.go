package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/piratesdroid/travel-guide/internal/auth"
	"github.com/piratesdroid/travel-guide/internal/elasticsearch"
	"github.com/piratesdroid/travel-guide/internal/favorites"
	"github.com/piratesdroid/travel-guide/internal/filter"
	"github.com/piratesdroid/travel-guide/internal/logger"
	"github.com/piratesdroid/travel-guide/internal/models"
	"github.com/piratesdroid/travel-guide/internal/pincode"
	"github.com/piratesdroid/travel-guide/internal/validate"
)

type fakeRecords struct {
	order     map[models.Kind][]string
	docs      map[models.Kind]map[string]json.RawMessage
	healthErr error
	listErr   error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		order: make(map[models.Kind][]string),
		docs:  make(map[models.Kind]map[string]json.RawMessage),
	}
}

func (f *fakeRecords) add(t *testing.T, kind models.Kind, id string, doc any) {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	if f.docs[kind] == nil {
		f.docs[kind] = make(map[string]json.RawMessage)
	}
	f.order[kind] = append(f.order[kind], id)
	f.docs[kind][id] = data
}

func (f *fakeRecords) Health(context.Context) error { return f.healthErr }

func (f *fakeRecords) GetRecord(_ context.Context, kind models.Kind, id string, dst any) error {
	doc, ok := f.docs[kind][id]
	if !ok {
		return elasticsearch.ErrNotFound
	}
	return json.Unmarshal(doc, dst)
}

func (f *fakeRecords) ListRecords(_ context.Context, kind models.Kind, _ int) ([]json.RawMessage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]json.RawMessage, 0, len(f.order[kind]))
	for _, id := range f.order[kind] {
		out = append(out, f.docs[kind][id])
	}
	return out, nil
}

type fakeDirectory struct {
	offices []models.PostOffice
	err     error
}

func (f *fakeDirectory) Search(context.Context, string) ([]models.PostOffice, error) {
	return f.offices, f.err
}

func (f *fakeDirectory) Details(_ context.Context, name, code string) (*models.PostOffice, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, po := range f.offices {
		if po.Name == name && po.Pincode == code {
			return &po, nil
		}
	}
	return nil, pincode.ErrNotFound
}

type fakeResolver struct {
	keys    []string
	queries []pincode.Query
	result  *models.PostalResult
}

func (f *fakeResolver) Resolve(_ context.Context, key string, q pincode.Query) *models.PostalResult {
	f.keys = append(f.keys, key)
	f.queries = append(f.queries, q)
	return f.result
}

type favStore struct {
	favs map[string][]string
}

func (s *favStore) SetFavorite(_ context.Context, uid, placeID string) error {
	for _, id := range s.favs[uid] {
		if id == placeID {
			return nil
		}
	}
	s.favs[uid] = append(s.favs[uid], placeID)
	return nil
}

func (s *favStore) DeleteFavorite(_ context.Context, uid, placeID string) error {
	ids := s.favs[uid][:0]
	for _, id := range s.favs[uid] {
		if id != placeID {
			ids = append(ids, id)
		}
	}
	s.favs[uid] = ids
	return nil
}

func (s *favStore) IsFavorite(_ context.Context, uid, placeID string) (bool, error) {
	for _, id := range s.favs[uid] {
		if id == placeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *favStore) ListFavorites(_ context.Context, uid string) ([]string, error) {
	return append([]string(nil), s.favs[uid]...), nil
}

type fixture struct {
	srv      *server
	records  *fakeRecords
	postal   *fakeDirectory
	resolver *fakeResolver
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		records:  newFakeRecords(),
		postal:   &fakeDirectory{},
		resolver: &fakeResolver{},
	}
	f.srv = &server{
		log:       logger.Discard(),
		records:   f.records,
		postal:    f.postal,
		pincodes:  f.resolver,
		favorites: favorites.NewService(&favStore{favs: make(map[string][]string)}),
		verifier:  auth.NewVerifier("secret", "travel-guide"),
		validate:  validate.New(),
		rng:       rand.New(rand.NewPCG(1, 2)),
	}
	f.handler = f.srv.routes()

	f.records.add(t, models.KindPlace, "1", models.Place{ID: "1", Title: "Shaniwar Wada", Add: "Shaniwar Peth, Pune", Type: "Heritage"})
	f.records.add(t, models.KindPlace, "2", models.Place{ID: "2", Title: "Calangute Beach", Add: "Goa", Type: "beach", Postal: models.Postal{Pincode: "403516", District: "North Goa", State: "Goa"}})
	f.records.add(t, models.KindPlace, "3", models.Place{ID: "3", Title: "Aga Khan Palace", Add: "Pune", Type: "Heritage"})
	f.records.add(t, models.KindPlace, "4", models.Place{ID: "4", Add: "Untitled, Pune"})
	lat, lng := models.Coord(18.366), models.Coord(73.755)
	f.records.add(t, models.KindFort, "f1", models.Fort{ID: "f1", Name: "Sinhagad", Address: "Thoptewadi, Pune", Geo: models.Geo{Lat: &lat, Lng: &lng}})
	f.records.add(t, models.KindBlog, "b1", models.Blog{ID: "b1", Title: "Monsoon treks", Content: "Rajmachi in the rain", Category: "Trekking"})
	return f
}

func (f *fixture) do(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func titles(places []models.Place) []string {
	out := make([]string, 0, len(places))
	for _, p := range places {
		out = append(out, p.Title)
	}
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", "").Code)

	f.records.healthErr = errors.New("red")
	require.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/health", "").Code)
}

func TestListPlaces(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/places", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[listResponse[models.Place]](t, rec)
	require.Equal(t, 3, resp.Total, "records without a title are dropped")
	require.Equal(t, []string{"Shaniwar Wada", "Calangute Beach", "Aga Khan Palace"}, titles(resp.Items))
	require.Equal(t, []string{"All", "Heritage", "beach"}, resp.Categories)

	require.Equal(t, &filter.State{ActiveCategory: "All"}, resp.Filter)

	resp = decode[listResponse[models.Place]](t, f.do(t, http.MethodGet, "/places?q=pune&category=HERITAGE", ""))
	require.Equal(t, []string{"Shaniwar Wada", "Aga Khan Palace"}, titles(resp.Items))
	require.Equal(t, &filter.State{SearchTerm: "pune", ActiveCategory: "HERITAGE"}, resp.Filter)

	resp = decode[listResponse[models.Place]](t, f.do(t, http.MethodGet, "/places?q=goa&category=all", ""))
	require.Equal(t, []string{"Calangute Beach"}, titles(resp.Items))

	resp = decode[listResponse[models.Place]](t, f.do(t, http.MethodGet, "/places?q=mumbai", ""))
	require.Zero(t, resp.Total)
	require.Empty(t, resp.Items)
}

func TestListFortsAndBlogs(t *testing.T) {
	f := newFixture(t)

	forts := decode[listResponse[models.Fort]](t, f.do(t, http.MethodGet, "/forts?q=thopte", ""))
	require.Equal(t, 1, forts.Total)
	require.Equal(t, "Sinhagad", forts.Items[0].DisplayTitle())
	require.Empty(t, forts.Categories)

	blogs := decode[listResponse[models.Blog]](t, f.do(t, http.MethodGet, "/blogs?q=rain&category=trekking", ""))
	require.Equal(t, 1, blogs.Total)
	require.Equal(t, []string{"All", "Trekking"}, blogs.Categories)
}

func TestListStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.records.listErr = errors.New("boom")
	require.Equal(t, http.StatusInternalServerError, f.do(t, http.MethodGet, "/places", "").Code)
}

func TestGetRecord(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/forts/f1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	fort := decode[struct {
		Record      models.Fort         `json:"record"`
		Coordinates *models.Coordinates `json:"coordinates"`
	}](t, rec)
	require.Equal(t, "Sinhagad", fort.Record.Name)
	require.Equal(t, &models.Coordinates{Lat: 18.366, Lng: 73.755}, fort.Coordinates)

	rec = f.do(t, http.MethodGet, "/places/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "coordinates")

	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/blogs/missing", "").Code)
}

func TestRelatedPlaces(t *testing.T) {
	f := newFixture(t)

	resp := decode[listResponse[models.Place]](t, f.do(t, http.MethodGet, "/places/1/related?limit=1", ""))
	require.Equal(t, []string{"Aga Khan Palace"}, titles(resp.Items))

	resp = decode[listResponse[models.Place]](t, f.do(t, http.MethodGet, "/places/1/related", ""))
	require.Len(t, resp.Items, 2)
	require.Equal(t, "Aga Khan Palace", resp.Items[0].Title)
}

func TestPlacePincodeStored(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/places/2/pincode", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.PostalResult{Pincode: "403516", District: "North Goa", State: "Goa"}, decode[models.PostalResult](t, rec))
	require.Empty(t, f.resolver.keys)
}

func TestPlacePincodeResolved(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/places/1/pincode", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []string{"place/1"}, f.resolver.keys)
	require.Equal(t, pincode.Query{Title: "Shaniwar Wada", Address: "Shaniwar Peth, Pune"}, f.resolver.queries[0])

	f.resolver.result = &models.PostalResult{Pincode: "411030"}
	rec = f.do(t, http.MethodGet, "/forts/f1/pincode", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "411030", decode[models.PostalResult](t, rec).Pincode)
	require.Equal(t, "fort/f1", f.resolver.keys[1])
	require.Equal(t, pincode.Query{Title: "Sinhagad", Address: "Thoptewadi, Pune"}, f.resolver.queries[1])

	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/places/nope/pincode", "").Code)
}

func TestPincodeSearchAndDetails(t *testing.T) {
	f := newFixture(t)
	f.postal.offices = []models.PostOffice{
		{Name: "Shivajinagar", Pincode: "411005", District: "Pune", State: "Maharashtra"},
	}

	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/pincode/search?q=+", "").Code)

	resp := decode[listResponse[models.PostOffice]](t, f.do(t, http.MethodGet, "/pincode/search?q=shivaji", ""))
	require.Equal(t, 1, resp.Total)

	f.postal.offices = []models.PostOffice{}
	rec := f.do(t, http.MethodGet, "/pincode/search?q=atlantis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"total":0,"items":[]}`, rec.Body.String())
	f.postal.offices = []models.PostOffice{
		{Name: "Shivajinagar", Pincode: "411005", District: "Pune", State: "Maharashtra"},
	}

	rec = f.do(t, http.MethodGet, "/pincode/details?name=Shivajinagar&pincode=411005", "")
	require.Equal(t, http.StatusOK, rec.Code)
	office := decode[officeResponse](t, rec)
	require.Equal(t, "Pune", office.District)
	require.Equal(t, "Shivajinagar Post Office, Pincode: 411005, District: Pune, State: Maharashtra", office.Summary)

	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/pincode/details?name=Other&pincode=411005", "").Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/pincode/details?name=Other", "").Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/pincode/details?name=Shivajinagar&pincode=4110", "").Code)

	f.postal.err = fmt.Errorf("%w: 503 Service Unavailable", pincode.ErrUpstream)
	require.Equal(t, http.StatusBadGateway, f.do(t, http.MethodGet, "/pincode/search?q=x", "").Code)
}

func TestFavoritesRequireToken(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/favorites", "").Code)
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPut, "/favorites/1", "garbage").Code)

	other := auth.NewVerifier("other-secret", "travel-guide")
	token, err := other.Issue(auth.User{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/favorites", token).Code)
}

func TestFavoritesFlow(t *testing.T) {
	f := newFixture(t)
	token, err := f.srv.verifier.Issue(auth.User{ID: "u1", Email: "u1@example.com"}, time.Hour)
	require.NoError(t, err)

	fav := decode[favoriteResponse](t, f.do(t, http.MethodGet, "/favorites/2", token))
	require.False(t, fav.Favorited)

	rec := f.do(t, http.MethodPut, "/favorites/2", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[favoriteResponse](t, rec).Favorited)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/favorites/gone", token).Code)

	fav = decode[favoriteResponse](t, f.do(t, http.MethodGet, "/favorites/2", token))
	require.True(t, fav.Favorited)

	list := decode[listResponse[models.Place]](t, f.do(t, http.MethodGet, "/favorites", token))
	require.Equal(t, []string{"Calangute Beach"}, titles(list.Items), "favorites of deleted places are skipped")

	rec = f.do(t, http.MethodDelete, "/favorites/2", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, decode[favoriteResponse](t, rec).Favorited)

	list = decode[listResponse[models.Place]](t, f.do(t, http.MethodGet, "/favorites", token))
	require.Zero(t, list.Total)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/places", "")

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "travelguide_listing_duration_seconds")
}
