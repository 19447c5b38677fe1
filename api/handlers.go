package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/piratesdroid/travel-guide/internal/auth"
	"github.com/piratesdroid/travel-guide/internal/elasticsearch"
	"github.com/piratesdroid/travel-guide/internal/favorites"
	"github.com/piratesdroid/travel-guide/internal/filter"
	"github.com/piratesdroid/travel-guide/internal/metrics"
	"github.com/piratesdroid/travel-guide/internal/models"
	"github.com/piratesdroid/travel-guide/internal/pincode"
	"github.com/piratesdroid/travel-guide/internal/validate"
)

const (
	defaultRelated = 4
	maxRelated     = 20
)

type recordStore interface {
	Health(ctx context.Context) error
	GetRecord(ctx context.Context, kind models.Kind, id string, dst any) error
	ListRecords(ctx context.Context, kind models.Kind, size int) ([]json.RawMessage, error)
}

type postalDirectory interface {
	Search(ctx context.Context, query string) ([]models.PostOffice, error)
	Details(ctx context.Context, name, code string) (*models.PostOffice, error)
}

type pincodeResolver interface {
	Resolve(ctx context.Context, key string, q pincode.Query) *models.PostalResult
}

type server struct {
	log       *slog.Logger
	records   recordStore
	postal    postalDirectory
	pincodes  pincodeResolver
	favorites *favorites.Service
	verifier  *auth.Verifier
	validate  *validate.Validator
	rng       *rand.Rand
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/places", listHandler[models.Place](s, models.KindPlace))
	r.Get("/places/{id}", getHandler[models.Place](s, models.KindPlace))
	r.Get("/places/{id}/pincode", s.handlePlacePincode)
	r.Get("/places/{id}/related", s.handleRelated)

	r.Get("/forts", listHandler[models.Fort](s, models.KindFort))
	r.Get("/forts/{id}", getHandler[models.Fort](s, models.KindFort))
	r.Get("/forts/{id}/pincode", s.handleFortPincode)

	r.Get("/blogs", listHandler[models.Blog](s, models.KindBlog))
	r.Get("/blogs/{id}", getHandler[models.Blog](s, models.KindBlog))

	r.Get("/pincode/search", s.handlePincodeSearch)
	r.Get("/pincode/details", s.handlePincodeDetails)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/favorites", s.handleListFavorites)
		r.Get("/favorites/{placeID}", s.handleGetFavorite)
		r.Put("/favorites/{placeID}", s.handleSetFavorite)
		r.Delete("/favorites/{placeID}", s.handleDeleteFavorite)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type recordResponse struct {
	Record      any                 `json:"record"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
}

type officeResponse struct {
	models.PostOffice
	Summary string `json:"summary"`
}

type listResponse[T any] struct {
	Total      int      `json:"total"`
	Items      []T      `json:"items"`
	Categories []string      `json:"categories,omitempty"`
	Filter     *filter.State `json:"filter,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.records.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listHandler loads the whole collection and narrows it with the q and
// category query parameters.
func listHandler[T filter.Viewer](s *server, kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		records, err := loadAll[T](ctx, s.records, kind)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		listing := filter.NewListing(records)
		items := listing.SetSearch(r.URL.Query().Get("q"))
		if c := strings.TrimSpace(r.URL.Query().Get("category")); c != "" {
			items = listing.SetCategory(c)
		}
		metrics.ObserveListing(string(kind), time.Since(start).Seconds())

		state := listing.State()
		resp := listResponse[T]{Total: len(items), Items: items, Filter: &state}
		if kind != models.KindFort {
			resp.Categories = filter.Categories(records)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getHandler[T any](s *server, kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var rec T
		if err := s.records.GetRecord(ctx, kind, chi.URLParam(r, "id"), &rec); err != nil {
			s.writeError(w, r, err)
			return
		}
		resp := recordResponse{Record: rec}
		if g, ok := any(rec).(interface {
			Coordinates() (models.Coordinates, bool)
		}); ok {
			if c, ok := g.Coordinates(); ok {
				resp.Coordinates = &c
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// loadAll decodes a collection, dropping entries without a display title.
func loadAll[T filter.Viewer](ctx context.Context, store recordStore, kind models.Kind) ([]T, error) {
	raw, err := store.ListRecords(ctx, kind, elasticsearch.DefaultListSize)
	if err != nil {
		return nil, err
	}
	records, err := elasticsearch.Decode[T](raw)
	if err != nil {
		return nil, err
	}
	out := records[:0]
	for _, rec := range records {
		if strings.TrimSpace(rec.View().Title) != "" {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *server) handleRelated(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	var current models.Place
	if err := s.records.GetRecord(ctx, models.KindPlace, id, &current); err != nil {
		s.writeError(w, r, err)
		return
	}
	places, err := loadAll[models.Place](ctx, s.records, models.KindPlace)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	limit := clampInt(r.URL.Query().Get("limit"), defaultRelated, maxRelated)
	rng := s.rng
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	items := filter.Related(places, func(p models.Place) bool { return p.ID == id }, current.Type, limit, rng)
	writeJSON(w, http.StatusOK, listResponse[models.Place]{Total: len(items), Items: items})
}

func (s *server) handlePlacePincode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var place models.Place
	if err := s.records.GetRecord(r.Context(), models.KindPlace, id, &place); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePincode(w, r, string(models.KindPlace)+"/"+id, place.Postal, pincode.Query{Title: place.Title, Address: place.Add})
}

func (s *server) handleFortPincode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var fort models.Fort
	if err := s.records.GetRecord(r.Context(), models.KindFort, id, &fort); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePincode(w, r, string(models.KindFort)+"/"+id, fort.Postal, pincode.Query{Title: fort.DisplayTitle(), Address: fort.Address})
}

// writePincode answers from the stored postal fields when present and
// resolves otherwise. No result is 204.
func (s *server) writePincode(w http.ResponseWriter, r *http.Request, key string, stored models.Postal, q pincode.Query) {
	if stored.Pincode != "" {
		writeJSON(w, http.StatusOK, models.PostalResult{
			Pincode:  stored.Pincode,
			District: stored.District,
			State:    stored.State,
			Region:   stored.Region,
		})
		return
	}

	res := s.pincodes.Resolve(r.Context(), key, q)
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handlePincodeSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "q is required"})
		return
	}

	offices, err := s.postal.Search(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if offices == nil {
		offices = []models.PostOffice{}
	}
	writeJSON(w, http.StatusOK, listResponse[models.PostOffice]{Total: len(offices), Items: offices})
}

func (s *server) handlePincodeDetails(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	code := strings.TrimSpace(r.URL.Query().Get("pincode"))
	if name == "" || code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name and pincode are required"})
		return
	}
	if err := s.validate.Var(code, "pincode"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pincode must be six digits"})
		return
	}

	office, err := s.postal.Details(r.Context(), name, code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, officeResponse{PostOffice: *office, Summary: office.Summary()})
}

func (s *server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.verifier.FromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}

func userID(r *http.Request) string {
	if u, ok := auth.UserFrom(r.Context()); ok {
		return u.ID
	}
	return ""
}

type favoriteResponse struct {
	PlaceID   string `json:"place_id"`
	Favorited bool   `json:"favorited"`
}

func (s *server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	ids, err := s.favorites.List(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	places := make([]models.Place, 0, len(ids))
	for _, id := range ids {
		var p models.Place
		err := s.records.GetRecord(r.Context(), models.KindPlace, id, &p)
		if errors.Is(err, elasticsearch.ErrNotFound) {
			continue
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		places = append(places, p)
	}
	writeJSON(w, http.StatusOK, listResponse[models.Place]{Total: len(places), Items: places})
}

func (s *server) handleGetFavorite(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	on, err := s.favorites.IsFavorite(r.Context(), userID(r), placeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{PlaceID: placeID, Favorited: on})
}

func (s *server) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	if err := s.favorites.Set(r.Context(), userID(r), placeID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{PlaceID: placeID, Favorited: true})
}

func (s *server) handleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	if err := s.favorites.Remove(r.Context(), userID(r), placeID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{PlaceID: placeID, Favorited: false})
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, elasticsearch.ErrNotFound), errors.Is(err, pincode.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, favorites.ErrLoginRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, pincode.ErrUpstream):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("err", err),
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
