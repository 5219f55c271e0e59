package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/reelpick/internal/domain"
)

const pageSize = 20

type fixtureMovie struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	ReleaseDate string           `json:"release_date"`
	PosterPath  *string          `json:"poster_path"`
	VoteAverage float64          `json:"vote_average"`
	Popularity  float64          `json:"popularity"`
	Runtime     *int             `json:"runtime"`
	GenreIDs    []int            `json:"genre_ids"`
	Providers   map[string][]int `json:"providers"`
}

type fixture struct {
	Movies []fixtureMovie `json:"movies"`
}

type titleJSON struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genre_ids"`
}

type pageJSON struct {
	Page         int         `json:"page"`
	Results      []titleJSON `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type detailsJSON struct {
	titleJSON
	Runtime *int `json:"runtime"`
}

type providerJSON struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
}

type regionJSON struct {
	Flatrate []providerJSON `json:"flatrate,omitempty"`
}

type watchProvidersJSON struct {
	ID      int                   `json:"id"`
	Results map[string]regionJSON `json:"results"`
}

func loadFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mock data: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse mock data: %w", err)
	}
	return &fx, nil
}

type mockCatalog struct {
	fx     *fixture
	byID   map[int]fixtureMovie
	apiKey string
	logger logrus.FieldLogger
}

// newRouter serves the catalog endpoints the client uses. An empty apiKey
// accepts any non-empty key.
func newRouter(fx *fixture, apiKey string, logger logrus.FieldLogger) http.Handler {
	m := &mockCatalog{
		fx:     fx,
		byID:   make(map[int]fixtureMovie, len(fx.Movies)),
		apiKey: apiKey,
		logger: logger,
	}
	for _, mv := range fx.Movies {
		m.byID[mv.ID] = mv
	}

	r := chi.NewRouter()
	r.Use(m.requireKey)
	r.Get("/discover/movie", m.handleDiscover)
	r.Get("/search/movie", m.handleSearch)
	r.Get("/movie/{id}", m.handleDetails)
	r.Get("/movie/{id}/watch/providers", m.handleWatchProviders)
	return r
}

func (m *mockCatalog) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("api_key")
		if key == "" || (m.apiKey != "" && key != m.apiKey) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"status_code":    7,
				"status_message": "Invalid API key: You must be granted a valid key.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *mockCatalog) handleDiscover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	region := strings.ToUpper(q.Get("watch_region"))
	if region == "" {
		region = "US"
	}
	provider, _ := strconv.Atoi(q.Get("with_watch_providers"))
	genre, _ := strconv.Atoi(q.Get("with_genres"))

	matches := make([]fixtureMovie, 0)
	for _, mv := range m.fx.Movies {
		if provider > 0 && !containsInt(mv.Providers[region], provider) {
			continue
		}
		if genre > 0 && !containsInt(mv.GenreIDs, genre) {
			continue
		}
		matches = append(matches, mv)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Popularity > matches[j].Popularity
	})

	m.logger.WithFields(logrus.Fields{
		"provider": provider,
		"genre":    genre,
		"matches":  len(matches),
	}).Debug("discover")
	writeJSON(w, http.StatusOK, paginate(matches, q.Get("page")))
}

func (m *mockCatalog) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	needle := strings.ToLower(strings.TrimSpace(q.Get("query")))
	matches := make([]fixtureMovie, 0)
	if needle != "" {
		for _, mv := range m.fx.Movies {
			if strings.Contains(strings.ToLower(mv.Title), needle) {
				matches = append(matches, mv)
			}
		}
	}
	writeJSON(w, http.StatusOK, paginate(matches, q.Get("page")))
}

func (m *mockCatalog) handleDetails(w http.ResponseWriter, r *http.Request) {
	mv, ok := m.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, detailsJSON{titleJSON: toTitle(mv), Runtime: mv.Runtime})
}

func (m *mockCatalog) handleWatchProviders(w http.ResponseWriter, r *http.Request) {
	mv, ok := m.lookup(w, r)
	if !ok {
		return
	}
	resp := watchProvidersJSON{ID: mv.ID, Results: make(map[string]regionJSON, len(mv.Providers))}
	for region, ids := range mv.Providers {
		block := regionJSON{Flatrate: make([]providerJSON, 0, len(ids))}
		for _, id := range ids {
			name := fmt.Sprintf("Provider %d", id)
			if svc, ok := domain.LookupService(id); ok {
				name = svc.Name
			}
			block.Flatrate = append(block.Flatrate, providerJSON{ProviderID: id, ProviderName: name})
		}
		resp.Results[region] = block
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *mockCatalog) lookup(w http.ResponseWriter, r *http.Request) (fixtureMovie, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w)
		return fixtureMovie{}, false
	}
	mv, ok := m.byID[id]
	if !ok {
		writeNotFound(w)
		return fixtureMovie{}, false
	}
	return mv, true
}

func paginate(matches []fixtureMovie, rawPage string) pageJSON {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}
	totalPages := (len(matches) + pageSize - 1) / pageSize
	resp := pageJSON{
		Page:         page,
		Results:      []titleJSON{},
		TotalPages:   totalPages,
		TotalResults: len(matches),
	}
	start := (page - 1) * pageSize
	if start >= len(matches) {
		return resp
	}
	end := start + pageSize
	if end > len(matches) {
		end = len(matches)
	}
	for _, mv := range matches[start:end] {
		resp.Results = append(resp.Results, toTitle(mv))
	}
	return resp
}

func toTitle(mv fixtureMovie) titleJSON {
	genres := mv.GenreIDs
	if genres == nil {
		genres = []int{}
	}
	return titleJSON{
		ID:          mv.ID,
		Title:       mv.Title,
		ReleaseDate: mv.ReleaseDate,
		PosterPath:  mv.PosterPath,
		VoteAverage: mv.VoteAverage,
		Popularity:  mv.Popularity,
		GenreIDs:    genres,
	}
}

func containsInt(values []int, want int) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"status_code":    34,
		"status_message": "The resource you requested could not be found.",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
