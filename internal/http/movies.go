package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/reelpick/internal/catalog"
	"github.com/Clark-Hu/reelpick/internal/domain"
	"github.com/Clark-Hu/reelpick/internal/picker"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type runtimeResponse struct {
	ID      int  `json:"id"`
	Runtime *int `json:"runtime"`
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, domain.StreamingServices())
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, domain.PopularGenres())
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	providerIDs, err := buildProviderIDs(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if len(providerIDs) == 0 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "providers must contain at least one positive id")
		return
	}
	if !s.catalogConfigured(w) {
		return
	}

	movies, err := s.picker.Aggregate(r.Context(), providerIDs)
	if err != nil {
		s.respondPipelineError(w, err, "Failed to load movies, please try again")
		return
	}
	s.respondJSON(w, http.StatusOK, movies)
}

func (s *Server) handleGetRuntime(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required")
		return
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "id must be a positive integer")
		return
	}
	if !s.catalogConfigured(w) {
		return
	}

	runtime, err := s.picker.Runtime(r.Context(), id)
	if err != nil {
		s.respondPipelineError(w, err, "Failed to fetch runtime")
		return
	}
	s.respondJSON(w, http.StatusOK, runtimeResponse{ID: id, Runtime: runtime})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	text := strings.TrimSpace(query.Get("query"))
	if text == "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "query is required")
		return
	}
	providerIDs, err := buildProviderIDs(query)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if !s.catalogConfigured(w) {
		return
	}

	results, err := s.picker.Search(r.Context(), text, providerIDs)
	if err != nil {
		s.respondPipelineError(w, err, "Search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, results)
}

// buildProviderIDs parses the comma-separated providers parameter. The
// parameter must be present; tokens that are not positive integers are
// skipped, so the result may be empty.
func buildProviderIDs(query url.Values) ([]int, error) {
	raw := strings.TrimSpace(query.Get("providers"))
	if raw == "" {
		return nil, fmt.Errorf("providers is required")
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return picker.NormalizeProviderIDs(ids), nil
}

func (s *Server) catalogConfigured(w http.ResponseWriter) bool {
	if s.cfg.CatalogAPIKey != "" {
		return true
	}
	s.logger.Error("TMDB_API_KEY is not set")
	s.respondError(w, http.StatusInternalServerError, "CONFIG_ERROR", "Server misconfigured")
	return false
}

// respondPipelineError maps pipeline errors to responses. Upstream details are
// logged, never returned.
func (s *Server) respondPipelineError(w http.ResponseWriter, err error, upstreamMessage string) {
	switch {
	case errors.Is(err, picker.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, catalog.ErrMissingCredential):
		s.respondError(w, http.StatusInternalServerError, "CONFIG_ERROR", "Server misconfigured")
	default:
		s.logger.WithError(err).Error("catalog request failed")
		s.respondError(w, http.StatusInternalServerError, "UPSTREAM_ERROR", upstreamMessage)
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.WithError(err).Warn("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}
