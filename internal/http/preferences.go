package httpserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Clark-Hu/reelpick/internal/prefs"
)

const clientIDHeader = "X-Client-Id"

type serviceSelection struct {
	ServiceIDs []int `json:"serviceIds"`
}

// clientID returns the caller's id. ok is false when the header is present but
// is not a UUID.
func clientID(r *http.Request) (id string, present, ok bool) {
	raw := strings.TrimSpace(r.Header.Get(clientIDHeader))
	if raw == "" {
		return "", false, true
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", true, false
	}
	return parsed.String(), true, true
}

func (s *Server) handleGetServiceSelection(w http.ResponseWriter, r *http.Request) {
	id, present, ok := clientID(r)
	if !ok || !present {
		s.respondJSON(w, http.StatusOK, serviceSelection{ServiceIDs: []int{}})
		return
	}
	ids := prefs.LoadServices(r.Context(), s.prefs, id, s.logger)
	w.Header().Set(clientIDHeader, id)
	s.respondJSON(w, http.StatusOK, serviceSelection{ServiceIDs: ids})
}

func (s *Server) handlePutServiceSelection(w http.ResponseWriter, r *http.Request) {
	id, present, ok := clientID(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", clientIDHeader+" must be a UUID")
		return
	}
	if !present {
		id = uuid.NewString()
	}

	var req serviceSelection
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	saved, err := prefs.SaveServices(r.Context(), s.prefs, id, req.ServiceIDs)
	if err != nil {
		s.logger.WithError(err).WithField("client_id", id).Error("save service selection failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save selection")
		return
	}
	w.Header().Set(clientIDHeader, id)
	s.respondJSON(w, http.StatusOK, serviceSelection{ServiceIDs: saved})
}

func (s *Server) handleDeleteServiceSelection(w http.ResponseWriter, r *http.Request) {
	id, present, ok := clientID(r)
	if !ok || !present {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", clientIDHeader+" must be a UUID")
		return
	}
	if err := prefs.ClearServices(r.Context(), s.prefs, id); err != nil {
		s.logger.WithError(err).WithField("client_id", id).Error("clear service selection failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear selection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
