package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/reelpick/internal/domain"
)

// pickCandidate accepts both plain movies and annotated search results.
type pickCandidate struct {
	domain.Movie
	Available   *bool    `json:"available,omitempty"`
	AvailableOn []string `json:"availableOn,omitempty"`
}

type pickRequest struct {
	Candidates []pickCandidate `json:"candidates"`
	Method     string          `json:"method"`
}

type pickResponse struct {
	Winner   domain.Movie      `json:"winner"`
	Method   domain.PickMethod `json:"method"`
	Runtimes domain.RuntimeMap `json:"runtimes,omitempty"`
	FellBack bool              `json:"fellBack,omitempty"`
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	method, err := domain.ParsePickMethod(req.Method)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	candidates := make([]domain.Movie, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		candidates = append(candidates, c.Movie)
	}

	// Candidate validation runs before any runtime lookup, so a missing
	// credential only surfaces for otherwise valid shortest_runtime picks.
	pick, err := s.picker.SelectWinner(r.Context(), candidates, method)
	if err != nil {
		s.respondPipelineError(w, err, "Failed to pick a movie, please try again")
		return
	}

	s.respondJSON(w, http.StatusOK, pickResponse{
		Winner:   pick.Winner,
		Method:   pick.Method,
		Runtimes: pick.Runtimes,
		FellBack: pick.FellBack,
	})
}
