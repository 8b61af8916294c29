package api

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// handleLiveMatches lists live matches. With home and away query parameters
// it instead looks up that single match.
func (s *Server) handleLiveMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	home := r.URL.Query().Get("home")
	away := r.URL.Query().Get("away")
	if home != "" || away != "" {
		if home == "" || away == "" {
			writeError(w, r, apperrors.NewWithDetail(
				apperrors.ErrCodeBadRequest,
				"Missing team parameter",
				"both home and away are required for a match lookup",
				http.StatusBadRequest,
			))
			return
		}
		match, err := s.sports.LiveMatch(r.Context(), home, away)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": s.sports.LiveMatches(r.Context())})
}

// handleFixtures lists upcoming matches across the configured leagues.
func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": s.sports.Fixtures(r.Context())})
}

// handleFixturesByLeague lists upcoming matches for one league:
// /v1/fixtures/{leagueID}
func (s *Server) handleFixturesByLeague(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/v1/fixtures/")
	leagueID, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, apperrors.NewWithDetail(
			apperrors.ErrCodeBadRequest,
			"Invalid league ID",
			raw,
			http.StatusBadRequest,
		))
		return
	}

	matches, err := s.sports.FixturesByLeague(r.Context(), leagueID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": matches})
}

// handlePopularLeagues proxies the upstream popular-leagues payload.
func (s *Server) handlePopularLeagues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	payload, err := s.sports.PopularLeagues(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleTeamInfo looks up a team by name: /v1/teams/{name}
func (s *Server) handleTeamInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/v1/teams/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, r, apperrors.ErrNotFound)
		return
	}

	payload, err := s.sports.TeamInfo(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}
