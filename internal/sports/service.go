package sports

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pitchside/pitchside/internal/logger"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// Fetcher is the upstream surface the service needs.
type Fetcher interface {
	CurrentLive(ctx context.Context) ([]Match, error)
	MatchesByLeague(ctx context.Context, leagueID int) ([]Match, error)
	PopularLeagues(ctx context.Context) (json.RawMessage, error)
	TeamInfo(ctx context.Context, name string) (json.RawMessage, error)
}

// Service applies the product's league filtering on top of the raw upstream.
// List endpoints degrade to empty results when the upstream fails; lookups
// surface the error.
type Service struct {
	client  Fetcher
	allowed map[int]bool
	// leagueOrder preserves the configured ordering for fixture aggregation.
	leagueOrder []int
}

// NewService creates a sports service restricted to the allowed league IDs.
func NewService(client Fetcher, allowedLeagues []int) *Service {
	allowed := make(map[int]bool, len(allowedLeagues))
	for _, id := range allowedLeagues {
		allowed[id] = true
	}
	return &Service{
		client:      client,
		allowed:     allowed,
		leagueOrder: allowedLeagues,
	}
}

// LiveMatches returns currently live matches in the allowed leagues.
// Upstream failure degrades to an empty list.
func (s *Service) LiveMatches(ctx context.Context) []Match {
	live, err := s.client.CurrentLive(ctx)
	if err != nil {
		logger.Error(ctx, "failed to fetch live matches", "error", err)
		return []Match{}
	}

	filtered := make([]Match, 0, len(live))
	for _, m := range live {
		if s.allowed[m.LeagueID] {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// LiveMatch finds a particular live match by home and away team name,
// case-insensitive.
func (s *Service) LiveMatch(ctx context.Context, home, away string) (*Match, error) {
	home = strings.ToLower(home)
	away = strings.ToLower(away)

	for _, m := range s.LiveMatches(ctx) {
		if strings.ToLower(m.Home.Name) == home && strings.ToLower(m.Away.Name) == away {
			match := m
			return &match, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// Fixtures aggregates upcoming (not yet started) matches across the allowed
// leagues. A league whose fetch fails contributes nothing; the rest still
// return.
func (s *Service) Fixtures(ctx context.Context) []Match {
	fixtures := make([]Match, 0)
	for _, leagueID := range s.leagueOrder {
		matches, err := s.FixturesByLeague(ctx, leagueID)
		if err != nil {
			logger.Error(ctx, "failed to fetch fixtures", "league_id", leagueID, "error", err)
			continue
		}
		fixtures = append(fixtures, matches...)
	}
	return fixtures
}

// FixturesByLeague returns upcoming matches for one league.
func (s *Service) FixturesByLeague(ctx context.Context, leagueID int) ([]Match, error) {
	if !s.allowed[leagueID] {
		return nil, apperrors.ErrNotFound
	}

	matches, err := s.client.MatchesByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	upcoming := make([]Match, 0, len(matches))
	for _, m := range matches {
		if !m.Status.Started {
			upcoming = append(upcoming, m)
		}
	}
	return upcoming, nil
}

// PopularLeagues proxies the upstream popular-leagues payload.
func (s *Service) PopularLeagues(ctx context.Context) (json.RawMessage, error) {
	return s.client.PopularLeagues(ctx)
}

// TeamInfo proxies a team lookup.
func (s *Service) TeamInfo(ctx context.Context, name string) (json.RawMessage, error) {
	return s.client.TeamInfo(ctx, name)
}
