// Package sports fronts the third-party football data API: live matches,
// fixtures by league, and team lookups.
package sports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pitchside/pitchside/internal/metrics"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// Team is one side of a match.
type Team struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score *int   `json:"score,omitempty"`
}

// MatchStatus carries the upstream match state flags.
type MatchStatus struct {
	Started   bool   `json:"started"`
	Finished  bool   `json:"finished"`
	Cancelled bool   `json:"cancelled"`
	LiveTime  string `json:"liveTime,omitempty"`
}

// Match is a single fixture or live game as reported upstream.
type Match struct {
	ID       int64       `json:"id"`
	LeagueID int         `json:"leagueId"`
	League   string      `json:"leagueName,omitempty"`
	Home     Team        `json:"home"`
	Away     Team        `json:"away"`
	Status   MatchStatus `json:"status"`
	Time     string      `json:"time,omitempty"`
}

// Client is the HTTP client for the football data API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a sports-data client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CurrentLive returns all currently live matches, unfiltered.
func (c *Client) CurrentLive(ctx context.Context) ([]Match, error) {
	var resp struct {
		Response struct {
			Live []Match `json:"live"`
		} `json:"response"`
	}
	if err := c.get(ctx, "football-current-live", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Response.Live, nil
}

// MatchesByLeague returns all matches for a league, started or not.
func (c *Client) MatchesByLeague(ctx context.Context, leagueID int) ([]Match, error) {
	var resp struct {
		Response struct {
			Matches []Match `json:"matches"`
		} `json:"response"`
	}
	params := url.Values{"leagueid": []string{fmt.Sprintf("%d", leagueID)}}
	if err := c.get(ctx, "football-get-all-matches-by-league", params, &resp); err != nil {
		return nil, err
	}
	return resp.Response.Matches, nil
}

// PopularLeagues returns the upstream popular-leagues payload untouched.
func (c *Client) PopularLeagues(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "football-popular-leagues", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// TeamInfo looks up a team by name. The upstream wraps results in a
// success/error envelope; an unsuccessful lookup maps to not_found.
func (c *Client) TeamInfo(ctx context.Context, name string) (json.RawMessage, error) {
	var resp struct {
		Success bool            `json:"success"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	params := url.Values{"name": []string{name}}
	if err := c.get(ctx, "football-get-team-info", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apperrors.NewWithDetail(
			apperrors.ErrCodeNotFound,
			"Team not found",
			resp.Error,
			http.StatusNotFound,
		)
	}
	return resp.Data, nil
}

// get executes an API-keyed request and decodes the JSON response.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build sports request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	outcome := "ok"
	if err != nil || (resp != nil && resp.StatusCode >= 400) {
		outcome = "error"
	}
	metrics.SportsUpstreamDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return apperrors.UpstreamUnavailable(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read sports response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return apperrors.UpstreamUnavailable(fmt.Sprintf("sports API returned status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode sports response: %w", err)
	}
	return nil
}
