package api

import (
	"context"
	"encoding/json"

	"github.com/pitchside/pitchside/internal/app"
	"github.com/pitchside/pitchside/internal/sports"
	"github.com/pitchside/pitchside/internal/wallet"
	"github.com/pitchside/pitchside/pkg/types"
)

// AuthService is the subset of app.AuthService used by the API layer.
// It is an interface to allow handler-level unit tests without a database.
type AuthService interface {
	Login(ctx context.Context, sub string) (*types.SessionIdentity, error)
	WalletLogin(ctx context.Context, address, message, signatureB58 string) (*types.SessionIdentity, error)
	Logout(ctx context.Context, sub string) error
	Session(ctx context.Context, sub string) (*types.SessionIdentity, error)
}

// WalletService is the subset of app.WalletService used by the API layer.
type WalletService interface {
	Status(ctx context.Context, sub string) (*app.WalletStatus, error)
	Ensure(ctx context.Context, sub string) (*app.WalletStatus, error)
	Balance(ctx context.Context, sub string) (uint64, error)
	Send(ctx context.Context, sub, txBase64 string, await bool) (*wallet.SendResult, error)
	Transactions(ctx context.Context, sub string, limit int) ([]*types.TransactionRecord, error)
}

// SportsService is the subset of sports.Service used by the API layer.
type SportsService interface {
	LiveMatches(ctx context.Context) []sports.Match
	LiveMatch(ctx context.Context, home, away string) (*sports.Match, error)
	Fixtures(ctx context.Context) []sports.Match
	FixturesByLeague(ctx context.Context, leagueID int) ([]sports.Match, error)
	PopularLeagues(ctx context.Context) (json.RawMessage, error)
	TeamInfo(ctx context.Context, name string) (json.RawMessage, error)
}
