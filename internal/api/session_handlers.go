package api

import (
	"encoding/json"
	"net/http"

	"github.com/pitchside/pitchside/internal/middleware"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// WalletLoginRequest carries the signed auth message for an external wallet.
type WalletLoginRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// handleLogin creates or refreshes the session for a token-authenticated user.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	sub, ok := middleware.GetUserSub(r.Context())
	if !ok {
		writeError(w, r, apperrors.ErrUnauthorized)
		return
	}

	sess, err := s.auth.Login(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// handleWalletLogin authenticates an external wallet via a signed message.
func (s *Server) handleWalletLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req WalletLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.NewWithDetail(
			apperrors.ErrCodeBadRequest,
			"Invalid request body",
			err.Error(),
			http.StatusBadRequest,
		))
		return
	}

	if req.Address == "" || req.Message == "" || req.Signature == "" {
		writeError(w, r, apperrors.NewWithDetail(
			apperrors.ErrCodeBadRequest,
			"Missing required fields",
			"address, message, and signature are required",
			http.StatusBadRequest,
		))
		return
	}

	sess, err := s.auth.WalletLogin(r.Context(), req.Address, req.Message, req.Signature)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// handleSession reads or clears the persisted session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sub, ok := middleware.GetUserSub(r.Context())
	if !ok {
		writeError(w, r, apperrors.ErrUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		sess, err := s.auth.Session(r.Context(), sub)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if sess == nil {
			writeError(w, r, apperrors.NewWithDetail(
				apperrors.ErrCodeNotFound,
				"No active session",
				"",
				http.StatusNotFound,
			))
			return
		}
		writeJSON(w, http.StatusOK, sess)

	case http.MethodDelete:
		if err := s.auth.Logout(r.Context(), sub); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}
