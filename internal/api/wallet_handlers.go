package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pitchside/pitchside/internal/middleware"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// SendTransactionRequest carries a base64-encoded unsigned transaction.
type SendTransactionRequest struct {
	Transaction       string `json:"transaction"`
	AwaitConfirmation bool   `json:"await_confirmation"`
}

// SendTransactionResponse reports the submission outcome.
type SendTransactionResponse struct {
	Signature string `json:"signature"`
	Status    string `json:"status"`
}

// BalanceResponse reports the wallet balance in lamports.
type BalanceResponse struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
}

// handleWallet reads or provisions the user's wallet.
func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	sub, ok := middleware.GetUserSub(r.Context())
	if !ok {
		writeError(w, r, apperrors.ErrUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		status, err := s.wallets.Status(r.Context(), sub)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, status)

	case http.MethodPost:
		status, err := s.wallets.Ensure(r.Context(), sub)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, status)

	default:
		methodNotAllowed(w)
	}
}

// handleBalance reads the lamport balance of the user's wallet.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	sub, ok := middleware.GetUserSub(r.Context())
	if !ok {
		writeError(w, r, apperrors.ErrUnauthorized)
		return
	}

	status, err := s.wallets.Status(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}

	lamports, err := s.wallets.Balance(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		Address:  status.Address,
		Lamports: lamports,
	})
}

// handleSendTransaction signs and submits a transaction.
func (s *Server) handleSendTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	sub, ok := middleware.GetUserSub(r.Context())
	if !ok {
		writeError(w, r, apperrors.ErrUnauthorized)
		return
	}

	var req SendTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.NewWithDetail(
			apperrors.ErrCodeBadRequest,
			"Invalid request body",
			err.Error(),
			http.StatusBadRequest,
		))
		return
	}

	result, err := s.wallets.Send(r.Context(), sub, req.Transaction, req.AwaitConfirmation)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SendTransactionResponse{
		Signature: result.Signature.String(),
		Status:    result.Status,
	})
}

// handleTransactions lists the user's submission history.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	sub, ok := middleware.GetUserSub(r.Context())
	if !ok {
		writeError(w, r, apperrors.ErrUnauthorized)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, r, apperrors.NewWithDetail(
				apperrors.ErrCodeBadRequest,
				"Invalid limit parameter",
				raw,
				http.StatusBadRequest,
			))
			return
		}
		limit = parsed
	}

	records, err := s.wallets.Transactions(r.Context(), sub, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": records})
}
