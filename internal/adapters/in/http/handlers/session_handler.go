// internal/adapters/in/http/handlers/session_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tokenforge/internal/infra/solana"
)

// SessionHandler は /session 関連（ウォレット接続・残高・airdrop）を担当します。
type SessionHandler struct {
	session *solana.Session
}

// NewSessionHandler はHTTPハンドラを初期化します。
func NewSessionHandler(s *solana.Session) http.Handler {
	return &SessionHandler{session: s}
}

// ServeHTTP はHTTPルーティングの入口です。
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && (r.URL.Path == "/session" || r.URL.Path == "/session/"):
		h.state(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/session/wallet":
		h.connectWallet(w, r)
	case r.Method == http.MethodDelete && r.URL.Path == "/session/wallet":
		h.session.DisconnectWallet()
		writeJSON(w, http.StatusOK, h.session.State())
	case r.Method == http.MethodPost && r.URL.Path == "/session/network":
		h.setNetwork(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/session/airdrop":
		h.airdrop(w, r)
	case r.URL.Path == "/session" || r.URL.Path == "/session/" ||
		r.URL.Path == "/session/wallet" || r.URL.Path == "/session/network" ||
		r.URL.Path == "/session/airdrop":
		methodNotAllowed(w)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	}
}

// GET /session
//
// 残高はウォレット接続時に取得済みだが、表示のたびに古くならないよう
// refresh=1 で再取得できる。
func (h *SessionHandler) state(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "1" {
		h.session.RefreshBalance(r.Context())
	}
	writeJSON(w, http.StatusOK, h.session.State())
}

// POST /session/wallet
func (h *SessionHandler) connectWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletPublicKey string `json:"walletPublicKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	if err := h.session.ConnectWallet(r.Context(), req.WalletPublicKey); err != nil {
		writeSessionErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.State())
}

// POST /session/network
func (h *SessionHandler) setNetwork(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Network string `json:"network"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	h.session.SetNetwork(r.Context(), solana.Network(req.Network))
	writeJSON(w, http.StatusOK, h.session.State())
}

// POST /session/airdrop
//
// {"sol": 1} — devnet/testnet のみ。省略時は 1 SOL。
func (h *SessionHandler) airdrop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SOL float64 `json:"sol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.SOL <= 0 {
		req.SOL = 1
	}

	sig, err := h.session.RequestAirdrop(r.Context(), uint64(req.SOL*solana.LamportsPerSOL))
	if err != nil {
		writeSessionErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"signature": sig,
		"session":   h.session.State(),
	})
}

// エラーハンドリング
func writeSessionErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, solana.ErrSessionInvalidWallet):
		code = http.StatusBadRequest
	case errors.Is(err, solana.ErrSessionNoWallet):
		code = http.StatusBadRequest
	case errors.Is(err, solana.ErrAirdropUnsupported):
		code = http.StatusForbidden
	case errors.Is(err, solana.ErrSessionNoConnection):
		code = http.StatusServiceUnavailable
	}
	writeErr(w, code, err)
}
