// internal/adapters/in/http/handlers/token_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tokenforge/internal/application/usecase"
	tokendom "tokenforge/internal/domain/token"
)

// maxCreateFormBytes caps the multipart body (image included).
const maxCreateFormBytes = 16 << 20

// TokenHandler は /tokens 関連のエンドポイントを担当します。
type TokenHandler struct {
	uc *usecase.CreateTokenUsecase
}

// NewTokenHandler はHTTPハンドラを初期化します。
func NewTokenHandler(uc *usecase.CreateTokenUsecase) http.Handler {
	return &TokenHandler{uc: uc}
}

// ServeHTTP はHTTPルーティングの入口です。
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && (r.URL.Path == "/tokens" || r.URL.Path == "/tokens/"):
		h.create(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/tokens/state":
		writeJSON(w, http.StatusOK, h.uc.CurrentSnapshot())
	case r.Method == http.MethodPost && r.URL.Path == "/tokens/validate":
		h.validateField(w, r)
	case r.URL.Path == "/tokens" || r.URL.Path == "/tokens/" ||
		r.URL.Path == "/tokens/state" || r.URL.Path == "/tokens/validate":
		methodNotAllowed(w)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	}
}

// POST /tokens
//
// multipart/form-data を受ける: テキストフィールドは Draft の各項目、
// 省略可能な "image" パートが新規アップロード画像。画像なしの場合は
// application/json の Draft も受け付ける。
func (h *TokenHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	draft, image, err := decodeCreateRequest(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.uc.Submit(ctx, draft, image)
	if err != nil {
		writeSubmitPreconditionErr(w, err)
		return
	}

	code := http.StatusOK
	if snap.Phase == usecase.PhaseFailed {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, snap)
}

// POST /tokens/validate
//
// 入力途中のフィールドを1つ検査する。{"field":"amount","value":"123"} 形式。
func (h *TokenHandler) validateField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	var ok bool
	switch strings.ToLower(strings.TrimSpace(req.Field)) {
	case "amount":
		ok = h.uc.CheckAmountInput(req.Value)
	case "decimals":
		ok = h.uc.CheckDecimalsInput(req.Value)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown field"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       ok,
		"snapshot": h.uc.CurrentSnapshot(),
	})
}

func decodeCreateRequest(r *http.Request) (tokendom.Draft, *usecase.ImageFile, error) {
	ct := r.Header.Get("Content-Type")

	if strings.HasPrefix(ct, "application/json") {
		var d tokendom.Draft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			return tokendom.Draft{}, nil, err
		}
		return d, nil, nil
	}

	if err := r.ParseMultipartForm(maxCreateFormBytes); err != nil {
		return tokendom.Draft{}, nil, err
	}

	d := tokendom.Draft{
		Name:                r.FormValue("name"),
		Symbol:              r.FormValue("symbol"),
		Decimals:            r.FormValue("decimals"),
		Amount:              r.FormValue("amount"),
		Description:         r.FormValue("description"),
		ImageURI:            r.FormValue("image"),
		FreezeAuthority:     parseCheckbox(r.FormValue("freezeAuthority")),
		RevokeMintAuthority: parseCheckbox(r.FormValue("revokeMintAuthority")),
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return d, nil, nil
		}
		return tokendom.Draft{}, nil, err
	}
	// Reader は Submit 側で読み切る。リクエスト終了時に multipart の
	// 一時領域ごと解放されるので Close はここでは不要。
	return d, &usecase.ImageFile{Name: header.Filename, Reader: file}, nil
}

// 前提条件エラー（状態遷移なしで返るもの）のステータス割り当て。
func writeSubmitPreconditionErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrSubmissionInFlight):
		code = http.StatusConflict
	case errors.Is(err, usecase.ErrWalletNotConnected):
		code = http.StatusBadRequest
	case errors.Is(err, usecase.ErrNoConnection):
		code = http.StatusServiceUnavailable
	}
	writeErr(w, code, err)
}
