// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"tokenforge/internal/adapters/in/http/handlers"
	usecase "tokenforge/internal/application/usecase"
	"tokenforge/internal/infra/solana"
)

// RouterDeps collects the dependencies injected from main.go.
type RouterDeps struct {
	CreateTokenUC *usecase.CreateTokenUsecase
	Session       *solana.Session
}

// NewRouter sets up HTTP routing.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// 依存が揃っているものだけマウントする
	if deps.CreateTokenUC != nil {
		th := handlers.NewTokenHandler(deps.CreateTokenUC)
		mux.Handle("/tokens", th)
		mux.Handle("/tokens/", th)
	}

	if deps.Session != nil {
		sh := handlers.NewSessionHandler(deps.Session)
		mux.Handle("/session", sh)
		mux.Handle("/session/", sh)
	}

	return mux
}
