package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONRPCClient_GetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "getBalance" {
			t.Fatalf("method=%q", req.Method)
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":100},"value":2039280}}`))
	}))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	got, err := c.GetBalance(context.Background(), "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if got != 2039280 {
		t.Fatalf("lamports=%d, want 2039280", got)
	}
}

func TestJSONRPCClient_RequestAirdrop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "requestAirdrop" {
			t.Fatalf("method=%q", req.Method)
		}
		if len(req.Params) != 2 {
			t.Fatalf("params len=%d", len(req.Params))
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"airdropSig"}`))
	}))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	sig, err := c.RequestAirdrop(context.Background(), "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy", LamportsPerSOL)
	if err != nil {
		t.Fatalf("RequestAirdrop: %v", err)
	}
	if sig != "airdropSig" {
		t.Fatalf("sig=%q", sig)
	}
}

func TestJSONRPCClient_GetSignatureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "getSignatureStatuses" {
			t.Fatalf("method=%q", req.Method)
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":[{"slot":48,"confirmations":null,"confirmationStatus":"finalized","err":null}]}}`))
	}))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	st, err := c.GetSignatureStatus(context.Background(), "someSig")
	if err != nil {
		t.Fatalf("GetSignatureStatus: %v", err)
	}
	if st == nil || st.ConfirmationStatus != "finalized" {
		t.Fatalf("status=%+v", st)
	}
}

func TestJSONRPCClient_UnknownSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":[null]}}`))
	}))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	st, err := c.GetSignatureStatus(context.Background(), "unknownSig")
	if err != nil {
		t.Fatalf("GetSignatureStatus: %v", err)
	}
	if st != nil {
		t.Fatalf("status=%+v, want nil for unknown signature", st)
	}
}

func TestJSONRPCClient_RPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`))
	}))
	defer srv.Close()

	c := NewJSONRPCClient(srv.URL)
	if _, err := c.GetBalance(context.Background(), "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy"); err == nil {
		t.Fatal("expected rpc error")
	}
}
