// internal/infra/solana/wallet_secret_provider_sm.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	smpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var (
	ErrWalletSecretNotConfigured = errors.New("wallet_secret_provider: not configured")
	ErrWalletSecretNotFound      = errors.New("wallet_secret_provider: secret not found")
)

// LoadPayerWallet は payer ウォレットの keypair を復元します。
//
// 解決順:
//  1. SOLANA_WALLET_KEYPAIR 環境変数（ローカル開発用、[int,...] JSON）
//  2. Secret Manager の secretName
//     ("projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest" 形式)
//
// 鍵素材をソースに埋め込んではならない。
func LoadPayerWallet(ctx context.Context, secretName string) (*KeypairWallet, error) {
	if raw := strings.TrimSpace(os.Getenv("SOLANA_WALLET_KEYPAIR")); raw != "" {
		w, err := NewKeypairWalletFromMaterial(raw)
		if err != nil {
			return nil, fmt.Errorf("wallet_secret_provider: env keypair: %w", err)
		}
		log.Printf("[wallet] loaded payer keypair from env pubkey=%s", maskShort(w.PublicKey()))
		return w, nil
	}

	secretName = strings.TrimSpace(secretName)
	if secretName == "" {
		return nil, ErrWalletSecretNotConfigured
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("wallet_secret_provider: secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	res, err := client.AccessSecretVersion(ctx, &smpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWalletSecretNotFound, err)
	}
	if res == nil || res.Payload == nil || len(res.Payload.Data) == 0 {
		return nil, ErrWalletSecretNotFound
	}

	w, err := NewKeypairWalletFromMaterial(res.Payload.Data)
	if err != nil {
		return nil, fmt.Errorf("wallet_secret_provider: decode secret payload: %w", err)
	}

	log.Printf(
		"[wallet] loaded payer keypair from Secret Manager secret=%s pubkey=%s",
		secretName,
		maskShort(w.PublicKey()),
	)
	return w, nil
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
