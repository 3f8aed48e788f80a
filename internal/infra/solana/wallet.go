// internal/infra/solana/wallet.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/types"

	"tokenforge/internal/application/usecase"
)

var (
	ErrWalletNotLoaded       = errors.New("wallet: keypair not loaded")
	ErrWalletInvalidPayload  = errors.New("wallet: unexpected transaction payload")
	ErrWalletInvalidKeypair  = errors.New("wallet: invalid keypair bytes")
	ErrWalletSignerMaterial  = errors.New("wallet: unsupported signer material")
	ErrWalletRejectedByGuard = errors.New("wallet: signing rejected")
)

// KeypairWallet は payer ウォレット。署名はこの型の内側に閉じ、
// 公開鍵と署名済みトランザクションだけを外へ出す。
type KeypairWallet struct {
	account types.Account

	// approve が設定されている場合、署名前に呼び出して拒否を表現できる
	// （外部ウォレット UI の承認/拒否に相当する差し込み点）。
	approve func(tx *usecase.BuiltTransaction) error
}

var _ usecase.WalletPort = (*KeypairWallet)(nil)

// NewKeypairWallet wraps an already-decoded account.
func NewKeypairWallet(account types.Account) *KeypairWallet {
	return &KeypairWallet{account: account}
}

// NewKeypairWalletFromMaterial は Secret Manager / 環境変数から取り出した
// solana-keygen 形式の鍵素材（[u8;64] JSON か [int,...] JSON、または生の 64 bytes）
// からウォレットを復元します。
func NewKeypairWalletFromMaterial(material any) (*KeypairWallet, error) {
	b, err := normalizeKeypairBytes(material)
	if err != nil {
		return nil, err
	}
	acc, err := types.AccountFromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("wallet: AccountFromBytes: %w", err)
	}
	return &KeypairWallet{account: acc}, nil
}

// WithApproval sets the pre-sign approval hook.
func (w *KeypairWallet) WithApproval(approve func(tx *usecase.BuiltTransaction) error) *KeypairWallet {
	w.approve = approve
	return w
}

// PublicKey returns the payer address in base58, or "" when no keypair is
// loaded (treated as "no wallet connected" by the coordinator).
func (w *KeypairWallet) PublicKey() string {
	if w == nil || len(w.account.PrivateKey) == 0 {
		return ""
	}
	return w.account.PublicKey.ToBase58()
}

// SignTransaction signs the built message as fee payer, together with the
// fresh mint keypair carried in the payload. It never submits.
func (w *KeypairWallet) SignTransaction(ctx context.Context, tx *usecase.BuiltTransaction) (*usecase.SignedTransaction, error) {
	_ = ctx // 署名はローカルで完結する

	if w == nil || len(w.account.PrivateKey) == 0 {
		return nil, ErrWalletNotLoaded
	}
	if tx == nil {
		return nil, ErrWalletInvalidPayload
	}
	msg, ok := tx.Payload.(*CreateTokenMessage)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrWalletInvalidPayload, tx.Payload)
	}

	if w.approve != nil {
		if err := w.approve(tx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWalletRejectedByGuard, err)
		}
	}

	signed, err := types.NewTransaction(types.NewTransactionParam{
		Message: msg.Message,
		Signers: []types.Account{w.account, msg.Mint},
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: NewTransaction: %w", err)
	}

	return &usecase.SignedTransaction{Payload: signed}, nil
}

// normalizeKeypairBytes accepts the signer material shapes used across the
// deployment: raw 64 bytes, a JSON byte array, or a JSON int array string.
func normalizeKeypairBytes(material any) ([]byte, error) {
	switch t := material.(type) {
	case []byte:
		if len(t) == ed25519.PrivateKeySize {
			return t, nil
		}
		// Secret payload が JSON のままここへ来るケース
		return decodeKeypairJSON(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, ErrWalletSignerMaterial
		}
		return decodeKeypairJSON([]byte(s))
	case types.Account:
		return t.PrivateKey, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrWalletSignerMaterial, material)
	}
}

// decodeKeypairJSON は solana-keygen の keypair JSON から 64 バイト鍵を復元します。
// 正: [u8;64] の []byte デコード、互換: [int,...] 形式。
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil {
		if len(keyBytes) == ed25519.PrivateKeySize {
			return keyBytes, nil
		}
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("wallet: unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrWalletInvalidKeypair, len(ints), ed25519.PrivateKeySize)
	}

	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte out of range at %d: %d", ErrWalletInvalidKeypair, i, v)
		}
		b[i] = byte(v)
	}
	return b, nil
}
