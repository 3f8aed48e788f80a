// internal/infra/solana/session.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"

	"tokenforge/internal/application/usecase"
	tokendom "tokenforge/internal/domain/token"
)

// Network is the selected Solana cluster.
type Network string

const (
	NetworkDevnet  Network = "devnet"
	NetworkTestnet Network = "testnet"
	NetworkMainnet Network = "mainnet-beta"
)

const LamportsPerSOL = 1_000_000_000

var (
	ErrSessionNoWallet      = errors.New("session: wallet is not connected")
	ErrSessionNoConnection  = errors.New("session: rpc connection is not established")
	ErrSessionInvalidWallet = errors.New("session: invalid wallet address")
	ErrAirdropUnsupported   = errors.New("session: airdrop is only available on devnet/testnet")
	ErrTxNotConfirmed       = errors.New("session: transaction was not confirmed")
	ErrTxFailedOnChain      = errors.New("session: transaction failed on chain")
)

// EndpointForNetwork resolves the RPC endpoint: explicit override first,
// otherwise the cluster's public endpoint.
func EndpointForNetwork(n Network, override string) string {
	if ep := strings.TrimSpace(override); ep != "" {
		return ep
	}
	switch n {
	case NetworkMainnet:
		return MainnetEndpoint
	case NetworkTestnet:
		return TestnetEndpoint
	default:
		return DevnetEndpoint
	}
}

// SessionState is the read-only session view exposed to the UI layer.
type SessionState struct {
	WalletPublicKey string  `json:"walletPublicKey,omitempty"`
	Network         Network `json:"network"`
	Endpoint        string  `json:"endpoint"`
	Connected       bool    `json:"connected"`
	BalanceLamports uint64  `json:"balanceLamports"`
	BalanceSOL      float64 `json:"balanceSol"` // 表示用。供給量計算には使わない
}

// Session はウォレット接続・ネットワーク選択・RPC コネクション・残高を追跡します。
// ウォレットまたはネットワークが変わるたびにコネクションを張り直し、
// コネクションが変わるたびに残高を更新します。署名能力は一切公開しません。
type Session struct {
	rpcOverride string

	mu           sync.RWMutex
	network      Network
	walletPubkey string
	conn         *client.Client
	raw          *JSONRPCClient
	balance      uint64
}

var _ usecase.ChainPort = (*Session)(nil)

// NewSession creates a session for the given cluster. rpcOverride, when
// non-empty, pins every connection to that endpoint (e.g. a Helius URL).
func NewSession(network Network, rpcOverride string) *Session {
	if network == "" {
		network = NetworkDevnet
	}
	return &Session{
		rpcOverride: strings.TrimSpace(rpcOverride),
		network:     network,
	}
}

// ConnectWallet registers the wallet and (re)establishes the connection.
func (s *Session) ConnectWallet(ctx context.Context, walletPubkey string) error {
	walletPubkey = strings.TrimSpace(walletPubkey)
	if !tokendom.IsValidWalletAddress(walletPubkey) {
		return ErrSessionInvalidWallet
	}

	s.mu.Lock()
	s.walletPubkey = walletPubkey
	s.reconnectLocked()
	s.mu.Unlock()

	s.RefreshBalance(ctx)
	return nil
}

// DisconnectWallet drops the wallet and the connection.
func (s *Session) DisconnectWallet() {
	s.mu.Lock()
	s.walletPubkey = ""
	s.conn = nil
	s.raw = nil
	s.balance = 0
	s.mu.Unlock()
	log.Printf("[session] wallet disconnected")
}

// SetNetwork switches clusters; the connection is re-created and the balance
// refreshed when a wallet is present.
func (s *Session) SetNetwork(ctx context.Context, n Network) {
	switch n {
	case NetworkDevnet, NetworkTestnet, NetworkMainnet:
	default:
		n = NetworkDevnet
	}

	s.mu.Lock()
	s.network = n
	if s.walletPubkey != "" {
		s.reconnectLocked()
	}
	s.mu.Unlock()

	s.RefreshBalance(ctx)
}

// reconnectLocked re-creates both clients against the current network.
// caller holds s.mu.
func (s *Session) reconnectLocked() {
	ep := EndpointForNetwork(s.network, s.rpcOverride)
	s.conn = client.NewClient(ep)
	s.raw = NewJSONRPCClient(ep)
	log.Printf("[session] connection established network=%s endpoint=%s wallet=%s",
		s.network, ep, maskShort(s.walletPubkey))
}

// RefreshBalance は現在のウォレットの SOL 残高を取り直します。
// コネクションが無い間は何もしません。
func (s *Session) RefreshBalance(ctx context.Context) {
	s.mu.RLock()
	raw, wallet := s.raw, s.walletPubkey
	s.mu.RUnlock()

	if raw == nil || wallet == "" {
		return
	}

	lamports, err := raw.GetBalance(ctx, wallet)
	if err != nil {
		log.Printf("[session] balance refresh failed wallet=%s err=%v", maskShort(wallet), err)
		return
	}

	s.mu.Lock()
	s.balance = lamports
	s.mu.Unlock()
}

// State returns the read-only session view.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionState{
		WalletPublicKey: s.walletPubkey,
		Network:         s.network,
		Endpoint:        EndpointForNetwork(s.network, s.rpcOverride),
		Connected:       s.conn != nil,
		BalanceLamports: s.balance,
		BalanceSOL:      float64(s.balance) / LamportsPerSOL,
	}
}

// ============================================================
// usecase.ChainPort
// ============================================================

func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil
}

func (s *Session) connection() (*client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return nil, ErrSessionNoConnection
	}
	return s.conn, nil
}

// MinimumRentForMint returns the rent-exempt balance for a mint account.
func (s *Session) MinimumRentForMint(ctx context.Context) (uint64, error) {
	conn, err := s.connection()
	if err != nil {
		return 0, err
	}
	rent, err := conn.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return 0, fmt.Errorf("session: GetMinimumBalanceForRentExemption: %w", err)
	}
	return rent, nil
}

// LatestBlockhash returns a recent blockhash for message assembly.
func (s *Session) LatestBlockhash(ctx context.Context) (string, error) {
	conn, err := s.connection()
	if err != nil {
		return "", err
	}
	recent, err := conn.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("session: GetLatestBlockhash: %w", err)
	}
	return recent.Blockhash, nil
}

// Submit sends the signed transaction and returns its signature.
func (s *Session) Submit(ctx context.Context, signed *usecase.SignedTransaction) (string, error) {
	conn, err := s.connection()
	if err != nil {
		return "", err
	}
	if signed == nil {
		return "", fmt.Errorf("session: signed transaction is nil")
	}
	tx, ok := signed.Payload.(types.Transaction)
	if !ok {
		return "", fmt.Errorf("session: unexpected signed payload %T", signed.Payload)
	}

	sig, err := conn.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("session: SendTransaction: %w", err)
	}

	log.Printf("[session] submitted tx=%s network=%s", maskShort(sig), s.State().Network)
	return sig, nil
}

// confirmPollInterval / confirmMaxPolls bound the confirmation wait; the RPC
// client's own timeout governs each individual poll.
const (
	confirmPollInterval = 2 * time.Second
	confirmMaxPolls     = 15
)

// ConfirmTransaction polls `getSignatureStatuses` until the transaction is
// confirmed or finalized. An on-chain error or a poll budget exhaustion is a
// submission failure.
func (s *Session) ConfirmTransaction(ctx context.Context, signature string) error {
	s.mu.RLock()
	raw := s.raw
	s.mu.RUnlock()
	if raw == nil {
		return ErrSessionNoConnection
	}

	for i := 0; i < confirmMaxPolls; i++ {
		st, err := raw.GetSignatureStatus(ctx, signature)
		if err != nil {
			return err
		}
		if st != nil {
			if len(st.Err) > 0 && string(st.Err) != "null" {
				return fmt.Errorf("%w: %s", ErrTxFailedOnChain, string(st.Err))
			}
			if st.ConfirmationStatus == "confirmed" || st.ConfirmationStatus == "finalized" {
				log.Printf("[session] tx %s %s at slot=%d", maskShort(signature), st.ConfirmationStatus, st.Slot)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(confirmPollInterval):
		}
	}
	return fmt.Errorf("%w: %s", ErrTxNotConfirmed, maskShort(signature))
}

// ============================================================
// Devnet airdrop
// ============================================================

// RequestAirdrop funds the connected wallet on devnet/testnet and refreshes
// the balance once the airdrop lands.
func (s *Session) RequestAirdrop(ctx context.Context, lamports uint64) (string, error) {
	s.mu.RLock()
	raw, wallet, network := s.raw, s.walletPubkey, s.network
	s.mu.RUnlock()

	if wallet == "" {
		return "", ErrSessionNoWallet
	}
	if raw == nil {
		return "", ErrSessionNoConnection
	}
	if network == NetworkMainnet {
		return "", ErrAirdropUnsupported
	}

	sig, err := raw.RequestAirdrop(ctx, wallet, lamports)
	if err != nil {
		return "", err
	}
	if err := s.ConfirmTransaction(ctx, sig); err != nil {
		return sig, err
	}

	s.RefreshBalance(ctx)
	return sig, nil
}
