// internal/platform/di/container.go
package di

import (
	"context"
	"log"
	"net/http"

	httpin "tokenforge/internal/adapters/in/http"
	"tokenforge/internal/application/usecase"
	"tokenforge/internal/infra/config"
	"tokenforge/internal/infra/pinata"
	"tokenforge/internal/infra/solana"
)

// Container は main.go から使う依存オブジェクトの束。
// main.go を極限まで薄くするのが目的。
type Container struct {
	Config  *config.Config
	Session *solana.Session
	Wallet  *solana.KeypairWallet
	Handler http.Handler

	CreateTokenUC *usecase.CreateTokenUsecase
}

// Build は DI コンテナを初期化して返す。
//   - cfg は環境変数の読み込み済み
//   - ペイヤーウォレットは Secret Manager（または環境変数）から読む。
//     読めなくてもサーバーは起動し、/tokens だけが未マウントになる。
func Build(ctx context.Context, cfg *config.Config) *Container {
	c := &Container{Config: cfg}

	c.Session = solana.NewSession(solana.Network(cfg.SolanaNetwork), cfg.SolanaRPCURL)

	var publisher usecase.MetadataPublisherPort
	if cfg.HasPinataCredentials() {
		client := pinata.NewClient(cfg.PinataBaseURL, cfg.PinataGatewayURL, cfg.PinataAPIKey, cfg.PinataSecretKey)
		publisher = pinata.NewPublisher(client)
	} else {
		log.Printf("[di] pinata credentials are not configured; token creation is disabled")
	}

	wallet, err := solana.LoadPayerWallet(ctx, cfg.WalletSecretName)
	if err != nil {
		log.Printf("[di] payer wallet unavailable: %v", err)
	} else {
		c.Wallet = wallet
		// セッションにはペイヤー公開鍵を事前接続しておく
		if cerr := c.Session.ConnectWallet(ctx, wallet.PublicKey()); cerr != nil {
			log.Printf("[di] session connect: %v", cerr)
		}
	}

	if publisher != nil && c.Wallet != nil {
		c.CreateTokenUC = usecase.NewCreateTokenUsecase(
			publisher,
			&solana.CreateTokenBuilder{},
			c.Wallet,
			c.Session,
		)
	}

	c.Handler = httpin.NewRouter(httpin.RouterDeps{
		CreateTokenUC: c.CreateTokenUC,
		Session:       c.Session,
	})
	return c
}

// Close は Cloud Run 終了時などに呼んで安全にリソースを閉じる。
func (c *Container) Close() {
	if c.Session != nil {
		c.Session.DisconnectWallet()
	}
}
