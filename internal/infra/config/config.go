// internal/infra/config/config.go
package config

import "os"

// Config はアプリケーション全体の環境変数設定を保持します。
// Pinning サービスの API credentials は必ずここ経由で渡すこと
// （ソースへの埋め込みは不可）。
type Config struct {
	Port string

	// CORS で許可するフロントのオリジン。空なら "*"。
	AllowedOrigin string

	// Pinata (pinning service)
	PinataBaseURL    string
	PinataGatewayURL string
	PinataAPIKey     string
	PinataSecretKey  string

	// Solana
	SolanaNetwork string // devnet | testnet | mainnet-beta
	SolanaRPCURL  string // 指定時はネットワーク既定のエンドポイントを上書き

	// payer ウォレットの keypair Secret
	// 例) "projects/<PROJECT_ID>/secrets/tokenforge-payer-wallet/versions/latest"
	WalletSecretName string
}

// Load は環境変数を読み込み Config を返します。
func Load() *Config {
	return &Config{
		Port:          getenvDefault("PORT", "8080"),
		AllowedOrigin: os.Getenv("CORS_ALLOW_ORIGIN"),

		PinataBaseURL:    os.Getenv("PINATA_BASE_URL"),
		PinataGatewayURL: os.Getenv("PINATA_GATEWAY_URL"),
		PinataAPIKey:     os.Getenv("PINATA_API_KEY"),
		PinataSecretKey:  os.Getenv("PINATA_SECRET_API_KEY"),

		SolanaNetwork: getenvDefault("SOLANA_NETWORK", "devnet"),
		SolanaRPCURL:  os.Getenv("SOLANA_RPC_URL"),

		WalletSecretName: os.Getenv("SOLANA_WALLET_SECRET"),
	}
}

// HasPinataCredentials reports whether the pinning credentials are present.
func (c *Config) HasPinataCredentials() bool {
	return c.PinataAPIKey != "" && c.PinataSecretKey != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
