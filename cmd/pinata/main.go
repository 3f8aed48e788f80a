// cmd/pinata/main.go
package main

import (
	"context"
	"log"
	"time"

	"tokenforge/internal/infra/config"
	"tokenforge/internal/infra/pinata"
)

// pinning サービスへの疎通確認。メタデータ JSON を 1 件 pin して URI を出す。
func main() {
	cfg := config.Load()
	if !cfg.HasPinataCredentials() {
		log.Fatal("PINATA_API_KEY / PINATA_SECRET_API_KEY are empty")
	}

	c := pinata.NewClient(cfg.PinataBaseURL, cfg.PinataGatewayURL, cfg.PinataAPIKey, cfg.PinataSecretKey)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Printf("[debug-pinata] PinJSON ...")
	uri, err := c.PinJSON(ctx, pinata.TokenMetadata{
		Name:        "debug",
		Symbol:      "DBG",
		Description: "connectivity check " + time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Fatalf("PinJSON failed: %v", err)
	}

	log.Printf("[debug-pinata] OK uri=%s", uri)
}
