// cmd/mint/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"tokenforge/internal/application/usecase"
	tokendom "tokenforge/internal/domain/token"
	"tokenforge/internal/infra/config"
	"tokenforge/internal/platform/di"
)

// devnet でトークン作成フローを一周させる動作確認用コマンド。
// Cloud Run と同じ Config / Secret Manager 設定を利用する。
func main() {
	var (
		name        = flag.String("name", "", "token name (required)")
		symbol      = flag.String("symbol", "", "token symbol (required)")
		decimals    = flag.String("decimals", "9", "decimal places 0..9")
		amount      = flag.String("amount", "", "raw supply before scaling (required)")
		description = flag.String("description", "", "token description")
		imagePath   = flag.String("image", "", "path to an image file to pin (optional)")
		imageURI    = flag.String("image-uri", "", "already-pinned image URI (optional)")
		freeze      = flag.Bool("freeze", false, "drop the freeze authority at mint initialization")
	)
	flag.Parse()

	cfg := config.Load()
	if cfg.SolanaNetwork == "mainnet-beta" {
		log.Fatal("[mint] refusing to run against mainnet-beta")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cont := di.Build(ctx, cfg)
	defer cont.Close()

	if cont.CreateTokenUC == nil {
		log.Fatal("[mint] usecase not wired (check pinata credentials / payer wallet)")
	}

	draft := tokendom.Draft{
		Name:            *name,
		Symbol:          *symbol,
		Decimals:        *decimals,
		Amount:          *amount,
		Description:     *description,
		ImageURI:        *imageURI,
		FreezeAuthority: *freeze,
	}

	var image *usecase.ImageFile
	if *imagePath != "" {
		f, err := os.Open(*imagePath)
		if err != nil {
			log.Fatalf("[mint] open image: %v", err)
		}
		defer f.Close()
		image = &usecase.ImageFile{Name: filepath.Base(*imagePath), Reader: f}
	}

	snap, err := cont.CreateTokenUC.Submit(ctx, draft, image)
	if err != nil {
		log.Fatalf("[mint] submit: %v", err)
	}
	if snap.Phase != usecase.PhaseSucceeded {
		log.Fatalf("[mint] failed at %s: %s", snap.FailureKind, snap.FailureMessage)
	}

	log.Printf("[mint] OK mint=%s tx=%s", snap.MintAddress, snap.TxSignature)
}
