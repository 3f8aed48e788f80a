package solana

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"

	tokendom "tokenforge/internal/domain/token"
)

const testBlockhash = "FwRYtTPRk5N4wUeP87rTw9kQVSwigB6kbikGzzeCMrW5"

func testDraft() tokendom.Draft {
	return tokendom.Draft{
		Name:        "Foo",
		Symbol:      "FOO",
		Decimals:    "2",
		Amount:      "1000",
		Description: "d",
		ImageURI:    "https://gateway.pinata.cloud/ipfs/QmImg",
	}
}

func buildTestMessage(t *testing.T, draft tokendom.Draft) *CreateTokenMessage {
	t.Helper()
	payer := types.NewAccount()
	msg, err := BuildCreateTokenMessage(CreateTokenParams{
		Payer:           payer.PublicKey,
		Draft:           draft,
		MetadataURI:     "https://gateway.pinata.cloud/ipfs/QmMeta",
		RentLamports:    1461600,
		RecentBlockhash: testBlockhash,
	})
	if err != nil {
		t.Fatalf("BuildCreateTokenMessage: %v", err)
	}
	return msg
}

func TestBuildEmitsFiveOrderedInstructions(t *testing.T) {
	msg := buildTestMessage(t, testDraft())

	ins := msg.Message.Instructions
	if len(ins) != 5 {
		t.Fatalf("instruction count=%d, want 5", len(ins))
	}

	wantPrograms := []common.PublicKey{
		common.SystemProgramID,                  // 1. create mint account
		common.TokenProgramID,                   // 2. initialize mint
		common.SPLAssociatedTokenAccountProgramID, // 3. create payer ATA
		common.TokenProgramID,                   // 4. mint initial supply
		common.MetaplexTokenMetaProgramID,       // 5. attach metadata
	}
	for i, want := range wantPrograms {
		got := msg.Message.Accounts[ins[i].ProgramIDIndex]
		if got != want {
			t.Errorf("instruction %d program=%s, want %s", i+1, got.ToBase58(), want.ToBase58())
		}
	}
}

func TestBuildScalesSupplyExactly(t *testing.T) {
	msg := buildTestMessage(t, testDraft())

	// instruction 4 is MintTo: data = [7, amount u64 little-endian]
	data := msg.Message.Instructions[3].Data
	if len(data) < 9 || data[0] != 7 {
		t.Fatalf("unexpected MintTo data: %v", data)
	}
	amount := binary.LittleEndian.Uint64(data[1:9])
	if amount != 100000 { // 1000 * 10^2
		t.Errorf("minted amount=%d, want 100000", amount)
	}
}

func TestBuildFreezeAuthorityWiring(t *testing.T) {
	// InitializeMint data = [0, decimals, mintAuth(32), freezeOption, ...]
	keep := buildTestMessage(t, testDraft())
	if data := keep.Message.Instructions[1].Data; data[34] != 1 {
		t.Errorf("freeze authority dropped without the checkbox: option byte=%d", data[34])
	}

	d := testDraft()
	d.FreezeAuthority = true
	dropped := buildTestMessage(t, d)
	if data := dropped.Message.Instructions[1].Data; data[34] != 0 {
		t.Errorf("freeze authority kept despite the checkbox: option byte=%d", data[34])
	}
}

func TestBuildGeneratesFreshMintPerAttempt(t *testing.T) {
	a := buildTestMessage(t, testDraft())
	b := buildTestMessage(t, testDraft())
	if a.MintAddress == b.MintAddress {
		t.Error("mint keypair reused across attempts")
	}
	if len(a.MintAddress) < 32 || len(a.MintAddress) > 44 {
		t.Errorf("mint address %q has unexpected length", a.MintAddress)
	}
}

func TestDerivedAddressesAreDeterministic(t *testing.T) {
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	ata1, _, err := common.FindAssociatedTokenAddress(payer, mint)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress: %v", err)
	}
	ata2, _, _ := common.FindAssociatedTokenAddress(payer, mint)
	if ata1 != ata2 {
		t.Error("ATA derivation is not deterministic")
	}

	meta1, err := token_metadata.GetTokenMetaPubkey(mint)
	if err != nil {
		t.Fatalf("GetTokenMetaPubkey: %v", err)
	}
	meta2, _ := token_metadata.GetTokenMetaPubkey(mint)
	if meta1 != meta2 {
		t.Error("metadata PDA derivation is not deterministic")
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	payer := types.NewAccount().PublicKey

	tests := []struct {
		name   string
		mutate func(*CreateTokenParams)
	}{
		{"overflowing supply", func(p *CreateTokenParams) { p.Draft.Amount = "99999999999"; p.Draft.Decimals = "9" }},
		{"bad decimals", func(p *CreateTokenParams) { p.Draft.Decimals = "10" }},
		{"empty metadata uri", func(p *CreateTokenParams) { p.MetadataURI = "" }},
		{"empty blockhash", func(p *CreateTokenParams) { p.RecentBlockhash = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CreateTokenParams{
				Payer:           payer,
				Draft:           testDraft(),
				MetadataURI:     "https://gateway.pinata.cloud/ipfs/QmMeta",
				RentLamports:    1461600,
				RecentBlockhash: testBlockhash,
			}
			tt.mutate(&p)
			if _, err := BuildCreateTokenMessage(p); err == nil {
				t.Error("expected build error, got nil")
			}
		})
	}
}

func TestCreateTokenBuilderPort(t *testing.T) {
	payer := types.NewAccount().PublicKey.ToBase58()
	b := &CreateTokenBuilder{}

	built, err := b.Build(context.Background(), payer, testDraft(),
		"https://gateway.pinata.cloud/ipfs/QmMeta", 1461600, testBlockhash)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.MintAddress == "" || built.AssociatedTokenAccount == "" || built.MetadataAddress == "" {
		t.Errorf("derived addresses missing: %+v", built)
	}
	if _, ok := built.Payload.(*CreateTokenMessage); !ok {
		t.Errorf("payload type %T", built.Payload)
	}

	if _, err := b.Build(context.Background(), "not-a-pubkey", testDraft(),
		"https://gateway.pinata.cloud/ipfs/QmMeta", 1461600, testBlockhash); err == nil {
		t.Error("invalid payer accepted")
	}
}
