// internal/infra/solana/tx_builder.go
package solana

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"

	"tokenforge/internal/application/usecase"
	tokendom "tokenforge/internal/domain/token"
)

// CreateTokenParams はトークン作成トランザクションの組み立てに必要な入力。
// RentLamports / RecentBlockhash は呼び出し側（コーディネータ）が RPC から取得して渡す。
type CreateTokenParams struct {
	Payer           common.PublicKey
	Draft           tokendom.Draft
	MetadataURI     string
	RentLamports    uint64
	RecentBlockhash string
}

// CreateTokenMessage is the unsigned transaction material: the built message
// plus the fresh mint keypair that must co-sign the account creation.
// The payer's signature is the wallet's job, not the builder's.
type CreateTokenMessage struct {
	Mint                   types.Account
	MintAddress            string
	AssociatedTokenAccount string
	MetadataAddress        string
	Message                types.Message
}

// BuildCreateTokenMessage は 5 命令固定のトークン作成 Message を組み立てます。
//
//  1. Mint アカウント作成（rent-exempt で funding、Token Program 所有）
//  2. Mint 初期化（decimals、mint authority = payer、
//     freeze authority = payer ※ Draft.FreezeAuthority が true の場合は無し）
//  3. payer の ATA 作成
//  4. 初期供給量（amount * 10^decimals、整数演算）を ATA へミント
//  5. Metaplex metadata アカウント作成（royalty 0、mutable、payer が update authority）
//
// 命令順は前の命令が次の前提条件を作るため入れ替え不可。
// Mint keypair は呼び出しごとに新規生成され、再利用されません。
func BuildCreateTokenMessage(p CreateTokenParams) (*CreateTokenMessage, error) {
	draft := p.Draft.Normalize()

	decimals, err := draft.DecimalsInt()
	if err != nil {
		return nil, err
	}
	supply, ok := tokendom.ScaledSupply(draft.Amount, decimals)
	if !ok {
		return nil, tokendom.ErrSupplyOverflow
	}
	if p.MetadataURI == "" {
		return nil, fmt.Errorf("tx_builder: metadata URI is empty")
	}
	if p.RecentBlockhash == "" {
		return nil, fmt.Errorf("tx_builder: recent blockhash is empty")
	}

	mint := types.NewAccount()

	ata, _, err := common.FindAssociatedTokenAddress(p.Payer, mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("tx_builder: FindAssociatedTokenAddress: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("tx_builder: GetTokenMetaPubkey: %w", err)
	}

	// Draft.FreezeAuthority: チェック ON でミント時に freeze authority を放棄する。
	// OFF の場合は payer が保持（Draft.RevokeMintAuthority は命令に反映しない）。
	freezeAuth := &p.Payer
	if draft.FreezeAuthority {
		freezeAuth = nil
	}

	msg := types.NewMessage(types.NewMessageParam{
		FeePayer:        p.Payer,
		RecentBlockhash: p.RecentBlockhash,
		Instructions: []types.Instruction{
			system.CreateAccount(system.CreateAccountParam{
				From:     p.Payer,
				New:      mint.PublicKey,
				Owner:    common.TokenProgramID,
				Lamports: p.RentLamports,
				Space:    token.MintAccountSize,
			}),
			token.InitializeMint(token.InitializeMintParam{
				Decimals:   uint8(decimals),
				Mint:       mint.PublicKey,
				MintAuth:   p.Payer,
				FreezeAuth: freezeAuth,
			}),
			associated_token_account.CreateAssociatedTokenAccount(
				associated_token_account.CreateAssociatedTokenAccountParam{
					Funder:                 p.Payer,
					Owner:                  p.Payer,
					Mint:                   mint.PublicKey,
					AssociatedTokenAccount: ata,
				},
			),
			token.MintTo(token.MintToParam{
				Mint:   mint.PublicKey,
				To:     ata,
				Auth:   p.Payer,
				Amount: supply,
			}),
			token_metadata.CreateMetadataAccountV3(
				token_metadata.CreateMetadataAccountV3Param{
					Metadata:                metadataPubkey,
					Mint:                    mint.PublicKey,
					MintAuthority:           p.Payer,
					UpdateAuthority:         p.Payer,
					Payer:                   p.Payer,
					UpdateAuthorityIsSigner: true,
					IsMutable:               true,
					Data: token_metadata.DataV2{
						Name:                 draft.Name,
						Symbol:               draft.Symbol,
						Uri:                  p.MetadataURI,
						SellerFeeBasisPoints: 0,
						Creators:             nil,
						Collection:           nil,
						Uses:                 nil,
					},
					CollectionDetails: nil,
				},
			),
		},
	})

	return &CreateTokenMessage{
		Mint:                   mint,
		MintAddress:            mint.PublicKey.ToBase58(),
		AssociatedTokenAccount: ata.ToBase58(),
		MetadataAddress:        metadataPubkey.ToBase58(),
		Message:                msg,
	}, nil
}

// CreateTokenBuilder adapts BuildCreateTokenMessage to the coordinator port.
type CreateTokenBuilder struct{}

var _ usecase.TransactionBuilderPort = (*CreateTokenBuilder)(nil)

func (b *CreateTokenBuilder) Build(
	ctx context.Context,
	payer string,
	draft tokendom.Draft,
	metadataURI string,
	rentLamports uint64,
	recentBlockhash string,
) (*usecase.BuiltTransaction, error) {
	_ = ctx // 組み立ては純粋でネットワークを使わない

	if !tokendom.IsValidWalletAddress(payer) {
		return nil, tokendom.ErrInvalidWallet
	}

	msg, err := BuildCreateTokenMessage(CreateTokenParams{
		Payer:           common.PublicKeyFromString(payer),
		Draft:           draft,
		MetadataURI:     metadataURI,
		RentLamports:    rentLamports,
		RecentBlockhash: recentBlockhash,
	})
	if err != nil {
		return nil, err
	}

	return &usecase.BuiltTransaction{
		MintAddress:            msg.MintAddress,
		AssociatedTokenAccount: msg.AssociatedTokenAccount,
		MetadataAddress:        msg.MetadataAddress,
		Payload:                msg,
	}, nil
}
