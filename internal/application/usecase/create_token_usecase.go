// internal/application/usecase/create_token_usecase.go
package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	tokendom "tokenforge/internal/domain/token"
)

// ============================================================
// Ports
// ============================================================

// MetadataDocument is the off-chain JSON pinned for a token.
type MetadataDocument struct {
	Name        string
	Symbol      string
	Description string
	Image       string
}

// MetadataPublisherPort は pinning サービスへのアップロード境界。
// 画像 → JSON の 2 回の独立した呼び出しを厳密にこの順で行う。
type MetadataPublisherPort interface {
	PinFile(ctx context.Context, filename string, r io.Reader) (string, error)
	PinJSON(ctx context.Context, doc MetadataDocument) (string, error)
}

// BuiltTransaction is the unsigned transaction handed from the builder to the
// wallet. Payload is infra-specific material the coordinator never inspects.
type BuiltTransaction struct {
	MintAddress            string
	AssociatedTokenAccount string
	MetadataAddress        string
	Payload                any
}

// SignedTransaction is wallet output, opaque to the coordinator.
type SignedTransaction struct {
	Payload any
}

// TransactionBuilderPort assembles the create-token transaction. It never
// signs or submits; that separation keeps "what to send" apart from "how".
type TransactionBuilderPort interface {
	Build(
		ctx context.Context,
		payer string,
		draft tokendom.Draft,
		metadataURI string,
		rentLamports uint64,
		recentBlockhash string,
	) (*BuiltTransaction, error)
}

// WalletPort は外部ウォレット境界。署名能力はこの境界の内側に留まる。
type WalletPort interface {
	PublicKey() string
	SignTransaction(ctx context.Context, tx *BuiltTransaction) (*SignedTransaction, error)
}

// ChainPort is the live RPC connection boundary, supplied by the session.
type ChainPort interface {
	Connected() bool
	MinimumRentForMint(ctx context.Context) (uint64, error)
	LatestBlockhash(ctx context.Context) (string, error)
	Submit(ctx context.Context, signed *SignedTransaction) (string, error)
	ConfirmTransaction(ctx context.Context, signature string) error
}

// ============================================================
// Submission state machine
// ============================================================

type SubmissionPhase string

const (
	PhaseIdle                SubmissionPhase = "idle"
	PhaseValidatingInput     SubmissionPhase = "validating_input"
	PhaseUploadingImage      SubmissionPhase = "uploading_image"
	PhasePublishingMetadata  SubmissionPhase = "publishing_metadata"
	PhaseBuildingTransaction SubmissionPhase = "building_transaction"
	PhaseAwaitingSignature   SubmissionPhase = "awaiting_signature"
	PhaseSubmitting          SubmissionPhase = "submitting"
	PhaseSucceeded           SubmissionPhase = "succeeded"
	PhaseFailed              SubmissionPhase = "failed"
)

type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureUpload     FailureKind = "upload"
	FailureBuild      FailureKind = "build"
	FailureSignature  FailureKind = "signature_rejected"
	FailureSubmission FailureKind = "submission"
)

// Snapshot is the UI-visible view of the submission state.
// AmountError / DecimalsError は「最後に弾いた時刻 + 表示ウィンドウ」から
// 導出する（タイマーコールバックではない）。連続入力でも競合しない。
type Snapshot struct {
	Phase          SubmissionPhase `json:"phase"`
	MintAddress    string          `json:"mintAddress,omitempty"`
	TxSignature    string          `json:"txSignature,omitempty"`
	FailureKind    FailureKind     `json:"failureKind,omitempty"`
	FailureMessage string          `json:"failureMessage,omitempty"`
	AmountError    bool            `json:"amountError"`
	DecimalsError  bool            `json:"decimalsError"`
}

// ImageFile is a newly chosen image to pin before metadata publishing.
type ImageFile struct {
	Name   string
	Reader io.Reader
}

// Errors returned without any state transition (fail-fast preconditions).
var (
	ErrWalletNotConnected = errors.New("create_token: wallet is not connected")
	ErrNoConnection       = errors.New("create_token: rpc connection is not established")
	ErrSubmissionInFlight = errors.New("create_token: a submission is already in flight")
	ErrNotInitialized     = errors.New("create_token: usecase is not properly initialized")
)

// fieldErrorWindow is how long an out-of-range field entry stays flagged.
const fieldErrorWindow = time.Second

// ============================================================
// CreateTokenUsecase
// ============================================================

// CreateTokenUsecase がサブミッションパイプライン全体を調停します。
// validate → (画像 pin) → metadata pin → tx 組み立て → 署名 → 送信 → 確認。
// 進行中の状態は単一オーナー（この usecase）だけが書き換えます。
type CreateTokenUsecase struct {
	publisher MetadataPublisherPort
	builder   TransactionBuilderPort
	wallet    WalletPort
	chain     ChainPort

	mu       sync.Mutex
	inFlight bool

	phase          SubmissionPhase
	mintAddress    string
	txSignature    string
	failureKind    FailureKind
	failureMessage string

	amountRejectedAt   time.Time
	decimalsRejectedAt time.Time

	now func() time.Time // test hook
}

func NewCreateTokenUsecase(
	publisher MetadataPublisherPort,
	builder TransactionBuilderPort,
	wallet WalletPort,
	chain ChainPort,
) *CreateTokenUsecase {
	return &CreateTokenUsecase{
		publisher: publisher,
		builder:   builder,
		wallet:    wallet,
		chain:     chain,
		phase:     PhaseIdle,
		now:       time.Now,
	}
}

// Submit runs one submission attempt end to end and returns the terminal
// snapshot. Pipeline failures surface in the snapshot (phase=failed), not as
// the error return; the error return is reserved for preconditions that must
// not advance the state machine at all.
//
// 失敗時は draft を呼び出し側に残したまま戻るので、ユーザーは修正して再送できる。
// Mint keypair は試行ごとに新規生成されるため、再送が過去の部分的な試行と
// 衝突することはない。metadata は再送時に再 pin される（重複は許容）。
func (u *CreateTokenUsecase) Submit(ctx context.Context, draft tokendom.Draft, image *ImageFile) (Snapshot, error) {
	if u == nil || u.publisher == nil || u.builder == nil || u.wallet == nil || u.chain == nil {
		return Snapshot{}, ErrNotInitialized
	}

	// Preconditions: no state advance when wallet/connection are absent.
	if u.wallet.PublicKey() == "" {
		return u.CurrentSnapshot(), ErrWalletNotConnected
	}
	if !u.chain.Connected() {
		return u.CurrentSnapshot(), ErrNoConnection
	}

	u.mu.Lock()
	if u.inFlight {
		u.mu.Unlock()
		return u.CurrentSnapshot(), ErrSubmissionInFlight
	}
	u.inFlight = true
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		u.inFlight = false
		u.mu.Unlock()
	}()

	// 1. Validate — before any network or upload activity.
	u.setPhase(PhaseValidatingInput)

	d := draft.Normalize()
	if image != nil {
		// 画像は未 pin なので URI はまだ無い。アップロード後に差し替わる。
		d.ImageURI = "file:" + strings.TrimSpace(image.Name)
	}
	if err := d.Validate(); err != nil {
		u.noteFieldRejection(err)
		return u.fail(FailureValidation, err), nil
	}

	// 2. Pin the image when one is newly chosen.
	if image != nil {
		u.setPhase(PhaseUploadingImage)
		uri, err := u.publisher.PinFile(ctx, image.Name, image.Reader)
		if err != nil {
			return u.fail(FailureUpload, err), nil
		}
		d.ImageURI = uri
	}

	// 3. Pin the metadata JSON referencing the image.
	u.setPhase(PhasePublishingMetadata)
	metadataURI, err := u.publisher.PinJSON(ctx, MetadataDocument{
		Name:        d.Name,
		Symbol:      d.Symbol,
		Description: d.Description,
		Image:       d.ImageURI,
	})
	if err != nil {
		return u.fail(FailureUpload, err), nil
	}

	// 4. Build the 5-instruction transaction.
	u.setPhase(PhaseBuildingTransaction)
	rent, err := u.chain.MinimumRentForMint(ctx)
	if err != nil {
		return u.fail(FailureBuild, err), nil
	}
	blockhash, err := u.chain.LatestBlockhash(ctx)
	if err != nil {
		return u.fail(FailureBuild, err), nil
	}
	built, err := u.builder.Build(ctx, u.wallet.PublicKey(), d, metadataURI, rent, blockhash)
	if err != nil {
		return u.fail(FailureBuild, err), nil
	}

	// 5. Wallet signature (suspends until approved or rejected).
	u.setPhase(PhaseAwaitingSignature)
	signed, err := u.wallet.SignTransaction(ctx, built)
	if err != nil {
		return u.fail(FailureSignature, err), nil
	}

	// 6. Submit and confirm.
	u.setPhase(PhaseSubmitting)
	sig, err := u.chain.Submit(ctx, signed)
	if err != nil {
		return u.fail(FailureSubmission, err), nil
	}
	if err := u.chain.ConfirmTransaction(ctx, sig); err != nil {
		return u.fail(FailureSubmission, err), nil
	}

	return u.succeed(built.MintAddress, sig), nil
}

// CheckAmountInput is the keystroke-level amount check. A rejected entry sets
// the amount error flag for fieldErrorWindow.
func (u *CreateTokenUsecase) CheckAmountInput(s string) bool {
	if tokendom.IsValidAmountInput(s) {
		return true
	}
	u.mu.Lock()
	u.amountRejectedAt = u.now()
	u.mu.Unlock()
	return false
}

// CheckDecimalsInput is the keystroke-level decimals check.
func (u *CreateTokenUsecase) CheckDecimalsInput(s string) bool {
	if tokendom.IsValidDecimalsInput(s) {
		return true
	}
	u.mu.Lock()
	u.decimalsRejectedAt = u.now()
	u.mu.Unlock()
	return false
}

// CurrentSnapshot returns the UI-visible state, with the field-error flags
// derived from the rejection timestamps.
func (u *CreateTokenUsecase) CurrentSnapshot() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	return Snapshot{
		Phase:          u.phase,
		MintAddress:    u.mintAddress,
		TxSignature:    u.txSignature,
		FailureKind:    u.failureKind,
		FailureMessage: u.failureMessage,
		AmountError:    !u.amountRejectedAt.IsZero() && now.Sub(u.amountRejectedAt) < fieldErrorWindow,
		DecimalsError:  !u.decimalsRejectedAt.IsZero() && now.Sub(u.decimalsRejectedAt) < fieldErrorWindow,
	}
}

// ============================================================
// internal state transitions
// ============================================================

func (u *CreateTokenUsecase) setPhase(p SubmissionPhase) {
	u.mu.Lock()
	u.phase = p
	if p == PhaseValidatingInput {
		// new attempt: clear the previous outcome
		u.mintAddress = ""
		u.txSignature = ""
		u.failureKind = ""
		u.failureMessage = ""
	}
	u.mu.Unlock()
}

func (u *CreateTokenUsecase) fail(kind FailureKind, err error) Snapshot {
	u.mu.Lock()
	u.phase = PhaseFailed
	u.failureKind = kind
	u.failureMessage = err.Error()
	u.mu.Unlock()
	return u.CurrentSnapshot()
}

func (u *CreateTokenUsecase) succeed(mintAddress, signature string) Snapshot {
	u.mu.Lock()
	u.phase = PhaseSucceeded
	u.mintAddress = mintAddress
	u.txSignature = signature
	u.mu.Unlock()
	return u.CurrentSnapshot()
}

func (u *CreateTokenUsecase) noteFieldRejection(err error) {
	u.mu.Lock()
	switch {
	case errors.Is(err, tokendom.ErrInvalidAmount), errors.Is(err, tokendom.ErrSupplyOverflow):
		u.amountRejectedAt = u.now()
	case errors.Is(err, tokendom.ErrInvalidDecimals):
		u.decimalsRejectedAt = u.now()
	}
	u.mu.Unlock()
}
