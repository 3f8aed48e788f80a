package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tokendom "tokenforge/internal/domain/token"
)

// ============================================================
// fakes
// ============================================================

type fakePublisher struct {
	fileURI  string
	jsonURI  string
	fileErr  error
	jsonErr  error
	pinCalls int
}

func (f *fakePublisher) PinFile(_ context.Context, _ string, _ io.Reader) (string, error) {
	f.pinCalls++
	if f.fileErr != nil {
		return "", f.fileErr
	}
	return f.fileURI, nil
}

func (f *fakePublisher) PinJSON(_ context.Context, _ MetadataDocument) (string, error) {
	f.pinCalls++
	if f.jsonErr != nil {
		return "", f.jsonErr
	}
	return f.jsonURI, nil
}

type fakeBuilder struct {
	err    error
	lastTx *BuiltTransaction
}

func (f *fakeBuilder) Build(_ context.Context, payer string, _ tokendom.Draft, metadataURI string, _ uint64, _ string) (*BuiltTransaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastTx = &BuiltTransaction{
		MintAddress: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		Payload:     payer + "|" + metadataURI,
	}
	return f.lastTx, nil
}

type fakeWallet struct {
	pubkey  string
	signErr error
	signed  int
}

func (f *fakeWallet) PublicKey() string { return f.pubkey }

func (f *fakeWallet) SignTransaction(_ context.Context, tx *BuiltTransaction) (*SignedTransaction, error) {
	f.signed++
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &SignedTransaction{Payload: tx.Payload}, nil
}

type fakeChain struct {
	connected  bool
	submitErr  error
	confirmErr error
	submits    int
	rpcCalls   int
}

func (f *fakeChain) Connected() bool { return f.connected }

func (f *fakeChain) MinimumRentForMint(_ context.Context) (uint64, error) {
	f.rpcCalls++
	return 1461600, nil
}

func (f *fakeChain) LatestBlockhash(_ context.Context) (string, error) {
	f.rpcCalls++
	return "FwRYtTPRk5N4wUeP87rTw9kQVSwigB6kbikGzzeCMrW5", nil
}

func (f *fakeChain) Submit(_ context.Context, _ *SignedTransaction) (string, error) {
	f.submits++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7", nil
}

func (f *fakeChain) ConfirmTransaction(_ context.Context, _ string) error {
	return f.confirmErr
}

func validDraft() tokendom.Draft {
	return tokendom.Draft{
		Name:        "Foo",
		Symbol:      "FOO",
		Decimals:    "2",
		Amount:      "1000",
		Description: "d",
		ImageURI:    "https://gateway.pinata.cloud/ipfs/QmImg",
	}
}

func newTestUsecase() (*CreateTokenUsecase, *fakePublisher, *fakeBuilder, *fakeWallet, *fakeChain) {
	pub := &fakePublisher{fileURI: "https://gateway.pinata.cloud/ipfs/QmImg", jsonURI: "https://gateway.pinata.cloud/ipfs/QmMeta"}
	bld := &fakeBuilder{}
	wal := &fakeWallet{pubkey: "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy"}
	ch := &fakeChain{connected: true}
	return NewCreateTokenUsecase(pub, bld, wal, ch), pub, bld, wal, ch
}

// ============================================================
// tests
// ============================================================

func TestSubmitSucceeds(t *testing.T) {
	u, _, _, _, _ := newTestUsecase()

	snap, err := u.Submit(context.Background(), validDraft(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if snap.Phase != PhaseSucceeded {
		t.Fatalf("phase=%s, want succeeded (failure: %s %s)", snap.Phase, snap.FailureKind, snap.FailureMessage)
	}
	if len(snap.MintAddress) != 44 {
		t.Errorf("mint address %q is not 44 chars", snap.MintAddress)
	}
	if snap.TxSignature == "" {
		t.Error("tx signature is empty")
	}
}

func TestSubmitWithNewImageUploadsFirst(t *testing.T) {
	u, pub, _, _, _ := newTestUsecase()

	d := validDraft()
	d.ImageURI = "" // no previously pinned image
	snap, err := u.Submit(context.Background(), d, &ImageFile{Name: "logo.png", Reader: strings.NewReader("png")})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if snap.Phase != PhaseSucceeded {
		t.Fatalf("phase=%s (failure: %s %s)", snap.Phase, snap.FailureKind, snap.FailureMessage)
	}
	if pub.pinCalls != 2 {
		t.Errorf("pin calls=%d, want 2 (image then metadata)", pub.pinCalls)
	}
}

func TestSubmitValidationFailureMakesNoNetworkCalls(t *testing.T) {
	u, pub, _, wal, ch := newTestUsecase()

	d := validDraft()
	d.Amount = "99999999999999999999"
	snap, err := u.Submit(context.Background(), d, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if snap.Phase != PhaseFailed || snap.FailureKind != FailureValidation {
		t.Fatalf("phase=%s kind=%s, want failed/validation", snap.Phase, snap.FailureKind)
	}
	if pub.pinCalls != 0 || ch.rpcCalls != 0 || ch.submits != 0 || wal.signed != 0 {
		t.Errorf("network activity after validation failure: pins=%d rpc=%d submits=%d signs=%d",
			pub.pinCalls, ch.rpcCalls, ch.submits, wal.signed)
	}
}

func TestSubmitMissingFields(t *testing.T) {
	mutations := map[string]func(*tokendom.Draft){
		"name":        func(d *tokendom.Draft) { d.Name = "" },
		"symbol":      func(d *tokendom.Draft) { d.Symbol = "" },
		"amount":      func(d *tokendom.Draft) { d.Amount = "" },
		"description": func(d *tokendom.Draft) { d.Description = "" },
		"decimals":    func(d *tokendom.Draft) { d.Decimals = "" },
		"image":       func(d *tokendom.Draft) { d.ImageURI = "" },
	}

	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			u, _, _, wal, _ := newTestUsecase()
			d := validDraft()
			mutate(&d)
			snap, err := u.Submit(context.Background(), d, nil)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if snap.Phase != PhaseFailed || snap.FailureKind != FailureValidation {
				t.Fatalf("phase=%s kind=%s", snap.Phase, snap.FailureKind)
			}
			if wal.signed != 0 {
				t.Error("reached the wallet despite a validation failure")
			}
		})
	}
}

func TestSubmitSignatureRejectionNeverSubmits(t *testing.T) {
	u, _, _, wal, ch := newTestUsecase()
	wal.signErr = errors.New("user rejected the request")

	snap, err := u.Submit(context.Background(), validDraft(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if snap.Phase != PhaseFailed || snap.FailureKind != FailureSignature {
		t.Fatalf("phase=%s kind=%s, want failed/signature_rejected", snap.Phase, snap.FailureKind)
	}
	if ch.submits != 0 {
		t.Error("transaction was submitted after a signature rejection")
	}
}

func TestSubmitUploadFailure(t *testing.T) {
	u, pub, _, _, ch := newTestUsecase()
	pub.jsonErr = errors.New("pinata: upload failed: status=500")

	snap, err := u.Submit(context.Background(), validDraft(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if snap.Phase != PhaseFailed || snap.FailureKind != FailureUpload {
		t.Fatalf("phase=%s kind=%s", snap.Phase, snap.FailureKind)
	}
	if ch.rpcCalls != 0 {
		t.Error("rpc was reached after an upload failure")
	}
}

func TestSubmitSubmissionFailure(t *testing.T) {
	u, _, _, _, ch := newTestUsecase()
	ch.submitErr = errors.New("blockhash not found")

	snap, err := u.Submit(context.Background(), validDraft(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if snap.Phase != PhaseFailed || snap.FailureKind != FailureSubmission {
		t.Fatalf("phase=%s kind=%s", snap.Phase, snap.FailureKind)
	}
}

func TestSubmitConfirmFailure(t *testing.T) {
	u, _, _, _, ch := newTestUsecase()
	ch.confirmErr = errors.New("transaction was not confirmed")

	snap, err := u.Submit(context.Background(), validDraft(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if snap.Phase != PhaseFailed || snap.FailureKind != FailureSubmission {
		t.Fatalf("phase=%s kind=%s", snap.Phase, snap.FailureKind)
	}
}

func TestSubmitPreconditions(t *testing.T) {
	t.Run("no wallet", func(t *testing.T) {
		u, _, _, wal, _ := newTestUsecase()
		wal.pubkey = ""
		_, err := u.Submit(context.Background(), validDraft(), nil)
		if !errors.Is(err, ErrWalletNotConnected) {
			t.Fatalf("err=%v, want ErrWalletNotConnected", err)
		}
		if snap := u.CurrentSnapshot(); snap.Phase != PhaseIdle {
			t.Errorf("phase advanced to %s on a failed precondition", snap.Phase)
		}
	})

	t.Run("no connection", func(t *testing.T) {
		u, _, _, _, ch := newTestUsecase()
		ch.connected = false
		_, err := u.Submit(context.Background(), validDraft(), nil)
		if !errors.Is(err, ErrNoConnection) {
			t.Fatalf("err=%v, want ErrNoConnection", err)
		}
		if snap := u.CurrentSnapshot(); snap.Phase != PhaseIdle {
			t.Errorf("phase advanced to %s on a failed precondition", snap.Phase)
		}
	})
}

func TestRetryAfterFailureUsesFreshAttempt(t *testing.T) {
	u, pub, _, _, _ := newTestUsecase()
	pub.jsonErr = errors.New("boom")

	if snap, _ := u.Submit(context.Background(), validDraft(), nil); snap.Phase != PhaseFailed {
		t.Fatalf("first attempt phase=%s", snap.Phase)
	}

	pub.jsonErr = nil
	snap, err := u.Submit(context.Background(), validDraft(), nil)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if snap.Phase != PhaseSucceeded {
		t.Fatalf("retry phase=%s (failure: %s)", snap.Phase, snap.FailureMessage)
	}
	if snap.FailureKind != "" || snap.FailureMessage != "" {
		t.Error("stale failure survived into the retry snapshot")
	}
}

func TestFieldErrorFlagsDeriveFromWindow(t *testing.T) {
	u, _, _, _, _ := newTestUsecase()

	base := time.Now()
	now := base
	u.now = func() time.Time { return now }

	if u.CheckAmountInput("99999999999") {
		t.Fatal("11-digit amount accepted")
	}
	if u.CheckDecimalsInput("10") {
		t.Fatal("decimals 10 accepted")
	}

	snap := u.CurrentSnapshot()
	if !snap.AmountError || !snap.DecimalsError {
		t.Fatalf("flags not set: %+v", snap)
	}

	// 1 秒経過後は自動的に消える（タイマーではなく導出値）
	now = base.Add(fieldErrorWindow + time.Millisecond)
	snap = u.CurrentSnapshot()
	if snap.AmountError || snap.DecimalsError {
		t.Fatalf("flags did not clear after the window: %+v", snap)
	}

	if !u.CheckAmountInput("1000") || !u.CheckDecimalsInput("9") {
		t.Fatal("valid inputs rejected")
	}
}
