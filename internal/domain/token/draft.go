// internal/domain/token/draft.go
package token

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// Draft is the user-entered token definition, mutable in the UI layer and
// read-only once handed to the submission pipeline.
type Draft struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    string `json:"decimals"` // integer string, 0..9
	Amount      string `json:"amount"`   // raw supply units, pre-scaling
	Description string `json:"description"`
	ImageURI    string `json:"image"`

	// Checkbox intent from the form. FreezeAuthority drops the freeze
	// authority at mint initialization. RevokeMintAuthority is captured
	// but not wired to any instruction.
	FreezeAuthority     bool `json:"freezeAuthority"`
	RevokeMintAuthority bool `json:"revokeMintAuthority"`
}

// Errors
var (
	ErrNameRequired        = errors.New("token: name is required")
	ErrSymbolRequired      = errors.New("token: symbol is required")
	ErrAmountRequired      = errors.New("token: amount is required")
	ErrDescriptionRequired = errors.New("token: description is required")
	ErrDecimalsRequired    = errors.New("token: decimals is required")
	ErrImageRequired       = errors.New("token: image is required")
	ErrInvalidAmount       = errors.New("token: amount must be a decimal integer of at most 10 digits")
	ErrInvalidDecimals     = errors.New("token: decimals must be an integer in [0,9]")
	ErrSupplyOverflow      = errors.New("token: amount * 10^decimals exceeds max u64 supply")
	ErrInvalidWallet       = errors.New("token: invalid wallet address")
)

// Policy
const (
	MaxAmountDigits = 10
	MaxDecimals     = 9
)

// Normalize trims all string fields. Returns a copy; the UI keeps its own
// editing buffer.
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Symbol = strings.TrimSpace(d.Symbol)
	d.Decimals = strings.TrimSpace(d.Decimals)
	d.Amount = strings.TrimSpace(d.Amount)
	d.Description = strings.TrimSpace(d.Description)
	d.ImageURI = strings.TrimSpace(d.ImageURI)
	return d
}

// Validate checks the draft is submittable: every field present, decimals and
// amount in range, and the scaled supply representable as u64. It performs no
// I/O, so the pipeline can reject a doomed draft before any upload starts.
func (d Draft) Validate() error {
	d = d.Normalize()

	if d.Name == "" {
		return ErrNameRequired
	}
	if d.Symbol == "" {
		return ErrSymbolRequired
	}
	if d.Amount == "" {
		return ErrAmountRequired
	}
	if d.Description == "" {
		return ErrDescriptionRequired
	}
	if d.Decimals == "" {
		return ErrDecimalsRequired
	}
	if d.ImageURI == "" {
		return ErrImageRequired
	}

	// Length is a keystroke-level limit (IsValidAmountInput); at submission
	// only the shape matters, magnitude is the supply check's job.
	if !isDigits(d.Amount) {
		return ErrInvalidAmount
	}
	dec, err := d.DecimalsInt()
	if err != nil {
		return err
	}
	if !IsSupplyValid(d.Amount, dec) {
		return ErrSupplyOverflow
	}
	return nil
}

// DecimalsInt parses the decimals field and range-checks it.
func (d Draft) DecimalsInt() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(d.Decimals))
	if err != nil || n < 0 || n > MaxDecimals {
		return 0, ErrInvalidDecimals
	}
	return n, nil
}

// IsValidAmountInput reports whether s is a plain decimal integer within the
// form's length limit. Used per keystroke by the UI as well as at submission.
func IsValidAmountInput(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) <= MaxAmountDigits && isDigits(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsValidDecimalsInput reports whether s parses to an integer in [0,9].
func IsValidDecimalsInput(s string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && n >= 0 && n <= MaxDecimals
}

// IsValidWalletAddress reports whether s decodes as a 32-byte base58 pubkey.
func IsValidWalletAddress(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	b, err := base58.Decode(s)
	return err == nil && len(b) == 32
}
