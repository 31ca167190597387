package ledger

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Address identifies an account on the ledger: a base58-encoded ed25519 public key.
type Address string

// ParseAddress validates s as a wallet public key and returns its canonical form.
func ParseAddress(s string) (Address, error) {
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return Address(pk.String()), nil
}

func (a Address) String() string { return string(a) }

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ValidateIdentifier reports whether id is usable as an event identifier.
func ValidateIdentifier(id string) error {
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return nil
}
