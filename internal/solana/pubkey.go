// Package solana holds the Solana account key type used by futarchy rows.
package solana

import (
	"encoding/json"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PubkeyLength is the size of an account key in bytes.
const PubkeyLength = 32

// ErrInvalidPubkey is returned for strings that are not base58 32-byte keys.
var ErrInvalidPubkey = errors.New("invalid pubkey")

// Pubkey is a Solana account address.
type Pubkey [PubkeyLength]byte

// ParsePubkey decodes a base58 account address.
func ParsePubkey(s string) (Pubkey, error) {
	var pk Pubkey
	if s == "" {
		return pk, fmt.Errorf("%w: empty", ErrInvalidPubkey)
	}
	b, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %q: %v", ErrInvalidPubkey, s, err)
	}
	if len(b) != PubkeyLength {
		return pk, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidPubkey, s, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// MustParsePubkey is ParsePubkey for constants. It panics on error.
func MustParsePubkey(s string) Pubkey {
	pk, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the base58 encoding.
func (pk Pubkey) String() string {
	return base58.Encode(pk[:])
}

// IsZero reports whether the key is all zeroes (the system program).
func (pk Pubkey) IsZero() bool {
	return pk == Pubkey{}
}

// IsOnCurve reports whether the key is a valid ed25519 point.
// Program derived addresses are always off the curve.
func (pk Pubkey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

func (pk Pubkey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

func (pk *Pubkey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPubkey, err)
	}
	parsed, err := ParsePubkey(s)
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// MarshalText lets Pubkey be used as a map key and with envconfig.
func (pk Pubkey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

func (pk *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// IsValidAccount reports whether s is a well-formed account address.
func IsValidAccount(s string) bool {
	_, err := ParsePubkey(s)
	return err == nil
}
