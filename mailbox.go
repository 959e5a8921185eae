package mailbox

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Size is the length of a mailbox name in bytes.
const Size = 64

// Mailbox is an opaque token naming a shared texture. Mailboxes are
// compared byte-wise and are usable as map keys. The zero Mailbox means
// "no mailbox".
type Mailbox [Size]byte

// GenerateMailbox returns a new random mailbox name.
func GenerateMailbox() (Mailbox, error) {
	var m Mailbox
	if _, err := rand.Read(m[:]); err != nil {
		return Mailbox{}, fmt.Errorf("mailbox: generate: %w", err)
	}
	return m, nil
}

// MustGenerateMailbox is like GenerateMailbox but panics on failure.
func MustGenerateMailbox() Mailbox {
	m, err := GenerateMailbox()
	if err != nil {
		panic(err)
	}
	return m
}

// IsZero reports whether m is the zero mailbox.
func (m Mailbox) IsZero() bool {
	return m == Mailbox{}
}

// String returns m as lowercase hex.
func (m Mailbox) String() string {
	return hex.EncodeToString(m[:])
}

// Short returns the first 8 bytes as hex, for logs.
func (m Mailbox) Short() string {
	return hex.EncodeToString(m[:8])
}

// ParseMailbox parses the hex form produced by String.
func ParseMailbox(s string) (Mailbox, error) {
	var m Mailbox
	if len(s) != 2*Size {
		return m, fmt.Errorf("%w: want %d hex digits, got %d", ErrInvalidMailbox, 2*Size, len(s))
	}
	if _, err := hex.Decode(m[:], []byte(s)); err != nil {
		return Mailbox{}, fmt.Errorf("%w: %w", ErrInvalidMailbox, err)
	}
	return m, nil
}
