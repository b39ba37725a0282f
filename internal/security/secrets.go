// Package security holds small primitives for handling secret-shaped byte
// material (matched API keys, private-key blocks, bearer tokens) safely
// between the moment the redactor finds them and the moment they are
// replaced by a placeholder.
package security

import (
	"fmt"
	"sync/atomic"
)

// ZeroBytes overwrites b in place. Used whenever a buffer held a secret
// value that must not linger in process memory after use.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Secret holds a byte slice extracted from untrusted text because it looked
// like a credential (matched one of the redactor's patterns). The holder
// must call Clear once it has derived whatever it needs (a placeholder
// hash, a kind classification) from the bytes.
type Secret struct {
	data    []byte
	cleared atomic.Bool
}

// NewSecret takes ownership of a copy of data. The caller's original slice
// is left untouched; only the Secret's internal copy is zeroed on Clear.
func NewSecret(data []byte) *Secret {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Secret{data: cp}
}

// Bytes returns the secret's current bytes, or an error if already cleared.
func (s *Secret) Bytes() ([]byte, error) {
	if s.cleared.Load() {
		return nil, fmt.Errorf("secret: already cleared")
	}
	return s.data, nil
}

// Clear zeroes the underlying buffer. Safe to call more than once.
func (s *Secret) Clear() {
	if s.cleared.Swap(true) {
		return
	}
	ZeroBytes(s.data)
	s.data = nil
}

// WithSecret runs fn with the secret's bytes and guarantees the buffer is
// zeroed afterward, regardless of whether fn returns an error.
func WithSecret(data []byte, fn func([]byte) error) error {
	s := NewSecret(data)
	defer s.Clear()
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	return fn(b)
}
