package cryptox

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMismatch is returned by Verify when the password does not match the hash.
var ErrMismatch = errors.New("password does not match")

// Hasher turns a plaintext password into a self-describing encoded digest
// and verifies candidates against it.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) error
}

const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// NewHasher returns the hasher registered under name.
func NewHasher(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "", HasherBcrypt:
		return NewBcryptHasher(0), nil
	case HasherArgon2id:
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
}
