// Package passwords hashes, verifies and generates member passwords.
package passwords

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor for stored hashes.
const Cost = 12

// DefaultLength is the generated password length when none is configured.
const DefaultLength = 12

// MaxLength is the longest input bcrypt accepts. Generated passwords never
// exceed it; longer inputs to Hash and Verify are pre-hashed.
const MaxLength = 72

// alphabet omits characters that are easy to misread in an email (0/O, 1/l/I).
const alphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ErrEmptyPassword is returned when hashing an empty string.
var ErrEmptyPassword = errors.New("password must not be empty")

// Hash returns a salted bcrypt hash of plain.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// bcryptInput returns plain unchanged when bcrypt can take it, otherwise the
// base64 SHA-256 of plain (44 bytes).
func bcryptInput(plain string) []byte {
	if len(plain) <= MaxLength {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// Verify reports whether plain matches hash. Malformed hashes and mismatches
// both return false.
func Verify(hash, plain string) bool {
	if hash == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(plain)) == nil
}

// Generate returns a random password of the given length drawn from a
// cryptographic source. Lengths below 8 are raised to DefaultLength and
// lengths above MaxLength are lowered to it.
func Generate(length int) (string, error) {
	if length < 8 {
		length = DefaultLength
	}
	if length > MaxLength {
		length = MaxLength
	}
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
