// Package secrets generates passwords, API keys and tokens from a
// cryptographically secure random source. All values are produced fresh per
// build; nothing is cached or persisted here.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidLength is returned when a requested secret length is not positive.
	ErrInvalidLength = errors.New("secret length must be at least 1")

	// ErrUnknownKind is returned for an unrecognized generator kind.
	ErrUnknownKind = errors.New("unknown secret kind")
)

// =============================================================================
// Generators
// =============================================================================

// DefaultPasswordLength is used when a password field declares generate: true
// without a length.
const DefaultPasswordLength = 24

const (
	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars = "0123456789"
	// No '$': generated values land verbatim in the compose environment
	// block, where a dollar sign would be treated as an interpolation.
	specialChars = "!@#%^&*()-_=+[]{}:,.<>?"
)

// Password generates a password of the given length. For lengths of four or
// more the result is guaranteed to contain at least one uppercase letter, one
// lowercase letter, one digit and one special character.
func Password(length int) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}

	full := lowerChars + upperChars + digitChars + specialChars
	if length < 4 {
		return randomString(length, full)
	}

	chars := make([]byte, 0, length)
	for _, set := range []string{upperChars, lowerChars, digitChars, specialChars} {
		c, err := randomByte(set)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomByte(full)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	if err := shuffle(chars); err != nil {
		return "", err
	}
	return string(chars), nil
}

// APIKey generates a URL-safe base64 key of the given length in characters.
func APIKey(length int) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}
	// Base64 expands by ~33%, so over-provision the raw bytes.
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded[:length], nil
}

// Token generates a 48-character URL-safe token.
func Token() (string, error) {
	return APIKey(48)
}

// HexID generates a 32-character hex identifier.
func HexID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate hex id: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Generate produces a secret of the requested kind. Recognized kinds are
// password, api_key, token and hex.
func Generate(kind string) (string, error) {
	switch kind {
	case "password":
		return Password(32)
	case "api_key":
		return APIKey(64)
	case "token":
		return Token()
	case "hex":
		return HexID()
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// HtpasswdEntry produces a bcrypt htpasswd line (user:hash) for HTTP basic
// auth, as consumed by the reverse proxy dashboard middleware.
func HtpasswdEntry(user, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return user + ":" + string(hash), nil
}

// =============================================================================
// Random Helpers
// =============================================================================

func randomString(length int, charset string) (string, error) {
	out := make([]byte, length)
	for i := range out {
		c, err := randomByte(charset)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	return string(out), nil
}

func randomByte(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return charset[n.Int64()], nil
}

// Fisher-Yates with crypto/rand indices.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("read random: %w", err)
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
