package share

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// tokenBytes is the amount of entropy in every share token.
const tokenBytes = 32

// TokenGenerator issues share tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

type randomTokenGenerator struct {
	src io.Reader
}

// NewTokenGenerator returns a generator reading from crypto/rand. Tokens are
// URL-safe base64 without padding (43 characters).
func NewTokenGenerator() TokenGenerator {
	return &randomTokenGenerator{src: rand.Reader}
}

func (g *randomTokenGenerator) Generate() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(g.src, b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
