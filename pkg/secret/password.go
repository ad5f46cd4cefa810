// Package secret produces one-time credentials for accounts created on the
// user's behalf. Output is drawn only from a cryptographically strong source;
// when that source fails the generator returns an error instead of a weaker
// or shorter value.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultLength matches the length used when creating backend users.
const DefaultLength = 8

var (
	// ErrInvalidLength is returned for lengths <= 0.
	ErrInvalidLength = errors.New("secret: length must be positive")
	// ErrRandomUnavailable wraps failures of the random source.
	ErrRandomUnavailable = errors.New("secret: random source unavailable")
)

var stripper = strings.NewReplacer("+", "", "/", "", "=", "")

// Generator encodes random bytes into an alphanumeric credential.
type Generator struct {
	// Reader supplies entropy; nil means crypto/rand.Reader.
	Reader io.Reader
}

// Generate returns exactly length characters drawn from [A-Za-z0-9].
func (g Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}
	src := g.Reader
	if src == nil {
		src = rand.Reader
	}

	var b strings.Builder
	b.Grow(length)
	for b.Len() < length {
		buf := make([]byte, length)
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRandomUnavailable, err)
		}
		b.WriteString(stripper.Replace(base64.StdEncoding.EncodeToString(buf)))
	}
	return b.String()[:length], nil
}

// Generate uses crypto/rand.
func Generate(length int) (string, error) {
	return Generator{}.Generate(length)
}
