package session

import (
	"crypto/rand"
	"crypto/subtle"

	"github.com/pkg/errors"
)

// alphabet is base58, without the characters that look alike (0, O, I and l).
const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// SecureToken returns a random access token of the given length drawn from a base58 alphabet.
func SecureToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.Errorf("invalid token length: %d", length)
	}

	// Bytes above the largest multiple of the alphabet size are rejected to keep the draw uniform.
	limit := byte(256 - 256%len(alphabet))

	token := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(token) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "could not read random bytes")
		}

		for _, b := range buf {
			if b >= limit {
				continue
			}
			token = append(token, alphabet[int(b)%len(alphabet)])
			if len(token) == length {
				break
			}
		}
	}

	return string(token), nil
}

// SecureCompare reports whether both tokens are equal in constant time.
func SecureCompare(s1, s2 string) bool {
	return subtle.ConstantTimeCompare([]byte(s1), []byte(s2)) == 1
}
