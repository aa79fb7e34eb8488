package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// RoomCodeAlphabet is upper-case base 36.
	RoomCodeAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DefaultRoomCodeLength = 6
)

// GenerateRoomCode returns a random code of the given length drawn uniformly
// from RoomCodeAlphabet.
func GenerateRoomCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultRoomCodeLength
	}

	alphabetLen := big.NewInt(int64(len(RoomCodeAlphabet)))

	var code strings.Builder
	code.Grow(length)

	for range length {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}

		code.WriteByte(RoomCodeAlphabet[n.Int64()])
	}

	return code.String(), nil
}

// NormalizeRoomCode makes client supplied codes case-insensitive.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func GenerateConnectionID() string {
	return uuid.NewString()
}
