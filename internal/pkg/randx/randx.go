/*
Package randx generates identifiers: trade ids, chat message ids and session ids.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the alphabet used for session ids (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the Base62 alphabet.
	Base62Len = int64(len(Base62Chars))

	// SessionIDLength is the length of a generated session id.
	SessionIDLength = 24
)

// TradeID returns a random UUID v4 for a newly posted trade.
func TradeID() string {
	return uuid.New().String()
}

// MessageID returns a UUID v7, so ids of messages created later sort later.
func MessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// SessionID returns a Base62 string from crypto/rand.
func SessionID() (string, error) {
	result := make([]byte, SessionIDLength)

	for i := 0; i < SessionIDLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for session id: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}
