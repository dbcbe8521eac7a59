/*
Package pow guards account registration with a hashcash-style proof of work.

A client fetches a nonce, searches for a counter such that
sha256(nonce + counter) in hex starts with `difficulty` zeros, and exchanges the
pair for a short-lived, single-use proof token sent with the registration.
*/
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/resp"
)

const (
	// TokenHeaderKey is the header carrying the proof token.
	TokenHeaderKey = "X-PoW-Token"

	// ProofTokenDuration is how long a proof token stays redeemable.
	ProofTokenDuration = 30 * time.Second

	// NonceExpiryDuration is how long a challenge nonce stays solvable.
	NonceExpiryDuration = 5 * time.Minute
)

var (
	errNonceInvalid  = errors.New("nonce expired or invalid")
	errProofTooWeak  = errors.New("proof does not meet difficulty requirement")
	errNonceConsumed = errors.New("nonce consumed by concurrent request")
)

// Guard issues challenges and redeems proof tokens. It is safe for concurrent use.
type Guard struct {
	difficulty int

	mu     sync.Mutex
	nonces map[string]time.Time
	tokens map[string]time.Time

	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewGuard creates a Guard. A difficulty of 0 disables the check entirely.
func NewGuard(difficulty int) *Guard {
	g := &Guard{
		difficulty: difficulty,
		nonces:     make(map[string]time.Time),
		tokens:     make(map[string]time.Time),
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go g.cleanupLoop()

	return g
}

// Enabled reports whether registrations need a proof token.
func (g *Guard) Enabled() bool {
	return g.difficulty > 0
}

// Difficulty returns the number of leading hex zeros required.
func (g *Guard) Difficulty() int {
	return g.difficulty
}

// Challenge stores and returns a fresh nonce.
func (g *Guard) Challenge() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	nonce := uuid.New().String()
	g.nonces[nonce] = g.now().Add(NonceExpiryDuration)
	return nonce
}

// Verify checks the solution for nonce and returns a proof token.
// Each nonce can be redeemed once.
func (g *Guard) Verify(nonce, counter string) (string, error) {
	if !Solves(nonce, counter, g.difficulty) {
		return "", errProofTooWeak
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.nonces[nonce]
	if !ok {
		return "", errNonceConsumed
	}
	delete(g.nonces, nonce)

	if g.now().After(expiry) {
		return "", errNonceInvalid
	}

	token := uuid.New().String()
	g.tokens[token] = g.now().Add(ProofTokenDuration)
	return token, nil
}

// Redeem consumes token, reporting whether it was valid.
func (g *Guard) Redeem(token string) bool {
	if token == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.tokens[token]
	if !ok {
		return false
	}
	delete(g.tokens, token)

	return !g.now().After(expiry)
}

// Middleware requires a valid proof token on the wrapped handler when the
// guard is enabled.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Enabled() && !g.Redeem(r.Header.Get(TokenHeaderKey)) {
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stop ends the cleanup goroutine.
func (g *Guard) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// Solves reports whether sha256(nonce+counter) has difficulty leading hex zeros.
func Solves(nonce, counter string, difficulty int) bool {
	hash := sha256.Sum256([]byte(nonce + counter))
	return strings.HasPrefix(hex.EncodeToString(hash[:]), strings.Repeat("0", difficulty))
}

func (g *Guard) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.purge()
		case <-g.stop:
			return
		}
	}
}

func (g *Guard) purge() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for nonce, expiry := range g.nonces {
		if now.After(expiry) {
			delete(g.nonces, nonce)
		}
	}
	for token, expiry := range g.tokens {
		if now.After(expiry) {
			delete(g.tokens, token)
		}
	}
}
