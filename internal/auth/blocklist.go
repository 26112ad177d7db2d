package auth

import (
	"sync"
	"time"
)

// Blocklist is the process-wide set of revoked token identifiers (jti).
// It is constructed once at startup and injected into the auth service and
// the auth middleware; every protected operation consults it before trusting
// a token's claims.
type Blocklist struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> declared token expiry
}

// NewBlocklist creates an empty blocklist
func NewBlocklist() *Blocklist {
	return &Blocklist{
		revoked: make(map[string]time.Time),
	}
}

// Add records a token id as revoked. Idempotent. The token's declared
// expiry is kept so the entry can be swept once the token would have died
// of old age anyway.
func (b *Blocklist) Add(jti string, expiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = expiresAt
}

// Contains reports whether a token id has been revoked
func (b *Blocklist) Contains(jti string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.revoked[jti]
	return ok
}

// Sweep removes entries for tokens that have expired on their own; signature
// validation already rejects them, so keeping the jti buys nothing. Returns
// the number of entries removed.
func (b *Blocklist) Sweep(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for jti, expiresAt := range b.revoked {
		if now.After(expiresAt) {
			delete(b.revoked, jti)
			removed++
		}
	}
	return removed
}

// Len returns the number of revoked entries currently held
func (b *Blocklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.revoked)
}
