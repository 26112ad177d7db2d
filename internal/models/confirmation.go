package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultConfirmationExpiry is how long a confirmation link stays valid.
const DefaultConfirmationExpiry = 30 * time.Minute

// Confirmation is the proof that a user's email address is reachable.
// Its ID is a random 128-bit hex string embedded in the emailed link.
type Confirmation struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// NewConfirmation creates an unconfirmed token for the given user,
// expiring after the given window.
func NewConfirmation(userID int64, expiry time.Duration) (*Confirmation, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, fmt.Errorf("failed to generate confirmation id: %w", err)
	}

	now := time.Now()
	return &Confirmation{
		ID:        hex.EncodeToString(idBytes),
		UserID:    userID,
		ExpiresAt: now.Add(expiry),
		Confirmed: false,
		CreatedAt: now,
	}, nil
}

// IsExpired reports whether the token's expiry instant has passed.
// Derived from the clock, never stored.
func (c *Confirmation) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsPending reports whether the token is still awaiting confirmation.
func (c *Confirmation) IsPending() bool {
	return !c.Confirmed && !c.IsExpired()
}
