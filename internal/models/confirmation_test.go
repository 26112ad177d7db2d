package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfirmation(t *testing.T) {
	conf, err := NewConfirmation(42, 30*time.Minute)

	assert.NoError(t, err)
	assert.Len(t, conf.ID, 32, "id should be 128 bits of hex")
	assert.Equal(t, int64(42), conf.UserID)
	assert.False(t, conf.Confirmed)
	assert.False(t, conf.IsExpired())
	assert.True(t, conf.IsPending())
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), conf.ExpiresAt, 2*time.Second)
}

func TestNewConfirmation_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		conf, err := NewConfirmation(1, time.Minute)
		assert.NoError(t, err)
		assert.False(t, seen[conf.ID], "confirmation ids must not repeat")
		seen[conf.ID] = true
	}
}

func TestConfirmation_IsExpired(t *testing.T) {
	conf := &Confirmation{ExpiresAt: time.Now().Add(-time.Second)}
	assert.True(t, conf.IsExpired())
	assert.False(t, conf.IsPending())

	conf.ExpiresAt = time.Now().Add(time.Minute)
	assert.False(t, conf.IsExpired())
	assert.True(t, conf.IsPending())
}

func TestConfirmation_ConfirmedIsNotPending(t *testing.T) {
	conf := &Confirmation{
		Confirmed: true,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	assert.False(t, conf.IsPending())
}
