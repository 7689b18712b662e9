package mockbackend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiter_PerUsername(t *testing.T) {
	l := newLoginLimiter(2)
	now := time.Now()
	l.nowFunc = func() time.Time { return now }

	assert.True(t, l.Allow("ada"))
	assert.True(t, l.Allow("ada"))
	assert.False(t, l.Allow("ada"))
	assert.True(t, l.Allow("bob"), "other usernames have their own bucket")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("ada"), "one token refills every 30s at 2/min")
}

func TestLoginLimiter_SweepsIdleEntries(t *testing.T) {
	l := newLoginLimiter(5)
	now := time.Now()
	l.nowFunc = func() time.Time { return now }

	l.Allow("ada")
	l.Allow("bob")
	assert.Equal(t, 2, l.len())

	now = now.Add(time.Hour)
	l.Allow("carol")
	assert.Equal(t, 1, l.len())
}
