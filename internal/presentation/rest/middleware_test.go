package rest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestClientRateLimiterEvictsIdleClients(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewClientRateLimiter(0.001, 1)
	l.now = clock.now

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Equal(t, 100, l.Len())

	clock.t = clock.t.Add(clientIdleTTL / 2)
	assert.False(t, l.Allow("10.0.0.1"), "bucket survives while active")

	clock.t = clock.t.Add(clientIdleTTL)
	assert.True(t, l.Allow("192.168.1.1"))
	assert.Equal(t, 1, l.Len(), "idle clients are swept")

	assert.True(t, l.Allow("10.0.0.1"), "evicted client starts with a fresh bucket")
	assert.Equal(t, 2, l.Len())
}

func TestClientRateLimiterKeepsRecentClients(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewClientRateLimiter(0.001, 1)
	l.now = clock.now

	assert.True(t, l.Allow("a"))
	clock.t = clock.t.Add(clientIdleTTL - time.Second)
	assert.True(t, l.Allow("b"))
	clock.t = clock.t.Add(2 * time.Second)
	assert.True(t, l.Allow("c"))

	assert.Equal(t, 2, l.Len())
	assert.False(t, l.Allow("b"))
}
