package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketRegistry_RefillIsLazy(t *testing.T) {
	reg := NewBucketRegistry(10, 1) // capacity 10, 1 token/sec
	defer reg.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Drain the full capacity.
	assert.True(t, reg.consumeAt("c", 10, now))
	assert.False(t, reg.consumeAt("c", 1, now))

	// After 5s exactly 5 tokens refilled: 5 succeed, a 6th does not.
	later := now.Add(5 * time.Second)
	assert.True(t, reg.consumeAt("c", 5, later))
	assert.False(t, reg.consumeAt("c", 1, later))
}

func TestBucketRegistry_RejectLeavesStateUnchanged(t *testing.T) {
	reg := NewBucketRegistry(5, 1)
	defer reg.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, reg.consumeAt("c", 3, now))
	// Asking for more than remains is rejected without draining.
	assert.False(t, reg.consumeAt("c", 3, now))
	assert.True(t, reg.consumeAt("c", 2, now))
}

func TestBucketRegistry_IndependentBuckets(t *testing.T) {
	reg := NewBucketRegistry(1, 1)
	defer reg.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, reg.consumeAt("a", 1, now))
	assert.True(t, reg.consumeAt("b", 1, now))
	assert.False(t, reg.consumeAt("a", 1, now))
}
