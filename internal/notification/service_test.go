package notification

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryCursorFirstUpdateOnlySeeds(t *testing.T) {
	var c historyCursor

	_, ok := c.Advance(100)
	assert.False(t, ok)

	start, ok := c.Advance(110)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), start)
}

func TestHistoryCursorSkipsDuplicatesAndStaleUpdates(t *testing.T) {
	var c historyCursor
	c.Seed(100)

	_, ok := c.Advance(100)
	assert.False(t, ok)
	_, ok = c.Advance(90)
	assert.False(t, ok)

	start, ok := c.Advance(120)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), start)
}

func TestHistoryCursorBumpOnlyMovesForward(t *testing.T) {
	var c historyCursor
	c.Seed(100)

	c.Bump(150)
	_, ok := c.Advance(140)
	assert.False(t, ok)

	c.Bump(130)
	start, ok := c.Advance(160)
	assert.True(t, ok)
	assert.Equal(t, uint64(150), start)
}

func TestHistoryCursorConcurrentAdvanceClaimsEachRangeOnce(t *testing.T) {
	var c historyCursor
	c.Seed(100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	claimed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.Advance(200); ok {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Fifty duplicate deliveries of the same history ID process once.
	assert.Equal(t, 1, claimed)
}
