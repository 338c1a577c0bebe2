package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedClockAdvances(t *testing.T) {
	c := NewFixedClock(1000, 10)
	assert.Equal(t, int64(1000), c.Now())
	assert.Equal(t, int64(1010), c.Now())
	assert.Equal(t, int64(1020), c.Now())

	c.Reset()
	assert.Equal(t, int64(1000), c.Now())
}

func TestFixedClockConcurrent(t *testing.T) {
	c := NewFixedClock(0, 1)
	var wg sync.WaitGroup
	seen := make(chan int64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Now()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, 100, "every call must return a distinct timestamp")
}
