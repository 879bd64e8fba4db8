package id

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULID_Format(t *testing.T) {
	u := ULID()
	assert.Len(t, u, Length)
	assert.True(t, IsValid(u), u)
}

func TestULID_TimeRoundTrip(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	g := &generator{now: func() time.Time { return now }}

	got, err := Time(g.next())
	require.NoError(t, err)
	assert.True(t, got.Equal(now), "got %v want %v", got, now)
}

func TestULID_MonotonicWithinMillisecond(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	g := &generator{now: func() time.Time { return now }}

	ids := make([]string, 500)
	for i := range ids {
		ids[i] = g.next()
	}
	assert.True(t, sort.StringsAreSorted(ids))
	for i := 1; i < len(ids); i++ {
		assert.NotEqual(t, ids[i-1], ids[i])
	}
}

func TestULID_ClockGoingBackwards(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_500)
	g := &generator{now: func() time.Time { return now }}
	first := g.next()

	now = now.Add(-time.Second)
	second := g.next()
	assert.Less(t, first, second)
}

func TestIncrement_Overflow(t *testing.T) {
	b := [10]byte{0: 0xFF, 1: 0xFF, 2: 0xFF, 3: 0xFF, 4: 0xFF, 5: 0xFF, 6: 0xFF, 7: 0xFF, 8: 0xFF, 9: 0xFF}
	assert.False(t, increment(&b))

	c := [10]byte{9: 0xFF}
	assert.True(t, increment(&c))
	assert.Equal(t, [10]byte{8: 1}, c)
}

func TestULID_Concurrent(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				u := ULID()
				mu.Lock()
				seen[u] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1600)
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"01ARZ3NDEKTSV4RRFFQ69G5FA", false},
		{"01ARZ3NDEKTSV4RRFFQ69G5FAI", false},
		{"01arz3ndektsv4rrffq69g5fav", false},
		{"81ARZ3NDEKTSV4RRFFQ69G5FAV", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValid(tt.in), tt.in)
	}
}

func TestTime_Invalid(t *testing.T) {
	_, err := Time("nope")
	assert.Error(t, err)
}
