package watch

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	batches := make(chan []string, 4)
	d := NewDebouncer(20*time.Millisecond, func(paths []string) {
		batches <- paths
	})

	d.Add("a.tsx")
	d.Add("b.tsx")
	d.Add("a.tsx")

	select {
	case batch := <-batches:
		sort.Strings(batch)
		assert.Equal(t, []string{"a.tsx", "b.tsx"}, batch)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}

	// No second delivery for the same burst.
	select {
	case batch := <-batches:
		t.Fatalf("unexpected second batch: %v", batch)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDebouncerFlushDeliversSynchronously(t *testing.T) {
	var got []string
	d := NewDebouncer(time.Hour, func(paths []string) {
		got = append(got, paths...)
	})

	d.Add("a.tsx")
	d.Flush()

	require.Equal(t, []string{"a.tsx"}, got)
}

func TestDebouncerFlushWithoutPending(t *testing.T) {
	d := NewDebouncer(time.Hour, func(paths []string) {
		t.Fatalf("unexpected delivery: %v", paths)
	})
	d.Flush()
}
