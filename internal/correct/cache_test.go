package correct

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixCacheReusesInstances(t *testing.T) {
	t.Parallel()

	cache := NewMatrixCache()
	f := mustParse(t, "C3H7O2")
	spec := TracerSpec{Element: "C", MaxLabel: 3}

	first, err := cache.Get(f, spec)
	require.NoError(t, err)
	second, err := cache.Get(f, spec)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	// The same molecule written in another element order hits the same key.
	reordered := mustParse(t, "H7O2C3")
	third, err := cache.Get(reordered, spec)
	require.NoError(t, err)
	assert.Same(t, first, third)
	assert.Equal(t, 1, cache.Len())

	// A different tracer is a different matrix.
	other, err := cache.Get(mustParse(t, "C5H9NO4"), TracerSpec{Element: "N", MaxLabel: 1})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, cache.Len())
}

func TestMatrixCacheBuildErrorsNotCached(t *testing.T) {
	t.Parallel()

	cache := NewMatrixCache()
	f := mustParse(t, "C3H7O2")

	_, err := cache.Get(f, TracerSpec{Element: "N", MaxLabel: 1})
	assert.True(t, errors.Is(err, ErrInvalidTracerSpec))
	assert.Equal(t, 0, cache.Len())
}

func TestMatrixCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	cache := NewMatrixCache()
	f := mustParse(t, "C6H12O6")
	spec := TracerSpec{Element: "C", MaxLabel: 6}

	const goroutines = 16
	results := make([]*Matrix, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := cache.Get(f, spec)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = m
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, cache.Len())
	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
}
