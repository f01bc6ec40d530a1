package correct

import (
	"fmt"
	"sync"

	"github.com/isotrace-data/nacorrect/internal/formula"
)

// MatrixCache shares correction matrices across samples. Matrices are pure
// functions of the formula/tracer pair, so the first caller for a key builds
// and publishes the matrix and every later caller reads it. Safe for
// concurrent use.
type MatrixCache struct {
	mu       sync.RWMutex
	matrices map[string]*Matrix
}

// NewMatrixCache returns an empty cache.
func NewMatrixCache() *MatrixCache {
	return &MatrixCache{matrices: make(map[string]*Matrix)}
}

// Get returns the cached matrix for the formula/tracer pair, building it on
// first access.
func (c *MatrixCache) Get(f formula.Formula, spec TracerSpec) (*Matrix, error) {
	key := cacheKey(f, spec)

	c.mu.RLock()
	m, ok := c.matrices[key]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	built, err := BuildMatrix(f, spec)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have published while we were building; keep the
	// first published matrix so callers always share one instance.
	if m, ok := c.matrices[key]; ok {
		return m, nil
	}
	c.matrices[key] = built
	return built, nil
}

// Len reports the number of cached matrices.
func (c *MatrixCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.matrices)
}

func cacheKey(f formula.Formula, spec TracerSpec) string {
	return fmt.Sprintf("%s|%s|%d", f.Canonical(), spec.Element, spec.MaxLabel)
}
