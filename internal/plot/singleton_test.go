package plot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReturnsOneInstanceUnderConcurrency(t *testing.T) {
	t.Setenv("BIOREMPP_USECASES__DIR", t.TempDir())
	resetDefault()
	t.Cleanup(resetDefault)

	const goroutines = 32
	services := make([]*Service, goroutines)
	errors := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			services[i], errors[i] = Default()
		}(i)
	}
	wg.Wait()

	require.NoError(t, errors[0])
	require.NotNil(t, services[0])
	for i := 1; i < goroutines; i++ {
		require.NoError(t, errors[i])
		assert.Same(t, services[0], services[i])
	}
}

func TestDefaultFailureLeavesSingletonUnset(t *testing.T) {
	t.Setenv("BIOREMPP_USECASES__DIR", t.TempDir())
	t.Setenv("BIOREMPP_CACHE__BACKEND", "bogus")
	resetDefault()
	t.Cleanup(resetDefault)

	_, err := Default()
	require.Error(t, err)

	// Fixing the settings lets the next call construct the service.
	t.Setenv("BIOREMPP_CACHE__BACKEND", "memory")
	svc, err := Default()
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestResetDefaultClosesService(t *testing.T) {
	t.Setenv("BIOREMPP_USECASES__DIR", t.TempDir())
	resetDefault()
	t.Cleanup(resetDefault)

	svc, err := Default()
	require.NoError(t, err)

	resetDefault()
	next, err := Default()
	require.NoError(t, err)
	assert.NotSame(t, svc, next)

	stats, err := next.CacheStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CurrentSize)
}
