package mcp

// Test Plan for ReloadMetrics:
// - Zero state before any reload
// - Successful reloads update the chunk count and clear the error
// - Failed reloads record the error and keep the previous chunk count
// - Snapshots are independent copies
// - Concurrent use is safe

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReloadMetrics_InitialState(t *testing.T) {
	t.Parallel()

	snap := NewReloadMetrics().GetMetrics()
	assert.Equal(t, MetricsSnapshot{}, snap)
	assert.True(t, snap.LastReloadTime.IsZero())
}

func TestReloadMetrics_SuccessThenFailure(t *testing.T) {
	t.Parallel()

	m := NewReloadMetrics()
	m.RecordReload(120*time.Millisecond, nil, 42)

	snap := m.GetMetrics()
	assert.Equal(t, int64(1), snap.TotalReloads)
	assert.Equal(t, int64(1), snap.SuccessfulReloads)
	assert.Equal(t, 42, snap.CurrentChunkCount)
	assert.Empty(t, snap.LastReloadError)
	assert.False(t, snap.LastReloadTime.IsZero())

	m.RecordReload(30*time.Millisecond, errors.New("catalog locked"), 0)

	snap = m.GetMetrics()
	assert.Equal(t, int64(2), snap.TotalReloads)
	assert.Equal(t, int64(1), snap.FailedReloads)
	assert.Equal(t, "catalog locked", snap.LastReloadError)
	assert.Equal(t, 30*time.Millisecond, snap.LastReloadDuration)
	assert.Equal(t, 42, snap.CurrentChunkCount, "old index stays in service")

	m.RecordReload(10*time.Millisecond, nil, 50)
	snap = m.GetMetrics()
	assert.Empty(t, snap.LastReloadError)
	assert.Equal(t, 50, snap.CurrentChunkCount)
}

func TestReloadMetrics_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	m := NewReloadMetrics()
	m.RecordReload(time.Millisecond, nil, 1)
	first := m.GetMetrics()

	m.RecordReload(time.Millisecond, nil, 2)
	assert.Equal(t, 1, first.CurrentChunkCount)
	assert.Equal(t, int64(1), first.TotalReloads)
}

func TestReloadMetrics_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	m := NewReloadMetrics()
	var wg sync.WaitGroup

	for i := 0; i < 40; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%4 == 0 {
				err = errors.New("simulated")
			}
			m.RecordReload(time.Duration(i)*time.Millisecond, err, i)
		}(i)
		go func() {
			defer wg.Done()
			_ = m.GetMetrics().TotalReloads
		}()
	}
	wg.Wait()

	snap := m.GetMetrics()
	assert.Equal(t, int64(40), snap.TotalReloads)
	assert.Equal(t, int64(30), snap.SuccessfulReloads)
	assert.Equal(t, int64(10), snap.FailedReloads)
}
