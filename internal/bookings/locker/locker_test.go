package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bookingserrors "milovat/internal/bookings/errors"
	"milovat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLockRepo struct {
	mu        sync.Mutex
	holders   map[string]string
	expires   map[string]time.Time
	acquires  int
	refreshes int
	reclaimed int
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{
		holders: map[string]string{},
		expires: map[string]time.Time{},
	}
}

func (f *fakeLockRepo) Acquire(_ context.Context, facility, owner string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if _, ok := f.holders[facility]; ok {
		return bookingserrors.ErrLockHeld
	}
	f.holders[facility] = owner
	f.expires[facility] = time.Now().Add(ttl)
	return nil
}

func (f *fakeLockRepo) Release(_ context.Context, facility, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holders[facility] == owner {
		delete(f.holders, facility)
		delete(f.expires, facility)
	}
	return nil
}

func (f *fakeLockRepo) Refresh(_ context.Context, facility, owner string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holders[facility] != owner {
		return false, nil
	}
	f.expires[facility] = time.Now().Add(ttl)
	f.refreshes++
	return true, nil
}

func (f *fakeLockRepo) ReclaimExpired(_ context.Context, facility string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if exp, ok := f.expires[facility]; ok && exp.Before(now) {
		delete(f.holders, facility)
		delete(f.expires, facility)
		f.reclaimed++
		return true, nil
	}
	return false, nil
}

func (f *fakeLockRepo) hold(facility, owner string, expires time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holders[facility] = owner
	f.expires[facility] = expires
}

func TestMemoryLocker_SerialisesSameFacility(t *testing.T) {
	l := NewMemoryLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "Pool")
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.entries)
}

func TestMemoryLocker_DifferentFacilitiesDoNotBlock(t *testing.T) {
	l := NewMemoryLocker()
	unlockPool, err := l.Lock(context.Background(), "Pool")
	require.NoError(t, err)
	defer unlockPool()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlockGym, err := l.Lock(ctx, "Gym")
	require.NoError(t, err)
	unlockGym()
}

func TestMemoryLocker_RespectsContext(t *testing.T) {
	l := NewMemoryLocker()
	unlock, err := l.Lock(context.Background(), "Pool")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "Pool")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Empty(t, l.entries)
}

func TestStoreLocker_AcquireAndRelease(t *testing.T) {
	repo := newFakeLockRepo()
	l := NewStoreLocker(repo, time.Second, 100*time.Millisecond, logger.Discard())

	unlock, err := l.Lock(context.Background(), "Pool")
	require.NoError(t, err)
	assert.Contains(t, repo.holders, "Pool")

	unlock()
	assert.NotContains(t, repo.holders, "Pool")
}

func TestStoreLocker_BusyWhenHeldElsewhere(t *testing.T) {
	repo := newFakeLockRepo()
	repo.hold("Pool", "other-instance", time.Now().Add(time.Minute))
	l := NewStoreLocker(repo, time.Second, 60*time.Millisecond, logger.Discard())

	_, err := l.Lock(context.Background(), "Pool")
	assert.ErrorIs(t, err, bookingserrors.ErrFacilityBusy)
	assert.Greater(t, repo.acquires, 1)
	assert.Equal(t, "other-instance", repo.holders["Pool"])
}

func TestStoreLocker_ReclaimsExpiredLock(t *testing.T) {
	repo := newFakeLockRepo()
	repo.hold("Pool", "crashed-instance", time.Now().Add(-time.Second))
	l := NewStoreLocker(repo, time.Second, 100*time.Millisecond, logger.Discard())

	unlock, err := l.Lock(context.Background(), "Pool")
	require.NoError(t, err)
	defer unlock()
	assert.Equal(t, 1, repo.reclaimed)
	assert.NotEqual(t, "crashed-instance", repo.holders["Pool"])
}

func TestStoreLocker_CancelledCallerIsNotBusy(t *testing.T) {
	repo := newFakeLockRepo()
	repo.hold("Pool", "other-instance", time.Now().Add(time.Minute))
	l := NewStoreLocker(repo, time.Second, time.Second, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Lock(ctx, "Pool")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreLocker_HolderOutlivingTTLKeepsLock(t *testing.T) {
	repo := newFakeLockRepo()
	ttl := 60 * time.Millisecond
	instanceA := NewStoreLocker(repo, ttl, 100*time.Millisecond, logger.Discard())
	instanceB := NewStoreLocker(repo, ttl, 100*time.Millisecond, logger.Discard())

	unlock, err := instanceA.Lock(context.Background(), "Pool")
	require.NoError(t, err)

	// A works for several TTLs; B must keep waiting instead of reclaiming
	time.Sleep(4 * ttl)
	_, err = instanceB.Lock(context.Background(), "Pool")
	assert.ErrorIs(t, err, bookingserrors.ErrFacilityBusy)

	repo.mu.Lock()
	assert.Zero(t, repo.reclaimed)
	assert.Positive(t, repo.refreshes)
	repo.mu.Unlock()

	unlock()
	unlockB, err := instanceB.Lock(context.Background(), "Pool")
	require.NoError(t, err)
	unlockB()
}

func TestStoreLocker_StopsRefreshingAfterUnlock(t *testing.T) {
	repo := newFakeLockRepo()
	l := NewStoreLocker(repo, 30*time.Millisecond, 100*time.Millisecond, logger.Discard())

	unlock, err := l.Lock(context.Background(), "Pool")
	require.NoError(t, err)
	unlock()

	repo.mu.Lock()
	before := repo.refreshes
	repo.mu.Unlock()
	time.Sleep(60 * time.Millisecond)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, before, repo.refreshes)
	assert.NotContains(t, repo.holders, "Pool")
}
