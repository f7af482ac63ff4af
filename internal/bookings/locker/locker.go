package locker

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "milovat/internal/bookings/errors"
	"milovat/internal/bookings/repository"
	"milovat/pkg/logger"

	"github.com/google/uuid"
)

const (
	initialBackoff = 10 * time.Millisecond
	maxBackoff     = 200 * time.Millisecond
)

// Locker serialises writers on the same facility. The returned unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, facility string) (unlock func(), err error)
}

type entry struct {
	sem  chan struct{}
	refs int
}

// MemoryLocker is a keyed mutex valid inside one process.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		entries: make(map[string]*entry),
	}
}

func (l *MemoryLocker) Lock(ctx context.Context, facility string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[facility]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[facility] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(facility, e, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(facility, e, true) })
	}, nil
}

func (l *MemoryLocker) release(facility string, e *entry, held bool) {
	if held {
		<-e.sem
	}
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, facility)
	}
	l.mu.Unlock()
}

// StoreLocker adds a lock document in the store on top of the in-process mutex so that
// several API instances sharing one database exclude each other.
type StoreLocker struct {
	local *MemoryLocker
	repo  repository.BookingLockRepository
	ttl   time.Duration
	wait  time.Duration
	log   *logger.Logger
}

func NewStoreLocker(repo repository.BookingLockRepository, ttl, wait time.Duration, log *logger.Logger) *StoreLocker {
	return &StoreLocker{
		local: NewMemoryLocker(),
		repo:  repo,
		ttl:   ttl,
		wait:  wait,
		log:   log,
	}
}

func (l *StoreLocker) Lock(ctx context.Context, facility string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	unlockLocal, err := l.local.Lock(waitCtx, facility)
	if err != nil {
		return nil, l.waitError(ctx, err)
	}

	owner := uuid.NewString()
	if err := l.acquire(waitCtx, facility, owner); err != nil {
		unlockLocal()
		return nil, l.waitError(ctx, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(facility, owner, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// release must survive a request context that is already cancelled
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.wait)
			defer cancel()
			if err := l.repo.Release(releaseCtx, facility, owner); err != nil {
				l.log.Warn("Failed to release booking lock", "facility", facility, "owner", owner, "error", err)
			}
			unlockLocal()
		})
	}, nil
}

func (l *StoreLocker) acquire(ctx context.Context, facility, owner string) error {
	backoff := initialBackoff
	for {
		err := l.repo.Acquire(ctx, facility, owner, l.ttl)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return err
		}

		reclaimed, rerr := l.repo.ReclaimExpired(ctx, facility, time.Now().UTC())
		if rerr != nil {
			l.log.Warn("Failed to reclaim expired booking lock", "facility", facility, "error", rerr)
		}
		if reclaimed {
			l.log.Warn("Reclaimed expired booking lock", "facility", facility)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// keepAlive pushes the lock expiry forward every third of the TTL until stop is closed, so a
// holder slower than the TTL is never reclaimed by another instance.
func (l *StoreLocker) keepAlive(facility, owner string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			held, err := l.repo.Refresh(context.Background(), facility, owner, l.ttl)
			if err != nil {
				l.log.Warn("Failed to refresh booking lock", "facility", facility, "owner", owner, "error", err)
				continue
			}
			if !held {
				l.log.Error("Booking lock lost while held", "facility", facility, "owner", owner)
				return
			}
		}
	}
}

// waitError reports ErrFacilityBusy when the wait budget ran out but the caller is still live.
func (l *StoreLocker) waitError(parent context.Context, err error) error {
	if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return bookingserrors.ErrFacilityBusy
	}
	return err
}
