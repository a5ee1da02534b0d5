package local

import (
	"context"
	"sync"
	"sync/atomic"

	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
	"golang.org/x/sync/semaphore"
)

// lockRegistry hands out one lock per validator public key. Locks are created
// on first use and kept for the life of the registry.
type lockRegistry struct {
	locks sync.Map // [48]byte -> *validatorLock
	count atomic.Int64
}

// validatorLock is a mutex whose waiters are served in arrival order.
type validatorLock struct {
	sem     *semaphore.Weighted
	held    atomic.Bool
	waiting atomic.Int32
}

// lockHandle releases a held validator lock. Unlock may be called more than once.
type lockHandle struct {
	lock *validatorLock
	once sync.Once
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{}
}

func (r *lockRegistry) lockFor(pubKey [fieldparams.BLSPubkeyLength]byte) *validatorLock {
	if l, ok := r.locks.Load(pubKey); ok {
		return l.(*validatorLock)
	}
	l, loaded := r.locks.LoadOrStore(pubKey, &validatorLock{sem: semaphore.NewWeighted(1)})
	if !loaded {
		r.count.Add(1)
	}
	return l.(*validatorLock)
}

// acquire blocks until the validator's lock is held or ctx is done.
func (r *lockRegistry) acquire(ctx context.Context, pubKey [fieldparams.BLSPubkeyLength]byte) (*lockHandle, error) {
	l := r.lockFor(pubKey)
	l.waiting.Add(1)
	err := l.sem.Acquire(ctx, 1)
	l.waiting.Add(-1)
	if err != nil {
		return nil, err
	}
	l.held.Store(true)
	return &lockHandle{lock: l}, nil
}

// locked reports whether the validator's lock is currently held.
func (r *lockRegistry) locked(pubKey [fieldparams.BLSPubkeyLength]byte) bool {
	l, ok := r.locks.Load(pubKey)
	return ok && l.(*validatorLock).held.Load()
}

// hasQueuedWaiters reports whether a caller is blocked on the validator's lock.
func (r *lockRegistry) hasQueuedWaiters(pubKey [fieldparams.BLSPubkeyLength]byte) bool {
	l, ok := r.locks.Load(pubKey)
	return ok && l.(*validatorLock).waiting.Load() > 0
}

// len is the number of validators a lock was ever created for.
func (r *lockRegistry) len() int {
	return int(r.count.Load())
}

// Unlock releases the lock and wakes the next waiter.
func (h *lockHandle) Unlock() {
	h.once.Do(func() {
		h.lock.held.Store(false)
		h.lock.sem.Release(1)
	})
}
