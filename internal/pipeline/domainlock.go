package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"
)

// domainLocks serializes event reconciliation per company domain, so the
// page set a behavior update is computed from is never older than one a
// concurrent event already wrote.
type domainLocks struct {
	mu    sync.Mutex
	locks map[string]*domainLock
}

type domainLock struct {
	sem  *semaphore.Weighted
	refs int
}

// acquire blocks until domain is free or ctx is done. The returned func
// releases it.
func (d *domainLocks) acquire(ctx context.Context, domain string) (func(), error) {
	d.mu.Lock()
	if d.locks == nil {
		d.locks = make(map[string]*domainLock)
	}
	l, ok := d.locks[domain]
	if !ok {
		l = &domainLock{sem: semaphore.NewWeighted(1)}
		d.locks[domain] = l
	}
	l.refs++
	d.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		d.forget(domain, l)
		return nil, eris.Wrapf(err, "pipeline: wait for %s", domain)
	}
	return func() {
		l.sem.Release(1)
		d.forget(domain, l)
	}, nil
}

func (d *domainLocks) forget(domain string, l *domainLock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(d.locks, domain)
	}
}

func (d *domainLocks) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}
