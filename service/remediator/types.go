package remediator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service"
)

type remediatorService struct {
	buckets  service.PublicAccessBlocker
	groups   service.SecurityGroupGateway
	notifier service.Notifier
	logger   *slog.Logger

	mutationTimeout time.Duration

	// handlers is the closed dispatch table. New actions are added here and
	// only here; anything outside the table is skipped, never guessed at.
	handlers map[model.Action]handlerFunc

	locks *resourceLocks
}

type handlerFunc func(ctx context.Context, resourceID string) (model.RemediationOutcome, error)

type RemediatorService interface {
	Remediate(ctx context.Context, task model.RemediationTask) model.RemediationOutcome
}

// resourceLocks serializes remediation per (resource, action). Two concurrent
// security-group edits race on the same rule set, so the second waits. Entries
// are reference counted and evicted once the last holder releases, keeping the
// map bounded in a long-lived process.
type resourceLocks struct {
	mu   sync.Mutex
	held map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newResourceLocks() *resourceLocks {
	return &resourceLocks{held: make(map[string]*lockEntry)}
}

func (l *resourceLocks) acquire(key string) {
	l.mu.Lock()
	e, ok := l.held[key]
	if !ok {
		e = &lockEntry{}
		l.held[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

func (l *resourceLocks) release(key string) {
	l.mu.Lock()
	e := l.held[key]
	e.refs--
	if e.refs == 0 {
		delete(l.held, key)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}
