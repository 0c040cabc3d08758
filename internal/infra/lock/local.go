// Package lock provides the in-process Locker used when no Redis is configured.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/ports/adapter"
)

var _ adapter.Locker = (*Local)(nil)

type lease struct {
	token   string
	expires time.Time
}

// Local is a non-blocking lease lock for a single process. Expired leases are
// taken over so a crashed holder cannot wedge a session forever.
type Local struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

func NewLocal() *Local {
	return &Local{leases: make(map[string]lease), now: time.Now}
}

func (l *Local) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if cur, ok := l.leases[key]; ok && now.Before(cur.expires) {
		return "", domain.ErrLockBusy
	}
	token := uuid.NewString()
	l.leases[key] = lease{token: token, expires: now.Add(ttl)}
	return token, nil
}

func (l *Local) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.leases[key]; ok && cur.token == token {
		delete(l.leases, key)
	}
	return nil
}
