package cart

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
	pkgredis "github.com/aaryaclothing/commerce-core/pkg/redis"
)

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartLockKey(ownerID string) string
}

// ownerLock serializes writers for a single owner's cart. The lock value is
// a random token so only the goroutine that acquired the lock can release it.
type ownerLock struct {
	store lockStore
	logg  *logger.Logger
	ttl   time.Duration
	retry time.Duration
}

func newOwnerLock(store lockStore, logg *logger.Logger, ttl, retry time.Duration) *ownerLock {
	return &ownerLock{store: store, logg: logg, ttl: ttl, retry: retry}
}

// acquire blocks until the owner lock is taken or ctx is done. It returns the
// token needed to release.
func (l *ownerLock) acquire(ctx context.Context, ownerID string) (string, error) {
	key := l.store.CartLockKey(ownerID)
	token := uuid.NewString()

	for {
		ok, err := l.store.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire cart lock")
		}
		if ok {
			return token, nil
		}

		select {
		case <-ctx.Done():
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "wait for cart lock")
		case <-time.After(l.retry):
		}
	}
}

// release drops the lock only if we still hold it. A lock that expired and
// was re-acquired by another writer is left alone.
func (l *ownerLock) release(ctx context.Context, ownerID, token string) {
	key := l.store.CartLockKey(ownerID)

	current, err := l.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsMiss(err) {
			l.logg.Warn(ctx, "cart lock release check failed: "+err.Error())
		}
		return
	}
	if current != token {
		return
	}
	if err := l.store.Del(ctx, key); err != nil {
		l.logg.Warn(ctx, "cart lock release failed: "+err.Error())
	}
}
