package cart

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	pkgredis "github.com/aaryaclothing/commerce-core/pkg/redis"
)

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(ownerID string) string
}

// store persists cart documents as JSON blobs keyed by owner.
type store struct {
	kv  kvStore
	ttl time.Duration
}

func newStore(kv kvStore, ttl time.Duration) *store {
	return &store{kv: kv, ttl: ttl}
}

// fetch loads the owner's cart. A missing key yields an empty cart, not an
// error.
func (s *store) fetch(ctx context.Context, ownerID string) (*Cart, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(ownerID))
	if err != nil {
		if pkgredis.IsMiss(err) {
			return &Cart{OwnerID: ownerID, Lines: []Line{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var doc Cart
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart document")
	}
	if doc.OwnerID == "" {
		doc.OwnerID = ownerID
	}
	if doc.Lines == nil {
		doc.Lines = []Line{}
	}
	return &doc, nil
}

// save bumps the document version and rewrites the blob with a fresh TTL.
func (s *store) save(ctx context.Context, doc *Cart) error {
	doc.Version++
	doc.LastModifiedAt = time.Now().UTC()

	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart document")
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(doc.OwnerID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}

func (s *store) delete(ctx context.Context, ownerID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(ownerID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}
