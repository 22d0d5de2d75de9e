package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/aaryaclothing/commerce-core/internal/catalog"
	"github.com/aaryaclothing/commerce-core/pkg/config"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

type priceReader interface {
	PriceAndStockHint(ctx context.Context, sku string) (*catalog.PriceQuote, error)
}

type redisStore interface {
	kvStore
	lockStore
}

// Service owns all cart reads and writes. Mutations for a single owner are
// serialized behind a per-owner lock so concurrent requests never lose lines.
type Service interface {
	GetCart(ctx context.Context, ownerID string) (*Cart, error)
	AddLine(ctx context.Context, ownerID, sku string, qty int) (*Cart, *StockWarning, error)
	UpdateLineQuantity(ctx context.Context, ownerID, sku string, qty int) (*Cart, error)
	RemoveLine(ctx context.Context, ownerID, sku string) (*Cart, error)
	ClearCart(ctx context.Context, ownerID string) error
	Snapshot(ctx context.Context, ownerID string) (*Cart, error)
}

type service struct {
	store   *store
	lock    *ownerLock
	catalog priceReader
	logg    *logger.Logger
}

// NewService wires the cart over Redis storage and the catalog's advisory
// price/stock surface.
func NewService(kv redisStore, catalog priceReader, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:   newStore(kv, cfg.CartTTL),
		lock:    newOwnerLock(kv, logg, cfg.CartLockTTL, cfg.CartLockRetry),
		catalog: catalog,
		logg:    logg,
	}, nil
}

func (s *service) GetCart(ctx context.Context, ownerID string) (*Cart, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	return s.store.fetch(ctx, ownerID)
}

// Snapshot returns the cart as checkout sees it. Same read path as GetCart,
// named separately so orchestration intent is visible at call sites.
func (s *service) Snapshot(ctx context.Context, ownerID string) (*Cart, error) {
	return s.GetCart(ctx, ownerID)
}

// AddLine merges the quantity into an existing line or appends a new one. The
// returned warning, when present, flags that current availability looks short
// of the requested quantity; the add still succeeds.
func (s *service) AddLine(ctx context.Context, ownerID, sku string, qty int) (*Cart, *StockWarning, error) {
	if ownerID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if sku == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if qty <= 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	quote, err := s.catalog.PriceAndStockHint(ctx, sku)
	if err != nil {
		return nil, nil, err
	}

	var (
		doc     *Cart
		warning *StockWarning
	)
	err = s.withOwnerLock(ctx, ownerID, func(ctx context.Context) error {
		current, err := s.store.fetch(ctx, ownerID)
		if err != nil {
			return err
		}

		requested := qty
		if idx := current.lineIndex(sku); idx >= 0 {
			current.Lines[idx].Qty += qty
			requested = current.Lines[idx].Qty
		} else {
			current.Lines = append(current.Lines, Line{
				SKU:       sku,
				Qty:       qty,
				UnitPrice: quote.UnitPrice,
				AddedAt:   time.Now().UTC(),
			})
		}
		if quote.StockHint < requested {
			warning = &StockWarning{
				SKU:       sku,
				Requested: requested,
				Available: quote.StockHint,
			}
		}

		if err := s.store.save(ctx, current); err != nil {
			return err
		}
		doc = current
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, warning, nil
}

// UpdateLineQuantity sets the line to an absolute quantity. Zero removes the
// line. A missing line is an error so callers can distinguish set from add.
func (s *service) UpdateLineQuantity(ctx context.Context, ownerID, sku string, qty int) (*Cart, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	var doc *Cart
	err := s.withOwnerLock(ctx, ownerID, func(ctx context.Context) error {
		current, err := s.store.fetch(ctx, ownerID)
		if err != nil {
			return err
		}
		idx := current.lineIndex(sku)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").
				WithDetails(map[string]any{"sku": sku})
		}
		if qty == 0 {
			current.Lines = append(current.Lines[:idx], current.Lines[idx+1:]...)
		} else {
			current.Lines[idx].Qty = qty
		}

		if err := s.store.save(ctx, current); err != nil {
			return err
		}
		doc = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// RemoveLine deletes the line if present. Removing an absent line is a no-op.
func (s *service) RemoveLine(ctx context.Context, ownerID, sku string) (*Cart, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}

	var doc *Cart
	err := s.withOwnerLock(ctx, ownerID, func(ctx context.Context) error {
		current, err := s.store.fetch(ctx, ownerID)
		if err != nil {
			return err
		}
		idx := current.lineIndex(sku)
		if idx < 0 {
			doc = current
			return nil
		}
		current.Lines = append(current.Lines[:idx], current.Lines[idx+1:]...)

		if err := s.store.save(ctx, current); err != nil {
			return err
		}
		doc = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ClearCart drops the whole document, typically after a successful checkout.
func (s *service) ClearCart(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	return s.withOwnerLock(ctx, ownerID, func(ctx context.Context) error {
		return s.store.delete(ctx, ownerID)
	})
}

func (s *service) withOwnerLock(ctx context.Context, ownerID string, fn func(ctx context.Context) error) error {
	token, err := s.lock.acquire(ctx, ownerID)
	if err != nil {
		return err
	}
	defer s.lock.release(ctx, ownerID, token)
	return fn(ctx)
}
