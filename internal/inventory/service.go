package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	"github.com/aaryaclothing/commerce-core/pkg/enums"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the single source of truth for per-SKU stock. Reserve, commit and
// release are safe under arbitrary concurrent callers.
type Service interface {
	GetAvailability(ctx context.Context, sku string) (int, error)
	TryReserve(ctx context.Context, sku string, qty int) (*models.StockClaim, error)
	Commit(ctx context.Context, claimID uuid.UUID) error
	Release(ctx context.Context, claimID uuid.UUID) error
	Restock(ctx context.Context, sku string, qty int) (*models.InventoryRecord, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the inventory ledger with its repository and tx runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetAvailability(ctx context.Context, sku string) (int, error) {
	if sku == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	record, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	return record.AvailableQty, nil
}

// TryReserve atomically checks and decrements available stock, returning a held
// claim on success. It never leaves a partial update behind.
func (s *service) TryReserve(ctx context.Context, sku string, qty int) (*models.StockClaim, error) {
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	claim := &models.StockClaim{
		ID:    uuid.New(),
		SKU:   sku,
		Qty:   qty,
		State: enums.ClaimStateHeld,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reserved, err := repo.ReserveStock(ctx, sku, qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if !reserved {
			if _, err := repo.FindBySKU(ctx, sku); errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "unknown sku").
					WithDetails(map[string]any{"sku": sku})
			}
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for sku").
				WithDetails(map[string]any{"skus": []string{sku}})
		}
		return repo.CreateClaim(ctx, claim)
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// Commit turns a held claim into a permanent sale. Committing twice has no
// additional effect.
func (s *service) Commit(ctx context.Context, claimID uuid.UUID) error {
	return s.settleClaim(ctx, claimID, enums.ClaimStateCommitted)
}

// Release returns a held claim's quantity to available stock. Releasing twice
// has no additional effect.
func (s *service) Release(ctx context.Context, claimID uuid.UUID) error {
	return s.settleClaim(ctx, claimID, enums.ClaimStateReleased)
}

func (s *service) settleClaim(ctx context.Context, claimID uuid.UUID, target enums.ClaimState) error {
	if claimID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "claim id is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		claim, err := repo.FindClaim(ctx, claimID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "claim not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load claim")
		}
		if claim.State == target {
			return nil
		}
		if claim.State != enums.ClaimStateHeld {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("claim already %s", claim.State)).
				WithDetails(map[string]any{"claim_id": claimID, "state": claim.State.String()})
		}

		flipped, err := repo.TransitionClaim(ctx, claimID, enums.ClaimStateHeld, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition claim")
		}
		if !flipped {
			// Lost a settle race; the other writer applied the inventory effect.
			return nil
		}

		var applied bool
		switch target {
		case enums.ClaimStateCommitted:
			applied, err = repo.DeductReserved(ctx, claim.SKU, claim.Qty)
		case enums.ClaimStateReleased:
			applied, err = repo.ReturnReserved(ctx, claim.SKU, claim.Qty)
		default:
			return pkgerrors.New(pkgerrors.CodeInternal, "invalid claim target state")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply claim settlement")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeInternal, "reserved quantity out of sync with claim").
				WithDetails(map[string]any{"sku": claim.SKU, "qty": claim.Qty})
		}
		return nil
	})
}

// Restock adds quantity to a SKU's available stock, creating the inventory
// record when the SKU is stocked for the first time.
func (s *service) Restock(ctx context.Context, sku string, qty int) (*models.InventoryRecord, error) {
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if err := s.repo.IncrementAvailable(ctx, sku, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock sku")
	}
	record, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	return record, nil
}
