package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
)

const defaultListLimit = 50

// Service exposes order reads. Writes go through the checkout orchestrator,
// which owns the status state machine.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetForOwner(ctx context.Context, id uuid.UUID, ownerID string) (*models.Order, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Order, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// GetForOwner hides other owners' orders behind a not-found answer.
func (s *service) GetForOwner(ctx context.Context, id uuid.UUID, ownerID string) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Order, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	list, err := s.repo.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}
