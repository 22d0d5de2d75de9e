package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	"github.com/aaryaclothing/commerce-core/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, reservation *models.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	TransitionState(ctx context.Context, id uuid.UUID, from, to enums.ReservationState) (bool, error)
	AttachOrder(ctx context.Context, id, orderID uuid.UUID) error
	FindExpiredHeld(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error)
	FindExpiredHeldBySKU(ctx context.Context, sku string, now time.Time, limit int) ([]models.Reservation, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&reservation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// TransitionState flips the reservation state only from the expected one.
// The row count tells the caller whether this writer won the transition.
func (r *repository) TransitionState(ctx context.Context, id uuid.UUID, from, to enums.ReservationState) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) AttachOrder(ctx context.Context, id, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("order_id", orderID).Error
}

func (r *repository) FindExpiredHeld(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("state = ? AND expires_at <= ?", enums.ReservationStateHeld, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *repository) FindExpiredHeldBySKU(ctx context.Context, sku string, now time.Time, limit int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Joins("JOIN reservation_lines ON reservation_lines.reservation_id = reservations.id").
		Where("reservation_lines.sku = ? AND reservations.state = ? AND reservations.expires_at <= ?",
			sku, enums.ReservationStateHeld, now).
		Order("reservations.expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}
