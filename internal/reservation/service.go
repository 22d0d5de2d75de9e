package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/pkg/config"
	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	"github.com/aaryaclothing/commerce-core/pkg/enums"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

const sweepBatchSize = 200

// stockLedger is the slice of the inventory surface this package consumes.
type stockLedger interface {
	TryReserve(ctx context.Context, sku string, qty int) (*models.StockClaim, error)
	Commit(ctx context.Context, claimID uuid.UUID) error
	Release(ctx context.Context, claimID uuid.UUID) error
}

// LineRequest asks for one SKU quantity to be held.
type LineRequest struct {
	SKU string
	Qty int
}

// Service turns cart snapshots into held stock and settles those holds when
// checkout resolves. Every path either holds all requested lines or none.
type Service interface {
	ReserveForCheckout(ctx context.Context, ownerID string, lines []LineRequest) (*models.Reservation, error)
	Commit(ctx context.Context, reservationID uuid.UUID) error
	Release(ctx context.Context, reservationID uuid.UUID) error
	AttachOrder(ctx context.Context, reservationID, orderID uuid.UUID) error
	Get(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	ExpireStale(ctx context.Context) (int, error)
}

type service struct {
	repo   Repository
	ledger stockLedger
	logg   *logger.Logger
	ttl    time.Duration
}

// NewService wires the reservation manager over the ledger and its repository.
func NewService(repo Repository, ledger stockLedger, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		ledger: ledger,
		logg:   logg,
		ttl:    cfg.ReservationTTL,
	}, nil
}

// ReserveForCheckout holds stock for every line or for none. Lines are
// processed in ascending SKU order so concurrent checkouts contending on
// overlapping SKUs fail fast instead of interleaving. On any shortfall all
// acquired holds are returned before the error is reported, and the error
// lists every SKU that came up short, not just the first.
func (s *service) ReserveForCheckout(ctx context.Context, ownerID string, lines []LineRequest) (*models.Reservation, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}

	ordered := make([]LineRequest, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SKU < ordered[j].SKU })
	for _, line := range ordered {
		if line.SKU == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
		}
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"sku": line.SKU})
		}
	}

	var (
		acquired []models.ReservationLine
		shortage []string
	)
	for _, line := range ordered {
		claim, err := s.holdLine(ctx, line)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
				shortage = append(shortage, line.SKU)
				continue
			}
			s.releaseClaims(ctx, acquired)
			return nil, err
		}
		acquired = append(acquired, models.ReservationLine{
			ID:      uuid.New(),
			SKU:     line.SKU,
			Qty:     line.Qty,
			ClaimID: claim.ID,
		})
	}

	if len(shortage) > 0 {
		s.releaseClaims(ctx, acquired)
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"skus": shortage})
	}

	reservation := &models.Reservation{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		State:     enums.ReservationStateHeld,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
		Lines:     acquired,
	}
	for i := range reservation.Lines {
		reservation.Lines[i].ReservationID = reservation.ID
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		s.releaseClaims(ctx, acquired)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
	}
	return reservation, nil
}

// holdLine tries the ledger once, and retries a single time after reclaiming
// expired holds that still pin the SKU. The sweep catches anything this
// opportunistic path misses.
func (s *service) holdLine(ctx context.Context, line LineRequest) (*models.StockClaim, error) {
	claim, err := s.ledger.TryReserve(ctx, line.SKU, line.Qty)
	if err == nil {
		return claim, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		return nil, err
	}

	reclaimed, reclaimErr := s.reclaimExpiredForSKU(ctx, line.SKU)
	if reclaimErr != nil {
		s.logg.Error(ctx, "reclaiming expired holds failed", reclaimErr)
		return nil, err
	}
	if reclaimed == 0 {
		return nil, err
	}
	return s.ledger.TryReserve(ctx, line.SKU, line.Qty)
}

func (s *service) reclaimExpiredForSKU(ctx context.Context, sku string) (int, error) {
	expired, err := s.repo.FindExpiredHeldBySKU(ctx, sku, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		return 0, err
	}
	var count int
	for _, stale := range expired {
		if err := s.releaseReservation(ctx, &stale); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *service) releaseClaims(ctx context.Context, lines []models.ReservationLine) {
	for _, line := range lines {
		if err := s.ledger.Release(ctx, line.ClaimID); err != nil {
			ctx := s.logg.WithSKU(ctx, line.SKU)
			s.logg.Error(ctx, "compensating release failed", err)
		}
	}
}

// Commit settles every claim of a held reservation permanently. Committing a
// committed reservation is a no-op; committing a released one fails so the
// caller learns the stock is gone.
func (s *service) Commit(ctx context.Context, reservationID uuid.UUID) error {
	return s.settle(ctx, reservationID, enums.ReservationStateCommitted)
}

// Release returns every held claim to available stock. Idempotent.
func (s *service) Release(ctx context.Context, reservationID uuid.UUID) error {
	return s.settle(ctx, reservationID, enums.ReservationStateReleased)
}

func (s *service) settle(ctx context.Context, reservationID uuid.UUID, target enums.ReservationState) error {
	if reservationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	reservation, err := s.Get(ctx, reservationID)
	if err != nil {
		return err
	}
	if reservation.State == target {
		return nil
	}
	if reservation.State != enums.ReservationStateHeld {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("reservation already %s", reservation.State)).
			WithDetails(map[string]any{
				"reservation_id": reservationID,
				"state":          reservation.State.String(),
			})
	}

	switch target {
	case enums.ReservationStateCommitted:
		return s.commitReservation(ctx, reservation)
	case enums.ReservationStateReleased:
		return s.releaseReservation(ctx, reservation)
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, "invalid reservation target state")
	}
}

// commitReservation settles claims before flipping the reservation row, so a
// crash mid-way leaves a held reservation whose claims are already committed;
// a retry then finishes the flip without double-deducting.
func (s *service) commitReservation(ctx context.Context, reservation *models.Reservation) error {
	for _, line := range reservation.Lines {
		if err := s.ledger.Commit(ctx, line.ClaimID); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation expired before commit").
					WithDetails(map[string]any{"reservation_id": reservation.ID, "sku": line.SKU})
			}
			return err
		}
	}
	if _, err := s.repo.TransitionState(ctx, reservation.ID, enums.ReservationStateHeld, enums.ReservationStateCommitted); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reservation committed")
	}
	return nil
}

func (s *service) releaseReservation(ctx context.Context, reservation *models.Reservation) error {
	var errs error
	for _, line := range reservation.Lines {
		if err := s.ledger.Release(ctx, line.ClaimID); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				// Claim committed elsewhere; skip it and keep freeing the
				// rest, so a writer that died mid-commit cannot strand the
				// remaining held claims.
				continue
			}
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "release reservation claims")
	}
	if _, err := s.repo.TransitionState(ctx, reservation.ID, enums.ReservationStateHeld, enums.ReservationStateReleased); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reservation released")
	}
	return nil
}

// AttachOrder links the reservation to the order it backs.
func (s *service) AttachOrder(ctx context.Context, reservationID, orderID uuid.UUID) error {
	if reservationID == uuid.Nil || orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation and order ids are required")
	}
	if err := s.repo.AttachOrder(ctx, reservationID, orderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach order to reservation")
	}
	return nil
}

func (s *service) Get(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	return reservation, nil
}

// ExpireStale releases every held reservation whose deadline has passed and
// reports how many were reclaimed. Safe to run concurrently with checkouts;
// claim settlement resolves any race per claim.
func (s *service) ExpireStale(ctx context.Context) (int, error) {
	expired, err := s.repo.FindExpiredHeld(ctx, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find expired reservations")
	}

	var (
		count int
		errs  error
	)
	for _, stale := range expired {
		if err := s.releaseReservation(ctx, &stale); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		count++
	}
	return count, errs
}
