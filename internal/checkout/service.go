package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aaryaclothing/commerce-core/internal/cart"
	"github.com/aaryaclothing/commerce-core/internal/orders"
	"github.com/aaryaclothing/commerce-core/internal/payment"
	"github.com/aaryaclothing/commerce-core/internal/reservation"
	"github.com/aaryaclothing/commerce-core/pkg/config"
	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	"github.com/aaryaclothing/commerce-core/pkg/enums"
	pkgerrors "github.com/aaryaclothing/commerce-core/pkg/errors"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

type cartReader interface {
	Snapshot(ctx context.Context, ownerID string) (*cart.Cart, error)
	ClearCart(ctx context.Context, ownerID string) error
}

type reserver interface {
	ReserveForCheckout(ctx context.Context, ownerID string, lines []reservation.LineRequest) (*models.Reservation, error)
	Commit(ctx context.Context, reservationID uuid.UUID) error
	Release(ctx context.Context, reservationID uuid.UUID) error
	AttachOrder(ctx context.Context, reservationID, orderID uuid.UUID) error
}

// Service drives checkout end to end: snapshot the cart, hold stock, persist
// the order, start payment, and later settle on the provider's callback.
type Service interface {
	Checkout(ctx context.Context, ownerID string) (*models.Order, error)
	OnPaymentResult(ctx context.Context, orderID uuid.UUID, outcome enums.PaymentOutcome) (*models.Order, error)
}

type service struct {
	carts        cartReader
	reservations reserver
	orders       orders.Repository
	gateway      payment.Gateway
	logg         *logger.Logger
	currency     enums.Currency
}

// NewService wires the orchestrator. The default currency comes from config
// and must parse to a supported value.
func NewService(
	carts cartReader,
	reservations reserver,
	ordersRepo orders.Repository,
	gateway payment.Gateway,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if reservations == nil {
		return nil, fmt.Errorf("reservation service required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	currency, err := enums.ParseCurrency(cfg.DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("default currency: %w", err)
	}
	return &service{
		carts:        carts,
		reservations: reservations,
		orders:       ordersRepo,
		gateway:      gateway,
		logg:         logg,
		currency:     currency,
	}, nil
}

// Checkout converts the owner's cart into a pending-payment order. On a stock
// shortfall it records a failed order for audit, leaves the cart untouched so
// the owner can adjust it, and surfaces the shortfall to the caller.
func (s *service) Checkout(ctx context.Context, ownerID string) (*models.Order, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	ctx = s.logg.WithOwnerID(ctx, ownerID)

	snapshot, err := s.carts.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	requests := make([]reservation.LineRequest, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		requests = append(requests, reservation.LineRequest{SKU: line.SKU, Qty: line.Qty})
	}

	held, err := s.reservations.ReserveForCheckout(ctx, ownerID, requests)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			s.recordFailedAttempt(ctx, ownerID, snapshot, err)
		}
		return nil, err
	}

	order := s.buildOrder(ownerID, snapshot)
	order.ReservationID = &held.ID
	if err := s.orders.Create(ctx, order); err != nil {
		if relErr := s.reservations.Release(ctx, held.ID); relErr != nil {
			s.logg.Error(ctx, "releasing reservation after order create failure", relErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if err := s.reservations.AttachOrder(ctx, held.ID, order.ID); err != nil {
		s.logg.Error(ctx, "attaching order to reservation", err)
	}
	if err := s.carts.ClearCart(ctx, ownerID); err != nil {
		// The cart is advisory; a stale copy does not affect the held stock.
		s.logg.Error(ctx, "clearing cart after checkout", err)
	}
	if _, err := s.gateway.Initiate(ctx, payment.Request{
		OrderID:  order.ID,
		OwnerID:  ownerID,
		Amount:   order.Subtotal,
		Currency: order.Currency,
	}); err != nil {
		// The payment-timeout sweep settles orders whose initiation never
		// produced a callback.
		s.logg.Error(ctx, "initiating payment", err)
	}

	s.logg.Info(ctx, "checkout accepted")
	return order, nil
}

// OnPaymentResult settles a pending order from the provider's callback.
// Duplicate callbacks for an already-settled order return the order unchanged.
func (s *service) OnPaymentResult(ctx context.Context, orderID uuid.UUID, outcome enums.PaymentOutcome) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment outcome")
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		s.logg.Info(ctx, "duplicate payment callback ignored")
		return order, nil
	}

	switch outcome {
	case enums.PaymentOutcomeSucceeded:
		return s.settleSuccess(ctx, order)
	case enums.PaymentOutcomeCancelled:
		return s.settleFailure(ctx, order, enums.OrderStatusCancelled, "payment cancelled")
	case enums.PaymentOutcomeTimedOut:
		return s.settleFailure(ctx, order, enums.OrderStatusFailed, "payment timed out")
	default:
		return s.settleFailure(ctx, order, enums.OrderStatusFailed, "payment failed")
	}
}

// settleSuccess commits the reservation before confirming the order, so the
// confirmed status is only ever reached with stock permanently deducted.
func (s *service) settleSuccess(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ReservationID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pending order has no reservation")
	}
	if err := s.reservations.Commit(ctx, *order.ReservationID); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			// Stock was reclaimed before the payment landed.
			return s.settleFailure(ctx, order, enums.OrderStatusFailed, "reservation expired before payment")
		}
		return nil, err
	}
	return s.flipStatus(ctx, order, enums.OrderStatusConfirmed, nil)
}

func (s *service) settleFailure(ctx context.Context, order *models.Order, status enums.OrderStatus, reason string) (*models.Order, error) {
	if order.ReservationID != nil {
		if err := s.reservations.Release(ctx, *order.ReservationID); err != nil &&
			!pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			return nil, err
		}
	}
	return s.flipStatus(ctx, order, status, &reason)
}

func (s *service) flipStatus(ctx context.Context, order *models.Order, to enums.OrderStatus, reason *string) (*models.Order, error) {
	flipped, err := s.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusPendingPayment, to, reason)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !flipped {
		// A concurrent callback settled the order; report what it decided.
		return s.loadOrder(ctx, order.ID)
	}
	s.logg.Info(ctx, "order settled as "+to.String())
	return s.loadOrder(ctx, order.ID)
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) buildOrder(ownerID string, snapshot *cart.Cart) *models.Order {
	order := &models.Order{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Status:   enums.OrderStatusPendingPayment,
		Currency: s.currency,
		Subtotal: decimal.Zero,
	}
	for _, line := range snapshot.Lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty)))
		order.Lines = append(order.Lines, models.OrderLine{
			ID:        uuid.New(),
			OrderID:   order.ID,
			SKU:       line.SKU,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
			LineTotal: lineTotal,
		})
		order.Subtotal = order.Subtotal.Add(lineTotal)
	}
	return order
}

// recordFailedAttempt keeps an audit row for a checkout that could not hold
// stock. Best effort; the caller still gets the shortfall error.
func (s *service) recordFailedAttempt(ctx context.Context, ownerID string, snapshot *cart.Cart, cause error) {
	order := s.buildOrder(ownerID, snapshot)
	order.Status = enums.OrderStatusFailed
	reason := cause.Error()
	order.FailureReason = &reason
	if err := s.orders.Create(ctx, order); err != nil {
		s.logg.Error(ctx, "recording failed checkout attempt", err)
	}
}
