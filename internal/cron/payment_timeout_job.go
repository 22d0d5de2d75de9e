package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/aaryaclothing/commerce-core/pkg/db/models"
	"github.com/aaryaclothing/commerce-core/pkg/enums"
	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

const paymentTimeoutBatch = 200

type pendingOrderReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type paymentSettler interface {
	OnPaymentResult(ctx context.Context, orderID uuid.UUID, outcome enums.PaymentOutcome) (*models.Order, error)
}

// PaymentTimeoutJobParams configure the stale payment sweep.
type PaymentTimeoutJobParams struct {
	Logger   *logger.Logger
	Orders   pendingOrderReader
	Checkout paymentSettler
	Timeout  time.Duration
}

// NewPaymentTimeoutJob builds the job that fails orders whose payment never
// resolved. It settles each one through the same path a provider callback
// takes, so a real callback racing the sweep is harmless.
func NewPaymentTimeoutJob(params PaymentTimeoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if params.Timeout <= 0 {
		return nil, fmt.Errorf("payment timeout must be positive")
	}
	return &paymentTimeoutJob{
		logg:     params.Logger,
		orders:   params.Orders,
		checkout: params.Checkout,
		timeout:  params.Timeout,
		now:      time.Now,
	}, nil
}

type paymentTimeoutJob struct {
	logg     *logger.Logger
	orders   pendingOrderReader
	checkout paymentSettler
	timeout  time.Duration
	now      func() time.Time
}

func (j *paymentTimeoutJob) Name() string { return "payment-timeout" }

func (j *paymentTimeoutJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.timeout)
	stale, err := j.orders.FindPendingBefore(ctx, cutoff, paymentTimeoutBatch)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var (
		count int
		errs  error
	)
	for _, order := range stale {
		if _, err := j.checkout.OnPaymentResult(ctx, order.ID, enums.PaymentOutcomeTimedOut); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("time out order %s: %w", order.ID, err))
			continue
		}
		count++
	}
	logCtx := j.logg.WithField(ctx, "count", count)
	j.logg.Info(logCtx, "payment timeout sweep complete")
	return errs
}
