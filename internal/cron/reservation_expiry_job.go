package cron

import (
	"context"
	"fmt"

	"github.com/aaryaclothing/commerce-core/pkg/logger"
	"github.com/aaryaclothing/commerce-core/pkg/metrics"
)

type staleReservationReleaser interface {
	ExpireStale(ctx context.Context) (int, error)
}

// ReservationExpiryJobParams configure the expiry sweep.
type ReservationExpiryJobParams struct {
	Logger       *logger.Logger
	Reservations staleReservationReleaser
	Metrics      *metrics.SweepJobMetrics
}

// NewReservationExpiryJob builds the job that returns expired holds to
// available stock.
func NewReservationExpiryJob(params ReservationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reservations == nil {
		return nil, fmt.Errorf("reservation service required")
	}
	return &reservationExpiryJob{
		logg:         params.Logger,
		reservations: params.Reservations,
		metrics:      params.Metrics,
	}, nil
}

type reservationExpiryJob struct {
	logg         *logger.Logger
	reservations staleReservationReleaser
	metrics      *metrics.SweepJobMetrics
}

func (j *reservationExpiryJob) Name() string { return "reservation-expiry" }

func (j *reservationExpiryJob) Run(ctx context.Context) error {
	count, err := j.reservations.ExpireStale(ctx)
	if j.metrics != nil && count > 0 {
		j.metrics.AddReclaimed(count)
	}
	logCtx := j.logg.WithField(ctx, "count", count)
	if err != nil {
		return fmt.Errorf("expire stale reservations (reclaimed %d): %w", count, err)
	}
	j.logg.Info(logCtx, "reservation expiry sweep complete")
	return nil
}
