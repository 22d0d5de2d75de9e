package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/aaryaclothing/commerce-core/pkg/logger"
)

type stubReleaser struct {
	count int
	err   error
}

func (s *stubReleaser) ExpireStale(ctx context.Context) (int, error) {
	return s.count, s.err
}

func TestReservationExpiryJobRuns(t *testing.T) {
	job, err := NewReservationExpiryJob(ReservationExpiryJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		Reservations: &stubReleaser{count: 3},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "reservation-expiry" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestReservationExpiryJobPropagatesErrors(t *testing.T) {
	job, err := NewReservationExpiryJob(ReservationExpiryJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		Reservations: &stubReleaser{count: 1, err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReservationExpiryJobRequiresDeps(t *testing.T) {
	if _, err := NewReservationExpiryJob(ReservationExpiryJobParams{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}
