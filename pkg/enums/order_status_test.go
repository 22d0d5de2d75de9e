package enums

import "testing"

func TestOrderStatusTerminality(t *testing.T) {
	if OrderStatusPendingPayment.IsTerminal() {
		t.Fatalf("pending payment must not be terminal")
	}
	for _, status := range []OrderStatus{OrderStatusConfirmed, OrderStatusCancelled, OrderStatusFailed} {
		if !status.IsTerminal() {
			t.Fatalf("%s must be terminal", status)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("confirmed")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if status != OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", status)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestParsePaymentOutcome(t *testing.T) {
	outcome, err := ParsePaymentOutcome("timed_out")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if outcome != PaymentOutcomeTimedOut {
		t.Fatalf("expected timed_out, got %s", outcome)
	}
	if _, err := ParsePaymentOutcome("expired"); err == nil {
		t.Fatalf("expected error for unknown outcome")
	}
}

func TestReservationStateValidity(t *testing.T) {
	for _, state := range []ReservationState{ReservationStateHeld, ReservationStateCommitted, ReservationStateReleased} {
		if !state.IsValid() {
			t.Fatalf("%s must be valid", state)
		}
	}
	if ReservationState("pending").IsValid() {
		t.Fatalf("unknown state must be invalid")
	}
}

func TestParseClaimState(t *testing.T) {
	state, err := ParseClaimState("committed")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if state != ClaimStateCommitted {
		t.Fatalf("expected committed, got %s", state)
	}
	if _, err := ParseClaimState("pending"); err == nil {
		t.Fatalf("expected error for unknown claim state")
	}
}
