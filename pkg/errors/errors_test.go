package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeNotFound, http.StatusNotFound, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false},
		{CodeInsufficientStock, http.StatusConflict, true},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Fatalf("%s: expected retryable=%v", tc.code, tc.retryable)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("root")
	err := Wrap(CodeDependency, cause, "calling db")
	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("expected dependency code, got %s", err.Code())
	}
}

func TestAsFindsNestedError(t *testing.T) {
	inner := New(CodeInsufficientStock, "short").WithDetails(map[string]any{"skus": []string{"A"}})
	outer := Wrap(CodeDependency, inner, "outer")

	typed := As(outer)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	// As returns the outermost typed error.
	if typed.Code() != CodeDependency {
		t.Fatalf("expected outermost code, got %s", typed.Code())
	}
}

func TestIsCode(t *testing.T) {
	err := New(CodeInsufficientStock, "short")
	if !IsCode(err, CodeInsufficientStock) {
		t.Fatalf("expected match")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatalf("unexpected match")
	}
	if IsCode(nil, CodeNotFound) {
		t.Fatalf("nil must not match")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain error must not match")
	}
}

func TestDetailsRoundTrip(t *testing.T) {
	err := New(CodeValidation, "bad").WithDetails(map[string]string{"qty": "must be positive"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["qty"] != "must be positive" {
		t.Fatalf("details lost: %v", err.Details())
	}
}
