package enums

import "fmt"

// ClaimState tracks a single-SKU stock claim inside the inventory ledger.
type ClaimState string

const (
	ClaimStateHeld      ClaimState = "held"
	ClaimStateCommitted ClaimState = "committed"
	ClaimStateReleased  ClaimState = "released"
)

var validClaimStates = []ClaimState{
	ClaimStateHeld,
	ClaimStateCommitted,
	ClaimStateReleased,
}

// String implements fmt.Stringer.
func (c ClaimState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClaimState.
func (c ClaimState) IsValid() bool {
	for _, candidate := range validClaimStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClaimState converts raw input into a ClaimState.
func ParseClaimState(value string) (ClaimState, error) {
	for _, candidate := range validClaimStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid claim state %q", value)
}
