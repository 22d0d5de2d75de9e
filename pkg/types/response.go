// Package types holds the wire shapes shared by every commerce endpoint.
package types

// SuccessEnvelope wraps every 2xx payload, so carts, orders and reservations
// all arrive under the same "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Details carries structured extras
// such as the short SKU list on a failed reservation; it is omitted for codes
// whose metadata disallows detail exposure.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
