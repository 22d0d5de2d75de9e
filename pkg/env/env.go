// Package env reads the few ad-hoc environment variables that live outside
// the AARYA_-prefixed envconfig structs, such as the platform PORT override.
package env

import "os"

// Get returns the variable's value, or fallback when unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
