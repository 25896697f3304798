package domain

import (
	"strings"
	"time"
)

const DefaultNamePrefix = "Matériel "

// NameFunc derives the display name of a material from its scanned code.
type NameFunc func(code string) string

// PrefixNamer returns a NameFunc that prepends prefix to the code.
func PrefixNamer(prefix string) NameFunc {
	return func(code string) string {
		return prefix + code
	}
}

// DefaultName is the naming strategy used when none is configured.
var DefaultName = PrefixNamer(DefaultNamePrefix)

// Material is a single scanned item. Fields are set once at creation.
type Material struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	ScannedAt time.Time `json:"scanned_at"`
}

// ValidCode reports whether a decoded payload may become a material.
func ValidCode(code string) bool {
	return strings.TrimSpace(code) != ""
}
