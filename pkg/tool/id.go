package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// MaskID keeps the first n characters of an identifier and hides the rest.
func MaskID(id string, n int) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if len(id) <= n {
		return strings.Repeat("*", len(id))
	}
	return id[:n] + "..."
}

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
