package weekfitter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	prefix := fmt.Sprintf("%s %s: http %d", e.Method, e.Path, e.StatusCode)
	if strings.TrimSpace(e.Body) == "" {
		return prefix
	}
	return prefix + ": " + truncate(e.Body, 220)
}

func IsStatus(err error, statusCode int) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == statusCode
}

func Is5xx(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode >= 500 && statusErr.StatusCode <= 599
}

// truncate keeps at most max runes of value.
func truncate(value string, max int) string {
	if max <= 0 || utf8.RuneCountInString(value) <= max {
		return value
	}
	count := 0
	for i := range value {
		if count == max {
			return value[:i] + "…"
		}
		count++
	}
	return value
}
