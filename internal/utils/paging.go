package utils

import (
	"strconv"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageError names the query parameter that failed to parse.
type PageError struct {
	Field   string
	Message string
}

func (e *PageError) Error() string {
	return e.Field + " " + e.Message
}

// ParsePage reads limit/offset query values. Empty values take the defaults.
func ParsePage(limitRaw, offsetRaw string) (limit, offset int, err error) {
	limit = DefaultLimit

	if s := strings.TrimSpace(limitRaw); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 1 || n > MaxLimit {
			return 0, 0, &PageError{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(MaxLimit)}
		}
		limit = n
	}

	if s := strings.TrimSpace(offsetRaw); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 0 {
			return 0, 0, &PageError{Field: "offset", Message: "must be a non-negative integer"}
		}
		offset = n
	}

	return limit, offset, nil
}
