package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDataUnavailable     = errors.New("data unavailable")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrStorage             = errors.New("storage failure")
	ErrInsightNotFound     = errors.New("insight not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
