package forecast

import "errors"

// Contract violations. Callers match them with errors.Is.
var (
	ErrInvalidHorizon    = errors.New("forecast horizon must be positive")
	ErrMissingProductID  = errors.New("product id is required")
	ErrMissingBusinessID = errors.New("business id is required")
	ErrInvalidSnapshot   = errors.New("invalid product snapshot")
)

// IsInvalidInput reports whether err is caused by a caller misusing the API.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidHorizon) ||
		errors.Is(err, ErrMissingProductID) ||
		errors.Is(err, ErrMissingBusinessID) ||
		errors.Is(err, ErrInvalidSnapshot)
}
