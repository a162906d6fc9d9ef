package analyzer

import "errors"

var (
	ErrMissingImage  = errors.New("chart image is required")
	ErrInvalidMarket = errors.New("invalid market context")
)
