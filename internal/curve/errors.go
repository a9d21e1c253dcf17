// internal/curve/errors.go
package curve

import "errors"

var (
	// ErrInsufficientSupply is returned when a buy would consume all or
	// more than all remaining virtual token reserves. Retrying with the
	// same inputs cannot succeed.
	ErrInsufficientSupply = errors.New("insufficient token supply in bonding curve")

	// ErrMathOverflow is returned when a reserve value leaves the uint64
	// range, e.g. a buy that drains the curve to a handful of tokens.
	ErrMathOverflow = errors.New("bonding curve math overflow")
)
