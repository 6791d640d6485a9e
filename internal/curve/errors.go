// internal/curve/errors.go
package curve

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientLiquidity is returned when a quote cannot be computed:
	// zero effective input or an input that would overflow the reserve domain.
	ErrInsufficientLiquidity = errors.New("curve: insufficient liquidity")

	// ErrSlippageExceeded is the sentinel for quotes below the caller's minimum.
	ErrSlippageExceeded = errors.New("curve: slippage exceeded")

	// ErrPoolFrozen is returned for trades against a pool frozen at graduation.
	ErrPoolFrozen = errors.New("curve: pool is frozen")

	// ErrPoolNotFound is returned by registry lookups for unknown pools.
	ErrPoolNotFound = errors.New("curve: pool not found")

	// ErrAlreadyExists is returned when a pool for the pair is already registered.
	// The registry never silently returns the existing pool: double
	// initialization is a caller bug and should surface immediately.
	ErrAlreadyExists = errors.New("curve: pool already exists")
)

// SlippageError reports a quote that fell short of the caller's minimum output.
type SlippageError struct {
	Quoted uint64
	MinOut uint64
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("slippage exceeded: quoted %d, minimum %d", e.Quoted, e.MinOut)
}

func (e *SlippageError) Unwrap() error {
	return ErrSlippageExceeded
}
