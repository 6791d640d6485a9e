// internal/launch/errors.go
package launch

import (
	"errors"
)

var (
	// ErrValidation covers rejected input: empty name/symbol, zero amounts,
	// deposits below the minimum. Nothing is mutated before it is returned.
	ErrValidation = errors.New("launch: validation failed")

	// ErrNotInitialized is returned when no pool implementation or venue
	// adapter has been configured.
	ErrNotInitialized = errors.New("launch: engine not initialized")

	// ErrLaunchNotFound is returned for operations on unknown launches.
	ErrLaunchNotFound = errors.New("launch: not found")

	// ErrAlreadyGraduated is returned for curve trades on a graduated
	// launch. Clients should redirect to the external venue.
	ErrAlreadyGraduated = errors.New("launch: already graduated")

	// ErrNotGraduated is returned for redemptions before graduation.
	ErrNotGraduated = errors.New("launch: not graduated")

	// ErrTradingDisabled is returned while a launch is outside its trading
	// window, e.g. mid-graduation.
	ErrTradingDisabled = errors.New("launch: trading disabled")

	// ErrReentrantCall is returned when an operation on a launch is entered
	// while another one is still in flight. A half-applied reserve mutation
	// combined with a nested trade would break the curve invariant.
	ErrReentrantCall = errors.New("launch: reentrant or concurrent call rejected")
)
