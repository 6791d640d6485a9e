// internal/ledger/ledger.go
package ledger

import (
	"context"
	"errors"
)

// Account identifies a balance holder on the ledger.
type Account string

// TokenID identifies a fungible asset class.
type TokenID string

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrInsufficientAllowance is returned when TransferFrom exceeds the approved amount.
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")
	// ErrUnknownToken is returned for operations on a token that was never minted.
	ErrUnknownToken = errors.New("ledger: unknown token")
	// ErrZeroAmount is returned for zero-amount transfers and mints.
	ErrZeroAmount = errors.New("ledger: zero amount")
)

// Ledger is the external fungible-asset store the engine delegates custody to.
// All mutations are atomic: a failed call leaves no partial transfer behind.
type Ledger interface {
	BalanceOf(ctx context.Context, token TokenID, holder Account) (uint64, error)
	Transfer(ctx context.Context, token TokenID, from, to Account, amount uint64) error
	TransferFrom(ctx context.Context, token TokenID, owner, spender, to Account, amount uint64) error
	Approve(ctx context.Context, token TokenID, owner, spender Account, amount uint64) error
	Allowance(ctx context.Context, token TokenID, owner, spender Account) (uint64, error)

	// Mint creates the token class on first use and credits amount to holder.
	Mint(ctx context.Context, token TokenID, holder Account, amount uint64) error
	// Burn removes amount from holder's balance and from total supply.
	Burn(ctx context.Context, token TokenID, holder Account, amount uint64) error
	// TotalSupply reports the amount minted net of burns.
	TotalSupply(ctx context.Context, token TokenID) (uint64, error)
}
