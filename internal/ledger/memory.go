// internal/ledger/memory.go
package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

type allowanceKey struct {
	token   TokenID
	owner   Account
	spender Account
}

// Memory is an in-process Ledger used by tests and local runs. It enforces
// the same atomicity contract as a real ledger backend: every method either
// fully applies or returns an error with state untouched.
type Memory struct {
	mu         sync.Mutex
	balances   map[TokenID]map[Account]uint64
	supply     map[TokenID]uint64
	allowances map[allowanceKey]uint64
	logger     *zap.Logger
}

// NewMemory creates an empty in-memory ledger.
func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		balances:   make(map[TokenID]map[Account]uint64),
		supply:     make(map[TokenID]uint64),
		allowances: make(map[allowanceKey]uint64),
		logger:     logger.Named("ledger"),
	}
}

func (m *Memory) BalanceOf(_ context.Context, token TokenID, holder Account) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	holders, ok := m.balances[token]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return holders[holder], nil
}

func (m *Memory) Transfer(_ context.Context, token TokenID, from, to Account, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transferLocked(token, from, to, amount)
}

func (m *Memory) TransferFrom(_ context.Context, token TokenID, owner, spender, to Account, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := allowanceKey{token: token, owner: owner, spender: spender}
	allowed := m.allowances[key]
	if allowed < amount {
		return fmt.Errorf("%w: approved %d, requested %d", ErrInsufficientAllowance, allowed, amount)
	}

	if err := m.transferLocked(token, owner, to, amount); err != nil {
		return err
	}
	m.allowances[key] = allowed - amount
	return nil
}

func (m *Memory) Approve(_ context.Context, token TokenID, owner, spender Account, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.balances[token]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	m.allowances[allowanceKey{token: token, owner: owner, spender: spender}] = amount
	return nil
}

func (m *Memory) Allowance(_ context.Context, token TokenID, owner, spender Account) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allowances[allowanceKey{token: token, owner: owner, spender: spender}], nil
}

func (m *Memory) Mint(_ context.Context, token TokenID, holder Account, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount == 0 {
		return ErrZeroAmount
	}
	if m.supply[token] > math.MaxUint64-amount {
		return fmt.Errorf("ledger: supply overflow for %s", token)
	}

	holders, ok := m.balances[token]
	if !ok {
		holders = make(map[Account]uint64)
		m.balances[token] = holders
	}
	holders[holder] += amount
	m.supply[token] += amount

	m.logger.Debug("Minted tokens",
		zap.String("token", string(token)),
		zap.String("holder", string(holder)),
		zap.Uint64("amount", amount))
	return nil
}

func (m *Memory) Burn(_ context.Context, token TokenID, holder Account, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holders, ok := m.balances[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	if holders[holder] < amount {
		return fmt.Errorf("%w: have %d, burn %d", ErrInsufficientBalance, holders[holder], amount)
	}
	holders[holder] -= amount
	m.supply[token] -= amount
	return nil
}

func (m *Memory) TotalSupply(_ context.Context, token TokenID) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	supply, ok := m.supply[token]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return supply, nil
}

func (m *Memory) transferLocked(token TokenID, from, to Account, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	holders, ok := m.balances[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	if holders[from] < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, holders[from], amount)
	}
	holders[from] -= amount
	holders[to] += amount
	return nil
}
