// internal/auth/policy.go
package auth

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnauthorized is returned when a capability does not cover the required role.
var ErrUnauthorized = errors.New("unauthorized: capability check failed")

// Role names the privileged call paths in the system.
type Role string

const (
	// RolePoolAdmin may create pools in the registry.
	RolePoolAdmin Role = "pool-admin"
	// RoleExecutor may mutate pool reserves through the trading router.
	RoleExecutor Role = "executor"
	// RoleConfigAdmin may change protocol economics at runtime.
	RoleConfigAdmin Role = "config-admin"
)

// Capability is an unforgeable token granting one role. It is passed
// explicitly into each restricted operation instead of being inferred
// from the caller's type.
type Capability struct {
	id   string
	role Role
}

// Role returns the role this capability was granted for.
func (c Capability) Role() Role {
	return c.role
}

// Policy issues and verifies capabilities.
type Policy struct {
	mu      sync.RWMutex
	granted map[string]Role
	logger  *zap.Logger
}

// NewPolicy creates an empty policy.
func NewPolicy(logger *zap.Logger) *Policy {
	return &Policy{
		granted: make(map[string]Role),
		logger:  logger.Named("auth"),
	}
}

// Grant issues a new capability for the given role.
func (p *Policy) Grant(role Role) Capability {
	p.mu.Lock()
	defer p.mu.Unlock()

	cap := Capability{id: uuid.New().String(), role: role}
	p.granted[cap.id] = role

	p.logger.Debug("Capability granted", zap.String("role", string(role)))
	return cap
}

// Check verifies that cap was issued by this policy for the given role.
func (p *Policy) Check(cap Capability, role Role) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	got, ok := p.granted[cap.id]
	if !ok || got != role {
		p.logger.Warn("Capability check failed",
			zap.String("required_role", string(role)),
			zap.String("capability_role", string(cap.role)))
		return ErrUnauthorized
	}
	return nil
}

// Revoke invalidates a previously granted capability.
func (p *Policy) Revoke(cap Capability) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.granted, cap.id)
	p.logger.Debug("Capability revoked", zap.String("role", string(cap.role)))
}
