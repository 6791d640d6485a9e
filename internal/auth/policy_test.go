package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPolicy_GrantAndCheck(t *testing.T) {
	policy := NewPolicy(zap.NewNop())

	executor := policy.Grant(RoleExecutor)
	require.NoError(t, policy.Check(executor, RoleExecutor))

	// A capability only covers the role it was granted for.
	assert.ErrorIs(t, policy.Check(executor, RolePoolAdmin), ErrUnauthorized)

	// A capability from a different policy instance is rejected.
	other := NewPolicy(zap.NewNop()).Grant(RoleExecutor)
	assert.ErrorIs(t, policy.Check(other, RoleExecutor), ErrUnauthorized)

	// Zero-value capabilities never pass.
	assert.ErrorIs(t, policy.Check(Capability{}, RoleExecutor), ErrUnauthorized)
}

func TestPolicy_Revoke(t *testing.T) {
	policy := NewPolicy(zap.NewNop())

	cap := policy.Grant(RoleConfigAdmin)
	require.NoError(t, policy.Check(cap, RoleConfigAdmin))

	policy.Revoke(cap)
	assert.ErrorIs(t, policy.Check(cap, RoleConfigAdmin), ErrUnauthorized)
}
