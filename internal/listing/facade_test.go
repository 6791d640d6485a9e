// internal/listing/facade_test.go
package listing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

type launcherStub struct {
	meta    launch.Meta
	deposit uint64
	called  bool
}

func (s *launcherStub) CreateLaunch(_ context.Context, _ ledger.Account, meta launch.Meta, deposit uint64) (*launch.CreateResult, error) {
	s.called = true
	s.meta = meta
	s.deposit = deposit
	return &launch.CreateResult{LaunchID: "launch-1", PoolID: "pool-1", TokensOut: 42}, nil
}

func TestFacade_Launch(t *testing.T) {
	stub := &launcherStub{}
	facade := New(stub, zap.NewNop())

	result, err := facade.Launch(context.Background(), "alice", Params{
		Name:        "  Virtual Dog ",
		Symbol:      " vdog ",
		Description: "a dog",
		SocialLinks: []string{"https://example.com", " https://x.com/vdog "},
		Tags:        []int{1, 3},
	}, 7_000)
	require.NoError(t, err)

	assert.Equal(t, "launch-1", result.LaunchID)
	assert.Equal(t, uint64(42), result.TokensOut)
	assert.True(t, stub.called)
	assert.Equal(t, "Virtual Dog", stub.meta.Name)
	assert.Equal(t, "VDOG", stub.meta.Symbol)
	assert.Equal(t, "https://x.com/vdog", stub.meta.SocialLinks[1])
	assert.Equal(t, uint64(7_000), stub.deposit)
}

func TestFacade_Launch_Validation(t *testing.T) {
	stub := &launcherStub{}
	facade := New(stub, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name   string
		params Params
	}{
		{"empty name", Params{Symbol: "VDOG"}},
		{"blank name", Params{Name: "   ", Symbol: "VDOG"}},
		{"empty symbol", Params{Name: "Virtual Dog"}},
		{"too many social links", Params{
			Name: "Virtual Dog", Symbol: "VDOG",
			SocialLinks: []string{"a", "b", "c", "d", "e"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := facade.Launch(ctx, "alice", tt.params, 7_000)
			assert.ErrorIs(t, err, launch.ErrValidation)
		})
	}
	assert.False(t, stub.called)
}
