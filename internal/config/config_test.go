package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		FlatFee:              1_000,
		MinDeposit:           100,
		TradeFeeBps:          100,
		GraduationThreshold:  42_000,
		MaxTradeFractionBps:  5_000,
		TokenSupply:          1_000_000_000,
		VirtualTokenReserves: 1_000_000_000,
		VirtualAssetReserves: 1_000,
		FeeRecipient:         "treasury",
		ReserveAsset:         "VIRT",
		EventBufferLen:       64,
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fee_recipient: treasury
graduation_threshold: 50000
trade_fee_bps: 25
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "treasury", cfg.FeeRecipient)
	assert.Equal(t, uint64(50_000), cfg.GraduationThreshold)
	assert.Equal(t, uint64(25), cfg.TradeFeeBps)
	// Defaults fill the rest.
	assert.Equal(t, uint64(DefaultFlatFee), cfg.FlatFee)
	assert.Equal(t, uint64(DefaultTokenSupply), cfg.TokenSupply)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validConfig()))

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing fee recipient", func(c *Config) { c.FeeRecipient = "" }},
		{"missing reserve asset", func(c *Config) { c.ReserveAsset = "" }},
		{"zero threshold", func(c *Config) { c.GraduationThreshold = 0 }},
		{"zero supply", func(c *Config) { c.TokenSupply = 0 }},
		{"zero virtual reserves", func(c *Config) { c.VirtualAssetReserves = 0 }},
		{"virtual tokens above supply", func(c *Config) { c.VirtualTokenReserves = c.TokenSupply + 1 }},
		{"fee out of range", func(c *Config) { c.TradeFeeBps = 10_000 }},
		{"fraction out of range", func(c *Config) { c.MaxTradeFractionBps = 10_001 }},
		{"threshold below seed", func(c *Config) { c.GraduationThreshold = c.VirtualAssetReserves }},
		{"bad buffer", func(c *Config) { c.EventBufferLen = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
