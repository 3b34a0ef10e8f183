package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir, which is unavailable before Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestInitializeConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 200, cfg.Ledger.PageSize)
	assert.Equal(t, 10000, cfg.Ledger.MaxRows)
	assert.Equal(t, 250, cfg.BankFeed.PageSize)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.Model)
	assert.InDelta(t, 0.95, cfg.Resolver.AutoApproveThreshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.Resolver.MinConfidence, 1e-9)
	assert.Equal(t, 15, cfg.Resolver.CategoryCacheMinutes)
	assert.Equal(t, "data", cfg.Data.Directory)
}

func TestInitializeConfigEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEDGERLENS_LOG_LEVEL", "debug")
	t.Setenv("LEDGER_API_TOKEN", "token-123")
	t.Setenv("GEMINI_API_KEY", "key-456")

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "token-123", cfg.Ledger.Token)
	assert.Equal(t, "key-456", cfg.AI.APIKey)
}

func TestInitializeConfigRejectsBadLogLevel(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEDGERLENS_LOG_LEVEL", "verbose")

	_, err := InitializeConfig()
	assert.Error(t, err)
}

func TestValidateConfigThresholdBounds(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		wantErr   bool
	}{
		{"zero allowed", 0, false},
		{"one allowed", 1, false},
		{"above one rejected", 1.2, true},
		{"negative rejected", -0.1, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Log.Level = "info"
			cfg.Log.Format = "text"
			cfg.Ledger.PageSize = 200
			cfg.Ledger.MaxRows = 10000
			cfg.BankFeed.PageSize = 250
			cfg.BankFeed.MaxRows = 10000
			cfg.Resolver.AutoApproveThreshold = tc.threshold
			cfg.Resolver.MinConfidence = 0.5

			err := validateConfig(cfg)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
