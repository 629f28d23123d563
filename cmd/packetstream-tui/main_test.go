package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCLIConfig(t *testing.T) {
	flags := newFlagSet()
	require.NoError(t, flags.Parse([]string{
		"--config", filepath.Join(t.TempDir(), "absent.yml"),
		"--service-url", "http://10.0.0.5:5000",
		"--update-interval", "250ms",
	}))

	cfg, err := loadCLIConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:5000", cfg.ServiceURL)
	assert.Equal(t, 250*time.Millisecond, cfg.UpdateInterval)
	assert.Equal(t, 10*time.Second, cfg.PointLifetime)
}

func TestLoadCLIConfigRejectsZeroInterval(t *testing.T) {
	flags := newFlagSet()
	require.NoError(t, flags.Parse([]string{
		"--config", filepath.Join(t.TempDir(), "absent.yml"),
		"--update-interval", "0s",
	}))

	_, err := loadCLIConfig(flags)
	assert.Error(t, err)
}
