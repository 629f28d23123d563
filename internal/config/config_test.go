package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	ListenAddr string        `mapstructure:"listen-addr" yaml:"listen-addr"`
	Capacity   int           `mapstructure:"capacity" yaml:"capacity"`
	Interval   time.Duration `mapstructure:"interval" yaml:"interval"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("listen-addr", "0.0.0.0:5000")
	v.SetDefault("capacity", 1000)
	v.SetDefault("interval", time.Second)
	return v
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(ConfigFlag, filepath.Join(t.TempDir(), "missing.yml"), "")

	var cfg testConfig
	used, err := Load(newViper(), flags, &cfg)
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, testConfig{ListenAddr: "0.0.0.0:5000", Capacity: 1000, Interval: time.Second}, cfg)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 50\ninterval: 3s\nlisten-addr: 127.0.0.1:1\n"), 0644))

	t.Setenv("PACKETSTREAM_CAPACITY", "75")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(ConfigFlag, "", "")
	flags.String("listen-addr", "", "")
	require.NoError(t, flags.Parse([]string{"--config", path, "--listen-addr", "127.0.0.1:9"}))

	var cfg testConfig
	used, err := Load(newViper(), flags, &cfg)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 75, cfg.Capacity)
	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.Equal(t, "127.0.0.1:9", cfg.ListenAddr)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: [unclosed\n"), 0644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(ConfigFlag, path, "")

	var cfg testConfig
	_, err := Load(newViper(), flags, &cfg)
	assert.Error(t, err)
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	require.NoError(t, ConfigureLogging("debug"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	require.NoError(t, ConfigureLogging(""))
	assert.Equal(t, log.InfoLevel, log.GetLevel())

	assert.Error(t, ConfigureLogging("chatty"))
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintYAML(&buf, testConfig{ListenAddr: "x", Capacity: 2}))
	assert.Contains(t, buf.String(), "listen-addr: x")
	assert.Contains(t, buf.String(), "capacity: 2")
}
