package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is shared by every binary: PACKETSTREAM_LISTEN_ADDR, ...
	EnvPrefix = "PACKETSTREAM"

	// ConfigFlag names the flag that points at a config file.
	ConfigFlag = "config"
)

// DefaultConfigPath returns $HOME/.config/packetstream/config.yml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "packetstream", "config.yml")
}

// Load fills out from defaults, the config file, .env, the environment and
// flags, in increasing order of precedence. A missing config file is not an
// error. It returns the config file actually used, if any.
func Load(v *viper.Viper, flags *pflag.FlagSet, out interface{}) (string, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load(".env")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return "", errors.Wrap(err, "bind flags")
		}
	}

	configPath := v.GetString(ConfigFlag)
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	used := ""
	if configPath != "" {
		v.SetConfigFile(configPath)
		err := v.ReadInConfig()
		switch {
		case err == nil:
			used = v.ConfigFileUsed()
		case !isNotFound(err):
			return "", errors.Wrapf(err, "read config %s", configPath)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return "", errors.Wrap(err, "decode config")
	}
	return used, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || os.IsNotExist(err)
}

// ConfigureLogging sets up the logrus standard logger.
func ConfigureLogging(level string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log-level %q", level)
	}
	log.SetLevel(lvl)
	return nil
}

// PrintYAML writes the effective config.
func PrintYAML(w io.Writer, cfg interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return enc.Close()
}
