package main

import (
	"fmt"
	"net"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tinytelemetry/packetstream/internal/config"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	flags := pflag.NewFlagSet("packetstream", pflag.ExitOnError)
	flags.String(config.ConfigFlag, "", "config file (default is $HOME/.config/packetstream/config.yml)")
	flags.String("listen-addr", defaultListenAddr, "address the ingestion API listens on")
	flags.Int("buffer-capacity", defaultBufferCapacity, "number of packages retained for listing")
	flags.Int64("max-body-bytes", defaultMaxBodyBytes, "largest accepted request body")
	flags.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	showVersion := flags.Bool("version", false, "print version information")
	printConfig := flags.Bool("print-config", false, "print the effective config and exit")
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("Packetstream - Ingestion Service\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		if err := config.PrintYAML(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := config.ConfigureLogging(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := runServer(cfg); err != nil {
		log.WithError(err).Error("ingestion service failed")
		os.Exit(1)
	}
}

func loadConfig(flags *pflag.FlagSet) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetDefault("listen-addr", defaultListenAddr)
	v.SetDefault("buffer-capacity", defaultBufferCapacity)
	v.SetDefault("max-body-bytes", defaultMaxBodyBytes)
	v.SetDefault("log-level", defaultLogLevel)

	used, err := config.Load(v, flags, &cfg)
	if err != nil {
		return cfg, err
	}
	cfg.ConfigPath = used

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg appConfig) error {
	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return errors.Wrapf(err, "invalid listen-addr %q", cfg.ListenAddr)
	}
	if cfg.BufferCapacity <= 0 {
		return errors.Errorf("invalid buffer-capacity: %d", cfg.BufferCapacity)
	}
	if cfg.MaxBodyBytes <= 0 {
		return errors.Errorf("invalid max-body-bytes: %d", cfg.MaxBodyBytes)
	}
	return nil
}
