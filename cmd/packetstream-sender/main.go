package main

import (
	"fmt"
	"net/url"
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
	flags := newFlagSet()
	showVersion := flags.Bool("version", false, "print version information")
	printConfig := flags.Bool("print-config", false, "print the effective config and exit")
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("Packetstream Sender - Replay Emitter\n")
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

	if err := runSender(cfg); err != nil {
		if errors.Is(err, errInterrupted) {
			log.Info("replay interrupted")
			os.Exit(130)
		}
		log.WithError(err).Error("replay failed")
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("packetstream-sender", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: packetstream-sender [flags] [source.csv]\n\n")
		flags.PrintDefaults()
	}
	flags.String(config.ConfigFlag, "", "config file (default is $HOME/.config/packetstream/config.yml)")
	flags.String("target-url", defaultTargetURL, "packages endpoint of the ingestion service")
	flags.Duration("request-timeout", defaultRequestTimeout, "timeout for a single send (0 = none); a timed-out send is a transport error")
	flags.Float64("speed", defaultSpeed, "replay speed multiplier (2 replays twice as fast)")
	flags.Bool("continue-on-transport-error", false, "log and skip sends that get no response instead of aborting")
	flags.Int("max-field-bytes", defaultMaxFieldBytes, "largest accepted CSV field")
	flags.Int("max-records", 0, "stop with an error after this many rows (0 = unlimited)")
	flags.String("metrics-addr", "", "serve sender metrics on this address (disabled when empty)")
	flags.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	return flags
}

func loadConfig(flags *pflag.FlagSet) (senderConfig, error) {
	var cfg senderConfig

	v := viper.New()
	v.SetDefault("source", defaultSourcePath)
	v.SetDefault("target-url", defaultTargetURL)
	v.SetDefault("request-timeout", defaultRequestTimeout)
	v.SetDefault("speed", defaultSpeed)
	v.SetDefault("continue-on-transport-error", false)
	v.SetDefault("max-field-bytes", defaultMaxFieldBytes)
	v.SetDefault("max-records", 0)
	v.SetDefault("metrics-addr", "")
	v.SetDefault("log-level", defaultLogLevel)

	// The positional argument wins over every other source.
	if flags.NArg() > 0 {
		v.Set("source", flags.Arg(0))
	}

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

func validateConfig(cfg senderConfig) error {
	if cfg.SourcePath == "" {
		return errors.New("source path is empty")
	}
	u, err := url.Parse(cfg.TargetURL)
	if err != nil {
		return errors.Wrapf(err, "invalid target-url %q", cfg.TargetURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return errors.Errorf("invalid target-url %q: need http(s)://host[:port]", cfg.TargetURL)
	}
	if cfg.Speed <= 0 {
		return errors.Errorf("invalid speed: %v", cfg.Speed)
	}
	if cfg.RequestTimeout < 0 {
		return errors.Errorf("invalid request-timeout: %v", cfg.RequestTimeout)
	}
	if cfg.MaxFieldBytes < 0 || cfg.MaxRecords < 0 {
		return errors.New("max-field-bytes and max-records must not be negative")
	}
	return nil
}
