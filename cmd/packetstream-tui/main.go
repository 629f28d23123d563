package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tinytelemetry/packetstream/internal/client"
	"github.com/tinytelemetry/packetstream/internal/config"
	"github.com/tinytelemetry/packetstream/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	flags := newFlagSet()
	showVersion := flags.Bool("version", false, "print version information")
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("Packetstream TUI - Traffic Monitor\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("packetstream-tui", pflag.ExitOnError)
	flags.String(config.ConfigFlag, "", "config file (default is $HOME/.config/packetstream/config.yml)")
	flags.String("service-url", defaultServiceURL, "base URL of the ingestion service")
	flags.Duration("update-interval", defaultUpdateInterval, "how often to poll the service")
	flags.Duration("point-lifetime", defaultPointLifetime, "how long a source address stays live")
	flags.Duration("request-timeout", defaultRequestTimeout, "timeout for a single poll")
	return flags
}

func loadCLIConfig(flags *pflag.FlagSet) (cliConfig, error) {
	var cfg cliConfig

	v := viper.New()
	v.SetDefault("service-url", defaultServiceURL)
	v.SetDefault("update-interval", defaultUpdateInterval)
	v.SetDefault("point-lifetime", defaultPointLifetime)
	v.SetDefault("request-timeout", defaultRequestTimeout)

	used, err := config.Load(v, flags, &cfg)
	if err != nil {
		return cfg, err
	}
	cfg.ConfigPath = used

	if cfg.ServiceURL == "" {
		return cfg, errors.New("service-url is empty")
	}
	if cfg.UpdateInterval <= 0 {
		return cfg, errors.Errorf("invalid update-interval: %v", cfg.UpdateInterval)
	}
	if cfg.PointLifetime <= 0 {
		return cfg, errors.Errorf("invalid point-lifetime: %v", cfg.PointLifetime)
	}
	return cfg, nil
}

func runTUI(cfg cliConfig) error {
	lister := client.New(cfg.ServiceURL, client.Options{Timeout: cfg.RequestTimeout})

	monitor := tui.NewMonitorModel(lister, tui.Config{
		UpdateInterval: cfg.UpdateInterval,
		PointLifetime:  cfg.PointLifetime,
		ServiceURL:     lister.URL(),
	})

	p := tea.NewProgram(monitor, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return errors.New("TUI requires a real terminal")
		}
		return errors.Wrap(err, "error running TUI")
	}
	return nil
}
