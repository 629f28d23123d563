package main

import (
	"time"

	"github.com/tinytelemetry/packetstream/internal/model"
)

const (
	defaultTargetURL      = model.DefaultTargetURL
	defaultSourcePath     = model.DefaultSourcePath
	defaultRequestTimeout = time.Duration(0)
	defaultSpeed          = 1.0
	defaultMaxFieldBytes  = model.DefaultMaxFieldBytes
	defaultLogLevel       = "info"
)

// senderConfig is the replay emitter runtime configuration.
type senderConfig struct {
	SourcePath               string        `mapstructure:"source" yaml:"source"`
	TargetURL                string        `mapstructure:"target-url" yaml:"target-url"`
	RequestTimeout           time.Duration `mapstructure:"request-timeout" yaml:"request-timeout"`
	Speed                    float64       `mapstructure:"speed" yaml:"speed"`
	ContinueOnTransportError bool          `mapstructure:"continue-on-transport-error" yaml:"continue-on-transport-error"`
	MaxFieldBytes            int           `mapstructure:"max-field-bytes" yaml:"max-field-bytes"`
	MaxRecords               int           `mapstructure:"max-records" yaml:"max-records"`
	MetricsAddr              string        `mapstructure:"metrics-addr" yaml:"metrics-addr"`
	LogLevel                 string        `mapstructure:"log-level" yaml:"log-level"`
	ConfigPath               string        `mapstructure:"-" yaml:"-"`
}
