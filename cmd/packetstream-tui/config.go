package main

import (
	"time"

	"github.com/tinytelemetry/packetstream/internal/model"
)

const (
	defaultServiceURL     = model.DefaultServiceURL
	defaultUpdateInterval = model.DefaultUpdateInterval
	defaultPointLifetime  = model.DefaultPointLifetime
	defaultRequestTimeout = 5 * time.Second
)

// cliConfig is the monitor runtime configuration.
type cliConfig struct {
	ServiceURL     string        `mapstructure:"service-url" yaml:"service-url"`
	UpdateInterval time.Duration `mapstructure:"update-interval" yaml:"update-interval"`
	PointLifetime  time.Duration `mapstructure:"point-lifetime" yaml:"point-lifetime"`
	RequestTimeout time.Duration `mapstructure:"request-timeout" yaml:"request-timeout"`
	ConfigPath     string        `mapstructure:"-" yaml:"-"`
}
