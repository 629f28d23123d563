package main

import (
	"time"

	"github.com/tinytelemetry/packetstream/internal/model"
)

const (
	defaultListenAddr     = model.DefaultListenAddr
	defaultBufferCapacity = model.DefaultBufferCapacity
	defaultMaxBodyBytes   = model.DefaultMaxBodyBytes
	defaultLogLevel       = "info"
	shutdownTimeout       = 10 * time.Second
)

// appConfig is the ingestion service runtime configuration.
type appConfig struct {
	ListenAddr     string `mapstructure:"listen-addr" yaml:"listen-addr"`
	BufferCapacity int    `mapstructure:"buffer-capacity" yaml:"buffer-capacity"`
	MaxBodyBytes   int64  `mapstructure:"max-body-bytes" yaml:"max-body-bytes"`
	LogLevel       string `mapstructure:"log-level" yaml:"log-level"`
	ConfigPath     string `mapstructure:"-" yaml:"-"` // not from config file
}
