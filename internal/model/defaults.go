package model

import "time"

// Shared defaults used by the service, sender and TUI binaries.
const (
	DefaultBufferCapacity = 1000
	DefaultListenAddr     = "0.0.0.0:5000"
	DefaultTargetURL      = "http://server:5000/api/packages"
	DefaultServiceURL     = "http://localhost:5000"
	DefaultSourcePath     = "traffic_data.csv"
	DefaultMaxBodyBytes   = 1 << 20
	DefaultMaxFieldBytes  = 64 << 10
	DefaultUpdateInterval = 1 * time.Second
	DefaultPointLifetime  = 10 * time.Second
)

// PackagesPath is the single resource path shared by Accept and List.
const PackagesPath = "/api/packages"
