package main

import (
	"time"
)

const (
	defaultBindHost       = "127.0.0.1"
	defaultAPIPort        = 3000
	defaultPullInterval   = time.Second
	defaultExportInterval = 10 * time.Second
	defaultOTLPEndpoint   = "127.0.0.1:4317"
	defaultServiceName    = "pulse"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	APIEnabled     bool          `mapstructure:"api-enabled"`
	APIPort        int           `mapstructure:"api-port"`
	APIAddr        string        `mapstructure:"api-addr"`
	SocketPath     string        `mapstructure:"socket-path"`
	PullInterval   time.Duration `mapstructure:"pull-interval"`
	ExportEnabled  bool          `mapstructure:"export-enabled"`
	ExportEndpoint string        `mapstructure:"export-endpoint"`
	ExportInterval time.Duration `mapstructure:"export-interval"`
	ServiceName    string        `mapstructure:"service-name"`
	Workload       bool          `mapstructure:"workload"`
	ConfigPath     string        `mapstructure:"-"` // not from config file
}
