package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tinytelemetry/pulse/internal/control"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var dumpConfig bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/pulse/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&dumpConfig, "dump-config", false, "print the effective configuration and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("Pulse - Stream Telemetry Agent\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if dumpConfig {
		if err := printEffectiveConfig(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error printing config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PULSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("socket-path", control.DefaultSocketPath())
	v.SetDefault("pull-interval", defaultPullInterval)
	v.SetDefault("export-enabled", false)
	v.SetDefault("export-endpoint", defaultOTLPEndpoint)
	v.SetDefault("export-interval", defaultExportInterval)
	v.SetDefault("service-name", defaultServiceName)
	v.SetDefault("workload", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "pulse", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.PullInterval <= 0 {
		return cfg, fmt.Errorf("invalid pull-interval: %v", cfg.PullInterval)
	}

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}

// printEffectiveConfig writes the post-defaults configuration as YAML, the
// same shape a config file would use.
func printEffectiveConfig(cfg appConfig) error {
	out := map[string]any{
		"api-enabled":     cfg.APIEnabled,
		"api-port":        cfg.APIPort,
		"api-addr":        cfg.APIAddr,
		"socket-path":     cfg.SocketPath,
		"pull-interval":   cfg.PullInterval.String(),
		"export-enabled":  cfg.ExportEnabled,
		"export-endpoint": cfg.ExportEndpoint,
		"export-interval": cfg.ExportInterval.String(),
		"service-name":    cfg.ServiceName,
		"workload":        cfg.Workload,
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
