package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tinytelemetry/pulse/internal/control"
	"github.com/tinytelemetry/pulse/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var socketPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/pulse/config.yml)")
	flag.StringVar(&socketPath, "socket", "", "override socket path to connect to the pulse agent")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Pulse - Stream Dashboard\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if socketPath != "" {
		cfg.SocketPath = socketPath
	}

	if err := runDashboard(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDashboard(cfg cliConfig) error {
	client, err := control.Dial(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("cannot connect to the pulse agent at %s: %w\nIs the agent running? Start it with: pulse", cfg.SocketPath, err)
	}
	defer client.Close()

	return tui.Run(client, cfg.RefreshInterval)
}
