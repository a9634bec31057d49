// Sensor Admin - sensor type catalogue and inventory service.
//
// This is the main entry point for the sensoradmin binary. The serve command
// runs the HTTP API, MQTT config publication and SVID ingest; the config
// commands expose the configuration text codec for scripting.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// configEnvVar overrides the default configuration path.
const configEnvVar = "SENSORADMIN_CONFIG"

func main() {
	// Cancel on Ctrl+C and SIGTERM so serve can shut down gracefully.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree. A fresh tree per call keeps flag
// state out of tests.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sensoradmin",
		Short:         "Sensor type catalogue and inventory service",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newConfigCmd(),
		newHashPasswordCmd(),
	)
	return root
}

// getConfigPath returns the configuration file path.
// An explicit flag wins, then SENSORADMIN_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}
