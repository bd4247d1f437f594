package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hubert-project/hubert/config"
	"github.com/hubert-project/hubert/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "hubert",
	Short: "Hubert CLI - ARID-addressed, write-once rendezvous storage",
	Long: `Hubert is an unlinkable, ARID-addressed key/value rendezvous store.

This tool supports:
- ARID generation
- Publishing and retrieving envelope values across the DHT, IPFS, server,
  and hybrid backends
- Existence probes without fetching a value's body
- Running the loopback server backend`,
	PersistentPreRunE: loadAppConfig,
}

// configPath is the path passed to --config. When empty, the CLI runs on
// flag defaults alone and never touches the filesystem for configuration.
var configPath string

// appConfig holds the document loaded from --config, consulted by
// openBackend and runServer to seed backend/server construction
// (spec.md's ambient-configuration section). Flags the caller explicitly
// set always win over it.
var appConfig *config.Config

func loadAppConfig(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		return nil
	}
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("load --config: %w", err)
	}
	appConfig = cfg
	applyLoggingConfig(cfg)
	return nil
}

// applyLoggingConfig sets the package-level default logger's level and
// render mode from cfg's [logging] section.
func applyLoggingConfig(cfg *config.Config) {
	lc := cfg.Logging
	if lc == nil {
		return
	}
	log := logger.GetDefaultLogger()
	switch strings.ToUpper(lc.Level) {
	case "DEBUG":
		log.SetLevel(logger.DebugLevel)
	case "INFO":
		log.SetLevel(logger.InfoLevel)
	case "WARN":
		log.SetLevel(logger.WarnLevel)
	case "ERROR":
		log.SetLevel(logger.ErrorLevel)
	}
	log.SetPrettyPrint(strings.EqualFold(lc.Format, "pretty"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "server", "Backend to use: dht, ipfs, hybrid, server")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "http://127.0.0.1:45678", "Base URL for --backend server")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose progress logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file (see config package); explicit flags always override it")

	// Note: subcommands are registered in their respective files
	// - generate.go: generateCmd
	// - put.go: putCmd
	// - get.go: getCmd
	// - check.go: checkCmd
	// - server.go: serverCmd
}
