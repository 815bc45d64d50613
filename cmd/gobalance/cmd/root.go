package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/gobalance/internal/config"
	"github.com/dbsmedya/gobalance/internal/logger"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile      string
	logLevel     string
	logFormat    string
	verifyMethod string
)

var rootCmd = &cobra.Command{
	Use:   "gobalance",
	Short: "Class-balanced dataset sampler & segmenter",
	Long: `A CLI tool for building class-balanced object-detection training sets.

Features:
  - Stratified sampling with per-class quotas and reproducible seeds
  - Per-class manifests from YOLO label directories
  - Per-class zip archives with count or SHA256 verification
  - Optional upload of archives to S3-compatible storage`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to configuration file (optional)")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Verification override
	rootCmd.PersistentFlags().StringVar(&verifyMethod, "verify", "",
		"Override archive verification (count, sha256, skip)")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel     string
	LogFormat    string
	VerifyMethod string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		VerifyMethod: verifyMethod,
	}
}

// loadConfig reads the config file, if any, and applies the global overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.VerifyMethod)
	return cfg, nil
}

// newRunLogger creates the logger for one command run, tagged with a fresh run id.
func newRunLogger(cfg *config.Config) (*logger.Logger, string, error) {
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize logger: %w", err)
	}
	runID := uuid.NewString()
	return log.WithRun(runID), runID, nil
}
