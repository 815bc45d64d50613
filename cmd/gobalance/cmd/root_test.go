package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigFile(t *testing.T) {
	// Save original value and restore after test
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{
			name:     "no config file",
			cfgValue: "",
			want:     "",
		},
		{
			name:     "custom config file",
			cfgValue: "/path/to/custom.yaml",
			want:     "/path/to/custom.yaml",
		},
		{
			name:     "config file with spaces",
			cfgValue: "/path/to/my config.yaml",
			want:     "/path/to/my config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			assert.Equal(t, tt.want, GetConfigFile())
		})
	}
}

func TestGetCLIOverrides(t *testing.T) {
	originalLogLevel := logLevel
	originalLogFormat := logFormat
	originalVerify := verifyMethod
	defer func() {
		logLevel = originalLogLevel
		logFormat = originalLogFormat
		verifyMethod = originalVerify
	}()

	logLevel = "debug"
	logFormat = "json"
	verifyMethod = "sha256"

	assert.Equal(t, CLIOverrides{
		LogLevel:     "debug",
		LogFormat:    "json",
		VerifyMethod: "sha256",
	}, GetCLIOverrides())
}

func TestLoadConfig(t *testing.T) {
	originalCfgFile := cfgFile
	originalLogLevel := logLevel
	defer func() {
		cfgFile = originalCfgFile
		logLevel = originalLogLevel
	}()

	path := writeTestFile(t, filepath.Join(t.TempDir(), "gobalance.yaml"), `
sampling:
  num_samples: 10
logging:
  level: warn
`)
	cfgFile = path
	logLevel = "error"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Sampling.NumSamples)
	assert.Equal(t, "error", cfg.Logging.Level, "flag overrides file")

	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestNewRunLogger(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()
	cfgFile = ""

	cfg, err := loadConfig()
	require.NoError(t, err)

	log, runID, err := newRunLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Len(t, runID, 36)
}
