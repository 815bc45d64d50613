package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadOrDefault behaves like Load, but an empty path yields DefaultConfig.
// Every command works without a config file when its flags are given.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	return Load(configPath)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)
	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars expands environment variables in paths and credentials.
func substituteEnvVars(cfg *Config) {
	s := &cfg.Sampling
	s.Dataset = expandEnvVar(s.Dataset)
	s.LabelPath = expandEnvVar(s.LabelPath)
	s.ClassList = expandEnvVar(s.ClassList)
	s.ImagePath = expandEnvVar(s.ImagePath)
	s.Output = expandEnvVar(s.Output)
	s.Manifest = expandEnvVar(s.Manifest)

	g := &cfg.Segmentation
	g.ImagePath = expandEnvVar(g.ImagePath)
	g.LabelPath = expandEnvVar(g.LabelPath)
	g.ClassList = expandEnvVar(g.ClassList)
	g.ManifestPath = expandEnvVar(g.ManifestPath)
	g.ZipPath = expandEnvVar(g.ZipPath)

	u := &cfg.Upload
	u.Endpoint = expandEnvVar(u.Endpoint)
	u.Bucket = expandEnvVar(u.Bucket)
	u.AccessKey = expandEnvVar(u.AccessKey)
	u.SecretKey = expandEnvVar(u.SecretKey)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// ApplyOverrides applies the global CLI flag overrides.
// Only non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat, verifyMethod string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if verifyMethod != "" {
		c.Verification.Method = verifyMethod
	}
}

// SegmentationOverrides carries segment/export flag values.
type SegmentationOverrides struct {
	ImagePath    string
	ImageExt     string
	LabelPath    string
	ClassList    string
	ClassNames   string // space separated
	ManifestPath string
	ZipPath      string
}

// ApplySegmentationOverrides copies every non-empty flag value into the
// segmentation section.
func (c *Config) ApplySegmentationOverrides(o SegmentationOverrides) {
	g := &c.Segmentation
	if o.ImagePath != "" {
		g.ImagePath = o.ImagePath
	}
	if o.ImageExt != "" {
		g.ImageExt = o.ImageExt
	}
	if o.LabelPath != "" {
		g.LabelPath = o.LabelPath
	}
	if o.ClassList != "" {
		g.ClassList = o.ClassList
	}
	if names := strings.Fields(o.ClassNames); len(names) > 0 {
		g.Classes = names
	}
	if o.ManifestPath != "" {
		g.ManifestPath = o.ManifestPath
	}
	if o.ZipPath != "" {
		g.ZipPath = o.ZipPath
	}
}

// SamplingOverrides carries sample flag values. Zero values are ignored.
type SamplingOverrides struct {
	Dataset       string
	LabelPath     string
	ClassList     string
	ImagePath     string
	Classes       []string
	NumSamples    int
	NumSamplesSet bool // NumSamples was given explicitly, so 0 is honored
	Quota         map[string]int
	Seed          int64
	SeedSet       bool // Seed was given explicitly, so 0 is honored
	RandomSeed    bool
	Removal       string
	Output        string
	Manifest      string
}

// ApplySamplingOverrides copies the given flag values into the sampling section.
func (c *Config) ApplySamplingOverrides(o SamplingOverrides) {
	s := &c.Sampling
	if o.Dataset != "" {
		s.Dataset = o.Dataset
	}
	if o.LabelPath != "" {
		s.LabelPath = o.LabelPath
	}
	if o.ClassList != "" {
		s.ClassList = o.ClassList
	}
	if o.ImagePath != "" {
		s.ImagePath = o.ImagePath
	}
	if len(o.Classes) > 0 {
		s.Classes = o.Classes
	}
	if o.NumSamplesSet {
		s.NumSamples = o.NumSamples
	}
	names := make([]string, 0, len(o.Quota))
	for name := range o.Quota {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.SetQuota(name, o.Quota[name])
	}
	if o.SeedSet {
		s.Seed = o.Seed
	}
	if o.RandomSeed {
		s.RandomSeed = true
	}
	if o.Removal != "" {
		s.Removal = o.Removal
	}
	if o.Output != "" {
		s.Output = o.Output
	}
	if o.Manifest != "" {
		s.Manifest = o.Manifest
	}
}

// SetQuota sets the target for one class, replacing an earlier override.
func (s *SamplingConfig) SetQuota(class string, samples int) {
	for i := range s.Quota {
		if s.Quota[i].Class == class {
			s.Quota[i].Samples = samples
			return
		}
	}
	s.Quota = append(s.Quota, QuotaOverride{Class: class, Samples: samples})
}
