// Package config provides configuration structures and loading for gobalance.
package config

import "sort"

// Config represents the complete application configuration.
type Config struct {
	Sampling     SamplingConfig     `yaml:"sampling" mapstructure:"sampling"`
	Segmentation SegmentationConfig `yaml:"segmentation" mapstructure:"segmentation"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Upload       UploadConfig       `yaml:"upload" mapstructure:"upload"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// SamplingConfig drives the sample command. The dataset is read either from a
// JSON file (Dataset) or from a YOLO label directory (LabelPath + ClassList).
type SamplingConfig struct {
	Dataset    string          `yaml:"dataset" mapstructure:"dataset"`
	LabelPath  string          `yaml:"label_path" mapstructure:"label_path"`
	ClassList  string          `yaml:"class_list" mapstructure:"class_list"`
	ImagePath  string          `yaml:"image_path" mapstructure:"image_path"`
	ImageExt   string          `yaml:"image_ext" mapstructure:"image_ext"`
	Classes    []string        `yaml:"classes" mapstructure:"classes"`
	NumSamples int             `yaml:"num_samples" mapstructure:"num_samples"`
	Quota      []QuotaOverride `yaml:"quota" mapstructure:"quota"`
	Seed       int64           `yaml:"seed" mapstructure:"seed"`
	RandomSeed bool            `yaml:"random_seed" mapstructure:"random_seed"`
	Removal    string          `yaml:"removal" mapstructure:"removal"` // swap or shift
	Output     string          `yaml:"output" mapstructure:"output"`
	Manifest   string          `yaml:"manifest" mapstructure:"manifest"`
}

// QuotaOverride sets the target of one class. It is a list entry rather than
// a map key because viper lowercases map keys and class names are case sensitive.
type QuotaOverride struct {
	Class   string `yaml:"class" mapstructure:"class"`
	Samples int    `yaml:"samples" mapstructure:"samples"`
}

// SegmentationConfig drives the segment and export commands.
type SegmentationConfig struct {
	ImagePath    string   `yaml:"image_path" mapstructure:"image_path"`
	ImageExt     string   `yaml:"image_ext" mapstructure:"image_ext"`
	LabelPath    string   `yaml:"label_path" mapstructure:"label_path"`
	ClassList    string   `yaml:"class_list" mapstructure:"class_list"`
	Classes      []string `yaml:"classes" mapstructure:"classes"` // empty = every class
	ManifestPath string   `yaml:"manifest_path" mapstructure:"manifest_path"`
	ZipPath      string   `yaml:"zip_path" mapstructure:"zip_path"` // empty = no archives
}

// VerificationConfig represents archive verification settings.
type VerificationConfig struct {
	Method string `yaml:"method" mapstructure:"method"` // "count", "sha256" or "skip"
}

// UploadConfig describes the optional S3-compatible archive destination.
type UploadConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Prefix    string `yaml:"prefix" mapstructure:"prefix"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Sampling: SamplingConfig{
			ImageExt:   ".jpg",
			NumSamples: 2000,
			Seed:       1337,
			Removal:    "swap",
		},
		Segmentation: SegmentationConfig{
			ImageExt:     ".jpg",
			ManifestPath: "./",
		},
		Verification: VerificationConfig{
			Method: "count",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// EffectiveQuota returns the per-class targets: NumSamples for every class in
// Classes, then the Quota overrides. A class named only in Quota is included.
func (s *SamplingConfig) EffectiveQuota() map[string]int {
	quota := make(map[string]int, len(s.Classes)+len(s.Quota))
	for _, name := range s.Classes {
		quota[name] = s.NumSamples
	}
	for _, o := range s.Quota {
		quota[o.Class] = o.Samples
	}
	return quota
}

// QuotaClasses returns the class names of EffectiveQuota, sorted.
func (s *SamplingConfig) QuotaClasses() []string {
	quota := s.EffectiveQuota()
	names := make([]string, 0, len(quota))
	for name := range quota {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
