package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the values that are set. Fields a command needs are checked
// by ValidateSampling and ValidateSegmentation.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateSamplingValues()...)
	errors = append(errors, c.validateVerification()...)
	errors = append(errors, c.validateUpload()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateSampling runs Validate and checks that a sampling run is fully described.
func (c *Config) ValidateSampling() error {
	var errors ValidationErrors
	if err, ok := c.Validate().(ValidationErrors); ok {
		errors = append(errors, err...)
	}

	s := c.Sampling
	switch {
	case s.Dataset != "" && s.LabelPath != "":
		errors = append(errors, ValidationError{
			Field:   "sampling.dataset",
			Message: "dataset and label_path are mutually exclusive",
		})
	case s.Dataset == "" && s.LabelPath == "":
		errors = append(errors, ValidationError{
			Field:   "sampling.dataset",
			Message: "either dataset or label_path is required",
		})
	case s.LabelPath != "" && s.ClassList == "":
		errors = append(errors, ValidationError{
			Field:   "sampling.class_list",
			Message: "class_list is required with label_path",
		})
	}

	if len(s.EffectiveQuota()) == 0 {
		errors = append(errors, ValidationError{
			Field:   "sampling.classes",
			Message: "at least one class must be given in classes or quota",
		})
	}
	if s.Output == "" {
		errors = append(errors, ValidationError{
			Field:   "sampling.output",
			Message: "output is required",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateSegmentation runs Validate and checks the inputs of a segmentation run.
func (c *Config) ValidateSegmentation() error {
	var errors ValidationErrors
	if err, ok := c.Validate().(ValidationErrors); ok {
		errors = append(errors, err...)
	}

	g := c.Segmentation
	required := []struct {
		field, value string
	}{
		{"segmentation.label_path", g.LabelPath},
		{"segmentation.class_list", g.ClassList},
		{"segmentation.manifest_path", g.ManifestPath},
	}
	for _, r := range required {
		if r.value == "" {
			errors = append(errors, ValidationError{
				Field:   r.field,
				Message: "is required",
			})
		}
	}
	if c.Upload.Enabled && g.ZipPath == "" {
		errors = append(errors, ValidationError{
			Field:   "segmentation.zip_path",
			Message: "zip_path is required when upload is enabled",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateSamplingValues() ValidationErrors {
	var errors ValidationErrors
	s := c.Sampling

	if s.NumSamples < 0 {
		errors = append(errors, ValidationError{
			Field:   "sampling.num_samples",
			Message: "num_samples cannot be negative",
		})
	}

	for i, o := range s.Quota {
		if o.Class == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("sampling.quota[%d].class", i),
				Message: "class is required",
			})
		}
		if o.Samples < 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("sampling.quota[%d].samples", i),
				Message: fmt.Sprintf("quota for class %q cannot be negative", o.Class),
			})
		}
	}

	validRemoval := map[string]bool{"swap": true, "shift": true, "": true}
	if !validRemoval[s.Removal] {
		errors = append(errors, ValidationError{
			Field:   "sampling.removal",
			Message: "removal must be 'swap' or 'shift'",
		})
	}

	return errors
}

func (c *Config) validateVerification() ValidationErrors {
	var errors ValidationErrors

	validMethods := map[string]bool{"count": true, "sha256": true, "skip": true, "": true}
	if !validMethods[c.Verification.Method] {
		errors = append(errors, ValidationError{
			Field:   "verification.method",
			Message: "method must be 'count', 'sha256', or 'skip'",
		})
	}

	return errors
}

func (c *Config) validateUpload() ValidationErrors {
	var errors ValidationErrors
	if !c.Upload.Enabled {
		return errors
	}

	if c.Upload.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "upload.endpoint",
			Message: "endpoint is required when upload is enabled",
		})
	}
	if c.Upload.Bucket == "" {
		errors = append(errors, ValidationError{
			Field:   "upload.bucket",
			Message: "bucket is required when upload is enabled",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
