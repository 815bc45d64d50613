package config

import (
	"errors"
	"strings"
	"testing"
)

func validSegmentationConfig() *Config {
	cfg := DefaultConfig()
	cfg.Segmentation.LabelPath = "/data/labels"
	cfg.Segmentation.ClassList = "/data/classes.txt"
	return cfg
}

func validSamplingConfig() *Config {
	cfg := DefaultConfig()
	cfg.Sampling.Dataset = "/data/train.json"
	cfg.Sampling.Classes = []string{"Car"}
	cfg.Sampling.Output = "/data/out.json"
	return cfg
}

func TestValidConfig(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
	if err := validSegmentationConfig().ValidateSegmentation(); err != nil {
		t.Errorf("expected no segmentation errors, got: %v", err)
	}
	if err := validSamplingConfig().ValidateSampling(); err != nil {
		t.Errorf("expected no sampling errors, got: %v", err)
	}
}

func TestSegmentationMissingFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Segmentation.ManifestPath = ""

	err := cfg.ValidateSegmentation()
	if err == nil {
		t.Fatal("expected validation error for empty segmentation config")
	}
	for _, field := range []string{"segmentation.label_path", "segmentation.class_list", "segmentation.manifest_path"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected error to mention %q, got: %v", field, err)
		}
	}
}

func TestSamplingSourceChoice(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SamplingConfig)
		wantErr string
	}{
		{
			name:    "no source",
			mutate:  func(s *SamplingConfig) { s.Dataset = "" },
			wantErr: "either dataset or label_path is required",
		},
		{
			name:    "both sources",
			mutate:  func(s *SamplingConfig) { s.LabelPath = "/data/labels" },
			wantErr: "mutually exclusive",
		},
		{
			name: "label dir without class list",
			mutate: func(s *SamplingConfig) {
				s.Dataset = ""
				s.LabelPath = "/data/labels"
			},
			wantErr: "sampling.class_list",
		},
		{
			name:    "no classes",
			mutate:  func(s *SamplingConfig) { s.Classes = nil },
			wantErr: "sampling.classes",
		},
		{
			name:    "no output",
			mutate:  func(s *SamplingConfig) { s.Output = "" },
			wantErr: "sampling.output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSamplingConfig()
			tt.mutate(&cfg.Sampling)

			err := cfg.ValidateSampling()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error to contain %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestNegativeQuota(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sampling.Quota = []QuotaOverride{{Class: "Car", Samples: -1}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for negative quota")
	}
	if !strings.Contains(err.Error(), "sampling.quota[0].samples") {
		t.Errorf("expected error to mention 'sampling.quota[0].samples', got: %v", err)
	}
}

func TestNegativeNumSamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sampling.NumSamples = -5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for negative num_samples")
	}
	if !strings.Contains(err.Error(), "sampling.num_samples") {
		t.Errorf("expected error to mention 'sampling.num_samples', got: %v", err)
	}
}

func TestInvalidRemoval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sampling.Removal = "pop"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for unknown removal policy")
	}
	if !strings.Contains(err.Error(), "sampling.removal") {
		t.Errorf("expected error to mention 'sampling.removal', got: %v", err)
	}
}

func TestInvalidVerificationMethod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Verification.Method = "md5"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for invalid verification method")
	}
	if !strings.Contains(err.Error(), "verification.method") {
		t.Errorf("expected error to mention 'verification.method', got: %v", err)
	}
}

func TestUploadValidation(t *testing.T) {
	cfg := validSegmentationConfig()
	cfg.Upload.Enabled = true

	err := cfg.ValidateSegmentation()
	if err == nil {
		t.Fatal("expected validation error for incomplete upload config")
	}
	for _, field := range []string{"upload.endpoint", "upload.bucket", "segmentation.zip_path"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected error to mention %q, got: %v", field, err)
		}
	}

	// Disabled upload is not checked
	cfg.Upload.Enabled = false
	if err := cfg.ValidateSegmentation(); err != nil {
		t.Errorf("expected no errors with upload disabled, got: %v", err)
	}
}

func TestMultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"
	cfg.Logging.Format = "xml"
	cfg.Verification.Method = "crc"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	var validationErrs ValidationErrors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(validationErrs) != 3 {
		t.Errorf("expected 3 validation errors, got %d: %v", len(validationErrs), validationErrs)
	}
}
