package config

import (
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test sampling defaults
	if cfg.Sampling.NumSamples != 2000 {
		t.Errorf("expected num_samples 2000, got %d", cfg.Sampling.NumSamples)
	}
	if cfg.Sampling.Seed != 1337 {
		t.Errorf("expected seed 1337, got %d", cfg.Sampling.Seed)
	}
	if cfg.Sampling.Removal != "swap" {
		t.Errorf("expected removal 'swap', got %s", cfg.Sampling.Removal)
	}
	if cfg.Sampling.RandomSeed {
		t.Error("expected random_seed disabled by default")
	}

	// Test segmentation defaults
	if cfg.Segmentation.ImageExt != ".jpg" {
		t.Errorf("expected image_ext '.jpg', got %s", cfg.Segmentation.ImageExt)
	}
	if cfg.Segmentation.ManifestPath != "./" {
		t.Errorf("expected manifest_path './', got %s", cfg.Segmentation.ManifestPath)
	}
	if cfg.Segmentation.ZipPath != "" {
		t.Errorf("expected no zip_path by default, got %s", cfg.Segmentation.ZipPath)
	}

	// Test verification defaults
	if cfg.Verification.Method != "count" {
		t.Errorf("expected verification method 'count', got %s", cfg.Verification.Method)
	}

	// Test upload defaults
	if cfg.Upload.Enabled {
		t.Error("expected upload disabled by default")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected logging format 'text', got %s", cfg.Logging.Format)
	}
}

func TestEffectiveQuota(t *testing.T) {
	tests := []struct {
		name     string
		sampling SamplingConfig
		want     map[string]int
	}{
		{
			name:     "num_samples for every class",
			sampling: SamplingConfig{Classes: []string{"cat", "dog"}, NumSamples: 5},
			want:     map[string]int{"cat": 5, "dog": 5},
		},
		{
			name: "quota overrides num_samples",
			sampling: SamplingConfig{
				Classes:    []string{"cat", "dog"},
				NumSamples: 5,
				Quota:      []QuotaOverride{{Class: "dog", Samples: 2}},
			},
			want: map[string]int{"cat": 5, "dog": 2},
		},
		{
			name:     "class named only in quota",
			sampling: SamplingConfig{NumSamples: 5, Quota: []QuotaOverride{{Class: "bird", Samples: 1}}},
			want:     map[string]int{"bird": 1},
		},
		{
			name:     "nothing configured",
			sampling: SamplingConfig{NumSamples: 5},
			want:     map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sampling.EffectiveQuota()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EffectiveQuota() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuotaClasses(t *testing.T) {
	s := SamplingConfig{
		Classes:    []string{"zebra", "ant"},
		NumSamples: 1,
		Quota:      []QuotaOverride{{Class: "moth", Samples: 3}},
	}
	got := s.QuotaClasses()
	want := []string{"ant", "moth", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("QuotaClasses() = %v, want %v", got, want)
	}
}
