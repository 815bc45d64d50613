package archiver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/dbsmedya/gobalance/internal/logger"
)

// PreflightError represents a preflight check failure.
type PreflightError struct {
	Check   string
	Message string
	Paths   []string
}

func (e *PreflightError) Error() string {
	if len(e.Paths) > 0 {
		return fmt.Sprintf("%s: %s (paths: %s)", e.Check, e.Message, strings.Join(e.Paths, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Check, e.Message)
}

// PreflightChecker verifies the filesystem before a pipeline run writes anything.
type PreflightChecker struct {
	labelDir    string
	classList   string
	manifestDir string
	zipDir      string
	logger      *logger.Logger
}

// NewPreflightChecker creates a checker. zipDir may be empty when no archives are wanted.
func NewPreflightChecker(labelDir, classList, manifestDir, zipDir string, log *logger.Logger) *PreflightChecker {
	if log == nil {
		log = logger.NewNop()
	}
	return &PreflightChecker{
		labelDir:    labelDir,
		classList:   classList,
		manifestDir: manifestDir,
		zipDir:      zipDir,
		logger:      log,
	}
}

// RunAllChecks runs every check and stops at the first failure.
// Output directories are created when missing.
func (p *PreflightChecker) RunAllChecks() error {
	p.logger.Info("Running preflight checks...")

	if err := p.ValidateInputs(); err != nil {
		return err
	}
	if err := p.PrepareOutputDir("manifest_dir", p.manifestDir); err != nil {
		return err
	}
	if p.zipDir != "" {
		if err := p.PrepareOutputDir("zip_dir", p.zipDir); err != nil {
			return err
		}
	}

	p.logger.Info("All preflight checks passed")
	return nil
}

// CheckAll runs the same checks as RunAllChecks without creating anything.
func (p *PreflightChecker) CheckAll() error {
	if err := p.ValidateInputs(); err != nil {
		return err
	}
	if err := p.CheckOutputDir("manifest_dir", p.manifestDir); err != nil {
		return err
	}
	if p.zipDir != "" {
		if err := p.CheckOutputDir("zip_dir", p.zipDir); err != nil {
			return err
		}
	}
	return nil
}

// CheckOutputDir checks that dir is a writable directory, or that it is missing
// and its nearest existing ancestor is a writable directory.
func (p *PreflightChecker) CheckOutputDir(check, dir string) error {
	target := filepath.Clean(dir)
	for {
		info, err := os.Stat(target)
		if err == nil {
			if !info.IsDir() {
				return &PreflightError{
					Check:   check,
					Message: fmt.Sprintf("%s is not a directory", target),
					Paths:   []string{dir},
				}
			}
			if err := unix.Access(target, unix.W_OK|unix.X_OK); err != nil {
				return &PreflightError{
					Check:   check,
					Message: fmt.Sprintf("%s is not writable: %v", target, err),
					Paths:   []string{dir},
				}
			}
			p.logger.Debugw("Output directory usable", "check", check, "dir", dir, "existing", target)
			return nil
		}
		if !os.IsNotExist(err) {
			return &PreflightError{
				Check:   check,
				Message: fmt.Sprintf("cannot stat %s: %v", target, err),
				Paths:   []string{dir},
			}
		}

		parent := filepath.Dir(target)
		if parent == target {
			return &PreflightError{Check: check, Message: "no existing parent directory", Paths: []string{dir}}
		}
		target = parent
	}
}

// ValidateInputs checks that the label directory and the class list exist.
func (p *PreflightChecker) ValidateInputs() error {
	var missing []string

	if info, err := os.Stat(p.labelDir); err != nil || !info.IsDir() {
		missing = append(missing, p.labelDir)
	}
	if info, err := os.Stat(p.classList); err != nil || info.IsDir() {
		missing = append(missing, p.classList)
	}

	if len(missing) > 0 {
		return &PreflightError{
			Check:   "input_existence",
			Message: "label directory or class list not found",
			Paths:   missing,
		}
	}
	p.logger.Debugw("Inputs exist", "label_dir", p.labelDir, "class_list", p.classList)
	return nil
}

// PrepareOutputDir creates dir if needed and checks that files can be created in it.
func (p *PreflightChecker) PrepareOutputDir(check, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PreflightError{
			Check:   check,
			Message: fmt.Sprintf("cannot create directory: %v", err),
			Paths:   []string{dir},
		}
	}

	probe, err := os.CreateTemp(dir, ".gobalance-probe-*")
	if err != nil {
		return &PreflightError{
			Check:   check,
			Message: fmt.Sprintf("directory is not writable: %v", err),
			Paths:   []string{dir},
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	p.logger.Debugw("Output directory ready", "check", check, "dir", filepath.Clean(dir))
	return nil
}
