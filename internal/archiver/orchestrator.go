// Package archiver segments a labelled corpus into per-class manifests and
// packages each class into a zip archive.
package archiver

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dbsmedya/gobalance/internal/config"
	"github.com/dbsmedya/gobalance/internal/lock"
	"github.com/dbsmedya/gobalance/internal/logger"
	"github.com/dbsmedya/gobalance/internal/manifest"
	"github.com/dbsmedya/gobalance/internal/publish"
	"github.com/dbsmedya/gobalance/internal/segment"
	"github.com/dbsmedya/gobalance/internal/verifier"
	"github.com/dbsmedya/gobalance/internal/yolo"
)

// ArchiveExt is appended to the class name to form the archive file name.
const ArchiveExt = ".zip"

// Publisher uploads a finished archive.
type Publisher interface {
	Upload(ctx context.Context, localPath string) (*publish.UploadResult, error)
}

// ClassResult is the outcome for one class. Err is set when saving, exporting,
// verifying or uploading failed; the other classes are unaffected.
type ClassResult struct {
	ClassIndex int
	ClassName  string
	Images     int
	Manifest   string
	Archive    string
	Entries    int
	Collisions int
	Bytes      int64
	Verified   bool
	Uploaded   *publish.UploadResult
	Err        error
}

// PipelineResult contains statistics and status of a segmentation run.
type PipelineResult struct {
	RunID        string
	StartedAt    time.Time
	CompletedAt  time.Time
	Duration     time.Duration
	FilesScanned int
	FilesSkipped int
	Classes      []*ClassResult
	Errors       []error
	Success      bool
}

// ArchivesWritten counts classes whose archive was written.
func (r *PipelineResult) ArchivesWritten() int {
	n := 0
	for _, c := range r.Classes {
		if c.Archive != "" && c.Err == nil {
			n++
		}
	}
	return n
}

// Pipeline coordinates segmentation, manifest output and archive export.
type Pipeline struct {
	cfg       config.SegmentationConfig
	verifier  *verifier.Verifier
	exporter  *Exporter
	publisher Publisher
	runID     string
	skipLock  bool
	logger    *logger.Logger
}

// NewPipeline creates a pipeline for cfg. A nil logger discards output.
func NewPipeline(cfg *config.Config, runID string, log *logger.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	v, err := verifier.NewVerifier(verifier.VerificationMethod(cfg.Verification.Method), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create verifier: %w", err)
	}

	return &Pipeline{
		cfg:      cfg.Segmentation,
		verifier: v,
		exporter: NewExporter(log),
		runID:    runID,
		logger:   log,
	}, nil
}

// SetPublisher enables upload of every verified archive.
func (p *Pipeline) SetPublisher(pub Publisher) {
	p.publisher = pub
}

// SetSkipLock disables the manifest directory lock.
func (p *Pipeline) SetSkipLock(skip bool) {
	p.skipLock = skip
}

// Run segments the label directory, writes one manifest per kept class and,
// when a zip path is configured, exports each class.
//
// Configuration problems (missing inputs, unknown class names, a held lock)
// abort the run with an error. Per-file and per-class failures are collected
// in the result and processing continues.
func (p *Pipeline) Run(ctx context.Context) (*PipelineResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}

	result := &PipelineResult{
		RunID:     p.runID,
		StartedAt: time.Now(),
		Errors:    make([]error, 0),
	}

	p.logger.Infow("Starting segmentation",
		"label_dir", p.cfg.LabelPath,
		"class_list", p.cfg.ClassList,
		"manifest_dir", p.cfg.ManifestPath,
		"zip_dir", p.cfg.ZipPath,
		"verification", p.verifier.GetMethod(),
	)

	checker := NewPreflightChecker(p.cfg.LabelPath, p.cfg.ClassList, p.cfg.ManifestPath, p.cfg.ZipPath, p.logger)
	if err := checker.RunAllChecks(); err != nil {
		return nil, fmt.Errorf("preflight failed: %w", err)
	}

	if !p.skipLock {
		dirLock := lock.NewDirLock(p.cfg.ManifestPath)
		if err := dirLock.AcquireOrFail(); err != nil {
			return nil, err
		}
		defer dirLock.Release()
		p.logger.Debugw("Acquired manifest directory lock", "lock", dirLock.Path())
	} else {
		p.logger.Warnw("Skipping manifest directory lock", "dir", p.cfg.ManifestPath)
	}

	classes, err := yolo.LoadClassList(p.cfg.ClassList)
	if err != nil {
		return nil, err
	}
	keep, err := classes.Resolve(p.cfg.Classes)
	if err != nil {
		return nil, err
	}

	seg, err := segment.New(segment.Options{
		LabelDir:  p.cfg.LabelPath,
		ImageDir:  p.cfg.ImagePath,
		ImageExt:  p.cfg.ImageExt,
		ClassList: classes,
		Keep:      keep,
	}, p.logger)
	if err != nil {
		return nil, err
	}
	segmented, err := seg.Segment()
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}
	result.FilesScanned = segmented.FilesScanned
	result.FilesSkipped = segmented.FilesSkipped
	result.Errors = append(result.Errors, segmented.Errors...)

	for _, m := range segmented.List() {
		select {
		case <-ctx.Done():
			p.logger.Warn("Context cancelled - stopping before next class")
			p.finalize(result)
			return result, ctx.Err()
		default:
		}

		cr := &ClassResult{ClassIndex: m.ClassIndex, ClassName: m.ClassName, Images: m.Len()}
		result.Classes = append(result.Classes, cr)

		if err := m.Save(p.cfg.ManifestPath); err != nil {
			cr.Err = fmt.Errorf("class %s: %w", m.ClassName, err)
			result.Errors = append(result.Errors, cr.Err)
			p.logger.WithClass(m.ClassName).Errorw("Failed to save manifest", "error", err)
			continue
		}
		cr.Manifest = m.Path

		if p.cfg.ZipPath == "" {
			continue
		}
		if err := p.exportClass(ctx, m, cr); err != nil {
			cr.Err = err
			result.Errors = append(result.Errors, err)
		}
	}

	p.finalize(result)
	p.logger.Infow("Segmentation complete",
		"classes", len(result.Classes),
		"files_scanned", result.FilesScanned,
		"files_skipped", result.FilesSkipped,
		"archives", result.ArchivesWritten(),
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	return result, nil
}

// ExportManifests packages already saved manifests, for example the output of
// an earlier run without a zip path. Each manifest is exported independently.
func (p *Pipeline) ExportManifests(ctx context.Context, manifests []*manifest.ClassManifest) (*PipelineResult, error) {
	if p.cfg.ZipPath == "" {
		return nil, fmt.Errorf("zip path is required for export")
	}

	result := &PipelineResult{
		RunID:     p.runID,
		StartedAt: time.Now(),
		Errors:    make([]error, 0),
	}

	checker := NewPreflightChecker(p.cfg.LabelPath, p.cfg.ClassList, p.cfg.ManifestPath, p.cfg.ZipPath, p.logger)
	if err := checker.PrepareOutputDir("zip_dir", p.cfg.ZipPath); err != nil {
		return nil, fmt.Errorf("preflight failed: %w", err)
	}

	for _, m := range manifests {
		if err := ctx.Err(); err != nil {
			p.finalize(result)
			return result, err
		}
		cr := &ClassResult{ClassIndex: m.ClassIndex, ClassName: m.ClassName, Images: m.Len(), Manifest: m.Path}
		result.Classes = append(result.Classes, cr)
		if err := p.exportClass(ctx, m, cr); err != nil {
			cr.Err = err
			result.Errors = append(result.Errors, err)
		}
	}

	p.finalize(result)
	return result, nil
}

// exportClass writes, verifies and optionally uploads the archive of one class.
func (p *Pipeline) exportClass(ctx context.Context, m *manifest.ClassManifest, cr *ClassResult) error {
	log := p.logger.WithClass(m.ClassName)
	dest := filepath.Join(p.cfg.ZipPath, m.ClassName+ArchiveExt)

	exported, err := p.exporter.Export(m, p.cfg.ClassList, dest)
	if err != nil {
		log.Errorw("Archive export failed", "archive", dest, "error", err)
		return fmt.Errorf("class %s: %w", m.ClassName, err)
	}
	cr.Archive = exported.Archive
	cr.Entries = len(exported.Entries)
	cr.Collisions = len(exported.Collisions)
	cr.Bytes = exported.Bytes

	if p.verifier.GetMethod() != verifier.MethodSkip {
		if _, err := p.verifier.Verify(dest, exported.Entries); err != nil {
			log.Errorw("Archive verification failed", "archive", dest, "error", err)
			return fmt.Errorf("class %s: verification failed: %w", m.ClassName, err)
		}
		cr.Verified = true
	}

	if p.publisher != nil {
		uploaded, err := p.publisher.Upload(ctx, dest)
		if err != nil {
			log.Errorw("Archive upload failed", "archive", dest, "error", err)
			return fmt.Errorf("class %s: %w", m.ClassName, err)
		}
		cr.Uploaded = uploaded
	}
	return nil
}

func (p *Pipeline) finalize(result *PipelineResult) {
	result.Success = len(result.Errors) == 0
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
}
