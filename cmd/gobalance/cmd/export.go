package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gobalance/internal/manifest"
)

var exportManifests []string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Package saved manifests into per-class zip archives",
	Long: `Export re-reads manifest_<class>.txt files written by an earlier segment run
and packages each class as <class>.zip. Label files are found in --label-path
by image name.

Without --manifest every manifest in --manifest-path is exported.

Example:
  gobalance export --manifest-path manifests/ --label-path labels/ \
      --class-list classes.txt --zip-file-path zips/`,
	RunE: runExport,
}

func init() {
	addSegmentationFlags(exportCmd)
	exportCmd.Flags().StringSliceVar(&exportManifests, "manifest", nil,
		"Manifest file to export (repeatable)")

	rootCmd.AddCommand(exportCmd)
}

// findManifests lists manifest_*.txt in dir, sorted.
func findManifests(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, manifest.FileName("*")))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.ApplySegmentationOverrides(segmentationOverrides())
	if err := cfg.ValidateSegmentation(); err != nil {
		return err
	}
	if cfg.Segmentation.ZipPath == "" {
		return fmt.Errorf("--zip-file-path (segmentation.zip_path) is required for export")
	}

	paths := exportManifests
	if len(paths) == 0 {
		if paths, err = findManifests(cfg.Segmentation.ManifestPath); err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no manifests found in %s", cfg.Segmentation.ManifestPath)
	}

	log, runID, err := newRunLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	manifests := make([]*manifest.ClassManifest, 0, len(paths))
	for _, path := range paths {
		m, err := manifest.Load(path, cfg.Segmentation.LabelPath)
		if err != nil {
			return err
		}
		manifests = append(manifests, m)
	}

	p, err := newPipeline(cfg, runID, log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	result, err := p.ExportManifests(ctx, manifests)
	if err != nil {
		if errors.Is(err, context.Canceled) && result != nil {
			printPipelineSummary(cmd, "Export Cancelled", result)
			return nil
		}
		return fmt.Errorf("export failed: %w", err)
	}

	printPipelineSummary(cmd, "Export Complete", result)
	if !result.Success {
		return fmt.Errorf("export completed with errors")
	}
	return nil
}
