package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gobalance/internal/archiver"
	"github.com/dbsmedya/gobalance/internal/config"
	"github.com/dbsmedya/gobalance/internal/logger"
	"github.com/dbsmedya/gobalance/internal/publish"
)

var (
	segImagePath    string
	segImageExt     string
	segLabelPath    string
	segClassList    string
	segClassNames   string
	segManifestPath string
	segZipPath      string
	segForce        bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Split a YOLO corpus into per-class manifests and archives",
	Long: `Segment scans every label file and lists each image under every class it
contains. One manifest_<class>.txt is written per selected class, also when the
class matched no image.

With --zip-file-path every class is packaged as <class>.zip holding
images/, labels/, the manifest and the class list. Archives are verified
after writing and uploaded when upload is enabled in the configuration.

A label file with a malformed line is skipped and reported; a class whose
archive fails does not stop the other classes.

Example:
  gobalance segment --label-path labels/ --image-path images/ --class-list classes.txt \
      --class-name "person car" --manifest-path manifests/ --zip-file-path zips/`,
	RunE: runSegment,
}

func init() {
	addSegmentationFlags(segmentCmd)
	segmentCmd.Flags().StringVar(&segClassNames, "class-name", "",
		"Space separated classes to keep (default: every class in the list)")
	segmentCmd.Flags().BoolVar(&segForce, "force", false,
		"Run even if the manifest directory is locked by another run (use with caution)")

	rootCmd.AddCommand(segmentCmd)
}

// addSegmentationFlags registers the path flags shared by segment and export.
func addSegmentationFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&segImagePath, "image-path", "", "Image path prefix, prepended as is (e.g. images/)")
	f.StringVar(&segImageExt, "image-ext", "", "Image extension (default .jpg)")
	f.StringVar(&segLabelPath, "label-path", "", "YOLO label directory")
	f.StringVar(&segClassList, "class-list", "", "Class list file, one name per line")
	f.StringVar(&segManifestPath, "manifest-path", "", "Manifest directory (default ./)")
	f.StringVar(&segZipPath, "zip-file-path", "", "Archive directory; no archives when empty")
}

func segmentationOverrides() config.SegmentationOverrides {
	return config.SegmentationOverrides{
		ImagePath:    segImagePath,
		ImageExt:     segImageExt,
		LabelPath:    segLabelPath,
		ClassList:    segClassList,
		ClassNames:   segClassNames,
		ManifestPath: segManifestPath,
		ZipPath:      segZipPath,
	}
}

// newPipeline builds the pipeline with the configured publisher.
func newPipeline(cfg *config.Config, runID string, log *logger.Logger) (*archiver.Pipeline, error) {
	p, err := archiver.NewPipeline(cfg, runID, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	if cfg.Upload.Enabled {
		uploader, err := publish.New(cfg.Upload, log)
		if err != nil {
			return nil, err
		}
		p.SetPublisher(uploader)
		log.Infow("Upload enabled", "endpoint", cfg.Upload.Endpoint, "bucket", cfg.Upload.Bucket)
	}
	return p, nil
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Warn("Received shutdown signal - finishing current class...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func runSegment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.ApplySegmentationOverrides(segmentationOverrides())
	if err := cfg.ValidateSegmentation(); err != nil {
		return err
	}

	log, runID, err := newRunLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	p, err := newPipeline(cfg, runID, log)
	if err != nil {
		return err
	}
	p.SetSkipLock(segForce)

	ctx, cancel := signalContext(log)
	defer cancel()

	result, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Segmentation cancelled by user")
			printPipelineSummary(cmd, "Segmentation Cancelled", result)
			return nil
		}
		return fmt.Errorf("segmentation failed: %w", err)
	}

	printPipelineSummary(cmd, "Segmentation Complete", result)
	if !result.Success {
		return fmt.Errorf("segmentation completed with errors")
	}
	return nil
}

func printPipelineSummary(cmd *cobra.Command, title string, result *archiver.PipelineResult) {
	out := cmd.OutOrStdout()
	paint := newStatusPainter(out)

	rows := make([][]string, 0, len(result.Classes))
	for _, c := range result.Classes {
		status := paint.ok("ok")
		switch {
		case c.Err != nil:
			status = paint.fail("failed")
		case c.Collisions > 0:
			status = paint.warn(fmt.Sprintf("%d collision(s)", c.Collisions))
		}
		archive := "-"
		if c.Archive != "" {
			archive = truncateLeft(c.Archive, maxCellWidth)
		}
		rows = append(rows, []string{
			truncateRight(c.ClassName, maxCellWidth),
			strconv.Itoa(c.Images),
			truncateLeft(c.Manifest, maxCellWidth),
			archive,
			status,
		})
	}

	fmt.Fprintf(out, "\n=== %s ===\n", title)
	fmt.Fprintf(out, "Run: %s\n", result.RunID)
	fmt.Fprintf(out, "Duration: %s\n", result.Duration)
	if result.FilesScanned > 0 {
		fmt.Fprintf(out, "Label files: %d scanned, %d skipped\n", result.FilesScanned, result.FilesSkipped)
	}
	fmt.Fprintf(out, "Archives written: %d\n", result.ArchivesWritten())
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Class", "Images", "Manifest", "Archive", "Status"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
		))
	}
	fmt.Fprintf(out, "Success: %v\n", result.Success)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\n%s\n", paint.fail("Errors:"))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %v\n", e)
		}
	}
}
