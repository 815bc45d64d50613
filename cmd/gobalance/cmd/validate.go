package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gobalance/internal/archiver"
	"github.com/dbsmedya/gobalance/internal/logger"
	"github.com/dbsmedya/gobalance/internal/yolo"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and, for each configured section,
the inputs it points to.

Checks performed:
  - Configuration syntax and value ranges
  - Sampling: dataset source, classes and output
  - Segmentation: label directory and class list exist, selected classes
    are defined in the class list, output directories are writable or can
    be created (validate itself never creates them)

Example:
  gobalance validate --config gobalance.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	out := cmd.OutOrStdout()
	paint := newStatusPainter(out)

	fmt.Fprintf(out, "\n=== Configuration Validation ===\n")
	if GetConfigFile() != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", GetConfigFile())
	} else {
		fmt.Fprintf(out, "Config file: (none, defaults)\n\n")
	}

	hasErrors := false
	report := func(section string, err error) {
		if err != nil {
			fmt.Fprintf(out, "%s %s: %v\n\n", paint.fail("FAIL"), section, err)
			hasErrors = true
			return
		}
		fmt.Fprintf(out, "%s %s\n\n", paint.ok("OK"), section)
	}

	report("settings", cfg.Validate())

	sc := cfg.Sampling
	if sc.Dataset != "" || sc.LabelPath != "" {
		report("sampling", cfg.ValidateSampling())
	}

	gc := cfg.Segmentation
	if gc.LabelPath != "" || gc.ClassList != "" {
		err := cfg.ValidateSegmentation()
		if err == nil {
			checker := archiver.NewPreflightChecker(gc.LabelPath, gc.ClassList, gc.ManifestPath, gc.ZipPath, log)
			err = checker.CheckAll()
		}
		if err == nil {
			var classes *yolo.ClassList
			if classes, err = yolo.LoadClassList(gc.ClassList); err == nil {
				_, err = classes.Resolve(gc.Classes)
			}
		}
		report("segmentation", err)
	}

	if hasErrors {
		return fmt.Errorf("validation failed for one or more sections")
	}

	fmt.Fprintln(out, "=== Validation Complete ===")
	fmt.Fprintln(out, paint.ok("All sections validated successfully"))
	return nil
}
