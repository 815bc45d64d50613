package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gobalance/internal/config"
	"github.com/dbsmedya/gobalance/internal/dataset"
	"github.com/dbsmedya/gobalance/internal/manifest"
	"github.com/dbsmedya/gobalance/internal/sampler"
	"github.com/dbsmedya/gobalance/internal/types"
	"github.com/dbsmedya/gobalance/internal/yolo"
)

var (
	sampleDataset    string
	sampleLabelPath  string
	sampleClassList  string
	sampleImagePath  string
	sampleClasses    []string
	sampleNumSamples int
	sampleQuota      []string
	sampleSeed       int64
	sampleRandomSeed bool
	sampleRemoval    string
	sampleOutput     string
	sampleManifest   string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw a class-balanced subset of a dataset",
	Long: `Sample draws records at random without replacement and keeps a record
while at least one of its classes is below its target.

The dataset is read from a JSON file (--dataset) or a YOLO label directory
(--label-path with --class-list). Every class in --classes gets --num-samples
as its target; --quota overrides single classes. Sampling stops when every
target is met or the dataset runs out; missing records are reported per class.

Example:
  gobalance sample --dataset train.json --classes person,car --num-samples 500 -o balanced.json
  gobalance sample --label-path labels/ --class-list classes.txt --quota person=200 --random-seed -o out.json`,
	RunE: runSample,
}

func init() {
	f := sampleCmd.Flags()
	f.StringVar(&sampleDataset, "dataset", "", "JSON dataset to sample from")
	f.StringVar(&sampleLabelPath, "label-path", "", "YOLO label directory to sample from")
	f.StringVar(&sampleClassList, "class-list", "", "Class list for --label-path")
	f.StringVar(&sampleImagePath, "image-path", "", "Image path prefix for --label-path records (e.g. images/)")
	f.StringSliceVar(&sampleClasses, "classes", nil, "Classes to balance (comma separated)")
	f.IntVar(&sampleNumSamples, "num-samples", 0, "Target per class (default from config, 2000)")
	f.StringSliceVar(&sampleQuota, "quota", nil, "Per-class target override, class=n (repeatable)")
	f.Int64Var(&sampleSeed, "seed", 0, "Random seed (default from config, 1337)")
	f.BoolVar(&sampleRandomSeed, "random-seed", false, "Draw a fresh seed and report it")
	f.StringVar(&sampleRemoval, "removal", "", "Pool removal policy (swap, shift)")
	f.StringVarP(&sampleOutput, "output", "o", "", "Output JSON dataset")
	f.StringVar(&sampleManifest, "manifest", "", "Also write the selected image paths to this file")

	rootCmd.AddCommand(sampleCmd)
}

// parseQuotaFlags parses class=n pairs.
func parseQuotaFlags(pairs []string) (map[string]int, error) {
	quota := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --quota %q: expected class=n", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid --quota %q: %w", pair, err)
		}
		quota[name] = n
	}
	return quota, nil
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	quota, err := parseQuotaFlags(sampleQuota)
	if err != nil {
		return err
	}
	cfg.ApplySamplingOverrides(config.SamplingOverrides{
		Dataset:       sampleDataset,
		LabelPath:     sampleLabelPath,
		ClassList:     sampleClassList,
		ImagePath:     sampleImagePath,
		Classes:       sampleClasses,
		NumSamples:    sampleNumSamples,
		NumSamplesSet: cmd.Flags().Changed("num-samples"),
		Quota:         quota,
		Seed:          sampleSeed,
		SeedSet:       cmd.Flags().Changed("seed"),
		RandomSeed:    sampleRandomSeed,
		Removal:       sampleRemoval,
		Output:        sampleOutput,
		Manifest:      sampleManifest,
	})
	if err := cfg.ValidateSampling(); err != nil {
		return err
	}

	log, runID, err := newRunLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	sc := cfg.Sampling
	source, err := samplingSource(sc)
	if err != nil {
		return err
	}
	ds, err := source.Load()
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	log.Infow("Dataset loaded", "records", ds.Len())

	s, err := sampler.New(sampler.Options{
		Quota:      types.ClassQuota(sc.EffectiveQuota()),
		Seed:       sc.Seed,
		Removal:    sampler.RemovalPolicy(sc.Removal),
		RandomSeed: sc.RandomSeed,
	}, log)
	if err != nil {
		return err
	}
	result, err := s.Sample(ds)
	if err != nil {
		return err
	}

	if err := dataset.WriteJSONFile(sc.Output, result.Dataset); err != nil {
		return err
	}
	if sc.Manifest != "" {
		if err := manifest.Write(sc.Manifest, selectedImages(result.Dataset)); err != nil {
			return err
		}
	}

	printSampleSummary(cmd, runID, sc, ds.Len(), result)
	return nil
}

func samplingSource(sc config.SamplingConfig) (dataset.Source, error) {
	if sc.Dataset != "" {
		return &dataset.JSONSource{Path: sc.Dataset}, nil
	}
	classes, err := yolo.LoadClassList(sc.ClassList)
	if err != nil {
		return nil, err
	}
	return &dataset.LabelDirSource{
		LabelDir:  sc.LabelPath,
		ImageDir:  sc.ImagePath,
		ImageExt:  sc.ImageExt,
		ClassList: classes,
	}, nil
}

// selectedImages lists the image path of every record, or its key when the
// record carries no path.
func selectedImages(ds *types.Dataset) []string {
	paths := make([]string, 0, ds.Len())
	for _, rec := range ds.Records() {
		if rec.ImagePath != "" {
			paths = append(paths, rec.ImagePath)
		} else {
			paths = append(paths, rec.Key)
		}
	}
	return paths
}

func printSampleSummary(cmd *cobra.Command, runID string, sc config.SamplingConfig, total int, result *sampler.Result) {
	out := cmd.OutOrStdout()
	paint := newStatusPainter(out)
	quota := sc.EffectiveQuota()

	rows := make([][]string, 0, len(quota))
	for _, name := range sc.QuotaClasses() {
		status := paint.ok("met")
		if missing := result.Shortfall[name]; missing > 0 {
			status = paint.warn(fmt.Sprintf("short %d", missing))
		}
		rows = append(rows, []string{
			truncateRight(name, maxCellWidth),
			strconv.Itoa(quota[name]),
			strconv.Itoa(result.Counts[name]),
			status,
		})
	}

	fmt.Fprintf(out, "\n=== Sampling Complete ===\n")
	fmt.Fprintf(out, "Run: %s\n", runID)
	fmt.Fprintf(out, "Seed: %d\n", result.Seed)
	fmt.Fprintf(out, "Records: %d selected of %d (%d drawn, %d discarded)\n",
		result.Dataset.Len(), total, result.Considered, result.Discarded)
	fmt.Fprintf(out, "Output: %s\n", truncateLeft(sc.Output, maxCellWidth))
	if sc.Manifest != "" {
		fmt.Fprintf(out, "Manifest: %s\n", truncateLeft(sc.Manifest, maxCellWidth))
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Class", "Target", "Selected", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	))

	if len(result.Incidental) > 0 {
		names := make([]string, 0, len(result.Incidental))
		for name := range result.Incidental {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, result.Incidental[name]))
		}
		fmt.Fprintf(out, "Other classes in selection: %s\n", strings.Join(parts, ", "))
	}

	if result.Satisfied() {
		fmt.Fprintln(out, paint.ok("All targets met"))
	} else {
		fmt.Fprintln(out, paint.warn("Dataset exhausted before every target was met"))
	}
}
