package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gobalance/internal/dataset"
	"github.com/dbsmedya/gobalance/internal/yolo"
)

var (
	classesClassList string
	classesLabelPath string
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List the classes of a class list",
	Long: `Classes prints every class of a class list with its index. With
--label-path it also counts the label files that contain each class.

The class list and label directory default to the segmentation section of
the configuration file.

Example:
  gobalance classes --class-list classes.txt --label-path labels/`,
	RunE: runClasses,
}

func init() {
	classesCmd.Flags().StringVar(&classesClassList, "class-list", "", "Class list file")
	classesCmd.Flags().StringVar(&classesLabelPath, "label-path", "", "Label directory to count classes in")

	rootCmd.AddCommand(classesCmd)
}

func runClasses(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	classListPath := classesClassList
	if classListPath == "" {
		classListPath = cfg.Segmentation.ClassList
	}
	if classListPath == "" {
		return fmt.Errorf("--class-list is required")
	}
	labelPath := classesLabelPath
	if labelPath == "" {
		labelPath = cfg.Segmentation.LabelPath
	}

	classes, err := yolo.LoadClassList(classListPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if classes.Len() == 0 {
		fmt.Fprintf(out, "No classes defined in %s\n", classListPath)
		return nil
	}

	var counts map[string]int
	if labelPath != "" {
		ds, err := (&dataset.LabelDirSource{LabelDir: labelPath, ClassList: classes}).Load()
		if err != nil {
			return err
		}
		idx, err := dataset.BuildIndex(ds)
		if err != nil {
			return err
		}
		counts = idx.ClassCounts()
	}

	headers := []string{"Index", "Class"}
	aligns := []columnAlignment{alignRight, alignLeft}
	if counts != nil {
		headers = append(headers, "Images")
		aligns = append(aligns, alignRight)
	}

	rows := make([][]string, 0, classes.Len())
	defined := 0
	for i := 0; i < classes.Len(); i++ {
		name, ok := classes.Name(i)
		if !ok {
			continue
		}
		defined++
		row := []string{strconv.Itoa(i), truncateRight(name, maxCellWidth)}
		if counts != nil {
			row = append(row, strconv.Itoa(counts[name]))
		}
		rows = append(rows, row)
	}

	fmt.Fprintf(out, "Classes defined in %s:\n\n", classListPath)
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	fmt.Fprintf(out, "\nTotal: %d class(es)\n", defined)
	return nil
}
