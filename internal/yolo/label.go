package yolo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// LabelExt is the extension of label files.
const LabelExt = ".txt"

// ParseLabelFile returns the class index of every annotation line in the file, in file order.
func ParseLabelFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	return ParseLabels(f, path)
}

// ParseLabels reads annotation lines from r. Blank lines are skipped; any other
// line must start with an integer class index. The geometry tokens are not inspected.
func ParseLabels(r io.Reader, path string) ([]int, error) {
	var indexes []int

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, &MalformedLabelLineError{Path: path, Line: line, Text: text, Err: err}
		}
		indexes = append(indexes, idx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file %s: %w", path, err)
	}

	return indexes, nil
}

// Distinct collapses repeated class indexes, keeping first-appearance order.
func Distinct(indexes []int) []int {
	seen := make(map[int]bool, len(indexes))
	out := make([]int, 0, len(indexes))
	for _, idx := range indexes {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

// ImagePathFor derives the image path for a label file name: the label
// extension is swapped for imageExt and the result is prefixed with prefix.
// The prefix is prepended as is, so a directory prefix needs its trailing
// separator ("images/"), while "images/train_" names files train_<stem>.
func ImagePathFor(labelName, prefix, imageExt string) string {
	return prefix + strings.TrimSuffix(labelName, LabelExt) + imageExt
}

// ListLabelFiles returns the names of the label files in dir, sorted.
func ListLabelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list label directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), LabelExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
