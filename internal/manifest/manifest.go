// Package manifest stores per-class lists of image paths.
//
// On disk a manifest is a text file named manifest_<className>.txt with one
// image path per line. Label paths are kept alongside in memory; when a
// manifest is read back they are derived from the image names.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	filePrefix = "manifest_"
	fileExt    = ".txt"
	labelExt   = ".txt"
)

// ClassManifest lists the images and label files that contain one class.
// ImagePaths and LabelPaths are parallel.
type ClassManifest struct {
	ClassIndex int
	ClassName  string
	ImagePaths []string
	LabelPaths []string
	Path       string // set once the manifest is saved or loaded
}

// New returns an empty manifest for a class.
func New(classIndex int, className string) *ClassManifest {
	return &ClassManifest{
		ClassIndex: classIndex,
		ClassName:  className,
		ImagePaths: []string{},
		LabelPaths: []string{},
	}
}

// FileName returns the manifest file name for a class.
func FileName(className string) string {
	return filePrefix + className + fileExt
}

// ClassNameFromFile extracts the class name from a manifest file name.
func ClassNameFromFile(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, filePrefix) || !strings.HasSuffix(base, fileExt) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(base, filePrefix), fileExt), true
}

// Append adds one image/label pair.
func (m *ClassManifest) Append(imagePath, labelPath string) {
	m.ImagePaths = append(m.ImagePaths, imagePath)
	m.LabelPaths = append(m.LabelPaths, labelPath)
}

// Len returns the number of entries.
func (m *ClassManifest) Len() int {
	return len(m.ImagePaths)
}

// Save writes the image list to dir/manifest_<className>.txt and records the path.
func (m *ClassManifest) Save(dir string) error {
	path := filepath.Join(dir, FileName(m.ClassName))
	if err := Write(path, m.ImagePaths); err != nil {
		return err
	}
	m.Path = path
	return nil
}

// Write stores paths one per line. An empty list produces an empty file.
// Empty paths and paths with line breaks cannot be read back and are rejected
// before the file is touched.
func Write(path string, paths []string) error {
	for i, p := range paths {
		if p == "" {
			return fmt.Errorf("manifest %s: path %d is empty", path, i)
		}
		if strings.ContainsAny(p, "\r\n") {
			return fmt.Errorf("manifest %s: path %q contains a line break", path, p)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, p := range paths {
		w.WriteString(p)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return f.Close()
}

// Read returns the paths stored in a manifest file, in order. Blank lines are skipped.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	paths := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return paths, nil
}

// Load reads a saved manifest and pairs every image with labelDir/<stem>.txt.
// ClassIndex is -1 because the file does not record it.
func Load(path, labelDir string) (*ClassManifest, error) {
	images, err := Read(path)
	if err != nil {
		return nil, err
	}

	className, ok := ClassNameFromFile(path)
	if !ok {
		className = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	m := New(-1, className)
	for _, img := range images {
		m.Append(img, LabelPathFor(img, labelDir))
	}
	m.Path = path
	return m, nil
}

// LabelPathFor returns the label file for an image: same stem, .txt, inside labelDir.
func LabelPathFor(imagePath, labelDir string) string {
	base := filepath.Base(imagePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(labelDir, stem+labelExt)
}
