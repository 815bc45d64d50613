// Package segment splits a YOLO-labelled corpus into per-class manifests.
//
// Segmentation is non-exclusive: an image that contains several kept classes
// is listed in each of their manifests.
package segment

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/gobalance/internal/logger"
	"github.com/dbsmedya/gobalance/internal/manifest"
	"github.com/dbsmedya/gobalance/internal/yolo"
)

// Options describes one segmentation run.
type Options struct {
	LabelDir  string
	ImageDir  string // prefix for derived image paths
	ImageExt  string // e.g. ".jpg"
	ClassList *yolo.ClassList
	Keep      []int // class indexes to keep, as returned by ClassList.Resolve
}

// Result holds the manifests of one run, keyed by class index in ascending order.
type Result struct {
	Manifests    *orderedmap.OrderedMap[int, *manifest.ClassManifest]
	FilesScanned int
	FilesSkipped int
	Errors       []error // one per skipped label file
}

// List returns the manifests in class index order.
func (r *Result) List() []*manifest.ClassManifest {
	out := make([]*manifest.ClassManifest, 0, r.Manifests.Len())
	for el := r.Manifests.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Segmenter builds per-class manifests from a label directory.
type Segmenter struct {
	opts   Options
	logger *logger.Logger
}

// New validates opts. A nil logger discards output.
func New(opts Options, log *logger.Logger) (*Segmenter, error) {
	if opts.LabelDir == "" {
		return nil, fmt.Errorf("label directory is required")
	}
	if opts.ClassList == nil {
		return nil, fmt.Errorf("class list is required")
	}
	for _, idx := range opts.Keep {
		if _, ok := opts.ClassList.Name(idx); !ok {
			return nil, fmt.Errorf("class index %d is not defined in %s", idx, opts.ClassList.Path)
		}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Segmenter{opts: opts, logger: log}, nil
}

// Segment scans every label file. A file with a malformed line is skipped as a
// whole and reported in Result.Errors; it never lands in a manifest.
func (s *Segmenter) Segment() (*Result, error) {
	names, err := yolo.ListLabelFiles(s.opts.LabelDir)
	if err != nil {
		return nil, err
	}

	result := &Result{Manifests: orderedmap.NewOrderedMap[int, *manifest.ClassManifest]()}
	for _, idx := range s.opts.Keep {
		name, _ := s.opts.ClassList.Name(idx)
		result.Manifests.Set(idx, manifest.New(idx, name))
	}

	s.logger.Infow("Segmenting label directory",
		"label_dir", s.opts.LabelDir,
		"label_files", len(names),
		"classes", len(s.opts.Keep),
	)

	for _, name := range names {
		labelPath := filepath.Join(s.opts.LabelDir, name)
		result.FilesScanned++

		indexes, err := yolo.ParseLabelFile(labelPath)
		if err != nil {
			result.FilesSkipped++
			result.Errors = append(result.Errors, err)

			var malformed *yolo.MalformedLabelLineError
			if errors.As(err, &malformed) {
				s.logger.WithFile(labelPath).Errorw("Skipping label file with malformed line",
					"line", malformed.Line,
					"text", malformed.Text,
				)
			} else {
				s.logger.WithFile(labelPath).Errorw("Skipping unreadable label file", "error", err)
			}
			continue
		}

		imagePath := yolo.ImagePathFor(name, s.opts.ImageDir, s.opts.ImageExt)
		for _, idx := range yolo.Distinct(indexes) {
			m, kept := result.Manifests.Get(idx)
			if !kept {
				continue
			}
			m.Append(imagePath, labelPath)
		}
	}

	for _, m := range result.List() {
		s.logger.WithClass(m.ClassName).Debugw("Class segmented", "images", m.Len())
	}
	return result, nil
}
