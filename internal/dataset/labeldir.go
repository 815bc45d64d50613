package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/dbsmedya/gobalance/internal/types"
	"github.com/dbsmedya/gobalance/internal/yolo"
)

// LabelDirSource loads a YOLO label directory as a dataset. Record keys are
// image file names; class names are looked up in the class list. Indexes
// outside the class list produce annotations without a class label.
type LabelDirSource struct {
	LabelDir  string
	ImageDir  string
	ImageExt  string
	ClassList *yolo.ClassList
}

// Load implements Source.
func (s *LabelDirSource) Load() (*types.Dataset, error) {
	if s.ClassList == nil {
		return nil, fmt.Errorf("class list is required")
	}

	names, err := yolo.ListLabelFiles(s.LabelDir)
	if err != nil {
		return nil, err
	}

	ds := types.NewDataset()
	for _, name := range names {
		labelPath := filepath.Join(s.LabelDir, name)
		indexes, err := yolo.ParseLabelFile(labelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", labelPath, err)
		}

		objects := make([]types.Annotation, 0, len(indexes))
		for _, idx := range indexes {
			className, _ := s.ClassList.Name(idx)
			objects = append(objects, types.Annotation{Name: className})
		}

		imagePath := yolo.ImagePathFor(name, s.ImageDir, s.ImageExt)
		rec := &types.Record{
			Key:       filepath.Base(imagePath),
			Objects:   objects,
			ImagePath: imagePath,
			LabelPath: labelPath,
		}
		if err := ds.Add(rec); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
