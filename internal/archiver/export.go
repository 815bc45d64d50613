package archiver

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/klauspost/compress/zip"

	"github.com/dbsmedya/gobalance/internal/logger"
	"github.com/dbsmedya/gobalance/internal/manifest"
	"github.com/dbsmedya/gobalance/internal/types"
)

// Archive layout prefixes.
const (
	ImagesPrefix = "images/"
	LabelsPrefix = "labels/"
)

// ArchiveWriteError reports an I/O failure while exporting an archive.
// Source is empty when the failure concerns the archive itself.
type ArchiveWriteError struct {
	Archive string
	Source  string
	Op      string
	Err     error
}

func (e *ArchiveWriteError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("archive %s: %s: %v", e.Archive, e.Op, e.Err)
	}
	return fmt.Sprintf("archive %s: %s %s: %v", e.Archive, e.Op, e.Source, e.Err)
}

func (e *ArchiveWriteError) Unwrap() error { return e.Err }

// Collision records two sources that map to the same archive entry. The
// entry keeps its first position and the content of the later source.
type Collision struct {
	Entry    string
	Replaced string
	Kept     string
}

// ExportResult describes a written archive.
type ExportResult struct {
	Archive    string
	Entries    []types.ArchiveEntry
	Collisions []Collision
	Bytes      int64
}

// Exporter packages class manifests into zip archives.
type Exporter struct {
	logger *logger.Logger
}

// NewExporter creates an Exporter. A nil logger discards output.
func NewExporter(log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Exporter{logger: log}
}

// ExportArchive packages m with the default exporter.
func ExportArchive(m *manifest.ClassManifest, classListPath, destPath string) (*ExportResult, error) {
	return NewExporter(nil).Export(m, classListPath, destPath)
}

// Plan lists the archive entries for a manifest: images under images/, labels
// under labels/, then the manifest file and the class list at the root.
// Entries are named by base file name only; sources from different directories
// sharing a base name collide and the last one wins.
func Plan(m *manifest.ClassManifest, classListPath string) ([]types.ArchiveEntry, []Collision) {
	plan := orderedmap.NewOrderedMap[string, string]()
	var collisions []Collision

	add := func(entry, source string) {
		if prev, exists := plan.Get(entry); exists && prev != source {
			collisions = append(collisions, Collision{Entry: entry, Replaced: prev, Kept: source})
		}
		plan.Set(entry, source)
	}

	for _, img := range m.ImagePaths {
		add(path.Join(ImagesPrefix, filepath.Base(img)), img)
	}
	for _, lbl := range m.LabelPaths {
		add(path.Join(LabelsPrefix, filepath.Base(lbl)), lbl)
	}
	add(filepath.Base(m.Path), m.Path)
	add(filepath.Base(classListPath), classListPath)

	entries := make([]types.ArchiveEntry, 0, plan.Len())
	for el := plan.Front(); el != nil; el = el.Next() {
		entries = append(entries, types.ArchiveEntry{Name: el.Key, Source: el.Value})
	}
	return entries, collisions
}

// Export writes the archive for m to destPath.
//
// Every source is checked before anything is written. The archive is built
// in a temporary file next to destPath and renamed into place only after it
// was closed successfully; on any failure the temporary file is removed, so
// destPath is either the complete archive or untouched.
func (e *Exporter) Export(m *manifest.ClassManifest, classListPath, destPath string) (*ExportResult, error) {
	if m.Path == "" {
		return nil, &ArchiveWriteError{Archive: destPath, Op: "plan", Err: fmt.Errorf("manifest for class %q has not been saved", m.ClassName)}
	}

	entries, collisions := Plan(m, classListPath)
	log := e.logger.WithClass(m.ClassName)
	for _, c := range collisions {
		log.Warnw("Archive entry name collision, keeping the later file",
			"entry", c.Entry,
			"replaced", c.Replaced,
			"kept", c.Kept,
		)
	}

	for _, entry := range entries {
		info, err := os.Stat(entry.Source)
		if err != nil {
			return nil, &ArchiveWriteError{Archive: destPath, Source: entry.Source, Op: "stat", Err: err}
		}
		if info.IsDir() {
			return nil, &ArchiveWriteError{Archive: destPath, Source: entry.Source, Op: "stat", Err: fmt.Errorf("is a directory")}
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return nil, &ArchiveWriteError{Archive: destPath, Op: "create", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, entry := range entries {
		if err := addFile(zw, entry); err != nil {
			return nil, &ArchiveWriteError{Archive: destPath, Source: entry.Source, Op: "write", Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &ArchiveWriteError{Archive: destPath, Op: "finalize", Err: err}
	}
	if err := tmp.Chmod(0644); err != nil {
		return nil, &ArchiveWriteError{Archive: destPath, Op: "chmod", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &ArchiveWriteError{Archive: destPath, Op: "close", Err: err}
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return nil, &ArchiveWriteError{Archive: destPath, Op: "rename", Err: err}
	}
	committed = true

	result := &ExportResult{
		Archive:    destPath,
		Entries:    entries,
		Collisions: collisions,
	}
	if info, err := os.Stat(destPath); err == nil {
		result.Bytes = info.Size()
	}

	log.Infow("Archive written",
		"archive", destPath,
		"entries", len(entries),
		"bytes", result.Bytes,
	)
	return result, nil
}

func addFile(zw *zip.Writer, entry types.ArchiveEntry) error {
	f, err := os.Open(entry.Source)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = entry.Name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
