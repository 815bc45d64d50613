package archiver

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gobalance/internal/manifest"
	"github.com/dbsmedya/gobalance/internal/types"
)

// ============================================================================
// Test Helpers
// ============================================================================

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// exportFixture builds a saved manifest with two images and their labels.
func exportFixture(t *testing.T) (m *manifest.ClassManifest, classList, root string) {
	t.Helper()
	root = t.TempDir()

	classList = writeFile(t, filepath.Join(root, "classes.txt"), "car\nperson\n")
	m = manifest.New(0, "car")
	for _, stem := range []string{"a", "b"} {
		img := writeFile(t, filepath.Join(root, "images", stem+".jpg"), "jpeg-"+stem)
		lbl := writeFile(t, filepath.Join(root, "labels", stem+".txt"), "0 0.5 0.5 0.1 0.1\n")
		m.Append(img, lbl)
	}
	require.NoError(t, m.Save(root))
	return m, classList, root
}

func readArchive(t *testing.T, path string) ([]string, map[string]string) {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	contents := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		names = append(names, f.Name)
		contents[f.Name] = string(data)
	}
	return names, contents
}

func tempLeftovers(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			out = append(out, e.Name())
		}
	}
	return out
}

// ============================================================================
// Plan Tests
// ============================================================================

func TestPlan_Layout(t *testing.T) {
	m := manifest.New(0, "car")
	m.Append("/imgs/a.jpg", "/lbls/a.txt")
	m.Append("/imgs/b.jpg", "/lbls/b.txt")
	m.Path = "/out/manifest_car.txt"

	entries, collisions := Plan(m, "/cfg/classes.txt")

	assert.Empty(t, collisions)
	assert.Equal(t, []types.ArchiveEntry{
		{Name: "images/a.jpg", Source: "/imgs/a.jpg"},
		{Name: "images/b.jpg", Source: "/imgs/b.jpg"},
		{Name: "labels/a.txt", Source: "/lbls/a.txt"},
		{Name: "labels/b.txt", Source: "/lbls/b.txt"},
		{Name: "manifest_car.txt", Source: "/out/manifest_car.txt"},
		{Name: "classes.txt", Source: "/cfg/classes.txt"},
	}, entries)
}

func TestPlan_EmptyManifest(t *testing.T) {
	m := manifest.New(2, "dog")
	m.Path = "/out/manifest_dog.txt"

	entries, collisions := Plan(m, "/cfg/classes.txt")

	assert.Empty(t, collisions)
	require.Len(t, entries, 2)
	assert.Equal(t, "manifest_dog.txt", entries[0].Name)
	assert.Equal(t, "classes.txt", entries[1].Name)
}

func TestPlan_CollisionKeepsPositionAndLastSource(t *testing.T) {
	m := manifest.New(0, "car")
	m.Append("/day/a.jpg", "/lbls/a.txt")
	m.Append("/day/b.jpg", "/lbls/b.txt")
	m.Append("/night/a.jpg", "/lbls/a.txt")
	m.Path = "/out/manifest_car.txt"

	entries, collisions := Plan(m, "/cfg/classes.txt")

	// Same source twice is not a collision
	require.Len(t, collisions, 1)
	assert.Equal(t, Collision{Entry: "images/a.jpg", Replaced: "/day/a.jpg", Kept: "/night/a.jpg"}, collisions[0])

	require.Len(t, entries, 5)
	assert.Equal(t, types.ArchiveEntry{Name: "images/a.jpg", Source: "/night/a.jpg"}, entries[0])
	assert.Equal(t, "images/b.jpg", entries[1].Name)
}

// ============================================================================
// Export Tests
// ============================================================================

func TestExport_RoundTrip(t *testing.T) {
	m, classList, root := exportFixture(t)
	dest := filepath.Join(root, "zips", "car.zip")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0755))

	res, err := ExportArchive(m, classList, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, res.Archive)
	assert.Len(t, res.Entries, 6)
	assert.Empty(t, res.Collisions)
	assert.Positive(t, res.Bytes)

	names, contents := readArchive(t, dest)
	assert.Equal(t, []string{
		"images/a.jpg", "images/b.jpg",
		"labels/a.txt", "labels/b.txt",
		"manifest_car.txt", "classes.txt",
	}, names)

	for _, entry := range res.Entries {
		want, err := os.ReadFile(entry.Source)
		require.NoError(t, err)
		assert.Equal(t, string(want), contents[entry.Name], "entry %s", entry.Name)
	}
	assert.Empty(t, tempLeftovers(t, filepath.Dir(dest)))
}

func TestExport_ReplacesExistingArchive(t *testing.T) {
	m, classList, root := exportFixture(t)
	dest := writeFile(t, filepath.Join(root, "car.zip"), "stale")

	_, err := NewExporter(nil).Export(m, classList, dest)
	require.NoError(t, err)

	names, _ := readArchive(t, dest)
	assert.Len(t, names, 6)
}

func TestExport_MissingSource(t *testing.T) {
	m, classList, root := exportFixture(t)
	require.NoError(t, os.Remove(m.ImagePaths[1]))
	dest := filepath.Join(root, "car.zip")

	_, err := ExportArchive(m, classList, dest)
	require.Error(t, err)

	var awe *ArchiveWriteError
	require.True(t, errors.As(err, &awe))
	assert.Equal(t, dest, awe.Archive)
	assert.Equal(t, m.ImagePaths[1], awe.Source)
	assert.Equal(t, "stat", awe.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no archive should be left behind")
	assert.Empty(t, tempLeftovers(t, root))
}

func TestExport_MissingSourceKeepsExistingArchive(t *testing.T) {
	m, classList, root := exportFixture(t)
	dest := writeFile(t, filepath.Join(root, "car.zip"), "previous")
	require.NoError(t, os.Remove(m.LabelPaths[0]))

	_, err := ExportArchive(m, classList, dest)
	require.Error(t, err)

	data, readErr := os.ReadFile(dest)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(data))
}

func TestExport_MissingDestinationDir(t *testing.T) {
	m, classList, root := exportFixture(t)
	dest := filepath.Join(root, "missing", "car.zip")

	_, err := ExportArchive(m, classList, dest)
	require.Error(t, err)

	var awe *ArchiveWriteError
	require.True(t, errors.As(err, &awe))
	assert.Equal(t, "create", awe.Op)
	assert.Empty(t, awe.Source)
	assert.Contains(t, err.Error(), dest)
}

func TestExport_UnsavedManifest(t *testing.T) {
	m := manifest.New(0, "car")
	dest := filepath.Join(t.TempDir(), "car.zip")

	_, err := ExportArchive(m, "classes.txt", dest)
	require.Error(t, err)

	var awe *ArchiveWriteError
	require.True(t, errors.As(err, &awe))
	assert.Equal(t, "plan", awe.Op)
}

func TestExport_Collision(t *testing.T) {
	m, classList, root := exportFixture(t)
	dup := writeFile(t, filepath.Join(root, "other", "a.jpg"), "jpeg-other")
	m.Append(dup, m.LabelPaths[0])
	require.NoError(t, m.Save(root))

	dest := filepath.Join(root, "car.zip")
	res, err := ExportArchive(m, classList, dest)
	require.NoError(t, err)
	require.Len(t, res.Collisions, 1)
	assert.Equal(t, "images/a.jpg", res.Collisions[0].Entry)

	names, contents := readArchive(t, dest)
	assert.Len(t, names, 6)
	assert.Equal(t, "images/a.jpg", names[0])
	assert.Equal(t, "jpeg-other", contents["images/a.jpg"])
}

func TestArchiveWriteError_Message(t *testing.T) {
	inner := errors.New("disk full")

	withSource := &ArchiveWriteError{Archive: "out.zip", Source: "a.jpg", Op: "write", Err: inner}
	assert.Equal(t, "archive out.zip: write a.jpg: disk full", withSource.Error())
	assert.ErrorIs(t, withSource, inner)

	noSource := &ArchiveWriteError{Archive: "out.zip", Op: "rename", Err: inner}
	assert.Equal(t, "archive out.zip: rename: disk full", noSource.Error())
}
