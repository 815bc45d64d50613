package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
	}{
		{"several paths", []string{"data/images/b.jpg", "data/images/a.jpg", "data/images/c d.jpg"}},
		{"single path", []string{"x.png"}},
		{"empty", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifest_person.txt")
			require.NoError(t, Write(path, tt.paths))

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, tt.paths, got)
		})
	}
}

func TestWrite_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.txt")
	require.NoError(t, Write(path, []string{"a.jpg", "b.jpg"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a.jpg\nb.jpg\n", string(content))
}

func TestWrite_RejectsUnreadablePaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
	}{
		{name: "line feed", paths: []string{"a\nb.jpg"}},
		{name: "carriage return", paths: []string{"a\rb.jpg"}},
		{name: "empty path", paths: []string{"a.jpg", "", "b.jpg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "m.txt")
			assert.Error(t, Write(path, tt.paths))
			assert.NoFileExists(t, path)
		})
	}
}

func TestRead_ToleratesLegacyEmptyManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0644))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassManifest_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	m := New(2, "car")
	m.Append("images/a.jpg", "labels/a.txt")
	m.Append("images/b.jpg", "labels/b.txt")
	require.NoError(t, m.Save(dir))

	assert.Equal(t, filepath.Join(dir, "manifest_car.txt"), m.Path)
	assert.Equal(t, 2, m.Len())

	loaded, err := Load(m.Path, "labels")
	require.NoError(t, err)
	assert.Equal(t, "car", loaded.ClassName)
	assert.Equal(t, m.ImagePaths, loaded.ImagePaths)
	assert.Equal(t, []string{filepath.Join("labels", "a.txt"), filepath.Join("labels", "b.txt")}, loaded.LabelPaths)
	assert.Equal(t, m.Path, loaded.Path)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "manifest_x.txt"), "labels")
	assert.Error(t, err)
}

func TestClassNameFromFile(t *testing.T) {
	name, ok := ClassNameFromFile("/out/manifest_traffic light.txt")
	assert.True(t, ok)
	assert.Equal(t, "traffic light", name)

	_, ok = ClassNameFromFile("/out/person.txt")
	assert.False(t, ok)
}

func TestLabelPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("labels", "COCO_1.txt"), LabelPathFor("data/images/COCO_1.jpg", "labels"))
	assert.Equal(t, "img.txt", LabelPathFor("img.png", ""))
}
