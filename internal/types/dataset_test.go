package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(key string, classes ...string) *Record {
	objs := make([]Annotation, 0, len(classes))
	for _, c := range classes {
		objs = append(objs, Annotation{Name: c})
	}
	return &Record{Key: key, Objects: objs}
}

func TestDataset_PreservesInsertionOrder(t *testing.T) {
	ds := NewDataset()
	for _, key := range []string{"c.jpg", "a.jpg", "b.jpg"} {
		require.NoError(t, ds.Add(record(key, "person")))
	}

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"c.jpg", "a.jpg", "b.jpg"}, ds.Keys())

	recs := ds.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "c.jpg", recs[0].Key)
}

func TestDataset_Add(t *testing.T) {
	t.Run("duplicate key", func(t *testing.T) {
		ds := NewDataset()
		require.NoError(t, ds.Add(record("a.jpg")))
		err := ds.Add(record("a.jpg", "car"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateKey))
		assert.Equal(t, 1, ds.Len())
	})

	t.Run("nil record", func(t *testing.T) {
		assert.Error(t, NewDataset().Add(nil))
	})

	t.Run("empty key", func(t *testing.T) {
		assert.Error(t, NewDataset().Add(&Record{Objects: []Annotation{}}))
	})
}

func TestDataset_Get(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.Add(record("a.jpg", "car")))

	r, ok := ds.Get("a.jpg")
	require.True(t, ok)
	assert.Equal(t, "a.jpg", r.Key)

	_, ok = ds.Get("missing.jpg")
	assert.False(t, ok)
}

func TestRecord_Classes(t *testing.T) {
	r := record("a.jpg", "person", "car", "person", "")

	classes := r.Classes()
	assert.Len(t, classes, 2)
	assert.True(t, classes.Has("person"))
	assert.True(t, classes.Has("car"))
	assert.False(t, classes.Has(""))
	assert.Equal(t, []string{"car", "person"}, classes.Sorted())
}

func TestClassQuota_Classes(t *testing.T) {
	q := ClassQuota{"truck": 1, "bus": 2, "car": 0}
	assert.Equal(t, []string{"bus", "car", "truck"}, q.Classes())
}
