// Package types contains the dataset model shared by the sampling and segmentation packages.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/elliotchance/orderedmap/v2"
)

// ErrDuplicateKey is returned when a record key is added to a dataset twice.
var ErrDuplicateKey = errors.New("duplicate record key")

// Annotation is one labelled object instance. Only Name matters to the core;
// Raw keeps the parser's original entry (geometry included) so it can be written back untouched.
type Annotation struct {
	Name string
	Raw  json.RawMessage
}

// Record is one training example, usually one image.
type Record struct {
	Key string

	// Objects is nil when the parser never populated the annotation container.
	// An image without objects has an empty, non-nil slice.
	Objects []Annotation

	ImagePath string // set by sources that know where the image lives
	LabelPath string
	Raw       json.RawMessage // original record body, if the source had one
}

// Classes returns the distinct class labels across the record's annotations.
// Annotations without a class label are skipped.
func (r *Record) Classes() ClassSet {
	set := make(ClassSet, len(r.Objects))
	for _, obj := range r.Objects {
		if obj.Name == "" {
			continue
		}
		set.Add(obj.Name)
	}
	return set
}

// ClassSet is a set of class labels.
type ClassSet map[string]struct{}

// NewClassSet builds a set from the given labels.
func NewClassSet(names ...string) ClassSet {
	set := make(ClassSet, len(names))
	for _, n := range names {
		set.Add(n)
	}
	return set
}

func (s ClassSet) Add(name string) { s[name] = struct{}{} }

func (s ClassSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the labels in lexical order.
func (s ClassSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ClassQuota maps a class label to the minimum number of records that should contain it.
type ClassQuota map[string]int

// Classes returns the quota's class labels in lexical order.
func (q ClassQuota) Classes() []string {
	out := make([]string, 0, len(q))
	for name := range q {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dataset maps record keys to records and remembers insertion order.
type Dataset struct {
	records *orderedmap.OrderedMap[string, *Record]
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{records: orderedmap.NewOrderedMap[string, *Record]()}
}

// Add appends a record. Keys must be non-empty and unique.
func (d *Dataset) Add(r *Record) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if r.Key == "" {
		return fmt.Errorf("record key is empty")
	}
	if _, exists := d.records.Get(r.Key); exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, r.Key)
	}
	d.records.Set(r.Key, r)
	return nil
}

// Get returns the record stored under key.
func (d *Dataset) Get(key string) (*Record, bool) {
	return d.records.Get(key)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return d.records.Len()
}

// Keys returns record keys in insertion order.
func (d *Dataset) Keys() []string {
	keys := make([]string, 0, d.records.Len())
	for el := d.records.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Records returns the records in insertion order.
func (d *Dataset) Records() []*Record {
	out := make([]*Record, 0, d.records.Len())
	for el := d.records.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}
