// Package yolo reads the YOLO darknet label layout: a class list file with one
// class name per line, and one label file per image with lines of the form
// "<classIndex> <x> <y> <w> <h>".
package yolo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ClassList maps class names to their 0-based line index in a class list file.
type ClassList struct {
	Path  string
	names []string
	index map[string]int
}

// LoadClassList reads a class list file.
func LoadClassList(path string) (*ClassList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class list: %w", err)
	}
	defer f.Close()

	return ParseClassList(f, path)
}

// ParseClassList reads class names from r. Blank lines keep their index but
// do not name a class. A name listed twice is an error.
func ParseClassList(r io.Reader, path string) (*ClassList, error) {
	cl := &ClassList{
		Path:  path,
		index: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	for i := 0; scanner.Scan(); i++ {
		name := strings.TrimSpace(scanner.Text())
		cl.names = append(cl.names, name)
		if name == "" {
			continue
		}
		if prev, dup := cl.index[name]; dup {
			return nil, fmt.Errorf("%s:%d: class %q already defined on line %d", path, i+1, name, prev+1)
		}
		cl.index[name] = i
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read class list %s: %w", path, err)
	}

	return cl, nil
}

// Len returns the number of lines, i.e. the size of the class index range.
func (c *ClassList) Len() int {
	return len(c.names)
}

// Index returns the class index for name.
func (c *ClassList) Index(name string) (int, bool) {
	idx, ok := c.index[name]
	return idx, ok
}

// Name returns the class name at idx. Out-of-range indexes and blank lines report false.
func (c *ClassList) Name(idx int) (string, bool) {
	if idx < 0 || idx >= len(c.names) || c.names[idx] == "" {
		return "", false
	}
	return c.names[idx], true
}

// Names returns every defined class name in index order.
func (c *ClassList) Names() []string {
	out := make([]string, 0, len(c.index))
	for _, name := range c.names {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Resolve maps class names to sorted, distinct indexes. An empty list selects every class.
func (c *ClassList) Resolve(names []string) ([]int, error) {
	if len(names) == 0 {
		names = c.Names()
	}

	seen := make(map[int]bool, len(names))
	out := make([]int, 0, len(names))
	for _, name := range names {
		idx, ok := c.index[name]
		if !ok {
			return nil, &MissingClassError{Name: name, ClassList: c.Path}
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}
