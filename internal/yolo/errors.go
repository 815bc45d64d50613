package yolo

import "fmt"

// MalformedLabelLineError reports a label line whose leading token is not an integer class index.
type MalformedLabelLineError struct {
	Path string
	Line int // 1-based
	Text string
	Err  error
}

func (e *MalformedLabelLineError) Error() string {
	return fmt.Sprintf("%s:%d: malformed label line %q: %v", e.Path, e.Line, e.Text, e.Err)
}

func (e *MalformedLabelLineError) Unwrap() error { return e.Err }

// MissingClassError reports a requested class name that is absent from the class list.
type MissingClassError struct {
	Name      string
	ClassList string
}

func (e *MissingClassError) Error() string {
	if e.ClassList == "" {
		return fmt.Sprintf("class %q not found in class list", e.Name)
	}
	return fmt.Sprintf("class %q not found in class list %s", e.Name, e.ClassList)
}
