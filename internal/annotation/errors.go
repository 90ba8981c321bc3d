package annotation

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the selected annotation file does not exist.
var ErrNotFound = errors.New("annotation file not found")

// ParseError wraps a JSON decode failure for an annotation file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SaveError wraps an I/O failure while persisting an annotation file.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// SortValueError reports a non-numeric score encountered during a sort.
// It is non-fatal: the sort falls back to the pre-sort order.
type SortValueError struct {
	ImgPath string
	Raw     string
}

func (e *SortValueError) Error() string {
	return fmt.Sprintf("non-numeric score %q for %s", e.Raw, e.ImgPath)
}

// ConsistencyError reports an edited path that could not be located in the
// canonical caption list at merge time. It indicates the displayed page and
// the document diverged and is logged loudly by callers.
type ConsistencyError struct {
	Caption string
	ImgPath string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("edited path %s not found under caption %q", e.ImgPath, e.Caption)
}
