// Package editor applies structured text edits to files in a virtual file
// system. These operations are the primitives a generation agent uses to
// mutate project files incrementally.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/patchbay-ui/patchbay/internal/vfs"
)

var (
	// ErrNoMatch indicates the replacement target does not occur in the file
	ErrNoMatch = errors.New("no match")

	// ErrAmbiguousMatch indicates the replacement target occurs more than once
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrOutOfRange indicates a line number outside the file
	ErrOutOfRange = errors.New("line out of range")
)

// Editor applies edit commands to a single file system. A failed command
// leaves the file system unchanged
type Editor struct {
	fs *vfs.FS
}

func New(fs *vfs.FS) *Editor {
	return &Editor{fs: fs}
}

// View returns file content with 1-based line numbers. If the path denotes a
// directory, its immediate listing is returned instead. viewRange optionally
// restricts output to [start, end] lines; an end of -1 means end of file
func (e *Editor) View(path string, viewRange []int) (string, error) {
	if e.fs.IsDir(path) {
		entries, err := e.fs.List(path)
		if err != nil {
			return "", err
		}
		var result strings.Builder
		result.WriteString(fmt.Sprintf("Directory contents of %s:\n", path))
		for _, entry := range entries {
			result.WriteString(fmt.Sprintf("  %s\n", entry))
		}
		return result.String(), nil
	}

	content, err := e.fs.ReadFile(path)
	if err != nil {
		return "", err
	}

	lines := strings.Split(content, "\n")
	startLine := 1
	endLine := len(lines)
	if len(viewRange) == 2 {
		startLine = viewRange[0]
		endLine = viewRange[1]
		if endLine == -1 || endLine > len(lines) {
			endLine = len(lines)
		}
		if startLine < 1 {
			startLine = 1
		}
	}

	var result strings.Builder
	for i := startLine - 1; i < endLine; i++ {
		result.WriteString(fmt.Sprintf("%d: %s\n", i+1, lines[i]))
	}
	return result.String(), nil
}

// StrReplace replaces exactly one occurrence of oldStr with newStr. The
// occurrence must be unique within the file
func (e *Editor) StrReplace(path string, oldStr string, newStr string) error {
	content, err := e.fs.ReadFile(path)
	if err != nil {
		return err
	}

	count := strings.Count(content, oldStr)
	if count == 0 {
		return fmt.Errorf("old text not found in %s: %w", path, ErrNoMatch)
	}
	if count > 1 {
		return fmt.Errorf("old text found %d times in %s, must be unique: %w", count, path, ErrAmbiguousMatch)
	}

	return e.fs.UpdateFile(path, strings.Replace(content, oldStr, newStr, 1))
}

// Insert splices text as new lines after the given 1-based line number. Line 0
// inserts before the first line
func (e *Editor) Insert(path string, afterLine int, text string) error {
	content, err := e.fs.ReadFile(path)
	if err != nil {
		return err
	}

	lines := strings.Split(content, "\n")
	if afterLine < 0 || afterLine > len(lines) {
		return fmt.Errorf("insert line %d outside file with %d lines: %w", afterLine, len(lines), ErrOutOfRange)
	}

	inserted := strings.Split(text, "\n")
	result := make([]string, 0, len(lines)+len(inserted))
	result = append(result, lines[:afterLine]...)
	result = append(result, inserted...)
	result = append(result, lines[afterLine:]...)

	return e.fs.UpdateFile(path, strings.Join(result, "\n"))
}
