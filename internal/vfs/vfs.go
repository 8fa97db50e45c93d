// Package vfs implements an in-memory virtual file system.
//
// The tree is stored as an arena: a flat map from normalized absolute path to
// node, with directory nodes holding only the basenames of their children.
// Renaming a subtree is a bulk rewrite of arena keys under a prefix rather than
// pointer surgery, and serialization is a direct projection of the arena.
//
// An FS is never backed by disk. It is owned by a single editing session and is
// not safe for concurrent mutation; concurrent sessions must use independent
// instances.
package vfs

import (
	"fmt"
	"sort"
	"strings"
)

type node struct {
	isDir    bool
	content  string
	children map[string]struct{} // basenames, directories only
}

// FS is a mutable in-memory file tree rooted at "/"
type FS struct {
	nodes map[string]*node
}

// New creates an empty file system containing only the root directory
func New() *FS {
	return &FS{
		nodes: map[string]*node{
			"/": {isDir: true, children: map[string]struct{}{}},
		},
	}
}

// NewFromMap creates a file system from a flat path -> content mapping
func NewFromMap(files map[string]string) (*FS, error) {
	fs := New()
	if err := fs.Deserialize(files); err != nil {
		return nil, err
	}
	return fs, nil
}

// CreateFile writes a file at the given absolute path, creating missing parent
// directories. An existing file at the path is overwritten; an existing
// directory at the path is an ErrInvalidPath failure
func (fs *FS) CreateFile(path string, content string) error {
	p, err := fs.checkPath(path)
	if err != nil {
		return opError("create", path, err)
	}
	if n, ok := fs.nodes[p]; ok && n.isDir {
		return opError("create", path, fmt.Errorf("path is a directory: %w", ErrInvalidPath))
	}
	if err := fs.ensureDir(Dir(p)); err != nil {
		return opError("create", path, err)
	}
	fs.nodes[p] = &node{content: content}
	fs.nodes[Dir(p)].children[Base(p)] = struct{}{}
	return nil
}

// ReadFile returns the content of the file at the given path. Directories and
// absent paths fail with ErrNotFound
func (fs *FS) ReadFile(path string) (string, error) {
	p, err := fs.checkPath(path)
	if err != nil {
		return "", opError("read", path, err)
	}
	n, ok := fs.nodes[p]
	if !ok {
		return "", opError("read", path, ErrNotFound)
	}
	if n.isDir {
		return "", opError("read", path, fmt.Errorf("path is a directory: %w", ErrNotFound))
	}
	return n.content, nil
}

// UpdateFile replaces the content of an existing file
func (fs *FS) UpdateFile(path string, content string) error {
	p, err := fs.checkPath(path)
	if err != nil {
		return opError("update", path, err)
	}
	n, ok := fs.nodes[p]
	if !ok || n.isDir {
		return opError("update", path, ErrNotFound)
	}
	n.content = content
	return nil
}

// DeleteNode removes a file, or a directory and all of its descendants.
// Deleting the root is rejected with ErrInvalidOperation
func (fs *FS) DeleteNode(path string) error {
	p, err := fs.checkPath(path)
	if err != nil {
		return opError("delete", path, err)
	}
	if p == "/" {
		return opError("delete", path, fmt.Errorf("cannot delete root: %w", ErrInvalidOperation))
	}
	if _, ok := fs.nodes[p]; !ok {
		return opError("delete", path, ErrNotFound)
	}
	for _, key := range fs.keysUnder(p) {
		delete(fs.nodes, key)
	}
	delete(fs.nodes[Dir(p)].children, Base(p))
	return nil
}

// Rename moves a file or directory subtree from oldPath to newPath. The
// destination must not exist unless overwrite is set. All descendant paths are
// rewritten together; a failed rename leaves the tree untouched
func (fs *FS) Rename(oldPath string, newPath string, overwrite bool) error {
	src, err := fs.checkPath(oldPath)
	if err != nil {
		return opError("rename", oldPath, err)
	}
	dst, err := fs.checkPath(newPath)
	if err != nil {
		return opError("rename", newPath, err)
	}
	if src == "/" || dst == "/" {
		return opError("rename", oldPath, fmt.Errorf("cannot rename root: %w", ErrInvalidOperation))
	}
	srcNode, ok := fs.nodes[src]
	if !ok {
		return opError("rename", oldPath, ErrNotFound)
	}
	if src == dst {
		return nil
	}
	if srcNode.isDir && IsDescendant(src, dst) {
		return opError("rename", newPath, fmt.Errorf("destination is inside source: %w", ErrInvalidOperation))
	}
	if dstNode, ok := fs.nodes[dst]; ok {
		if !overwrite {
			return opError("rename", newPath, ErrConflict)
		}
		if dstNode.isDir && IsDescendant(dst, src) {
			return opError("rename", newPath, fmt.Errorf("source is inside destination: %w", ErrInvalidOperation))
		}
		if err := fs.DeleteNode(dst); err != nil {
			return err
		}
	}
	if err := fs.ensureDir(Dir(dst)); err != nil {
		return opError("rename", newPath, err)
	}

	// Rewrite every arena key under the source prefix
	moved := fs.keysUnder(src)
	for _, key := range moved {
		n := fs.nodes[key]
		delete(fs.nodes, key)
		fs.nodes[dst+strings.TrimPrefix(key, src)] = n
	}
	delete(fs.nodes[Dir(src)].children, Base(src))
	fs.nodes[Dir(dst)].children[Base(dst)] = struct{}{}
	return nil
}

// Move is Rename under the name used for cross-directory moves
func (fs *FS) Move(oldPath string, newPath string, overwrite bool) error {
	return fs.Rename(oldPath, newPath, overwrite)
}

// List returns the immediate children of a directory in alphabetical order.
// Directory entries carry a trailing separator
func (fs *FS) List(path string) ([]string, error) {
	p, err := fs.checkPath(path)
	if err != nil {
		return nil, opError("list", path, err)
	}
	n, ok := fs.nodes[p]
	if !ok {
		return nil, opError("list", path, ErrNotFound)
	}
	if !n.isDir {
		return nil, opError("list", path, fmt.Errorf("path is a file: %w", ErrNotFound))
	}
	entries := make([]string, 0, len(n.children))
	for base := range n.children {
		if fs.nodes[Join(p, base)].isDir {
			entries = append(entries, base+"/")
		} else {
			entries = append(entries, base)
		}
	}
	sort.Strings(entries)
	return entries, nil
}

// FileExists returns true if a file (not a directory) exists at the path
func (fs *FS) FileExists(path string) bool {
	n, ok := fs.nodes[Normalize(path)]
	return ok && !n.isDir
}

// IsDir returns true if a directory exists at the path
func (fs *FS) IsDir(path string) bool {
	n, ok := fs.nodes[Normalize(path)]
	return ok && n.isDir
}

// Paths returns the paths of all files in the tree, sorted
func (fs *FS) Paths() []string {
	var paths []string
	for p, n := range fs.nodes {
		if !n.isDir {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Serialize projects the tree to a flat path -> content mapping containing
// every file. Directories are implied by path structure. The mapping is the
// only durable representation of the tree; Deserialize(Serialize(fs)) restores
// an identical tree
func (fs *FS) Serialize() map[string]string {
	files := make(map[string]string)
	for p, n := range fs.nodes {
		if !n.isDir {
			files[p] = n.content
		}
	}
	return files
}

// Deserialize replaces the entire tree with the given mapping. Every key must
// be an already-normalized absolute path, and no key may collide with a
// directory implied by another key. On any failure the prior tree is left
// intact
func (fs *FS) Deserialize(files map[string]string) error {
	fresh := New()
	for p := range files {
		if !IsAbs(p) || Normalize(p) != p {
			return opError("deserialize", p, fmt.Errorf("path is not a normalized absolute path: %w", ErrInvalidPath))
		}
	}
	// Deterministic order so collision errors are stable
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := fresh.CreateFile(p, files[p]); err != nil {
			return err
		}
	}
	fs.nodes = fresh.nodes
	return nil
}

// checkPath validates and normalizes a caller-supplied path
func (fs *FS) checkPath(path string) (string, error) {
	if !IsAbs(path) {
		return "", fmt.Errorf("path must be absolute: %w", ErrInvalidPath)
	}
	return Normalize(path), nil
}

// ensureDir creates a directory and any missing ancestors. An existing file
// anywhere along the chain is an ErrInvalidPath failure
func (fs *FS) ensureDir(path string) error {
	if n, ok := fs.nodes[path]; ok {
		if !n.isDir {
			return fmt.Errorf("ancestor is a file: %s: %w", path, ErrInvalidPath)
		}
		return nil
	}
	if err := fs.ensureDir(Dir(path)); err != nil {
		return err
	}
	fs.nodes[path] = &node{isDir: true, children: map[string]struct{}{}}
	fs.nodes[Dir(path)].children[Base(path)] = struct{}{}
	return nil
}

// keysUnder returns all arena keys at or under the given path
func (fs *FS) keysUnder(path string) []string {
	var keys []string
	for key := range fs.nodes {
		if IsDescendant(path, key) {
			keys = append(keys, key)
		}
	}
	return keys
}
