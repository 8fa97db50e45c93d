package vfs

import (
	gopath "path"
	"strings"
)

// Paths in the virtual file system are always absolute, forward-slash separated,
// and cleaned. These helpers exist so that every package touching the VFS agrees
// on one canonical form.

// IsAbs returns true if the path has a leading separator
func IsAbs(p string) bool {
	return strings.HasPrefix(p, "/")
}

// Normalize cleans a path and forces a leading separator. Forcing the
// separator before cleaning keeps "" and "." collapsing to "/"
func Normalize(p string) string {
	return gopath.Clean("/" + p)
}

// Join joins path elements and normalizes the result
func Join(elems ...string) string {
	return Normalize(gopath.Join(elems...))
}

// Dir returns the parent directory of a path. The parent of "/" is "/"
func Dir(p string) string {
	return Normalize(gopath.Dir(Normalize(p)))
}

// Base returns the last element of a path
func Base(p string) string {
	return gopath.Base(Normalize(p))
}

// Ext returns the extension of the final path element, including the dot, or ""
func Ext(p string) string {
	return gopath.Ext(p)
}

// TrimExt returns the path with its extension removed
func TrimExt(p string) string {
	return strings.TrimSuffix(p, gopath.Ext(p))
}

// Resolve resolves a specifier against a base directory. Absolute specifiers are
// returned normalized; relative specifiers ("./x", "../x", "x") are joined onto
// base
func Resolve(base string, specifier string) string {
	if IsAbs(specifier) {
		return Normalize(specifier)
	}
	return Join(base, specifier)
}

// IsDescendant returns true if p is under ancestor (or equal to it)
func IsDescendant(ancestor string, p string) bool {
	ancestor = Normalize(ancestor)
	p = Normalize(p)
	if ancestor == "/" {
		return true
	}
	return p == ancestor || strings.HasPrefix(p, ancestor+"/")
}
