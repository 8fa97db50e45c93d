package transform

import (
	"strings"

	"github.com/patchbay-ui/patchbay/internal/vfs"
)

// resolutionKind classifies what a specifier resolved to
type resolutionKind int

const (
	resolvedModule   resolutionKind = iota // a file in the VFS
	resolvedStyle                          // a style sheet, aggregated rather than loaded
	resolvedExternal                       // a bare package name served from the CDN
	resolvedMissing                        // a local path with no matching file
)

// resolution is the outcome of resolving one import specifier
type resolution struct {
	Kind resolutionKind
	Path string // VFS path for module/style/missing kinds
	URL  string // delivery address for external kind
}

// extensionCandidates is the ordered list of suffixes tried when a specifier
// has no exact match: markup-capable scripts first, then plain scripts, then
// the directory index convention
var extensionCandidates = []string{".jsx", ".js", "/index.jsx", "/index.js"}

// resolver resolves import specifiers against one VFS snapshot
type resolver struct {
	snap Snapshot
	cfg  Config
}

// resolve applies the resolution order from the transformer contract: alias
// rewrite, then absolute lookup, then relative-to-importer, with extension
// guessing at each step. Bare specifiers are delegated to the external package
// CDN. Local specifiers that match nothing resolve to a missing-module marker,
// never an error
func (r resolver) resolve(importerPath string, specifier string) resolution {
	local := specifier
	switch {
	case r.isAliased(specifier):
		local = "/" + strings.TrimPrefix(strings.TrimPrefix(specifier, r.cfg.AliasPrefix), "/")
	case vfs.IsAbs(specifier):
		// Already a VFS path
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		local = vfs.Resolve(vfs.Dir(importerPath), specifier)
	default:
		return resolution{Kind: resolvedExternal, URL: r.cfg.PackageBaseURL + specifier}
	}
	local = vfs.Resolve(vfs.Dir(importerPath), local)

	if path, ok := r.lookup(local); ok {
		if strings.HasSuffix(path, ".css") {
			return resolution{Kind: resolvedStyle, Path: path}
		}
		return resolution{Kind: resolvedModule, Path: path}
	}
	return resolution{Kind: resolvedMissing, Path: local}
}

// lookup tries the literal path and then each extension candidate in order,
// returning the first existing file. The candidate list is fixed so resolution
// is deterministic
func (r resolver) lookup(path string) (string, bool) {
	if r.snap.FileExists(path) {
		return path, true
	}
	for _, suffix := range extensionCandidates {
		if candidate := path + suffix; r.snap.FileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r resolver) isAliased(specifier string) bool {
	prefix := r.cfg.AliasPrefix
	return specifier == prefix || strings.HasPrefix(specifier, prefix+"/")
}
