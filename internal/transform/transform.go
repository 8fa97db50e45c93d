// Package transform converts a set of interdependent component source files
// stored in a virtual file system into browser-loadable ES modules.
//
// A transform pass walks the static import graph from a designated entry file,
// rewrites import specifiers to synthetic addresses, and produces an import
// map plus the rewritten module bodies. It executes no user code, mutates
// nothing, and is deterministic for a given snapshot, so passes can be re-run
// or cached freely.
package transform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/patchbay-ui/patchbay/internal/vfs"
)

var (
	// ErrEntryNotFound indicates the entry specifier matched no file in the
	// snapshot. Without an entry there is no graph to walk, so this is
	// terminal; every other resolution failure degrades to a per-module
	// diagnostic or a runtime placeholder
	ErrEntryNotFound = errors.New("entry module not found")

	// ErrEntryTransform indicates the entry module itself failed to parse,
	// which is equally terminal: no partial preview is possible
	ErrEntryTransform = errors.New("entry module failed to transform")
)

// Snapshot is the read-only view of a virtual file system that a transform
// pass operates on
type Snapshot interface {
	ReadFile(path string) (string, error)
	FileExists(path string) bool
}

// Config controls specifier resolution for a transform pass
type Config struct {
	// AliasPrefix is rewritten to the VFS root, e.g. "@/components/Foo"
	AliasPrefix string
	// Entry is the specifier of the root module of the dependency graph
	Entry string
	// PackageBaseURL prefixes bare package specifiers to form CDN addresses
	PackageBaseURL string
	// ModuleBasePath prefixes VFS paths to form synthetic module addresses
	ModuleBasePath string
}

func (c Config) withDefaults() Config {
	if c.AliasPrefix == "" {
		c.AliasPrefix = "@"
	}
	if c.Entry == "" {
		c.Entry = "/App"
	}
	if c.PackageBaseURL == "" {
		c.PackageBaseURL = "https://esm.sh/"
	}
	if c.ModuleBasePath == "" {
		c.ModuleBasePath = "/preview/modules"
	}
	return c
}

// Diagnostic is a non-fatal per-module failure surfaced to the preview host
type Diagnostic struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Result is the product of one transform pass
type Result struct {
	// EntryAddress is the synthetic address of the entry module
	EntryAddress string `json:"entryAddress"`
	// ImportMap maps specifiers and canonical VFS paths to loadable addresses
	ImportMap map[string]string `json:"importMap"`
	// Modules maps synthetic addresses to rewritten module bodies
	Modules map[string]string `json:"modules"`
	// Styles is the aggregate text of all imported style sheets, ordered by
	// path. The preview host injects it; it is never loaded as a module
	Styles string `json:"styles"`
	// Diagnostics lists per-module syntax failures. Modules that transformed
	// cleanly are usable regardless of entries here
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Transformer runs transform passes with a fixed configuration
type Transformer struct {
	cfg Config
}

func New(cfg Config) *Transformer {
	return &Transformer{cfg: cfg.withDefaults()}
}

// Transform walks the import graph of the snapshot from the configured entry
// and produces the import map, module bodies, aggregate styles, and
// diagnostics for one preview render
func (t *Transformer) Transform(ctx context.Context, snap Snapshot) (*Result, error) {
	tracer := otel.Tracer("github.com/patchbay-ui/patchbay/internal/transform")
	_, span := tracer.Start(ctx, "transform.pass",
		trace.WithAttributes(attribute.String("transform.entry", t.cfg.Entry)))
	defer span.End()

	res := resolver{snap: snap, cfg: t.cfg}

	entryPath, ok := res.lookup(vfs.Normalize(t.cfg.Entry))
	if !ok {
		return nil, fmt.Errorf("no file matches entry specifier %q: %w", t.cfg.Entry, ErrEntryNotFound)
	}

	result := &Result{
		EntryAddress: t.addressFor(entryPath),
		ImportMap: map[string]string{
			t.cfg.Entry: t.addressFor(entryPath),
			entryPath:   t.addressFor(entryPath),
		},
		Modules:     map[string]string{},
		Diagnostics: []Diagnostic{},
	}

	// Visited is marked before recursing into a module's imports, so cyclic
	// graphs terminate with every participant registered exactly once
	visited := map[string]bool{entryPath: true}
	styleSeen := map[string]bool{}
	var styles []string
	queue := []string{entryPath}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		source, err := snap.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read module %s: %w", path, err)
		}

		refs, serr := scanImports(source)
		if serr != nil {
			if path == entryPath {
				return nil, fmt.Errorf("%w: %s: %v", ErrEntryTransform, path, serr)
			}
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Path:    path,
				Message: serr.Message,
				Line:    serr.Line,
				Column:  serr.Column,
			})
			result.Modules[t.addressFor(path)] = syntaxErrorModule(path, serr)
			continue
		}

		var rewritten strings.Builder
		last := 0
		for _, ref := range refs {
			r := res.resolve(path, ref.Specifier)
			switch r.Kind {
			case resolvedModule:
				addr := t.addressFor(r.Path)
				result.ImportMap[r.Path] = addr
				if mappable(ref.Specifier) {
					result.ImportMap[ref.Specifier] = addr
				}
				if !visited[r.Path] {
					visited[r.Path] = true
					queue = append(queue, r.Path)
				}
				rewritten.WriteString(source[last:ref.Start])
				rewritten.WriteString(addr)
				last = ref.End

			case resolvedStyle:
				if !styleSeen[r.Path] {
					styleSeen[r.Path] = true
					css, err := snap.ReadFile(r.Path)
					if err != nil {
						return nil, fmt.Errorf("failed to read style sheet %s: %w", r.Path, err)
					}
					styles = append(styles, fmt.Sprintf("/* %s */\n%s", r.Path, css))
				}
				// Style imports are stripped from the emitted code
				rewritten.WriteString(source[last:ref.StmtStart])
				last = statementCut(source, ref)

			case resolvedExternal:
				result.ImportMap[ref.Specifier] = r.URL
				rewritten.WriteString(source[last:ref.Start])
				rewritten.WriteString(r.URL)
				last = ref.End

			case resolvedMissing:
				addr := t.missingAddressFor(r.Path)
				if mappable(ref.Specifier) {
					result.ImportMap[ref.Specifier] = addr
				}
				line, column := position(source, ref.Start)
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					Path:    path,
					Message: fmt.Sprintf("cannot resolve import %q", ref.Specifier),
					Line:    line,
					Column:  column,
				})
				if _, ok := result.Modules[addr]; !ok {
					result.Modules[addr] = missingModule(ref.Specifier, path)
				}
				rewritten.WriteString(source[last:ref.Start])
				rewritten.WriteString(addr)
				last = ref.End
			}
		}
		rewritten.WriteString(source[last:])
		result.Modules[t.addressFor(path)] = rewritten.String()
	}

	sort.Strings(styles)
	result.Styles = strings.Join(styles, "\n")

	span.SetAttributes(
		attribute.Int("transform.modules", len(result.Modules)),
		attribute.Int("transform.diagnostics", len(result.Diagnostics)),
	)
	return result, nil
}

// addressFor derives the synthetic address of a VFS path. The mapping is pure,
// so the same source path gets the same address in every pass
func (t *Transformer) addressFor(path string) string {
	return t.cfg.ModuleBasePath + path
}

// missingAddressFor derives the address of the placeholder module emitted for
// an unresolvable local specifier
func (t *Transformer) missingAddressFor(path string) string {
	return t.cfg.ModuleBasePath + "/__missing__" + path + ".js"
}

// mappable reports whether a specifier belongs in the import map as written.
// Relative specifiers are importer-dependent, so they are rewritten in code
// but keyed in the map by their canonical resolved path instead
func mappable(specifier string) bool {
	return !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../")
}

// missingModule builds a placeholder module that defers an unresolved import
// to a descriptive run-time failure, keeping the rest of the preview loadable
func missingModule(specifier string, importer string) string {
	return fmt.Sprintf("throw new Error(%q);\nexport default undefined;\n",
		fmt.Sprintf("Module not found: '%s' (imported from '%s')", specifier, importer))
}

// syntaxErrorModule builds a module that surfaces a transform-time syntax
// failure when loaded
func syntaxErrorModule(path string, serr *syntaxError) string {
	return fmt.Sprintf("throw new SyntaxError(%q);\nexport default undefined;\n",
		fmt.Sprintf("Failed to transform '%s': %v", path, serr))
}

// statementCut returns the offset just past a stripped import statement: the
// closing quote, an optional trailing semicolon, and one trailing newline
func statementCut(source string, ref importRef) int {
	i := ref.End + 1 // closing quote
	if i < len(source) && source[i] == ';' {
		i++
	}
	if i < len(source) && source[i] == '\n' {
		i++
	}
	return i
}
