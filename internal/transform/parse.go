package transform

import (
	"fmt"
	"strings"
)

// importRef is one static import discovered in a module's source. Start and End
// are byte offsets of the specifier text between its quotes, so the specifier
// can be rewritten in place
type importRef struct {
	Specifier string
	Start     int // offset of the specifier text, just past the opening quote
	End       int // offset of the closing quote
	StmtStart int // offset of the statement's leading keyword
}

// syntaxError is a non-fatal per-module parse failure with a source position
type syntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Line, e.Column)
}

// scanImports performs a lightweight syntax pass over JS/JSX source, collecting
// the specifiers of static import and re-export statements. It does not parse
// the language; it only tracks enough state (comments, string and template
// literals, statement boundaries) to find specifier strings reliably. Dynamic
// import() calls are intentionally ignored.
func scanImports(source string) ([]importRef, *syntaxError) {
	var refs []importRef
	i := 0
	n := len(source)
	atStatementStart := true

	for i < n {
		c := source[i]

		switch {
		case c == '/' && i+1 < n && source[i+1] == '/':
			end := strings.IndexByte(source[i:], '\n')
			if end == -1 {
				i = n
			} else {
				i += end
			}
			continue
		case c == '/' && i+1 < n && source[i+1] == '*':
			end := strings.Index(source[i+2:], "*/")
			if end == -1 {
				line, col := position(source, i)
				return nil, &syntaxError{Message: "unterminated block comment", Line: line, Column: col}
			}
			i += end + 4
			continue
		case c == '"' || c == '\'':
			skip, serr := skipString(source, i)
			if serr != nil {
				return nil, serr
			}
			i = skip
			atStatementStart = false
			continue
		case c == '`':
			skip, serr := skipTemplate(source, i)
			if serr != nil {
				return nil, serr
			}
			i = skip
			atStatementStart = false
			continue
		}

		if atStatementStart && hasKeywordAt(source, i, "import") {
			ref, next, serr := scanImportStatement(source, i)
			if serr != nil {
				return nil, serr
			}
			if ref != nil {
				refs = append(refs, *ref)
			}
			i = next
			atStatementStart = true
			continue
		}
		if atStatementStart && hasKeywordAt(source, i, "export") {
			ref, next, serr := scanExportStatement(source, i)
			if serr != nil {
				return nil, serr
			}
			if ref != nil {
				refs = append(refs, *ref)
			}
			i = next
			atStatementStart = true
			continue
		}

		switch c {
		case ';', '{', '}', '\n':
			atStatementStart = true
		case ' ', '\t', '\r':
			// Whitespace does not change statement position
		default:
			atStatementStart = false
		}
		i++
	}

	return refs, nil
}

// scanImportStatement handles `import ... from "spec"` and `import "spec"`.
// It returns the specifier reference (nil for dynamic imports) and the offset
// at which scanning should resume
func scanImportStatement(source string, start int) (*importRef, int, *syntaxError) {
	i := start + len("import")

	// Dynamic import() is a runtime expression, not a static dependency
	j := skipSpaces(source, i)
	if j < len(source) && source[j] == '(' {
		return nil, j, nil
	}

	ref, next, serr := scanForSpecifier(source, i)
	if ref != nil {
		ref.StmtStart = start
	}
	return ref, next, serr
}

// scanExportStatement handles `export ... from "spec"`. Exports without a
// `from` clause declare no dependency. The `from` keyword is located outside
// string literals so that strings in exported expressions cannot be mistaken
// for specifiers
func scanExportStatement(source string, start int) (*importRef, int, *syntaxError) {
	i := start + len("export")
	end := statementEnd(source, i)

	fromAt := findKeywordOutsideStrings(source, i, end, "from")
	if fromAt == -1 {
		return nil, start + len("export"), nil
	}
	ref, next, serr := scanForSpecifier(source, fromAt+len("from"))
	if ref != nil {
		ref.StmtStart = start
	}
	return ref, next, serr
}

// findKeywordOutsideStrings returns the offset of the keyword within
// [start, end), skipping string and template literals, or -1
func findKeywordOutsideStrings(source string, start int, end int, keyword string) int {
	for i := start; i < end; i++ {
		c := source[i]
		if c == '"' || c == '\'' {
			next, serr := skipString(source, i)
			if serr != nil {
				return -1
			}
			i = next - 1
			continue
		}
		if c == '`' {
			next, serr := skipTemplate(source, i)
			if serr != nil {
				return -1
			}
			i = next - 1
			continue
		}
		if hasKeywordAt(source, i, keyword) {
			return i
		}
	}
	return -1
}

// scanForSpecifier scans forward to the first string literal before the end of
// the statement, which for static import/export-from statements is always the
// module specifier
func scanForSpecifier(source string, i int) (*importRef, int, *syntaxError) {
	end := statementEnd(source, i)
	for i < end {
		c := source[i]
		if c == '"' || c == '\'' {
			closing := strings.IndexByte(source[i+1:end], c)
			if closing == -1 {
				line, col := position(source, i)
				return nil, 0, &syntaxError{Message: "unterminated string literal", Line: line, Column: col}
			}
			ref := &importRef{
				Specifier: source[i+1 : i+1+closing],
				Start:     i + 1,
				End:       i + 1 + closing,
			}
			return ref, i + closing + 2, nil
		}
		if c == '/' && i+1 < end && source[i+1] == '/' {
			break
		}
		i++
	}
	return nil, end, nil
}

// statementEnd finds the offset just past the current statement: the first
// semicolon or newline at brace depth zero
func statementEnd(source string, i int) int {
	depth := 0
	for ; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ';', '\n':
			if depth == 0 {
				return i
			}
		}
	}
	return len(source)
}

// skipString advances past a single- or double-quoted string literal
func skipString(source string, start int) (int, *syntaxError) {
	quote := source[start]
	for i := start + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case quote:
			return i + 1, nil
		case '\n':
			line, col := position(source, start)
			return 0, &syntaxError{Message: "unterminated string literal", Line: line, Column: col}
		}
	}
	line, col := position(source, start)
	return 0, &syntaxError{Message: "unterminated string literal", Line: line, Column: col}
}

// skipTemplate advances past a template literal, tolerating nested ${}
// expressions without fully parsing them
func skipTemplate(source string, start int) (int, *syntaxError) {
	depth := 0
	for i := start + 1; i < len(source); i++ {
		switch {
		case source[i] == '\\':
			i++
		case source[i] == '$' && i+1 < len(source) && source[i+1] == '{':
			depth++
			i++
		case source[i] == '}' && depth > 0:
			depth--
		case source[i] == '`' && depth == 0:
			return i + 1, nil
		}
	}
	line, col := position(source, start)
	return 0, &syntaxError{Message: "unterminated template literal", Line: line, Column: col}
}

// hasKeywordAt reports whether the keyword occurs at offset i with identifier
// boundaries on both sides
func hasKeywordAt(source string, i int, keyword string) bool {
	if !strings.HasPrefix(source[i:], keyword) {
		return false
	}
	if i > 0 && isIdentChar(source[i-1]) {
		return false
	}
	after := i + len(keyword)
	return after >= len(source) || !isIdentChar(source[after])
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func skipSpaces(source string, i int) int {
	for i < len(source) && (source[i] == ' ' || source[i] == '\t') {
		i++
	}
	return i
}

// position converts a byte offset to a 1-based line and column
func position(source string, offset int) (line int, column int) {
	line = 1
	column = 1
	for i := 0; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
