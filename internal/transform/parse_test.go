package transform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func specifiers(refs []importRef) []string {
	var specs []string
	for _, ref := range refs {
		specs = append(specs, ref.Specifier)
	}
	return specs
}

func TestScanImportsBasicForms(t *testing.T) {
	source := `import React from "react";
import { useState } from 'react';
import "./side-effect.js";
import * as utils from "./utils";
export { helper } from "./helpers";
export default function App() {}
`
	refs, serr := scanImports(source)
	require.Nil(t, serr)
	require.Equal(t, []string{"react", "react", "./side-effect.js", "./utils", "./helpers"}, specifiers(refs))
}

func TestScanImportsSpecifierOffsets(t *testing.T) {
	source := `import x from "./mod";`
	refs, serr := scanImports(source)
	require.Nil(t, serr)
	require.Len(t, refs, 1)
	require.Equal(t, "./mod", source[refs[0].Start:refs[0].End])
	require.Equal(t, 0, refs[0].StmtStart)
}

func TestScanImportsIgnoresComments(t *testing.T) {
	source := `// import fake from "./commented";
/* import another from "./blocked"; */
import real from "./real";
`
	refs, serr := scanImports(source)
	require.Nil(t, serr)
	require.Equal(t, []string{"./real"}, specifiers(refs))
}

func TestScanImportsIgnoresStringsAndTemplates(t *testing.T) {
	source := "const s = \"import nope from './a'\";\n" +
		"const u = `import nah from './b' ${x}`;\n" +
		"import yes from \"./c\";\n"
	refs, serr := scanImports(source)
	require.Nil(t, serr)
	require.Equal(t, []string{"./c"}, specifiers(refs))
}

func TestScanImportsIgnoresDynamicImport(t *testing.T) {
	source := `const mod = import("./dynamic");
import staticMod from "./static";
`
	refs, serr := scanImports(source)
	require.Nil(t, serr)
	require.Equal(t, []string{"./static"}, specifiers(refs))
}

func TestScanImportsMultilineBindings(t *testing.T) {
	source := `import {
  one,
  two,
} from "./many";
`
	refs, serr := scanImports(source)
	require.Nil(t, serr)
	require.Equal(t, []string{"./many"}, specifiers(refs))
}

func TestScanImportsExportWithoutFrom(t *testing.T) {
	source := `export const x = "not from anywhere";
export function f() {}
`
	refs, serr := scanImports(source)
	require.Nil(t, serr)
	require.Empty(t, refs)
}

func TestScanImportsToleratesJSX(t *testing.T) {
	source := `import Button from "./Button";

export default function App() {
  return (
    <div className="app">
      <Button label="import export from" />
      <p>plain text</p>
    </div>
  );
}
`
	refs, serr := scanImports(source)
	require.Nil(t, serr)
	require.Equal(t, []string{"./Button"}, specifiers(refs))
}

func TestScanImportsUnterminatedString(t *testing.T) {
	source := "const broken = \"no closing quote\nimport x from \"./mod\";\n"
	_, serr := scanImports(source)
	require.NotNil(t, serr)
	require.Contains(t, serr.Message, "unterminated string")
	require.Equal(t, 1, serr.Line)
	require.Equal(t, 16, serr.Column)
}

func TestScanImportsUnterminatedBlockComment(t *testing.T) {
	source := "import x from \"./mod\";\n/* never closed\n"
	_, serr := scanImports(source)
	require.NotNil(t, serr)
	require.Contains(t, serr.Message, "unterminated block comment")
	require.Equal(t, 2, serr.Line)
}
