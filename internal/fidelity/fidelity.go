/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package fidelity checks that a conversion is reversible. The converted
// text is parsed in the target language, rendered back into the source
// language, reparsed there, and the resulting AST is compared field by
// field against the source AST. Comparison happens in the source format's
// own space so prefix conventions of the target do not count as drift.
package fidelity

import (
	"fmt"

	"fountainflow/internal/ast"
	"fountainflow/internal/language"
	"fountainflow/internal/parser"
	"fountainflow/internal/transpiler"
)

// ErrUnsupported is returned for conversion pairs without a reverse path.
type ErrUnsupported struct {
	Source, Target string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("fidelity: no round-trip path for %s -> %s", e.Source, e.Target)
}

// Report is the outcome of one round-trip check.
type Report struct {
	Source string
	Target string
	// Diffs lists per-node differences; empty means the round trip is
	// lossless.
	Diffs []string
}

// Passed reports whether the round trip reproduced the source AST.
func (r *Report) Passed() bool { return len(r.Diffs) == 0 }

// Verify round-trips converted output against the source AST. source and
// target name the languages of the conversion; output is the converted
// text. Supported pairs are fflow<->twee; anything else returns
// ErrUnsupported. Ren'Py is render-only: its indentation collapse loses
// block ends, so no reverse path is offered.
func Verify(source, target *language.Definition, sourceAST []ast.Node, output string) (*Report, error) {
	ok := (source.Name == "fflow" && target.Name == "twee") ||
		(source.Name == "twee" && target.Name == "fflow")
	if !ok {
		return nil, &ErrUnsupported{Source: source.Name, Target: target.Name}
	}

	intermediate := parser.Parse(output, target)
	back := transpiler.Transpile(intermediate, source)
	final := parser.Parse(back, source)

	return &Report{
		Source: source.Name,
		Target: target.Name,
		Diffs:  ast.Compare(sourceAST, final),
	}, nil
}
