/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fidelity

import (
	"errors"
	"testing"

	"fountainflow/internal/language"
	"fountainflow/internal/parser"
	"fountainflow/internal/transpiler"
)

func TestVerifyFFlowToTwee(t *testing.T) {
	input := `$ HP: 100
===
# Start
You wake in a cave.
~ HP -= 10
+ ->Fight->#Fight
-> #End
# End`

	fflow := language.MustByName("fflow")
	twee := language.MustByName("twee")
	src := parser.Parse(input, fflow)
	out := transpiler.Transpile(src, twee)

	rep, err := Verify(fflow, twee, src, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rep.Passed() {
		t.Fatalf("expected lossless round trip, got diffs: %v\noutput:\n%s", rep.Diffs, out)
	}
}

func TestVerifyDetectsDrift(t *testing.T) {
	fflow := language.MustByName("fflow")
	twee := language.MustByName("twee")
	src := parser.Parse("# Start\nYou wake in a cave.", fflow)

	// hand the verifier output that dropped a node
	rep, err := Verify(fflow, twee, src, ":: Start")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Passed() {
		t.Fatalf("expected drift to be reported")
	}
}

func TestVerifyUnsupportedPair(t *testing.T) {
	fflow := language.MustByName("fflow")
	renpy := language.MustByName("renpy")
	_, err := Verify(fflow, renpy, nil, "")
	var unsupported *ErrUnsupported
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
