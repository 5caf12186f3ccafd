/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package transpiler

import (
	"fountainflow/internal/ast"
	"fountainflow/internal/language"
)

// Transpile renders nodes into the given target language.
func Transpile(nodes []ast.Node, def *language.Definition) string {
	return New(def).Transpile(nodes)
}

// ToFFlow renders nodes as FFlow screenplay text.
func ToFFlow(nodes []ast.Node) string {
	return Transpile(nodes, language.MustByName("fflow"))
}

// ToTwee renders nodes as Twee/SugarCube text.
func ToTwee(nodes []ast.Node) string {
	return Transpile(nodes, language.MustByName("twee"))
}

// ToRenPy renders nodes as Ren'Py script text.
func ToRenPy(nodes []ast.Node) string {
	return Transpile(nodes, language.MustByName("renpy"))
}
