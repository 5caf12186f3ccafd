/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package language

import (
	"sort"
	"strings"
	"sync"
)

// Registry indexes language definitions by name and file extension. The set
// of languages is a closed, compile-time list: adding a format means adding
// its constructor to newRegistry, nothing else.
type Registry struct {
	byName map[string]*Definition
	byExt  map[string]*Definition
}

func newRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Definition),
		byExt:  make(map[string]*Definition),
	}
	for _, d := range []*Definition{newFFlow(), newTwee(), newRenPy()} {
		r.byName[d.Name] = d
		for _, ext := range d.Extensions {
			r.byExt[strings.ToLower(ext)] = d
		}
	}
	return r
}

var (
	defaultRegistry *Registry
	registryOnce    sync.Once
)

// Default returns the process-wide registry. It is built once and never
// mutated afterwards, so sharing it across goroutines is fine.
func Default() *Registry {
	registryOnce.Do(func() { defaultRegistry = newRegistry() })
	return defaultRegistry
}

// MustByName returns the definition for a built-in language name and
// panics for anything else. Only for names known at compile time.
func MustByName(name string) *Definition {
	d, ok := Default().ByName(name)
	if !ok {
		panic("language: unknown built-in language " + name)
	}
	return d
}

// ByName looks a definition up by its language name (case-insensitive).
func (r *Registry) ByName(name string) (*Definition, bool) {
	d, ok := r.byName[strings.ToLower(name)]
	return d, ok
}

// ByExtension looks a definition up by file extension, with or without the
// leading dot.
func (r *Registry) ByExtension(ext string) (*Definition, bool) {
	e := strings.ToLower(ext)
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	d, ok := r.byExt[e]
	return d, ok
}

// Names returns the registered language names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Extensions returns all recognized file extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for e := range r.byExt {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
