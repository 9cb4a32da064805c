// Copyright 2025 The Nobify Authors. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nobify

import (
	"strings"

	"github.com/golang/glog"
)

const (
	expandMaxRecursionDefault = 100
	expandMaxRecursionCap     = 10000
)

// expandLimit resolves the expansion iteration bound: script variable
// first, process environment second, hard-capped.
func (ev *Evaluator) expandLimit() int {
	limit := expandMaxRecursionDefault
	if v := ev.varGet("CMAKE_NOBIFY_EXPAND_MAX_RECURSION"); v != "" {
		if n, ok := parseInt(v); ok && n > 0 {
			limit = int(n)
		}
	}
	if v, ok := ev.lookupEnvVar("NOBIFY_EVAL_EXPAND_MAX_RECURSION"); ok && v != "" {
		if n, ok := parseInt(v); ok && n > 0 {
			limit = int(n)
		}
	}
	if limit > expandMaxRecursionCap {
		limit = expandMaxRecursionCap
	}
	return limit
}

// expandOnce applies a single substitution pass: \$ escapes, $ENV{}
// lookups and brace-balanced ${} references. Macro frame bindings
// shadow lexical variables for ${} keys.
func (ev *Evaluator) expandOnce(in string) string {
	if !strings.ContainsRune(in, '$') {
		return in
	}

	buf := newBuf()
	defer buf.release()
	for i := 0; i < len(in); i++ {
		c := in[i]

		if c == '\\' && i+1 < len(in) && in[i+1] == '$' {
			buf.WriteByte('$')
			i++
			continue
		}

		if c == '$' && strings.HasPrefix(in[i:], "$ENV{") {
			j := strings.IndexByte(in[i+5:], '}')
			if j >= 0 {
				name := in[i+5 : i+5+j]
				if v, ok := ev.lookupEnvVar(name); ok {
					buf.WriteString(v)
				}
				i += 5 + j
				continue
			}
		}

		if c == '$' && i+1 < len(in) && in[i+1] == '{' {
			depth := 1
			j := i + 2
			for j < len(in) && depth > 0 {
				switch in[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				j++
			}
			if depth == 0 {
				key := ev.expandVars(in[i+2 : j-1])
				if v, ok := ev.lookupValue(key); ok {
					buf.WriteString(v)
				}
				i = j - 1
				continue
			}
		}

		buf.WriteByte(c)
	}
	return buf.String()
}

// expandVars iterates expandOnce to a fixed point. Every intermediate
// state is recorded; a repeated state or a breached iteration limit
// emits a warning and returns the last state, so expansion always
// terminates.
func (ev *Evaluator) expandVars(input string) string {
	if ev.stopRequested {
		return ""
	}
	cur := input
	limit := ev.expandLimit()
	seen := make([]string, 0, 8)
	seen = append(seen, cur)

	for i := 0; i < limit; i++ {
		next := ev.expandOnce(cur)
		if next == cur {
			return next
		}
		for _, s := range seen {
			if s == next {
				glog.V(1).Infof("expansion cycle on %q", input)
				ev.emitDiag(DiagWarning, "expr", "expand_vars", Origin{File: ev.currentFile},
					"Cyclic variable expansion detected",
					"Check mutually recursive set() definitions")
				return next
			}
		}
		seen = append(seen, next)
		cur = next
	}

	ev.emitDiag(DiagWarning, "expr", "expand_vars", Origin{File: ev.currentFile},
		"Recursion limit exceeded",
		"Tune CMAKE_NOBIFY_EXPAND_MAX_RECURSION or NOBIFY_EVAL_EXPAND_MAX_RECURSION")
	return cur
}
