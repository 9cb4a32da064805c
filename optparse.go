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

// optKind classifies keyword options for the generic option parser
// shared by command handlers.
type optKind int

const (
	// optFlag is a bare keyword with no values.
	optFlag optKind = iota
	// optSingle takes exactly one value.
	optSingle
	// optOptionalSingle takes zero or one value.
	optOptionalSingle
	// optMulti swallows values until the next keyword.
	optMulti
)

type optSpec struct {
	id      int
	keyword string
	kind    optKind
}

type optConfig struct {
	component string
	command   string
	origin    Origin
	// unknownAsPositional routes unmatched tokens to the positional
	// callback instead of diagnosing them.
	unknownAsPositional bool
	warnUnknown         bool
}

func optTokenIsKeyword(tok string, specs []optSpec) bool {
	for i := range specs {
		if equalsFold(tok, specs[i].keyword) {
			return true
		}
	}
	return false
}

// parseOptions walks args[start:] against specs, invoking onOption for
// each keyword (with its collected values) and onPositional for
// everything else. Either callback may return false to abort.
func (ev *Evaluator) parseOptions(args []string, start int, specs []optSpec, cfg optConfig,
	onOption func(id int, values []string, tokenIndex int) bool,
	onPositional func(value string, tokenIndex int) bool) bool {

	i := start
	for i < len(args) {
		tok := args[i]
		var spec *optSpec
		for s := range specs {
			if equalsFold(tok, specs[s].keyword) {
				spec = &specs[s]
				break
			}
		}
		if spec == nil {
			if cfg.unknownAsPositional {
				if onPositional != nil && !onPositional(tok, i) {
					return false
				}
			} else if cfg.warnUnknown {
				ev.emitDiag(DiagWarning, cfg.component, cfg.command, cfg.origin,
					"Unexpected argument", tok)
			}
			i++
			continue
		}

		kwIndex := i
		i++
		var values []string
		switch spec.kind {
		case optFlag:
		case optSingle:
			if i >= len(args) || optTokenIsKeyword(args[i], specs) {
				ev.emitDiag(DiagError, cfg.component, cfg.command, cfg.origin,
					spec.keyword+" requires a value", "")
				return false
			}
			values = append(values, args[i])
			i++
		case optOptionalSingle:
			if i < len(args) && !optTokenIsKeyword(args[i], specs) {
				values = append(values, args[i])
				i++
			}
		case optMulti:
			for i < len(args) && !optTokenIsKeyword(args[i], specs) {
				values = append(values, args[i])
				i++
			}
		}
		if onOption != nil && !onOption(spec.id, values, kwIndex) {
			return false
		}
	}
	return true
}
