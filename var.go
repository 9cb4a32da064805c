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

import "github.com/golang/glog"

// varScope is one lexical scope: a map from case-folded variable name
// to byte-exact value. The global scope sits at the bottom of the
// stack and lives for the whole run.
type varScope struct {
	vars map[string]string
}

func newVarScope() *varScope {
	return &varScope{vars: make(map[string]string)}
}

// macroFrame is a dynamic binding frame. Macro bodies run in the
// caller's lexical scope, but ARGC/ARGV*/named parameters resolve
// against the frame first.
type macroFrame struct {
	bindings map[string]string
}

// userCommand is a registered function() or macro(). The body subtree
// is owned by the command record; the defining file's AST may be
// discarded before invocation.
type userCommand struct {
	name    string
	params  []string
	body    []node
	isMacro bool
}

func (ev *Evaluator) scopePush() {
	ev.scopes = append(ev.scopes, newVarScope())
}

func (ev *Evaluator) scopePop() {
	if len(ev.scopes) > 1 {
		ev.scopes = ev.scopes[:len(ev.scopes)-1]
	}
}

// varGet walks scopes innermost first and returns the first binding,
// or "" when the name is undefined anywhere.
func (ev *Evaluator) varGet(name string) string {
	key := internFold(name)
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if v, ok := ev.scopes[i].vars[key]; ok {
			return v
		}
	}
	return ""
}

func (ev *Evaluator) varSet(name, value string) {
	if glog.V(2) {
		glog.Infof("set %s=%q", name, value)
	}
	ev.scopes[len(ev.scopes)-1].vars[internFold(name)] = value
}

// varSetParent writes to the enclosing scope, the PARENT_SCOPE form of
// set(). At global scope it degrades to a plain set.
func (ev *Evaluator) varSetParent(name, value string) {
	i := len(ev.scopes) - 2
	if i < 0 {
		i = 0
	}
	ev.scopes[i].vars[internFold(name)] = value
}

func (ev *Evaluator) varUnset(name string) {
	delete(ev.scopes[len(ev.scopes)-1].vars, internFold(name))
}

func (ev *Evaluator) varUnsetParent(name string) {
	i := len(ev.scopes) - 2
	if i < 0 {
		i = 0
	}
	delete(ev.scopes[i].vars, internFold(name))
}

func (ev *Evaluator) varDefined(name string) bool {
	key := internFold(name)
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if _, ok := ev.scopes[i].vars[key]; ok {
			return true
		}
	}
	return false
}

func (ev *Evaluator) varDefinedInCurrentScope(name string) bool {
	_, ok := ev.scopes[len(ev.scopes)-1].vars[internFold(name)]
	return ok
}

func (ev *Evaluator) macroFramePush() {
	ev.macroFrames = append(ev.macroFrames, &macroFrame{bindings: make(map[string]string)})
}

func (ev *Evaluator) macroFramePop() {
	if len(ev.macroFrames) > 0 {
		ev.macroFrames = ev.macroFrames[:len(ev.macroFrames)-1]
	}
}

func (ev *Evaluator) macroBindSet(name, value string) {
	if len(ev.macroFrames) == 0 {
		return
	}
	ev.macroFrames[len(ev.macroFrames)-1].bindings[internFold(name)] = value
}

// macroBindGet searches frames newest first. Outer frames stay visible
// so nested macro invocations see their callers' ARGV bindings the way
// textual replay would.
func (ev *Evaluator) macroBindGet(name string) (string, bool) {
	key := internFold(name)
	for i := len(ev.macroFrames) - 1; i >= 0; i-- {
		if v, ok := ev.macroFrames[i].bindings[key]; ok {
			return v, true
		}
	}
	return "", false
}

// lookupValue resolves a name the way ${} expansion does: macro frame
// bindings shadow lexical scopes.
func (ev *Evaluator) lookupValue(name string) (string, bool) {
	if v, ok := ev.macroBindGet(name); ok {
		return v, true
	}
	if ev.varDefined(name) {
		return ev.varGet(name), true
	}
	return "", false
}

func (ev *Evaluator) targetKnown(name string) bool {
	_, ok := ev.knownTargets[foldName(name)]
	return ok
}

func (ev *Evaluator) targetRegister(name string) {
	if ev.knownTargets == nil {
		ev.knownTargets = make(map[string]string)
	}
	ev.knownTargets[foldName(name)] = name
}

func (ev *Evaluator) userCommandFind(name string) *userCommand {
	key := foldName(name)
	// Latest registration wins, matching redefinition semantics.
	for i := len(ev.userCommands) - 1; i >= 0; i-- {
		if foldName(ev.userCommands[i].name) == key {
			return ev.userCommands[i]
		}
	}
	return nil
}
