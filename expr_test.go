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

import "testing"

func TestExpandVarsIdentityWithoutDollar(t *testing.T) {
	ev := testEvaluator(t, nil)
	for _, in := range []string{"", "plain", "a;b;c", "path/to/file.txt", "{braces}"} {
		if got := ev.expandVars(in); got != in {
			t.Errorf("expandVars(%q)=%q, want identity", in, got)
		}
	}
}

func TestExpandVarsBasic(t *testing.T) {
	ev := testEvaluator(t, map[string]string{"HOME_DIR": "/home/me"})
	ev.varSet("NAME", "world")
	ev.varSet("GREETING", "hello ${NAME}")

	for _, tc := range []struct {
		in   string
		want string
	}{
		{"${NAME}", "world"},
		{"${GREETING}", "hello world"},
		{"${UNDEFINED}", ""},
		{`\${NAME}`, "${NAME}"},
		{"$ENV{HOME_DIR}/x", "/home/me/x"},
		{"$ENV{NOPE}", ""},
		{"pre${NAME}post", "preworldpost"},
	} {
		if got := ev.expandVars(tc.in); got != tc.want {
			t.Errorf("expandVars(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpandVarsNestedKey(t *testing.T) {
	ev := testEvaluator(t, nil)
	ev.varSet("A", "FOO")
	ev.varSet("FOO", "hello")
	if got := ev.expandVars("${${A}}"); got != "hello" {
		t.Errorf("expandVars(${${A}})=%q, want hello", got)
	}
}

func TestExpandVarsMacroBindingShadows(t *testing.T) {
	ev := testEvaluator(t, nil)
	ev.varSet("X", "from_var")
	ev.macroFramePush()
	ev.macroBindSet("X", "from_frame")
	if got := ev.expandVars("${X}"); got != "from_frame" {
		t.Errorf("expandVars(${X})=%q, want from_frame", got)
	}
	ev.macroFramePop()
	if got := ev.expandVars("${X}"); got != "from_var" {
		t.Errorf("after pop expandVars(${X})=%q, want from_var", got)
	}
}

func TestExpandVarsCycleTerminates(t *testing.T) {
	ev := testEvaluator(t, nil)
	ev.varSet("A", "${B}x")
	ev.varSet("B", "${A}")
	got := ev.expandVars("${A}")
	_ = got // the value at cycle detection is implementation defined

	var warned bool
	for _, d := range ev.Stream().Diagnostics() {
		if d.Cause == "Cyclic variable expansion detected" || d.Cause == "Recursion limit exceeded" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a cycle/limit warning diagnostic")
	}
}

func TestExpandVarsRecursionLimitOverride(t *testing.T) {
	ev := testEvaluator(t, nil)
	ev.varSet("CMAKE_NOBIFY_EXPAND_MAX_RECURSION", "3")
	// Each pass unwraps one layer; five layers exceed the limit of 3.
	ev.varSet("V1", "${V2}")
	ev.varSet("V2", "${V3}")
	ev.varSet("V3", "${V4}")
	ev.varSet("V4", "${V5}")
	ev.varSet("V5", "deep")
	ev.expandVars("${V1}")

	var warned bool
	for _, d := range ev.Stream().Diagnostics() {
		if d.Cause == "Recursion limit exceeded" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a recursion limit warning")
	}
}
