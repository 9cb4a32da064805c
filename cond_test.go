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

func condArgs(toks ...string) []arg {
	var r []arg
	for _, t := range toks {
		r = append(r, arg{kind: argUnquoted, text: t})
	}
	return r
}

func TestTruthyConstants(t *testing.T) {
	ev := testEvaluator(t, nil)
	for _, tc := range []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"ON", true},
		{"on", true},
		{"YES", true},
		{"TRUE", true},
		{"Y", true},
		{"42", true},
		{"-3", true},
		{"0", false},
		{"OFF", false},
		{"no", false},
		{"FALSE", false},
		{"N", false},
		{"IGNORE", false},
		{"NOTFOUND", false},
		{"LIB-NOTFOUND", false},
		{"", false},
		{"random_token", true},
	} {
		if got := ev.truthy(tc.in); got != tc.want {
			t.Errorf("truthy(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTruthyDereferencesVariables(t *testing.T) {
	ev := testEvaluator(t, nil)
	ev.varSet("ENABLED", "ON")
	ev.varSet("DISABLED", "OFF")
	ev.varSet("WEIRD", "not_a_constant")
	if !ev.truthy("ENABLED") {
		t.Error("truthy(ENABLED) = false")
	}
	if ev.truthy("DISABLED") {
		t.Error("truthy(DISABLED) = true")
	}
	// A defined variable holding a non-constant does not recurse.
	if ev.truthy("WEIRD") {
		t.Error("truthy(WEIRD) = true, want false")
	}
}

func TestConditionPrecedence(t *testing.T) {
	ev := testEvaluator(t, nil)
	o := Origin{File: "test"}
	for _, tc := range []struct {
		toks []string
		want bool
	}{
		// NOT binds tighter than AND, AND tighter than OR.
		{[]string{"NOT", "0"}, true},
		{[]string{"NOT", "1"}, false},
		{[]string{"1", "AND", "0"}, false},
		{[]string{"1", "OR", "0"}, true},
		{[]string{"0", "AND", "1", "OR", "1"}, true},
		{[]string{"1", "OR", "1", "AND", "0"}, true},
		{[]string{"NOT", "0", "AND", "1"}, true},
		{[]string{"(", "0", "OR", "1", ")", "AND", "1"}, true},
		{[]string{"(", "1", "OR", "1", ")", "AND", "0"}, false},
	} {
		if got := ev.evalCondition(condArgs(tc.toks...), o); got != tc.want {
			t.Errorf("evalCondition(%v)=%v, want %v", tc.toks, got, tc.want)
		}
	}
}

func TestConditionComparisons(t *testing.T) {
	ev := testEvaluator(t, nil)
	o := Origin{File: "test"}
	for _, tc := range []struct {
		toks []string
		want bool
	}{
		{[]string{"abc", "STREQUAL", "abc"}, true},
		{[]string{"abc", "STREQUAL", "abd"}, false},
		{[]string{"2", "EQUAL", "2"}, true},
		{[]string{"2", "LESS", "10"}, true},
		{[]string{"2", "GREATER", "10"}, false},
		{[]string{"10", "GREATER_EQUAL", "10"}, true},
		{[]string{"a", "STRLESS", "b"}, true},
		{[]string{"b", "STRGREATER_EQUAL", "b"}, true},
		{[]string{"1.2", "VERSION_LESS", "1.10"}, true},
		{[]string{"1.2.0", "VERSION_EQUAL", "1.2"}, true},
		{[]string{"2.0", "VERSION_GREATER_EQUAL", "1.9"}, true},
		{[]string{"hello123", "MATCHES", "[a-z]+[0-9]+"}, true},
		{[]string{"hello", "MATCHES", "^[0-9]+$"}, false},
	} {
		if got := ev.evalCondition(condArgs(tc.toks...), o); got != tc.want {
			t.Errorf("evalCondition(%v)=%v, want %v", tc.toks, got, tc.want)
		}
	}
}

func TestConditionPredicates(t *testing.T) {
	ev := testEvaluator(t, map[string]string{"SET_ENV": "x"})
	o := Origin{File: "test"}
	ev.varSet("DEFINED_VAR", "anything")
	ev.targetRegister("mylib")

	for _, tc := range []struct {
		toks []string
		want bool
	}{
		{[]string{"DEFINED", "DEFINED_VAR"}, true},
		{[]string{"DEFINED", "MISSING_VAR"}, false},
		{[]string{"DEFINED", "ENV{SET_ENV}"}, true},
		{[]string{"DEFINED", "ENV{MISSING_ENV}"}, false},
		{[]string{"TARGET", "mylib"}, true},
		{[]string{"TARGET", "nope"}, false},
		{[]string{"COMMAND", "set"}, true},
		{[]string{"COMMAND", "no_such"}, false},
		{[]string{"POLICY", "CMP0077"}, true},
		{[]string{"POLICY", "NOPE"}, false},
		{[]string{"IS_ABSOLUTE", "/abs/path"}, true},
		{[]string{"IS_ABSOLUTE", "rel/path"}, false},
		{[]string{"NOT", "DEFINED", "MISSING_VAR"}, true},
	} {
		if got := ev.evalCondition(condArgs(tc.toks...), o); got != tc.want {
			t.Errorf("evalCondition(%v)=%v, want %v", tc.toks, got, tc.want)
		}
	}
}

func TestConditionPathEqual(t *testing.T) {
	ev := testEvaluator(t, nil)
	o := Origin{File: "test"}
	if !ev.evalCondition(condArgs("/a//b/../c", "PATH_EQUAL", "/a/c"), o) {
		t.Error("PATH_EQUAL should normalize both operands")
	}
}

func TestConditionInvalidSyntaxDiagnoses(t *testing.T) {
	ev := testEvaluator(t, nil)
	o := Origin{File: "test"}
	ev.evalCondition(condArgs("1", "1", "1", "1"), o)
	var found bool
	for _, d := range ev.Stream().Diagnostics() {
		if d.Cause == "Invalid if() syntax" {
			found = true
		}
	}
	if !found {
		t.Error("expected an invalid-syntax diagnostic")
	}
}
