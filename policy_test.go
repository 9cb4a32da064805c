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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPolicyID(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want bool
	}{
		{"CMP0077", true},
		{"cmp0077", true},
		{"CMP007", false},
		{"CMP00777", false},
		{"XMP0077", false},
		{"CMP007a", false},
	} {
		if got := isPolicyID(tc.in); got != tc.want {
			t.Errorf("isPolicyID(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPolicyDepthSlots(t *testing.T) {
	ev := runScript(t, `
cmake_policy(SET CMP0074 OLD)
cmake_policy(PUSH)
cmake_policy(SET CMP0074 NEW)
cmake_policy(GET CMP0074 INNER)
cmake_policy(POP)
cmake_policy(GET CMP0074 OUTER)
`)
	assert.Equal(t, "NEW", ev.varGet("INNER"))
	// Popping hides the deeper slot again.
	assert.Equal(t, "OLD", ev.varGet("OUTER"))
	assert.Equal(t, "1", ev.varGet("NOBIFY_POLICY_STACK_DEPTH"))
}

func TestPolicyPopBelowOneErrors(t *testing.T) {
	ev := testEvaluator(t, nil)
	ev.RunSource(`cmake_policy(POP)`, "test.cmake")
	assert.Contains(t, diagCauses(ev), "cmake_policy(POP) without matching PUSH")
}

func TestPolicyFallbackChain(t *testing.T) {
	ev := testEvaluator(t, nil)

	// Nothing set and no policy version declared: empty.
	assert.Equal(t, "", ev.policyEffective("CMP0999"))

	// CMAKE_POLICY_DEFAULT_<id> takes effect before the NEW fallback.
	ev.varSet("CMAKE_POLICY_DEFAULT_CMP0999", "OLD")
	assert.Equal(t, "OLD", ev.policyEffective("CMP0999"))

	// The legacy CMAKE_POLICY_<id> variable outranks the default.
	ev.varSet("CMAKE_POLICY_CMP0999", "NEW")
	assert.Equal(t, "NEW", ev.policyEffective("CMP0999"))

	// A depth slot wins over everything.
	ev.policySetDepth(2)
	ev.varSet(policySlotKey(2, "CMP0999"), "OLD")
	assert.Equal(t, "OLD", ev.policyEffective("CMP0999"))
}

func TestPolicyVersionImpliesNew(t *testing.T) {
	ev := runScript(t, `
cmake_minimum_required(VERSION 3.20)
cmake_policy(GET CMP0123 OUT)
`)
	assert.Equal(t, "NEW", ev.varGet("OUT"))
}

func TestPolicyPartialWarningOnce(t *testing.T) {
	ev := runScript(t, `
cmake_policy(SET CMP0001 NEW)
cmake_policy(SET CMP0002 NEW)
`)
	count := 0
	for _, d := range ev.Stream().Diagnostics() {
		if d.Cause == "Policy semantics are only partially modeled" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
