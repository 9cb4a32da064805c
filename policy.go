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

import "strconv"

// isPolicyID reports whether s has the CMP<NNNN> shape.
func isPolicyID(s string) bool {
	if len(s) != 7 || !hasPrefixFold(s, "CMP") {
		return false
	}
	for i := 3; i < 7; i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func canonicalPolicyID(s string) string {
	return foldName(s)
}

func normalizePolicyStatus(v string) string {
	if equalsFold(v, "NEW") {
		return "NEW"
	}
	if equalsFold(v, "OLD") {
		return "OLD"
	}
	return ""
}

// Policy stack depth is regular variable state so scripts (and tests)
// can observe it.
func (ev *Evaluator) policyDepth() int {
	if n, ok := parseInt(ev.varGet("NOBIFY_POLICY_STACK_DEPTH")); ok && n >= 1 {
		return int(n)
	}
	return 1
}

func (ev *Evaluator) policySetDepth(depth int) {
	ev.varSet("NOBIFY_POLICY_STACK_DEPTH", strconv.Itoa(depth))
}

func (ev *Evaluator) policyPush() {
	ev.policySetDepth(ev.policyDepth() + 1)
}

func (ev *Evaluator) policyPop() bool {
	depth := ev.policyDepth()
	if depth <= 1 {
		return false
	}
	ev.policySetDepth(depth - 1)
	return true
}

func policySlotKey(depth int, canonicalID string) string {
	return "NOBIFY_POLICY_D" + strconv.Itoa(depth) + "_" + canonicalID
}

// policySet writes the slot at the current depth plus the legacy
// CMAKE_POLICY_CMP<NNNN> mirror some scripts read directly.
func (ev *Evaluator) policySet(id, value string) bool {
	canonical := canonicalPolicyID(id)
	normalized := normalizePolicyStatus(value)
	if !isPolicyID(id) || normalized == "" {
		return false
	}
	ev.varSet(policySlotKey(ev.policyDepth(), canonical), normalized)
	ev.varSet("CMAKE_POLICY_"+canonical, normalized)
	return true
}

// policyEffective resolves the value seen at the current depth: the
// deepest defined slot wins, then the legacy variable, then the
// documented default override, then NEW when a policy version was
// declared, else empty.
func (ev *Evaluator) policyEffective(id string) string {
	if !isPolicyID(id) {
		return ""
	}
	canonical := canonicalPolicyID(id)
	for d := ev.policyDepth(); d >= 1; d-- {
		key := policySlotKey(d, canonical)
		if !ev.varDefined(key) {
			continue
		}
		if v := normalizePolicyStatus(ev.varGet(key)); v != "" {
			return v
		}
	}
	if ev.varDefined("CMAKE_POLICY_" + canonical) {
		if v := normalizePolicyStatus(ev.varGet("CMAKE_POLICY_" + canonical)); v != "" {
			return v
		}
	}
	if ev.varDefined("CMAKE_POLICY_DEFAULT_" + canonical) {
		if v := normalizePolicyStatus(ev.varGet("CMAKE_POLICY_DEFAULT_" + canonical)); v != "" {
			return v
		}
	}
	if ev.varGet("CMAKE_POLICY_VERSION") != "" {
		return "NEW"
	}
	return ""
}

func (ev *Evaluator) emitPolicyPartialWarningOnce(o Origin, command string) {
	const warnedKey = "NOBIFY_POLICY_PARTIAL_WARNED"
	if ev.varDefined(warnedKey) {
		return
	}
	ev.varSet(warnedKey, "1")
	ev.emitDiag(DiagWarning, "dispatcher", command, o,
		"Policy semantics are only partially modeled",
		"Commands parse and store basic policy state, but policy-driven behavior changes are not fully applied")
}

func hCMakePolicy(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"cmake_policy() missing subcommand",
			"Expected one of: VERSION, SET, GET, PUSH, POP")
		return ev.stopErr()
	}

	switch {
	case equalsFold(a[0], "VERSION"):
		if len(a) < 2 {
			ev.emitDiag(DiagError, "dispatcher", n.name, o,
				"cmake_policy(VERSION ...) missing version", "")
			return ev.stopErr()
		}
		ev.varSet("CMAKE_POLICY_VERSION", a[1])
		ev.emitPolicyPartialWarningOnce(o, n.name)

	case equalsFold(a[0], "SET"):
		if len(a) < 3 || !isPolicyID(a[1]) {
			ev.emitDiag(DiagError, "dispatcher", n.name, o,
				"cmake_policy(SET ...) expects CMP<NNNN> and value",
				"Usage: cmake_policy(SET CMP0077 NEW)")
			return ev.stopErr()
		}
		if !ev.policySet(a[1], a[2]) {
			ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
				"cmake_policy(SET ...) supports only OLD/NEW", a[2])
		}
		ev.emitPolicyPartialWarningOnce(o, n.name)

	case equalsFold(a[0], "GET"):
		if len(a) < 3 || !isPolicyID(a[1]) {
			ev.emitDiag(DiagError, "dispatcher", n.name, o,
				"cmake_policy(GET ...) expects CMP<NNNN> and output variable",
				"Usage: cmake_policy(GET CMP0077 out_var)")
			return ev.stopErr()
		}
		ev.varSet(a[2], ev.policyEffective(a[1]))

	case equalsFold(a[0], "PUSH"):
		ev.policyPush()

	case equalsFold(a[0], "POP"):
		if !ev.policyPop() {
			ev.emitDiag(DiagError, "dispatcher", n.name, o,
				"cmake_policy(POP) without matching PUSH", "")
		}

	default:
		ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
			"Unknown cmake_policy() subcommand", a[0])
		ev.emitPolicyPartialWarningOnce(o, n.name)
	}
	return ev.stopErr()
}
