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
	"regexp"
	"strconv"
	"strings"
)

func (ev *Evaluator) listLoad(name string) []string {
	return splitListAll(ev.varGet(name))
}

func (ev *Evaluator) listStore(name string, items []string) {
	ev.varSet(name, joinList(items))
}

// normalizeListIndex maps a possibly-negative index into [0, count).
// allowEnd additionally accepts index == count (insertion point).
func normalizeListIndex(count int, raw int64, allowEnd bool) (int, bool) {
	idx := raw
	if idx < 0 {
		idx += int64(count)
	}
	if idx < 0 {
		return 0, false
	}
	if allowEnd {
		if idx > int64(count) {
			return 0, false
		}
	} else if idx >= int64(count) {
		return 0, false
	}
	return int(idx), true
}

func hList(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 2 {
		ev.emitDiag(DiagError, "list", n.name, o,
			"list() requires a subcommand and a list variable",
			"Usage: list(<subcommand> <list> ...)")
		return ev.stopErr()
	}

	sub := a[0]
	switch {
	case equalsFold(sub, "APPEND"), equalsFold(sub, "PREPEND"):
		items := ev.listLoad(a[1])
		if len(items) == 0 && ev.varGet(a[1]) == "" {
			items = nil
		}
		if equalsFold(sub, "APPEND") {
			items = append(items, a[2:]...)
		} else {
			items = append(append([]string(nil), a[2:]...), items...)
		}
		ev.listStore(a[1], items)

	case equalsFold(sub, "INSERT"):
		if len(a) < 4 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(INSERT) requires list variable, index and at least one element",
				"Usage: list(INSERT <list> <index> <element> [<element> ...])")
			return ev.stopErr()
		}
		raw, ok := parseInt(a[2])
		if !ok || raw < 0 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(INSERT) index must be a non-negative integer", a[2])
			return ev.stopErr()
		}
		items := ev.listLoad(a[1])
		idx, ok := normalizeListIndex(len(items), raw, true)
		if !ok {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(INSERT) index out of range", a[2])
			return ev.stopErr()
		}
		out := make([]string, 0, len(items)+len(a)-3)
		out = append(out, items[:idx]...)
		out = append(out, a[3:]...)
		out = append(out, items[idx:]...)
		ev.listStore(a[1], out)

	case equalsFold(sub, "REMOVE_ITEM"):
		items := ev.listLoad(a[1])
		remove := a[2:]
		var out []string
		for _, item := range items {
			drop := false
			for _, r := range remove {
				if item == r {
					drop = true
					break
				}
			}
			if !drop {
				out = append(out, item)
			}
		}
		ev.listStore(a[1], out)

	case equalsFold(sub, "REMOVE_AT"):
		if len(a) < 3 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(REMOVE_AT) requires list variable and at least one index",
				"Usage: list(REMOVE_AT <list> <index> [<index> ...])")
			return ev.stopErr()
		}
		items := ev.listLoad(a[1])
		removed := make([]bool, len(items))
		for _, tok := range a[2:] {
			raw, ok := parseInt(tok)
			var idx int
			if ok {
				idx, ok = normalizeListIndex(len(items), raw, false)
			}
			if !ok {
				ev.emitDiag(DiagError, "list", n.name, o,
					"list(REMOVE_AT) index out of range", tok)
				return ev.stopErr()
			}
			removed[idx] = true
		}
		var out []string
		for i, item := range items {
			if !removed[i] {
				out = append(out, item)
			}
		}
		ev.listStore(a[1], out)

	case equalsFold(sub, "REMOVE_DUPLICATES"):
		items := ev.listLoad(a[1])
		seen := make(map[string]bool, len(items))
		var out []string
		for _, item := range items {
			if !seen[item] {
				seen[item] = true
				out = append(out, item)
			}
		}
		ev.listStore(a[1], out)

	case equalsFold(sub, "LENGTH"):
		if len(a) < 3 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(LENGTH) requires list variable and output variable",
				"Usage: list(LENGTH <list> <out-var>)")
			return ev.stopErr()
		}
		count := 0
		if ev.varGet(a[1]) != "" {
			count = len(ev.listLoad(a[1]))
		}
		ev.varSet(a[2], strconv.Itoa(count))

	case equalsFold(sub, "GET"):
		if len(a) < 4 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(GET) requires list variable, index(es) and output variable",
				"Usage: list(GET <list> <index> [<index> ...] <out-var>)")
			return ev.stopErr()
		}
		items := ev.listLoad(a[1])
		outVar := a[len(a)-1]
		var picked []string
		for _, tok := range a[2 : len(a)-1] {
			raw, ok := parseInt(tok)
			if !ok {
				ev.emitDiag(DiagError, "list", n.name, o,
					"list(GET) index is not a valid integer", tok)
				return ev.stopErr()
			}
			idx, ok := normalizeListIndex(len(items), raw, false)
			if !ok {
				ev.emitDiag(DiagError, "list", n.name, o,
					"list(GET) index out of range", tok)
				return ev.stopErr()
			}
			picked = append(picked, items[idx])
		}
		ev.varSet(outVar, joinList(picked))

	case equalsFold(sub, "FIND"):
		if len(a) < 4 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(FIND) requires list variable, value and output variable",
				"Usage: list(FIND <list> <value> <out-var>)")
			return ev.stopErr()
		}
		items := ev.listLoad(a[1])
		found := -1
		for i, item := range items {
			if item == a[2] {
				found = i
				break
			}
		}
		ev.varSet(a[3], strconv.Itoa(found))

	case equalsFold(sub, "JOIN"):
		if len(a) < 4 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(JOIN) requires list variable, glue and output variable",
				"Usage: list(JOIN <list> <glue> <out-var>)")
			return ev.stopErr()
		}
		ev.varSet(a[3], strings.Join(ev.listLoad(a[1]), a[2]))

	case equalsFold(sub, "SUBLIST"):
		if len(a) < 5 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(SUBLIST) requires list variable, begin, length and output variable",
				"Usage: list(SUBLIST <list> <begin> <length> <out-var>)")
			return ev.stopErr()
		}
		begin, okB := parseInt(a[2])
		length, okL := parseInt(a[3])
		if !okB || !okL || begin < 0 || length < -1 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(SUBLIST) begin/length must be integers", "")
			return ev.stopErr()
		}
		items := ev.listLoad(a[1])
		if begin >= int64(len(items)) {
			ev.varSet(a[4], "")
			return ev.stopErr()
		}
		end := int64(len(items))
		if length >= 0 && begin+length < end {
			end = begin + length
		}
		ev.varSet(a[4], joinList(items[begin:end]))

	case equalsFold(sub, "POP_BACK"), equalsFold(sub, "POP_FRONT"):
		items := ev.listLoad(a[1])
		if ev.varGet(a[1]) == "" {
			items = nil
		}
		back := equalsFold(sub, "POP_BACK")
		outVars := a[2:]
		for _, out := range outVars {
			if len(items) == 0 {
				ev.varUnset(out)
				continue
			}
			if back {
				ev.varSet(out, items[len(items)-1])
				items = items[:len(items)-1]
			} else {
				ev.varSet(out, items[0])
				items = items[1:]
			}
		}
		if len(outVars) == 0 && len(items) > 0 {
			if back {
				items = items[:len(items)-1]
			} else {
				items = items[1:]
			}
		}
		ev.listStore(a[1], items)

	case equalsFold(sub, "FILTER"):
		return listFilter(ev, n, o, a)

	case equalsFold(sub, "TRANSFORM"):
		return listTransform(ev, n, o, a)

	case equalsFold(sub, "REVERSE"):
		items := ev.listLoad(a[1])
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		ev.listStore(a[1], items)

	case equalsFold(sub, "SORT"):
		return listSort(ev, n, o, a)

	default:
		ev.emitUnsupported(n.name, o, "Unsupported list() subcommand", sub)
	}
	return ev.stopErr()
}

func listFilter(ev *Evaluator, n *commandNode, o Origin, a []string) error {
	if len(a) < 5 || !equalsFold(a[3], "REGEX") ||
		!(equalsFold(a[2], "INCLUDE") || equalsFold(a[2], "EXCLUDE")) {
		ev.emitDiag(DiagError, "list", n.name, o,
			"list(FILTER) expects INCLUDE|EXCLUDE REGEX <pattern>",
			"Usage: list(FILTER <list> <INCLUDE|EXCLUDE> REGEX <pattern>)")
		return ev.stopErr()
	}
	re, err := regexp.CompilePOSIX(a[4])
	if err != nil {
		ev.emitDiag(DiagError, "list", n.name, o,
			"list(FILTER) invalid regular expression", a[4])
		return ev.stopErr()
	}
	include := equalsFold(a[2], "INCLUDE")
	var out []string
	for _, item := range ev.listLoad(a[1]) {
		if re.MatchString(item) == include {
			out = append(out, item)
		}
	}
	ev.listStore(a[1], out)
	return ev.stopErr()
}

func listTransform(ev *Evaluator, n *commandNode, o Origin, a []string) error {
	if len(a) < 3 {
		ev.emitDiag(DiagError, "list", n.name, o,
			"list(TRANSFORM) requires an action",
			"Usage: list(TRANSFORM <list> <ACTION> [args] [OUTPUT_VARIABLE <var>])")
		return ev.stopErr()
	}

	items := ev.listLoad(a[1])
	action := a[2]
	rest := a[3:]
	outVar := a[1]

	// OUTPUT_VARIABLE trails every action form.
	if len(rest) >= 2 && equalsFold(rest[len(rest)-2], "OUTPUT_VARIABLE") {
		outVar = rest[len(rest)-1]
		rest = rest[:len(rest)-2]
	}

	apply := func(f func(string) string) {
		for i := range items {
			items[i] = f(items[i])
		}
	}

	switch {
	case equalsFold(action, "APPEND"):
		if len(rest) < 1 {
			ev.emitDiag(DiagError, "list", n.name, o, "list(TRANSFORM APPEND) requires a value", "")
			return ev.stopErr()
		}
		apply(func(s string) string { return s + rest[0] })
	case equalsFold(action, "PREPEND"):
		if len(rest) < 1 {
			ev.emitDiag(DiagError, "list", n.name, o, "list(TRANSFORM PREPEND) requires a value", "")
			return ev.stopErr()
		}
		apply(func(s string) string { return rest[0] + s })
	case equalsFold(action, "TOLOWER"):
		apply(strings.ToLower)
	case equalsFold(action, "TOUPPER"):
		apply(strings.ToUpper)
	case equalsFold(action, "STRIP"):
		apply(func(s string) string { return strings.Trim(s, " \t\r\n") })
	case equalsFold(action, "REPLACE"):
		if len(rest) < 2 {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(TRANSFORM REPLACE) requires a pattern and a replacement", "")
			return ev.stopErr()
		}
		re, err := regexp.CompilePOSIX(rest[0])
		if err != nil {
			ev.emitDiag(DiagError, "list", n.name, o,
				"list(TRANSFORM REPLACE) invalid regular expression", rest[0])
			return ev.stopErr()
		}
		repl := regexReplacement(rest[1])
		apply(func(s string) string { return re.ReplaceAllString(s, repl) })
	default:
		ev.emitUnsupported(n.name, o, "list(TRANSFORM) unsupported action", action)
		return ev.stopErr()
	}

	ev.listStore(outVar, items)
	return ev.stopErr()
}

func listSort(ev *Evaluator, n *commandNode, o Origin, a []string) error {
	compare := "STRING"
	caseSensitive := true
	descending := false

	for i := 2; i < len(a); i++ {
		switch {
		case equalsFold(a[i], "COMPARE") && i+1 < len(a):
			i++
			compare = foldName(a[i])
		case equalsFold(a[i], "CASE") && i+1 < len(a):
			i++
			caseSensitive = !equalsFold(a[i], "INSENSITIVE")
		case equalsFold(a[i], "ORDER") && i+1 < len(a):
			i++
			descending = equalsFold(a[i], "DESCENDING")
		default:
			ev.emitDiag(DiagWarning, "list", n.name, o,
				"list(SORT) unexpected option", a[i])
		}
	}

	key := func(s string) string {
		if compare == "FILE_BASENAME" {
			s = baseOf(s)
		}
		if !caseSensitive {
			s = strings.ToLower(s)
		}
		return s
	}
	less := func(x, y string) bool {
		kx, ky := key(x), key(y)
		var c int
		if compare == "NATURAL" {
			c = naturalCompare(kx, ky)
		} else {
			c = strings.Compare(kx, ky)
		}
		if descending {
			return c > 0
		}
		return c < 0
	}

	// Stable insertion sort; list() inputs are small and ties must
	// keep their relative order.
	items := ev.listLoad(a[1])
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && less(items[j], items[j-1]); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	ev.listStore(a[1], items)
	return ev.stopErr()
}

// naturalCompare orders embedded digit runs numerically, so item10
// sorts after item9.
func naturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			si, sj := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na := strings.TrimLeft(a[si:i], "0")
			nb := strings.TrimLeft(b[sj:j], "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		if a[i] != b[j] {
			if a[i] < b[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	}
	return 0
}
