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
	"strconv"
	"strings"
)

var wsbytes = [256]bool{' ': true, '\t': true, '\n': true, '\r': true}

func isWhitespace(ch byte) bool {
	return wsbytes[ch]
}

// equalsFold reports whether a and b are equal under ASCII case folding.
// CMake command names, keywords and variable names all compare this way.
func equalsFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && equalsFold(s[:len(prefix)], prefix)
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && equalsFold(s[len(s)-len(suffix):], suffix)
}

// foldName maps a name to its ASCII-uppercase form, the canonical map key
// for variable scopes, macro frames and the target registry.
func foldName(s string) string {
	for i := 0; i < len(s); i++ {
		if 'a' <= s[i] && s[i] <= 'z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'a' <= b[j] && b[j] <= 'z' {
					b[j] -= 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

// splitList splits a ;-list the way resolve_args does for unquoted
// arguments: separators inside generator expressions are preserved and
// empty fragments are dropped.
func splitList(s string) []string {
	var r []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '<':
			depth++
			i++
		case s[i] == '>' && depth > 0:
			depth--
		case s[i] == ';' && depth == 0:
			if i > start {
				r = append(r, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		r = append(r, s[start:])
	}
	return r
}

// splitListAll is like splitList but keeps empty elements. list()
// operations use it so explicit empty items survive round trips.
func splitListAll(s string) []string {
	if s == "" {
		return nil
	}
	var r []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '<':
			depth++
			i++
		case s[i] == '>' && depth > 0:
			depth--
		case s[i] == ';' && depth == 0:
			r = append(r, s[start:i])
			start = i + 1
		}
	}
	r = append(r, s[start:])
	return r
}

func joinList(items []string) string {
	return strings.Join(items, ";")
}

func isPathSep(c byte) bool {
	return c == '/' || c == '\\'
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// isAbsPath reports whether p is absolute in either POSIX or Windows
// drive-letter form.
func isAbsPath(p string) bool {
	if p == "" {
		return false
	}
	if isPathSep(p[0]) {
		return true
	}
	return len(p) >= 3 && isAlpha(p[0]) && p[1] == ':' && isPathSep(p[2])
}

func pathJoin(dir, name string) string {
	if dir == "" {
		return name
	}
	if name == "" {
		return dir
	}
	if isPathSep(dir[len(dir)-1]) {
		return dir + name
	}
	return dir + "/" + name
}

// dirOf returns the directory part of a /- or \-separated path, or "."
// when the path has no separator.
func dirOf(path string) string {
	for i := len(path); i > 0; i-- {
		if isPathSep(path[i-1]) {
			if i == 1 {
				return "/"
			}
			return path[:i-1]
		}
	}
	return "."
}

func baseOf(path string) string {
	for i := len(path); i > 0; i-- {
		if isPathSep(path[i-1]) {
			return path[i:]
		}
	}
	return path
}

// normalizePath collapses . and .. segments and redundant separators,
// handling POSIX roots and drive-letter roots. Relative paths that
// normalize to nothing become ".".
func normalizePath(p string) string {
	if p == "" {
		return "."
	}
	hasDrive := len(p) >= 2 && isAlpha(p[0]) && p[1] == ':'
	abs := false
	pos := 0
	if hasDrive {
		pos = 2
		if pos < len(p) && isPathSep(p[pos]) {
			abs = true
			for pos < len(p) && isPathSep(p[pos]) {
				pos++
			}
		}
	} else if isPathSep(p[0]) {
		abs = true
		for pos < len(p) && isPathSep(p[pos]) {
			pos++
		}
	}

	var segs []string
	for pos < len(p) {
		start := pos
		for pos < len(p) && !isPathSep(p[pos]) {
			pos++
		}
		seg := p[start:pos]
		for pos < len(p) && isPathSep(p[pos]) {
			pos++
		}
		switch seg {
		case "", ".":
		case "..":
			if len(segs) > 0 && segs[len(segs)-1] != ".." {
				segs = segs[:len(segs)-1]
			} else if !abs {
				segs = append(segs, seg)
			}
		default:
			segs = append(segs, seg)
		}
	}

	buf := newBuf()
	defer buf.release()
	if hasDrive {
		buf.WriteByte(p[0])
		buf.WriteByte(':')
	}
	if abs {
		buf.WriteByte('/')
	}
	for i, seg := range segs {
		if i > 0 {
			buf.WriteByte('/')
		}
		buf.WriteString(seg)
	}
	if len(segs) == 0 && !abs && !hasDrive {
		buf.WriteByte('.')
	}
	return buf.String()
}

// hasDotDot reports whether any path segment is "..". The file()
// security rule rejects such paths outright.
func hasDotDot(p string) bool {
	for i := 0; i < len(p); {
		start := i
		for i < len(p) && !isPathSep(p[i]) {
			i++
		}
		if p[start:i] == ".." {
			return true
		}
		for i < len(p) && isPathSep(p[i]) {
			i++
		}
	}
	return false
}

func parseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// compareVersions compares dot-separated version strings part-wise.
// All-digit parts compare numerically with leading zeros stripped,
// anything else compares lexicographically. Missing parts read as "0".
func compareVersions(a, b string) int {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		xa, xb := "0", "0"
		if i < len(pa) && pa[i] != "" {
			xa = pa[i]
		}
		if i < len(pb) && pb[i] != "" {
			xb = pb[i]
		}
		if c := compareVersionPart(xa, xb); c != 0 {
			return c
		}
	}
	return 0
}

func compareVersionPart(a, b string) int {
	if allDigits(a) && allDigits(b) {
		a = strings.TrimLeft(a, "0")
		b = strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a, b)
}
