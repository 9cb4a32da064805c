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
	"runtime"
	"strings"
)

// Path decomposition follows the root-name / root-directory /
// relative-part model: "C:" is a root name, a leading separator the
// root directory, and everything after both the relative part.

func pathRootName(p string) string {
	if len(p) >= 2 && isAlpha(p[0]) && p[1] == ':' {
		return p[:2]
	}
	if len(p) >= 2 && isPathSep(p[0]) && isPathSep(p[1]) {
		// UNC: //server
		i := 2
		for i < len(p) && !isPathSep(p[i]) {
			i++
		}
		return p[:i]
	}
	return ""
}

func pathRootDirectory(p string) string {
	rn := pathRootName(p)
	if len(p) > len(rn) && isPathSep(p[len(rn)]) {
		return "/"
	}
	return ""
}

func pathRootPath(p string) string {
	rn := pathRootName(p)
	if pathRootDirectory(p) != "" {
		return rn + "/"
	}
	return rn
}

func pathFilename(p string) string {
	if p == "" || isPathSep(p[len(p)-1]) {
		return ""
	}
	return baseOf(p)
}

// pathStem returns the filename without its extension. lastOnly keeps
// everything before the final dot instead of the first one.
func pathStem(name string, lastOnly bool) string {
	if name == "." || name == ".." {
		return name
	}
	var dot int
	if lastOnly {
		dot = strings.LastIndexByte(name, '.')
	} else {
		dot = strings.IndexByte(name[1:], '.')
		if dot >= 0 {
			dot++
		}
	}
	if dot <= 0 {
		return name
	}
	return name[:dot]
}

func pathExtension(name string, lastOnly bool) string {
	stem := pathStem(name, lastOnly)
	return name[len(stem):]
}

func pathRelativePart(p string) string {
	root := pathRootPath(p)
	rel := p[len(root):]
	for len(rel) > 0 && isPathSep(rel[0]) {
		rel = rel[1:]
	}
	return rel
}

func pathParent(p string) string {
	i := -1
	for j := len(p); j > 0; j-- {
		if isPathSep(p[j-1]) {
			i = j - 1
			break
		}
	}
	if i < 0 {
		return ""
	}
	if i == 0 {
		return "/"
	}
	if i == 2 && len(p) >= 3 && p[1] == ':' {
		return p[:3]
	}
	return p[:i]
}

func pathsEqualFold(a, b string) bool {
	if pathsFoldCase() {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func pathSegmentsAfterRoot(p string) []string {
	rel := pathRelativePart(p)
	var segs []string
	for _, s := range strings.FieldsFunc(rel, func(r rune) bool { return r == '/' || r == '\\' }) {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// relativizePath computes path relative to baseDir; paths on different
// roots come back unchanged.
func relativizePath(path, baseDir string) string {
	a := normalizePath(path)
	b := normalizePath(baseDir)
	if !pathsEqualFold(pathRootPath(a), pathRootPath(b)) {
		return a
	}
	segA := pathSegmentsAfterRoot(a)
	segB := pathSegmentsAfterRoot(b)
	common := 0
	for common < len(segA) && common < len(segB) && pathsEqualFold(segA[common], segB[common]) {
		common++
	}
	var out []string
	for i := common; i < len(segB); i++ {
		out = append(out, "..")
	}
	out = append(out, segA[common:]...)
	if len(out) == 0 {
		return "."
	}
	return strings.Join(out, "/")
}

func pathComponent(input, component string) (string, bool) {
	switch {
	case equalsFold(component, "ROOT_NAME"):
		return pathRootName(input), true
	case equalsFold(component, "ROOT_DIRECTORY"):
		return pathRootDirectory(input), true
	case equalsFold(component, "ROOT_PATH"):
		return pathRootPath(input), true
	case equalsFold(component, "FILENAME"):
		return pathFilename(input), true
	case equalsFold(component, "STEM"):
		return pathStem(pathFilename(input), false), true
	case equalsFold(component, "EXTENSION"):
		return pathExtension(pathFilename(input), false), true
	case equalsFold(component, "RELATIVE_PART"):
		return pathRelativePart(input), true
	case equalsFold(component, "PARENT_PATH"):
		return pathParent(input), true
	}
	return "", false
}

func hCMakePath(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		return ev.stopErr()
	}

	mode := a[0]

	// Most subcommands address a path variable; its value is used when
	// defined, the literal token otherwise.
	pathValue := func(tok string) string {
		if ev.varDefined(tok) {
			return ev.varGet(tok)
		}
		return tok
	}

	// OUTPUT_VARIABLE and flag options trail the positional arguments
	// of the mutation subcommands.
	parseTail := func(args []string, outDefault string) (rest []string, outVar string, normalize, lastOnly bool, baseDir string) {
		outVar = outDefault
		for i := 0; i < len(args); i++ {
			switch {
			case equalsFold(args[i], "OUTPUT_VARIABLE") && i+1 < len(args):
				i++
				outVar = args[i]
			case equalsFold(args[i], "NORMALIZE"):
				normalize = true
			case equalsFold(args[i], "LAST_ONLY"):
				lastOnly = true
			case equalsFold(args[i], "BASE_DIRECTORY") && i+1 < len(args):
				i++
				baseDir = args[i]
			default:
				rest = append(rest, args[i])
			}
		}
		return
	}

	switch {
	case equalsFold(mode, "SET") && len(a) >= 2:
		rest, _, normalize, _, _ := parseTail(a[2:], a[1])
		value := ""
		if len(rest) > 0 {
			value = rest[0]
		}
		if normalize {
			value = normalizePath(value)
		}
		ev.varSet(a[1], value)

	case equalsFold(mode, "GET") && len(a) >= 4:
		input := normalizePath(pathValue(a[1]))
		result, supported := pathComponent(input, a[2])
		if !supported {
			ev.emitDiag(DiagWarning, "cmake_path", n.name, o,
				"cmake_path(GET ...) unsupported component", a[2])
		}
		ev.varSet(a[3], result)

	case equalsFold(mode, "APPEND") && len(a) >= 2:
		rest, outVar, normalize, _, _ := parseTail(a[2:], a[1])
		current := pathValue(a[1])
		for _, item := range rest {
			if isAbsPath(item) {
				current = item
				continue
			}
			current = pathJoin(current, item)
		}
		if normalize {
			current = normalizePath(current)
		}
		ev.varSet(outVar, current)

	case equalsFold(mode, "APPEND_STRING") && len(a) >= 2:
		rest, outVar, _, _, _ := parseTail(a[2:], a[1])
		ev.varSet(outVar, pathValue(a[1])+strings.Join(rest, ""))

	case equalsFold(mode, "REMOVE_FILENAME") && len(a) >= 2:
		_, outVar, _, _, _ := parseTail(a[2:], a[1])
		p := pathValue(a[1])
		name := pathFilename(p)
		ev.varSet(outVar, p[:len(p)-len(name)])

	case equalsFold(mode, "REPLACE_FILENAME") && len(a) >= 3:
		rest, outVar, _, _, _ := parseTail(a[2:], a[1])
		p := pathValue(a[1])
		name := pathFilename(p)
		repl := ""
		if len(rest) > 0 {
			repl = rest[0]
		}
		ev.varSet(outVar, p[:len(p)-len(name)]+repl)

	case equalsFold(mode, "REMOVE_EXTENSION") && len(a) >= 2:
		_, outVar, _, lastOnly, _ := parseTail(a[2:], a[1])
		p := pathValue(a[1])
		name := pathFilename(p)
		ext := pathExtension(name, lastOnly)
		ev.varSet(outVar, p[:len(p)-len(ext)])

	case equalsFold(mode, "REPLACE_EXTENSION") && len(a) >= 3:
		rest, outVar, _, lastOnly, _ := parseTail(a[2:], a[1])
		p := pathValue(a[1])
		name := pathFilename(p)
		ext := pathExtension(name, lastOnly)
		repl := ""
		if len(rest) > 0 {
			repl = rest[0]
			if repl != "" && repl[0] != '.' {
				repl = "." + repl
			}
		}
		ev.varSet(outVar, p[:len(p)-len(ext)]+repl)

	case equalsFold(mode, "NORMAL_PATH") && len(a) >= 2:
		_, outVar, _, _, _ := parseTail(a[2:], a[1])
		ev.varSet(outVar, normalizePath(pathValue(a[1])))

	case equalsFold(mode, "RELATIVE_PATH") && len(a) >= 2:
		_, outVar, _, _, baseDir := parseTail(a[2:], a[1])
		if baseDir == "" {
			baseDir = ev.varGet("CMAKE_CURRENT_LIST_DIR")
			if baseDir == "" {
				baseDir = ev.sourceDir
			}
		}
		ev.varSet(outVar, relativizePath(pathValue(a[1]), baseDir))

	case equalsFold(mode, "ABSOLUTE_PATH") && len(a) >= 2:
		_, outVar, normalize, _, baseDir := parseTail(a[2:], a[1])
		if baseDir == "" {
			baseDir = ev.varGet("CMAKE_CURRENT_SOURCE_DIR")
			if baseDir == "" {
				baseDir = ev.sourceDir
			}
		}
		p := pathValue(a[1])
		if !isAbsPath(p) {
			p = pathJoin(baseDir, p)
		}
		if normalize {
			p = normalizePath(p)
		}
		ev.varSet(outVar, p)

	case equalsFold(mode, "NATIVE_PATH") && len(a) >= 3:
		rest, _, normalize, _, _ := parseTail(a[2:], "")
		p := pathValue(a[1])
		if normalize {
			p = normalizePath(p)
		}
		if runtime.GOOS == "windows" {
			p = strings.ReplaceAll(p, "/", "\\")
		}
		outVar := a[len(a)-1]
		if len(rest) > 0 {
			outVar = rest[len(rest)-1]
		}
		ev.varSet(outVar, p)

	case equalsFold(mode, "CONVERT") && len(a) >= 4:
		input := a[1]
		op := a[2]
		outVar := a[3]
		normalize := len(a) >= 5 && equalsFold(a[4], "NORMALIZE")
		items := splitListAll(input)
		for i, item := range items {
			item = strings.ReplaceAll(item, "\\", "/")
			if normalize {
				item = normalizePath(item)
			}
			if equalsFold(op, "TO_NATIVE_PATH_LIST") && runtime.GOOS == "windows" {
				item = strings.ReplaceAll(item, "/", "\\")
			}
			items[i] = item
		}
		if !equalsFold(op, "TO_CMAKE_PATH_LIST") && !equalsFold(op, "TO_NATIVE_PATH_LIST") {
			ev.emitDiag(DiagWarning, "cmake_path", n.name, o,
				"cmake_path(CONVERT) unsupported conversion", op)
		}
		ev.varSet(outVar, joinList(items))

	case equalsFold(mode, "COMPARE") && len(a) >= 5:
		lhs := normalizePath(a[1])
		op := a[2]
		rhs := normalizePath(a[3])
		cmp := strings.Compare(lhs, rhs)
		var ok bool
		switch {
		case equalsFold(op, "EQUAL"):
			ok = cmp == 0
		case equalsFold(op, "NOT_EQUAL"):
			ok = cmp != 0
		case equalsFold(op, "LESS"):
			ok = cmp < 0
		case equalsFold(op, "LESS_EQUAL"):
			ok = cmp <= 0
		case equalsFold(op, "GREATER"):
			ok = cmp > 0
		case equalsFold(op, "GREATER_EQUAL"):
			ok = cmp >= 0
		}
		if ok {
			ev.varSet(a[4], "ON")
		} else {
			ev.varSet(a[4], "OFF")
		}

	case hasPrefixFold(mode, "HAS_") && len(a) >= 3:
		input := normalizePath(pathValue(a[1]))
		comp, supported := pathComponent(input, mode[4:])
		has := supported && comp != ""
		if has {
			ev.varSet(a[2], "ON")
		} else {
			ev.varSet(a[2], "OFF")
		}

	case equalsFold(mode, "IS_ABSOLUTE") && len(a) >= 3:
		if isAbsPath(normalizePath(pathValue(a[1]))) {
			ev.varSet(a[2], "ON")
		} else {
			ev.varSet(a[2], "OFF")
		}

	case equalsFold(mode, "IS_RELATIVE") && len(a) >= 3:
		if isAbsPath(normalizePath(pathValue(a[1]))) {
			ev.varSet(a[2], "OFF")
		} else {
			ev.varSet(a[2], "ON")
		}

	case equalsFold(mode, "IS_PREFIX") && len(a) >= 4:
		prefix := normalizePath(pathValue(a[1]))
		target := normalizePath(a[2])
		outVar := a[3]
		if len(a) >= 5 && equalsFold(a[2], "NORMALIZE") {
			target = normalizePath(a[3])
			outVar = a[4]
		}
		if scopePathHasPrefix(target, prefix) {
			ev.varSet(outVar, "ON")
		} else {
			ev.varSet(outVar, "OFF")
		}

	default:
		ev.emitUnsupported(n.name, o,
			"cmake_path() subcommand is not implemented",
			"Implemented: SET, GET, APPEND, APPEND_STRING, REMOVE_FILENAME, REPLACE_FILENAME, REMOVE_EXTENSION, REPLACE_EXTENSION, NORMAL_PATH, RELATIVE_PATH, ABSOLUTE_PATH, NATIVE_PATH, CONVERT, COMPARE, HAS_*, IS_*")
	}
	return ev.stopErr()
}
