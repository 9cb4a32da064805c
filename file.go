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
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
)

func pathsFoldCase() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

func scopePathHasPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	p, pre := path, strings.TrimRight(prefix, "/")
	if pathsFoldCase() {
		p, pre = strings.ToLower(p), strings.ToLower(pre)
	}
	if !strings.HasPrefix(p, pre) {
		return false
	}
	return len(p) == len(pre) || p[len(pre)] == '/'
}

// canonicalizeExistingOrParent resolves symlinks for the deepest
// existing ancestor of path, so a link pointing out of the project is
// caught even when the leaf does not exist yet.
func canonicalizeExistingOrParent(path string) (string, bool) {
	probe := strings.ReplaceAll(path, "\\", "/")
	for {
		if canon, err := filepath.EvalSymlinks(probe); err == nil {
			return strings.ReplaceAll(canon, "\\", "/"), true
		}
		parent := dirOf(probe)
		if parent == probe || parent == "." {
			return "", false
		}
		probe = parent
	}
}

// resolveScopedPath enforces the project-scope rule for file()
// primitives: no .. segments, and the normalized (and canonicalized)
// path must descend from the source or binary directory.
func (ev *Evaluator) resolveScopedPath(command string, o Origin, input, relativeBase string) (string, bool) {
	if hasDotDot(input) {
		ev.emitDiag(DiagError, "file", command, o,
			"Security Violation: Path traversal (..) is not allowed", input)
		return "", false
	}

	path := input
	if !isAbsPath(path) {
		path = pathJoin(relativeBase, path)
	}
	path = normalizePath(path)

	if !scopePathHasPrefix(path, ev.binaryDir) && !scopePathHasPrefix(path, ev.sourceDir) {
		ev.emitDiag(DiagError, "file", command, o,
			"Security Violation: Absolute path outside project scope", path)
		return "", false
	}

	if canon, ok := canonicalizeExistingOrParent(path); ok {
		sourceScope := ev.sourceDir
		if c, ok := canonicalizeExistingOrParent(ev.sourceDir); ok {
			sourceScope = c
		}
		binaryScope := ev.binaryDir
		if c, ok := canonicalizeExistingOrParent(ev.binaryDir); ok {
			binaryScope = c
		}
		if !scopePathHasPrefix(canon, binaryScope) && !scopePathHasPrefix(canon, sourceScope) {
			ev.emitDiag(DiagError, "file", command, o,
				"Security Violation: Absolute path outside project scope", input)
			return "", false
		}
	}

	return path, true
}

func hFile(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) == 0 {
		return ev.stopErr()
	}

	sub := a[0]
	switch {
	case equalsFold(sub, "READ"):
		fileRead(ev, n, o, a)
	case equalsFold(sub, "STRINGS"):
		fileStrings(ev, n, o, a)
	case equalsFold(sub, "WRITE"), equalsFold(sub, "APPEND"):
		fileWrite(ev, n, o, a, equalsFold(sub, "APPEND"))
	case equalsFold(sub, "MAKE_DIRECTORY"):
		fileMakeDirectory(ev, n, o, a)
	case equalsFold(sub, "GLOB"):
		fileGlob(ev, n, o, a, false)
	case equalsFold(sub, "GLOB_RECURSE"):
		fileGlob(ev, n, o, a, true)
	case equalsFold(sub, "COPY"):
		fileCopy(ev, n, o, a)
	case equalsFold(sub, "REMOVE"), equalsFold(sub, "REMOVE_RECURSE"):
		fileRemove(ev, n, o, a, equalsFold(sub, "REMOVE_RECURSE"))
	case equalsFold(sub, "RENAME"):
		fileRename(ev, n, o, a)
	case equalsFold(sub, "SIZE"):
		fileSize(ev, n, o, a)
	case equalsFold(sub, "TOUCH"):
		fileTouch(ev, n, o, a)
	case equalsFold(sub, "DOWNLOAD"), equalsFold(sub, "UPLOAD"):
		ev.emitUnsupported(n.name, o,
			"file("+foldName(sub)+") requires a transfer backend that is not wired in",
			"The command was ignored")
	default:
		ev.emitDiag(DiagWarning, "file", n.name, o,
			"Unsupported file() subcommand", sub)
	}
	return ev.stopErr()
}

func (ev *Evaluator) fileRelativeBase() string {
	if d := ev.varGet("CMAKE_CURRENT_SOURCE_DIR"); d != "" {
		return d
	}
	return ev.sourceDir
}

func fileRead(ev *Evaluator, n *commandNode, o Origin, a []string) {
	if len(a) < 3 {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(READ) requires a path and an output variable",
			"Usage: file(READ <path> <out-var> [OFFSET <n>] [LIMIT <n>] [HEX])")
		return
	}
	var offset, limit int64 = 0, -1
	hexOut := false
	for i := 3; i < len(a); i++ {
		switch {
		case equalsFold(a[i], "OFFSET") && i+1 < len(a):
			i++
			offset, _ = parseInt(a[i])
		case equalsFold(a[i], "LIMIT") && i+1 < len(a):
			i++
			limit, _ = parseInt(a[i])
		case equalsFold(a[i], "HEX"):
			hexOut = true
		default:
			ev.emitDiag(DiagWarning, "file", n.name, o,
				"file(READ) unexpected option", a[i])
		}
	}

	path, ok := ev.resolveScopedPath(n.name, o, a[1], ev.fileRelativeBase())
	if !ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(READ) failed to read file", path)
		return
	}
	if offset > 0 {
		if offset > int64(len(data)) {
			offset = int64(len(data))
		}
		data = data[offset:]
	}
	if limit >= 0 && limit < int64(len(data)) {
		data = data[:limit]
	}
	if hexOut {
		ev.varSet(a[2], hex.EncodeToString(data))
	} else {
		ev.varSet(a[2], string(data))
	}
}

func fileStrings(ev *Evaluator, n *commandNode, o Origin, a []string) {
	if len(a) < 3 {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(STRINGS) requires a path and an output variable",
			"Usage: file(STRINGS <path> <out-var> [options])")
		return
	}

	var lengthMin, lengthMax, limitCount, limitInput, limitOutput int64 = -1, -1, -1, -1, -1
	var re *regexp.Regexp
	for i := 3; i < len(a); i++ {
		needsValue := func() bool { return i+1 < len(a) }
		switch {
		case equalsFold(a[i], "LENGTH_MINIMUM") && needsValue():
			i++
			lengthMin, _ = parseInt(a[i])
		case equalsFold(a[i], "LENGTH_MAXIMUM") && needsValue():
			i++
			lengthMax, _ = parseInt(a[i])
		case equalsFold(a[i], "LIMIT_COUNT") && needsValue():
			i++
			limitCount, _ = parseInt(a[i])
		case equalsFold(a[i], "LIMIT_INPUT") && needsValue():
			i++
			limitInput, _ = parseInt(a[i])
		case equalsFold(a[i], "LIMIT_OUTPUT") && needsValue():
			i++
			limitOutput, _ = parseInt(a[i])
		case equalsFold(a[i], "REGEX") && needsValue():
			i++
			var err error
			re, err = regexp.CompilePOSIX(a[i])
			if err != nil {
				ev.emitDiag(DiagError, "file", n.name, o,
					"file(STRINGS) invalid regular expression", a[i])
				return
			}
		case equalsFold(a[i], "NO_HEX_CONVERSION"):
			// Intel hex detection is not performed; accept the flag.
		default:
			ev.emitDiag(DiagWarning, "file", n.name, o,
				"file(STRINGS) unexpected option", a[i])
		}
	}

	path, ok := ev.resolveScopedPath(n.name, o, a[1], ev.fileRelativeBase())
	if !ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(STRINGS) failed to read file", path)
		return
	}
	if limitInput >= 0 && limitInput < int64(len(data)) {
		data = data[:limitInput]
	}

	var out []string
	var outBytes int64
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if lengthMin >= 0 && int64(len(line)) < lengthMin {
			continue
		}
		if lengthMax >= 0 && int64(len(line)) > lengthMax {
			line = line[:lengthMax]
		}
		if re != nil && !re.MatchString(line) {
			continue
		}
		if limitOutput >= 0 && outBytes+int64(len(line)) > limitOutput {
			break
		}
		out = append(out, line)
		outBytes += int64(len(line))
		if limitCount >= 0 && int64(len(out)) >= limitCount {
			break
		}
	}
	ev.varSet(a[2], joinList(out))
}

func fileWrite(ev *Evaluator, n *commandNode, o Origin, a []string, appendMode bool) {
	if len(a) < 2 {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(WRITE) requires a path", "Usage: file(WRITE <path> <content>...)")
		return
	}
	path, ok := ev.resolveScopedPath(n.name, o, a[1], ev.fileRelativeBase())
	if !ok {
		return
	}
	if err := os.MkdirAll(dirOf(path), 0o777); err != nil {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(WRITE) failed to create parent directories", path)
		return
	}
	content := strings.Join(a[2:], "")
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o666)
	if err == nil {
		_, err = f.WriteString(content)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(WRITE) failed to write file", path)
	}
}

func fileMakeDirectory(ev *Evaluator, n *commandNode, o Origin, a []string) {
	for _, dir := range a[1:] {
		path, ok := ev.resolveScopedPath(n.name, o, dir, ev.fileRelativeBase())
		if !ok {
			return
		}
		if err := os.MkdirAll(path, 0o777); err != nil {
			ev.emitDiag(DiagError, "file", n.name, o,
				"file(MAKE_DIRECTORY) failed to create directory", path)
			return
		}
	}
}

// splitGlobPattern separates the static directory prefix from the
// first segment containing a glob metacharacter.
func splitGlobPattern(pattern string) (dir, rest string) {
	segs := strings.Split(strings.ReplaceAll(pattern, "\\", "/"), "/")
	for i, seg := range segs {
		if strings.ContainsAny(seg, "*?[") {
			return strings.Join(segs[:i], "/"), strings.Join(segs[i:], "/")
		}
	}
	return strings.Join(segs, "/"), ""
}

func fileGlob(ev *Evaluator, n *commandNode, o Origin, a []string, recurse bool) {
	if len(a) < 2 {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(GLOB) requires an output variable",
			"Usage: file(GLOB <out-var> [LIST_DIRECTORIES true|false] [RELATIVE <base>] <pattern>...)")
		return
	}

	outVar := a[1]
	listDirectories := !recurse
	relativeBase := ""
	var patterns []string
	for i := 2; i < len(a); i++ {
		switch {
		case equalsFold(a[i], "LIST_DIRECTORIES") && i+1 < len(a):
			i++
			listDirectories = ev.truthy(a[i])
		case equalsFold(a[i], "RELATIVE") && i+1 < len(a):
			i++
			relativeBase = a[i]
		case equalsFold(a[i], "CONFIGURE_DEPENDS"):
			// Build-system side effect only; the evaluation result is
			// identical.
		case equalsFold(a[i], "FOLLOW_SYMLINKS"):
		default:
			patterns = append(patterns, a[i])
		}
	}

	globStrict := ev.truthy(ev.varGet("CMAKE_NOBIFY_FILE_GLOB_STRICT"))
	fold := pathsFoldCase()
	base := ev.fileRelativeBase()

	var results []string
	for _, pattern := range patterns {
		root := base
		pat := pattern
		if isAbsPath(pattern) {
			dir, rest := splitGlobPattern(pattern)
			if rest == "" {
				if st, err := os.Stat(pattern); err == nil && (listDirectories || !st.IsDir()) {
					results = append(results, normalizePath(pattern))
				}
				continue
			}
			root, pat = dir, rest
		}
		if _, ok := ev.resolveScopedPath(n.name, o, root, base); !ok {
			return
		}
		if recurse {
			dir, rest := splitGlobPattern(pat)
			if dir != "" {
				root = pathJoin(root, dir)
			}
			pat = "**/" + rest
		}

		matchPat := pat
		if fold {
			matchPat = strings.ToLower(matchPat)
		}
		walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if globStrict {
					return err
				}
				glog.V(1).Infof("glob: skipping %s: %v", p, err)
				return nil
			}
			if p == root {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return nil
			}
			rel = strings.ReplaceAll(rel, "\\", "/")
			if !d.IsDir() || listDirectories {
				name := rel
				if fold {
					name = strings.ToLower(name)
				}
				if ok, _ := doublestar.Match(matchPat, name); ok {
					results = append(results, normalizePath(pathJoin(root, rel)))
				}
			}
			return nil
		})
		if walkErr != nil {
			ev.emitDiag(DiagError, "file", n.name, o,
				"file(GLOB) failed to traverse directory", root)
			return
		}
	}

	sort.Strings(results)
	if relativeBase != "" {
		for i, r := range results {
			if rel, err := filepath.Rel(relativeBase, r); err == nil {
				results[i] = strings.ReplaceAll(rel, "\\", "/")
			}
		}
	}
	ev.varSet(outVar, joinList(results))
}

type copyFilter struct {
	re      *regexp.Regexp
	pattern string
	exclude bool
}

func (f *copyFilter) matches(rel string) bool {
	if f.re != nil {
		return f.re.MatchString(rel)
	}
	ok, _ := doublestar.Match(f.pattern, baseOf(rel))
	return ok
}

func fileCopy(ev *Evaluator, n *commandNode, o Origin, a []string) {
	var sources []string
	destination := ""
	filesMatching := false
	var filters []copyFilter

	i := 1
	for ; i < len(a); i++ {
		switch {
		case equalsFold(a[i], "DESTINATION") && i+1 < len(a):
			i++
			destination = a[i]
		case equalsFold(a[i], "FILES_MATCHING"):
			filesMatching = true
		case equalsFold(a[i], "PATTERN") && i+1 < len(a):
			i++
			f := copyFilter{pattern: a[i]}
			if i+1 < len(a) && equalsFold(a[i+1], "EXCLUDE") {
				i++
				f.exclude = true
			}
			filters = append(filters, f)
		case equalsFold(a[i], "REGEX") && i+1 < len(a):
			i++
			re, err := regexp.CompilePOSIX(a[i])
			if err != nil {
				ev.emitDiag(DiagError, "file", n.name, o,
					"file(COPY) invalid regular expression", a[i])
				return
			}
			f := copyFilter{re: re}
			if i+1 < len(a) && equalsFold(a[i+1], "EXCLUDE") {
				i++
				f.exclude = true
			}
			filters = append(filters, f)
		case equalsFold(a[i], "PERMISSIONS"), equalsFold(a[i], "FILE_PERMISSIONS"),
			equalsFold(a[i], "DIRECTORY_PERMISSIONS"):
			for i+1 < len(a) && isPermissionToken(a[i+1]) {
				i++
			}
		case equalsFold(a[i], "FOLLOW_SYMLINK_CHAIN"):
			ev.emitDiag(DiagWarning, "file", n.name, o,
				"file(COPY) FOLLOW_SYMLINK_CHAIN uses default copy semantics", "")
		default:
			if isPermissionToken(a[i]) {
				ev.emitDiag(DiagWarning, "file", n.name, o,
					"file(COPY) unknown permission token", a[i])
				continue
			}
			sources = append(sources, a[i])
		}
	}

	if destination == "" || len(sources) == 0 {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(COPY) requires sources and DESTINATION",
			"Usage: file(COPY <src>... DESTINATION <dir>)")
		return
	}

	destBase := ev.varGet("CMAKE_CURRENT_BINARY_DIR")
	if destBase == "" {
		destBase = ev.binaryDir
	}
	destPath, ok := ev.resolveScopedPath(n.name, o, destination, destBase)
	if !ok {
		return
	}

	allowed := func(rel string, isDir bool) bool {
		if isDir {
			return true
		}
		matchedInclude := false
		for _, f := range filters {
			if f.matches(rel) {
				if f.exclude {
					return false
				}
				matchedInclude = true
			}
		}
		if filesMatching && len(filters) > 0 {
			return matchedInclude
		}
		return true
	}

	for _, src := range sources {
		srcPath, ok := ev.resolveScopedPath(n.name, o, src, ev.fileRelativeBase())
		if !ok {
			return
		}
		if err := copyTree(srcPath, pathJoin(destPath, baseOf(srcPath)), allowed); err != nil {
			ev.emitDiag(DiagError, "file", n.name, o,
				"file(COPY) failed to copy", srcPath)
			return
		}
	}
}

var permissionTokens = map[string]os.FileMode{
	"OWNER_READ":    0o400,
	"OWNER_WRITE":   0o200,
	"OWNER_EXECUTE": 0o100,
	"GROUP_READ":    0o040,
	"GROUP_WRITE":   0o020,
	"GROUP_EXECUTE": 0o010,
	"WORLD_READ":    0o004,
	"WORLD_WRITE":   0o002,
	"WORLD_EXECUTE": 0o001,
	"SETUID":        os.ModeSetuid,
	"SETGID":        os.ModeSetgid,
}

func isPermissionToken(tok string) bool {
	_, ok := permissionTokens[foldName(tok)]
	return ok
}

func copyTree(src, dst string, allowed func(rel string, isDir bool) bool) error {
	st, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		if !allowed(baseOf(src), false) {
			return nil
		}
		return copyFileContents(src, dst, st.Mode())
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		rel = strings.ReplaceAll(rel, "\\", "/")
		target := dst
		if rel != "." {
			target = pathJoin(dst, rel)
		}
		if d.IsDir() {
			return os.MkdirAll(target, 0o777)
		}
		if !allowed(rel, false) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFileContents(p, target, info.Mode())
	})
}

func copyFileContents(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dirOf(dst), 0o777); err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, mode.Perm()); err != nil {
		return err
	}
	// Permission modes are advisory on Windows; Chmod is a no-op there.
	return os.Chmod(dst, mode.Perm())
}

func fileRemove(ev *Evaluator, n *commandNode, o Origin, a []string, recurse bool) {
	for _, item := range a[1:] {
		path, ok := ev.resolveScopedPath(n.name, o, item, ev.fileRelativeBase())
		if !ok {
			return
		}
		if recurse {
			os.RemoveAll(path)
			continue
		}
		if st, err := os.Stat(path); err == nil && st.IsDir() {
			ev.emitDiag(DiagWarning, "file", n.name, o,
				"file(REMOVE) cannot remove a directory; use REMOVE_RECURSE", path)
			continue
		}
		os.Remove(path)
	}
}

func fileRename(ev *Evaluator, n *commandNode, o Origin, a []string) {
	if len(a) < 3 {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(RENAME) requires oldname and newname",
			"Usage: file(RENAME <oldname> <newname>)")
		return
	}
	oldPath, ok := ev.resolveScopedPath(n.name, o, a[1], ev.fileRelativeBase())
	if !ok {
		return
	}
	newPath, ok := ev.resolveScopedPath(n.name, o, a[2], ev.fileRelativeBase())
	if !ok {
		return
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(RENAME) failed", oldPath)
	}
}

func fileSize(ev *Evaluator, n *commandNode, o Origin, a []string) {
	if len(a) < 3 {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(SIZE) requires a path and an output variable",
			"Usage: file(SIZE <path> <out-var>)")
		return
	}
	path, ok := ev.resolveScopedPath(n.name, o, a[1], ev.fileRelativeBase())
	if !ok {
		return
	}
	st, err := os.Stat(path)
	if err != nil {
		ev.emitDiag(DiagError, "file", n.name, o,
			"file(SIZE) failed to stat file", path)
		return
	}
	ev.varSet(a[2], strconv.FormatInt(st.Size(), 10))
}

func fileTouch(ev *Evaluator, n *commandNode, o Origin, a []string) {
	for _, item := range a[1:] {
		path, ok := ev.resolveScopedPath(n.name, o, item, ev.fileRelativeBase())
		if !ok {
			return
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			ev.emitDiag(DiagError, "file", n.name, o,
				"file(TOUCH) failed to create file", path)
			return
		}
		f.Close()
	}
}
