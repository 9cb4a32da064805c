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
	"path/filepath"
	"strings"
)

func (ev *Evaluator) pushEvent(e Event) {
	ev.stream.Push(e)
}

func (ev *Evaluator) emitDirPush(o Origin, sourceDir, binaryDir string) {
	ev.pushEvent(DirPushEvent{eventBase{o}, sourceDir, binaryDir})
}

func (ev *Evaluator) emitDirPop(o Origin) {
	ev.pushEvent(DirPopEvent{eventBase{o}})
}

func hSet(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) == 0 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"set() missing variable name", "Usage: set(<var> <value>...)")
		return ev.stopErr()
	}

	name := a[0]
	if strings.HasPrefix(name, "ENV{") && strings.HasSuffix(name, "}") {
		env := name[4 : len(name)-1]
		if len(a) < 2 {
			ev.unsetEnvVar(env)
		} else {
			ev.setEnvVar(env, a[1])
		}
		return ev.stopErr()
	}

	values := a[1:]
	parentScope := false
	if len(values) > 0 && equalsFold(values[len(values)-1], "PARENT_SCOPE") {
		parentScope = true
		values = values[:len(values)-1]
	}

	// CACHE <type> <doc> [FORCE] — cache semantics degrade to plain
	// variables; non-FORCE cache writes keep an existing value.
	cacheIdx := -1
	for i, v := range values {
		if equalsFold(v, "CACHE") {
			cacheIdx = i
			break
		}
	}
	if cacheIdx >= 0 {
		force := false
		for _, v := range values[cacheIdx:] {
			if equalsFold(v, "FORCE") {
				force = true
			}
		}
		values = values[:cacheIdx]
		if !force && ev.varDefined(name) {
			return ev.stopErr()
		}
	}

	if len(values) == 0 && cacheIdx < 0 && !parentScope {
		ev.varUnset(name)
		return ev.stopErr()
	}

	value := joinList(values)
	if parentScope {
		ev.varSetParent(name, value)
	} else {
		ev.varSet(name, value)
	}
	return ev.stopErr()
}

func hUnset(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) == 0 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"unset() missing variable name", "Usage: unset(<var> [CACHE|PARENT_SCOPE])")
		return ev.stopErr()
	}
	name := a[0]
	if strings.HasPrefix(name, "ENV{") && strings.HasSuffix(name, "}") {
		ev.unsetEnvVar(name[4 : len(name)-1])
		return ev.stopErr()
	}
	if len(a) >= 2 && equalsFold(a[1], "PARENT_SCOPE") {
		ev.varUnsetParent(name)
		return ev.stopErr()
	}
	ev.varUnset(name)
	return ev.stopErr()
}

func hOption(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 2 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"option() requires a variable and a description",
			"Usage: option(<var> \"<help>\" [value])")
		return ev.stopErr()
	}
	if ev.varDefined(a[0]) {
		return ev.stopErr()
	}
	value := "OFF"
	if len(a) >= 3 {
		value = a[2]
	}
	ev.varSet(a[0], value)
	return ev.stopErr()
}

func hMessage(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}

	mode := "NOTICE"
	rest := a
	if len(a) > 0 {
		switch {
		case equalsFold(a[0], "FATAL_ERROR"), equalsFold(a[0], "SEND_ERROR"),
			equalsFold(a[0], "WARNING"), equalsFold(a[0], "AUTHOR_WARNING"),
			equalsFold(a[0], "DEPRECATION"), equalsFold(a[0], "STATUS"),
			equalsFold(a[0], "NOTICE"), equalsFold(a[0], "VERBOSE"),
			equalsFold(a[0], "DEBUG"), equalsFold(a[0], "TRACE"):
			mode = foldName(a[0])
			rest = a[1:]
		}
	}
	text := strings.Join(rest, "")

	switch mode {
	case "FATAL_ERROR":
		ev.emitDiag(DiagError, "message", n.name, o, text, "")
		ev.requestStop()
	case "SEND_ERROR":
		ev.emitDiag(DiagError, "message", n.name, o, text, "")
	case "WARNING", "AUTHOR_WARNING", "DEPRECATION":
		ev.emitDiag(DiagWarning, "message", n.name, o, text, "")
	default:
		ev.emitDiag(DiagNotice, "message", n.name, o, text, "")
	}
	return ev.stopErr()
}

func hBreak(ev *Evaluator, n *commandNode) error {
	if ev.loopDepth == 0 {
		ev.emitDiag(DiagWarning, "dispatcher", n.name, ev.originAt(n.pos()),
			"break() outside of a loop", "Ignored")
		return ev.stopErr()
	}
	ev.breakRequested = true
	return ev.stopErr()
}

func hContinue(ev *Evaluator, n *commandNode) error {
	if ev.loopDepth == 0 {
		ev.emitDiag(DiagWarning, "dispatcher", n.name, ev.originAt(n.pos()),
			"continue() outside of a loop", "Ignored")
		return ev.stopErr()
	}
	ev.continueRequested = true
	return ev.stopErr()
}

func hReturn(ev *Evaluator, n *commandNode) error {
	ev.returnRequested = true
	return ev.stopErr()
}

func hCMakeMinimumRequired(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 2 || !equalsFold(a[0], "VERSION") {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"cmake_minimum_required() expects VERSION",
			"Usage: cmake_minimum_required(VERSION <min>[...<max>] [FATAL_ERROR])")
		return ev.stopErr()
	}

	version := a[1]
	minVersion, policyVersion := version, version
	if i := strings.Index(version, "..."); i >= 0 {
		minVersion = version[:i]
		policyVersion = version[i+3:]
	}
	if minVersion == "" {
		minVersion = version
	}
	if policyVersion == "" {
		policyVersion = minVersion
	}

	ev.varSet("CMAKE_MINIMUM_REQUIRED_VERSION", minVersion)
	ev.varSet("CMAKE_POLICY_VERSION", policyVersion)
	ev.emitPolicyPartialWarningOnce(o, n.name)
	return ev.stopErr()
}

func hProject(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"project() missing name", "Usage: project(<name> [VERSION v] ...)")
		return ev.stopErr()
	}

	name := a[0]
	version, desc := "", ""
	var langs []string
	for i := 1; i < len(a); i++ {
		switch {
		case equalsFold(a[i], "VERSION") && i+1 < len(a):
			i++
			version = a[i]
		case equalsFold(a[i], "DESCRIPTION") && i+1 < len(a):
			i++
			desc = a[i]
		case equalsFold(a[i], "LANGUAGES"):
			langs = append(langs, a[i+1:]...)
			i = len(a)
		}
	}

	srcDir := ev.varGet("CMAKE_CURRENT_SOURCE_DIR")
	if srcDir == "" {
		srcDir = ev.sourceDir
	}
	binDir := ev.varGet("CMAKE_CURRENT_BINARY_DIR")
	if binDir == "" {
		binDir = ev.binaryDir
	}

	ev.varSet("PROJECT_NAME", name)
	ev.varSet("PROJECT_VERSION", version)
	ev.varSet("PROJECT_SOURCE_DIR", srcDir)
	ev.varSet("PROJECT_BINARY_DIR", binDir)
	ev.varSet("PROJECT_DESCRIPTION", desc)
	if ev.varGet("CMAKE_PROJECT_NAME") == "" {
		ev.varSet("CMAKE_PROJECT_NAME", name)
	}
	ev.varSet(name+"_SOURCE_DIR", srcDir)
	ev.varSet(name+"_BINARY_DIR", binDir)
	ev.varSet(name+"_VERSION", version)

	ev.pushEvent(ProjectDeclareEvent{
		eventBase:   eventBase{o},
		Name:        name,
		Version:     version,
		Description: desc,
		Languages:   joinList(langs),
	})
	return ev.stopErr()
}

func hInclude(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		return ev.stopErr()
	}

	path := a[0]
	optional := false
	for _, v := range a[1:] {
		if equalsFold(v, "OPTIONAL") {
			optional = true
			break
		}
	}

	if !isAbsPath(path) {
		dir := ev.varGet("CMAKE_CURRENT_LIST_DIR")
		if dir == "" {
			dir = ev.sourceDir
		}
		path = pathJoin(dir, path)
	}

	scopeSource := ev.varGet("CMAKE_CURRENT_SOURCE_DIR")
	if scopeSource == "" {
		scopeSource = ev.sourceDir
	}
	scopeBinary := ev.varGet("CMAKE_CURRENT_BINARY_DIR")
	if scopeBinary == "" {
		scopeBinary = ev.sourceDir
	}

	ev.emitDirPush(o, scopeSource, scopeBinary)
	ok := ev.executeFile(path, false, "", o)
	ev.emitDirPop(o)
	if !ok && !optional && !ev.stopRequested {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"include() failed to read or evaluate file", path)
	}
	return ev.stopErr()
}

func hAddSubdirectory(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"add_subdirectory() missing source_dir", "")
		return ev.stopErr()
	}

	sourceDir := a[0]
	binaryDir := ""
	if len(a) >= 2 && !equalsFold(a[1], "EXCLUDE_FROM_ALL") {
		binaryDir = a[1]
	}

	if !isAbsPath(sourceDir) {
		sourceDir = pathJoin(ev.varGet("CMAKE_CURRENT_SOURCE_DIR"), sourceDir)
	}
	fullPath := pathJoin(sourceDir, "CMakeLists.txt")
	if binaryDir != "" && !isAbsPath(binaryDir) {
		binaryDir = pathJoin(ev.varGet("CMAKE_CURRENT_BINARY_DIR"), binaryDir)
	}

	scopeBinary := binaryDir
	if scopeBinary == "" {
		scopeBinary = sourceDir
	}
	ev.emitDirPush(o, sourceDir, scopeBinary)
	ok := ev.executeFile(fullPath, true, binaryDir, o)
	ev.emitDirPop(o)
	if !ok && !ev.stopRequested {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"add_subdirectory() failed to read or evaluate CMakeLists.txt", fullPath)
	}
	return ev.stopErr()
}

func hIncludeGuard(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}

	mode := "DIRECTORY"
	if len(a) > 0 {
		if equalsFold(a[0], "DIRECTORY") || equalsFold(a[0], "GLOBAL") {
			mode = foldName(a[0])
		} else {
			ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
				"include_guard() unsupported mode", a[0])
		}
	}

	curFile := ev.varGet("CMAKE_CURRENT_LIST_FILE")
	if curFile == "" {
		curFile = ev.currentFile
	}
	curDir := ev.varGet("CMAKE_CURRENT_LIST_DIR")

	var key string
	if mode == "GLOBAL" {
		key = "NOBIFY_INCLUDE_GUARD_GLOBAL::" + curFile
	} else {
		key = "NOBIFY_INCLUDE_GUARD_DIR::" + curDir + "::" + curFile
	}

	if ev.varDefined(key) {
		ev.returnRequested = true
		return ev.stopErr()
	}
	ev.varSet(key, "1")
	return ev.stopErr()
}

func hSeparateArguments(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"separate_arguments() missing variable", "")
		return ev.stopErr()
	}

	name := a[0]
	input := ev.varGet(name)
	if len(a) >= 3 {
		// <var> <mode> <args> form; the command modes only differ in
		// quoting rules, which whitespace splitting approximates.
		input = a[len(a)-1]
	}
	ev.varSet(name, joinList(strings.Fields(input)))
	return ev.stopErr()
}

func hGetFilenameComponent(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 3 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"get_filename_component() requires output, path and component",
			"Usage: get_filename_component(<out> <path> <DIRECTORY|NAME|EXT|NAME_WE|ABSOLUTE|REALPATH>)")
		return ev.stopErr()
	}

	out, path, comp := a[0], a[1], a[2]
	base := baseOf(path)
	var result string
	switch {
	case equalsFold(comp, "DIRECTORY"), equalsFold(comp, "PATH"):
		result = dirOf(path)
	case equalsFold(comp, "NAME"):
		result = base
	case equalsFold(comp, "EXT"):
		if i := strings.IndexByte(base, '.'); i > 0 {
			result = base[i:]
		}
	case equalsFold(comp, "NAME_WE"):
		result = base
		if i := strings.IndexByte(base, '.'); i > 0 {
			result = base[:i]
		}
	case equalsFold(comp, "LAST_EXT"):
		if i := strings.LastIndexByte(base, '.'); i > 0 {
			result = base[i:]
		}
	case equalsFold(comp, "NAME_WLE"):
		result = base
		if i := strings.LastIndexByte(base, '.'); i > 0 {
			result = base[:i]
		}
	case equalsFold(comp, "ABSOLUTE"):
		if isAbsPath(path) {
			result = normalizePath(path)
		} else {
			result = normalizePath(pathJoin(ev.varGet("CMAKE_CURRENT_SOURCE_DIR"), path))
		}
	case equalsFold(comp, "REALPATH"):
		abs := path
		if !isAbsPath(abs) {
			abs = pathJoin(ev.varGet("CMAKE_CURRENT_SOURCE_DIR"), abs)
		}
		if r, err := filepath.EvalSymlinks(abs); err == nil {
			result = r
		} else {
			result = normalizePath(abs)
		}
	default:
		ev.emitUnsupported(n.name, o, "get_filename_component() unsupported component", comp)
		return ev.stopErr()
	}
	ev.varSet(out, result)
	return ev.stopErr()
}
