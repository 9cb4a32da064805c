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

import "strings"

const (
	globalDefsVar = "NOBIFY_GLOBAL_COMPILE_DEFINITIONS"
	globalOptsVar = "NOBIFY_GLOBAL_COMPILE_OPTIONS"
)

func (ev *Evaluator) appendListVar(name, item string) {
	cur := ev.varGet(name)
	if cur == "" {
		ev.varSet(name, item)
		return
	}
	ev.varSet(name, cur+";"+item)
}

// replayGlobalCompileState re-emits accumulated global definitions and
// options as per-target events when a target is declared.
func (ev *Evaluator) replayGlobalCompileState(o Origin, target string) {
	for _, item := range splitList(ev.varGet(globalDefsVar)) {
		ev.pushEvent(TargetCompileDefinitionsEvent{eventBase{o}, target, VisibilityUnspecified, item})
	}
	for _, item := range splitList(ev.varGet(globalOptsVar)) {
		ev.pushEvent(TargetCompileOptionsEvent{eventBase{o}, target, VisibilityUnspecified, item})
	}
}

func visibilityKeyword(tok string) (Visibility, bool) {
	switch {
	case equalsFold(tok, "PRIVATE"):
		return VisibilityPrivate, true
	case equalsFold(tok, "PUBLIC"):
		return VisibilityPublic, true
	case equalsFold(tok, "INTERFACE"):
		return VisibilityInterface, true
	}
	return VisibilityUnspecified, false
}

func hAddExecutable(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		return ev.stopErr()
	}

	name := a[0]
	ev.targetRegister(name)
	ev.pushEvent(TargetDeclareEvent{eventBase{o}, name, TargetExecutable})

	for _, src := range a[1:] {
		if equalsFold(src, "WIN32") || equalsFold(src, "MACOSX_BUNDLE") || equalsFold(src, "EXCLUDE_FROM_ALL") {
			continue
		}
		ev.pushEvent(TargetAddSourceEvent{eventBase{o}, name, src})
	}

	ev.replayGlobalCompileState(o, name)
	return ev.stopErr()
}

func hAddLibrary(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		return ev.stopErr()
	}

	name := a[0]
	ev.targetRegister(name)

	ty := TargetLibraryUnknown
	i := 1
	if i < len(a) {
		switch {
		case equalsFold(a[i], "STATIC"):
			ty = TargetLibraryStatic
			i++
		case equalsFold(a[i], "SHARED"):
			ty = TargetLibraryShared
			i++
		case equalsFold(a[i], "MODULE"):
			ty = TargetLibraryModule
			i++
		case equalsFold(a[i], "INTERFACE"):
			ty = TargetLibraryInterface
			i++
		case equalsFold(a[i], "OBJECT"):
			ty = TargetLibraryObject
			i++
		}
	}

	ev.pushEvent(TargetDeclareEvent{eventBase{o}, name, ty})
	for ; i < len(a); i++ {
		if equalsFold(a[i], "EXCLUDE_FROM_ALL") {
			continue
		}
		ev.pushEvent(TargetAddSourceEvent{eventBase{o}, name, a[i]})
	}

	ev.replayGlobalCompileState(o, name)
	return ev.stopErr()
}

// customCommandOpts accumulates the shared add_custom_target /
// add_custom_command option state.
type customCommandOpts struct {
	preBuild           bool
	gotStage           bool
	all                bool
	appendRule         bool
	verbatim           bool
	usesTerminal       bool
	commandExpandLists bool
	dependsExplicit    bool
	codegen            bool
	workingDir         string
	comment            string
	mainDependency     string
	depfile            string
	outputs            []string
	byproducts         []string
	depends            []string
	sources            []string
	commands           []string
}

const (
	ccOptOutput = iota + 1
	ccOptPreBuild
	ccOptPreLink
	ccOptPostBuild
	ccOptCommand
	ccOptDepends
	ccOptByproducts
	ccOptSources
	ccOptMainDependency
	ccOptImplicitDepends
	ccOptDepfile
	ccOptWorkingDirectory
	ccOptComment
	ccOptAppend
	ccOptVerbatim
	ccOptUsesTerminal
	ccOptCommandExpandLists
	ccOptDependsExplicitOnly
	ccOptCodegen
	ccOptJobPool
	ccOptJobServerAware
)

func (st *customCommandOpts) onOption(id int, values []string, _ int) bool {
	switch id {
	case ccOptOutput:
		st.outputs = append(st.outputs, values...)
	case ccOptPreBuild, ccOptPreLink:
		st.gotStage = true
		st.preBuild = true
	case ccOptPostBuild:
		st.gotStage = true
		st.preBuild = false
	case ccOptCommand:
		if len(values) > 0 && equalsFold(values[0], "ARGS") {
			values = values[1:]
		}
		if len(values) > 0 {
			st.commands = append(st.commands, strings.Join(values, " "))
		}
	case ccOptDepends:
		st.depends = append(st.depends, values...)
	case ccOptByproducts:
		st.byproducts = append(st.byproducts, values...)
	case ccOptSources:
		st.sources = append(st.sources, values...)
	case ccOptMainDependency:
		if len(values) > 0 {
			st.mainDependency = values[0]
		}
	case ccOptImplicitDepends:
		// pairs of <lang> <file>; keep the files.
		for i := 1; i < len(values); i += 2 {
			st.depends = append(st.depends, values[i])
		}
	case ccOptDepfile:
		if len(values) > 0 {
			st.depfile = values[0]
		}
	case ccOptWorkingDirectory:
		if len(values) > 0 {
			st.workingDir = values[0]
		}
	case ccOptComment:
		if len(values) > 0 {
			st.comment = values[0]
		}
	case ccOptAppend:
		st.appendRule = true
	case ccOptVerbatim:
		st.verbatim = true
	case ccOptUsesTerminal:
		st.usesTerminal = true
	case ccOptCommandExpandLists:
		st.commandExpandLists = true
	case ccOptDependsExplicitOnly:
		st.dependsExplicit = true
	case ccOptCodegen:
		st.codegen = true
	}
	return true
}

func joinCommands(cmds []string) string {
	return strings.Join(cmds, " && ")
}

func hAddCustomTarget(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"add_custom_target() missing target name",
			"Usage: add_custom_target(<name> [ALL] [COMMAND ...])")
		return ev.stopErr()
	}

	name := a[0]
	start := 1
	all := false
	if start < len(a) && equalsFold(a[start], "ALL") {
		all = true
		start++
	}

	specs := []optSpec{
		{ccOptDepends, "DEPENDS", optMulti},
		{ccOptByproducts, "BYPRODUCTS", optMulti},
		{ccOptSources, "SOURCES", optMulti},
		{ccOptWorkingDirectory, "WORKING_DIRECTORY", optSingle},
		{ccOptComment, "COMMENT", optSingle},
		{ccOptVerbatim, "VERBATIM", optFlag},
		{ccOptUsesTerminal, "USES_TERMINAL", optFlag},
		{ccOptCommandExpandLists, "COMMAND_EXPAND_LISTS", optFlag},
		{ccOptCommand, "COMMAND", optMulti},
	}
	var st customCommandOpts
	cfg := optConfig{component: "dispatcher", command: n.name, origin: o, unknownAsPositional: true}
	if !ev.parseOptions(a, start, specs, cfg, st.onOption, nil) {
		return ev.stopErr()
	}

	ev.targetRegister(name)
	ev.pushEvent(TargetDeclareEvent{eventBase{o}, name, TargetLibraryUnknown})

	excluded := "1"
	if all {
		excluded = "0"
	}
	ev.pushEvent(TargetPropSetEvent{eventBase{o}, name, "EXCLUDE_FROM_ALL", excluded, PropSet})

	for _, src := range st.sources {
		ev.pushEvent(TargetAddSourceEvent{eventBase{o}, name, src})
	}
	for _, dep := range st.depends {
		ev.pushEvent(TargetLinkLibrariesEvent{eventBase{o}, name, VisibilityPrivate, dep})
	}

	if len(st.commands) > 0 || len(st.byproducts) > 0 {
		ev.pushEvent(CustomCommandTargetEvent{
			eventBase:          eventBase{o},
			TargetName:         name,
			PreBuild:           true,
			Command:            joinCommands(st.commands),
			WorkingDir:         st.workingDir,
			Comment:            st.comment,
			Byproducts:         joinList(st.byproducts),
			Depends:            joinList(st.depends),
			Verbatim:           st.verbatim,
			UsesTerminal:       st.usesTerminal,
			CommandExpandLists: st.commandExpandLists,
		})
	}
	return ev.stopErr()
}

func hAddCustomCommand(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 2 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"add_custom_command() requires TARGET or OUTPUT signature",
			"Usage: add_custom_command(TARGET <tgt> ...) or add_custom_command(OUTPUT <files...> ...)")
		return ev.stopErr()
	}

	modeTarget := equalsFold(a[0], "TARGET")
	modeOutput := equalsFold(a[0], "OUTPUT")
	if !modeTarget && !modeOutput {
		ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
			"Unsupported add_custom_command() signature", "Use TARGET or OUTPUT signatures")
		return ev.stopErr()
	}

	targetName := ""
	start := 0
	if modeTarget {
		targetName = a[1]
		start = 2
	}

	specs := []optSpec{
		{ccOptOutput, "OUTPUT", optMulti},
		{ccOptPreBuild, "PRE_BUILD", optFlag},
		{ccOptPreLink, "PRE_LINK", optFlag},
		{ccOptPostBuild, "POST_BUILD", optFlag},
		{ccOptCommand, "COMMAND", optMulti},
		{ccOptDepends, "DEPENDS", optMulti},
		{ccOptByproducts, "BYPRODUCTS", optMulti},
		{ccOptMainDependency, "MAIN_DEPENDENCY", optSingle},
		{ccOptImplicitDepends, "IMPLICIT_DEPENDS", optMulti},
		{ccOptDepfile, "DEPFILE", optSingle},
		{ccOptWorkingDirectory, "WORKING_DIRECTORY", optSingle},
		{ccOptComment, "COMMENT", optSingle},
		{ccOptAppend, "APPEND", optFlag},
		{ccOptVerbatim, "VERBATIM", optFlag},
		{ccOptUsesTerminal, "USES_TERMINAL", optFlag},
		{ccOptCommandExpandLists, "COMMAND_EXPAND_LISTS", optFlag},
		{ccOptDependsExplicitOnly, "DEPENDS_EXPLICIT_ONLY", optFlag},
		{ccOptCodegen, "CODEGEN", optFlag},
		{ccOptJobPool, "JOB_POOL", optOptionalSingle},
		{ccOptJobServerAware, "JOB_SERVER_AWARE", optOptionalSingle},
	}
	st := customCommandOpts{preBuild: true}
	cfg := optConfig{component: "dispatcher", command: n.name, origin: o, unknownAsPositional: true}
	if !ev.parseOptions(a, start, specs, cfg, st.onOption, nil) {
		return ev.stopErr()
	}

	if len(st.commands) == 0 {
		ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
			"add_custom_command() has no COMMAND entries", "Command was ignored")
		return ev.stopErr()
	}
	if modeOutput && len(st.outputs) == 0 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"add_custom_command(OUTPUT ...) requires at least one output", "")
		return ev.stopErr()
	}
	if st.mainDependency != "" {
		st.depends = append(st.depends, st.mainDependency)
	}
	if st.depfile != "" {
		st.byproducts = append(st.byproducts, st.depfile)
	}

	if modeTarget {
		ev.pushEvent(CustomCommandTargetEvent{
			eventBase:          eventBase{o},
			TargetName:         targetName,
			PreBuild:           st.preBuild,
			Command:            joinCommands(st.commands),
			WorkingDir:         st.workingDir,
			Comment:            st.comment,
			Outputs:            joinList(st.outputs),
			Byproducts:         joinList(st.byproducts),
			Depends:            joinList(st.depends),
			MainDependency:     st.mainDependency,
			Depfile:            st.depfile,
			Append:             st.appendRule,
			Verbatim:           st.verbatim,
			UsesTerminal:       st.usesTerminal,
			CommandExpandLists: st.commandExpandLists,
			DependsExplicit:    st.dependsExplicit,
			Codegen:            st.codegen,
		})
	} else {
		ev.pushEvent(CustomCommandOutputEvent{
			eventBase:          eventBase{o},
			Command:            joinCommands(st.commands),
			WorkingDir:         st.workingDir,
			Comment:            st.comment,
			Outputs:            joinList(st.outputs),
			Byproducts:         joinList(st.byproducts),
			Depends:            joinList(st.depends),
			MainDependency:     st.mainDependency,
			Depfile:            st.depfile,
			Append:             st.appendRule,
			Verbatim:           st.verbatim,
			UsesTerminal:       st.usesTerminal,
			CommandExpandLists: st.commandExpandLists,
			DependsExplicit:    st.dependsExplicit,
			Codegen:            st.codegen,
		})
	}
	return ev.stopErr()
}

// targetUsageArgs is the shared <target> [visibility] <items...> shape
// of the target_* usage-requirement commands.
func targetUsageArgs(ev *Evaluator, n *commandNode, o Origin, usage string,
	emit func(target string, vis Visibility, item string)) error {

	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 2 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			n.name+"() requires target and items", usage)
		return ev.stopErr()
	}

	target := a[0]
	vis := VisibilityUnspecified
	for _, item := range a[1:] {
		if v, ok := visibilityKeyword(item); ok {
			vis = v
			continue
		}
		emit(target, vis, item)
	}
	return ev.stopErr()
}

func hTargetLinkLibraries(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	return targetUsageArgs(ev, n, o,
		"Usage: target_link_libraries(<tgt> <PUBLIC|PRIVATE|INTERFACE> <items...>)",
		func(target string, vis Visibility, item string) {
			ev.pushEvent(TargetLinkLibrariesEvent{eventBase{o}, target, vis, item})
		})
}

func hTargetLinkOptions(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	return targetUsageArgs(ev, n, o,
		"Usage: target_link_options(<tgt> <PUBLIC|PRIVATE|INTERFACE> <items...>)",
		func(target string, vis Visibility, item string) {
			ev.pushEvent(TargetLinkOptionsEvent{eventBase{o}, target, vis, item})
		})
}

func hTargetLinkDirectories(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	return targetUsageArgs(ev, n, o,
		"Usage: target_link_directories(<tgt> <PUBLIC|PRIVATE|INTERFACE> <dirs...>)",
		func(target string, vis Visibility, item string) {
			ev.pushEvent(TargetLinkDirectoriesEvent{eventBase{o}, target, vis, item})
		})
}

func hTargetCompileDefinitions(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	return targetUsageArgs(ev, n, o,
		"Usage: target_compile_definitions(<tgt> <PUBLIC|PRIVATE|INTERFACE> <items...>)",
		func(target string, vis Visibility, item string) {
			ev.pushEvent(TargetCompileDefinitionsEvent{eventBase{o}, target, vis, item})
		})
}

func hTargetCompileOptions(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	return targetUsageArgs(ev, n, o,
		"Usage: target_compile_options(<tgt> <PUBLIC|PRIVATE|INTERFACE> <items...>)",
		func(target string, vis Visibility, item string) {
			ev.pushEvent(TargetCompileOptionsEvent{eventBase{o}, target, vis, item})
		})
}

func hTargetSources(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	return targetUsageArgs(ev, n, o,
		"Usage: target_sources(<tgt> <PUBLIC|PRIVATE|INTERFACE> <items...>)",
		func(target string, _ Visibility, item string) {
			ev.pushEvent(TargetAddSourceEvent{eventBase{o}, target, item})
		})
}

func hTargetIncludeDirectories(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 2 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"target_include_directories() requires target and items",
			"Usage: target_include_directories(<tgt> [SYSTEM] [BEFORE] <PUBLIC|PRIVATE|INTERFACE> <items...>)")
		return ev.stopErr()
	}

	target := a[0]
	vis := VisibilityUnspecified
	isSystem, isBefore := false, false
	for _, item := range a[1:] {
		switch {
		case equalsFold(item, "SYSTEM"):
			isSystem = true
		case equalsFold(item, "BEFORE"):
			isBefore = true
		case equalsFold(item, "AFTER"):
			isBefore = false
		default:
			if v, ok := visibilityKeyword(item); ok {
				vis = v
				continue
			}
			ev.pushEvent(TargetIncludeDirectoriesEvent{eventBase{o}, target, vis, item, isSystem, isBefore})
		}
	}
	return ev.stopErr()
}

func hSetTargetProperties(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 4 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"set_target_properties() requires targets and PROPERTIES key/value pairs",
			"Usage: set_target_properties(<t1> [<t2> ...] PROPERTIES <k1> <v1> ...)")
		return ev.stopErr()
	}

	propsIdx := len(a)
	for i, v := range a {
		if equalsFold(v, "PROPERTIES") {
			propsIdx = i
			break
		}
	}
	if propsIdx == 0 || propsIdx >= len(a)-1 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"set_target_properties() missing PROPERTIES section",
			"Expected: set_target_properties(<targets...> PROPERTIES <key> <value> ...)")
		return ev.stopErr()
	}

	kv := a[propsIdx+1:]
	if len(kv) < 2 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"set_target_properties() missing property key/value",
			"Provide at least one <key> <value> pair")
		return ev.stopErr()
	}
	if len(kv)%2 != 0 {
		ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
			"set_target_properties() has dangling property key without value",
			"Ignoring the last unmatched key")
	}

	for _, target := range a[:propsIdx] {
		for i := 0; i+1 < len(kv); i += 2 {
			ev.pushEvent(TargetPropSetEvent{eventBase{o}, target, kv[i], kv[i+1], PropSet})
		}
	}
	return ev.stopErr()
}

func hSetProperty(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"set_property() missing scope",
			"Usage: set_property(TARGET <t...> [APPEND|APPEND_STRING] PROPERTY <k> [v...])")
		return ev.stopErr()
	}
	if !equalsFold(a[0], "TARGET") {
		ev.emitUnsupported(n.name, o,
			"set_property() supports only TARGET scope",
			"GLOBAL/DIRECTORY/SOURCE/INSTALL/TEST/CACHE scopes are ignored")
		return ev.stopErr()
	}

	appendList, appendString := false, false
	var targets []string
	i := 1
	for ; i < len(a); i++ {
		if equalsFold(a[i], "PROPERTY") {
			break
		}
		switch {
		case equalsFold(a[i], "APPEND"):
			appendList = true
		case equalsFold(a[i], "APPEND_STRING"):
			appendString = true
		default:
			targets = append(targets, a[i])
		}
	}

	if len(targets) == 0 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"set_property(TARGET ...) requires at least one target", "")
		return ev.stopErr()
	}
	if i >= len(a) || !equalsFold(a[i], "PROPERTY") {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"set_property(TARGET ...) missing PROPERTY keyword", "")
		return ev.stopErr()
	}
	i++
	if i >= len(a) {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"set_property(TARGET ...) missing property key", "")
		return ev.stopErr()
	}

	key := a[i]
	i++
	value := ""
	if i < len(a) {
		if appendString {
			value = strings.Join(a[i:], "")
		} else {
			value = joinList(a[i:])
		}
	}

	op := PropSet
	if appendString {
		op = PropAppendString
	} else if appendList {
		op = PropAppendList
	}
	if appendList && appendString {
		ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
			"set_property() received both APPEND and APPEND_STRING",
			"Using APPEND_STRING behavior")
	}

	for _, target := range targets {
		ev.pushEvent(TargetPropSetEvent{eventBase{o}, target, key, value, op})
	}
	return ev.stopErr()
}

func hAddCompileOptions(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	for _, item := range a {
		ev.appendListVar(globalOptsVar, item)
		ev.pushEvent(GlobalCompileOptionsEvent{eventBase{o}, item})
	}
	return ev.stopErr()
}

func hAddCompileDefinitions(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	for _, item := range a {
		if item == "" {
			continue
		}
		ev.appendListVar(globalDefsVar, item)
		ev.pushEvent(GlobalCompileDefinitionsEvent{eventBase{o}, item})
	}
	return ev.stopErr()
}

func hAddDefinitions(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	// add_definitions() arguments are raw flags, not bare macro names.
	for _, item := range a {
		if item == "" {
			continue
		}
		ev.appendListVar(globalOptsVar, item)
		ev.pushEvent(GlobalCompileOptionsEvent{eventBase{o}, item})
	}
	return ev.stopErr()
}

func hAddLinkOptions(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	for _, item := range a {
		if item == "" {
			continue
		}
		ev.pushEvent(GlobalLinkOptionsEvent{eventBase{o}, item})
	}
	return ev.stopErr()
}

func hLinkLibraries(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	for _, item := range a {
		if item == "" {
			continue
		}
		ev.pushEvent(GlobalLinkLibrariesEvent{eventBase{o}, item})
	}
	return ev.stopErr()
}

func hIncludeDirectories(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	isSystem, isBefore := false, false
	for _, item := range a {
		switch {
		case equalsFold(item, "SYSTEM"):
			isSystem = true
		case equalsFold(item, "BEFORE"):
			isBefore = true
		case equalsFold(item, "AFTER"):
			isBefore = false
		default:
			ev.pushEvent(DirectoryIncludeDirectoriesEvent{eventBase{o}, item, isSystem, isBefore})
		}
	}
	return ev.stopErr()
}

func hLinkDirectories(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	isBefore := false
	for _, item := range a {
		switch {
		case equalsFold(item, "BEFORE"):
			isBefore = true
		case equalsFold(item, "AFTER"):
			isBefore = false
		default:
			ev.pushEvent(DirectoryLinkDirectoriesEvent{eventBase{o}, item, isBefore})
		}
	}
	return ev.stopErr()
}

func hEnableTesting(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) > 0 {
		ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
			"enable_testing() does not expect arguments", "Extra arguments are ignored")
	}
	ev.varSet("BUILD_TESTING", "1")
	ev.pushEvent(TestingEnableEvent{eventBase{o}, true})
	return ev.stopErr()
}

const (
	addTestOptWorkingDirectory = iota + 1
	addTestOptCommandExpandLists
)

func hAddTest(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 2 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"add_test() requires at least test name and command",
			"Usage: add_test(NAME <name> COMMAND <cmd...>) or add_test(<name> <cmd...>)")
		return ev.stopErr()
	}

	var name, command, workingDir string
	commandExpandLists := false

	if equalsFold(a[0], "NAME") {
		if len(a) < 4 {
			ev.emitDiag(DiagError, "dispatcher", n.name, o,
				"add_test(NAME ...) requires COMMAND clause",
				"Usage: add_test(NAME <name> COMMAND <cmd...>)")
			return ev.stopErr()
		}
		name = a[1]
		if !equalsFold(a[2], "COMMAND") {
			ev.emitDiag(DiagError, "dispatcher", n.name, o,
				"add_test(NAME ...) missing COMMAND",
				"Usage: add_test(NAME <name> COMMAND <cmd...>)")
			return ev.stopErr()
		}

		specs := []optSpec{
			{addTestOptWorkingDirectory, "WORKING_DIRECTORY", optSingle},
			{addTestOptCommandExpandLists, "COMMAND_EXPAND_LISTS", optFlag},
		}
		cmdStart := 3
		cmdEnd := cmdStart
		for cmdEnd < len(a) && !optTokenIsKeyword(a[cmdEnd], specs) {
			cmdEnd++
		}
		if cmdEnd <= cmdStart {
			ev.emitDiag(DiagError, "dispatcher", n.name, o,
				"add_test(NAME ...) has empty COMMAND", "")
			return ev.stopErr()
		}
		command = strings.Join(a[cmdStart:cmdEnd], " ")

		cfg := optConfig{component: "dispatcher", command: n.name, origin: o, unknownAsPositional: true}
		ok := ev.parseOptions(a, cmdEnd, specs, cfg,
			func(id int, values []string, _ int) bool {
				switch id {
				case addTestOptWorkingDirectory:
					if len(values) > 0 {
						workingDir = values[0]
					}
				case addTestOptCommandExpandLists:
					commandExpandLists = true
				}
				return true
			},
			func(value string, _ int) bool {
				ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
					"add_test() has unsupported/extra argument", value)
				return !ev.shouldStop()
			})
		if !ok {
			return ev.stopErr()
		}
	} else {
		name = a[0]
		command = strings.Join(a[1:], " ")
	}

	ev.pushEvent(TestAddEvent{eventBase{o}, name, command, workingDir, commandExpandLists})
	return ev.stopErr()
}

func hInstall(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 4 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"install() requires rule type, items and DESTINATION",
			"Usage: install(TARGETS|FILES|PROGRAMS|DIRECTORY <items...> DESTINATION <dir>)")
		return ev.stopErr()
	}

	var ruleType InstallRuleType
	switch {
	case equalsFold(a[0], "TARGETS"):
		ruleType = InstallRuleTarget
	case equalsFold(a[0], "FILES"):
		ruleType = InstallRuleFile
	case equalsFold(a[0], "PROGRAMS"):
		ruleType = InstallRuleProgram
	case equalsFold(a[0], "DIRECTORY"):
		ruleType = InstallRuleDirectory
	default:
		ev.emitUnsupported(n.name, o, "install() unsupported rule type", a[0])
		return ev.stopErr()
	}

	destIdx := len(a)
	for i := 1; i < len(a); i++ {
		if equalsFold(a[i], "DESTINATION") {
			destIdx = i
			break
		}
	}
	if destIdx == len(a) || destIdx+1 >= len(a) {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"install() missing DESTINATION",
			"Usage: install(TARGETS|FILES|PROGRAMS|DIRECTORY <items...> DESTINATION <dir>)")
		return ev.stopErr()
	}
	if destIdx <= 1 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"install() has no items before DESTINATION", "")
		return ev.stopErr()
	}

	destination := a[destIdx+1]
	for _, item := range a[1:destIdx] {
		ev.pushEvent(InstallAddRuleEvent{eventBase{o}, ruleType, item, destination})
	}
	return ev.stopErr()
}

func hTryCompile(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	// No compiler is spawned; the result variable optimistically reads
	// TRUE so feature probes continue.
	if len(a) > 0 {
		ev.varSet(a[0], "TRUE")
	}
	ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
		"try_compile() is not executed", "Result variable was set to TRUE")
	return ev.stopErr()
}

func hCPack(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if ev.unsupportedPolicy != UnsupportedNoopWarn {
		ev.emitUnsupported(n.name, o,
			"CPack component commands are not modeled", "Command was ignored")
	}
	return ev.stopErr()
}
