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

import "github.com/golang/glog"

type cmdHandler func(ev *Evaluator, n *commandNode) error

// dispatchTable maps folded command names to handlers. Names not in
// the table fall through to user commands, then to a non-fatal
// "Unknown command" warning.
var dispatchTable map[string]cmdHandler

func init() {
	dispatchTable = map[string]cmdHandler{
		"ADD_COMPILE_DEFINITIONS":    hAddCompileDefinitions,
		"ADD_COMPILE_OPTIONS":        hAddCompileOptions,
		"ADD_CUSTOM_COMMAND":         hAddCustomCommand,
		"ADD_CUSTOM_TARGET":          hAddCustomTarget,
		"ADD_DEFINITIONS":            hAddDefinitions,
		"ADD_EXECUTABLE":             hAddExecutable,
		"ADD_LIBRARY":                hAddLibrary,
		"ADD_LINK_OPTIONS":           hAddLinkOptions,
		"ADD_SUBDIRECTORY":           hAddSubdirectory,
		"ADD_TEST":                   hAddTest,
		"BREAK":                      hBreak,
		"CMAKE_MINIMUM_REQUIRED":     hCMakeMinimumRequired,
		"CMAKE_PATH":                 hCMakePath,
		"CMAKE_POLICY":               hCMakePolicy,
		"CONTINUE":                   hContinue,
		"CPACK_ADD_COMPONENT":        hCPack,
		"CPACK_ADD_COMPONENT_GROUP":  hCPack,
		"CPACK_ADD_INSTALL_TYPE":     hCPack,
		"ENABLE_TESTING":             hEnableTesting,
		"FILE":                       hFile,
		"FIND_PACKAGE":               hFindPackage,
		"GET_FILENAME_COMPONENT":     hGetFilenameComponent,
		"INCLUDE":                    hInclude,
		"INCLUDE_DIRECTORIES":        hIncludeDirectories,
		"INCLUDE_GUARD":              hIncludeGuard,
		"INSTALL":                    hInstall,
		"LINK_DIRECTORIES":           hLinkDirectories,
		"LINK_LIBRARIES":             hLinkLibraries,
		"LIST":                       hList,
		"MATH":                       hMath,
		"MESSAGE":                    hMessage,
		"OPTION":                     hOption,
		"PROJECT":                    hProject,
		"RETURN":                     hReturn,
		"SEPARATE_ARGUMENTS":         hSeparateArguments,
		"SET":                        hSet,
		"SET_PROPERTY":               hSetProperty,
		"SET_TARGET_PROPERTIES":      hSetTargetProperties,
		"STRING":                     hString,
		"TARGET_COMPILE_DEFINITIONS": hTargetCompileDefinitions,
		"TARGET_COMPILE_OPTIONS":     hTargetCompileOptions,
		"TARGET_INCLUDE_DIRECTORIES": hTargetIncludeDirectories,
		"TARGET_LINK_DIRECTORIES":    hTargetLinkDirectories,
		"TARGET_LINK_LIBRARIES":      hTargetLinkLibraries,
		"TARGET_LINK_OPTIONS":        hTargetLinkOptions,
		"TARGET_SOURCES":             hTargetSources,
		"TRY_COMPILE":                hTryCompile,
		"UNSET":                      hUnset,
	}
}

func isKnownCommand(name string) bool {
	_, ok := dispatchTable[foldName(name)]
	return ok
}

func (ev *Evaluator) dispatchCommand(n *commandNode) error {
	if ev.stopRequested {
		return errStopped
	}
	glog.V(2).Infof("dispatch %s at %s", n.name, n.srcpos)

	if h, ok := dispatchTable[foldName(n.name)]; ok {
		if err := h(ev, n); err != nil {
			return err
		}
		return ev.stopErr()
	}

	o := ev.originAt(n.pos())
	if cmd := ev.userCommandFind(n.name); cmd != nil {
		var args []string
		if cmd.isMacro {
			args = ev.resolveArgsLiteral(n.args)
		} else {
			args = ev.resolveArgs(n.args)
		}
		if err := ev.stopErr(); err != nil {
			return err
		}
		if err := ev.invokeUserCommand(cmd, args); err != nil {
			return err
		}
		return ev.stopErr()
	}

	ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
		"Unknown command", "Ignored during evaluation")
	return ev.stopErr()
}

// emitUnsupported reports a recognized command with an unimplemented
// subcommand, honoring CMAKE_NOBIFY_UNSUPPORTED_POLICY.
func (ev *Evaluator) emitUnsupported(command string, o Origin, cause, hint string) {
	sev := DiagWarning
	if ev.unsupportedPolicy == UnsupportedError {
		sev = DiagError
	}
	ev.emitDiag(sev, "dispatcher", command, o, cause, hint)
}
