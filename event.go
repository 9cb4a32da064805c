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

// Origin identifies where in the script an event or diagnostic came
// from.
type Origin struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// EventKind enumerates the closed set of event record types.
type EventKind int

const (
	EvDiagnostic EventKind = iota
	EvDirPush
	EvDirPop
	EvProjectDeclare
	EvTargetDeclare
	EvTargetAddSource
	EvTargetLinkLibraries
	EvTargetLinkOptions
	EvTargetLinkDirectories
	EvTargetIncludeDirectories
	EvTargetCompileDefinitions
	EvTargetCompileOptions
	EvTargetPropSet
	EvDirectoryIncludeDirectories
	EvDirectoryLinkDirectories
	EvGlobalCompileOptions
	EvGlobalCompileDefinitions
	EvGlobalLinkLibraries
	EvGlobalLinkOptions
	EvInstallAddRule
	EvCustomCommandTarget
	EvCustomCommandOutput
	EvTestAdd
	EvTestingEnable
	EvFindPackage
)

var eventKindNames = map[EventKind]string{
	EvDiagnostic:                  "DIAGNOSTIC",
	EvDirPush:                     "DIR_PUSH",
	EvDirPop:                      "DIR_POP",
	EvProjectDeclare:              "PROJECT_DECLARE",
	EvTargetDeclare:               "TARGET_DECLARE",
	EvTargetAddSource:             "TARGET_ADD_SOURCE",
	EvTargetLinkLibraries:         "TARGET_LINK_LIBRARIES",
	EvTargetLinkOptions:           "TARGET_LINK_OPTIONS",
	EvTargetLinkDirectories:       "TARGET_LINK_DIRECTORIES",
	EvTargetIncludeDirectories:    "TARGET_INCLUDE_DIRECTORIES",
	EvTargetCompileDefinitions:    "TARGET_COMPILE_DEFINITIONS",
	EvTargetCompileOptions:        "TARGET_COMPILE_OPTIONS",
	EvTargetPropSet:               "TARGET_PROP_SET",
	EvDirectoryIncludeDirectories: "DIRECTORY_INCLUDE_DIRECTORIES",
	EvDirectoryLinkDirectories:    "DIRECTORY_LINK_DIRECTORIES",
	EvGlobalCompileOptions:        "GLOBAL_COMPILE_OPTIONS",
	EvGlobalCompileDefinitions:    "GLOBAL_COMPILE_DEFINITIONS",
	EvGlobalLinkLibraries:         "GLOBAL_LINK_LIBRARIES",
	EvGlobalLinkOptions:           "GLOBAL_LINK_OPTIONS",
	EvInstallAddRule:              "INSTALL_ADD_RULE",
	EvCustomCommandTarget:         "CUSTOM_COMMAND_TARGET",
	EvCustomCommandOutput:         "CUSTOM_COMMAND_OUTPUT",
	EvTestAdd:                     "TEST_ADD",
	EvTestingEnable:               "TESTING_ENABLE",
	EvFindPackage:                 "FIND_PACKAGE",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Event is one record in the append-only output stream.
type Event interface {
	EventKind() EventKind
	EventOrigin() Origin
}

type eventBase struct {
	Origin Origin `json:"origin"`
}

func (e eventBase) EventOrigin() Origin { return e.Origin }

// DiagSeverity classifies diagnostics.
type DiagSeverity int

const (
	DiagNotice DiagSeverity = iota
	DiagWarning
	DiagError
)

func (s DiagSeverity) String() string {
	switch s {
	case DiagError:
		return "ERROR"
	case DiagWarning:
		return "WARNING"
	}
	return "NOTICE"
}

type DiagnosticEvent struct {
	eventBase
	Severity  DiagSeverity `json:"severity"`
	Component string       `json:"component"`
	Command   string       `json:"command"`
	Cause     string       `json:"cause"`
	Hint      string       `json:"hint"`
}

func (DiagnosticEvent) EventKind() EventKind { return EvDiagnostic }

type DirPushEvent struct {
	eventBase
	SourceDir string `json:"source_dir"`
	BinaryDir string `json:"binary_dir"`
}

func (DirPushEvent) EventKind() EventKind { return EvDirPush }

type DirPopEvent struct {
	eventBase
}

func (DirPopEvent) EventKind() EventKind { return EvDirPop }

type ProjectDeclareEvent struct {
	eventBase
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Languages   string `json:"languages"`
}

func (ProjectDeclareEvent) EventKind() EventKind { return EvProjectDeclare }

// TargetType classifies declared targets.
type TargetType int

const (
	TargetExecutable TargetType = iota
	TargetLibraryStatic
	TargetLibraryShared
	TargetLibraryModule
	TargetLibraryInterface
	TargetLibraryObject
	TargetLibraryUnknown
)

func (t TargetType) String() string {
	switch t {
	case TargetExecutable:
		return "EXECUTABLE"
	case TargetLibraryStatic:
		return "STATIC_LIBRARY"
	case TargetLibraryShared:
		return "SHARED_LIBRARY"
	case TargetLibraryModule:
		return "MODULE_LIBRARY"
	case TargetLibraryInterface:
		return "INTERFACE_LIBRARY"
	case TargetLibraryObject:
		return "OBJECT_LIBRARY"
	}
	return "UNKNOWN"
}

// Visibility is the PUBLIC/PRIVATE/INTERFACE usage-requirement scope.
type Visibility int

const (
	VisibilityUnspecified Visibility = iota
	VisibilityPrivate
	VisibilityPublic
	VisibilityInterface
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "PRIVATE"
	case VisibilityPublic:
		return "PUBLIC"
	case VisibilityInterface:
		return "INTERFACE"
	}
	return "UNSPECIFIED"
}

type TargetDeclareEvent struct {
	eventBase
	Name string     `json:"name"`
	Type TargetType `json:"type"`
}

func (TargetDeclareEvent) EventKind() EventKind { return EvTargetDeclare }

type TargetAddSourceEvent struct {
	eventBase
	TargetName string `json:"target_name"`
	Path       string `json:"path"`
}

func (TargetAddSourceEvent) EventKind() EventKind { return EvTargetAddSource }

type TargetLinkLibrariesEvent struct {
	eventBase
	TargetName string     `json:"target_name"`
	Visibility Visibility `json:"visibility"`
	Item       string     `json:"item"`
}

func (TargetLinkLibrariesEvent) EventKind() EventKind { return EvTargetLinkLibraries }

type TargetLinkOptionsEvent struct {
	eventBase
	TargetName string     `json:"target_name"`
	Visibility Visibility `json:"visibility"`
	Item       string     `json:"item"`
}

func (TargetLinkOptionsEvent) EventKind() EventKind { return EvTargetLinkOptions }

type TargetLinkDirectoriesEvent struct {
	eventBase
	TargetName string     `json:"target_name"`
	Visibility Visibility `json:"visibility"`
	Path       string     `json:"path"`
}

func (TargetLinkDirectoriesEvent) EventKind() EventKind { return EvTargetLinkDirectories }

type TargetIncludeDirectoriesEvent struct {
	eventBase
	TargetName string     `json:"target_name"`
	Visibility Visibility `json:"visibility"`
	Path       string     `json:"path"`
	IsSystem   bool       `json:"is_system"`
	IsBefore   bool       `json:"is_before"`
}

func (TargetIncludeDirectoriesEvent) EventKind() EventKind { return EvTargetIncludeDirectories }

type TargetCompileDefinitionsEvent struct {
	eventBase
	TargetName string     `json:"target_name"`
	Visibility Visibility `json:"visibility"`
	Item       string     `json:"item"`
}

func (TargetCompileDefinitionsEvent) EventKind() EventKind { return EvTargetCompileDefinitions }

type TargetCompileOptionsEvent struct {
	eventBase
	TargetName string     `json:"target_name"`
	Visibility Visibility `json:"visibility"`
	Item       string     `json:"item"`
}

func (TargetCompileOptionsEvent) EventKind() EventKind { return EvTargetCompileOptions }

// PropOp distinguishes set/append semantics for property events.
type PropOp int

const (
	PropSet PropOp = iota
	PropAppendList
	PropAppendString
)

func (o PropOp) String() string {
	switch o {
	case PropAppendList:
		return "APPEND_LIST"
	case PropAppendString:
		return "APPEND_STRING"
	}
	return "SET"
}

type TargetPropSetEvent struct {
	eventBase
	TargetName string `json:"target_name"`
	Key        string `json:"key"`
	Value      string `json:"value"`
	Op         PropOp `json:"op"`
}

func (TargetPropSetEvent) EventKind() EventKind { return EvTargetPropSet }

type DirectoryIncludeDirectoriesEvent struct {
	eventBase
	Path     string `json:"path"`
	IsSystem bool   `json:"is_system"`
	IsBefore bool   `json:"is_before"`
}

func (DirectoryIncludeDirectoriesEvent) EventKind() EventKind { return EvDirectoryIncludeDirectories }

type DirectoryLinkDirectoriesEvent struct {
	eventBase
	Path     string `json:"path"`
	IsBefore bool   `json:"is_before"`
}

func (DirectoryLinkDirectoriesEvent) EventKind() EventKind { return EvDirectoryLinkDirectories }

type GlobalCompileOptionsEvent struct {
	eventBase
	Item string `json:"item"`
}

func (GlobalCompileOptionsEvent) EventKind() EventKind { return EvGlobalCompileOptions }

type GlobalCompileDefinitionsEvent struct {
	eventBase
	Item string `json:"item"`
}

func (GlobalCompileDefinitionsEvent) EventKind() EventKind { return EvGlobalCompileDefinitions }

type GlobalLinkLibrariesEvent struct {
	eventBase
	Item string `json:"item"`
}

func (GlobalLinkLibrariesEvent) EventKind() EventKind { return EvGlobalLinkLibraries }

type GlobalLinkOptionsEvent struct {
	eventBase
	Item string `json:"item"`
}

func (GlobalLinkOptionsEvent) EventKind() EventKind { return EvGlobalLinkOptions }

// InstallRuleType classifies install() rules.
type InstallRuleType int

const (
	InstallRuleTarget InstallRuleType = iota
	InstallRuleFile
	InstallRuleProgram
	InstallRuleDirectory
)

func (t InstallRuleType) String() string {
	switch t {
	case InstallRuleFile:
		return "FILE"
	case InstallRuleProgram:
		return "PROGRAM"
	case InstallRuleDirectory:
		return "DIRECTORY"
	}
	return "TARGET"
}

type InstallAddRuleEvent struct {
	eventBase
	RuleType    InstallRuleType `json:"rule_type"`
	Item        string          `json:"item"`
	Destination string          `json:"destination"`
}

func (InstallAddRuleEvent) EventKind() EventKind { return EvInstallAddRule }

type CustomCommandTargetEvent struct {
	eventBase
	TargetName         string `json:"target_name"`
	PreBuild           bool   `json:"pre_build"`
	Command            string `json:"command"`
	WorkingDir         string `json:"working_dir"`
	Comment            string `json:"comment"`
	Outputs            string `json:"outputs"`
	Byproducts         string `json:"byproducts"`
	Depends            string `json:"depends"`
	MainDependency     string `json:"main_dependency"`
	Depfile            string `json:"depfile"`
	Append             bool   `json:"append"`
	Verbatim           bool   `json:"verbatim"`
	UsesTerminal       bool   `json:"uses_terminal"`
	CommandExpandLists bool   `json:"command_expand_lists"`
	DependsExplicit    bool   `json:"depends_explicit_only"`
	Codegen            bool   `json:"codegen"`
}

func (CustomCommandTargetEvent) EventKind() EventKind { return EvCustomCommandTarget }

type CustomCommandOutputEvent struct {
	eventBase
	Command            string `json:"command"`
	WorkingDir         string `json:"working_dir"`
	Comment            string `json:"comment"`
	Outputs            string `json:"outputs"`
	Byproducts         string `json:"byproducts"`
	Depends            string `json:"depends"`
	MainDependency     string `json:"main_dependency"`
	Depfile            string `json:"depfile"`
	Append             bool   `json:"append"`
	Verbatim           bool   `json:"verbatim"`
	UsesTerminal       bool   `json:"uses_terminal"`
	CommandExpandLists bool   `json:"command_expand_lists"`
	DependsExplicit    bool   `json:"depends_explicit_only"`
	Codegen            bool   `json:"codegen"`
}

func (CustomCommandOutputEvent) EventKind() EventKind { return EvCustomCommandOutput }

type TestAddEvent struct {
	eventBase
	Name               string `json:"name"`
	Command            string `json:"command"`
	WorkingDir         string `json:"working_dir"`
	CommandExpandLists bool   `json:"command_expand_lists"`
}

func (TestAddEvent) EventKind() EventKind { return EvTestAdd }

type TestingEnableEvent struct {
	eventBase
	Enabled bool `json:"enabled"`
}

func (TestingEnableEvent) EventKind() EventKind { return EvTestingEnable }

type FindPackageEvent struct {
	eventBase
	PackageName string `json:"package_name"`
	Mode        string `json:"mode"`
	Required    bool   `json:"required"`
	Found       bool   `json:"found"`
	Location    string `json:"location"`
}

func (FindPackageEvent) EventKind() EventKind { return EvFindPackage }

// EventStream is the append-only log handed to downstream consumers.
// All string fields of pushed events are owned copies; nothing aliases
// evaluator scratch state.
type EventStream struct {
	events []Event
}

func NewEventStream() *EventStream {
	return &EventStream{}
}

func (s *EventStream) Push(ev Event) {
	s.events = append(s.events, ev)
}

// Events returns the ordered records. The slice must be treated as
// read-only.
func (s *EventStream) Events() []Event {
	return s.events
}

func (s *EventStream) Len() int {
	return len(s.events)
}

// Diagnostics filters the stream down to diagnostic records.
func (s *EventStream) Diagnostics() []DiagnosticEvent {
	var r []DiagnosticEvent
	for _, ev := range s.events {
		if d, ok := ev.(DiagnosticEvent); ok {
			r = append(r, d)
		}
	}
	return r
}
