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
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// errStopped is the cooperative-cancellation sentinel. Once the
// evaluator requests a stop, every primitive short-circuits with it.
var errStopped = errors.New("evaluation stopped")

// CompatProfile selects how aggressively diagnostics terminate a run.
type CompatProfile int

const (
	ProfilePermissive CompatProfile = iota
	ProfileStrict
	ProfileCIStrict
)

func (p CompatProfile) String() string {
	switch p {
	case ProfileStrict:
		return "STRICT"
	case ProfileCIStrict:
		return "CI_STRICT"
	}
	return "PERMISSIVE"
}

// ParseCompatProfile maps a profile name to its value; unknown names
// fall back to PERMISSIVE.
func ParseCompatProfile(s string) CompatProfile {
	switch {
	case equalsFold(s, "STRICT"):
		return ProfileStrict
	case equalsFold(s, "CI_STRICT"):
		return ProfileCIStrict
	}
	return ProfilePermissive
}

// UnsupportedPolicy controls the reaction to recognized commands with
// unimplemented subcommands.
type UnsupportedPolicy int

const (
	UnsupportedWarn UnsupportedPolicy = iota
	UnsupportedError
	UnsupportedNoopWarn
)

func parseUnsupportedPolicy(s string) UnsupportedPolicy {
	switch {
	case equalsFold(s, "ERROR"):
		return UnsupportedError
	case equalsFold(s, "NOOP_WARN"):
		return UnsupportedNoopWarn
	}
	return UnsupportedWarn
}

// RunReport totals the diagnostics of a run.
type RunReport struct {
	ErrorCount   int
	WarningCount int
}

// Config seeds a new Evaluator.
type Config struct {
	SourceDir string
	BinaryDir string
	// ScriptPath names the root script, used for origins before any
	// include() switches files.
	ScriptPath string
	Profile    CompatProfile
	// ErrorBudget caps errors in PERMISSIVE mode; 0 means unlimited.
	ErrorBudget int
	// LookupEnv overrides process-environment reads. Tests stub it.
	LookupEnv func(string) (string, bool)
}

// Evaluator owns all mutable state of one run: the scope stack, macro
// frames, user commands, the target registry and the output stream.
// It is not safe for concurrent use.
type Evaluator struct {
	stream       *EventStream
	scopes       []*varScope
	macroFrames  []*macroFrame
	userCommands []*userCommand
	knownTargets map[string]string

	sourceDir   string
	binaryDir   string
	currentFile string

	breakRequested    bool
	continueRequested bool
	returnRequested   bool
	stopRequested     bool

	compatProfile     CompatProfile
	unsupportedPolicy UnsupportedPolicy
	errorBudget       int
	report            RunReport

	envFn      func(string) (string, bool)
	envOverlay map[string]*string

	loopDepth int
}

// NewEvaluator creates a run context with the global scope seeded with
// the synthesized platform and version constants.
func NewEvaluator(cfg Config) *Evaluator {
	ev := &Evaluator{
		stream:       NewEventStream(),
		scopes:       []*varScope{newVarScope()},
		knownTargets: make(map[string]string),
		sourceDir:    cfg.SourceDir,
		binaryDir:    cfg.BinaryDir,
		currentFile:  cfg.ScriptPath,
		envFn:        cfg.LookupEnv,
		envOverlay:   make(map[string]*string),
		errorBudget:  cfg.ErrorBudget,
	}
	if ev.binaryDir == "" {
		ev.binaryDir = ev.sourceDir
	}

	ev.varSet("CMAKE_SOURCE_DIR", ev.sourceDir)
	ev.varSet("CMAKE_BINARY_DIR", ev.binaryDir)
	ev.varSet("CMAKE_CURRENT_SOURCE_DIR", ev.sourceDir)
	ev.varSet("CMAKE_CURRENT_BINARY_DIR", ev.binaryDir)
	ev.varSet("CMAKE_CURRENT_LIST_DIR", ev.sourceDir)
	ev.varSet("CMAKE_CURRENT_LIST_FILE", cfg.ScriptPath)
	ev.varSet("CMAKE_CURRENT_LIST_LINE", "0")
	ev.varSet("NOBIFY_POLICY_STACK_DEPTH", "1")
	ev.varSet("CMAKE_POLICY_VERSION", "")

	win, unix, apple := "0", "1", "0"
	msvc := "0"
	switch runtime.GOOS {
	case "windows":
		win, unix, msvc = "1", "0", "1"
	case "darwin":
		apple = "1"
	}
	ev.varSet("WIN32", win)
	ev.varSet("UNIX", unix)
	ev.varSet("APPLE", apple)
	ev.varSet("MSVC", msvc)
	ev.varSet("MINGW", "0")

	ev.varSet("CMAKE_VERSION", "3.28.0")
	ev.varSet("CMAKE_MAJOR_VERSION", "3")
	ev.varSet("CMAKE_MINOR_VERSION", "28")
	ev.varSet("CMAKE_PATCH_VERSION", "0")
	ev.varSet("CMAKE_SYSTEM_NAME", hostSystemName())
	ev.varSet("CMAKE_HOST_SYSTEM_NAME", hostSystemName())
	ev.varSet("CMAKE_SYSTEM_PROCESSOR", hostProcessor())

	ev.varSet("PROJECT_NAME", "")
	ev.varSet("PROJECT_VERSION", "")
	ev.varSet("CMAKE_NOBIFY_CONTINUE_ON_ERROR", "0")
	ev.varSet("CMAKE_NOBIFY_FILE_GLOB_STRICT", "0")

	compilerID := hostCompilerID()
	ev.varSet("CMAKE_C_COMPILER_ID", compilerID)
	ev.varSet("CMAKE_CXX_COMPILER_ID", compilerID)

	ev.setCompatProfile(cfg.Profile)
	return ev
}

func hostSystemName() string {
	switch runtime.GOOS {
	case "windows":
		return "Windows"
	case "darwin":
		return "Darwin"
	case "linux":
		return "Linux"
	}
	return "Unknown"
}

func hostProcessor() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "x86"
	case "arm":
		return "arm"
	}
	return "unknown"
}

func hostCompilerID() string {
	switch runtime.GOOS {
	case "windows":
		return "MSVC"
	case "darwin":
		return "AppleClang"
	}
	return "GNU"
}

// Stream returns the event log. It stays valid after the evaluator is
// done; strings in it are owned copies.
func (ev *Evaluator) Stream() *EventStream { return ev.stream }

// Report returns the diagnostic totals so far.
func (ev *Evaluator) Report() RunReport { return ev.report }

func (ev *Evaluator) shouldStop() bool { return ev.stopRequested }

// stopErr is the standard handler epilogue: nil while the run is
// healthy, errStopped once a stop was requested.
func (ev *Evaluator) stopErr() error {
	if ev.stopRequested {
		return errStopped
	}
	return nil
}

func (ev *Evaluator) requestStop() { ev.stopRequested = true }

func (ev *Evaluator) continueOnError() bool {
	v := ev.varGet("CMAKE_NOBIFY_CONTINUE_ON_ERROR")
	return v != "" && ev.truthy(v)
}

func (ev *Evaluator) requestStopOnError() {
	if !ev.continueOnError() {
		ev.stopRequested = true
	}
}

func (ev *Evaluator) setCompatProfile(p CompatProfile) {
	ev.compatProfile = p
	ev.varSet("CMAKE_NOBIFY_COMPAT_PROFILE", p.String())
	if p == ProfilePermissive {
		ev.varSet("CMAKE_NOBIFY_CONTINUE_ON_ERROR", "1")
	} else {
		ev.varSet("CMAKE_NOBIFY_CONTINUE_ON_ERROR", "0")
	}
}

// refreshCompat re-reads the runtime-tunable compatibility knobs so
// scripts can adjust them mid-run.
func (ev *Evaluator) refreshCompat() {
	if v := ev.varGet("CMAKE_NOBIFY_COMPAT_PROFILE"); v != "" {
		ev.compatProfile = ParseCompatProfile(v)
	}
	if v := ev.varGet("CMAKE_NOBIFY_UNSUPPORTED_POLICY"); v != "" {
		ev.unsupportedPolicy = parseUnsupportedPolicy(v)
	}
	if v := ev.varGet("CMAKE_NOBIFY_ERROR_BUDGET"); v != "" {
		if n, ok := parseInt(v); ok && n >= 0 {
			ev.errorBudget = int(n)
		}
	}
}

func (ev *Evaluator) originAt(p srcpos) Origin {
	file := ev.currentFile
	if file == "" {
		file = "<input>"
	}
	return Origin{File: file, Line: p.line, Col: p.col}
}

// emitDiag routes a diagnostic to the log sink and the event stream,
// then applies the compatibility profile to decide whether the run
// stops.
func (ev *Evaluator) emitDiag(sev DiagSeverity, component, command string, o Origin, cause, hint string) {
	if ev.stopRequested {
		return
	}
	if sev == DiagWarning &&
		(ev.compatProfile == ProfileStrict || ev.compatProfile == ProfileCIStrict) {
		sev = DiagError
	}
	switch sev {
	case DiagError:
		ev.report.ErrorCount++
		glog.Errorf("%s:%d:%d: %s: %s", o.File, o.Line, o.Col, command, cause)
	case DiagWarning:
		ev.report.WarningCount++
		glog.Warningf("%s:%d:%d: %s: %s", o.File, o.Line, o.Col, command, cause)
	default:
		glog.V(1).Infof("%s:%d:%d: %s: %s", o.File, o.Line, o.Col, command, cause)
	}

	ev.stream.Push(DiagnosticEvent{
		eventBase: eventBase{Origin: o},
		Severity:  sev,
		Component: component,
		Command:   command,
		Cause:     cause,
		Hint:      hint,
	})

	if sev == DiagError {
		if ev.compatProfile == ProfilePermissive {
			if ev.errorBudget > 0 && ev.report.ErrorCount >= ev.errorBudget {
				ev.requestStop()
			}
		} else {
			ev.requestStopOnError()
		}
	}
}

// resolveArgs flattens raw arguments, expands variables and splits
// unquoted ;-lists outside generator expressions. Empty unquoted
// fragments are dropped.
func (ev *Evaluator) resolveArgs(args []arg) []string {
	return ev.resolveArgsMode(args, true, true)
}

// resolveArgsLiteral is the macro call-site variant: no expansion, no
// list splitting.
func (ev *Evaluator) resolveArgsLiteral(args []arg) []string {
	return ev.resolveArgsMode(args, false, false)
}

func (ev *Evaluator) resolveArgsMode(args []arg, expand, split bool) []string {
	var out []string
	for i := range args {
		a := &args[i]
		text := a.text
		if expand {
			text = ev.expandVars(text)
		}
		switch a.kind {
		case argQuoted:
			if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
				text = text[1 : len(text)-1]
			}
			out = append(out, unescapeQuoted(text))
		case argBracket:
			out = append(out, stripBracketArg(text))
		default:
			if !split {
				out = append(out, text)
				continue
			}
			if text == "" {
				continue
			}
			out = append(out, splitList(text)...)
		}
	}
	return out
}

// unescapeQuoted decodes the standard backslash escapes inside a
// quoted argument.
func unescapeQuoted(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	buf := newBuf()
	defer buf.release()
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			buf.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			buf.WriteByte('\n')
		case 't':
			buf.WriteByte('\t')
		case 'r':
			buf.WriteByte('\r')
		default:
			buf.WriteByte(s[i])
		}
	}
	return buf.String()
}

// stripBracketArg removes matching [=*[ ]=*] framing; text without
// valid framing comes back untouched.
func stripBracketArg(s string) string {
	if len(s) < 4 || s[0] != '[' {
		return s
	}
	eq := 0
	i := 1
	for i < len(s) && s[i] == '=' {
		eq++
		i++
	}
	if i >= len(s) || s[i] != '[' {
		return s
	}
	open := i + 1
	closeLen := eq + 2
	if len(s) < open+closeLen {
		return s
	}
	closePos := len(s) - closeLen
	if s[closePos] != ']' || s[len(s)-1] != ']' {
		return s
	}
	for k := 0; k < eq; k++ {
		if s[closePos+1+k] != '=' {
			return s
		}
	}
	return s[open:closePos]
}

// lookupEnvVar reads the process environment through the overlay
// maintained by set(ENV{...}).
func (ev *Evaluator) lookupEnvVar(name string) (string, bool) {
	if v, ok := ev.envOverlay[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	if ev.envFn != nil {
		return ev.envFn(name)
	}
	return os.LookupEnv(name)
}

func (ev *Evaluator) setEnvVar(name, value string) {
	ev.envOverlay[name] = &value
}

func (ev *Evaluator) unsetEnvVar(name string) {
	ev.envOverlay[name] = nil
}

// evalBlock runs statements until a control-flow flag interrupts.
func (ev *Evaluator) evalBlock(stmts []node) error {
	for _, n := range stmts {
		if err := ev.evalNode(n); err != nil {
			return err
		}
		if ev.breakRequested || ev.continueRequested || ev.returnRequested {
			return nil
		}
	}
	return nil
}

func (ev *Evaluator) evalNode(n node) error {
	if ev.stopRequested {
		return errStopped
	}
	p := n.pos()
	ev.varSet("CMAKE_CURRENT_LIST_LINE", strconv.Itoa(p.line))

	switch t := n.(type) {
	case *commandNode:
		if t.name == "" {
			return nil
		}
		ev.refreshCompat()
		return ev.dispatchCommand(t)
	case *ifNode:
		return ev.evalIf(t)
	case *foreachNode:
		return ev.evalForeach(t)
	case *whileNode:
		return ev.evalWhile(t)
	case *funcDefNode:
		return ev.registerUserCommand(t)
	default:
		return nil
	}
}

func (ev *Evaluator) evalIf(n *ifNode) error {
	o := ev.originAt(n.pos())
	if ev.evalCondition(n.cond, o) {
		return ev.evalBlock(n.then)
	}
	if err := ev.stopErr(); err != nil {
		return err
	}
	for i := range n.elseifs {
		if ev.evalCondition(n.elseifs[i].cond, o) {
			return ev.evalBlock(n.elseifs[i].block)
		}
		if err := ev.stopErr(); err != nil {
			return err
		}
	}
	return ev.evalBlock(n.els)
}

func (ev *Evaluator) evalForeach(n *foreachNode) error {
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) == 0 {
		return nil
	}

	name := a[0]
	var items []string
	switch {
	case len(a) >= 2 && equalsFold(a[1], "RANGE"):
		var ok bool
		items, ok = foreachRangeItems(a[2:])
		if !ok {
			ev.emitDiag(DiagError, "evaluator", "foreach", ev.originAt(n.pos()),
				"foreach(RANGE ...) arguments must be non-decreasing integers",
				"Usage: foreach(<var> RANGE [<start>] <stop> [<step>])")
			return ev.stopErr()
		}
	case len(a) >= 2 && equalsFold(a[1], "IN"):
		idx := 2
		if idx < len(a) && equalsFold(a[idx], "LISTS") {
			idx++
			for ; idx < len(a) && !equalsFold(a[idx], "ITEMS"); idx++ {
				items = append(items, splitList(ev.varGet(a[idx]))...)
			}
			if idx < len(a) {
				idx++ // ITEMS
			}
		} else if idx < len(a) && equalsFold(a[idx], "ITEMS") {
			idx++
		}
		items = append(items, a[idx:]...)
	default:
		items = a[1:]
	}

	ev.loopDepth++
	defer func() { ev.loopDepth-- }()
	for _, item := range items {
		ev.varSet(name, item)
		if err := ev.evalBlock(n.body); err != nil {
			return err
		}
		if ev.returnRequested {
			return nil
		}
		if ev.continueRequested {
			ev.continueRequested = false
			continue
		}
		if ev.breakRequested {
			ev.breakRequested = false
			break
		}
	}
	return nil
}

func foreachRangeItems(a []string) ([]string, bool) {
	var start, stop, step int64 = 0, 0, 1
	ok := false
	switch len(a) {
	case 1:
		stop, ok = parseInt(a[0])
	case 2:
		start, ok = parseInt(a[0])
		if ok {
			stop, ok = parseInt(a[1])
		}
	case 3:
		start, ok = parseInt(a[0])
		if ok {
			stop, ok = parseInt(a[1])
		}
		if ok {
			step, ok = parseInt(a[2])
		}
	}
	if !ok || step <= 0 || stop < start {
		return nil, false
	}
	var items []string
	for v := start; v <= stop; v += step {
		items = append(items, strconv.FormatInt(v, 10))
	}
	return items, true
}

func (ev *Evaluator) evalWhile(n *whileNode) error {
	const maxIter = 10000
	ev.loopDepth++
	defer func() { ev.loopDepth-- }()

	o := ev.originAt(n.pos())
	for iter := 0; iter < maxIter; iter++ {
		if !ev.evalCondition(n.cond, o) {
			return ev.stopErr()
		}
		if err := ev.evalBlock(n.body); err != nil {
			return err
		}
		if ev.returnRequested {
			return nil
		}
		if ev.continueRequested {
			ev.continueRequested = false
			continue
		}
		if ev.breakRequested {
			ev.breakRequested = false
			return nil
		}
	}

	ev.emitDiag(DiagError, "while", "while", o,
		"Iteration limit exceeded", "Infinite loop detected")
	return ev.stopErr()
}

func (ev *Evaluator) registerUserCommand(n *funcDefNode) error {
	cmd := &userCommand{
		name:    n.name,
		params:  append([]string(nil), n.params...),
		body:    n.body,
		isMacro: n.isMacro,
	}
	ev.userCommands = append(ev.userCommands, cmd)
	glog.V(2).Infof("registered %s %q with %d params", map[bool]string{true: "macro", false: "function"}[n.isMacro], n.name, len(n.params))
	return nil
}

// invokeUserCommand runs a function (fresh lexical scope) or macro
// (dynamic binding frame) with the implicit ARGC/ARGV/ARGN/ARGVn
// bindings.
func (ev *Evaluator) invokeUserCommand(cmd *userCommand, args []string) error {
	bind := ev.varSet
	if cmd.isMacro {
		ev.macroFramePush()
		defer ev.macroFramePop()
		bind = ev.macroBindSet
	} else {
		ev.scopePush()
		defer ev.scopePop()
	}

	for i, p := range cmd.params {
		v := ""
		if i < len(args) {
			v = args[i]
		}
		bind(p, v)
	}
	bind("ARGC", strconv.Itoa(len(args)))
	bind("ARGV", joinList(args))
	if len(args) > len(cmd.params) {
		bind("ARGN", joinList(args[len(cmd.params):]))
	} else {
		bind("ARGN", "")
	}
	for i, v := range args {
		bind("ARGV"+strconv.Itoa(i), v)
	}

	err := ev.evalBlock(cmd.body)
	ev.returnRequested = false
	return err
}

// executeFile lexes, parses and evaluates another script file with
// CMAKE_CURRENT_LIST_* saved and restored; add_subdirectory adds a
// lexical scope so the subtree sees its own current source/binary
// dirs.
func (ev *Evaluator) executeFile(path string, isSubdir bool, explicitBinDir string, o Origin) bool {
	if ev.stopRequested {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		glog.V(1).Infof("read %s: %v", path, err)
		return false
	}
	stmts, err := parseFile(string(data), path)
	if err != nil {
		ev.emitDiag(DiagError, "parser", "parse", Origin{File: path, Line: errLine(err)},
			fmt.Sprintf("Failed to parse file: %v", err),
			"Check escaping, quoting and variable syntax")
		return false
	}

	oldFile := ev.currentFile
	oldListFile := ev.varGet("CMAKE_CURRENT_LIST_FILE")
	oldListDir := ev.varGet("CMAKE_CURRENT_LIST_DIR")
	oldSrcDir := ev.varGet("CMAKE_CURRENT_SOURCE_DIR")
	oldBinDir := ev.varGet("CMAKE_CURRENT_BINARY_DIR")

	newDir := dirOf(path)
	ev.currentFile = path
	ev.varSet("CMAKE_CURRENT_LIST_FILE", path)
	ev.varSet("CMAKE_CURRENT_LIST_DIR", newDir)

	scopePushed := false
	if isSubdir {
		ev.scopePush()
		scopePushed = true
		ev.varSet("CMAKE_CURRENT_SOURCE_DIR", newDir)
		if explicitBinDir != "" {
			ev.varSet("CMAKE_CURRENT_BINARY_DIR", explicitBinDir)
		} else {
			ev.varSet("CMAKE_CURRENT_BINARY_DIR", newDir)
		}
	}

	evalErr := ev.evalBlock(stmts)
	ev.returnRequested = false

	if scopePushed {
		ev.scopePop()
	}
	ev.currentFile = oldFile
	ev.varSet("CMAKE_CURRENT_LIST_FILE", oldListFile)
	ev.varSet("CMAKE_CURRENT_LIST_DIR", oldListDir)
	if isSubdir {
		ev.varSet("CMAKE_CURRENT_SOURCE_DIR", oldSrcDir)
		ev.varSet("CMAKE_CURRENT_BINARY_DIR", oldBinDir)
	}

	return evalErr == nil && !ev.stopRequested
}

func errLine(err error) int {
	var ee EvalError
	if errors.As(err, &ee) {
		return ee.Lineno
	}
	return 0
}

// RunSource evaluates a script given as a string. The event stream is
// left populated through any failure point.
func (ev *Evaluator) RunSource(src, filename string) error {
	stmts, err := parseFile(src, filename)
	if err != nil {
		ev.emitDiag(DiagError, "parser", "parse", Origin{File: filename, Line: errLine(err)},
			fmt.Sprintf("Failed to parse file: %v", err),
			"Check escaping, quoting and variable syntax")
		return err
	}
	evalErr := ev.evalBlock(stmts)
	ev.returnRequested = false
	if evalErr != nil && !errors.Is(evalErr, errStopped) {
		return evalErr
	}
	if ev.report.ErrorCount > 0 {
		return fmt.Errorf("evaluation finished with %d error(s)", ev.report.ErrorCount)
	}
	return nil
}

// RunFile evaluates the script at path as the root of the run.
func (ev *Evaluator) RunFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ev.currentFile = path
	ev.varSet("CMAKE_CURRENT_LIST_FILE", path)
	ev.varSet("CMAKE_CURRENT_LIST_DIR", dirOf(path))
	return ev.RunSource(string(data), path)
}
