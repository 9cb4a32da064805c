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

import "fmt"

type srcpos struct {
	filename string
	line     int
	col      int
}

func (p srcpos) String() string {
	return fmt.Sprintf("%s:%d", p.filename, p.line)
}

// EvalError is an error in script evaluation.
type EvalError struct {
	Filename string
	Lineno   int
	Err      error
}

func (e EvalError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Filename, e.Lineno, e.Err)
}

func (p srcpos) errorf(f string, args ...interface{}) error {
	return EvalError{
		Filename: p.filename,
		Lineno:   p.line,
		Err:      fmt.Errorf(f, args...),
	}
}

type argKind int

const (
	argUnquoted argKind = iota
	argQuoted
	argBracket
)

// arg is one raw command argument as parsed. text keeps the surface
// form (including quotes or bracket framing); resolution strips it.
type arg struct {
	kind argKind
	text string
	line int
	col  int
}

type node interface {
	pos() srcpos
}

type nodeBase struct {
	srcpos
}

func (n *nodeBase) pos() srcpos { return n.srcpos }

type commandNode struct {
	nodeBase
	name string
	args []arg
}

type elseifClause struct {
	cond  []arg
	block []node
}

type ifNode struct {
	nodeBase
	cond    []arg
	then    []node
	elseifs []elseifClause
	els     []node
}

type foreachNode struct {
	nodeBase
	args []arg
	body []node
}

type whileNode struct {
	nodeBase
	cond []arg
	body []node
}

// funcDefNode covers both function() and macro() definitions; only the
// invocation discipline differs.
type funcDefNode struct {
	nodeBase
	name    string
	params  []string
	body    []node
	isMacro bool
}
