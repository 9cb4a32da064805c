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
	"strings"
	"testing"
)

func TestParserCommand(t *testing.T) {
	stmts, err := parseFile(`set(A "x" [[y]])`, "test.cmake")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	cmd, ok := stmts[0].(*commandNode)
	if !ok {
		t.Fatalf("statement is %T, want *commandNode", stmts[0])
	}
	if cmd.name != "set" || len(cmd.args) != 3 {
		t.Fatalf("cmd=%q args=%d", cmd.name, len(cmd.args))
	}
	if cmd.args[0].kind != argUnquoted || cmd.args[1].kind != argQuoted || cmd.args[2].kind != argBracket {
		t.Errorf("arg kinds = %v %v %v", cmd.args[0].kind, cmd.args[1].kind, cmd.args[2].kind)
	}
}

func TestParserIfChain(t *testing.T) {
	src := `
if(A)
  set(X 1)
elseif(B)
  set(X 2)
elseif(C)
  set(X 3)
else()
  set(X 4)
endif()
`
	stmts, err := parseFile(src, "test.cmake")
	if err != nil {
		t.Fatal(err)
	}
	n, ok := stmts[0].(*ifNode)
	if !ok {
		t.Fatalf("statement is %T, want *ifNode", stmts[0])
	}
	if len(n.then) != 1 || len(n.elseifs) != 2 || len(n.els) != 1 {
		t.Errorf("then=%d elseifs=%d else=%d", len(n.then), len(n.elseifs), len(n.els))
	}
	if len(n.elseifs[0].cond) != 1 || n.elseifs[0].cond[0].text != "B" {
		t.Errorf("first elseif cond = %+v", n.elseifs[0].cond)
	}
}

func TestParserNestedBlocks(t *testing.T) {
	src := `
function(outer a b)
  foreach(i IN ITEMS x y)
    while(cond)
      message(${i})
    endwhile()
  endforeach()
endfunction()
macro(m)
endmacro()
`
	stmts, err := parseFile(src, "test.cmake")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(stmts))
	}
	fn := stmts[0].(*funcDefNode)
	if fn.name != "outer" || fn.isMacro || len(fn.params) != 2 {
		t.Errorf("function parse: name=%q macro=%v params=%v", fn.name, fn.isMacro, fn.params)
	}
	fe := fn.body[0].(*foreachNode)
	if _, ok := fe.body[0].(*whileNode); !ok {
		t.Errorf("foreach body is %T, want *whileNode", fe.body[0])
	}
	mc := stmts[1].(*funcDefNode)
	if !mc.isMacro {
		t.Error("macro parsed as function")
	}
}

func TestParserEndFormArgsIgnored(t *testing.T) {
	src := `
if(A)
endif(A)
foreach(i 1 2)
endforeach(i)
`
	if _, err := parseFile(src, "test.cmake"); err != nil {
		t.Fatalf("end-form arguments should be accepted: %v", err)
	}
}

func TestParserErrors(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"if(A)\nset(X 1)\n", "missing endif"},
		{"set(A 1", "missing )"},
		{"set A 1)", "expected ("},
		{"function(f)\nset(X 1)\n", "missing endfunction"},
	} {
		_, err := parseFile(tc.in, "test.cmake")
		if err == nil {
			t.Errorf("parseFile(%q) expected error", tc.in)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("parseFile(%q) error %q, want substring %q", tc.in, err, tc.want)
		}
	}
}
