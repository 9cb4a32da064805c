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
	"reflect"
	"testing"
)

func lexKinds(toks []token) []tokenKind {
	var r []tokenKind
	for _, t := range toks {
		r = append(r, t.kind)
	}
	return r
}

func lexTexts(toks []token) []string {
	var r []string
	for _, t := range toks {
		r = append(r, t.text)
	}
	return r
}

func TestLexerBasic(t *testing.T) {
	for _, tc := range []struct {
		in    string
		kinds []tokenKind
		texts []string
	}{
		{
			in:    `set(A 1)`,
			kinds: []tokenKind{tokenIdent, tokenParenOpen, tokenIdent, tokenArgUnquoted, tokenParenClose},
			texts: []string{"set", "(", "A", "1", ")"},
		},
		{
			in:    "set(A \"hello world\")",
			kinds: []tokenKind{tokenIdent, tokenParenOpen, tokenIdent, tokenArgQuoted, tokenParenClose},
			texts: []string{"set", "(", "A", `"hello world"`, ")"},
		},
		{
			in:    "set(X [=[a;b]=])",
			kinds: []tokenKind{tokenIdent, tokenParenOpen, tokenIdent, tokenArgBracket, tokenParenClose},
			texts: []string{"set", "(", "X", "[=[a;b]=]", ")"},
		},
		{
			in:    "message(${FOO})",
			kinds: []tokenKind{tokenIdent, tokenParenOpen, tokenArgUnquoted, tokenParenClose},
			texts: []string{"message", "(", "${FOO}", ")"},
		},
		{
			in:    "# a comment\nset(A 1) # trailing\n",
			kinds: []tokenKind{tokenIdent, tokenParenOpen, tokenIdent, tokenArgUnquoted, tokenParenClose},
			texts: []string{"set", "(", "A", "1", ")"},
		},
		{
			in:    "if((A AND B) OR C)",
			kinds: []tokenKind{tokenIdent, tokenParenOpen, tokenParenOpen, tokenIdent, tokenIdent, tokenIdent, tokenParenClose, tokenIdent, tokenIdent, tokenParenClose},
			texts: []string{"if", "(", "(", "A", "AND", "B", ")", "OR", "C", ")"},
		},
	} {
		toks, bad := lexAll(tc.in)
		if bad != nil {
			t.Errorf("lexAll(%q) unexpected invalid token %q", tc.in, bad.text)
			continue
		}
		if got := lexKinds(toks); !reflect.DeepEqual(got, tc.kinds) {
			t.Errorf("lexAll(%q) kinds=%v, want %v", tc.in, got, tc.kinds)
		}
		if got := lexTexts(toks); !reflect.DeepEqual(got, tc.texts) {
			t.Errorf("lexAll(%q) texts=%q, want %q", tc.in, got, tc.texts)
		}
	}
}

func TestLexerBracketEqualsCount(t *testing.T) {
	toks, bad := lexAll("set(X [==[a]=]b]==])")
	if bad != nil {
		t.Fatalf("unexpected invalid token %q", bad.text)
	}
	want := "[==[a]=]b]==]"
	if toks[3].text != want {
		t.Errorf("bracket token=%q, want %q", toks[3].text, want)
	}
}

func TestLexerBracketKeepsNewlines(t *testing.T) {
	toks, bad := lexAll("set(X [[line1\nline2]])")
	if bad != nil {
		t.Fatalf("unexpected invalid token %q", bad.text)
	}
	if toks[3].text != "[[line1\nline2]]" {
		t.Errorf("bracket token=%q", toks[3].text)
	}
}

func TestLexerUnterminated(t *testing.T) {
	for _, in := range []string{
		`set(A "unterminated`,
		"set(X [=[never closed]])",
	} {
		_, bad := lexAll(in)
		if bad == nil {
			t.Errorf("lexAll(%q) expected an invalid token", in)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	toks, bad := lexAll("set(A 1)\nset(B 2)")
	if bad != nil {
		t.Fatalf("unexpected invalid token %q", bad.text)
	}
	second := toks[5]
	if second.text != "set" || second.line != 2 || second.col != 1 {
		t.Errorf("second set token at %d:%d, want 2:1", second.line, second.col)
	}
}
