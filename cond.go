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
	"os"
	"regexp"
	"strings"
)

// truthyConstant classifies the CMake boolean constants. known is
// false when the value is a bare non-constant token.
func truthyConstant(v string) (value, known bool) {
	if v == "" {
		return false, true
	}
	switch {
	case equalsFold(v, "1"), equalsFold(v, "ON"), equalsFold(v, "YES"),
		equalsFold(v, "TRUE"), equalsFold(v, "Y"):
		return true, true
	case equalsFold(v, "0"), equalsFold(v, "OFF"), equalsFold(v, "NO"),
		equalsFold(v, "FALSE"), equalsFold(v, "N"), equalsFold(v, "IGNORE"),
		equalsFold(v, "NOTFOUND"):
		return false, true
	case hasSuffixFold(v, "-NOTFOUND"):
		return false, true
	}
	if n, ok := parseInt(v); ok {
		return n != 0, true
	}
	return false, false
}

// truthy evaluates a token in boolean position: constants directly,
// otherwise through a macro binding or a defined variable, and bare
// non-constant tokens as true.
func (ev *Evaluator) truthy(v string) bool {
	if value, known := truthyConstant(v); known {
		return value
	}
	if mv, ok := ev.macroBindGet(v); ok {
		value, _ := truthyConstant(mv)
		return value
	}
	if ev.varDefined(v) {
		value, _ := truthyConstant(ev.varGet(v))
		return value
	}
	return true
}

// lookupOrLiteral resolves a token as a variable when one is defined
// (macro bindings first) and otherwise returns the token itself.
// IN_LIST and PATH_EQUAL operands resolve this way.
func (ev *Evaluator) lookupOrLiteral(tok string) string {
	if v, ok := ev.lookupValue(tok); ok {
		return v
	}
	return tok
}

func listContains(list, needle string) bool {
	for _, item := range splitListAll(list) {
		if item == needle {
			return true
		}
	}
	return false
}

// condParser evaluates the already-resolved token list of an if()
// condition with precedence NOT > cmp > AND > OR.
type condParser struct {
	ev     *Evaluator
	toks   []string
	pos    int
	origin Origin
}

// evalCondition resolves a raw condition argument list and evaluates
// it. Trailing unconsumed tokens are an error diagnostic.
func (ev *Evaluator) evalCondition(raw []arg, o Origin) bool {
	toks := ev.resolveArgs(raw)
	if ev.stopRequested || len(toks) == 0 {
		return false
	}
	p := &condParser{ev: ev, toks: toks, origin: o}
	v := p.parseOr()
	if p.pos != len(p.toks) {
		ev.emitDiag(DiagError, "expr", "if", o,
			"Invalid if() syntax", "Check operators and parentheses")
		return false
	}
	return v
}

func (p *condParser) has() bool       { return p.pos < len(p.toks) }
func (p *condParser) peek() string    { return p.toks[p.pos] }
func (p *condParser) next() string    { t := p.toks[p.pos]; p.pos++; return t }
func (p *condParser) peekIs(s string) bool {
	return p.has() && equalsFold(p.peek(), s)
}

func (p *condParser) parseOr() bool {
	v := p.parseAnd()
	for p.peekIs("OR") {
		p.next()
		rhs := p.parseAnd()
		v = v || rhs
	}
	return v
}

func (p *condParser) parseAnd() bool {
	v := p.parseCmp()
	for p.peekIs("AND") {
		p.next()
		rhs := p.parseCmp()
		v = v && rhs
	}
	return v
}

var condUnaryKeywords = []string{
	"NOT", "DEFINED", "TARGET", "COMMAND", "POLICY",
	"EXISTS", "IS_DIRECTORY", "IS_SYMLINK", "IS_ABSOLUTE",
}

func (p *condParser) parseCmp() bool {
	if !p.has() {
		return false
	}
	first := p.peek()
	if first == "(" {
		return p.parseUnary()
	}
	for _, kw := range condUnaryKeywords {
		if equalsFold(first, kw) {
			return p.parseUnary()
		}
	}

	lhs := p.next()
	if !p.has() {
		return p.ev.truthy(lhs)
	}

	op := p.peek()
	switch {
	case equalsFold(op, "STREQUAL"):
		p.next()
		if !p.has() {
			return false
		}
		return lhs == p.next()
	case equalsFold(op, "EQUAL"), equalsFold(op, "LESS"), equalsFold(op, "GREATER"),
		equalsFold(op, "LESS_EQUAL"), equalsFold(op, "GREATER_EQUAL"):
		p.next()
		if !p.has() {
			return false
		}
		a, okA := parseInt(lhs)
		b, okB := parseInt(p.next())
		if !okA || !okB {
			return false
		}
		switch {
		case equalsFold(op, "EQUAL"):
			return a == b
		case equalsFold(op, "LESS"):
			return a < b
		case equalsFold(op, "GREATER"):
			return a > b
		case equalsFold(op, "LESS_EQUAL"):
			return a <= b
		default:
			return a >= b
		}
	case equalsFold(op, "STRLESS"), equalsFold(op, "STRGREATER"),
		equalsFold(op, "STRLESS_EQUAL"), equalsFold(op, "STRGREATER_EQUAL"):
		p.next()
		if !p.has() {
			return false
		}
		c := strings.Compare(lhs, p.next())
		switch {
		case equalsFold(op, "STRLESS"):
			return c < 0
		case equalsFold(op, "STRGREATER"):
			return c > 0
		case equalsFold(op, "STRLESS_EQUAL"):
			return c <= 0
		default:
			return c >= 0
		}
	case equalsFold(op, "VERSION_LESS"), equalsFold(op, "VERSION_GREATER"),
		equalsFold(op, "VERSION_EQUAL"), equalsFold(op, "VERSION_LESS_EQUAL"),
		equalsFold(op, "VERSION_GREATER_EQUAL"):
		p.next()
		if !p.has() {
			return false
		}
		c := compareVersions(lhs, p.next())
		switch {
		case equalsFold(op, "VERSION_LESS"):
			return c < 0
		case equalsFold(op, "VERSION_GREATER"):
			return c > 0
		case equalsFold(op, "VERSION_EQUAL"):
			return c == 0
		case equalsFold(op, "VERSION_LESS_EQUAL"):
			return c <= 0
		default:
			return c >= 0
		}
	case equalsFold(op, "MATCHES"):
		p.next()
		if !p.has() {
			return false
		}
		re, err := regexp.CompilePOSIX(p.next())
		if err != nil {
			return false
		}
		return re.MatchString(lhs)
	case equalsFold(op, "IN_LIST"):
		p.next()
		if !p.has() {
			return false
		}
		needle := p.ev.lookupOrLiteral(lhs)
		list := p.ev.lookupOrLiteral(p.next())
		return listContains(list, needle)
	case equalsFold(op, "PATH_EQUAL"):
		p.next()
		if !p.has() {
			return false
		}
		a := normalizePath(p.ev.lookupOrLiteral(lhs))
		b := normalizePath(p.ev.lookupOrLiteral(p.next()))
		return a == b
	}

	return p.ev.truthy(lhs)
}

func (p *condParser) parseUnary() bool {
	if !p.has() {
		return false
	}
	tok := p.peek()

	if equalsFold(tok, "NOT") {
		p.next()
		return !p.parseUnary()
	}

	if equalsFold(tok, "DEFINED") {
		p.next()
		if !p.has() {
			return false
		}
		name := p.next()
		if strings.HasPrefix(name, "ENV{") && strings.HasSuffix(name, "}") {
			_, ok := p.ev.lookupEnvVar(name[4 : len(name)-1])
			return ok
		}
		return p.ev.varDefined(name)
	}

	if equalsFold(tok, "TARGET") {
		p.next()
		if !p.has() {
			return false
		}
		return p.ev.targetKnown(p.next())
	}

	if equalsFold(tok, "COMMAND") {
		p.next()
		if !p.has() {
			return false
		}
		name := p.next()
		if isKnownCommand(name) {
			return true
		}
		return p.ev.userCommandFind(name) != nil
	}

	if equalsFold(tok, "POLICY") {
		p.next()
		if !p.has() {
			return false
		}
		return isPolicyID(p.next())
	}

	if equalsFold(tok, "EXISTS") {
		p.next()
		if !p.has() {
			return false
		}
		_, err := os.Stat(p.next())
		return err == nil
	}

	if equalsFold(tok, "IS_DIRECTORY") {
		p.next()
		if !p.has() {
			return false
		}
		st, err := os.Stat(p.next())
		return err == nil && st.IsDir()
	}

	if equalsFold(tok, "IS_SYMLINK") {
		p.next()
		if !p.has() {
			return false
		}
		st, err := os.Lstat(p.next())
		return err == nil && st.Mode()&os.ModeSymlink != 0
	}

	if equalsFold(tok, "IS_ABSOLUTE") {
		p.next()
		if !p.has() {
			return false
		}
		return isAbsPath(p.next())
	}

	return p.parsePrimary()
}

func (p *condParser) parsePrimary() bool {
	if !p.has() {
		return false
	}
	tok := p.next()
	if tok == "(" {
		v := p.parseOr()
		if p.peekIs(")") {
			p.next()
		} else {
			p.ev.emitDiag(DiagError, "expr", "if", p.origin,
				"Missing ')' in expression", "Close parentheses")
		}
		return v
	}
	return p.ev.truthy(tok)
}
