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
	"github.com/golang/glog"
)

// parser builds the AST from the token stream. It performs no
// evaluation; block keywords (if/foreach/while/function/macro) nest,
// and the arguments of end* forms are read and discarded.
type parser struct {
	toks     []token
	pos      int
	filename string

	// argument list of the most recently consumed block terminator;
	// parseIf reads elseif conditions from here.
	lastTermArgs []arg
}

func parseTokens(toks []token, filename string) ([]node, error) {
	p := &parser{toks: toks, filename: filename}
	stmts, _, err := p.parseBlock(nil)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		t := p.toks[p.pos]
		return nil, p.errAt(t, "unexpected %q", t.text)
	}
	return stmts, nil
}

// parseFile lexes and parses a whole source string.
func parseFile(src, filename string) ([]node, error) {
	toks, bad := lexAll(src)
	if bad != nil {
		return nil, srcpos{filename: filename, line: bad.line, col: bad.col}.errorf("invalid token %q", bad.text)
	}
	return parseTokens(toks, filename)
}

func (p *parser) errAt(t token, f string, args ...interface{}) error {
	return srcpos{filename: p.filename, line: t.line, col: t.col}.errorf(f, args...)
}

func (p *parser) eofErr(f string, args ...interface{}) error {
	return srcpos{filename: p.filename, line: p.lastLine()}.errorf(f, args...)
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) lastLine() int {
	if len(p.toks) == 0 {
		return 1
	}
	return p.toks[len(p.toks)-1].line
}

// parseBlock reads statements until one of the terminator keywords (or
// EOF when terminators is nil). The terminator statement is consumed
// and its folded name returned.
func (p *parser) parseBlock(terminators []string) ([]node, string, error) {
	var stmts []node
	for {
		t, ok := p.peek()
		if !ok {
			if terminators != nil {
				return nil, "", p.eofErr("missing %s()", terminators[len(terminators)-1])
			}
			return stmts, "", nil
		}
		if t.kind != tokenIdent {
			return nil, "", p.errAt(t, "expected command name, got %s %q", t.kind, t.text)
		}
		for _, term := range terminators {
			if equalsFold(t.text, term) {
				p.next()
				args, err := p.parseArgList()
				if err != nil {
					return nil, "", err
				}
				p.lastTermArgs = args
				return stmts, foldName(term), nil
			}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, "", err
		}
		stmts = append(stmts, stmt)
	}
}

func (p *parser) parseStatement() (node, error) {
	name := p.next() // tokenIdent, checked by caller
	base := nodeBase{srcpos{filename: p.filename, line: name.line, col: name.col}}

	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	glog.V(3).Infof("stmt %s(%d args) at %s", name.text, len(args), base.srcpos)

	switch {
	case equalsFold(name.text, "if"):
		return p.parseIf(base, args)
	case equalsFold(name.text, "foreach"):
		body, _, err := p.parseBlock([]string{"endforeach"})
		if err != nil {
			return nil, err
		}
		return &foreachNode{nodeBase: base, args: args, body: body}, nil
	case equalsFold(name.text, "while"):
		body, _, err := p.parseBlock([]string{"endwhile"})
		if err != nil {
			return nil, err
		}
		return &whileNode{nodeBase: base, cond: args, body: body}, nil
	case equalsFold(name.text, "function"), equalsFold(name.text, "macro"):
		isMacro := equalsFold(name.text, "macro")
		end := "endfunction"
		if isMacro {
			end = "endmacro"
		}
		body, _, err := p.parseBlock([]string{end})
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, p.errAt(name, "%s() requires a name", name.text)
		}
		fn := &funcDefNode{nodeBase: base, name: args[0].text, isMacro: isMacro, body: body}
		for _, a := range args[1:] {
			fn.params = append(fn.params, a.text)
		}
		return fn, nil
	default:
		return &commandNode{nodeBase: base, name: name.text, args: args}, nil
	}
}

func (p *parser) parseIf(base nodeBase, cond []arg) (node, error) {
	n := &ifNode{nodeBase: base, cond: cond}
	block, term, err := p.parseBlock([]string{"elseif", "else", "endif"})
	if err != nil {
		return nil, err
	}
	n.then = block

	for term == "ELSEIF" {
		clause := elseifClause{cond: p.lastTermArgs}
		block, term, err = p.parseBlock([]string{"elseif", "else", "endif"})
		if err != nil {
			return nil, err
		}
		clause.block = block
		n.elseifs = append(n.elseifs, clause)
	}
	if term == "ELSE" {
		block, term, err = p.parseBlock([]string{"endif"})
		if err != nil {
			return nil, err
		}
		n.els = block
	}
	if term != "ENDIF" {
		return nil, base.errorf("missing endif()")
	}
	return n, nil
}

func (p *parser) parseArgList() ([]arg, error) {
	t, ok := p.peek()
	if !ok {
		return nil, p.eofErr("expected ( after command name")
	}
	if t.kind != tokenParenOpen {
		return nil, p.errAt(t, "expected ( after command name, got %q", t.text)
	}
	p.next()

	var args []arg
	depth := 1
	for {
		t, ok := p.peek()
		if !ok {
			return nil, p.eofErr("missing )")
		}
		switch t.kind {
		case tokenParenOpen:
			depth++
			args = append(args, arg{kind: argUnquoted, text: "(", line: t.line, col: t.col})
			p.next()
		case tokenParenClose:
			depth--
			p.next()
			if depth == 0 {
				return args, nil
			}
			args = append(args, arg{kind: argUnquoted, text: ")", line: t.line, col: t.col})
		case tokenArgQuoted:
			args = append(args, arg{kind: argQuoted, text: t.text, line: t.line, col: t.col})
			p.next()
		case tokenArgBracket:
			args = append(args, arg{kind: argBracket, text: t.text, line: t.line, col: t.col})
			p.next()
		case tokenIdent, tokenArgUnquoted:
			args = append(args, arg{kind: argUnquoted, text: t.text, line: t.line, col: t.col})
			p.next()
		default:
			return nil, p.errAt(t, "unexpected token %q in argument list", t.text)
		}
	}
}
