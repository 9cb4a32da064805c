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
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

func hString(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string() requires a subcommand", "Usage: string(<subcommand> ...)")
		return ev.stopErr()
	}

	sub := a[0]
	switch {
	case equalsFold(sub, "APPEND"), equalsFold(sub, "PREPEND"):
		if len(a) < 2 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(APPEND/PREPEND) requires variable name",
				"Usage: string(APPEND|PREPEND <var> [input...])")
			return ev.stopErr()
		}
		if len(a) == 2 {
			return ev.stopErr()
		}
		extra := strings.Join(a[2:], "")
		cur := ev.varGet(a[1])
		if equalsFold(sub, "APPEND") {
			ev.varSet(a[1], cur+extra)
		} else {
			ev.varSet(a[1], extra+cur)
		}

	case equalsFold(sub, "CONCAT"):
		if len(a) < 2 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(CONCAT) requires output variable",
				"Usage: string(CONCAT <out-var> [input...])")
			return ev.stopErr()
		}
		ev.varSet(a[1], strings.Join(a[2:], ""))

	case equalsFold(sub, "JOIN"):
		if len(a) < 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(JOIN) requires glue and output variable",
				"Usage: string(JOIN <glue> <out-var> [input...])")
			return ev.stopErr()
		}
		ev.varSet(a[2], strings.Join(a[3:], a[1]))

	case equalsFold(sub, "LENGTH"):
		if len(a) != 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(LENGTH) requires input and output variable",
				"Usage: string(LENGTH <string> <out-var>)")
			return ev.stopErr()
		}
		ev.varSet(a[2], strconv.Itoa(len(a[1])))

	case equalsFold(sub, "STRIP"):
		if len(a) != 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(STRIP) requires input and output variable",
				"Usage: string(STRIP <string> <out-var>)")
			return ev.stopErr()
		}
		ev.varSet(a[2], strings.Trim(a[1], " \t\r\n"))

	case equalsFold(sub, "FIND"):
		if len(a) != 4 && len(a) != 5 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(FIND) requires input, substring and output variable",
				"Usage: string(FIND <string> <substring> <out-var> [REVERSE])")
			return ev.stopErr()
		}
		reverse := false
		if len(a) == 5 {
			if !equalsFold(a[4], "REVERSE") {
				ev.emitDiag(DiagError, "string", n.name, o,
					"string(FIND) received unsupported option", a[4])
				return ev.stopErr()
			}
			reverse = true
		}
		var idx int
		if reverse {
			idx = strings.LastIndex(a[1], a[2])
		} else {
			idx = strings.Index(a[1], a[2])
		}
		ev.varSet(a[3], strconv.Itoa(idx))

	case equalsFold(sub, "COMPARE"):
		if len(a) != 5 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(COMPARE) requires op, lhs, rhs and output variable",
				"Usage: string(COMPARE <LESS|GREATER|EQUAL|NOTEQUAL|LESS_EQUAL|GREATER_EQUAL> <s1> <s2> <out-var>)")
			return ev.stopErr()
		}
		cmp := strings.Compare(a[2], a[3])
		var ok bool
		switch {
		case equalsFold(a[1], "LESS"):
			ok = cmp < 0
		case equalsFold(a[1], "GREATER"):
			ok = cmp > 0
		case equalsFold(a[1], "EQUAL"):
			ok = cmp == 0
		case equalsFold(a[1], "NOTEQUAL"):
			ok = cmp != 0
		case equalsFold(a[1], "LESS_EQUAL"):
			ok = cmp <= 0
		case equalsFold(a[1], "GREATER_EQUAL"):
			ok = cmp >= 0
		default:
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(COMPARE) received unsupported operation", a[1])
			return ev.stopErr()
		}
		if ok {
			ev.varSet(a[4], "1")
		} else {
			ev.varSet(a[4], "0")
		}

	case equalsFold(sub, "ASCII"):
		if len(a) < 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(ASCII) requires at least one code and output variable",
				"Usage: string(ASCII <code>... <out-var>)")
			return ev.stopErr()
		}
		buf := newBuf()
		defer buf.release()
		for _, tok := range a[1 : len(a)-1] {
			code, ok := parseInt(tok)
			if !ok || code < 0 || code > 255 {
				ev.emitDiag(DiagError, "string", n.name, o,
					"string(ASCII) code must be an integer in range [0,255]", tok)
				return ev.stopErr()
			}
			buf.WriteByte(byte(code))
		}
		ev.varSet(a[len(a)-1], buf.String())

	case equalsFold(sub, "HEX"):
		if len(a) != 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(HEX) requires input and output variable",
				"Usage: string(HEX <string> <out-var>)")
			return ev.stopErr()
		}
		ev.varSet(a[2], hex.EncodeToString([]byte(a[1])))

	case equalsFold(sub, "CONFIGURE"):
		return stringConfigure(ev, n, o, a)

	case equalsFold(sub, "MAKE_C_IDENTIFIER"):
		if len(a) != 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(MAKE_C_IDENTIFIER) requires input and output variable",
				"Usage: string(MAKE_C_IDENTIFIER <string> <out-var>)")
			return ev.stopErr()
		}
		ev.varSet(a[2], makeCIdentifier(a[1]))

	case equalsFold(sub, "GENEX_STRIP"):
		if len(a) != 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(GENEX_STRIP) requires input and output variable",
				"Usage: string(GENEX_STRIP <string> <out-var>)")
			return ev.stopErr()
		}
		ev.varSet(a[2], genexStrip(a[1]))

	case equalsFold(sub, "REPEAT"):
		if len(a) != 4 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(REPEAT) requires input, count and output variable",
				"Usage: string(REPEAT <string> <count> <out-var>)")
			return ev.stopErr()
		}
		count, ok := parseInt(a[2])
		if !ok || count < 0 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(REPEAT) repeat count is not a non-negative integer", a[2])
			return ev.stopErr()
		}
		if len(a[1]) > 0 && count > int64(1<<26)/int64(len(a[1])) {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(REPEAT) result is too large", "")
			return ev.stopErr()
		}
		ev.varSet(a[3], strings.Repeat(a[1], int(count)))

	case equalsFold(sub, "RANDOM"):
		return stringRandom(ev, n, o, a)

	case equalsFold(sub, "TIMESTAMP"):
		return stringTimestamp(ev, n, o, a)

	case equalsFold(sub, "UUID"):
		return stringUUID(ev, n, o, a)

	case isHashAlgorithm(sub):
		if len(a) != 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(<HASH>) requires output variable and input",
				"Usage: string(<HASH> <out-var> <input>)")
			return ev.stopErr()
		}
		ev.varSet(a[1], hashHex(sub, []byte(a[2])))

	case equalsFold(sub, "JSON"):
		return stringJSON(ev, n, o, a)

	case equalsFold(sub, "REPLACE"):
		if len(a) < 4 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(REPLACE) requires match, replace, out-var and input",
				"Usage: string(REPLACE <match> <replace> <out-var> <input>...)")
			return ev.stopErr()
		}
		input := joinList(a[4:])
		if a[1] == "" {
			ev.varSet(a[3], input)
		} else {
			ev.varSet(a[3], strings.ReplaceAll(input, a[1], a[2]))
		}

	case equalsFold(sub, "TOUPPER"), equalsFold(sub, "TOLOWER"):
		if len(a) < 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string("+foldName(sub)+") requires input and output variable",
				"Usage: string("+foldName(sub)+" <input> <out-var>)")
			return ev.stopErr()
		}
		input := joinList(a[1 : len(a)-1])
		if equalsFold(sub, "TOUPPER") {
			ev.varSet(a[len(a)-1], strings.ToUpper(input))
		} else {
			ev.varSet(a[len(a)-1], strings.ToLower(input))
		}

	case equalsFold(sub, "SUBSTRING"):
		if len(a) != 5 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(SUBSTRING) requires input, begin, length and output variable",
				"Usage: string(SUBSTRING <input> <begin> <length> <out-var>)")
			return ev.stopErr()
		}
		begin, okB := parseInt(a[2])
		length, okL := parseInt(a[3])
		if !okB || !okL {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(SUBSTRING) begin/length must be integers",
				"Use numeric begin and length (length can be -1 for until end)")
			return ev.stopErr()
		}
		if begin < 0 || length < -1 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(SUBSTRING) begin must be >= 0 and length >= -1", "")
			return ev.stopErr()
		}
		input := a[1]
		if begin >= int64(len(input)) {
			ev.varSet(a[4], "")
			return ev.stopErr()
		}
		end := int64(len(input))
		if length >= 0 && begin+length < end {
			end = begin + length
		}
		ev.varSet(a[4], input[begin:end])

	case equalsFold(sub, "REGEX"):
		return stringRegex(ev, n, o, a)

	default:
		ev.emitDiag(DiagError, "string", n.name, o,
			"Unsupported string() subcommand", sub)
	}
	return ev.stopErr()
}

func makeCIdentifier(in string) string {
	buf := newBuf()
	defer buf.release()
	if len(in) > 0 && isDigit(in[0]) {
		buf.WriteByte('_')
	}
	for i := 0; i < len(in); i++ {
		c := in[i]
		if isAlpha(c) || isDigit(c) || c == '_' {
			buf.WriteByte(c)
		} else {
			buf.WriteByte('_')
		}
	}
	return buf.String()
}

// genexStrip removes balanced $<...> spans, nested ones included.
func genexStrip(in string) string {
	buf := newBuf()
	defer buf.release()
	depth := 0
	for i := 0; i < len(in); i++ {
		if in[i] == '$' && i+1 < len(in) && in[i+1] == '<' {
			depth++
			i++
			continue
		}
		if depth > 0 {
			if in[i] == '>' {
				depth--
			}
			continue
		}
		buf.WriteByte(in[i])
	}
	return buf.String()
}

func stringConfigure(ev *Evaluator, n *commandNode, o Origin, a []string) error {
	if len(a) < 3 {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(CONFIGURE) requires input and output variable",
			"Usage: string(CONFIGURE <string> <out-var> [@ONLY] [ESCAPE_QUOTES])")
		return ev.stopErr()
	}
	atOnly, escapeQuotes := false, false
	for _, opt := range a[3:] {
		switch {
		case equalsFold(opt, "@ONLY"):
			atOnly = true
		case equalsFold(opt, "ESCAPE_QUOTES"):
			escapeQuotes = true
		default:
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(CONFIGURE) received unsupported option", opt)
			return ev.stopErr()
		}
	}

	buf := newBuf()
	defer buf.release()
	in := a[1]
	for i := 0; i < len(in); i++ {
		if in[i] == '@' {
			if j := strings.IndexByte(in[i+1:], '@'); j >= 0 {
				name := in[i+1 : i+1+j]
				if isIdentifier(name) {
					buf.WriteString(ev.varGet(name))
					i += j + 1
					continue
				}
			}
		}
		buf.WriteByte(in[i])
	}
	out := buf.String()
	if !atOnly {
		out = ev.expandVars(out)
	}
	if escapeQuotes {
		out = strings.ReplaceAll(out, `"`, `\"`)
	}
	ev.varSet(a[2], out)
	return ev.stopErr()
}

// xorshift64 is the generator behind string(RANDOM); a caller-supplied
// RANDOM_SEED makes the output reproducible.
type xorshift64 struct{ state uint64 }

func (x *xorshift64) next() uint64 {
	v := x.state
	v ^= v << 13
	v ^= v >> 7
	v ^= v << 17
	x.state = v
	return v
}

func stringRandom(ev *Evaluator, n *commandNode, o Origin, a []string) error {
	if len(a) < 2 {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(RANDOM) requires output variable",
			"Usage: string(RANDOM [LENGTH <n>] [ALPHABET <chars>] [RANDOM_SEED <seed>] <out-var>)")
		return ev.stopErr()
	}

	length := 5
	alphabet := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	seed := uint64(time.Now().UnixNano())
	outVar := a[len(a)-1]

	for i := 1; i+1 < len(a); i++ {
		switch {
		case equalsFold(a[i], "LENGTH"):
			if i+1 >= len(a)-1 {
				ev.emitDiag(DiagError, "string", n.name, o,
					"string(RANDOM LENGTH) expects integer > 0", "")
				return ev.stopErr()
			}
			v, ok := parseInt(a[i+1])
			if !ok || v <= 0 {
				ev.emitDiag(DiagError, "string", n.name, o,
					"string(RANDOM LENGTH) expects integer > 0", a[i+1])
				return ev.stopErr()
			}
			length = int(v)
			i++
		case equalsFold(a[i], "ALPHABET"):
			if i+1 >= len(a)-1 || a[i+1] == "" {
				ev.emitDiag(DiagError, "string", n.name, o,
					"string(RANDOM ALPHABET) expects non-empty alphabet", "")
				return ev.stopErr()
			}
			alphabet = a[i+1]
			i++
		case equalsFold(a[i], "RANDOM_SEED"):
			if i+1 >= len(a)-1 {
				ev.emitDiag(DiagError, "string", n.name, o,
					"string(RANDOM RANDOM_SEED) expects unsigned integer", "")
				return ev.stopErr()
			}
			v, err := strconv.ParseUint(a[i+1], 10, 64)
			if err != nil {
				ev.emitDiag(DiagError, "string", n.name, o,
					"string(RANDOM RANDOM_SEED) expects unsigned integer", a[i+1])
				return ev.stopErr()
			}
			seed = v
			i++
		default:
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(RANDOM) received unsupported option", a[i])
			return ev.stopErr()
		}
	}

	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	rng := xorshift64{state: seed}
	buf := newBuf()
	defer buf.release()
	for i := 0; i < length; i++ {
		buf.WriteByte(alphabet[rng.next()%uint64(len(alphabet))])
	}
	ev.varSet(outVar, buf.String())
	return ev.stopErr()
}

func stringTimestamp(ev *Evaluator, n *commandNode, o Origin, a []string) error {
	if len(a) < 2 || len(a) > 4 {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(TIMESTAMP) expects output variable with optional format and UTC",
			"Usage: string(TIMESTAMP <out-var> [format] [UTC])")
		return ev.stopErr()
	}
	outVar := a[1]
	format := "%Y-%m-%dT%H:%M:%S"
	hasFormat := false
	utc := false
	for _, tok := range a[2:] {
		if equalsFold(tok, "UTC") {
			utc = true
			continue
		}
		if !hasFormat {
			format = tok
			hasFormat = true
			continue
		}
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(TIMESTAMP) received unsupported option", tok)
		return ev.stopErr()
	}

	now := time.Now()
	// SOURCE_DATE_EPOCH pins the clock for reproducible builds.
	if v, ok := ev.lookupEnvVar("SOURCE_DATE_EPOCH"); ok && v != "" {
		if sec, ok := parseInt(v); ok {
			now = time.Unix(sec, 0)
			utc = true
		}
	}
	if utc {
		now = now.UTC()
	}
	ev.varSet(outVar, strftime(format, now))
	return ev.stopErr()
}

// strftime covers the timestamp specifiers the command documents.
func strftime(format string, t time.Time) string {
	buf := newBuf()
	defer buf.release()
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			buf.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			fmt.Fprintf(buf, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(buf, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(buf, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(buf, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(buf, "%02d", t.Hour())
		case 'I':
			h := t.Hour() % 12
			if h == 0 {
				h = 12
			}
			fmt.Fprintf(buf, "%02d", h)
		case 'M':
			fmt.Fprintf(buf, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(buf, "%02d", t.Second())
		case 'f':
			fmt.Fprintf(buf, "%06d", t.Nanosecond()/1000)
		case 'j':
			fmt.Fprintf(buf, "%03d", t.YearDay())
		case 's':
			fmt.Fprintf(buf, "%d", t.Unix())
		case 'a':
			buf.WriteString(t.Format("Mon"))
		case 'A':
			buf.WriteString(t.Format("Monday"))
		case 'b':
			buf.WriteString(t.Format("Jan"))
		case 'B':
			buf.WriteString(t.Format("January"))
		case 'w':
			fmt.Fprintf(buf, "%d", int(t.Weekday()))
		case '%':
			buf.WriteByte('%')
		default:
			buf.WriteByte('%')
			buf.WriteByte(format[i])
		}
	}
	return buf.String()
}

func stringUUID(ev *Evaluator, n *commandNode, o Origin, a []string) error {
	usage := "Usage: string(UUID <out-var> NAMESPACE <uuid> NAME <name> TYPE <MD5|SHA1> [UPPER])"
	if len(a) < 8 {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(UUID) requires NAMESPACE, NAME and TYPE", usage)
		return ev.stopErr()
	}
	outVar := a[1]
	var ns, name, typ string
	var hasNS, hasName, hasType, upper bool
	for i := 2; i < len(a); i++ {
		if equalsFold(a[i], "UPPER") {
			upper = true
			continue
		}
		if i+1 >= len(a) {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(UUID) option is missing value", a[i])
			return ev.stopErr()
		}
		switch {
		case equalsFold(a[i], "NAMESPACE"):
			i++
			ns = a[i]
			hasNS = true
		case equalsFold(a[i], "NAME"):
			i++
			name = a[i]
			hasName = true
		case equalsFold(a[i], "TYPE"):
			i++
			typ = a[i]
			hasType = true
		default:
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(UUID) received unsupported option", a[i])
			return ev.stopErr()
		}
	}
	if !hasNS || !hasName || !hasType {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(UUID) requires NAMESPACE, NAME and TYPE", usage)
		return ev.stopErr()
	}

	space, err := uuid.Parse(ns)
	if err != nil {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(UUID) malformed NAMESPACE UUID", ns)
		return ev.stopErr()
	}

	var id uuid.UUID
	switch {
	case equalsFold(typ, "MD5"):
		id = uuid.NewMD5(space, []byte(name))
	case equalsFold(typ, "SHA1"):
		id = uuid.NewSHA1(space, []byte(name))
	default:
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(UUID) unsupported TYPE", typ)
		return ev.stopErr()
	}

	out := id.String()
	if upper {
		out = strings.ToUpper(out)
	}
	ev.varSet(outVar, out)
	return ev.stopErr()
}

func isHashAlgorithm(s string) bool {
	for _, algo := range []string{
		"MD5", "SHA1", "SHA224", "SHA256", "SHA384", "SHA512",
		"SHA3_224", "SHA3_256", "SHA3_384", "SHA3_512",
	} {
		if equalsFold(s, algo) {
			return true
		}
	}
	return false
}

// hashHex produces the lowercase hex digest for the named algorithm.
func hashHex(algo string, data []byte) string {
	switch foldName(algo) {
	case "MD5":
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:])
	case "SHA1":
		sum := sha1.Sum(data)
		return hex.EncodeToString(sum[:])
	case "SHA224":
		sum := sha256.Sum224(data)
		return hex.EncodeToString(sum[:])
	case "SHA256":
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	case "SHA384":
		sum := sha512.Sum384(data)
		return hex.EncodeToString(sum[:])
	case "SHA512":
		sum := sha512.Sum512(data)
		return hex.EncodeToString(sum[:])
	case "SHA3_224":
		sum := sha3.Sum224(data)
		return hex.EncodeToString(sum[:])
	case "SHA3_256":
		sum := sha3.Sum256(data)
		return hex.EncodeToString(sum[:])
	case "SHA3_384":
		sum := sha3.Sum384(data)
		return hex.EncodeToString(sum[:])
	case "SHA3_512":
		sum := sha3.Sum512(data)
		return hex.EncodeToString(sum[:])
	}
	return ""
}

// regexReplacement rewrites CMake \N backreference syntax into the
// $N form Go's regexp expects, escaping any literal dollars.
func regexReplacement(repl string) string {
	buf := newBuf()
	defer buf.release()
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c == '$' {
			buf.WriteString("$$")
			continue
		}
		if c == '\\' && i+1 < len(repl) {
			i++
			nc := repl[i]
			if isDigit(nc) {
				buf.WriteString("${")
				buf.WriteByte(nc)
				buf.WriteString("}")
				continue
			}
			buf.WriteByte(nc)
			continue
		}
		buf.WriteByte(c)
	}
	return buf.String()
}

func stringRegex(ev *Evaluator, n *commandNode, o Origin, a []string) error {
	if len(a) < 5 {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(REGEX) requires mode and arguments",
			"Usage: string(REGEX MATCH|REPLACE|MATCHALL ...)")
		return ev.stopErr()
	}

	switch {
	case equalsFold(a[1], "MATCH"):
		input := joinList(a[4:])
		re, err := regexp.CompilePOSIX(a[2])
		if err != nil {
			ev.emitDiag(DiagError, "string", n.name, o, "Invalid regex pattern", a[2])
			return ev.stopErr()
		}
		ev.varSet(a[3], re.FindString(input))
		// CMAKE_MATCH_<n> mirrors the last match groups.
		m := re.FindStringSubmatch(input)
		for i := 0; i < 10; i++ {
			v := ""
			if i < len(m) {
				v = m[i]
			}
			ev.varSet("CMAKE_MATCH_"+strconv.Itoa(i), v)
		}

	case equalsFold(a[1], "REPLACE"):
		if len(a) < 6 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(REGEX REPLACE) requires regex, replace, out-var and input",
				"Usage: string(REGEX REPLACE <regex> <replace> <out-var> <input>...)")
			return ev.stopErr()
		}
		input := joinList(a[5:])
		re, err := regexp.CompilePOSIX(a[2])
		if err != nil {
			ev.emitDiag(DiagError, "string", n.name, o, "Invalid regex pattern", a[2])
			return ev.stopErr()
		}
		ev.varSet(a[4], re.ReplaceAllString(input, regexReplacement(a[3])))

	case equalsFold(a[1], "MATCHALL"):
		input := strings.Join(a[4:], "")
		re, err := regexp.CompilePOSIX(a[2])
		if err != nil {
			ev.emitDiag(DiagError, "string", n.name, o, "Invalid regex pattern", a[2])
			return ev.stopErr()
		}
		ev.varSet(a[3], joinList(re.FindAllString(input, -1)))

	default:
		ev.emitDiag(DiagError, "string", n.name, o,
			"Unsupported string(REGEX) mode", "Implemented: MATCH, REPLACE, MATCHALL")
	}
	return ev.stopErr()
}
