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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkVar runs a script and asserts on a single variable, the common
// shape of the string()/list() sublanguage tests.
func checkVar(t *testing.T, script, name, want string) {
	t.Helper()
	ev := runScript(t, script)
	assert.Equal(t, want, ev.varGet(name), "script: %s", script)
}

func TestStringBasics(t *testing.T) {
	checkVar(t, `set(S abc)
string(APPEND S def)`, "S", "abcdef")
	checkVar(t, `set(S abc)
string(PREPEND S xy)`, "S", "xyabc")
	checkVar(t, `string(CONCAT OUT a b c)`, "OUT", "abc")
	checkVar(t, `string(JOIN "-" OUT a b c)`, "OUT", "a-b-c")
	checkVar(t, `string(LENGTH "hello" OUT)`, "OUT", "5")
	checkVar(t, `string(STRIP "  padded  " OUT)`, "OUT", "padded")
	checkVar(t, `string(FIND "hello world" "world" OUT)`, "OUT", "6")
	checkVar(t, `string(FIND "aXbXc" "X" OUT REVERSE)`, "OUT", "3")
	checkVar(t, `string(FIND "abc" "zzz" OUT)`, "OUT", "-1")
	checkVar(t, `string(COMPARE LESS "a" "b" OUT)`, "OUT", "1")
	checkVar(t, `string(COMPARE NOTEQUAL "a" "a" OUT)`, "OUT", "0")
	checkVar(t, `string(ASCII 104 105 OUT)`, "OUT", "hi")
	checkVar(t, `string(HEX "AB" OUT)`, "OUT", "4142")
	checkVar(t, `string(TOUPPER "mixedCase" OUT)`, "OUT", "MIXEDCASE")
	checkVar(t, `string(TOLOWER "MixedCase" OUT)`, "OUT", "mixedcase")
	checkVar(t, `string(REPEAT "ab" 3 OUT)`, "OUT", "ababab")
	checkVar(t, `string(SUBSTRING "abcdef" 2 3 OUT)`, "OUT", "cde")
	checkVar(t, `string(SUBSTRING "abcdef" 2 -1 OUT)`, "OUT", "cdef")
	checkVar(t, `string(REPLACE "o" "0" OUT "foo boo")`, "OUT", "f00 b00")
	checkVar(t, `string(MAKE_C_IDENTIFIER "2fast-cars" OUT)`, "OUT", "_2fast_cars")
}

func TestStringConfigure(t *testing.T) {
	checkVar(t, `set(NAME world)
string(CONFIGURE "hello @NAME@" OUT)`, "OUT", "hello world")
	checkVar(t, `set(NAME world)
string(CONFIGURE "a=@NAME@ b=@NAME@" OUT @ONLY)`, "OUT", "a=world b=world")
	checkVar(t, `string(CONFIGURE "no @MISSING@ here" OUT)`, "OUT", "no  here")
	checkVar(t, `set(Q "say \"hi\"")
string(CONFIGURE "@Q@" OUT ESCAPE_QUOTES)`, "OUT", `say \"hi\"`)
}

func TestStringGenexStrip(t *testing.T) {
	checkVar(t, `string(GENEX_STRIP "a$<$<CONFIG:Debug>:X>b" OUT)`, "OUT", "ab")
	checkVar(t, `string(GENEX_STRIP "plain" OUT)`, "OUT", "plain")
}

func TestStringRegex(t *testing.T) {
	checkVar(t, `string(REGEX MATCH "[0-9]+" OUT "abc123def456")`, "OUT", "123")
	checkVar(t, `string(REGEX MATCHALL "[0-9]+" OUT "abc123def456")`, "OUT", "123;456")
	checkVar(t, `string(REGEX REPLACE "[0-9]+" "N" OUT "a1b22c")`, "OUT", "aNbNc")
	checkVar(t, `string(REGEX REPLACE "([a-z]+)([0-9]+)" "\\2\\1" OUT "abc123")`, "OUT", "123abc")
}

func TestStringHashes(t *testing.T) {
	// Digests of the empty string are well-known constants.
	checkVar(t, `string(MD5 OUT "")`, "OUT", "d41d8cd98f00b204e9800998ecf8427e")
	checkVar(t, `string(SHA1 OUT "")`, "OUT", "da39a3ee5e6b4b0d3255bfef95601890afd80709")
	checkVar(t, `string(SHA256 OUT "")`, "OUT",
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	checkVar(t, `string(MD5 OUT "hello")`, "OUT", "5d41402abc4b2a76b9719d911017c592")
}

func TestStringUUIDDeterministic(t *testing.T) {
	// RFC 4122 name-based UUID of "www.example.com" in the DNS
	// namespace.
	checkVar(t, `string(UUID OUT NAMESPACE 6ba7b810-9dad-11d1-80b4-00c04fd430c8 NAME www.example.com TYPE MD5)`,
		"OUT", "5df41881-3aed-3515-88a7-2f4a814cf09e")
	checkVar(t, `string(UUID OUT NAMESPACE 6ba7b810-9dad-11d1-80b4-00c04fd430c8 NAME www.example.com TYPE SHA1)`,
		"OUT", "2ed6657d-e927-568b-95e1-2665a8aea6a2")
}

func TestStringUUIDBadNamespace(t *testing.T) {
	ev := testEvaluator(t, nil)
	ev.RunSource(`string(UUID OUT NAMESPACE not-a-uuid NAME x TYPE MD5)`, "test.cmake")
	assert.False(t, ev.varDefined("OUT"))
	var found bool
	for _, d := range ev.Stream().Diagnostics() {
		if d.Cause == "string(UUID) malformed NAMESPACE UUID" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStringRandomSeeded(t *testing.T) {
	ev1 := runScript(t, `string(RANDOM LENGTH 16 RANDOM_SEED 7 OUT)`)
	ev2 := runScript(t, `string(RANDOM LENGTH 16 RANDOM_SEED 7 OUT)`)
	require.Len(t, ev1.varGet("OUT"), 16)
	assert.Equal(t, ev1.varGet("OUT"), ev2.varGet("OUT"),
		"seeded RANDOM must be reproducible")
}

func TestStringRandomAlphabet(t *testing.T) {
	ev := runScript(t, `string(RANDOM LENGTH 32 ALPHABET ab RANDOM_SEED 3 OUT)`)
	out := ev.varGet("OUT")
	require.Len(t, out, 32)
	for i := 0; i < len(out); i++ {
		assert.Contains(t, "ab", string(out[i]))
	}
}

func TestStringTimestampSourceDateEpoch(t *testing.T) {
	ev := testEvaluator(t, map[string]string{"SOURCE_DATE_EPOCH": "0"})
	require.NoError(t, ev.RunSource(`string(TIMESTAMP OUT "%Y-%m-%d %H:%M:%S" UTC)`, "test.cmake"))
	assert.Equal(t, "1970-01-01 00:00:00", ev.varGet("OUT"))
}

func TestStringJSON(t *testing.T) {
	const doc = `{"name":"demo","nums":[1,2,3],"nested":{"on":true}}`
	checkVar(t, `string(JSON OUT GET `+quoteArg(doc)+` name)`, "OUT", "demo")
	checkVar(t, `string(JSON OUT GET `+quoteArg(doc)+` nums 1)`, "OUT", "2")
	checkVar(t, `string(JSON OUT GET `+quoteArg(doc)+` nested on)`, "OUT", "ON")
	checkVar(t, `string(JSON OUT TYPE `+quoteArg(doc)+` nums)`, "OUT", "ARRAY")
	checkVar(t, `string(JSON OUT LENGTH `+quoteArg(doc)+` nums)`, "OUT", "3")
	checkVar(t, `string(JSON OUT LENGTH `+quoteArg(doc)+`)`, "OUT", "3")
	checkVar(t, `string(JSON OUT MEMBER `+quoteArg(doc)+` 0)`, "OUT", "name")
	checkVar(t, `string(JSON OUT EQUAL `+quoteArg(`{"a":1}`)+` `+quoteArg(`{ "a" : 1 }`)+`)`, "OUT", "ON")
	checkVar(t, `string(JSON OUT EQUAL `+quoteArg(`{"a":1}`)+` `+quoteArg(`{"a":2}`)+`)`, "OUT", "OFF")
}

func TestStringJSONErrorVariable(t *testing.T) {
	ev := runScript(t, `string(JSON OUT ERROR_VARIABLE ERR GET "{\"a\":1}" missing)`)
	assert.Contains(t, ev.varGet("OUT"), "NOTFOUND")
	assert.NotEqual(t, "NOTFOUND", ev.varGet("ERR"))

	ev = runScript(t, `string(JSON OUT ERROR_VARIABLE ERR GET "{\"a\":7}" a)`)
	assert.Equal(t, "7", ev.varGet("OUT"))
	assert.Equal(t, "NOTFOUND", ev.varGet("ERR"))
}

// quoteArg wraps a raw value in quotes, escaping embedded quotes the
// way a script author would.
func quoteArg(s string) string {
	out := `"`
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out += `\"`
			continue
		}
		out += string(s[i])
	}
	return out + `"`
}
