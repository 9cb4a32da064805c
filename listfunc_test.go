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
)

func TestListMutations(t *testing.T) {
	checkVar(t, `set(L "a;b")
list(APPEND L c d)`, "L", "a;b;c;d")
	checkVar(t, `set(L "a;b")
list(PREPEND L x)`, "L", "x;a;b")
	checkVar(t, `set(L "a;b;c")
list(INSERT L 1 q)`, "L", "a;q;b;c")
	checkVar(t, `set(L "a;b;a;c")
list(REMOVE_ITEM L a)`, "L", "b;c")
	checkVar(t, `set(L "a;b;c;d")
list(REMOVE_AT L 0 2)`, "L", "b;d")
	checkVar(t, `set(L "a;b;a;c;b")
list(REMOVE_DUPLICATES L)`, "L", "a;b;c")
	checkVar(t, `set(L "a;b;c")
list(REVERSE L)`, "L", "c;b;a")
}

func TestListQueries(t *testing.T) {
	checkVar(t, `set(L "a;b;c")
list(LENGTH L OUT)`, "OUT", "3")
	checkVar(t, `set(L "")
list(LENGTH L OUT)`, "OUT", "0")
	checkVar(t, `set(L "a;b;c")
list(GET L 1 OUT)`, "OUT", "b")
	checkVar(t, `set(L "a;b;c")
list(GET L -1 OUT)`, "OUT", "c")
	checkVar(t, `set(L "a;b;c")
list(GET L 0 2 OUT)`, "OUT", "a;c")
	checkVar(t, `set(L "a;b;c")
list(FIND L b OUT)`, "OUT", "1")
	checkVar(t, `set(L "a;b;c")
list(FIND L z OUT)`, "OUT", "-1")
	checkVar(t, `set(L "a;b;c")
list(JOIN L ", " OUT)`, "OUT", "a, b, c")
	checkVar(t, `set(L "a;b;c;d;e")
list(SUBLIST L 1 2 OUT)`, "OUT", "b;c")
	checkVar(t, `set(L "a;b;c;d;e")
list(SUBLIST L 3 -1 OUT)`, "OUT", "d;e")
}

func TestListPop(t *testing.T) {
	ev := runScript(t, `
set(L "a;b;c")
list(POP_FRONT L F)
list(POP_BACK L B)
`)
	assert.Equal(t, "a", ev.varGet("F"))
	assert.Equal(t, "c", ev.varGet("B"))
	assert.Equal(t, "b", ev.varGet("L"))
}

func TestListFilter(t *testing.T) {
	checkVar(t, `set(L "apple;banana;avocado")
list(FILTER L INCLUDE REGEX "^a")`, "L", "apple;avocado")
	checkVar(t, `set(L "apple;banana;avocado")
list(FILTER L EXCLUDE REGEX "^a")`, "L", "banana")
}

func TestListTransform(t *testing.T) {
	checkVar(t, `set(L "a;b")
list(TRANSFORM L APPEND ".c")`, "L", "a.c;b.c")
	checkVar(t, `set(L "a;b")
list(TRANSFORM L PREPEND "src/")`, "L", "src/a;src/b")
	checkVar(t, `set(L "AA;bB")
list(TRANSFORM L TOLOWER)`, "L", "aa;bb")
	checkVar(t, `set(L " x ; y ")
list(TRANSFORM L STRIP)`, "L", "x;y")
	checkVar(t, `set(L "a1;b2")
list(TRANSFORM L REPLACE "[0-9]" "N")`, "L", "aN;bN")
	checkVar(t, `set(L "a;b")
list(TRANSFORM L TOUPPER OUTPUT_VARIABLE OUT)`, "OUT", "A;B")
}

func TestListSort(t *testing.T) {
	checkVar(t, `set(L "b;A;c;B")
list(SORT L)`, "L", "A;B;b;c")
	checkVar(t, `set(L "b;A;c;B")
list(SORT L CASE INSENSITIVE)`, "L", "A;b;B;c")
	checkVar(t, `set(L "a;c;b")
list(SORT L ORDER DESCENDING)`, "L", "c;b;a")
	checkVar(t, `set(L "item10;item9;item2")
list(SORT L COMPARE NATURAL)`, "L", "item2;item9;item10")
	checkVar(t, `set(L "z/a.txt;x/c.txt;y/b.txt")
list(SORT L COMPARE FILE_BASENAME)`, "L", "z/a.txt;y/b.txt;x/c.txt")
}

func TestListIndexOutOfRange(t *testing.T) {
	ev := testEvaluator(t, nil)
	ev.RunSource(`
set(L "a;b")
list(GET L 5 OUT)
`, "test.cmake")
	assert.False(t, ev.varDefined("OUT"))
	assert.Contains(t, diagCauses(ev), "list(GET) index out of range")
}

func TestListSortStability(t *testing.T) {
	// Case-insensitive ties keep their input order.
	checkVar(t, `set(L "Bb;bA;ba;BB")
list(SORT L CASE INSENSITIVE COMPARE STRING)`, "L", "bA;ba;Bb;BB")
}
