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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMathExpr(t *testing.T) {
	for _, tc := range []struct {
		expr string
		want string
	}{
		{"1 + 2", "3"},
		{"2 * 3 + 4", "10"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"7 / 2", "3"},
		{"7 % 3", "1"},
		{"-5 + 2", "-3"},
		{"~0", "-1"},
		{"1 << 4", "16"},
		{"256 >> 4", "16"},
		{"12 & 10", "8"},
		{"12 | 10", "14"},
		{"12 ^ 10", "6"},
		{"1 | 2 ^ 3 & 4", "3"},
		{"0xff", "255"},
		{"0x10 + 1", "17"},
	} {
		script := fmt.Sprintf(`math(EXPR OUT "%s")`, tc.expr)
		checkVar(t, script, "OUT", tc.want)
	}
}

func TestMathHexOutput(t *testing.T) {
	checkVar(t, `math(EXPR OUT "255" OUTPUT_FORMAT HEXADECIMAL)`, "OUT", "0xff")
	checkVar(t, `math(EXPR OUT "255" OUTPUT_FORMAT DECIMAL)`, "OUT", "255")
}

func TestMathErrors(t *testing.T) {
	for _, tc := range []struct {
		script string
		cause  string
	}{
		{`math(EXPR OUT "1 / 0")`, "Division by zero"},
		{`math(EXPR OUT "1 % 0")`, "Division by zero"},
		{`math(EXPR OUT "9223372036854775807 + 1")`, "Integer overflow in addition"},
		{`math(EXPR OUT "-9223372036854775807 - 2")`, "Integer overflow in subtraction"},
		{`math(EXPR OUT "9223372036854775807 * 2")`, "Integer overflow in multiplication"},
		{`math(EXPR OUT "1 << 64")`, "Shift count is out of range for 64-bit integer"},
		{`math(EXPR OUT "1 << -1")`, "Negative shift count"},
		{`math(EXPR OUT "1 +")`, "Unexpected end of expression"},
		{`math(EXPR OUT "(1")`, "Missing ')' in expression"},
		{`math(EXPR OUT "1 2")`, "Unexpected trailing tokens in expression"},
		{`math(SOLVE OUT "1")`, "Unsupported math() subcommand"},
	} {
		ev := testEvaluator(t, nil)
		ev.RunSource(tc.script, "test.cmake")
		assert.Contains(t, diagCauses(ev), tc.cause, "script: %s", tc.script)
		assert.False(t, ev.varDefined("OUT"), "no result on error: %s", tc.script)
	}
}
