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
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// jsonPathKeys maps CMake path tokens to jsonparser keys: bare digit
// runs address array elements.
func jsonPathKeys(path []string) []string {
	keys := make([]string, len(path))
	for i, p := range path {
		if allDigits(p) {
			keys[i] = "[" + p + "]"
		} else {
			keys[i] = p
		}
	}
	return keys
}

func jsonTypeName(t jsonparser.ValueType) string {
	switch t {
	case jsonparser.Null:
		return "NULL"
	case jsonparser.Boolean:
		return "BOOLEAN"
	case jsonparser.Number:
		return "NUMBER"
	case jsonparser.String:
		return "STRING"
	case jsonparser.Array:
		return "ARRAY"
	case jsonparser.Object:
		return "OBJECT"
	}
	return "NOTFOUND"
}

// stringJSON implements string(JSON <out> [ERROR_VARIABLE <err>]
// <GET|TYPE|MEMBER|LENGTH|REMOVE|SET|EQUAL> <json> ...). With an
// ERROR_VARIABLE, failures store the message there and a -NOTFOUND
// sentinel in the output variable instead of diagnosing.
func stringJSON(ev *Evaluator, n *commandNode, o Origin, a []string) error {
	usage := "Usage: string(JSON <out-var> [ERROR_VARIABLE <err-var>] <GET|TYPE|MEMBER|LENGTH|REMOVE|SET|EQUAL> <json-string> ...)"
	if len(a) < 4 {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(JSON) requires output variable, operation and input", usage)
		return ev.stopErr()
	}

	outVar := a[1]
	errVar := ""
	rest := a[2:]
	if equalsFold(rest[0], "ERROR_VARIABLE") {
		if len(rest) < 3 {
			ev.emitDiag(DiagError, "string", n.name, o,
				"string(JSON ERROR_VARIABLE) is missing arguments", usage)
			return ev.stopErr()
		}
		errVar = rest[1]
		rest = rest[2:]
	}
	if len(rest) < 2 {
		ev.emitDiag(DiagError, "string", n.name, o,
			"string(JSON) requires operation and input", usage)
		return ev.stopErr()
	}

	op := rest[0]
	fail := func(msg string, path []string) error {
		if errVar != "" {
			ev.varSet(errVar, msg)
			sentinel := strings.Join(path, "-")
			if sentinel != "" {
				sentinel += "-"
			}
			ev.varSet(outVar, sentinel+"NOTFOUND")
			return ev.stopErr()
		}
		ev.emitDiag(DiagError, "string", n.name, o, msg, "")
		return ev.stopErr()
	}
	succeed := func(value string) error {
		ev.varSet(outVar, value)
		if errVar != "" {
			ev.varSet(errVar, "NOTFOUND")
		}
		return ev.stopErr()
	}

	data := []byte(rest[1])

	switch {
	case equalsFold(op, "GET"):
		path := rest[2:]
		value, vt, _, err := jsonparser.Get(data, jsonPathKeys(path)...)
		if err != nil {
			return fail("string(JSON) member was not found: "+err.Error(), path)
		}
		switch vt {
		case jsonparser.String:
			s, err := jsonparser.ParseString(value)
			if err != nil {
				return fail("string(JSON) failed to decode string value", path)
			}
			return succeed(s)
		case jsonparser.Boolean:
			if string(value) == "true" {
				return succeed("ON")
			}
			return succeed("OFF")
		case jsonparser.Null:
			return succeed("")
		default:
			return succeed(string(value))
		}

	case equalsFold(op, "TYPE"):
		path := rest[2:]
		_, vt, _, err := jsonparser.Get(data, jsonPathKeys(path)...)
		if err != nil {
			return fail("string(JSON) member was not found: "+err.Error(), path)
		}
		return succeed(jsonTypeName(vt))

	case equalsFold(op, "MEMBER"):
		if len(rest) < 3 {
			return fail("string(JSON MEMBER) requires an index", nil)
		}
		path := rest[2 : len(rest)-1]
		idx, ok := parseInt(rest[len(rest)-1])
		if !ok || idx < 0 {
			return fail("string(JSON MEMBER) index must be a non-negative integer", path)
		}
		obj := data
		if len(path) > 0 {
			value, vt, _, err := jsonparser.Get(data, jsonPathKeys(path)...)
			if err != nil || vt != jsonparser.Object {
				return fail("string(JSON MEMBER) path does not name an object", path)
			}
			obj = value
		}
		name := ""
		i := int64(0)
		jsonparser.ObjectEach(obj, func(key, _ []byte, _ jsonparser.ValueType, _ int) error {
			if i == idx {
				name = string(key)
			}
			i++
			return nil
		})
		if name == "" && i <= idx {
			return fail("string(JSON MEMBER) index out of range", path)
		}
		return succeed(name)

	case equalsFold(op, "LENGTH"):
		path := rest[2:]
		value, vt := data, jsonparser.Unknown
		if len(path) > 0 {
			var err error
			value, vt, _, err = jsonparser.Get(data, jsonPathKeys(path)...)
			if err != nil {
				return fail("string(JSON) member was not found: "+err.Error(), path)
			}
		} else {
			_, t, _, err := jsonparser.Get(data)
			if err != nil {
				return fail("string(JSON) failed to parse input", path)
			}
			vt = t
		}
		count := 0
		switch vt {
		case jsonparser.Object:
			jsonparser.ObjectEach(value, func(_, _ []byte, _ jsonparser.ValueType, _ int) error {
				count++
				return nil
			})
		case jsonparser.Array:
			jsonparser.ArrayEach(value, func(_ []byte, _ jsonparser.ValueType, _ int, _ error) {
				count++
			})
		default:
			return fail("string(JSON LENGTH) requires an object or array", path)
		}
		return succeed(strconv.Itoa(count))

	case equalsFold(op, "REMOVE"):
		path := rest[2:]
		if len(path) == 0 {
			return fail("string(JSON REMOVE) requires a member path", nil)
		}
		keys := jsonPathKeys(path)
		if _, _, _, err := jsonparser.Get(data, keys...); err != nil {
			return fail("string(JSON) member was not found: "+err.Error(), path)
		}
		out := jsonparser.Delete(append([]byte(nil), data...), keys...)
		return succeed(string(out))

	case equalsFold(op, "SET"):
		if len(rest) < 4 {
			return fail("string(JSON SET) requires a member path and a value", nil)
		}
		path := rest[2 : len(rest)-1]
		value := rest[len(rest)-1]
		out, err := jsonparser.Set(append([]byte(nil), data...), []byte(value), jsonPathKeys(path)...)
		if err != nil {
			return fail("string(JSON SET) failed: "+err.Error(), path)
		}
		return succeed(string(out))

	case equalsFold(op, "EQUAL"):
		if len(rest) < 3 {
			return fail("string(JSON EQUAL) requires two JSON inputs", nil)
		}
		eq, err := jsonEqual(data, []byte(rest[2]))
		if err != nil {
			return fail("string(JSON EQUAL) failed to parse input: "+err.Error(), nil)
		}
		if eq {
			return succeed("ON")
		}
		return succeed("OFF")
	}

	return fail("string(JSON) unsupported operation: "+op, nil)
}

// jsonEqual compares two JSON documents structurally: object member
// order is irrelevant, numbers compare by value.
func jsonEqual(a, b []byte) (bool, error) {
	av, at, _, errA := jsonparser.Get(a)
	bv, bt, _, errB := jsonparser.Get(b)
	if errA != nil {
		return false, errA
	}
	if errB != nil {
		return false, errB
	}
	if at != bt {
		return false, nil
	}

	switch at {
	case jsonparser.Object:
		countA := 0
		equal := true
		err := jsonparser.ObjectEach(av, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
			countA++
			other, ot, _, err := jsonparser.Get(bv, string(key))
			if err != nil || ot != vt {
				equal = false
				return nil
			}
			eq, err := jsonEqual(wrapJSONValue(value, vt), wrapJSONValue(other, ot))
			if err != nil || !eq {
				equal = false
			}
			return nil
		})
		if err != nil {
			return false, err
		}
		countB := 0
		jsonparser.ObjectEach(bv, func(_, _ []byte, _ jsonparser.ValueType, _ int) error {
			countB++
			return nil
		})
		return equal && countA == countB, nil

	case jsonparser.Array:
		var itemsA, itemsB [][]byte
		jsonparser.ArrayEach(av, func(value []byte, vt jsonparser.ValueType, _ int, _ error) {
			itemsA = append(itemsA, wrapJSONValue(value, vt))
		})
		jsonparser.ArrayEach(bv, func(value []byte, vt jsonparser.ValueType, _ int, _ error) {
			itemsB = append(itemsB, wrapJSONValue(value, vt))
		})
		if len(itemsA) != len(itemsB) {
			return false, nil
		}
		for i := range itemsA {
			eq, err := jsonEqual(itemsA[i], itemsB[i])
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil

	case jsonparser.Number:
		na, errA := strconv.ParseFloat(string(av), 64)
		nb, errB := strconv.ParseFloat(string(bv), 64)
		if errA != nil || errB != nil {
			return string(av) == string(bv), nil
		}
		return na == nb, nil

	default:
		return string(av) == string(bv), nil
	}
}

// wrapJSONValue restores the framing jsonparser strips so a value can
// be re-parsed as a standalone document.
func wrapJSONValue(value []byte, vt jsonparser.ValueType) []byte {
	if vt == jsonparser.String {
		out := make([]byte, 0, len(value)+2)
		out = append(out, '"')
		out = append(out, value...)
		out = append(out, '"')
		return out
	}
	return value
}
