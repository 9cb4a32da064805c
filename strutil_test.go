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

func TestSplitList(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want []string
	}{
		{
			in:   "a;b;c",
			want: []string{"a", "b", "c"},
		},
		{
			in:   "a;;b",
			want: []string{"a", "b"},
		},
		{
			in:   "$<$<CONFIG:Debug>:A;B>",
			want: []string{"$<$<CONFIG:Debug>:A;B>"},
		},
		{
			in:   "x;$<JOIN:a;b;c>;y",
			want: []string{"x", "$<JOIN:a;b;c>", "y"},
		},
		{
			in:   "",
			want: nil,
		},
	} {
		got := splitList(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitList(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitListAllKeepsEmpty(t *testing.T) {
	got := splitListAll("a;;b")
	want := []string{"a", "", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitListAll(%q)=%q, want %q", "a;;b", got, want)
	}
}

func TestEqualsFold(t *testing.T) {
	for _, tc := range []struct {
		a, b string
		want bool
	}{
		{"set", "SET", true},
		{"Set", "sEt", true},
		{"set", "sets", false},
		{"", "", true},
		{"a_b", "A_B", true},
	} {
		if got := equalsFold(tc.a, tc.b); got != tc.want {
			t.Errorf("equalsFold(%q, %q)=%v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"/a/b/../c", "/a/c"},
		{"/a//b/./c/", "/a/b/c"},
		{"a/../..", ".."},
		{"./", "."},
		{"", "."},
		{"C:\\x\\y\\..\\z", "C:/x/z"},
		{"/", "/"},
		{"a/b/c", "a/b/c"},
	} {
		if got := normalizePath(tc.in); got != tc.want {
			t.Errorf("normalizePath(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePathIdempotent(t *testing.T) {
	for _, in := range []string{"/a/b/../c", "x/./y", "C:/q/../r", "../../up"} {
		once := normalizePath(in)
		twice := normalizePath(once)
		if once != twice {
			t.Errorf("normalizePath not idempotent on %q: %q vs %q", in, once, twice)
		}
	}
}

func TestCompareVersions(t *testing.T) {
	for _, tc := range []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2", "1.2.0", 0},
		{"1.10", "1.9", 1},
		{"1.09", "1.9", 0},
		{"3.28.0", "3.5", 1},
		{"2.0", "10.0", -1},
		{"1.2.alpha", "1.2.beta", -1},
	} {
		if got := compareVersions(tc.a, tc.b); got != tc.want {
			t.Errorf("compareVersions(%q, %q)=%d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestHasDotDot(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want bool
	}{
		{"/a/../b", true},
		{"..", true},
		{"a/..b/c", false},
		{"a/b..", false},
		{"/clean/path", false},
	} {
		if got := hasDotDot(tc.in); got != tc.want {
			t.Errorf("hasDotDot(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDirOfBaseOf(t *testing.T) {
	if got := dirOf("/a/b/c.txt"); got != "/a/b" {
		t.Errorf("dirOf=%q", got)
	}
	if got := dirOf("file.txt"); got != "." {
		t.Errorf("dirOf=%q", got)
	}
	if got := baseOf("/a/b/c.txt"); got != "c.txt" {
		t.Errorf("baseOf=%q", got)
	}
}
