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

import "testing"

func TestCMakePathComponents(t *testing.T) {
	for _, tc := range []struct {
		path, component, want string
	}{
		{"/home/user/file.tar.gz", "FILENAME", "file.tar.gz"},
		{"/home/user/file.tar.gz", "STEM", "file"},
		{"/home/user/file.tar.gz", "EXTENSION", ".tar.gz"},
		{"/home/user/file.tar.gz", "PARENT_PATH", "/home/user"},
		{"/home/user/file.tar.gz", "ROOT_DIRECTORY", "/"},
		{"/home/user/file.tar.gz", "ROOT_NAME", ""},
		{"/home/user/file.tar.gz", "RELATIVE_PART", "home/user/file.tar.gz"},
		{"C:/dir/app.exe", "ROOT_NAME", "C:"},
		{"C:/dir/app.exe", "ROOT_PATH", "C:/"},
		{"relative/only", "ROOT_PATH", ""},
	} {
		script := `set(P "` + tc.path + `")
cmake_path(GET P ` + tc.component + ` OUT)`
		checkVar(t, script, "OUT", tc.want)
	}
}

func TestCMakePathSetAndNormalize(t *testing.T) {
	checkVar(t, `cmake_path(SET P NORMALIZE "/a//b/../c")`, "P", "/a/c")
	checkVar(t, `cmake_path(SET P "x/y")`, "P", "x/y")
}

func TestCMakePathAppend(t *testing.T) {
	checkVar(t, `set(P "/base")
cmake_path(APPEND P sub file.txt)`, "P", "/base/sub/file.txt")
	checkVar(t, `set(P "/base")
cmake_path(APPEND P sub OUTPUT_VARIABLE OUT)`, "OUT", "/base/sub")
	checkVar(t, `cmake_path(APPEND_STRING P ".ext" OUTPUT_VARIABLE OUT)`, "OUT", "P.ext")
}

func TestCMakePathFilenameOps(t *testing.T) {
	checkVar(t, `set(P "/d/file.txt")
cmake_path(REMOVE_FILENAME P)`, "P", "/d/")
	checkVar(t, `set(P "/d/file.txt")
cmake_path(REPLACE_FILENAME P other.c)`, "P", "/d/other.c")
	checkVar(t, `set(P "/d/a.tar.gz")
cmake_path(REMOVE_EXTENSION P)`, "P", "/d/a")
	checkVar(t, `set(P "/d/a.tar.gz")
cmake_path(REMOVE_EXTENSION P LAST_ONLY)`, "P", "/d/a.tar")
	checkVar(t, `set(P "/d/a.txt")
cmake_path(REPLACE_EXTENSION P md)`, "P", "/d/a.md")
}

func TestCMakePathNormalPathIdempotent(t *testing.T) {
	ev := runScript(t, `
set(P "/a/./b/../c//d")
cmake_path(NORMAL_PATH P)
set(ONCE ${P})
cmake_path(NORMAL_PATH P)
`)
	if ev.varGet("ONCE") != ev.varGet("P") {
		t.Errorf("NORMAL_PATH not idempotent: %q vs %q", ev.varGet("ONCE"), ev.varGet("P"))
	}
	if ev.varGet("P") != "/a/c/d" {
		t.Errorf("NORMAL_PATH = %q, want /a/c/d", ev.varGet("P"))
	}
}

func TestCMakePathRelative(t *testing.T) {
	checkVar(t, `set(P "/a/b/c/d")
cmake_path(RELATIVE_PATH P BASE_DIRECTORY "/a/b")`, "P", "c/d")
	checkVar(t, `set(P "/a/b")
cmake_path(RELATIVE_PATH P BASE_DIRECTORY "/a/b/c")`, "P", "..")
	checkVar(t, `set(P "/x")
cmake_path(RELATIVE_PATH P BASE_DIRECTORY "/x")`, "P", ".")
}

func TestCMakePathCompareAndPredicates(t *testing.T) {
	checkVar(t, `cmake_path(COMPARE "/a//b" EQUAL "/a/b" OUT)`, "OUT", "ON")
	checkVar(t, `cmake_path(COMPARE "/a/b" NOT_EQUAL "/a/c" OUT)`, "OUT", "ON")
	checkVar(t, `set(P "/abs")
cmake_path(IS_ABSOLUTE P OUT)`, "OUT", "ON")
	checkVar(t, `set(P "rel")
cmake_path(IS_RELATIVE P OUT)`, "OUT", "ON")
	checkVar(t, `set(P "/a/b.c")
cmake_path(HAS_EXTENSION P OUT)`, "OUT", "ON")
	checkVar(t, `set(P "/a/b")
cmake_path(HAS_ROOT_DIRECTORY P OUT)`, "OUT", "ON")
	checkVar(t, `set(P "rel/b")
cmake_path(HAS_ROOT_NAME P OUT)`, "OUT", "OFF")
}
