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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriteRead(t *testing.T) {
	ev := testEvaluator(t, nil)
	require.NoError(t, ev.RunSource(`
file(WRITE out/data.txt "payload")
file(READ out/data.txt CONTENT)
file(READ out/data.txt HEXED HEX)
file(READ out/data.txt PART OFFSET 3 LIMIT 2)
file(SIZE out/data.txt SIZE_OUT)
`, "test.cmake"))
	assert.Equal(t, "payload", ev.varGet("CONTENT"))
	assert.Equal(t, "7061796c6f6164", ev.varGet("HEXED"))
	assert.Equal(t, "lo", ev.varGet("PART"))
	assert.Equal(t, "7", ev.varGet("SIZE_OUT"))
}

func TestFileAppend(t *testing.T) {
	ev := testEvaluator(t, nil)
	require.NoError(t, ev.RunSource(`
file(WRITE log.txt "one")
file(APPEND log.txt "two")
file(READ log.txt OUT)
`, "test.cmake"))
	assert.Equal(t, "onetwo", ev.varGet("OUT"))
}

func TestFileStrings(t *testing.T) {
	ev := testEvaluator(t, nil)
	writeTestFile(t, ev.sourceDir+"/lines.txt", "alpha\nbb\ngamma-1\ngamma-2\n")
	require.NoError(t, ev.RunSource(`
file(STRINGS lines.txt ALL)
file(STRINGS lines.txt LONG LENGTH_MINIMUM 3)
file(STRINGS lines.txt MATCHED REGEX "^gamma")
file(STRINGS lines.txt LIMITED LIMIT_COUNT 2)
`, "test.cmake"))
	assert.Equal(t, "alpha;bb;gamma-1;gamma-2;", ev.varGet("ALL"))
	assert.Equal(t, "alpha;gamma-1;gamma-2", ev.varGet("LONG"))
	assert.Equal(t, "gamma-1;gamma-2", ev.varGet("MATCHED"))
	assert.Equal(t, "alpha;bb", ev.varGet("LIMITED"))
}

func TestFileMakeDirectoryAndTouch(t *testing.T) {
	ev := testEvaluator(t, nil)
	require.NoError(t, ev.RunSource(`
file(MAKE_DIRECTORY deep/nested/dir)
file(TOUCH deep/nested/dir/marker)
`, "test.cmake"))
	st, err := os.Stat(ev.sourceDir + "/deep/nested/dir/marker")
	require.NoError(t, err)
	assert.False(t, st.IsDir())
}

func TestFileGlob(t *testing.T) {
	ev := testEvaluator(t, nil)
	writeTestFile(t, ev.sourceDir+"/a.c", "")
	writeTestFile(t, ev.sourceDir+"/b.c", "")
	writeTestFile(t, ev.sourceDir+"/c.h", "")
	writeTestFile(t, ev.sourceDir+"/sub/d.c", "")
	require.NoError(t, ev.RunSource(`
file(GLOB TOP *.c)
file(GLOB_RECURSE ALL_C *.c)
file(GLOB REL RELATIVE `+ev.sourceDir+` *.c)
`, "test.cmake"))

	top := splitListAll(ev.varGet("TOP"))
	require.Len(t, top, 2)
	assert.True(t, strings.HasSuffix(top[0], "/a.c"))
	assert.True(t, strings.HasSuffix(top[1], "/b.c"))

	allC := splitListAll(ev.varGet("ALL_C"))
	assert.Len(t, allC, 3, "GLOB_RECURSE descends into sub/")

	assert.Equal(t, "a.c;b.c", ev.varGet("REL"))
}

func TestFileGlobSorted(t *testing.T) {
	ev := testEvaluator(t, nil)
	writeTestFile(t, ev.sourceDir+"/z.c", "")
	writeTestFile(t, ev.sourceDir+"/a.c", "")
	writeTestFile(t, ev.sourceDir+"/m.c", "")
	require.NoError(t, ev.RunSource(`file(GLOB OUT RELATIVE `+ev.sourceDir+` *.c)`, "test.cmake"))
	assert.Equal(t, "a.c;m.c;z.c", ev.varGet("OUT"), "glob results sort lexicographically")
}

func TestFileCopy(t *testing.T) {
	ev := testEvaluator(t, nil)
	writeTestFile(t, ev.sourceDir+"/src/one.c", "1")
	writeTestFile(t, ev.sourceDir+"/src/two.h", "2")
	writeTestFile(t, ev.sourceDir+"/src/skip.txt", "3")
	require.NoError(t, ev.RunSource(`
file(COPY src DESTINATION copied FILES_MATCHING PATTERN "*.c" PATTERN "*.h")
`, "test.cmake"))

	base := ev.binaryDir + "/copied/src"
	if _, err := os.Stat(base + "/one.c"); err != nil {
		t.Fatalf("one.c not copied: %v", err)
	}
	if _, err := os.Stat(base + "/two.h"); err != nil {
		t.Fatalf("two.h not copied: %v", err)
	}
	if _, err := os.Stat(base + "/skip.txt"); err == nil {
		t.Fatal("skip.txt should have been filtered out")
	}
}

func TestFileRemove(t *testing.T) {
	ev := testEvaluator(t, nil)
	writeTestFile(t, ev.sourceDir+"/trash/x.txt", "x")
	require.NoError(t, ev.RunSource(`
file(REMOVE trash/x.txt)
file(REMOVE_RECURSE trash)
`, "test.cmake"))
	if _, err := os.Stat(ev.sourceDir + "/trash"); err == nil {
		t.Fatal("trash directory should be gone")
	}
}

func TestFileSecurityTraversalRejected(t *testing.T) {
	ev := testEvaluator(t, nil)
	err := ev.RunSource(`file(WRITE ../escape.txt "nope")`, "test.cmake")
	require.Error(t, err)

	var cause string
	for _, d := range ev.Stream().Diagnostics() {
		if d.Severity == DiagError {
			cause = d.Cause
		}
	}
	assert.Contains(t, cause, "Security Violation")
	if _, statErr := os.Stat(ev.sourceDir + "/../escape.txt"); statErr == nil {
		t.Fatal("file must not be written outside the project scope")
	}
}

func TestFileSecurityNoMutationOutsideScope(t *testing.T) {
	ev := testEvaluator(t, nil)
	outside := strings.ReplaceAll(t.TempDir(), "\\", "/") + "/target.txt"
	ev.RunSource(`file(WRITE `+outside+` "nope")`, "test.cmake")
	if _, err := os.Stat(outside); err == nil {
		t.Fatal("absolute path outside scope must not be written")
	}

	errors := 0
	for _, d := range ev.Stream().Diagnostics() {
		if d.Severity == DiagError && strings.Contains(d.Cause, "Security Violation") {
			errors++
		}
	}
	assert.Equal(t, 1, errors, "exactly one security error")
}

func TestFileBinaryDirInScope(t *testing.T) {
	ev := testEvaluator(t, nil)
	require.NoError(t, ev.RunSource(`
file(WRITE `+ev.binaryDir+`/gen.txt "generated")
file(READ `+ev.binaryDir+`/gen.txt OUT)
`, "test.cmake"))
	assert.Equal(t, "generated", ev.varGet("OUT"))
}
