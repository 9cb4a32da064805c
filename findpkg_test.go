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

func findPackageEvents(ev *Evaluator) []FindPackageEvent {
	var r []FindPackageEvent
	for _, e := range ev.Stream().Events() {
		if p, ok := e.(FindPackageEvent); ok {
			r = append(r, p)
		}
	}
	return r
}

func TestFindPackageConfigViaPkgDir(t *testing.T) {
	ev := testEvaluator(t, nil)
	pkgDir := ev.sourceDir + "/pkgs/demo"
	writeTestFile(t, pkgDir+"/DemoConfig.cmake", "set(Demo_LIBS demo_lib)\n")

	require.NoError(t, ev.RunSource(`
set(Demo_DIR `+pkgDir+`)
find_package(Demo CONFIG)
`, "test.cmake"))

	assert.Equal(t, "1", ev.varGet("Demo_FOUND"))
	assert.Equal(t, "demo_lib", ev.varGet("Demo_LIBS"))
	fp := findPackageEvents(ev)
	require.Len(t, fp, 1)
	assert.Equal(t, "CONFIG", fp[0].Mode)
	assert.True(t, fp[0].Found)
	assert.Equal(t, pkgDir+"/DemoConfig.cmake", fp[0].Location)
}

func TestFindPackageConfigViaPrefixPath(t *testing.T) {
	ev := testEvaluator(t, nil)
	prefix := ev.sourceDir + "/prefix"
	writeTestFile(t, prefix+"/lib/cmake/Demo/DemoConfig.cmake", "set(Demo_OK 1)\n")

	require.NoError(t, ev.RunSource(`
set(CMAKE_PREFIX_PATH `+prefix+`/lib/cmake)
find_package(Demo CONFIG)
`, "test.cmake"))
	assert.Equal(t, "1", ev.varGet("Demo_FOUND"))
	assert.Equal(t, "1", ev.varGet("Demo_OK"))
}

func TestFindPackageSeedsFindContext(t *testing.T) {
	ev := testEvaluator(t, nil)
	moduleDir := ev.sourceDir + "/CMake"
	writeTestFile(t, moduleDir+"/FindCtx.cmake",
		"set(SAW_REQUIRED ${Ctx_FIND_REQUIRED})\nset(SAW_VERSION ${Ctx_FIND_VERSION})\nset(Ctx_FOUND 1)\nset(Ctx_VERSION 2.6)\n")

	require.NoError(t, ev.RunSource(`find_package(Ctx 2.5 MODULE REQUIRED COMPONENTS alpha beta)`, "test.cmake"))
	assert.Equal(t, "1", ev.varGet("SAW_REQUIRED"))
	assert.Equal(t, "2.5", ev.varGet("SAW_VERSION"))
	assert.Equal(t, "alpha;beta", ev.varGet("Ctx_FIND_COMPONENTS"))
}

func TestFindPackageVersionFileGating(t *testing.T) {
	ev := testEvaluator(t, nil)
	pkgDir := ev.sourceDir + "/pkgs/old"
	writeTestFile(t, pkgDir+"/OldConfig.cmake", "set(Old_SEEN 1)\n")
	writeTestFile(t, pkgDir+"/OldConfigVersion.cmake",
		"set(PACKAGE_VERSION 1.0)\nset(PACKAGE_VERSION_COMPATIBLE FALSE)\n")

	ev.RunSource(`
set(Old_DIR `+pkgDir+`)
find_package(Old 2.0 CONFIG)
`, "test.cmake")

	assert.Equal(t, "0", ev.varGet("Old_FOUND"),
		"incompatible version file must reject the candidate")
	assert.False(t, ev.varDefined("Old_SEEN"),
		"config file must not be evaluated after version rejection")
}

func TestFindPackageNotFoundRequired(t *testing.T) {
	ev := testEvaluator(t, nil)
	err := ev.RunSource(`find_package(Ghost REQUIRED)`, "test.cmake")
	require.Error(t, err)
	assert.Equal(t, "0", ev.varGet("Ghost_FOUND"))
	assert.Contains(t, diagCauses(ev), "Required package not found")

	fp := findPackageEvents(ev)
	require.Len(t, fp, 1)
	assert.False(t, fp[0].Found)
	assert.True(t, fp[0].Required)
}

func TestFindPackageQuietNotFound(t *testing.T) {
	ev := runScript(t, `find_package(Ghost QUIET)`)
	assert.Equal(t, "0", ev.varGet("Ghost_FOUND"))
	assert.NotContains(t, diagCauses(ev), "Package not found")
}

func TestFindPackageScriptOverridesFound(t *testing.T) {
	ev := testEvaluator(t, nil)
	moduleDir := ev.sourceDir + "/CMake"
	writeTestFile(t, moduleDir+"/FindVeto.cmake", "set(Veto_FOUND FALSE)\n")

	ev.RunSource(`find_package(Veto MODULE QUIET)`, "test.cmake")
	assert.Equal(t, "0", ev.varGet("Veto_FOUND"),
		"module script can veto the found state")
}

func TestFindPackagePkgRootNeedsCMP0074(t *testing.T) {
	ev := testEvaluator(t, nil)
	root := ev.sourceDir + "/vendored"
	writeTestFile(t, root+"/RootedConfig.cmake", "set(Rooted_OK 1)\n")

	// Without CMP0074=NEW the <Pkg>_ROOT variable is ignored.
	require.NoError(t, ev.RunSource(`
set(Rooted_ROOT `+root+`)
find_package(Rooted CONFIG QUIET)
`, "test.cmake"))
	assert.Equal(t, "0", ev.varGet("Rooted_FOUND"))

	ev2 := testEvaluator(t, nil)
	root2 := ev2.sourceDir + "/vendored"
	writeTestFile(t, root2+"/RootedConfig.cmake", "set(Rooted_OK 1)\n")
	require.NoError(t, ev2.RunSource(`
cmake_policy(SET CMP0074 NEW)
set(Rooted_ROOT `+root2+`)
find_package(Rooted CONFIG QUIET)
`, "test.cmake"))
	assert.Equal(t, "1", ev2.varGet("Rooted_FOUND"))
}
