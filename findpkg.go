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
	"runtime"
	"strings"
)

type findPackageOptions struct {
	pkg                string
	mode               string // MODULE / CONFIG / AUTO
	required           bool
	quiet              bool
	requestedVersion   string
	exactVersion       bool
	components         []string
	optionalComponents []string
	names              []string
	configs            []string
	pathSuffixes       []string
	registryView       string
	extraPrefixes      []string

	noDefaultPath          bool
	noPackageRootPath      bool
	noCMakePath            bool
	noCMakeEnvironmentPath bool
	noSystemEnvironment    bool
	noCMakeSystemPath      bool
	noCMakeInstallPrefix   bool
}

const (
	fpOptRequired = iota + 1
	fpOptQuiet
	fpOptModule
	fpOptConfig
	fpOptNoModule
	fpOptExact
	fpOptGlobal
	fpOptNames
	fpOptConfigs
	fpOptPathSuffixes
	fpOptComponents
	fpOptOptionalComponents
	fpOptHints
	fpOptPaths
	fpOptRegistryView
	fpOptNoDefaultPath
	fpOptNoPackageRootPath
	fpOptNoCMakePath
	fpOptNoCMakeEnvironmentPath
	fpOptNoSystemEnvironmentPath
	fpOptNoCMakeSystemPath
	fpOptNoCMakeInstallPrefix
	fpOptNoPolicyScope
	fpOptBypassProvider
	fpOptNoCMakePackageRegistry
	fpOptNoCMakeSystemPackageRegistry
)

var findPackageSpecs = []optSpec{
	{fpOptRequired, "REQUIRED", optFlag},
	{fpOptQuiet, "QUIET", optFlag},
	{fpOptModule, "MODULE", optFlag},
	{fpOptConfig, "CONFIG", optFlag},
	{fpOptNoModule, "NO_MODULE", optFlag},
	{fpOptExact, "EXACT", optFlag},
	{fpOptGlobal, "GLOBAL", optFlag},
	{fpOptNames, "NAMES", optMulti},
	{fpOptConfigs, "CONFIGS", optMulti},
	{fpOptPathSuffixes, "PATH_SUFFIXES", optMulti},
	{fpOptComponents, "COMPONENTS", optMulti},
	{fpOptOptionalComponents, "OPTIONAL_COMPONENTS", optMulti},
	{fpOptHints, "HINTS", optMulti},
	{fpOptPaths, "PATHS", optMulti},
	{fpOptRegistryView, "REGISTRY_VIEW", optSingle},
	{fpOptNoDefaultPath, "NO_DEFAULT_PATH", optFlag},
	{fpOptNoPackageRootPath, "NO_PACKAGE_ROOT_PATH", optFlag},
	{fpOptNoCMakePath, "NO_CMAKE_PATH", optFlag},
	{fpOptNoCMakeEnvironmentPath, "NO_CMAKE_ENVIRONMENT_PATH", optFlag},
	{fpOptNoSystemEnvironmentPath, "NO_SYSTEM_ENVIRONMENT_PATH", optFlag},
	{fpOptNoCMakeSystemPath, "NO_CMAKE_SYSTEM_PATH", optFlag},
	{fpOptNoCMakeInstallPrefix, "NO_CMAKE_INSTALL_PREFIX", optFlag},
	{fpOptNoPolicyScope, "NO_POLICY_SCOPE", optFlag},
	{fpOptBypassProvider, "BYPASS_PROVIDER", optFlag},
	{fpOptNoCMakePackageRegistry, "NO_CMAKE_PACKAGE_REGISTRY", optFlag},
	{fpOptNoCMakeSystemPackageRegistry, "NO_CMAKE_SYSTEM_PACKAGE_REGISTRY", optFlag},
}

func looksLikeVersion(t string) bool {
	if t == "" {
		return false
	}
	for i := 0; i < len(t); i++ {
		if !isDigit(t[i]) && t[i] != '.' {
			return false
		}
	}
	return isDigit(t[0])
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func (ev *Evaluator) currentSourceOrRoot() string {
	if d := ev.varGet("CMAKE_CURRENT_SOURCE_DIR"); d != "" {
		return d
	}
	return ev.sourceDir
}

// envPathList splits a PATH-style environment variable on both ; and
// the platform list separator.
func (ev *Evaluator) envPathList(name string) []string {
	raw, ok := ev.lookupEnvVar(name)
	if !ok || raw == "" {
		return nil
	}
	if runtime.GOOS != "windows" {
		raw = strings.ReplaceAll(raw, ":", ";")
	}
	return splitList(raw)
}

func findPackageParse(ev *Evaluator, n *commandNode, o Origin, a []string) findPackageOptions {
	opt := findPackageOptions{mode: "AUTO"}
	cfg := optConfig{component: "dispatcher", command: n.name, origin: o, unknownAsPositional: true}
	positional := 0
	ev.parseOptions(a, 0, findPackageSpecs, cfg,
		func(id int, values []string, _ int) bool {
			switch id {
			case fpOptRequired:
				opt.required = true
			case fpOptQuiet:
				opt.quiet = true
			case fpOptModule:
				opt.mode = "MODULE"
			case fpOptConfig, fpOptNoModule:
				opt.mode = "CONFIG"
			case fpOptExact:
				opt.exactVersion = true
			case fpOptNames:
				opt.names = append(opt.names, values...)
			case fpOptConfigs:
				opt.configs = append(opt.configs, values...)
			case fpOptPathSuffixes:
				opt.pathSuffixes = append(opt.pathSuffixes, values...)
			case fpOptComponents:
				opt.components = append(opt.components, values...)
			case fpOptOptionalComponents:
				opt.optionalComponents = append(opt.optionalComponents, values...)
			case fpOptHints, fpOptPaths:
				opt.extraPrefixes = append(opt.extraPrefixes, values...)
			case fpOptRegistryView:
				if len(values) > 0 {
					opt.registryView = values[0]
				}
				ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
					"find_package(REGISTRY_VIEW) is accepted but not implemented", "")
			case fpOptNoDefaultPath:
				opt.noDefaultPath = true
			case fpOptNoPackageRootPath:
				opt.noPackageRootPath = true
			case fpOptNoCMakePath:
				opt.noCMakePath = true
			case fpOptNoCMakeEnvironmentPath:
				opt.noCMakeEnvironmentPath = true
			case fpOptNoSystemEnvironmentPath:
				opt.noSystemEnvironment = true
			case fpOptNoCMakeSystemPath:
				opt.noCMakeSystemPath = true
			case fpOptNoCMakeInstallPrefix:
				opt.noCMakeInstallPrefix = true
			}
			return true
		},
		func(value string, _ int) bool {
			switch positional {
			case 0:
				opt.pkg = value
			default:
				if looksLikeVersion(value) && opt.requestedVersion == "" {
					opt.requestedVersion = value
				} else {
					ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
						"find_package() unexpected argument", value)
				}
			}
			positional++
			return true
		})
	return opt
}

func (opt *findPackageOptions) candidateNames() []string {
	if len(opt.names) > 0 {
		return opt.names
	}
	return []string{opt.pkg}
}

// findModule searches CMAKE_MODULE_PATH (variable then environment),
// then <current-source>/CMake, for Find<Name>.cmake.
func (ev *Evaluator) findModule(opt *findPackageOptions) (string, bool) {
	current := ev.currentSourceOrRoot()

	var dirs []string
	dirs = append(dirs, opt.extraPrefixes...)
	if !opt.noDefaultPath {
		if !opt.noCMakePath {
			dirs = append(dirs, splitList(ev.varGet("CMAKE_MODULE_PATH"))...)
		}
		if !opt.noCMakeEnvironmentPath {
			dirs = append(dirs, ev.envPathList("CMAKE_MODULE_PATH")...)
		}
		if !opt.noCMakePath {
			dirs = append(dirs, pathJoin(current, "CMake"))
		}
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if !isAbsPath(dir) {
			dir = pathJoin(current, dir)
		}
		for _, name := range opt.candidateNames() {
			candidate := pathJoin(dir, "Find"+name+".cmake")
			if fileExists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func appendPrefixVariants(prefixes []string, root string) []string {
	if root == "" {
		return prefixes
	}
	return append(prefixes,
		root,
		pathJoin(root, "lib/cmake"),
		pathJoin(root, "lib64/cmake"),
		pathJoin(root, "share/cmake"))
}

// findConfig probes <Pkg>_DIR first, then a prefix list assembled from
// HINTS/PATHS, <Pkg>_ROOT (gated on CMP0074=NEW), CMAKE_PREFIX_PATH,
// CMAKE_INSTALL_PREFIX and platform defaults.
func (ev *Evaluator) findConfig(opt *findPackageOptions) (string, bool) {
	current := ev.currentSourceOrRoot()

	configNames := opt.configs
	if len(configNames) == 0 {
		for _, name := range opt.candidateNames() {
			configNames = append(configNames,
				name+"Config.cmake",
				strings.ToLower(name)+"-config.cmake")
		}
	}

	if pkgDir := ev.varGet(opt.pkg + "_DIR"); pkgDir != "" {
		dir := pkgDir
		if !isAbsPath(dir) {
			dir = pathJoin(current, dir)
		}
		for _, cn := range configNames {
			if candidate := pathJoin(dir, cn); fileExists(candidate) {
				return candidate, true
			}
		}
	}

	var prefixes []string
	prefixes = append(prefixes, opt.extraPrefixes...)
	if !opt.noDefaultPath {
		if !opt.noPackageRootPath && ev.policyEffective("CMP0074") == "NEW" {
			for _, name := range opt.candidateNames() {
				if root := ev.varGet(name + "_ROOT"); root != "" {
					prefixes = appendPrefixVariants(prefixes, root)
				}
				if !opt.noCMakeEnvironmentPath {
					if root, ok := ev.lookupEnvVar(name + "_ROOT"); ok && root != "" {
						prefixes = appendPrefixVariants(prefixes, root)
					}
				}
			}
		}
		if !opt.noCMakePath {
			prefixes = append(prefixes, splitList(ev.varGet("CMAKE_PREFIX_PATH"))...)
		}
		if !opt.noCMakeEnvironmentPath {
			prefixes = append(prefixes, ev.envPathList("CMAKE_PREFIX_PATH")...)
		}
		if !opt.noCMakeInstallPrefix {
			if install := ev.varGet("CMAKE_INSTALL_PREFIX"); install != "" {
				prefixes = appendPrefixVariants(prefixes, install)
			}
		}
		if !opt.noSystemEnvironment && runtime.GOOS == "windows" {
			for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)", "ProgramW6432", "VCPKG_ROOT"} {
				if v, ok := ev.lookupEnvVar(env); ok {
					prefixes = appendPrefixVariants(prefixes, v)
				}
			}
		}
		if !opt.noCMakeSystemPath {
			if runtime.GOOS == "windows" {
				prefixes = appendPrefixVariants(prefixes, "C:/Program Files")
				prefixes = appendPrefixVariants(prefixes, "C:/Program Files (x86)")
			} else {
				for _, root := range []string{"/usr/local", "/usr", "/opt/local", "/opt/homebrew", "/opt"} {
					prefixes = appendPrefixVariants(prefixes, root)
				}
			}
		}
	}

	suffixes := append([]string{""}, opt.pathSuffixes...)
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if !isAbsPath(prefix) {
			prefix = pathJoin(current, prefix)
		}
		for _, suffix := range suffixes {
			base := prefix
			if suffix != "" {
				base = pathJoin(prefix, suffix)
			}
			for _, cn := range configNames {
				if candidate := pathJoin(base, cn); fileExists(candidate) {
					return candidate, true
				}
				for _, name := range opt.candidateNames() {
					if candidate := pathJoin(pathJoin(base, name), cn); fileExists(candidate) {
						return candidate, true
					}
				}
			}
		}
	}
	return "", false
}

func (ev *Evaluator) findPackageResolve(opt *findPackageOptions) (string, bool) {
	switch opt.mode {
	case "MODULE":
		return ev.findModule(opt)
	case "CONFIG":
		return ev.findConfig(opt)
	}
	if ev.truthy(ev.varGet("CMAKE_FIND_PACKAGE_PREFER_CONFIG")) {
		if path, ok := ev.findConfig(opt); ok {
			return path, true
		}
		return ev.findModule(opt)
	}
	if path, ok := ev.findModule(opt); ok {
		return path, true
	}
	return ev.findConfig(opt)
}

// versionFilePath maps FooConfig.cmake to FooConfigVersion.cmake and
// foo-config.cmake to foo-config-version.cmake.
func versionFilePath(configPath string) string {
	dir := dirOf(configPath)
	base := baseOf(configPath)
	if hasSuffixFold(base, "Config.cmake") && !hasSuffixFold(base, "-config.cmake") {
		return pathJoin(dir, base[:len(base)-len(".cmake")]+"Version.cmake")
	}
	if hasSuffixFold(base, "-config.cmake") {
		return pathJoin(dir, base[:len(base)-len(".cmake")]+"-version.cmake")
	}
	return ""
}

func (opt *findPackageOptions) versionMatches(actual string) bool {
	if opt.requestedVersion == "" {
		return true
	}
	if actual == "" {
		return false
	}
	c := compareVersions(actual, opt.requestedVersion)
	if opt.exactVersion {
		return c == 0
	}
	return c >= 0
}

func (ev *Evaluator) seedFindContextVars(opt *findPackageOptions) {
	boolStr := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}
	ev.varSet(opt.pkg+"_FIND_REQUIRED", boolStr(opt.required))
	ev.varSet(opt.pkg+"_FIND_QUIETLY", boolStr(opt.quiet))
	if opt.requestedVersion != "" {
		ev.varSet(opt.pkg+"_FIND_VERSION", opt.requestedVersion)
		ev.varSet(opt.pkg+"_FIND_VERSION_EXACT", boolStr(opt.exactVersion))
	}
	if len(opt.components) > 0 {
		ev.varSet(opt.pkg+"_FIND_COMPONENTS", joinList(opt.components))
		ev.varSet(opt.pkg+"_FIND_REQUIRED_COMPONENTS", joinList(opt.components))
	}
	if len(opt.optionalComponents) > 0 {
		ev.varSet(opt.pkg+"_FIND_OPTIONAL_COMPONENTS", joinList(opt.optionalComponents))
	}
	if opt.registryView != "" {
		ev.varSet(opt.pkg+"_FIND_REGISTRY_VIEW", opt.registryView)
	}
}

// publishFindPackage seeds the find-context variables, gates the
// candidate through a companion version file, evaluates it, and
// decides the final found state (the script may override it).
func (ev *Evaluator) publishFindPackage(opt *findPackageOptions, found bool, foundPath string, o Origin) bool {
	foundKey := opt.pkg + "_FOUND"

	if found {
		ev.varSet(opt.pkg+"_DIR", dirOf(foundPath))
		ev.varSet(opt.pkg+"_CONFIG", foundPath)
		ev.seedFindContextVars(opt)

		versionOK := true
		if opt.requestedVersion != "" {
			if vp := versionFilePath(foundPath); vp != "" && fileExists(vp) {
				ev.varSet("PACKAGE_VERSION", "")
				ev.varSet("PACKAGE_VERSION_EXACT", "")
				ev.varSet("PACKAGE_VERSION_COMPATIBLE", "")
				if !ev.executeFile(vp, false, "", o) {
					versionOK = false
				} else {
					exact := ev.varGet("PACKAGE_VERSION_EXACT")
					compat := ev.varGet("PACKAGE_VERSION_COMPATIBLE")
					switch {
					case opt.exactVersion && exact != "":
						versionOK = ev.truthy(exact)
					case !opt.exactVersion && compat != "":
						versionOK = ev.truthy(compat)
					default:
						versionOK = opt.versionMatches(ev.varGet("PACKAGE_VERSION"))
					}
				}
			}
		}

		if versionOK {
			if !ev.executeFile(foundPath, false, "", o) {
				found = false
			}
		} else {
			found = false
		}

		if found && opt.requestedVersion != "" {
			actual := ev.varGet(opt.pkg + "_VERSION")
			if actual == "" {
				actual = ev.varGet("PACKAGE_VERSION")
			}
			if !opt.versionMatches(actual) {
				found = false
			}
		}
	}

	if found && ev.varDefined(foundKey) {
		found = ev.truthy(ev.varGet(foundKey))
	}
	if found {
		ev.varSet(foundKey, "1")
	} else {
		ev.varSet(foundKey, "0")
	}
	return found
}

func hFindPackage(ev *Evaluator, n *commandNode) error {
	o := ev.originAt(n.pos())
	a := ev.resolveArgs(n.args)
	if err := ev.stopErr(); err != nil {
		return err
	}
	if len(a) < 1 {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"find_package() missing package name",
			"Usage: find_package(<Pkg> [REQUIRED] [MODULE|CONFIG])")
		return ev.stopErr()
	}

	opt := findPackageParse(ev, n, o, a)
	if opt.exactVersion && opt.requestedVersion == "" {
		ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
			"find_package() EXACT specified without version",
			"EXACT is ignored when no version is requested")
	}

	foundPath, found := ev.findPackageResolve(&opt)
	found = ev.publishFindPackage(&opt, found, foundPath, o)

	if !found && opt.required {
		ev.emitDiag(DiagError, "dispatcher", n.name, o,
			"Required package not found", opt.pkg)
	} else if !found && !opt.quiet {
		ev.emitDiag(DiagWarning, "dispatcher", n.name, o,
			"Package not found", opt.pkg)
	}

	ev.pushEvent(FindPackageEvent{
		eventBase:   eventBase{o},
		PackageName: opt.pkg,
		Mode:        opt.mode,
		Required:    opt.required,
		Found:       found,
		Location:    foundPath,
	})
	return ev.stopErr()
}
