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

// Command nobify evaluates a CMakeLists.txt script and prints the
// resulting build-description event stream.
package main

import (
	goflag "flag"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"

	"github.com/Qfresquin/nobify"
)

func usage(f *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage: nobify [OPTIONS] <CMakeLists.txt>

Evaluates the script and prints the event stream.

Options:
`)
	f.PrintDefaults()
}

func main() {
	f := flag.NewFlagSet("nobify", flag.ExitOnError)
	f.SortFlags = false
	f.Usage = func() { usage(f) }
	f.String("source-dir", "", "project source directory (defaults to the script's directory)")
	f.String("binary-dir", "", "project binary directory (defaults to <source-dir>/build)")
	f.String("profile", "PERMISSIVE", "compatibility profile (STRICT/CI_STRICT/PERMISSIVE)")
	f.Int("error-budget", 0, "error cap in PERMISSIVE mode, 0 means unlimited")
	f.String("format", "text", "event output format (text/json)")
	f.Bool("fail-fast", false, "shorthand for --profile STRICT")

	// glog's -v/-logtostderr flags come along for free.
	f.AddGoFlagSet(goflag.CommandLine)
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Configuration merges NOBIFY_* environment variables with CLI
	// flags; flags win.
	k := koanf.New(".")
	k.Load(env.Provider("NOBIFY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "NOBIFY_")), "_", "-")
	}), nil)
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	args := f.Args()
	if len(args) != 1 {
		usage(f)
		os.Exit(2)
	}
	script, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	sourceDir := k.String("source-dir")
	if sourceDir == "" {
		sourceDir = filepath.Dir(script)
	}
	binaryDir := k.String("binary-dir")
	if binaryDir == "" {
		binaryDir = filepath.Join(sourceDir, "build")
	}
	profile := nobify.ParseCompatProfile(k.String("profile"))
	if k.Bool("fail-fast") {
		profile = nobify.ProfileStrict
	}

	ev := nobify.NewEvaluator(nobify.Config{
		SourceDir:   filepath.ToSlash(sourceDir),
		BinaryDir:   filepath.ToSlash(binaryDir),
		ScriptPath:  filepath.ToSlash(script),
		Profile:     profile,
		ErrorBudget: k.Int("error-budget"),
	})
	runErr := ev.RunFile(filepath.ToSlash(script))

	switch k.String("format") {
	case "json":
		printJSON(ev.Stream())
	default:
		printText(ev.Stream())
	}

	report := ev.Report()
	if runErr != nil || report.ErrorCount > 0 {
		fmt.Fprintf(os.Stderr, "nobify: %d error(s), %d warning(s)\n",
			report.ErrorCount, report.WarningCount)
		os.Exit(1)
	}
}

func printText(stream *nobify.EventStream) {
	for _, ev := range stream.Events() {
		o := ev.EventOrigin()
		switch e := ev.(type) {
		case nobify.DiagnosticEvent:
			fmt.Printf("%-28s %s:%d:%d [%s] %s\n",
				ev.EventKind(), o.File, o.Line, o.Col, e.Severity, e.Cause)
		default:
			fmt.Printf("%-28s %s:%d:%d %+v\n", ev.EventKind(), o.File, o.Line, o.Col, e)
		}
	}
}

func printJSON(stream *nobify.EventStream) {
	enc := json.NewEncoder(os.Stdout)
	for _, ev := range stream.Events() {
		rec := struct {
			Kind  string       `json:"kind"`
			Event nobify.Event `json:"event"`
		}{ev.EventKind().String(), ev}
		if err := enc.Encode(rec); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
