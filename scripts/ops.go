// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// 開發用 task runner：go run ./scripts <task>
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/fatih/color"
)

type task struct {
	help string
	run  func() error
}

var tasks = map[string]task{
	"test":        {"go test ./... (ok/FAIL only)", runTest},
	"test-detail": {"go test -v, without [no test files]", runTestDetail},
	"cover":       {"go test -cover ./...", runCover},
	"profile":     {"cpu profile of a gambler check into build/profiling", runProfile},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		color.Yellow("unknown task: %s", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err := t.run(); err != nil {
		color.Red("%s: %v", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: go run ./scripts <task>")
	names := make([]string, 0, len(tasks))
	for k := range tasks {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("  %-12s %s\n", k, tasks[k].help)
	}
}

func cleanCache() error {
	c := exec.Command("go", "clean", "-testcache")
	c.Stdout, c.Stderr = os.Stdout, os.Stderr
	return c.Run()
}

// stream 合併 stdout/stderr，逐行交給 fn
func stream(fn func(line string), name string, args ...string) error {
	c := exec.Command(name, args...)
	pr, pw := io.Pipe()
	c.Stdout, c.Stderr = pw, pw
	if err := c.Start(); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(pr)
		for sc.Scan() {
			fn(sc.Text())
		}
	}()
	err := c.Wait()
	pw.Close()
	<-done
	return err
}

func paint(line string) {
	switch {
	case strings.HasPrefix(line, "ok"):
		color.Green("%s", line)
	case strings.HasPrefix(line, "FAIL"), strings.HasPrefix(line, "--- FAIL"):
		color.Red("%s", line)
	default:
		fmt.Println(line)
	}
}

func runTest() error {
	color.Green("running tests")
	if err := cleanCache(); err != nil {
		return err
	}
	return stream(func(line string) {
		if strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "FAIL") ||
			strings.Contains(line, "build failed") || strings.Contains(line, "setup failed") {
			paint(line)
		}
	}, "go", "test", "./...", "-count=1")
}

func runTestDetail() error {
	color.Green("running tests (detail)")
	if err := cleanCache(); err != nil {
		return err
	}
	return stream(func(line string) {
		if !strings.Contains(line, "[no test files]") {
			paint(line)
		}
	}, "go", "test", "./...", "-v", "-count=1")
}

func runCover() error {
	color.Green("running tests with coverage")
	if err := cleanCache(); err != nil {
		return err
	}
	return stream(paint, "go", "test", "./...", "-cover")
}

func runProfile() error {
	color.Green("profiling gambler check")
	return stream(func(line string) { fmt.Println(line) }, "go", "run", "./cmd/run", "check",
		"-m", "gambler", "--precision", "1e-6", "--seed", "1", "--progress=false", "-p", "cpu")
}
