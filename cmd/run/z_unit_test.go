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

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/zintix-labs/petlab/stats"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestListTable(t *testing.T) {
	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, name := range []string{"chain3", "gambler", "bounded_walk", "core_birthdeath", "| ID "} {
		if !strings.Contains(out, name) {
			t.Fatalf("list output missing %s:\n%s", name, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for _, l := range lines[1:] {
		if len(l) != len(lines[0]) {
			t.Fatalf("list columns are not aligned:\n%s", out)
		}
	}
}

func TestCheckJSON(t *testing.T) {
	out, err := execute(t, "check", "-m", "chain3", "--seed", "1", "--progress=false", "-o", "json")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var rep stats.CheckReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !rep.Solved() || rep.Results[0].Bounds.Lower < 0.99 {
		t.Fatalf("chain3 report = %+v", rep.Results)
	}
}

func TestSimulateTable(t *testing.T) {
	out, err := execute(t, "sim", "-m", "chain3", "--runs", "20", "--max-steps", "50", "--progress=false")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(out, "chain3") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestModelFlagsExclusive(t *testing.T) {
	if _, err := execute(t, "check", "-m", "coin", "--id", "2"); err == nil {
		t.Fatalf("expected error for two model sources")
	}
	if _, err := execute(t, "check"); err == nil {
		t.Fatalf("expected error without model")
	}
	if _, err := execute(t, "check", "-m", "coin", "-o", "xml", "--progress=false"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
