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

// Package perf 在 CLI 執行期間選擇性開啟 pprof。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/zintix-labs/petlab/errs"
)

const DefaultDir = "build/profiling"

// Modes 可用的 profile 種類；"" 代表不開。
var Modes = []string{"", "cpu", "heap", "allocs"}

// Profile 執行 exe 並依 mode 寫出 <dir>/<mode>.pprof。
// exe 的錯誤優先回傳；profile 寫入失敗時回傳 Warn。
func Profile(mode, dir string, exe func() error) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "perf: mkdir")
	}
	path := filepath.Join(dir, mode+".pprof")

	switch mode {
	case "cpu":
		f, err := os.Create(path)
		if err != nil {
			return errs.Wrap(err, "perf: create")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return errs.Warnf("perf: start cpu profile: %v", err)
		}
		err = exe()
		pprof.StopCPUProfile()
		return err
	case "heap", "allocs":
		if err := exe(); err != nil {
			return err
		}
		return writeProfile(mode, path)
	default:
		return errs.Warnf("perf: unknown profile mode %q", mode)
	}
}

func writeProfile(name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "perf: create")
	}
	defer f.Close()
	// heap 需要最新的 GC 統計
	if name == "heap" {
		runtime.GC()
	}
	if err := pprof.Lookup(name).WriteTo(f, 0); err != nil {
		return errs.Warnf("perf: write %s profile: %v", name, err)
	}
	return nil
}
