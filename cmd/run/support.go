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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/petlab"
	"github.com/zintix-labs/petlab/demo"
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/server/logger"
	"github.com/zintix-labs/petlab/spec"
	"github.com/zintix-labs/petlab/stats"
)

type globalOpts struct {
	output   string
	logMode  string
	pprof    string
	pprofDir string
}

// modelRef 三擇一：--model / --id / --file
type modelRef struct {
	name string
	id   uint
	file string
}

func (m *modelRef) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&m.name, "model", "m", "", "built-in model name")
	f.UintVar(&m.id, "id", 0, "built-in model id")
	f.StringVarP(&m.file, "file", "f", "", "model file (.yaml/.yml/.json)")
	cmd.MarkFlagsMutuallyExclusive("model", "id", "file")
	cmd.MarkFlagsOneRequired("model", "id", "file")
}

func newLab(opt *globalOpts) (*petlab.Petlab, error) {
	mode, err := logger.ParseMode(opt.logMode)
	if err != nil {
		return nil, err
	}
	lab, err := demo.NewPetlab()
	if err != nil {
		return nil, err
	}
	lab.SetLogger(logger.NewDefaultLogger(mode))
	return lab, nil
}

func (m *modelRef) checker(lab *petlab.Petlab, override *spec.CheckSetting) (*petlab.Checker, error) {
	switch {
	case m.file != "":
		raw, err := os.ReadFile(m.file)
		if err != nil {
			return nil, errs.Wrap(err, "read model file")
		}
		if strings.EqualFold(filepath.Ext(m.file), ".json") {
			return lab.NewCheckerByJSON(raw, override)
		}
		return lab.NewCheckerByYAML(raw, override)
	case m.name != "":
		return lab.NewCheckerByName(m.name, override)
	default:
		return lab.NewChecker(spec.MID(m.id), override)
	}
}

func (m *modelRef) simulator(lab *petlab.Petlab) (*petlab.Simulator, error) {
	switch {
	case m.file != "":
		raw, err := os.ReadFile(m.file)
		if err != nil {
			return nil, errs.Wrap(err, "read model file")
		}
		var ms *spec.ModelSetting
		if strings.EqualFold(filepath.Ext(m.file), ".json") {
			ms, err = spec.GetModelSettingByJSON(raw)
		} else {
			ms, err = spec.GetModelSettingByYAML(raw)
		}
		if err != nil {
			return nil, err
		}
		return lab.NewSimulatorBySetting(ms)
	case m.name != "":
		ent, ok := lab.EntryByName(m.name)
		if !ok {
			return nil, errs.Warnf("model not found: %s", m.name)
		}
		return lab.NewSimulator(ent.MID)
	default:
		return lab.NewSimulator(spec.MID(m.id))
	}
}

func render(w io.Writer, format string, v any) error {
	r, err := stats.RenderByName(format)
	if err != nil {
		return err
	}
	return r.Write(w, v)
}
