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

package spec

import (
	"strings"
	"time"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/bounds"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/heuristic"
)

// 預設值
const (
	DefaultPrecision         = 1e-6
	DefaultMaxExplores       = 5
	DefaultMaxBacktraces     = 5
	DefaultCollapseThreshold = 10
	DefaultReportEvery       = 10000
)

// 檢驗模式
const (
	// ModeReach 可達機率
	ModeReach = "reach"
	// ModeCore 學習 ε-core：擴張已探索子模型直到逃出機率小於 precision
	ModeCore = "core"
)

// CheckSetting 一次檢驗（unbounded 或 bounded）的全部選項。
type CheckSetting struct {
	Mode              string                `yaml:"mode"               json:"mode"`
	Precision         float64               `yaml:"precision"          json:"precision"`
	Direction         string                `yaml:"direction"          json:"direction"`
	Heuristic         string                `yaml:"heuristic"          json:"heuristic"`
	StepBound         *int                  `yaml:"step_bound"         json:"step_bound,omitempty"`
	Approximation     *ApproxSetting        `yaml:"approximation"      json:"approximation,omitempty"`
	MaxExplores       int                   `yaml:"max_explores"       json:"max_explores"`
	MaxBacktraces     int                   `yaml:"max_backtraces"     json:"max_backtraces"`
	CollapseThreshold int                   `yaml:"collapse_threshold" json:"collapse_threshold"`
	Components        string                `yaml:"components"         json:"components"`
	RemoveSelfLoops   bool                  `yaml:"remove_self_loops"  json:"remove_self_loops"`
	Seed              int64                 `yaml:"seed"               json:"seed"`
	RNG               string                `yaml:"rng"                json:"rng"`
	Timeout           string                `yaml:"timeout"            json:"timeout"`
	ReportEvery       int                   `yaml:"report_every"       json:"report_every"`
	Interpretation    InterpretationSetting `yaml:"interpretation"     json:"interpretation"`
}

// ApproxSetting 步數表近似：Threshold 以下精確，之後每 Width 步一格。
type ApproxSetting struct {
	Threshold int `yaml:"threshold" json:"threshold"`
	Width     int `yaml:"width"     json:"width"`
}

// InterpretationSetting 已解出時如何解讀區間。
//   - kind: average | threshold
//   - op:   >= | > | <= | <
type InterpretationSetting struct {
	Kind  string  `yaml:"kind"  json:"kind"`
	Op    string  `yaml:"op"    json:"op"`
	Value float64 `yaml:"value" json:"value"`
}

// init 補齊預設值並檢查。
func (cs *CheckSetting) init() error {
	if cs.Precision == 0 {
		cs.Precision = DefaultPrecision
	}
	if cs.MaxExplores == 0 {
		cs.MaxExplores = DefaultMaxExplores
	}
	if cs.MaxBacktraces == 0 {
		cs.MaxBacktraces = DefaultMaxBacktraces
	}
	if cs.CollapseThreshold == 0 {
		cs.CollapseThreshold = DefaultCollapseThreshold
	}
	if cs.ReportEvery == 0 {
		cs.ReportEvery = DefaultReportEvery
	}
	cs.Mode = strings.ToLower(strings.TrimSpace(cs.Mode))
	if cs.Mode == "" {
		cs.Mode = ModeReach
	}
	cs.Direction = strings.ToLower(strings.TrimSpace(cs.Direction))
	if cs.Direction == "" {
		cs.Direction = bounds.Max.String()
	}
	if cs.Heuristic == "" {
		cs.Heuristic = heuristic.GraphWeighted.String()
	}
	cs.Components = strings.ToLower(strings.TrimSpace(cs.Components))
	if cs.Components == "" {
		cs.Components = "auto"
	}
	if cs.Interpretation.Kind == "" {
		cs.Interpretation.Kind = "average"
	}
	return cs.valid()
}

// Init 對外公開的 init；合併覆寫後需要重新呼叫。
func (cs *CheckSetting) Init() error {
	return cs.init()
}

func (cs *CheckSetting) valid() error {
	if cs.Precision <= 0 || cs.Precision >= 1 {
		return errs.Fatalf("check: precision must be in (0,1), got %v", cs.Precision)
	}
	dir, err := bounds.ParseDirection(cs.Direction)
	if err != nil {
		return errs.Wrap(err, "check: direction")
	}
	switch cs.Mode {
	case ModeReach:
	case ModeCore:
		if dir == bounds.Min {
			return errs.NewFatal("check: core mode needs direction max or unique")
		}
	default:
		return errs.Fatalf("check: unknown mode %q (want reach or core)", cs.Mode)
	}
	h, err := heuristic.Parse(cs.Heuristic)
	if err != nil {
		return errs.Wrap(err, "check: heuristic")
	}
	cs.Heuristic = h.String()
	if cs.StepBound != nil && *cs.StepBound <= 0 {
		return errs.Fatalf("check: step_bound must be positive, got %d", *cs.StepBound)
	}
	if a := cs.Approximation; a != nil {
		if cs.StepBound == nil {
			return errs.NewFatal("check: approximation requires step_bound")
		}
		if a.Threshold < 1 || a.Width < 1 {
			return errs.Fatalf("check: approximation needs threshold >= 1 and width >= 1, got %d/%d", a.Threshold, a.Width)
		}
	}
	if cs.MaxExplores < 1 || cs.MaxBacktraces < 1 || cs.CollapseThreshold < 1 || cs.ReportEvery < 1 {
		return errs.NewFatal("check: max_explores, max_backtraces, collapse_threshold and report_every must be positive")
	}
	switch cs.Components {
	case "auto", "mec", "bscc":
	default:
		return errs.Fatalf("check: unknown components analyser %q", cs.Components)
	}
	if _, err := core.FactoryByName(cs.RNG); err != nil {
		return errs.Wrap(err, "check: rng")
	}
	if _, err := cs.TimeoutDuration(); err != nil {
		return err
	}
	switch cs.Interpretation.Kind {
	case "average":
	case "threshold":
		switch cs.Interpretation.Op {
		case ">=", ">", "<=", "<":
		default:
			return errs.Fatalf("check: unknown threshold op %q", cs.Interpretation.Op)
		}
		if cs.Interpretation.Value < 0 || cs.Interpretation.Value > 1 {
			return errs.Fatalf("check: threshold value must be in [0,1], got %v", cs.Interpretation.Value)
		}
	default:
		return errs.Fatalf("check: unknown interpretation %q", cs.Interpretation.Kind)
	}
	return nil
}

// DirectionValue 已通過 valid 時不會失敗。
func (cs *CheckSetting) DirectionValue() bounds.Direction {
	d, _ := bounds.ParseDirection(cs.Direction)
	return d
}

func (cs *CheckSetting) HeuristicValue() heuristic.Heuristic {
	h, _ := heuristic.Parse(cs.Heuristic)
	return h
}

// TimeoutDuration 空字串或 "0" 代表不限時。
func (cs *CheckSetting) TimeoutDuration() (time.Duration, error) {
	if cs.Timeout == "" || cs.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(cs.Timeout)
	if err != nil || d < 0 {
		return 0, errs.Fatalf("check: invalid timeout %q", cs.Timeout)
	}
	return d, nil
}

// Core 是否為 core 學習。
func (cs *CheckSetting) Core() bool {
	return cs.Mode == ModeCore
}

// Bounded 是否為步數受限檢驗。
func (cs *CheckSetting) Bounded() bool {
	return cs.StepBound != nil
}

// Merge 以 o 中非零值覆寫 cs，回傳新的設定（尚未 init）。
func (cs CheckSetting) Merge(o CheckSetting) CheckSetting {
	out := cs
	if o.Mode != "" {
		out.Mode = o.Mode
	}
	if o.Precision != 0 {
		out.Precision = o.Precision
	}
	if o.Direction != "" {
		out.Direction = o.Direction
	}
	if o.Heuristic != "" {
		out.Heuristic = o.Heuristic
	}
	if o.StepBound != nil {
		v := *o.StepBound
		out.StepBound = &v
	}
	if o.Approximation != nil {
		a := *o.Approximation
		out.Approximation = &a
	}
	if o.MaxExplores != 0 {
		out.MaxExplores = o.MaxExplores
	}
	if o.MaxBacktraces != 0 {
		out.MaxBacktraces = o.MaxBacktraces
	}
	if o.CollapseThreshold != 0 {
		out.CollapseThreshold = o.CollapseThreshold
	}
	if o.Components != "" {
		out.Components = o.Components
	}
	if o.RemoveSelfLoops {
		out.RemoveSelfLoops = true
	}
	if o.Seed != 0 {
		out.Seed = o.Seed
	}
	if o.RNG != "" {
		out.RNG = o.RNG
	}
	if o.Timeout != "" {
		out.Timeout = o.Timeout
	}
	if o.ReportEvery != 0 {
		out.ReportEvery = o.ReportEvery
	}
	if o.Interpretation.Kind != "" {
		out.Interpretation = o.Interpretation
	}
	return out
}
