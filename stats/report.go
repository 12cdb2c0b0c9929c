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

package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/zintix-labs/petlab/sdk/bounds"
	"github.com/zintix-labs/petlab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// Counters 一次檢驗的取樣計數。
type Counters struct {
	Samples           int64 `json:"samples"            yaml:"samples"`
	Steps             int64 `json:"steps"              yaml:"steps"`
	Backtraces        int64 `json:"backtraces"         yaml:"backtraces"`
	Explores          int64 `json:"explores"           yaml:"explores"`
	Collapses         int64 `json:"collapses"          yaml:"collapses"`
	CollapsedStates   int64 `json:"collapsed_states"   yaml:"collapsed_states"`
	ComponentSearches int64 `json:"component_searches" yaml:"component_searches"`
	ExactChecks       int64 `json:"exact_checks"       yaml:"exact_checks"`
	// Deadlocks 取樣走進沒有 choice 的狀態的次數；每個死結至多一次
	Deadlocks int64 `json:"deadlocks" yaml:"deadlocks"`
}

// StateResult 單一初始狀態的結果。
//
// Value 只在 Solved 且 interpretation 為 average 時有值。
type StateResult struct {
	State   string        `json:"state"           yaml:"state"`
	Bounds  bounds.Bounds `json:"bounds"          yaml:"bounds"`
	Width   float64       `json:"width"           yaml:"width"`
	Solved  bool          `json:"solved"          yaml:"solved"`
	Value   *float64      `json:"value,omitempty" yaml:"value,omitempty"`
	Verdict string        `json:"verdict"         yaml:"verdict"`
}

// 停止原因
const (
	StopConverged = "converged"
	StopTimeout   = "timeout"
	StopCanceled  = "canceled"
)

// CheckReport 一次可達性檢驗的完整報表。
type CheckReport struct {
	RunID      string            `json:"run_id"     yaml:"run_id"`
	ModelID    spec.MID          `json:"model_id"   yaml:"model_id"`
	ModelName  string            `json:"model_name" yaml:"model_name"`
	Logic      spec.LogicKey     `json:"logic"      yaml:"logic"`
	Setting    spec.CheckSetting `json:"setting"    yaml:"setting"`
	Results    []StateResult     `json:"results"    yaml:"results"`
	Explored   int               `json:"explored"   yaml:"explored"`
	Fringe     int               `json:"fringe"     yaml:"fringe"`
	Collapsed  int               `json:"collapsed"  yaml:"collapsed"`
	Counters   Counters          `json:"counters"   yaml:"counters"`
	Trajectory TrajectoryStats   `json:"trajectory" yaml:"trajectory"`
	StopReason string            `json:"stop_reason" yaml:"stop_reason"`
	ElapsedMs  float64           `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// Solved 全部初始狀態都已收斂。
func (r *CheckReport) Solved() bool {
	for _, s := range r.Results {
		if !s.Solved {
			return false
		}
	}
	return len(r.Results) > 0
}

func (r *CheckReport) SetElapsed(d time.Duration) {
	r.ElapsedMs = float64(d.Microseconds()) / 1000
}

func (r *CheckReport) Table() string {
	p := message.NewPrinter(lang)
	keys := []string{"Run ID", "Model", "Direction", "Heuristic", "Precision"}
	msg := map[string]string{
		"Run ID":    r.RunID,
		"Model":     fmt.Sprintf("%d %s (%s)", r.ModelID, r.ModelName, r.Logic),
		"Direction": r.Setting.Direction,
		"Heuristic": r.Setting.Heuristic,
		"Precision": p.Sprintf("%g", r.Setting.Precision),
	}
	if r.Setting.Core() {
		keys = append(keys, "Mode")
		msg["Mode"] = "core (value = escape probability)"
	}
	if r.Setting.StepBound != nil {
		keys = append(keys, "Step Bound")
		msg["Step Bound"] = p.Sprintf("%d", *r.Setting.StepBound)
	}
	for i, s := range r.Results {
		k := fmt.Sprintf("[%d] %s", i, s.State)
		keys = append(keys, k)
		line := p.Sprintf("[%.8f, %.8f] %s", s.Bounds.Lower, s.Bounds.Upper, s.Verdict)
		if s.Value != nil {
			line = p.Sprintf("%.8f [%.8f, %.8f]", *s.Value, s.Bounds.Lower, s.Bounds.Upper)
		}
		msg[k] = line
	}
	rest := []string{"Explored", "Fringe", "Collapsed", "Samples", "Steps", "Backtraces", "Exact Checks", "Avg Length", "Stop", "Elapsed"}
	keys = append(keys, rest...)
	msg["Explored"] = p.Sprintf("%d", r.Explored)
	msg["Fringe"] = p.Sprintf("%d", r.Fringe)
	msg["Collapsed"] = p.Sprintf("%d", r.Collapsed)
	msg["Samples"] = p.Sprintf("%d", r.Counters.Samples)
	msg["Steps"] = p.Sprintf("%d", r.Counters.Steps)
	msg["Backtraces"] = p.Sprintf("%d", r.Counters.Backtraces)
	msg["Exact Checks"] = p.Sprintf("%d", r.Counters.ExactChecks)
	msg["Avg Length"] = p.Sprintf("%.2f", r.Trajectory.Mean)
	msg["Stop"] = r.StopReason
	msg["Elapsed"] = formatDuration(time.Duration(r.ElapsedMs * float64(time.Millisecond)))
	return fmtTable(r.ModelName, keys, msg)
}

func (r *CheckReport) StdOut(w io.Writer) {
	fmt.Fprint(w, r.Table())
}

// SimReport 蒙地卡羅交叉驗證結果。
type SimReport struct {
	RunID      string          `json:"run_id"     yaml:"run_id"`
	ModelID    spec.MID        `json:"model_id"   yaml:"model_id"`
	ModelName  string          `json:"model_name" yaml:"model_name"`
	Runs       int             `json:"runs"       yaml:"runs"`
	MaxSteps   int             `json:"max_steps"  yaml:"max_steps"`
	Hits       int             `json:"hits"       yaml:"hits"`
	Truncated  int             `json:"truncated"  yaml:"truncated"`
	Estimate   float64         `json:"estimate"   yaml:"estimate"`
	Confidence float64         `json:"confidence" yaml:"confidence"`
	CI         CI              `json:"ci"         yaml:"ci"`
	Trajectory TrajectoryStats `json:"trajectory" yaml:"trajectory"`
	ElapsedMs  float64         `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// Done 由 Hits/Runs 計算點估計與區間。
func (r *SimReport) Done() {
	r.Estimate, r.CI = ProportionCI(r.Hits, r.Runs, r.Confidence)
}

func (r *SimReport) SetElapsed(d time.Duration) {
	r.ElapsedMs = float64(d.Microseconds()) / 1000
}

func (r *SimReport) Table() string {
	p := message.NewPrinter(lang)
	keys := []string{"Run ID", "Model", "Runs", "Max Steps", "Hits", "Truncated", "Estimate", "CI", "Avg Length", "Elapsed"}
	msg := map[string]string{
		"Run ID":     r.RunID,
		"Model":      fmt.Sprintf("%d %s", r.ModelID, r.ModelName),
		"Runs":       p.Sprintf("%d", r.Runs),
		"Max Steps":  p.Sprintf("%d", r.MaxSteps),
		"Hits":       p.Sprintf("%d", r.Hits),
		"Truncated":  p.Sprintf("%d", r.Truncated),
		"Estimate":   p.Sprintf("%.6f", r.Estimate),
		"CI":         p.Sprintf("%.0f%% [%.6f, %.6f]", 100*r.Confidence, r.CI.Lo, r.CI.Hi),
		"Avg Length": p.Sprintf("%.2f", r.Trajectory.Mean),
		"Elapsed":    formatDuration(time.Duration(r.ElapsedMs * float64(time.Millisecond))),
	}
	return fmtTable(r.ModelName+" (simulation)", keys, msg)
}

func (r *SimReport) StdOut(w io.Writer) {
	fmt.Fprint(w, r.Table())
}

func formatDuration(d time.Duration) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec < 60.0 {
		return p.Sprintf("%.3f seconds", sec)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("%dm %ds", m, s)
	}
	return p.Sprintf("%dh:%dm:%ds", h, m, s)
}
