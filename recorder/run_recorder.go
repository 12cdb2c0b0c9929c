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

// Package recorder 記錄一次檢驗或模擬過程中的取樣統計。
package recorder

import (
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/spec"
	"github.com/zintix-labs/petlab/stats"
)

// RunRecorder 取樣紀錄員
//
// 只做整數累加，Done 時才一次計算統計。非併發安全：每個 worker 一個，最後 Merge。
type RunRecorder struct {
	ModelName string
	ModelID   spec.MID
	counters  stats.Counters
	lengths   []float64
	hits      int
	truncated int
}

func NewRunRecorder(name string, id spec.MID) *RunRecorder {
	return &RunRecorder{
		ModelName: name,
		ModelID:   id,
		lengths:   make([]float64, 0, 1024),
	}
}

// MergeRunRecorder 合併同一模型的多份紀錄。
func MergeRunRecorder(r []*RunRecorder) (*RunRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge run record err : empty input")
	}
	r0 := r[0]
	out := NewRunRecorder(r0.ModelName, r0.ModelID)
	for _, v := range r {
		if v.ModelName != r0.ModelName || v.ModelID != r0.ModelID {
			return nil, errs.NewFatal("merge run record err : different model")
		}
		c := &out.counters
		c.Samples += v.counters.Samples
		c.Steps += v.counters.Steps
		c.Backtraces += v.counters.Backtraces
		c.Explores += v.counters.Explores
		c.Collapses += v.counters.Collapses
		c.CollapsedStates += v.counters.CollapsedStates
		c.ComponentSearches += v.counters.ComponentSearches
		c.ExactChecks += v.counters.ExactChecks
		c.Deadlocks += v.counters.Deadlocks
		out.lengths = append(out.lengths, v.lengths...)
		out.hits += v.hits
		out.truncated += v.truncated
	}
	return out, nil
}

// Trajectory 一條路徑結束，length 為步數。
func (r *RunRecorder) Trajectory(length int) {
	r.counters.Samples++
	r.lengths = append(r.lengths, float64(length))
}

func (r *RunRecorder) Step() {
	r.counters.Steps++
}

func (r *RunRecorder) Backtrace() {
	r.counters.Backtraces++
}

func (r *RunRecorder) Explore() {
	r.counters.Explores++
}

// Collapse 一次合併，absorbed 為被併入代表的狀態數。
func (r *RunRecorder) Collapse(absorbed int) {
	r.counters.Collapses++
	r.counters.CollapsedStates += int64(absorbed)
}

func (r *RunRecorder) ComponentSearch() {
	r.counters.ComponentSearches++
}

func (r *RunRecorder) ExactCheck() {
	r.counters.ExactChecks++
}

func (r *RunRecorder) Deadlock() {
	r.counters.Deadlocks++
}

// Hit 模擬用：本次是否抵達目標；truncated 表示因步數上限中止。
func (r *RunRecorder) Hit(reached bool, truncated bool) {
	if reached {
		r.hits++
	}
	if truncated {
		r.truncated++
	}
}

func (r *RunRecorder) Samples() int64 {
	return r.counters.Samples
}

func (r *RunRecorder) Counters() stats.Counters {
	return r.counters
}

// Done 轉成報表需要的片段。
func (r *RunRecorder) Done() (stats.Counters, stats.TrajectoryStats) {
	return r.counters, stats.Summarize(r.lengths)
}

// SimReport 以模擬紀錄填出報表並計算信賴區間。
func (r *RunRecorder) SimReport(maxSteps int, confidence float64) *stats.SimReport {
	rep := &stats.SimReport{
		ModelID:    r.ModelID,
		ModelName:  r.ModelName,
		Runs:       int(r.counters.Samples),
		MaxSteps:   maxSteps,
		Hits:       r.hits,
		Truncated:  r.truncated,
		Confidence: confidence,
		Trajectory: stats.Summarize(r.lengths),
	}
	rep.Done()
	return rep
}
