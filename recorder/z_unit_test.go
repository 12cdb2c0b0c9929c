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

package recorder

import "testing"

func TestRecordAndDone(t *testing.T) {
	r := NewRunRecorder("coin", 2)
	for _, n := range []int{1, 2, 3} {
		for range n {
			r.Step()
		}
		r.Trajectory(n)
	}
	r.Backtrace()
	r.Explore()
	r.Collapse(3)
	r.ComponentSearch()
	r.ExactCheck()
	r.Deadlock()

	c, ts := r.Done()
	if c.Samples != 3 || c.Steps != 6 || c.Backtraces != 1 || c.Explores != 1 {
		t.Fatalf("counters: %+v", c)
	}
	if c.Collapses != 1 || c.CollapsedStates != 3 || c.ComponentSearches != 1 || c.ExactChecks != 1 || c.Deadlocks != 1 {
		t.Fatalf("counters: %+v", c)
	}
	if ts.Count != 3 || ts.Mean != 2 {
		t.Fatalf("trajectory: %+v", ts)
	}
}

func TestMerge(t *testing.T) {
	a := NewRunRecorder("coin", 2)
	b := NewRunRecorder("coin", 2)
	a.Trajectory(1)
	a.Hit(true, false)
	b.Trajectory(3)
	b.Hit(false, true)
	m, err := MergeRunRecorder([]*RunRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	rep := m.SimReport(10, 0.95)
	if rep.Runs != 2 || rep.Hits != 1 || rep.Truncated != 1 || rep.Estimate != 0.5 || rep.Trajectory.Mean != 2 {
		t.Fatalf("sim report: %+v", rep)
	}
	if _, err := MergeRunRecorder([]*RunRecorder{a, NewRunRecorder("other", 2)}); err == nil {
		t.Fatalf("different model must fail")
	}
	if _, err := MergeRunRecorder(nil); err == nil {
		t.Fatalf("empty must fail")
	}
}
