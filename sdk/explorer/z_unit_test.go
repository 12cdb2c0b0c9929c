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

package explorer

import (
	"errors"
	"testing"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/model"
)

func assertPanic(t *testing.T, f func(), msg string) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for %s, but got none", msg)
		}
	}()
	f()
}

// line 0 -> 1 -> ... -> n（n 為吸收態），每步機率 1，n 以上不存在。
type line struct {
	n   int
	err error
	bad bool
}

func (l line) InitialStates() ([]int, error) { return []int{0}, nil }

func (l line) Choices(s int) ([]model.Choice[int], error) {
	if l.err != nil && s == 1 {
		return nil, l.err
	}
	if l.bad && s == 1 {
		return []model.Choice[int]{{Transitions: []model.Transition[int]{{To: 2, Prob: 0.4}}}}, nil
	}
	if s >= l.n {
		return []model.Choice[int]{{Label: "stay", Transitions: []model.Transition[int]{{To: s, Prob: 1}}}}, nil
	}
	return []model.Choice[int]{
		{Label: "step", Transitions: []model.Transition[int]{{To: s + 1, Prob: 0.5}, {To: s + 1, Prob: 0.5}}},
		{Label: "split", Transitions: []model.Transition[int]{{To: s + 1, Prob: 0.25}, {To: 0, Prob: 0.75}}},
	}, nil
}

func TestExploreGrowsFringe(t *testing.T) {
	e, err := New[int](line{n: 3}, func(s int) bool { return s == 3 }, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if e.NumStates() != 1 || e.FringeCount() != 1 || e.ExploredCount() != 0 {
		t.Fatalf("only the initial state should be known")
	}
	if err := e.ExploreState(0); err != nil {
		t.Fatalf("explore: %v", err)
	}
	if e.NumStates() != 2 || e.FringeCount() != 1 || !e.IsExplored(0) || e.IsExplored(1) {
		t.Fatalf("exploring 0 should discover exactly 1: states=%d fringe=%d", e.NumStates(), e.FringeCount())
	}
	ch := e.Choices(0)
	if len(ch) != 2 || ch[0].Get(1) != 1 || ch[1].Get(0) != 0.75 {
		t.Fatalf("unexpected choices %v", ch)
	}
	if l := e.Labels(0); l[0] != "step" || l[1] != "split" {
		t.Fatalf("labels lost: %v", l)
	}
	// 冪等
	if err := e.ExploreState(0); err != nil || e.ExploredCount() != 1 {
		t.Fatalf("second explore must be a no-op")
	}
	assertPanic(t, func() { e.Choices(1) }, "choices of fringe state")
}

func TestTargetsAndDescribe(t *testing.T) {
	p, err := Bind[int](line{n: 2}, func(s int) bool { return s == 2 })(Config{})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	for id := 0; id < 3; id++ {
		if id >= p.NumStates() {
			t.Fatalf("state %d not discovered", id)
		}
		if err := p.ExploreState(id); err != nil {
			t.Fatalf("explore %d: %v", id, err)
		}
	}
	if !p.IsTarget(2) || p.IsTarget(1) {
		t.Fatalf("target flags wrong")
	}
	if p.Describe(2) != "2" {
		t.Fatalf("describe wrong: %q", p.Describe(2))
	}
	if got := p.ExploredStates(); len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Fatalf("explored order wrong: %v", got)
	}
}

func TestGeneratorErrorsPassThrough(t *testing.T) {
	boom := errors.New("boom")
	e, _ := New[int](line{n: 3, err: boom}, nil, Config{})
	_ = e.ExploreState(0)
	if err := e.ExploreState(1); err != boom {
		t.Fatalf("generator error must be returned unmodified, got %v", err)
	}
	if e.IsExplored(1) {
		t.Fatalf("failed explore must not mark state explored")
	}
}

func TestMalformedOutputIsWarn(t *testing.T) {
	e, _ := New[int](line{n: 3, bad: true}, nil, Config{})
	_ = e.ExploreState(0)
	n := e.NumStates()
	err := e.ExploreState(1)
	ee, ok := errs.AsErr(err)
	if !ok || ee.ErrLv != errs.Warn {
		t.Fatalf("expected warn error, got %v", err)
	}
	if e.NumStates() != n {
		t.Fatalf("malformed output must not add states")
	}
}

func TestRemoveSelfLoops(t *testing.T) {
	e, _ := New[int](line{n: 1}, nil, Config{RemoveSelfLoops: true})
	_ = e.ExploreState(0)
	if err := e.ExploreState(1); err != nil {
		t.Fatalf("explore: %v", err)
	}
	if len(e.Choices(1)) != 0 {
		t.Fatalf("pure self loop should have been removed: %v", e.Choices(1))
	}
	keep, _ := New[int](line{n: 1}, nil, Config{})
	_ = keep.ExploreState(0)
	_ = keep.ExploreState(1)
	if len(keep.Choices(1)) != 1 {
		t.Fatalf("self loop must stay by default")
	}
}

func TestAvoidIsDeadlock(t *testing.T) {
	// 1 的 generator 會出錯，avoid 狀態不能呼叫它
	e, err := NewUntil[int](line{n: 3, err: errors.New("boom")},
		func(s int) bool { return s == 3 }, func(s int) bool { return s == 1 }, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := e.ExploreState(0); err != nil {
		t.Fatalf("explore 0: %v", err)
	}
	if err := e.ExploreState(1); err != nil {
		t.Fatalf("avoid state must not reach the generator: %v", err)
	}
	if !e.IsAvoid(1) || e.IsAvoid(0) || len(e.Choices(1)) != 0 {
		t.Fatalf("avoid state must be an explored deadlock")
	}

	// target 優先於 avoid
	both, err := NewUntil[int](line{n: 1}, func(s int) bool { return s == 1 }, func(s int) bool { return s == 1 }, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := both.ExploreState(0); err != nil {
		t.Fatalf("explore: %v", err)
	}
	if !both.IsTarget(1) || both.IsAvoid(1) {
		t.Fatalf("target must win over avoid")
	}
}
