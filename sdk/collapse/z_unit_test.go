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

package collapse

import (
	"slices"
	"testing"

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

type fixed [][]*model.Distribution

func (f fixed) NumStates() int { return len(f) }
func (f fixed) Choices(s int) []*model.Distribution { return f[s] }

func dist(kv ...float64) *model.Distribution {
	b := model.NewBuilder()
	for i := 0; i+1 < len(kv); i += 2 {
		b.Add(int(kv[i]), kv[i+1])
	}
	return b.Build()
}

// 0 -> {1,2}；{1,2} 互相可達並可逃到 3 或 4；3 自迴圈；4 回到 0 或自迴圈。
func sample() fixed {
	return fixed{
		{dist(1, 0.5, 2, 0.5)},
		{dist(2, 1), dist(3, 1)},
		{dist(1, 1), dist(4, 1)},
		{dist(3, 1)},
		{dist(0, 0.5, 4, 0.5)},
	}
}

func sameChoices(a, b []*model.Distribution) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if !slices.ContainsFunc(b, x.Equal) {
			return false
		}
	}
	return true
}

func TestCollapseRewritesRepresentative(t *testing.T) {
	v := New(sample(), nil)
	reps := v.Collapse([][]int{{2, 1}})
	if len(reps) != 1 || reps[0] != 1 {
		t.Fatalf("representative must be the smallest member, got %v", reps)
	}
	if !v.IsRemoved(2) || v.IsRemoved(1) || v.RemovedCount() != 1 {
		t.Fatalf("removed bookkeeping wrong")
	}
	got := v.Choices(1)
	if !sameChoices(got, []*model.Distribution{dist(3, 1), dist(4, 1)}) {
		t.Fatalf("rep choices wrong: %v", got)
	}
	for _, d := range got {
		if d.Contains(1) || d.Contains(2) {
			t.Fatalf("rep choice keeps internal edge: %v", d)
		}
	}
	assertPanic(t, func() { v.Choices(2) }, "choices of removed state")
}

func TestLazyRecomputeOfOtherStates(t *testing.T) {
	v := New(sample(), nil)
	v.Collapse([][]int{{1, 2}})
	if got := v.Choices(0); len(got) != 1 || !got[0].Equal(dist(1, 1)) {
		t.Fatalf("state 0 must be remapped onto the representative: %v", got)
	}
	if got := v.Choices(4); len(got) != 1 || !got[0].Equal(dist(0, 1)) {
		t.Fatalf("self loop mass must be dropped and rescaled: %v", got)
	}
	if got := v.Choices(3); len(got) != 0 {
		t.Fatalf("pure self loop must disappear: %v", got)
	}
	if got := v.Successors(0); !slices.Equal(got, []int{1}) {
		t.Fatalf("successors wrong: %v", got)
	}
}

func TestRepresentativeIdempotent(t *testing.T) {
	v := New(sample(), nil)
	v.Collapse([][]int{{1, 2}})
	v.Collapse([][]int{{0, 4}})
	v.Collapse([][]int{{0, 1}})
	for s := 0; s < 8; s++ {
		r := v.Representative(s)
		if v.Representative(r) != r {
			t.Fatalf("representative not idempotent at %d", s)
		}
	}
	if v.Representative(2) != 0 || v.Representative(4) != 0 || v.Representative(3) != 3 {
		t.Fatalf("unexpected representatives")
	}
	if got := v.Representatives(); !slices.Equal(got, []int{0}) {
		t.Fatalf("representatives = %v", got)
	}
}

func TestOrderIndependence(t *testing.T) {
	sep := New(sample(), nil)
	sep.Collapse([][]int{{1, 2}})
	sep.Collapse([][]int{{0, 4}})

	joint := New(sample(), nil)
	joint.Collapse([][]int{{1, 2}, {0, 4}})

	for s := 0; s < 5; s++ {
		if sep.Representative(s) != joint.Representative(s) {
			t.Fatalf("representative of %d differs", s)
		}
		if sep.IsRemoved(s) {
			continue
		}
		if !sameChoices(sep.Choices(s), joint.Choices(s)) {
			t.Fatalf("choices of %d differ: %v vs %v", s, sep.Choices(s), joint.Choices(s))
		}
	}
}

func TestDeduplicate(t *testing.T) {
	m := fixed{
		{dist(1, 1), dist(2, 1)},
		{dist(3, 1)},
		{dist(3, 1)},
		{},
	}
	v := New(m, nil)
	v.Collapse([][]int{{0, 1, 2}})
	if got := v.Choices(0); len(got) != 1 || !got[0].Equal(dist(3, 1)) {
		t.Fatalf("duplicate escape choices must be merged: %v", got)
	}
}

func TestCollapseRejectsBadInput(t *testing.T) {
	v := New(sample(), nil)
	assertPanic(t, func() { v.Collapse([][]int{{}}) }, "empty part")
	assertPanic(t, func() { v.Collapse([][]int{{0, 1}, {1, 2}}) }, "overlapping parts")
	v.Collapse([][]int{{1, 2}})
	assertPanic(t, func() { v.Collapse([][]int{{2, 3}}) }, "removed state")
	// 失敗的呼叫不得留下部分結果
	if v.IsRemoved(3) || v.RemovedCount() != 1 {
		t.Fatalf("rejected collapse must not mutate the view")
	}
}

func TestGrowth(t *testing.T) {
	grown := append(sample(), []*model.Distribution{dist(5, 1)}, []*model.Distribution{dist(4, 1)})
	v := New(grown[:5], nil)
	v.Collapse([][]int{{1, 2}})
	v.base = grown
	reps := v.Collapse([][]int{{5, 6}})
	if reps[0] != 5 || !v.IsRemoved(6) || v.Representative(6) != 5 {
		t.Fatalf("union-find must grow for new states")
	}
}
