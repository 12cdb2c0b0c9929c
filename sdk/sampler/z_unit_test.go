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

package sampler

import (
	"math"
	"testing"

	"github.com/zintix-labs/petlab/sdk/core"
)

// assertPanic 驗證函數是否如預期觸發 panic
func assertPanic(t *testing.T, f func(), msg string) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for %s, but got none", msg)
		}
	}()
	f()
}

// checkDistribution 驗證抽樣結果的分佈是否符合預期權重
func checkDistribution(t *testing.T, name string, weights []float64, draw func() int, n int, tolerance float64) {
	t.Helper()
	total := 0.0
	for _, w := range weights {
		total += w
	}
	counts := make(map[int]int)
	for i := 0; i < n; i++ {
		counts[draw()]++
	}
	for i, w := range weights {
		if w == 0 {
			if counts[i] > 0 {
				t.Errorf("[%s] expected 0 samples for index %d (weight 0), got %d", name, i, counts[i])
			}
			continue
		}
		expected := w / total
		actual := float64(counts[i]) / float64(n)
		if diff := math.Abs(expected - actual); diff > tolerance {
			t.Errorf("[%s] index %d: expected prob %.3f, got %.3f (diff %.3f > tol %.3f)",
				name, i, expected, actual, diff, tolerance)
		}
	}
}

func TestAliasTableDistribution(t *testing.T) {
	c := core.New(core.Default().New(7))
	cases := map[string][]float64{
		"uniform": {1, 1, 1, 1},
		"skewed":  {0.7, 0.2, 0.1},
		"zeros":   {0, 0.5, 0, 0.5},
		"single":  {3},
		"tiny":    {1e-3, 1, 2, 0},
	}
	for name, w := range cases {
		at := BuildAliasTable(w)
		checkDistribution(t, name, w, func() int { return at.Pick(c) }, 200000, 0.01)
	}
}

func TestAliasTableEdgeCases(t *testing.T) {
	c := core.New(core.Default().New(1))
	if got := BuildAliasTable(nil).Pick(c); got != -1 {
		t.Fatalf("empty table must pick -1, got %d", got)
	}
	assertPanic(t, func() { BuildAliasTable([]float64{1, -1}) }, "negative weight")
	assertPanic(t, func() { BuildAliasTable([]float64{0, 0}) }, "all zero weights")
}

func TestPickWeighted(t *testing.T) {
	c := core.New(core.Default().New(11))
	w := []float64{0.25, 0, 0.75}
	checkDistribution(t, "linear", w, func() int { return PickWeighted(c, w) }, 200000, 0.01)

	if got := PickWeighted(c, []float64{0, 0}); got != -1 {
		t.Fatalf("zero total must return -1, got %d", got)
	}
	if got := PickWeighted(c, nil); got != -1 {
		t.Fatalf("empty weights must return -1, got %d", got)
	}
	assertPanic(t, func() { PickWeighted(c, []float64{1, -0.5}) }, "negative weight")
}
