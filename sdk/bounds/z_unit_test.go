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

package bounds

import (
	"math"
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

func dist(kv ...float64) *model.Distribution {
	b := model.NewBuilder()
	for i := 0; i+1 < len(kv); i += 2 {
		b.Add(int(kv[i]), kv[i+1])
	}
	return b.Build()
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBoundsBasics(t *testing.T) {
	assertPanic(t, func() { Of(0.6, 0.4) }, "lower above upper")
	assertPanic(t, func() { Of(-0.1, 0.4) }, "negative lower")
	assertPanic(t, func() { Of(0.1, 1.1) }, "upper above one")
	if b := Of(-1e-15, 1+1e-15); b != Unknown {
		t.Fatalf("rounding noise must be clamped, got %v", b)
	}
	if Unknown.String() != "[?]" || One.String() != "=1" || Of(0.25, 0.5).String() != "[0.25,0.5]" {
		t.Fatalf("String wrong: %s %s %s", Unknown, One, Of(0.25, 0.5))
	}
	b := Of(0.2, 0.6)
	if !near(b.Difference(), 0.4) || !near(b.Average(), 0.4) || !b.Contains(0.6) || b.Contains(0.7) {
		t.Fatalf("accessors wrong")
	}
	if !b.Solved(0.5) || b.Solved(0.4) {
		t.Fatalf("solved must be a strict width test")
	}
	// 0.6-0.2 在浮點下略小於 0.4，容差內相等仍不算解出
	if b.Difference() >= 0.4 || Of(0.1, 0.2).Solved(0.1) || !Of(0.1, 0.2).Solved(0.1+1e-9) {
		t.Fatalf("solved must compare widths with tolerance")
	}
	if got := b.Intersect(Of(0.3, 0.9)); !got.Equal(Of(0.3, 0.6)) {
		t.Fatalf("intersect = %v", got)
	}
	assertPanic(t, func() { Of(0, 0.1).Intersect(Of(0.5, 1)) }, "disjoint intersect")
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Max, "MAX": Max, "min": Min, " unique ": Unique} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Fatalf("ParseDirection(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDirection("avg"); err == nil {
		t.Fatalf("expected error")
	}
	if Min.String() != "min" {
		t.Fatalf("String wrong")
	}
}

func TestBellman(t *testing.T) {
	vals := map[int]Bounds{1: Of(0.2, 0.4), 2: Of(0.6, 1), 3: Zero}
	cur := func(s int) Bounds {
		if b, ok := vals[s]; ok {
			return b
		}
		return Of(0.1, 0.9)
	}
	if got := Bellman(0, nil, Max, cur); got != Zero {
		t.Fatalf("deadlock must be zero, got %v", got)
	}
	// 自迴圈 0.5 被排除並重新正規化
	got := Bellman(0, []*model.Distribution{dist(0, 0.5, 1, 0.25, 2, 0.25)}, Unique, cur)
	if !near(got.Lower, 0.4) || !near(got.Upper, 0.7) {
		t.Fatalf("self loop exclusion wrong: %v", got)
	}
	if got := Bellman(0, []*model.Distribution{dist(0, 1)}, Max, cur); !got.Equal(cur(0)) {
		t.Fatalf("pure self loop must keep the current bound, got %v", got)
	}
	// 上下界分別取極值：max 的下界來自 2，上界也來自 2；min 的上界來自 3
	choices := []*model.Distribution{dist(1, 1), dist(2, 1), dist(3, 1)}
	if got := Bellman(0, choices, Max, cur); !got.Equal(Of(0.6, 1)) {
		t.Fatalf("max = %v", got)
	}
	if got := Bellman(0, choices, Min, cur); !got.Equal(Zero) {
		t.Fatalf("min = %v", got)
	}
	mixed := []*model.Distribution{dist(1, 1), dist(4, 1)}
	if got := Bellman(0, mixed, Max, cur); !got.Equal(Of(0.2, 0.9)) {
		t.Fatalf("max must not couple lower and upper: %v", got)
	}
	assertPanic(t, func() { Bellman(0, choices, Unique, cur) }, "unique with several choices")
}

func TestStoreStates(t *testing.T) {
	s := NewStore(func(x int) bool { return x == 9 })
	if s.Bounds(9) != One || s.Bounds(1) != Unknown {
		t.Fatalf("defaults wrong")
	}
	s.SetBounds(1, Of(0.3, 0.8))
	s.SetBounds(1, Of(0.1, 0.6))
	if got := s.Bounds(1); !got.Equal(Of(0.3, 0.6)) {
		t.Fatalf("bounds must only tighten, got %v", got)
	}
	assertPanic(t, func() { s.SetBounds(1, Of(0.7, 0.9)) }, "disjoint update")

	s.SetBounds(2, Of(0, 1e-14))
	if s.Bounds(2) != Zero || !s.IsAbsorbing(2) {
		t.Fatalf("upper ~0 must become the zero marker")
	}
	s.SetBounds(3, Of(1-1e-14, 1))
	if s.Bounds(3) != One {
		t.Fatalf("lower ~1 must become the one marker")
	}
	assertPanic(t, func() { s.SetZero(3) }, "zero on a one state")
	s.Clear(3)
	if s.Bounds(3) != Unknown {
		t.Fatalf("clear must forget everything")
	}
	assertPanic(t, func() { s.Update(9, nil, Max) }, "update on target")
	assertPanic(t, func() { s.SetBounds(9, One) }, "set bounds on target")
	if s.Known() != 2 {
		t.Fatalf("known = %d", s.Known())
	}
}

func TestStoreUpdateMonotone(t *testing.T) {
	// 0 -> {1: 0.5, 2(target): 0.5}，1 先未知再被逐步收緊
	s := NewStore(func(x int) bool { return x == 2 })
	ch := []*model.Distribution{dist(1, 0.5, 2, 0.5)}
	prev := s.Update(0, ch, Unique)
	if !prev.Equal(Of(0.5, 1)) {
		t.Fatalf("first update = %v", prev)
	}
	for _, b := range []Bounds{Of(0.1, 0.9), Of(0.1, 0.95), Of(0.4, 0.5), Of(0.3, 0.45)} {
		s.SetBounds(1, b)
		cur := s.Update(0, ch, Unique)
		if cur.Lower < prev.Lower-1e-12 || cur.Upper > prev.Upper+1e-12 {
			t.Fatalf("bounds loosened: %v -> %v", prev, cur)
		}
		prev = cur
	}
	if !prev.Equal(Of(0.7, 0.725)) {
		t.Fatalf("final bounds = %v", prev)
	}
	s.SetZero(1)
	s.Update(1, nil, Max)
	if s.Bounds(1) != Zero {
		t.Fatalf("absorbing states must not change on update")
	}
}

func TestDenseTable(t *testing.T) {
	d := NewDenseTable()
	if d.Upper(0, 3) != 1 || d.Upper(0, 0) != 0 || d.Upper(0, -2) != 0 {
		t.Fatalf("defaults wrong")
	}
	d.SetUpper(0, 5, 0.4)
	if d.Upper(0, 5) != 0.4 || d.Upper(0, 2) != 0.4 || d.Upper(0, 6) != 1 {
		t.Fatalf("write must clamp smaller steps only")
	}
	d.SetUpper(0, 5, 0.7)
	if d.Upper(0, 5) != 0.4 {
		t.Fatalf("looser write must be ignored")
	}
	d.SetUpper(0, 3, 0.2)
	if d.Upper(0, 3) != 0.2 || d.Upper(0, 4) != 0.4 {
		t.Fatalf("monotone in k broken")
	}
	d.SetUpper(1, 4, 1)
	if d.Upper(1, 4) != 1 {
		t.Fatalf("write of 1 is a no-op")
	}
	d.SetUpper(1, 4, 1e-15)
	if !d.IsZero(1, 4) || !d.IsZero(1, 2) || d.IsZero(1, 5) {
		t.Fatalf("near-zero write must zero steps <= k")
	}
	d.SetZeroAll(2)
	if !d.IsZero(2, 1000) {
		t.Fatalf("zero all")
	}
	for k := 100; k >= 1; k-- {
		d.SetUpper(3, k, 0.5)
	}
	if d.Upper(3, 100) != 0.5 || d.Upper(3, 101) != 1 {
		t.Fatalf("growth wrong")
	}
}

func TestApproxTableOffsets(t *testing.T) {
	a := NewApproxTable(4, 3)
	cases := []struct {
		k, off int
		stores bool
	}{
		{1, 1, true}, {3, 3, true},
		{4, 4, false}, {5, 4, false}, {6, 4, true},
		{7, 5, false}, {9, 5, true}, {10, 6, false},
	}
	for _, c := range cases {
		if got := a.Offset(c.k); got != c.off {
			t.Fatalf("Offset(%d) = %d, want %d", c.k, got, c.off)
		}
		if got := a.Stores(c.k); got != c.stores {
			t.Fatalf("Stores(%d) = %v, want %v", c.k, got, c.stores)
		}
	}
	if a.Stores(0) {
		t.Fatalf("k=0 is never stored")
	}
	assertPanic(t, func() { NewApproxTable(0, 3) }, "invalid threshold")
}

func TestApproxTableReadsBlock(t *testing.T) {
	a := NewApproxTable(4, 3)
	a.SetUpper(0, 5, 0.3) // 非儲存點，忽略
	if a.Upper(0, 5) != 1 {
		t.Fatalf("write at non-stored step must be ignored")
	}
	a.SetUpper(0, 6, 0.3)
	for _, k := range []int{4, 5, 6} {
		if a.Upper(0, k) != 0.3 {
			t.Fatalf("block read at %d = %v", k, a.Upper(0, k))
		}
	}
	if a.Upper(0, 3) != 0.3 || a.Upper(0, 7) != 1 {
		t.Fatalf("clamp/extent wrong")
	}
	a.SetUpper(0, 3, 0.1)
	if a.Upper(0, 3) != 0.1 || a.Upper(0, 6) != 0.3 {
		t.Fatalf("exact prefix write wrong")
	}
}

func TestStepTableMonotonicityLaw(t *testing.T) {
	for _, tab := range []StepTable{NewDenseTable(), NewApproxTable(2, 4)} {
		prev := 1.0
		for i, v := range []float64{0.9, 0.95, 0.7, 0.7, 0.8, 0.3} {
			tab.SetUpper(0, 5, v)
			cur := tab.Upper(0, 5)
			if cur > prev {
				t.Fatalf("write %d increased upper: %v -> %v", i, prev, cur)
			}
			prev = cur
		}
	}
}

func TestBoundedStore(t *testing.T) {
	// 0 -> {0: 0.5, 1(target): 0.5}
	s := NewBoundedStore(func(x int) bool { return x == 1 }, nil)
	if s.Bounds(1, 0) != One || s.Bounds(0, 0) != Zero || s.Bounds(0, 3) != Unknown {
		t.Fatalf("defaults wrong")
	}
	ch := []*model.Distribution{dist(0, 0.5, 1, 0.5)}
	if got := s.Update(0, 1, ch, Unique); !got.Equal(Of(0.5, 0.5)) {
		t.Fatalf("k=1: %v", got)
	}
	// 自迴圈會消耗一步：k=2 為 0.5 + 0.25
	if got := s.Update(0, 2, ch, Unique); !got.Equal(Of(0.75, 0.75)) {
		t.Fatalf("k=2: %v", got)
	}
	if s.Bounds(0, 1).Upper > s.Bounds(0, 2).Upper {
		t.Fatalf("upper must be monotone in k")
	}
	s.Update(2, 5, nil, Max)
	if s.Bounds(2, 5) != Zero || s.Bounds(2, 50) != Zero {
		t.Fatalf("deadlock must zero all steps")
	}
	assertPanic(t, func() { s.Update(1, 2, ch, Max) }, "update on target")
}

func TestApproxTableAnchor(t *testing.T) {
	// T=8, W=4；未對齊時 40 不是端點
	if NewApproxTable(8, 4).Stores(40) {
		t.Fatalf("40 must not be a block end without an anchor")
	}
	a := NewApproxTable(8, 4).Anchor(42)
	cases := []struct {
		k, off int
		stores bool
	}{
		{7, 7, true}, {8, 8, false}, {10, 8, true},
		{11, 9, false}, {14, 9, true}, {42, 16, true}, {41, 16, false},
	}
	for _, c := range cases {
		if got := a.Offset(c.k); got != c.off {
			t.Fatalf("Offset(%d) = %d, want %d", c.k, got, c.off)
		}
		if got := a.Stores(c.k); got != c.stores {
			t.Fatalf("Stores(%d) = %v, want %v", c.k, got, c.stores)
		}
	}
	a.SetUpper(0, 42, 0.6)
	if a.Upper(0, 42) != 0.6 || a.Upper(0, 39) != 0.6 {
		t.Fatalf("horizon write must land: %v", a.Upper(0, 42))
	}
	// horizon 小於 threshold 時每一步都精確
	small := NewApproxTable(8, 4).Anchor(5)
	for k := 1; k <= 5; k++ {
		if !small.Stores(k) {
			t.Fatalf("step %d below threshold must be stored", k)
		}
	}
	assertPanic(t, func() { a.Anchor(50) }, "anchor after writes")
}

func TestStepTableLower(t *testing.T) {
	d := NewDenseTable()
	if d.Lower(0, 3) != 0 || d.Lower(0, 0) != 0 {
		t.Fatalf("lower defaults wrong")
	}
	d.SetLower(0, 3, 0.2)
	d.SetLower(0, 5, 0.4)
	if d.Lower(0, 3) != 0.2 || d.Lower(0, 4) != 0.2 || d.Lower(0, 5) != 0.4 || d.Lower(0, 2) != 0 {
		t.Fatalf("lower must raise larger steps only: %v %v %v", d.Lower(0, 3), d.Lower(0, 4), d.Lower(0, 5))
	}
	d.SetLower(0, 5, 0.1)
	if d.Lower(0, 5) != 0.4 {
		t.Fatalf("looser lower must be ignored")
	}

	a := NewApproxTable(4, 3)
	a.SetLower(0, 5, 0.5) // 非儲存點
	if a.Lower(0, 5) != 0 {
		t.Fatalf("lower at non-stored step must be ignored")
	}
	a.SetLower(0, 3, 0.2)
	a.SetLower(0, 6, 0.5)
	// 4、5 在區塊 [4,6] 內，只能用前一個端點 3 的下界
	for _, k := range []int{4, 5} {
		if a.Lower(0, k) != 0.2 {
			t.Fatalf("block read of lower at %d = %v", k, a.Lower(0, k))
		}
	}
	if a.Lower(0, 6) != 0.5 || a.Lower(0, 7) != 0.5 {
		t.Fatalf("lower at block end wrong: %v %v", a.Lower(0, 6), a.Lower(0, 7))
	}
	a.SetZeroAll(0)
	if a.Lower(0, 6) != 0 || a.Upper(0, 6) != 0 {
		t.Fatalf("zero all must clear both bounds")
	}
}

func TestBoundedStoreApproxHorizon(t *testing.T) {
	// 0 -> {0: 0.5, 1(target): 0.5}；bound(0, k) = 1 - 0.5^k
	exact := func(k int) float64 { return 1 - math.Pow(0.5, float64(k)) }
	for _, horizon := range []int{9, 10, 11, 12} {
		s := NewBoundedStore(func(x int) bool { return x == 1 }, NewApproxTable(3, 4).Anchor(horizon))
		for k := 1; k <= horizon; k++ {
			s.SetBounds(0, k, Of(exact(k), exact(k)))
		}
		for k := 1; k <= horizon; k++ {
			if !s.Bounds(0, k).Contains(exact(k)) {
				t.Fatalf("horizon %d: bounds %v at step %d must contain %v", horizon, s.Bounds(0, k), k, exact(k))
			}
		}
		if got := s.Bounds(0, horizon); !got.Solved(1e-9) {
			t.Fatalf("horizon %d: exact writes must solve the horizon, got %v", horizon, got)
		}
	}
	// 未對齊時 9 落在區塊中間，上界停在 1
	loose := NewBoundedStore(func(x int) bool { return x == 1 }, NewApproxTable(3, 4))
	for k := 1; k <= 9; k++ {
		loose.SetBounds(0, k, Of(exact(k), exact(k)))
	}
	if loose.Bounds(0, 9).Upper != 1 {
		t.Fatalf("unanchored table unexpectedly stores step 9")
	}
}

func TestBoundedStoreOpen(t *testing.T) {
	explored := map[int]bool{0: true}
	s := NewBoundedStore(nil, nil)
	s.SetOpen(func(x int) bool { return !explored[x] })
	if s.Bounds(1, 0) != Unknown || s.Bounds(1, 5) != Unknown {
		t.Fatalf("open state must stay unknown at every step")
	}
	if s.Bounds(0, 0) != Zero {
		t.Fatalf("closed state at step 0 must be zero")
	}
	// 0 -> {1(open): 0.5, 0: 0.5}：最後一步走到 1 也算逃出
	ch := []*model.Distribution{dist(0, 0.5, 1, 0.5)}
	if got := s.Update(0, 1, ch, Unique); !got.Equal(Of(0, 0.5)) {
		t.Fatalf("escape on the last step lost: %v", got)
	}
}
