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

package model

import (
	"math"
	"testing"

	"github.com/zintix-labs/petlab/sdk/core"
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

func TestBuildPreservesMass(t *testing.T) {
	b := NewBuilder().Add(3, 0.2).Add(1, 0.1).Add(3, 0.1).Set(7, 0.25)
	d := b.Build()
	if math.Abs(d.Sum()-0.65) > 1e-12 {
		t.Fatalf("build must keep absolute mass, got %v", d.Sum())
	}
	if got := d.Support(); len(got) != 3 || got[0] != 1 || got[1] != 3 || got[2] != 7 {
		t.Fatalf("support must be sorted ids, got %v", got)
	}
	if math.Abs(d.Get(3)-0.3) > 1e-12 || d.Get(5) != 0 {
		t.Fatalf("Get wrong: %v", d)
	}
}

func TestScaledSumsToOne(t *testing.T) {
	d := NewBuilder().Add(0, 2).Add(1, 6).Scaled()
	if math.Abs(d.Sum()-1) > 1e-12 {
		t.Fatalf("scaled sum %v", d.Sum())
	}
	if math.Abs(d.Get(1)-0.75) > 1e-12 {
		t.Fatalf("scaled prob wrong: %v", d)
	}
}

func TestBuilderRemoval(t *testing.T) {
	b := NewBuilder().Add(1, 0.5).Add(1, -0.5).Set(2, 0.4).Set(2, 0)
	if b.Size() != 0 {
		t.Fatalf("entries at <= 0 must be removed, size %d", b.Size())
	}
	if b.Build() != Empty() || b.Scaled() != Empty() {
		t.Fatalf("empty builder must return the canonical empty distribution")
	}
	assertPanic(t, func() { NewBuilder().Set(1, -0.1) }, "negative set")
	assertPanic(t, func() { NewBuilder().Add(-1, 0.1) }, "negative id")
	assertPanic(t, func() { NewBuilder().Add(0, 0.7).Add(1, 0.7).Build() }, "mass above one")
}

func TestMapIdentityRoundTrip(t *testing.T) {
	d := NewBuilder().Add(0, 0.3).Add(4, 0.7).Build()
	back := d.Map(func(id int) int { return id }).Build()
	if !d.Equal(back) {
		t.Fatalf("identity map changed distribution: %v vs %v", d, back)
	}
}

func TestMapDropsAndMerges(t *testing.T) {
	d := NewBuilder().Add(0, 0.2).Add(1, 0.3).Add(2, 0.5).Build()
	// 0 被丟棄，1 與 2 合併到 9
	m := d.Map(func(id int) int {
		if id == 0 {
			return -1
		}
		return 9
	})
	if got := m.Build(); math.Abs(got.Get(9)-0.8) > 1e-12 || got.Size() != 1 {
		t.Fatalf("build after map wrong: %v", got)
	}
	if got := m.Scaled(); !got.Equal(Dirac(9)) {
		t.Fatalf("scaled after map wrong: %v", got)
	}
	if got := d.Map(func(int) int { return -1 }).Scaled(); got != Empty() {
		t.Fatalf("mapping everything away must return Empty()")
	}
}

func TestExceptSelf(t *testing.T) {
	d := NewBuilder().Add(0, 0.5).Add(1, 0.25).Add(2, 0.25).Build()
	v := func(id int) float64 { return []float64{0.9, 1, 0}[id] }
	if got := d.SumExceptSelf(0); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("SumExceptSelf = %v", got)
	}
	if got := d.SumWeightedExceptSelf(v, 0); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("SumWeightedExceptSelf = %v, want 0.5", got)
	}
	if got := d.SumWeighted(v); math.Abs(got-0.7) > 1e-12 {
		t.Fatalf("SumWeighted = %v, want 0.7", got)
	}
	if got := Dirac(3).SumWeightedExceptSelf(v, 3); got != 0 {
		t.Fatalf("pure self loop must give 0, got %v", got)
	}
}

func TestSampleFrequencies(t *testing.T) {
	c := core.New(core.Default().New(7))
	small := NewBuilder().Add(1, 0.2).Add(5, 0.8).Build()
	b := NewBuilder()
	for i := 0; i < 20; i++ {
		b.Add(i, 1)
	}
	large := b.Scaled()

	for _, d := range []*Distribution{small, large} {
		counts := map[int]int{}
		n := 100000
		for i := 0; i < n; i++ {
			counts[d.Sample(c)]++
		}
		for id, p := range d.All() {
			if got := float64(counts[id]) / float64(n); math.Abs(got-p) > 0.01 {
				t.Fatalf("sample freq of %d = %v, want %v", id, got, p)
			}
		}
	}
	if Empty().Sample(c) != -1 {
		t.Fatalf("empty sample must be -1")
	}
}

func TestSampleWeighted(t *testing.T) {
	c := core.New(core.Default().New(3))
	d := NewBuilder().Add(1, 0.5).Add(2, 0.5).Build()
	for i := 0; i < 100; i++ {
		if got := d.SampleWeighted(c, func(id int, _ float64) float64 {
			if id == 2 {
				return 1
			}
			return 0
		}); got != 2 {
			t.Fatalf("only id 2 has weight, got %d", got)
		}
	}
	if got := d.SampleWeighted(c, func(int, float64) float64 { return 0 }); got != -1 {
		t.Fatalf("zero total weight must return -1, got %d", got)
	}
}

func TestEqualTolerant(t *testing.T) {
	a := NewBuilder().Add(0, 0.1).Add(1, 0.2).Scaled()
	b := NewBuilder().Add(0, 1.0/3).Add(1, 2.0/3).Build()
	if !a.Equal(b) {
		t.Fatalf("expected tolerant equality: %v vs %v", a, b)
	}
	if a.Equal(Dirac(0)) {
		t.Fatalf("different supports must differ")
	}
	if !a.Contains(1) || a.Contains(2) {
		t.Fatalf("Contains wrong")
	}
	if !a.AnyMatch(func(id int) bool { return id == 1 }) {
		t.Fatalf("AnyMatch wrong")
	}
}
