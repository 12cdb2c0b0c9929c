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

package core

import (
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	for _, name := range []string{"pcg64", "pcg32"} {
		f, err := FactoryByName(name)
		if err != nil {
			t.Fatalf("factory %s: %v", name, err)
		}
		c1 := New(f.New(7))
		c2 := New(f.New(7))
		for i := 0; i < 5; i++ {
			if c1.Uint64() != c2.Uint64() {
				t.Fatalf("%s: Uint64 mismatch at %d", name, i)
			}
		}
		if c1.IntN(10) != c2.IntN(10) {
			t.Fatalf("%s: IntN mismatch", name)
		}
		if c1.Float64() != c2.Float64() {
			t.Fatalf("%s: Float64 mismatch", name)
		}
	}
}

func TestFactoryByName(t *testing.T) {
	if _, err := FactoryByName(""); err != nil {
		t.Fatalf("empty name should default to pcg64: %v", err)
	}
	if _, err := FactoryByName("PCG32"); err != nil {
		t.Fatalf("name should be case insensitive: %v", err)
	}
	if _, err := FactoryByName("mt19937"); err == nil {
		t.Fatalf("expected error for unknown rng")
	}
}

func TestRanges(t *testing.T) {
	for _, p := range []PRNG{Default().New(3), NewPCG32WithSeed(3)} {
		if p.IntN(0) != -1 || p.IntN(-5) != -1 {
			t.Fatalf("IntN(<=0) must be -1")
		}
		if p.UintN(0) != 0 {
			t.Fatalf("UintN(0) must be 0")
		}
		for i := 0; i < 1000; i++ {
			if v := p.IntN(7); v < 0 || v >= 7 {
				t.Fatalf("IntN out of range: %d", v)
			}
			if f := p.Float64(); f < 0 || f >= 1 {
				t.Fatalf("Float64 out of range: %v", f)
			}
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	for _, p := range []PRNG{Default().New(5), NewPCG32WithSeed(5)} {
		p.Uint64()
		snap, err := p.Snapshot()
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		want := []uint64{p.Uint64(), p.Uint64(), p.Uint64()}
		if err := p.Restore(snap); err != nil {
			t.Fatalf("restore: %v", err)
		}
		got := []uint64{p.Uint64(), p.Uint64(), p.Uint64()}
		if !slices.Equal(want, got) {
			t.Fatalf("restore did not replay sequence: %v vs %v", want, got)
		}
	}
	if err := NewPCG32WithSeed(1).Restore([]byte{1, 2}); err == nil {
		t.Fatalf("expected error on short snapshot")
	}
}

func TestCorePickAndShuffle(t *testing.T) {
	c := New(Default().New(9))
	if got := c.Pick(nil); got != -1 {
		t.Fatalf("expected -1 for empty pick, got %d", got)
	}
	if got := c.Pick([]int{42}); got != 42 {
		t.Fatalf("single element pick must return it, got %d", got)
	}

	src := []int{1, 2, 3, 4}
	c.ShuffleInts(src)
	got := slices.Clone(src)
	slices.Sort(got)
	if !slices.Equal([]int{1, 2, 3, 4}, got) {
		t.Fatalf("shuffle changed elements: %v", src)
	}
}
