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
	"maps"
	"math"
	"slices"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/tol"
)

// Builder 可變的分佈累加器，最後以 Build 或 Scaled 定型。
type Builder struct {
	m map[int]float64
}

func NewBuilder() *Builder {
	return &Builder{m: make(map[int]float64)}
}

// Add 累加機率；累加結果 <= 0 時移除該項。
func (b *Builder) Add(id int, p float64) *Builder {
	errs.Assert(id >= 0, "distribution: negative state id %d", id)
	errs.Assert(!math.IsNaN(p), "distribution: NaN probability for %d", id)
	v := b.m[id] + p
	if v <= 0 {
		delete(b.m, id)
		return b
	}
	b.m[id] = v
	return b
}

// Set 覆寫機率；p == 0 移除，p < 0 panic。
func (b *Builder) Set(id int, p float64) *Builder {
	errs.Assert(id >= 0, "distribution: negative state id %d", id)
	errs.Assert(p >= 0 && !math.IsNaN(p), "distribution: negative probability %v for %d", p, id)
	if p == 0 {
		delete(b.m, id)
		return b
	}
	b.m[id] = p
	return b
}

func (b *Builder) Get(id int) float64 {
	return b.m[id]
}

func (b *Builder) Size() int {
	return len(b.m)
}

// Sum 目前累加的總質量。
func (b *Builder) Sum() float64 {
	s := 0.0
	for _, p := range b.m {
		s += p
	}
	return s
}

// Build 保留絕對質量定型（不重新正規化）；總和超過 1 會 panic。
func (b *Builder) Build() *Distribution {
	errs.Assert(tol.Leq(b.Sum(), 1), "distribution: total mass %v exceeds 1", b.Sum())
	return b.finish(1)
}

// Scaled 重新正規化使總和為 1；空的累加回傳 Empty()。
func (b *Builder) Scaled() *Distribution {
	s := b.Sum()
	if len(b.m) == 0 || s <= 0 {
		return Empty()
	}
	return b.finish(s)
}

func (b *Builder) finish(div float64) *Distribution {
	if len(b.m) == 0 {
		return Empty()
	}
	ids := slices.Sorted(maps.Keys(b.m))
	probs := make([]float64, len(ids))
	for i, id := range ids {
		probs[i] = b.m[id] / div
	}
	return &Distribution{ids: ids, probs: probs}
}
