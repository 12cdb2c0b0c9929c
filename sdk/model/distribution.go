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

// Package model 定義稀疏機率分佈與狀態生成器邊界。
//
// Distribution 一旦建好就不可變；任何改寫（例如 collapse 後的重映射）都透過
// Map 產生新的 Builder，再 Build / Scaled 出新的 Distribution。
package model

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/sampler"
	"github.com/zintix-labs/petlab/sdk/tol"
)

// aliasMinSize 支撐集大於此值時才建 alias table，小分佈線性掃描較快。
const aliasMinSize = 8

// Distribution 後繼狀態 id -> 機率 的不可變稀疏映射。
//
// ids 嚴格遞增，probs 與 ids 一一對應且皆 > 0。
type Distribution struct {
	ids   []int
	probs []float64

	aliasOnce sync.Once
	alias     *sampler.AliasTable
}

var empty = &Distribution{}

// Empty 回傳唯一的空分佈。
func Empty() *Distribution {
	return empty
}

// Dirac 回傳集中在單一狀態的分佈。
func Dirac(id int) *Distribution {
	return NewBuilder().Set(id, 1).Build()
}

func (d *Distribution) Size() int {
	return len(d.ids)
}

func (d *Distribution) IsEmpty() bool {
	return len(d.ids) == 0
}

// Get 回傳 id 的機率，不在支撐集內回傳 0。
func (d *Distribution) Get(id int) float64 {
	if i, ok := slices.BinarySearch(d.ids, id); ok {
		return d.probs[i]
	}
	return 0
}

// Contains 支撐集查詢 O(log n)
func (d *Distribution) Contains(id int) bool {
	_, ok := slices.BinarySearch(d.ids, id)
	return ok
}

// Support 回傳支撐集（遞增）的副本。
func (d *Distribution) Support() []int {
	return slices.Clone(d.ids)
}

// All 依 id 遞增走訪 (id, prob)。
func (d *Distribution) All() iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for i, id := range d.ids {
			if !yield(id, d.probs[i]) {
				return
			}
		}
	}
}

// AnyMatch 任一支撐元素滿足 pred 即回傳 true。
func (d *Distribution) AnyMatch(pred func(id int) bool) bool {
	return slices.ContainsFunc(d.ids, pred)
}

// SubsetOf 支撐集是否完全落在 in 所描述的集合內。
func (d *Distribution) SubsetOf(in func(id int) bool) bool {
	for _, id := range d.ids {
		if !in(id) {
			return false
		}
	}
	return true
}

func (d *Distribution) Sum() float64 {
	s := 0.0
	for _, p := range d.probs {
		s += p
	}
	return s
}

// SumWeighted : Σ p(s) * f(s)
func (d *Distribution) SumWeighted(f func(id int) float64) float64 {
	s := 0.0
	for i, id := range d.ids {
		s += d.probs[i] * f(id)
	}
	return s
}

// SumExceptSelf 不含 self 的機率質量。
func (d *Distribution) SumExceptSelf(self int) float64 {
	return d.Sum() - d.Get(self)
}

// SumWeightedExceptSelf 排除 self 後以剩餘質量重新正規化的加權和。
//
// 剩餘質量為 0（純自迴圈）時回傳 0；呼叫端應先以 SumExceptSelf 判斷。
func (d *Distribution) SumWeightedExceptSelf(f func(id int) float64, self int) float64 {
	s, mass := 0.0, 0.0
	for i, id := range d.ids {
		if id == self {
			continue
		}
		s += d.probs[i] * f(id)
		mass += d.probs[i]
	}
	if mass <= 0 {
		return 0
	}
	return s / mass
}

// Sample 依機率抽一個後繼狀態；空分佈回傳 -1。
func (d *Distribution) Sample(c *core.Core) int {
	switch len(d.ids) {
	case 0:
		return -1
	case 1:
		return d.ids[0]
	}
	if len(d.ids) > aliasMinSize {
		d.aliasOnce.Do(func() { d.alias = sampler.BuildAliasTable(d.probs) })
		return d.ids[d.alias.Pick(c)]
	}
	idx := sampler.PickWeighted(c, d.probs)
	if idx < 0 {
		return -1
	}
	return d.ids[idx]
}

// SampleWeighted 以外部給定的權重 w(id, p) 抽樣；總權重為 0 回傳 -1。
func (d *Distribution) SampleWeighted(c *core.Core, w func(id int, p float64) float64) int {
	weights := make([]float64, len(d.ids))
	for i, id := range d.ids {
		weights[i] = w(id, d.probs[i])
	}
	idx := sampler.PickWeighted(c, weights)
	if idx < 0 {
		return -1
	}
	return d.ids[idx]
}

// Map 以 f 重新命名後繼狀態；f 回傳負值代表丟棄該後繼。
// 映射到同一 id 的機率會累加。
func (d *Distribution) Map(f func(id int) int) *Builder {
	b := NewBuilder()
	for i, id := range d.ids {
		if to := f(id); to >= 0 {
			b.Add(to, d.probs[i])
		}
	}
	return b
}

// Equal 支撐集相同且各機率在容差內相等。
func (d *Distribution) Equal(o *Distribution) bool {
	if d == o {
		return true
	}
	if o == nil || !slices.Equal(d.ids, o.ids) {
		return false
	}
	for i := range d.probs {
		if !tol.Eq(d.probs[i], o.probs[i]) {
			return false
		}
	}
	return true
}

func (d *Distribution) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, id := range d.ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d: %.6g", id, d.probs[i])
	}
	sb.WriteByte('}')
	return sb.String()
}
