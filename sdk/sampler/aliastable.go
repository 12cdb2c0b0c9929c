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

// Package sampler 提供機率分佈上的加權抽樣。
package sampler

import (
	"math"

	"github.com/zintix-labs/petlab/sdk/core"
)

// AliasTable 是 Vose Alias Method 的 O(1) 加權抽樣結構（浮點版本）。
//
// 每個槽位只存放「自己」與「別名」兩個選項：
// 抽樣時先均勻選槽位，再以 Prob[idx] 決定取自己或別名。
//
//   - 建表 O(N)，抽樣 O(1)（固定 1 次 IntN + 1 次 Float64）
//   - 權重不需事先正規化
type AliasTable struct {
	Prob    []float64
	Aliases []int
	Size    int
}

// BuildAliasTable 依 weights 建表；負權重、NaN 或全部為零會 panic，空輸入回傳空表。
func BuildAliasTable(weights []float64) *AliasTable {
	n := len(weights)
	if n == 0 {
		return &AliasTable{Prob: []float64{}, Aliases: []int{}}
	}

	total := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			panic("AliasTable: negative weight encountered")
		}
		total += w
	}
	if total <= 0 {
		panic("AliasTable: all weights are zero")
	}

	prob := make([]float64, n)
	aliases := make([]int, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)

	for i, w := range weights {
		prob[i] = w * float64(n) / total // 平均值縮放為 1
		aliases[i] = i
		if prob[i] < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		aliases[s] = l
		prob[l] = prob[l] + prob[s] - 1
		if prob[l] < 1 {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	// 剩下的槽位只差浮點誤差，直接補滿
	for _, i := range large {
		prob[i] = 1
	}
	for _, i := range small {
		prob[i] = 1
	}

	return &AliasTable{Prob: prob, Aliases: aliases, Size: n}
}

// Pick 抽出一個索引，若表為空則回傳 -1。
func (at *AliasTable) Pick(c *core.Core) int {
	if at.Size == 0 {
		return -1
	}
	idx := c.IntN(at.Size)
	if c.Float64() < at.Prob[idx] {
		return idx
	}
	return at.Aliases[idx]
}

// PickWeighted 以線性掃描做一次性的加權抽樣。
//
// 總權重 <= 0 回傳 -1；負權重 panic。適合權重每次都不同、不值得建表的熱路徑。
func PickWeighted(c *core.Core, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			panic("PickWeighted: negative weight encountered")
		}
		total += w
	}
	if total <= 0 {
		return -1
	}
	r := c.Float64() * total
	last := -1
	for i, w := range weights {
		if w == 0 {
			continue
		}
		last = i
		if r < w {
			return i
		}
		r -= w
	}
	// 浮點誤差落在尾端時回傳最後一個正權重
	return last
}
