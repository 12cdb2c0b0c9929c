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

// Package heuristic 決定 trajectory 下一步往哪走。
//
// 所有權重函式都是純函式：不讀寫任何狀態，只依 Input 計算，可單獨測試。
package heuristic

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/petlab/sdk/bounds"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/model"
	"github.com/zintix-labs/petlab/sdk/sampler"
	"github.com/zintix-labs/petlab/sdk/tol"
)

type Heuristic uint8

const (
	// Prob 後繼自身的轉移機率
	Prob Heuristic = iota
	// Weighted 機率 × 後繼區間寬度
	Weighted
	// Difference 只看後繼區間寬度，偏向罕見但不確定的分支
	Difference
	// GraphWeighted 同 Weighted，但合併所有 choice 的後繼
	GraphWeighted
	// GraphDifference 同 Difference，但合併所有 choice 的後繼
	GraphDifference
)

var names = []string{"PROB", "WEIGHTED", "DIFFERENCE", "GRAPH_WEIGHTED", "GRAPH_DIFFERENCE"}

func (h Heuristic) String() string {
	if int(h) < len(names) {
		return names[h]
	}
	return fmt.Sprintf("Heuristic(%d)", h)
}

// Parse 大小寫不敏感，"-" 視同 "_"；空字串為 GRAPH_WEIGHTED。
func Parse(s string) (Heuristic, error) {
	key := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
	if key == "" {
		return GraphWeighted, nil
	}
	for i, n := range names {
		if n == key {
			return Heuristic(i), nil
		}
	}
	return Prob, fmt.Errorf("unknown heuristic %q", s)
}

// IsGraph 是否合併所有 choice。
func (h Heuristic) IsGraph() bool {
	return h == GraphWeighted || h == GraphDifference
}

// Input 單一狀態上抽樣所需的全部資訊。
type Input struct {
	Choices []*model.Distribution
	// ChoiceScore 選 choice 用的分數，越大越好。
	ChoiceScore func(d *model.Distribution) float64
	// Difference 後繼目前的區間寬度。
	Difference func(id int) float64
	// Ignore 為 true 的後繼權重為 0（例如自己或已解出的狀態）。
	Ignore func(id int) bool
}

// Scorer 依方向產生 ChoiceScore：max 用期望上界，min 用 1 - 期望下界。
func Scorer(dir bounds.Direction, values bounds.Values) func(d *model.Distribution) float64 {
	if dir == bounds.Min {
		return func(d *model.Distribution) float64 {
			return 1 - d.SumWeighted(func(t int) float64 { return values(t).Lower })
		}
	}
	return func(d *model.Distribution) float64 {
		return d.SumWeighted(func(t int) float64 { return values(t).Upper })
	}
}

// BestChoices 分數在容差內並列最高的 choice 索引。
func BestChoices(in Input) []int {
	if len(in.Choices) == 0 {
		return nil
	}
	if len(in.Choices) == 1 || in.ChoiceScore == nil {
		out := make([]int, len(in.Choices))
		for i := range out {
			out[i] = i
		}
		return out
	}
	scores := make([]float64, len(in.Choices))
	best := -1.0
	for i, d := range in.Choices {
		scores[i] = in.ChoiceScore(d)
		best = max(best, scores[i])
	}
	out := make([]int, 0, 1)
	for i, s := range scores {
		if tol.Eq(s, best) {
			out = append(out, i)
		}
	}
	return out
}

// Weights 回傳後繼與權重。非 graph 類別只看 choice 索引 chosen 的分佈。
func Weights(h Heuristic, in Input, chosen int) ([]int, []float64) {
	ignore := in.Ignore
	if ignore == nil {
		ignore = func(int) bool { return false }
	}
	diff := in.Difference
	if diff == nil {
		diff = func(int) float64 { return 1 }
	}
	if h.IsGraph() {
		pool := make(map[int]float64)
		order := make([]int, 0)
		for _, d := range in.Choices {
			for t, p := range d.All() {
				w := 0.0
				if !ignore(t) {
					if h == GraphWeighted {
						w = p * diff(t)
					} else {
						w = diff(t)
					}
				}
				old, seen := pool[t]
				if !seen {
					order = append(order, t)
				}
				pool[t] = max(old, w)
			}
		}
		ws := make([]float64, len(order))
		for i, t := range order {
			ws[i] = pool[t]
		}
		return order, ws
	}

	d := in.Choices[chosen]
	ids := make([]int, 0, d.Size())
	ws := make([]float64, 0, d.Size())
	for t, p := range d.All() {
		w := 0.0
		if !ignore(t) {
			switch h {
			case Prob:
				w = p
			case Weighted:
				w = p * diff(t)
			case Difference:
				w = diff(t)
			}
		}
		ids = append(ids, t)
		ws = append(ws, max(w, 0))
	}
	return ids, ws
}

// SampleNextState 依 heuristic 抽下一個狀態；沒有任何正權重時回傳 -1。
func SampleNextState(c *core.Core, h Heuristic, in Input) int {
	if len(in.Choices) == 0 {
		return -1
	}
	chosen := -1
	if !h.IsGraph() {
		chosen = c.Pick(BestChoices(in))
	}
	ids, ws := Weights(h, in, chosen)
	idx := sampler.PickWeighted(c, ws)
	if idx < 0 {
		return -1
	}
	return ids[idx]
}
