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

// Package collapse 在部分模型之上提供商模型（quotient）視圖。
//
// 一個 end component 被折疊成單一代表狀態（成員中最小的 id）：
// 成員之間的內部轉移與自迴圈被移除，只留下逃離轉移。
// 代表狀態以 union-find 維護；改寫後的 choices 放在 cache，
// 是否仍有效由 valid 集合明確標記。
package collapse

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/model"
)

// View 商模型視圖。非併發安全：只允許單一 driver 修改。
type View struct {
	base model.Model
	log  *slog.Logger

	parent  []int
	removed []bool
	nRemove int

	representatives map[int]struct{}
	cache           map[int][]*model.Distribution
	valid           map[int]struct{}
}

// New 建立視圖；log 為 nil 時不輸出。
func New(base model.Model, log *slog.Logger) *View {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &View{
		base:            base,
		log:             log,
		representatives: make(map[int]struct{}),
		cache:           make(map[int][]*model.Distribution),
		valid:           make(map[int]struct{}),
	}
}

func (v *View) NumStates() int {
	return v.base.NumStates()
}

// grow 確保 union-find 陣列至少能容納 n 個狀態。
func (v *View) grow(n int) {
	if n <= len(v.parent) {
		return
	}
	size := max(n, len(v.parent)*2+1)
	for i := len(v.parent); i < size; i++ {
		v.parent = append(v.parent, i)
		v.removed = append(v.removed, false)
	}
}

// Representative 回傳 s 的代表狀態（含路徑壓縮）；從未折疊過的狀態就是自己。
func (v *View) Representative(s int) int {
	if s < 0 || s >= len(v.parent) {
		return s
	}
	root := s
	for v.parent[root] != root {
		root = v.parent[root]
	}
	for v.parent[s] != root {
		v.parent[s], s = root, v.parent[s]
	}
	return root
}

func (v *View) IsRemoved(s int) bool {
	return s >= 0 && s < len(v.removed) && v.removed[s]
}

func (v *View) RemovedCount() int {
	return v.nRemove
}

// Representatives 曾作為折疊代表的狀態（遞增）。
func (v *View) Representatives() []int {
	return slices.Sorted(maps.Keys(v.representatives))
}

// Collapse 把每個 part 折疊成一個代表，依 part 順序回傳代表。
//
// part 不得為空、不得重疊、不得含已移除狀態，違反即 panic。
// 驗證先於任何修改，因此呼叫端只會看到「全部套用」或 panic。
func (v *View) Collapse(parts [][]int) []int {
	seen := make(map[int]struct{})
	maxID := -1
	for i, part := range parts {
		errs.Assert(len(part) > 0, "collapse: part %d is empty", i)
		for _, s := range part {
			errs.Assert(s >= 0 && s < v.base.NumStates(), "collapse: unknown state %d", s)
			errs.Assert(!v.IsRemoved(s), "collapse: state %d already removed", s)
			_, dup := seen[s]
			errs.Assert(!dup, "collapse: state %d appears in more than one part", s)
			seen[s] = struct{}{}
			maxID = max(maxID, s)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	// 先收集成員目前的 choices，之後才改動 union-find 與 cache。
	sources := make([][]*model.Distribution, len(parts))
	for i, part := range parts {
		for _, s := range part {
			sources[i] = append(sources[i], v.current(s)...)
		}
	}

	v.grow(maxID + 1)
	reps := make([]int, len(parts))
	absorbed := 0
	for i, part := range parts {
		rep := slices.Min(part)
		reps[i] = rep
		for _, s := range part {
			if s == rep {
				continue
			}
			v.parent[s] = rep
			v.removed[s] = true
			v.nRemove++
			absorbed++
			delete(v.cache, s)
			delete(v.representatives, s)
		}
		v.representatives[rep] = struct{}{}
	}

	// 沒有前驅索引，無法只挑受影響的列：整批失效，讀取時再重算
	clear(v.valid)
	rewritten := 0
	for i, rep := range reps {
		out := v.rewrite(rep, sources[i])
		v.cache[rep] = out
		v.valid[rep] = struct{}{}
		rewritten += len(out)
	}
	v.log.Debug("collapse",
		"parts", len(parts),
		"absorbed", absorbed,
		"removed_total", v.nRemove,
		"choices", rewritten,
	)
	return reps
}

// Choices 回傳 s 在商模型中的 choices；s 已被移除時 panic。
func (v *View) Choices(s int) []*model.Distribution {
	errs.Assert(!v.IsRemoved(s), "collapse: choices of removed state %d", s)
	if _, ok := v.valid[s]; ok {
		return v.current(s)
	}
	src := v.current(s)
	out := make([]*model.Distribution, 0, len(src))
	changed := false
	for _, d := range src {
		if !d.AnyMatch(func(t int) bool { return t == s || v.IsRemoved(t) }) {
			out = appendUnique(out, d)
			continue
		}
		changed = true
		if nd := v.remap(s, d); !nd.IsEmpty() {
			out = appendUnique(out, nd)
		}
	}
	if changed || len(out) != len(src) {
		v.cache[s] = out
	}
	v.valid[s] = struct{}{}
	return v.current(s)
}

// Successors 商模型中 s 的所有後繼（遞增、不重複）。
func (v *View) Successors(s int) []int {
	set := make(map[int]struct{})
	for _, d := range v.Choices(s) {
		for t := range d.All() {
			set[t] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

func (v *View) current(s int) []*model.Distribution {
	if c, ok := v.cache[s]; ok {
		return c
	}
	return v.base.Choices(s)
}

func (v *View) rewrite(rep int, src []*model.Distribution) []*model.Distribution {
	out := make([]*model.Distribution, 0, len(src))
	for _, d := range src {
		if nd := v.remap(rep, d); !nd.IsEmpty() {
			out = appendUnique(out, nd)
		}
	}
	return out
}

// remap 後繼改寫為代表狀態，指回 self 的質量丟棄後重新正規化。
func (v *View) remap(self int, d *model.Distribution) *model.Distribution {
	return d.Map(func(t int) int {
		r := v.Representative(t)
		if r == self {
			return -1
		}
		return r
	}).Scaled()
}

func appendUnique(out []*model.Distribution, d *model.Distribution) []*model.Distribution {
	for _, o := range out {
		if o.Equal(d) {
			return out
		}
	}
	return append(out, d)
}
