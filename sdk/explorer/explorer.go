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

// Package explorer 按需建構狀態圖的已探索片段。
//
// 狀態有三種：未知（尚無 id）、fringe（有 id 但未探索）、explored（choices 已填）。
// 只有 explored 狀態擁有 choices；探索可能新增 fringe 狀態，使 NumStates 增長，
// 依賴大小的呼叫端必須自行偵測。
//
// avoid 狀態（constrained reachability 的 ¬left ∧ ¬right）探索後沒有任何 choice，
// 對引擎而言就是死結，機率為 0；同時是 target 的狀態仍以 target 計。
package explorer

import (
	"fmt"
	"math"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/model"
	"github.com/zintix-labs/petlab/sdk/tol"
)

// massTolerance 生成器輸出機率總和允許的誤差，誤差內以 Scaled 修正。
const massTolerance = 1e-9

// Config 探索選項，於建構時傳入。
type Config struct {
	// RemoveSelfLoops 丟棄純自迴圈的 choice（只對 max/unique 方向安全）。
	RemoveSelfLoops bool
}

// Partial 型別抹除後的部分模型，引擎只透過它工作。
type Partial interface {
	model.Model
	InitialStates() []int
	IsExplored(id int) bool
	ExploreState(id int) error
	Labels(id int) []string
	ExploredStates() []int
	ExploredCount() int
	FringeCount() int
	IsTarget(id int) bool
	IsAvoid(id int) bool
	Describe(id int) string
}

// Factory 延遲建立 Partial；每次檢驗都建一份新的。
type Factory func(cfg Config) (Partial, error)

// Bind 把具型別的生成器綁成 Factory。
func Bind[S comparable](gen model.Generator[S], target func(S) bool) Factory {
	return BindUntil(gen, target, nil)
}

// BindUntil 同 Bind，另外帶 avoid 判斷（nil 代表沒有）。
func BindUntil[S comparable](gen model.Generator[S], target, avoid func(S) bool) Factory {
	return func(cfg Config) (Partial, error) {
		return NewUntil(gen, target, avoid, cfg)
	}
}

// Explorer 具型別的部分探索器。
type Explorer[S comparable] struct {
	gen    model.Generator[S]
	target func(S) bool
	avoid  func(S) bool
	cfg    Config

	index    *StateIndex[S]
	initial  []int
	isTarget []bool
	isAvoid  []bool

	explored []bool
	choices  [][]*model.Distribution
	labels   [][]string
	order    []int
}

// New 取得初始狀態並配置 id；生成器錯誤原樣回傳。
func New[S comparable](gen model.Generator[S], target func(S) bool, cfg Config) (*Explorer[S], error) {
	return NewUntil(gen, target, nil, cfg)
}

// NewUntil 帶 avoid 判斷的 New。
func NewUntil[S comparable](gen model.Generator[S], target, avoid func(S) bool, cfg Config) (*Explorer[S], error) {
	if gen == nil {
		return nil, errs.NewFatal("explorer: nil generator")
	}
	if target == nil {
		target = func(S) bool { return false }
	}
	if avoid == nil {
		avoid = func(S) bool { return false }
	}
	e := &Explorer[S]{
		gen:    gen,
		target: target,
		avoid:  avoid,
		cfg:    cfg,
		index:  NewStateIndex[S](),
	}
	init, err := gen.InitialStates()
	if err != nil {
		return nil, err
	}
	if len(init) == 0 {
		return nil, errs.NewWarn("explorer: generator has no initial state")
	}
	for _, s := range init {
		id, added := e.add(s)
		if added {
			e.initial = append(e.initial, id)
		}
	}
	return e, nil
}

func (e *Explorer[S]) add(s S) (int, bool) {
	id, added := e.index.Add(s)
	if added {
		hit := e.target(s)
		e.isTarget = append(e.isTarget, hit)
		e.isAvoid = append(e.isAvoid, !hit && e.avoid(s))
		e.explored = append(e.explored, false)
		e.choices = append(e.choices, nil)
		e.labels = append(e.labels, nil)
	}
	return id, added
}

func (e *Explorer[S]) NumStates() int {
	return e.index.Len()
}

func (e *Explorer[S]) InitialStates() []int {
	return append([]int(nil), e.initial...)
}

func (e *Explorer[S]) IsExplored(id int) bool {
	return id >= 0 && id < len(e.explored) && e.explored[id]
}

func (e *Explorer[S]) IsTarget(id int) bool {
	return e.isTarget[id]
}

func (e *Explorer[S]) IsAvoid(id int) bool {
	return e.isAvoid[id]
}

// State 取回 id 對應的原始狀態。
func (e *Explorer[S]) State(id int) S {
	return e.index.State(id)
}

func (e *Explorer[S]) Describe(id int) string {
	return fmt.Sprint(e.index.State(id))
}

// ExploreState 冪等：已探索直接返回；否則呼叫生成器並記錄 choices。
// avoid 狀態不呼叫生成器，直接記成死結。
//
// 生成器錯誤原樣回傳；輸出格式錯誤回傳 Warn，且不留下任何部分結果。
func (e *Explorer[S]) ExploreState(id int) error {
	errs.Assert(id >= 0 && id < e.index.Len(), "explorer: unknown state id %d", id)
	if e.explored[id] {
		return nil
	}
	if e.isAvoid[id] {
		e.markExplored(id, nil, nil)
		return nil
	}
	state := e.index.State(id)
	raw, err := e.gen.Choices(state)
	if err != nil {
		return err
	}

	type pending struct {
		label string
		probs map[S]float64
		order []S
	}
	staged := make([]pending, 0, len(raw))
	for ci, ch := range raw {
		if len(ch.Transitions) == 0 {
			return errs.Warnf("explorer: state %v choice %d has no transitions", state, ci)
		}
		p := pending{label: ch.Label, probs: make(map[S]float64, len(ch.Transitions))}
		sum := 0.0
		for _, tr := range ch.Transitions {
			if math.IsNaN(tr.Prob) || tr.Prob <= 0 || tr.Prob > 1+massTolerance {
				return errs.Warnf("explorer: state %v choice %d has invalid probability %v", state, ci, tr.Prob)
			}
			if _, ok := p.probs[tr.To]; !ok {
				p.order = append(p.order, tr.To)
			}
			p.probs[tr.To] += tr.Prob
			sum += tr.Prob
		}
		if math.Abs(sum-1) > massTolerance {
			return errs.Warnf("explorer: state %v choice %d sums to %v", state, ci, sum)
		}
		staged = append(staged, p)
	}

	choices := make([]*model.Distribution, 0, len(staged))
	labels := make([]string, 0, len(staged))
	for _, p := range staged {
		b := model.NewBuilder()
		for _, to := range p.order {
			sid, _ := e.add(to)
			b.Add(sid, p.probs[to])
		}
		d := b.Scaled()
		if e.cfg.RemoveSelfLoops && d.Size() == 1 && d.Contains(id) && tol.IsOne(d.Get(id)) {
			continue
		}
		choices = append(choices, d)
		labels = append(labels, p.label)
	}
	e.markExplored(id, choices, labels)
	return nil
}

func (e *Explorer[S]) markExplored(id int, choices []*model.Distribution, labels []string) {
	e.choices[id] = choices
	e.labels[id] = labels
	e.explored[id] = true
	e.order = append(e.order, id)
}

// Choices 只對已探索狀態有效，否則 panic。
func (e *Explorer[S]) Choices(id int) []*model.Distribution {
	errs.Assert(e.IsExplored(id), "explorer: choices of unexplored state %d", id)
	return e.choices[id]
}

func (e *Explorer[S]) Labels(id int) []string {
	errs.Assert(e.IsExplored(id), "explorer: labels of unexplored state %d", id)
	return e.labels[id]
}

// ExploredStates 依探索順序回傳。
func (e *Explorer[S]) ExploredStates() []int {
	return append([]int(nil), e.order...)
}

func (e *Explorer[S]) ExploredCount() int {
	return len(e.order)
}

func (e *Explorer[S]) FringeCount() int {
	return e.index.Len() - len(e.order)
}
