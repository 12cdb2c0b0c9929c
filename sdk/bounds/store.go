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
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/model"
	"github.com/zintix-labs/petlab/sdk/tol"
)

// Values 讀取目前各狀態的區間。
type Values func(state int) Bounds

// Bellman 單一狀態的 Bellman backup（不修改任何狀態）。
//
//   - 沒有 choice：死結，回傳 Zero
//   - 每個 choice 排除自迴圈質量後重新正規化；純自迴圈沿用 state 目前的區間
//   - 多個 choice 依 dir 取極值
func Bellman(state int, choices []*model.Distribution, dir Direction, current Values) Bounds {
	if len(choices) == 0 {
		return Zero
	}
	errs.Assert(dir != Unique || len(choices) == 1, "bounds: state %d has %d choices under unique direction", state, len(choices))
	each := make([]Bounds, len(choices))
	for i, d := range choices {
		if d.SumExceptSelf(state) <= 0 {
			each[i] = current(state)
			continue
		}
		each[i] = Bounds{
			Lower: d.SumWeightedExceptSelf(func(t int) float64 { return current(t).Lower }, state),
			Upper: d.SumWeightedExceptSelf(func(t int) float64 { return current(t).Upper }, state),
		}
	}
	return Combine(dir, each)
}

// Store 無界可達性的區間表。
//
// 每個狀態處於 unknown / bounded / zero / one 之一；zero 與 one 為吸收態，
// 覆蓋任何數值區間。target 永遠是 One，且不得被更新。
type Store struct {
	target func(int) bool
	zero   map[int]struct{}
	one    map[int]struct{}
	bounds map[int]Bounds
}

func NewStore(target func(int) bool) *Store {
	if target == nil {
		target = func(int) bool { return false }
	}
	return &Store{
		target: target,
		zero:   make(map[int]struct{}),
		one:    make(map[int]struct{}),
		bounds: make(map[int]Bounds),
	}
}

// Bounds 依序：target、one、zero、已存數值、Unknown。
func (s *Store) Bounds(state int) Bounds {
	if s.target(state) {
		return One
	}
	if _, ok := s.one[state]; ok {
		return One
	}
	if _, ok := s.zero[state]; ok {
		return Zero
	}
	if b, ok := s.bounds[state]; ok {
		return b
	}
	return Unknown
}

func (s *Store) Lower(state int) float64      { return s.Bounds(state).Lower }
func (s *Store) Upper(state int) float64      { return s.Bounds(state).Upper }
func (s *Store) Difference(state int) float64 { return s.Bounds(state).Difference() }

// IsAbsorbing zero、one 或 target。
func (s *Store) IsAbsorbing(state int) bool {
	_, z := s.zero[state]
	_, o := s.one[state]
	return z || o || s.target(state)
}

// SetBounds 與既有區間取交集後寫入，確保只收緊；容差內貼齊 0/1 轉為吸收態。
func (s *Store) SetBounds(state int, b Bounds) {
	errs.Assert(!s.target(state), "bounds: set bounds on target state %d", state)
	nb := s.Bounds(state).Intersect(Of(b.Lower, b.Upper))
	switch {
	case tol.IsZero(nb.Upper):
		s.SetZero(state)
	case tol.IsOne(nb.Lower):
		s.SetOne(state)
	default:
		s.bounds[state] = nb
	}
}

func (s *Store) SetZero(state int) {
	errs.Assert(!s.target(state), "bounds: set zero on target state %d", state)
	_, isOne := s.one[state]
	errs.Assert(!isOne, "bounds: state %d is already one", state)
	delete(s.bounds, state)
	s.zero[state] = struct{}{}
}

func (s *Store) SetOne(state int) {
	if s.target(state) {
		return
	}
	_, isZero := s.zero[state]
	errs.Assert(!isZero, "bounds: state %d is already zero", state)
	delete(s.bounds, state)
	s.one[state] = struct{}{}
}

// Clear 移除狀態的所有資訊（回到 Unknown）；collapse 後的被吸收成員使用。
func (s *Store) Clear(state int) {
	delete(s.bounds, state)
	delete(s.zero, state)
	delete(s.one, state)
}

// Update 對 state 做 Bellman backup 並寫回；吸收態不變。target 上呼叫 panic。
func (s *Store) Update(state int, choices []*model.Distribution, dir Direction) Bounds {
	errs.Assert(!s.target(state), "bounds: update on target state %d", state)
	if s.IsAbsorbing(state) {
		return s.Bounds(state)
	}
	s.SetBounds(state, Bellman(state, choices, dir, s.Bounds))
	return s.Bounds(state)
}

// Known 有明確資訊（數值或吸收態）的狀態數。
func (s *Store) Known() int {
	return len(s.bounds) + len(s.zero) + len(s.one)
}
