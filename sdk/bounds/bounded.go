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
)

// BoundedStore 步數受限可達性：bound(s, k) 只看剩餘 k 步內能否到達 target。
//
// 上下界都放在可替換的 StepTable（Dense 或 Approx），近似表的記憶體上限同時適用於兩者。
type BoundedStore struct {
	target func(int) bool
	open   func(int) bool
	table  StepTable
}

func NewBoundedStore(target func(int) bool, table StepTable) *BoundedStore {
	if target == nil {
		target = func(int) bool { return false }
	}
	if table == nil {
		table = NewDenseTable()
	}
	return &BoundedStore{target: target, table: table}
}

// Table 目前使用的步數表。
func (s *BoundedStore) Table() StepTable {
	return s.table
}

// SetOpen 標記尚未封閉的狀態：任何剩餘步數（含 0）都讀成 Unknown。
// 學習 core 時用來把 fringe 當成逃出點。
func (s *BoundedStore) SetOpen(open func(int) bool) {
	s.open = open
}

// Bounds 依序：target 為 One；open 為 Unknown；k <= 0 為 Zero；其餘讀步數表。
func (s *BoundedStore) Bounds(state, k int) Bounds {
	if s.target(state) {
		return One
	}
	if s.open != nil && s.open(state) {
		return Unknown
	}
	if k <= 0 {
		return Zero
	}
	u := s.table.Upper(state, k)
	return Bounds{Lower: min(s.table.Lower(state, k), u), Upper: u}
}

// SetBounds 只收緊：上界取最小並夾住較小的 k，下界取最大並抬高較大的 k。
func (s *BoundedStore) SetBounds(state, k int, b Bounds) {
	errs.Assert(!s.target(state), "bounds: set bounds on target state %d", state)
	if k <= 0 {
		return
	}
	b = Of(b.Lower, b.Upper)
	old := s.Bounds(state, k)
	errs.Assert(b.Lower <= old.Upper+1e-10 && old.Lower <= b.Upper+1e-10,
		"bounds: state %d step %d new %v disjoint from %v", state, k, b, old)
	s.table.SetUpper(state, k, b.Upper)
	s.table.SetLower(state, k, b.Lower)
}

// SetZeroAll 死結或已證明永遠到不了 target。
func (s *BoundedStore) SetZeroAll(state int) {
	errs.Assert(!s.target(state), "bounds: set zero on target state %d", state)
	s.table.SetZeroAll(state)
}

// Bellman 讀取後繼在 k-1 的區間（不排除自迴圈，自迴圈會消耗一步）。
func (s *BoundedStore) Bellman(state, k int, choices []*model.Distribution, dir Direction) Bounds {
	if k <= 0 || len(choices) == 0 {
		return Zero
	}
	errs.Assert(dir != Unique || len(choices) == 1, "bounds: state %d has %d choices under unique direction", state, len(choices))
	each := make([]Bounds, len(choices))
	for i, d := range choices {
		each[i] = Bounds{
			Lower: d.SumWeighted(func(t int) float64 { return s.Bounds(t, k-1).Lower }),
			Upper: d.SumWeighted(func(t int) float64 { return s.Bounds(t, k-1).Upper }),
		}
	}
	return Combine(dir, each)
}

// Update 在 (state, k) 做 backup 並寫回；死結會把所有步數歸零。
func (s *BoundedStore) Update(state, k int, choices []*model.Distribution, dir Direction) Bounds {
	errs.Assert(!s.target(state), "bounds: update on target state %d", state)
	if k <= 0 {
		return Zero
	}
	if len(choices) == 0 {
		s.SetZeroAll(state)
		return Zero
	}
	s.SetBounds(state, k, s.Bellman(state, k, choices, dir))
	return s.Bounds(state, k)
}
