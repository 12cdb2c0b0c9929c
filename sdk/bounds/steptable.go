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
	"math"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/tol"
)

// StepTable 以「剩餘步數」k 為索引的上下界表。
//
// 讀取：k <= 0 上下界皆為 0；未寫過的位置上界 1、下界 0。
// 寫入：只收緊。上界寫入會夾住所有較小的 k，下界寫入會抬高所有已配置的較大 k，
// 兩者都對 k 單調不減。
type StepTable interface {
	Upper(state, k int) float64
	SetUpper(state, k int, v float64)
	Lower(state, k int) float64
	SetLower(state, k int, v float64)
	// SetZero 標記 state 在所有 j <= k 的上界為 0。
	SetZero(state, k int)
	// SetZeroAll 任何剩餘步數都到不了 target。
	SetZeroAll(state int)
	IsZero(state, k int) bool
	// Stores k 是否為實際儲存點；非儲存點的寫入會被忽略。
	Stores(k int) bool
}

type stepRow struct {
	uppers   []float64
	lowers   []float64
	zeroStep int
}

// stepCore Dense 與 Approx 共用的儲存；差別只在 offset 與 stores。
type stepCore struct {
	rows   []*stepRow
	offset func(k int) int
	stores func(k int) bool
}

func (c *stepCore) row(state int, create bool) *stepRow {
	if state < len(c.rows) && c.rows[state] != nil {
		return c.rows[state]
	}
	if !create {
		return nil
	}
	for len(c.rows) <= state {
		c.rows = append(c.rows, nil)
	}
	r := &stepRow{zeroStep: 0}
	c.rows[state] = r
	return r
}

func grow(vals []float64, off int, fill float64) []float64 {
	if off < len(vals) {
		return vals
	}
	size := max(off+1, len(vals)*2)
	for len(vals) < size {
		vals = append(vals, fill)
	}
	return vals
}

func (c *stepCore) Upper(state, k int) float64 {
	if k <= 0 {
		return 0
	}
	r := c.row(state, false)
	if r == nil {
		return 1
	}
	if k <= r.zeroStep {
		return 0
	}
	off := c.offset(k)
	if off >= len(r.uppers) {
		return 1
	}
	return r.uppers[off]
}

func (c *stepCore) SetUpper(state, k int, v float64) {
	errs.Assert(!math.IsNaN(v) && tol.Geq(v, 0), "steptable: invalid upper %v", v)
	if k <= 0 || !c.stores(k) || v >= 1-tol.Epsilon {
		return
	}
	if v <= tol.Epsilon {
		c.SetZero(state, k)
		return
	}
	r := c.row(state, true)
	off := c.offset(k)
	r.uppers = grow(r.uppers, off, 1)
	for j := 0; j <= off; j++ {
		r.uppers[j] = min(r.uppers[j], v)
	}
}

// Lower 非儲存點讀前一個儲存點的值：下界對 k 單調，較少步數的下界仍然成立。
func (c *stepCore) Lower(state, k int) float64 {
	if k <= 0 {
		return 0
	}
	r := c.row(state, false)
	if r == nil || k <= r.zeroStep {
		return 0
	}
	off := c.offset(k)
	if !c.stores(k) {
		off--
	}
	if off < 0 || off >= len(r.lowers) {
		return 0
	}
	return r.lowers[off]
}

func (c *stepCore) SetLower(state, k int, v float64) {
	errs.Assert(!math.IsNaN(v) && tol.Leq(v, 1), "steptable: invalid lower %v", v)
	if k <= 0 || !c.stores(k) || v <= tol.Epsilon {
		return
	}
	r := c.row(state, true)
	if k <= r.zeroStep {
		return
	}
	off := c.offset(k)
	fill := 0.0
	if n := len(r.lowers); n > 0 {
		fill = r.lowers[n-1]
	}
	r.lowers = grow(r.lowers, off, fill)
	v = min(v, 1)
	for j := off; j < len(r.lowers); j++ {
		r.lowers[j] = max(r.lowers[j], v)
	}
}

func (c *stepCore) SetZero(state, k int) {
	if k <= 0 {
		return
	}
	r := c.row(state, true)
	r.zeroStep = max(r.zeroStep, k)
}

func (c *stepCore) SetZeroAll(state int) {
	r := c.row(state, true)
	r.zeroStep = math.MaxInt
	r.uppers = nil
	r.lowers = nil
}

func (c *stepCore) IsZero(state, k int) bool {
	return c.Upper(state, k) == 0
}

func (c *stepCore) Stores(k int) bool {
	return k > 0 && c.stores(k)
}

// DenseTable 每一步都精確儲存。
type DenseTable struct {
	stepCore
}

func NewDenseTable() *DenseTable {
	t := &DenseTable{}
	t.offset = func(k int) int { return k }
	t.stores = func(int) bool { return true }
	return t
}

// ApproxTable k < Threshold 精確儲存；之後每 Width 步只存一格。
//
// 區塊以 phase 對齊：k >= Threshold 且 (k - phase) % Width == 0 的 k 是區塊端點，
// 也是唯一的儲存點。讀上界回傳所在區塊端點的值，讀下界回傳前一個端點的值，
// 兩者對 k 單調，因此仍然健全。
// 預設 phase = Threshold-1；Anchor 把 phase 移到 horizon，使 horizon 本身成為端點。
type ApproxTable struct {
	stepCore
	Threshold int
	Width     int
	phase     int
}

func NewApproxTable(threshold, width int) *ApproxTable {
	errs.Assert(threshold >= 1 && width >= 1, "steptable: invalid approximation T=%d W=%d", threshold, width)
	t := &ApproxTable{Threshold: threshold, Width: width, phase: threshold - 1}
	t.offset = t.Offset
	t.stores = t.storesAt
	return t
}

// Anchor 讓 horizon 成為儲存點；必須在第一次寫入前呼叫。
func (t *ApproxTable) Anchor(horizon int) *ApproxTable {
	errs.Assert(len(t.rows) == 0, "steptable: anchor after writes")
	if horizon >= t.Threshold {
		t.phase = horizon
	}
	return t
}

func (t *ApproxTable) storesAt(k int) bool {
	return k < t.Threshold || posMod(k-t.phase, t.Width) == 0
}

// blockEnd k 所在區塊的端點。
func (t *ApproxTable) blockEnd(k int) int {
	return k + posMod(t.phase-k, t.Width)
}

func (t *ApproxTable) Offset(k int) int {
	if k < t.Threshold {
		return k
	}
	return t.Threshold + (t.blockEnd(k)-t.blockEnd(t.Threshold))/t.Width
}

func posMod(a, m int) int {
	return ((a % m) + m) % m
}
