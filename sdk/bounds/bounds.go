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

// Package bounds 保存每個狀態的可達機率上下界並執行 Bellman 更新。
//
// 不變式：0 <= lower <= upper <= 1；同一個 key 的更新只會讓區間收緊。
// 所有比較都經過 sdk/tol，違反不變式直接 panic。
package bounds

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/tol"
)

// Bounds 機率區間 [Lower, Upper]。
type Bounds struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

var (
	Unknown = Bounds{0, 1}
	Zero    = Bounds{0, 0}
	One     = Bounds{1, 1}
)

// Of 建立區間；容差內的溢出會被夾回，超出容差 panic。
func Of(lower, upper float64) Bounds {
	errs.Assert(tol.Geq(lower, 0) && tol.Leq(upper, 1) && tol.Leq(lower, upper),
		"bounds: invalid interval [%v, %v]", lower, upper)
	lower, upper = tol.Clamp01(lower), tol.Clamp01(upper)
	return Bounds{Lower: min(lower, upper), Upper: upper}
}

func (b Bounds) Difference() float64 {
	return b.Upper - b.Lower
}

func (b Bounds) Average() float64 {
	return (b.Lower + b.Upper) / 2
}

// Solved 區間寬度嚴格小於 precision；容差內相等不算解出。
func (b Bounds) Solved(precision float64) bool {
	return tol.Less(b.Difference(), precision)
}

func (b Bounds) Contains(x float64) bool {
	return tol.Leq(b.Lower, x) && tol.Leq(x, b.Upper)
}

// Intersect 兩區間交集；容差外不相交 panic。
func (b Bounds) Intersect(o Bounds) Bounds {
	return Of(max(b.Lower, o.Lower), min(b.Upper, o.Upper))
}

func (b Bounds) Equal(o Bounds) bool {
	return tol.Eq(b.Lower, o.Lower) && tol.Eq(b.Upper, o.Upper)
}

func (b Bounds) String() string {
	switch {
	case b == Unknown:
		return "[?]"
	case tol.Eq(b.Lower, b.Upper):
		return fmt.Sprintf("=%.6g", b.Lower)
	default:
		return fmt.Sprintf("[%.6g,%.6g]", b.Lower, b.Upper)
	}
}

// ============================================================
// ** Direction **
// ============================================================

// Direction 多個 choice 時的最佳化方向。
type Direction uint8

const (
	// Max 存在性目標：某個策略能到達的最大機率
	Max Direction = iota
	// Min 全稱目標：所有策略下最小的到達機率
	Min
	// Unique 馬可夫鏈：每個狀態至多一個 choice
	Unique
)

var directionNames = map[Direction]string{
	Max:    "max",
	Min:    "min",
	Unique: "unique",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Direction(%d)", d)
}

// ParseDirection 大小寫不敏感，空字串視為 max。
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max":
		return Max, nil
	case "min":
		return Min, nil
	case "unique":
		return Unique, nil
	}
	return Max, fmt.Errorf("unknown direction %q (want max, min or unique)", s)
}

// Combine 對每個 choice 的區間依方向分別取上下界的極值（上下界互不耦合）。
func Combine(dir Direction, each []Bounds) Bounds {
	switch len(each) {
	case 0:
		return Zero
	case 1:
		return Of(each[0].Lower, each[0].Upper)
	}
	errs.Assert(dir != Unique, "bounds: %d choices under unique direction", len(each))
	out := each[0]
	for _, b := range each[1:] {
		if dir == Max {
			out = Bounds{max(out.Lower, b.Lower), max(out.Upper, b.Upper)}
		} else {
			out = Bounds{min(out.Lower, b.Lower), min(out.Upper, b.Upper)}
		}
	}
	return Of(out.Lower, out.Upper)
}
