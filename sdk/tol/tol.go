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

// Package tol 提供帶容差的浮點比較。
//
// 所有「單調性」與「是否已收斂」的判斷都必須經過這裡，
// 避免四捨五入雜訊造成的假性不收斂或誤報的不變式違反。
package tol

import "gonum.org/v1/gonum/floats/scalar"

// Epsilon 是全域比較容差。
const Epsilon = 1e-12

// Eq 回報 a 與 b 在容差內相等。
func Eq(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, Epsilon, Epsilon)
}

// Leq : a <= b（容差內）
func Leq(a, b float64) bool {
	return a <= b || Eq(a, b)
}

// Geq : a >= b（容差內）
func Geq(a, b float64) bool {
	return a >= b || Eq(a, b)
}

// Less : a < b 且不在容差內相等
func Less(a, b float64) bool {
	return a < b && !Eq(a, b)
}

func IsZero(x float64) bool {
	return scalar.EqualWithinAbs(x, 0, Epsilon)
}

func IsOne(x float64) bool {
	return scalar.EqualWithinAbs(x, 1, Epsilon)
}

// Clamp01 把 x 夾到 [0,1]；只用來吸收容差內的溢出。
func Clamp01(x float64) float64 {
	return min(1, max(0, x))
}
