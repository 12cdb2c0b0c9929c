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

// Package stats 檢驗與模擬的報表、區間估計與渲染。
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 信賴區間
type CI struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

func (c CI) Contains(x float64) bool {
	return c.Lo <= x && x <= c.Hi
}

// ProportionCI Clopper–Pearson 精確區間（n 次中 k 次成功）。
func ProportionCI(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n <= 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k <= 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k >= n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// TrajectoryStats 路徑長度摘要。
type TrajectoryStats struct {
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"mean"  yaml:"mean"`
	Std   float64 `json:"std"   yaml:"std"`
	Min   float64 `json:"min"   yaml:"min"`
	Max   float64 `json:"max"   yaml:"max"`
	P50   float64 `json:"p50"   yaml:"p50"`
	P95   float64 `json:"p95"   yaml:"p95"`
}

// Summarize 長度為 0 回傳零值；單筆時 Std 為 0。
func Summarize(lengths []float64) TrajectoryStats {
	n := len(lengths)
	if n == 0 {
		return TrajectoryStats{}
	}
	cp := slices.Clone(lengths)
	slices.Sort(cp)
	ts := TrajectoryStats{
		Count: n,
		Min:   cp[0],
		Max:   cp[n-1],
		P50:   stat.Quantile(0.5, stat.Empirical, cp, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, cp, nil),
	}
	if n == 1 {
		ts.Mean = cp[0]
		return ts
	}
	ts.Mean, ts.Std = stat.MeanStdDev(cp, nil)
	if math.IsNaN(ts.Std) {
		ts.Std = 0
	}
	return ts
}
