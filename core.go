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

package petlab

import (
	"github.com/zintix-labs/petlab/sdk/bounds"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/explorer"
)

// corePartial 學習 core 時沒有 target：走到尚未探索的狀態就算逃出。
type corePartial struct {
	explorer.Partial
}

func (corePartial) IsTarget(int) bool {
	return false
}

// CoreSampler 學習 ε-core。
//
// 不斷擴張已探索的子模型，直到任何策略從初始狀態離開子模型的機率
// （bounded 時為 stepBound 步內）都小於 precision。
// 逃出機率的更新規則和可達性相同：fringe 為 1、死結為 0、component 折疊後只看出口，
// 下界恆為 0，所以區間寬度就是逃出機率的上界，直接重用 unbounded / bounded driver。
type CoreSampler struct {
	Sampler
}

// NewCoreSampler stepBound 為 nil 時學習無界 core；min 方向沒有意義，一律改用 max。
func NewCoreSampler(part explorer.Partial, c *core.Core, stepBound *int, table bounds.StepTable, cfg SamplerConfig) *CoreSampler {
	if cfg.Direction == bounds.Min {
		cfg.Direction = bounds.Max
	}
	cp := corePartial{Partial: part}
	if stepBound != nil {
		b := NewBoundedSampler(cp, c, *stepBound, table, cfg)
		// 第 k 步剛好走到 fringe 也算逃出
		b.store.SetOpen(func(s int) bool { return !cp.IsExplored(s) })
		return &CoreSampler{Sampler: b}
	}
	return &CoreSampler{Sampler: NewUnboundedSampler(cp, c, cfg)}
}

// Escape 從 initial 離開 core 的機率上界。
func (s *CoreSampler) Escape(initial int) float64 {
	return s.Bounds(initial).Upper
}

// Core 目前學到的 core（依探索順序）。
func (s *CoreSampler) Core() []int {
	return s.Explorer().ExploredStates()
}
