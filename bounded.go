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
	"context"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/bounds"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/explorer"
	"github.com/zintix-labs/petlab/sdk/heuristic"
	"github.com/zintix-labs/petlab/sdk/model"
	"github.com/zintix-labs/petlab/stats"
)

// 近似步數表的精確重算排程
const (
	exactStateDelay     = 50
	exactIterationDelay = 500
)

// BoundedSampler 步數受限可達性的取樣 driver。
//
// 直接在部分模型上取樣：自迴圈在這裡會消耗一步，不能折疊。
type BoundedSampler struct {
	driver
	stepBound int
	store     *bounds.BoundedStore
	approx    bool
}

// NewBoundedSampler table 為 nil 時使用 DenseTable；近似表會以 stepBound 對齊區塊。
func NewBoundedSampler(part explorer.Partial, c *core.Core, stepBound int, table bounds.StepTable, cfg SamplerConfig) *BoundedSampler {
	cfg.fill()
	a, approx := table.(*bounds.ApproxTable)
	if approx {
		a.Anchor(stepBound)
	}
	return &BoundedSampler{
		driver:    driver{part: part, cfg: cfg, core: c},
		stepBound: stepBound,
		store:     bounds.NewBoundedStore(part.IsTarget, table),
		approx:    approx,
	}
}

func (b *BoundedSampler) Explorer() explorer.Partial {
	return b.part
}

func (b *BoundedSampler) Store() *bounds.BoundedStore {
	return b.store
}

func (b *BoundedSampler) Collapsed() int {
	return 0
}

func (b *BoundedSampler) Bounds(initial int) bounds.Bounds {
	return b.store.Bounds(initial, b.stepBound)
}

func (b *BoundedSampler) solved(s, k int) bool {
	return b.store.Bounds(s, k).Solved(b.cfg.Precision)
}

func (b *BoundedSampler) Build(ctx context.Context) (string, error) {
	inits := b.part.InitialStates()
	if len(inits) == 0 {
		return "", errs.NewWarn("bounded: no initial state")
	}
	first := func() bounds.Bounds { return b.Bounds(inits[0]) }

	iterations := 0
	sinceCheck := 0
	stateDelay := exactStateDelay
	iterationDelay := exactIterationDelay
	statesAtCheck := 0

	for _, init := range inits {
		if b.part.IsTarget(init) {
			continue
		}
		if !b.part.IsExplored(init) {
			if err := b.explore(init); err != nil {
				return "", err
			}
		}
		for !b.solved(init, b.stepBound) {
			if err := ctx.Err(); err != nil {
				return stopReason(err), nil
			}
			iterations++
			sinceCheck++
			if err := b.sample(init, first); err != nil {
				return "", err
			}
			if !b.approx {
				continue
			}
			// 近似表的上界只在區塊端點更新，定期做一次完整的值迭代把它拉緊
			count := b.part.ExploredCount()
			check := false
			if count-statesAtCheck >= stateDelay && sinceCheck > exactIterationDelay {
				stateDelay = max(count/10, 1)
				check = true
			}
			if iterations%iterationDelay == 0 {
				iterationDelay *= 2
				check = true
			}
			if check {
				statesAtCheck = count
				sinceCheck = 0
				b.computeExactBounds(init)
			}
		}
	}
	return stats.StopConverged, nil
}

func (b *BoundedSampler) explore(s int) error {
	if err := b.part.ExploreState(s); err != nil {
		return err
	}
	b.cfg.Recorder.Explore()
	if b.cfg.Direction == bounds.Unique {
		if n := len(b.part.Choices(s)); n > 1 {
			return errs.Warnf("bounded: state %s has %d choices under unique direction", b.part.Describe(s), n)
		}
	}
	return nil
}

type stepVisit struct {
	state     int
	remaining int
}

func (b *BoundedSampler) sample(init int, first func() bounds.Bounds) error {
	path := make([]stepVisit, 0, 32)
	cur := init
	remaining := b.stepBound
	explores := 0

	for remaining > 0 {
		if b.part.IsTarget(cur) || b.solved(cur, remaining) {
			break
		}
		b.tick(first)
		path = append(path, stepVisit{cur, remaining})
		next := b.sampleNext(cur, remaining)
		if next < 0 {
			break
		}
		if !b.part.IsTarget(next) && !b.part.IsExplored(next) {
			if explores >= b.cfg.MaxExplores {
				break
			}
			explores++
			if err := b.explore(next); err != nil {
				return err
			}
		}
		cur = next
		remaining--
	}

	for i := len(path) - 1; i >= 0; i-- {
		v := path[i]
		b.store.Update(v.state, v.remaining, b.part.Choices(v.state), b.cfg.Direction)
	}
	b.cfg.Recorder.Trajectory(len(path))
	return nil
}

func (b *BoundedSampler) sampleNext(s, k int) int {
	choices := b.part.Choices(s)
	if len(choices) == 0 {
		b.cfg.Recorder.Deadlock()
		return -1
	}
	next := func(t int) bounds.Bounds { return b.store.Bounds(t, k-1) }
	return heuristic.SampleNextState(b.core, b.cfg.Heuristic, heuristic.Input{
		Choices:     choices,
		ChoiceScore: heuristic.Scorer(b.cfg.Direction, next),
		Difference:  func(t int) float64 { return next(t).Difference() },
		Ignore:      func(t int) bool { return b.part.IsTarget(t) || next(t).Solved(b.cfg.Precision) },
	})
}

// computeExactBounds 在所有已探索狀態上做 stepBound 輪值迭代（fringe 視為 [0,1]）並寫回。
// 是否收斂一律由寫回後的步數表判斷。
func (b *BoundedSampler) computeExactBounds(init int) {
	b.cfg.Recorder.ExactCheck()
	explored := b.part.ExploredStates()
	n := b.part.NumStates()
	prev := make([]bounds.Bounds, n)
	cur := make([]bounds.Bounds, n)
	for s := range n {
		prev[s] = b.store.Bounds(s, 0)
	}
	for k := 1; k <= b.stepBound; k++ {
		copy(cur, prev)
		for s := range n {
			if !b.part.IsTarget(s) && !b.part.IsExplored(s) {
				cur[s] = bounds.Unknown
			}
		}
		for _, s := range explored {
			if b.part.IsTarget(s) {
				continue
			}
			cur[s] = b.bellmanOver(s, b.part.Choices(s), prev)
		}
		for _, s := range explored {
			if !b.part.IsTarget(s) {
				b.store.SetBounds(s, k, cur[s])
			}
		}
		prev, cur = cur, prev
	}
	b.cfg.Log.Debug("exact bounds", "states", len(explored), "steps", b.stepBound, "bounds", b.Bounds(init).String())
}

func (b *BoundedSampler) bellmanOver(s int, choices []*model.Distribution, vals []bounds.Bounds) bounds.Bounds {
	if len(choices) == 0 {
		return bounds.Zero
	}
	each := make([]bounds.Bounds, len(choices))
	for i, d := range choices {
		each[i] = bounds.Bounds{
			Lower: d.SumWeighted(func(t int) float64 { return vals[t].Lower }),
			Upper: d.SumWeighted(func(t int) float64 { return vals[t].Upper }),
		}
	}
	return bounds.Combine(b.cfg.Direction, each)
}
