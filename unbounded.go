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
	"github.com/zintix-labs/petlab/sdk/collapse"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/explorer"
	"github.com/zintix-labs/petlab/sdk/heuristic"
	"github.com/zintix-labs/petlab/sdk/model"
	"github.com/zintix-labs/petlab/stats"
)

// UnboundedSampler 無界可達性的取樣 driver。
//
// max / unique 在折疊視圖上取樣，找到的 component 會被折疊成代表狀態；
// min 直接在部分模型上取樣，component 內沒有 target，所以整個 component 歸零。
type UnboundedSampler struct {
	driver
	view  *collapse.View // min 時為 nil
	model model.Model
	store *bounds.Store

	newStates         bool
	loopCount         int
	collapseThreshold int
}

func NewUnboundedSampler(part explorer.Partial, c *core.Core, cfg SamplerConfig) *UnboundedSampler {
	cfg.fill()
	u := &UnboundedSampler{
		driver:            driver{part: part, cfg: cfg, core: c},
		store:             bounds.NewStore(part.IsTarget),
		newStates:         true,
		collapseThreshold: cfg.CollapseThreshold,
	}
	if cfg.Direction == bounds.Min {
		u.model = part
	} else {
		u.view = collapse.New(part, cfg.Log)
		u.model = u.view
	}
	return u
}

func (u *UnboundedSampler) Explorer() explorer.Partial {
	return u.part
}

// Store 目前的區間表（唯讀使用）。
func (u *UnboundedSampler) Store() *bounds.Store {
	return u.store
}

func (u *UnboundedSampler) Collapsed() int {
	if u.view == nil {
		return 0
	}
	return u.view.RemovedCount()
}

func (u *UnboundedSampler) Bounds(initial int) bounds.Bounds {
	return u.store.Bounds(u.representative(initial))
}

func (u *UnboundedSampler) representative(s int) int {
	if u.view == nil {
		return s
	}
	return u.view.Representative(s)
}

func (u *UnboundedSampler) solved(s int) bool {
	return u.store.Bounds(s).Solved(u.cfg.Precision)
}

func (u *UnboundedSampler) choices(s int) []*model.Distribution {
	return u.model.Choices(s)
}

func (u *UnboundedSampler) Build(ctx context.Context) (string, error) {
	inits := u.part.InitialStates()
	if len(inits) == 0 {
		return "", errs.NewWarn("unbounded: no initial state")
	}
	first := func() bounds.Bounds { return u.Bounds(inits[0]) }
	for _, init := range inits {
		if u.part.IsTarget(init) {
			continue
		}
		if !u.part.IsExplored(init) {
			if err := u.explore(init); err != nil {
				return "", err
			}
		}
		rep := u.representative(init)
		for !u.solved(rep) {
			if err := ctx.Err(); err != nil {
				return stopReason(err), nil
			}
			changed, err := u.sample(rep, first)
			if err != nil {
				return "", err
			}
			if changed {
				rep = u.representative(init)
			}
		}
	}
	return stats.StopConverged, nil
}

// explore 探索並套用 min 的自迴圈規則。
func (u *UnboundedSampler) explore(s int) error {
	if err := u.part.ExploreState(s); err != nil {
		return err
	}
	u.cfg.Recorder.Explore()
	u.newStates = true
	choices := u.part.Choices(s)
	switch u.cfg.Direction {
	case bounds.Unique:
		if len(choices) > 1 {
			return errs.Warnf("unbounded: state %s has %d choices under unique direction", u.part.Describe(s), len(choices))
		}
	case bounds.Min:
		// 排程器可以永遠停在自己身上
		for _, d := range choices {
			if d.Size() == 1 && d.Contains(s) {
				u.store.SetZero(s)
				break
			}
		}
	}
	return nil
}

// sample 取樣一條路徑並反向更新；回傳 true 代表發生折疊，路徑已作廢。
func (u *UnboundedSampler) sample(init int, first func() bounds.Bounds) (bool, error) {
	rec := u.cfg.Recorder
	path := make([]int, 0, 32)
	onPath := make(map[int]struct{}, 32)
	cur := init
	explores, backtraces := 0, 0
	looped := false

	for {
		if _, seen := onPath[cur]; seen {
			looped = true
			break
		}
		u.tick(first)
		path = append(path, cur)
		onPath[cur] = struct{}{}

		next := u.sampleNext(cur)
		if next < 0 || next == cur {
			if backtraces >= u.cfg.MaxBacktraces {
				break
			}
			// 這條路不會再有收穫：往回走到第一個尚未解出的狀態
			for {
				cur = path[len(path)-1]
				path = path[:len(path)-1]
				delete(onPath, cur)
				u.update(cur)
				if !u.solved(cur) || cur == init {
					break
				}
			}
			if cur == init {
				break
			}
			backtraces++
			rec.Backtrace()
			continue
		}
		if !u.part.IsExplored(next) {
			if explores >= u.cfg.MaxExplores {
				break
			}
			explores++
			if err := u.explore(next); err != nil {
				return false, err
			}
		}
		cur = next
	}

	if looped {
		u.loopCount++
		if u.loopCount > u.collapseThreshold {
			changed := u.handleComponents()
			u.loopCount = 0
			u.collapseThreshold = u.part.ExploredCount()
			if changed {
				rec.Trajectory(len(path))
				return true, nil
			}
		}
	}

	for i := len(path) - 1; i >= 0; i-- {
		u.update(path[i])
	}
	rec.Trajectory(len(path))
	return false, nil
}

func (u *UnboundedSampler) sampleNext(s int) int {
	choices := u.choices(s)
	if len(choices) == 0 {
		// 歸零後 s 已解出，之後的取樣會略過它
		u.cfg.Recorder.Deadlock()
		u.store.Update(s, choices, u.cfg.Direction)
		return -1
	}
	return heuristic.SampleNextState(u.core, u.cfg.Heuristic, heuristic.Input{
		Choices:     choices,
		ChoiceScore: heuristic.Scorer(u.cfg.Direction, u.store.Bounds),
		Difference:  u.store.Difference,
		Ignore:      func(t int) bool { return t == s || u.solved(t) },
	})
}

func (u *UnboundedSampler) update(s int) bounds.Bounds {
	return u.store.Update(s, u.choices(s), u.cfg.Direction)
}

// handleComponents 在已探索的子圖上找 component。
// 回傳 true 代表折疊改變了狀態編號。
func (u *UnboundedSampler) handleComponents() bool {
	if !u.newStates {
		return false
	}
	u.newStates = false
	u.cfg.Recorder.ComponentSearch()

	states := make([]int, 0, u.part.ExploredCount())
	for _, s := range u.part.ExploredStates() {
		if u.view != nil && u.view.IsRemoved(s) {
			continue
		}
		states = append(states, s)
	}
	comps := u.cfg.Analyser.FindComponents(u.model, states)
	if len(comps) == 0 {
		u.cfg.Log.Debug("components", "found", 0)
		return false
	}

	if u.view == nil {
		zeroed := 0
		for _, c := range comps {
			for _, s := range c {
				if u.store.Bounds(s) != bounds.Zero {
					u.store.SetZero(s)
					zeroed++
				}
			}
		}
		u.cfg.Log.Debug("components", "found", len(comps), "zeroed", zeroed)
		return false
	}

	merged := make([]bounds.Bounds, len(comps))
	for i, c := range comps {
		acc := bounds.Unknown
		for _, s := range c {
			acc = acc.Intersect(u.store.Bounds(s))
		}
		merged[i] = acc
	}
	reps := u.view.Collapse(comps)
	absorbed := 0
	for i, rep := range reps {
		for _, s := range comps[i] {
			if s != rep {
				u.store.Clear(s)
				absorbed++
			}
		}
		u.store.SetBounds(rep, merged[i])
		u.update(rep)
	}
	u.cfg.Recorder.Collapse(absorbed)
	u.cfg.Log.Debug("components", "found", len(comps), "absorbed", absorbed, "removed_total", u.view.RemovedCount())
	return absorbed > 0
}
