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
	"crypto/rand"
	"io"
	"log/slog"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/recorder"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/explorer"
	"github.com/zintix-labs/petlab/sdk/logic"
	"github.com/zintix-labs/petlab/spec"
	"github.com/zintix-labs/petlab/stats"
)

// DefaultConfidence 模擬報表預設信賴水準。
const DefaultConfidence = 0.95

// Simulator 蒙地卡羅交叉驗證：隨機走 n 條路徑，統計抵達 target 的比例。
//
// MDP 以均勻隨機排程器選 choice，因此估計值落在 [min, max] 之間，
// 對馬可夫鏈則應落在檢驗區間內。
type Simulator struct {
	ModelName string
	ModelID   spec.MID
	factory   explorer.Factory
	cf        core.PRNGFactory
	log       *slog.Logger
	initSeed  int64
	seedmaker *seedMaker
}

func newSimulator(ms *spec.ModelSetting, reg *logic.Registry, cf core.PRNGFactory, log *slog.Logger) (*Simulator, error) {
	seed := ms.Check.Seed
	if seed == 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return nil, errs.Wrap(err, "new crypto seed error in go std lib")
		}
		seed = n.Int64()
	}
	return newSimulatorWithSeed(ms, reg, cf, log, seed)
}

func newSimulatorWithSeed(ms *spec.ModelSetting, reg *logic.Registry, cf core.PRNGFactory, log *slog.Logger, seed int64) (*Simulator, error) {
	if ms.Check.RNG != "" {
		f, err := core.FactoryByName(ms.Check.RNG)
		if err != nil {
			return nil, errs.Wrap(err, "rng")
		}
		cf = f
	}
	factory, err := reg.Build(ms)
	if err != nil {
		return nil, asWarn(err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Simulator{
		ModelName: ms.ModelName,
		ModelID:   ms.ModelID,
		factory:   factory,
		cf:        cf,
		log:       log.With("model", ms.ModelName, "model_id", ms.ModelID),
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
	}, nil
}

// SimOptions 一次模擬的參數；零值欄位使用預設。
type SimOptions struct {
	Runs       int
	MaxSteps   int
	Workers    int
	Confidence float64
	ShowPB     bool
}

func (o *SimOptions) fill() error {
	if o.Runs < 1 {
		return errs.NewWarn("runs must > 0")
	}
	if o.MaxSteps < 1 {
		return errs.NewWarn("max_steps must > 0")
	}
	if o.Workers == 0 {
		o.Workers = 1
	}
	if o.Workers < 0 {
		return errs.NewWarn("workers must > 0")
	}
	o.Workers = min(o.Workers, o.Runs)
	if o.Confidence == 0 {
		o.Confidence = DefaultConfidence
	}
	if o.Confidence <= 0 || o.Confidence >= 1 {
		return errs.Warnf("confidence must be in (0,1), got %v", o.Confidence)
	}
	return nil
}

// Run 平行執行 Workers 個 walker，每個 walker 有自己的部分模型與亂數核心。
//
// 每個 worker 的路徑數固定（Runs 平均分配），同一個 seed 與 Workers 結果可重現。
// ctx 結束時提前停止，報表只計入已完成的路徑。
func (s *Simulator) Run(ctx context.Context, opt SimOptions) (*stats.SimReport, error) {
	if err := opt.fill(); err != nil {
		return nil, err
	}
	start := time.Now()
	walkers := make([]*walker, opt.Workers)
	for i := range walkers {
		part, err := s.factory(explorer.Config{})
		if err != nil {
			return nil, err
		}
		walkers[i] = &walker{
			part: part,
			core: core.New(s.cf.New(s.seedmaker.next())),
			rec:  recorder.NewRunRecorder(s.ModelName, s.ModelID),
		}
	}

	bar := pb.StartNew(opt.Runs)
	if !opt.ShowPB {
		bar.SetWriter(io.Discard)
	}
	errCh := make(chan error, opt.Workers)
	wg := new(sync.WaitGroup)
	wg.Add(opt.Workers)
	for i, w := range walkers {
		n := opt.Runs / opt.Workers
		if i < opt.Runs%opt.Workers {
			n++
		}
		go func(w *walker, n int) {
			defer wg.Done()
			for range n {
				if ctx.Err() != nil {
					return
				}
				if err := w.walk(opt.MaxSteps); err != nil {
					errCh <- err
					return
				}
				bar.Increment()
			}
		}(w, n)
	}
	wg.Wait()
	bar.Finish()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, err
	}

	recs := make([]*recorder.RunRecorder, len(walkers))
	for i, w := range walkers {
		recs[i] = w.rec
	}
	merged, err := recorder.MergeRunRecorder(recs)
	if err != nil {
		return nil, err
	}
	rep := merged.SimReport(opt.MaxSteps, opt.Confidence)
	rep.RunID = uuid.NewString()
	rep.SetElapsed(time.Since(start))
	s.log.Info("simulate done",
		"run_id", rep.RunID,
		"runs", rep.Runs,
		"hits", rep.Hits,
		"estimate", rep.Estimate,
		"elapsed_ms", rep.ElapsedMs,
	)
	return rep, nil
}

// walker 單一 worker 的走訪狀態；非併發安全。
type walker struct {
	part explorer.Partial
	core *core.Core
	rec  *recorder.RunRecorder
}

// walk 從隨機初始狀態出發，直到 target、deadlock 或步數上限。
func (w *walker) walk(maxSteps int) error {
	s := w.core.Pick(w.part.InitialStates())
	for step := 0; step < maxSteps; step++ {
		if w.part.IsTarget(s) {
			w.rec.Trajectory(step)
			w.rec.Hit(true, false)
			return nil
		}
		if !w.part.IsExplored(s) {
			if err := w.part.ExploreState(s); err != nil {
				return err
			}
			w.rec.Explore()
		}
		choices := w.part.Choices(s)
		if len(choices) == 0 {
			w.rec.Trajectory(step)
			w.rec.Hit(false, false)
			return nil
		}
		d := choices[0]
		if len(choices) > 1 {
			d = choices[w.core.IntN(len(choices))]
		}
		s = d.Sample(w.core)
		w.rec.Step()
	}
	reached := w.part.IsTarget(s)
	w.rec.Trajectory(maxSteps)
	w.rec.Hit(reached, !reached)
	return nil
}
