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
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/recorder"
	"github.com/zintix-labs/petlab/sdk/bounds"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/explorer"
	"github.com/zintix-labs/petlab/sdk/logic"
	"github.com/zintix-labs/petlab/spec"
	"github.com/zintix-labs/petlab/stats"
)

// progressScale 進度條以 1 - 區間寬度 換算，總格數固定。
const progressScale = 1000

// Checker 一個模型 + 一組已合併的檢驗設定。
//
// Checker 本身可重複使用：每次 Check 都建立新的部分模型與區間表，
// 同一個 seed 的兩次 Check 結果一致。Checker 不是併發安全的，
// 併發檢驗請各自建立 Checker（CheckRuntime 就是這樣做）。
type Checker struct {
	ms      *spec.ModelSetting
	setting spec.CheckSetting
	factory explorer.Factory
	cf      core.PRNGFactory
	log     *slog.Logger
	verdict Verdict
	seed    int64
	showpb  bool
}

// newChecker 合併 override 並檢查；seed 為 0 時以 crypto/rand 產生並記錄在報表。
func newChecker(ms *spec.ModelSetting, override *spec.CheckSetting, reg *logic.Registry, cf core.PRNGFactory, log *slog.Logger) (*Checker, error) {
	if ms == nil {
		return nil, errs.NewWarn("model setting required")
	}
	cs := ms.Check
	if override != nil {
		cs = cs.Merge(*override)
	}
	if err := cs.Init(); err != nil {
		return nil, asWarn(err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With("model", ms.ModelName, "model_id", ms.ModelID)

	// min 方向丟掉自迴圈會把「困在原地」誤判成可離開
	if cs.RemoveSelfLoops && cs.DirectionValue() == bounds.Min {
		log.Warn("remove_self_loops is ignored for direction min")
		cs.RemoveSelfLoops = false
	}
	if cs.RNG != "" {
		f, err := core.FactoryByName(cs.RNG)
		if err != nil {
			return nil, errs.Wrap(err, "rng")
		}
		cf = f
	}
	factory, err := reg.Build(ms)
	if err != nil {
		return nil, asWarn(err)
	}
	var v Verdict = CoreVerdict{}
	if !cs.Core() {
		if v, err = NewVerdict(cs.Interpretation); err != nil {
			return nil, err
		}
	}
	seed := cs.Seed
	if seed == 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return nil, errs.Wrap(err, "new crypto seed error in go std lib")
		}
		seed = n.Int64()
		cs.Seed = seed
	}
	return &Checker{
		ms:      ms,
		setting: cs,
		factory: factory,
		cf:      cf,
		log:     log,
		verdict: v,
		seed:    seed,
	}, nil
}

// Setting 合併後的設定（seed 已決定）。
func (c *Checker) Setting() spec.CheckSetting {
	return c.setting
}

func (c *Checker) Seed() int64 {
	return c.seed
}

// ShowProgress 在 stderr 顯示收斂進度條（CLI 用）。
func (c *Checker) ShowProgress(on bool) *Checker {
	c.showpb = on
	return c
}

// Check 取樣直到所有初始狀態收斂、timeout 或 ctx 取消。
//
// timeout / 取消不是錯誤：報表照常產出，未收斂的狀態 verdict 為 unknown。
func (c *Checker) Check(ctx context.Context) (*stats.CheckReport, error) {
	start := time.Now()
	if d, _ := c.setting.TimeoutDuration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	part, err := c.factory(explorer.Config{RemoveSelfLoops: c.setting.RemoveSelfLoops})
	if err != nil {
		return nil, err
	}
	rec := recorder.NewRunRecorder(c.ms.ModelName, c.ms.ModelID)

	bar := pb.New(progressScale)
	if !c.showpb {
		bar.SetWriter(io.Discard)
	}
	bar.Start()
	defer bar.Finish()

	dir := c.setting.DirectionValue()
	cfg := SamplerConfig{
		Direction:         dir,
		Heuristic:         c.setting.HeuristicValue(),
		Precision:         c.setting.Precision,
		MaxExplores:       c.setting.MaxExplores,
		MaxBacktraces:     c.setting.MaxBacktraces,
		CollapseThreshold: c.setting.CollapseThreshold,
		Analyser:          AnalyserFor(c.setting.Components, dir),
		ReportEvery:       c.setting.ReportEvery,
		Log:               c.log,
		Recorder:          rec,
		Progress: func(b bounds.Bounds) {
			bar.SetCurrent(int64((1 - b.Difference()) * progressScale))
		},
	}
	rng := core.New(c.cf.New(c.seed))

	var table bounds.StepTable
	if a := c.setting.Approximation; a != nil {
		table = bounds.NewApproxTable(a.Threshold, a.Width)
	}
	var smp Sampler
	switch {
	case c.setting.Core():
		smp = NewCoreSampler(part, rng, c.setting.StepBound, table, cfg)
	case c.setting.Bounded():
		smp = NewBoundedSampler(part, rng, *c.setting.StepBound, table, cfg)
	default:
		smp = NewUnboundedSampler(part, rng, cfg)
	}

	c.log.Debug("check start",
		"mode", c.setting.Mode,
		"direction", c.setting.Direction,
		"heuristic", c.setting.Heuristic,
		"precision", c.setting.Precision,
		"seed", c.seed,
	)
	reason, err := smp.Build(ctx)
	if err != nil {
		return nil, err
	}
	bar.SetCurrent(progressScale)

	rep := c.report(smp, rec, reason)
	rep.SetElapsed(time.Since(start))
	c.log.Info("check done",
		"run_id", rep.RunID,
		"solved", rep.Solved(),
		"stop", rep.StopReason,
		"explored", rep.Explored,
		"samples", rep.Counters.Samples,
		"elapsed_ms", rep.ElapsedMs,
	)
	return rep, nil
}

func (c *Checker) report(smp Sampler, rec *recorder.RunRecorder, reason string) *stats.CheckReport {
	part := smp.Explorer()
	counters, traj := rec.Done()
	inits := part.InitialStates()
	results := make([]stats.StateResult, 0, len(inits))
	for _, s := range inits {
		b := smp.Bounds(s)
		solved := b.Solved(c.setting.Precision)
		val, verdict := c.verdict.Interpret(b, solved)
		results = append(results, stats.StateResult{
			State:   part.Describe(s),
			Bounds:  b,
			Width:   b.Difference(),
			Solved:  solved,
			Value:   val,
			Verdict: verdict,
		})
	}
	return &stats.CheckReport{
		RunID:      uuid.NewString(),
		ModelID:    c.ms.ModelID,
		ModelName:  c.ms.ModelName,
		Logic:      c.ms.LogicKey,
		Setting:    c.setting,
		Results:    results,
		Explored:   part.ExploredCount(),
		Fringe:     part.FringeCount(),
		Collapsed:  smp.Collapsed(),
		Counters:   counters,
		Trajectory: traj,
		StopReason: reason,
	}
}
