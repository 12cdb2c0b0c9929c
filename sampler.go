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
	"errors"
	"log/slog"

	"github.com/zintix-labs/petlab/recorder"
	"github.com/zintix-labs/petlab/sdk/bounds"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/explorer"
	"github.com/zintix-labs/petlab/sdk/graph"
	"github.com/zintix-labs/petlab/sdk/heuristic"
	"github.com/zintix-labs/petlab/spec"
	"github.com/zintix-labs/petlab/stats"
)

// SamplerConfig 取樣 driver 共用設定。零值欄位使用預設。
type SamplerConfig struct {
	Direction         bounds.Direction
	Heuristic         heuristic.Heuristic
	Precision         float64
	MaxExplores       int
	MaxBacktraces     int
	CollapseThreshold int
	// Analyser nil 時：unique 用 BSCC，其餘用 MEC。
	Analyser    graph.Analyser
	ReportEvery int
	Log         *slog.Logger
	Recorder    *recorder.RunRecorder
	// Progress 每 ReportEvery 步回報第一個初始狀態的區間。
	Progress func(b bounds.Bounds)
}

func (cfg *SamplerConfig) fill() {
	if cfg.Precision <= 0 {
		cfg.Precision = spec.DefaultPrecision
	}
	if cfg.MaxExplores <= 0 {
		cfg.MaxExplores = spec.DefaultMaxExplores
	}
	if cfg.MaxBacktraces <= 0 {
		cfg.MaxBacktraces = spec.DefaultMaxBacktraces
	}
	if cfg.CollapseThreshold <= 0 {
		cfg.CollapseThreshold = spec.DefaultCollapseThreshold
	}
	if cfg.ReportEvery <= 0 {
		cfg.ReportEvery = spec.DefaultReportEvery
	}
	if cfg.Analyser == nil {
		cfg.Analyser = AnalyserFor("auto", cfg.Direction)
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	if cfg.Recorder == nil {
		cfg.Recorder = recorder.NewRunRecorder("", 0)
	}
	if cfg.Progress == nil {
		cfg.Progress = func(bounds.Bounds) {}
	}
}

// AnalyserFor 依設定名稱選擇 component analyser。
func AnalyserFor(name string, dir bounds.Direction) graph.Analyser {
	switch name {
	case "mec":
		return graph.MECAnalyser{}
	case "bscc":
		return graph.BSCCAnalyser{}
	}
	if dir == bounds.Unique {
		return graph.BSCCAnalyser{}
	}
	return graph.MECAnalyser{}
}

// Sampler 一個完整的取樣 driver（unbounded 或 bounded）。
type Sampler interface {
	// Build 取樣直到所有初始狀態收斂，或 ctx 結束；回傳停止原因。
	Build(ctx context.Context) (string, error)
	// Bounds 初始狀態目前的區間。
	Bounds(initial int) bounds.Bounds
	Explorer() explorer.Partial
	Collapsed() int
}

// stopReason ctx 結束的原因；nil 代表收斂。
func stopReason(err error) string {
	switch {
	case err == nil:
		return stats.StopConverged
	case errors.Is(err, context.DeadlineExceeded):
		return stats.StopTimeout
	default:
		return stats.StopCanceled
	}
}

// driver 兩種 sampler 共用的欄位。
type driver struct {
	part  explorer.Partial
	cfg   SamplerConfig
	core  *core.Core
	steps int64
}

func (d *driver) tick(first func() bounds.Bounds) {
	d.steps++
	d.cfg.Recorder.Step()
	if d.steps%int64(d.cfg.ReportEvery) != 0 {
		return
	}
	b := first()
	d.cfg.Progress(b)
	d.cfg.Log.Debug("progress",
		"samples", d.cfg.Recorder.Samples(),
		"steps", d.steps,
		"explored", d.part.ExploredCount(),
		"fringe", d.part.FringeCount(),
		"bounds", b.String(),
	)
}
