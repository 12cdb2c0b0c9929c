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
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/petlab/catalog"
	"github.com/zintix-labs/petlab/dto"
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/stats"
)

// CheckRuntime 服務階段的入口：解析 dto 請求、建立 Checker / Simulator，並經由 CheckPool 執行。
type CheckRuntime struct {
	lab  *Petlab
	pool *CheckPool

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

func newCheckRuntime(lab *Petlab, poolSize int) *CheckRuntime {
	rt := &CheckRuntime{
		lab:  lab,
		pool: newCheckPool(poolSize),
		done: make(chan struct{}),
	}
	rt.reason.Store("")
	return rt
}

func (rt *CheckRuntime) alive(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "request canceled/timeout")
	case <-rt.done:
		rt.closed.Store(true)
		return errs.NewFatal("check runtime closed: " + rt.ClosedReason())
	default:
		return nil
	}
}

// Check 依請求的模型來源建立 Checker 並執行。
func (rt *CheckRuntime) Check(ctx context.Context, req *dto.CheckRequest) (*stats.CheckReport, error) {
	if err := rt.alive(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errs.NewWarn("nil check request")
	}
	if err := req.Valid(); err != nil {
		return nil, err
	}
	return submit(ctx, rt.pool, func(ctx context.Context) (*stats.CheckReport, error) {
		ck, err := rt.checker(req)
		if err != nil {
			return nil, err
		}
		return ck.Check(ctx)
	})
}

func (rt *CheckRuntime) checker(req *dto.CheckRequest) (*Checker, error) {
	override := req.Check
	switch {
	case len(req.ModelJSON) > 0:
		return rt.lab.NewCheckerByJSON(req.ModelJSON, &override)
	case req.ModelYAML != "":
		return rt.lab.NewCheckerByYAML([]byte(req.ModelYAML), &override)
	case req.ModelName != "":
		return rt.lab.NewCheckerByName(req.ModelName, &override)
	default:
		return rt.lab.NewChecker(req.ModelID, &override)
	}
}

// Simulate 模擬同樣佔用一個 slot；Workers 是該次模擬內部的併發度。
func (rt *CheckRuntime) Simulate(ctx context.Context, req *dto.SimRequest) (*stats.SimReport, error) {
	if err := rt.alive(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errs.NewWarn("nil simulate request")
	}
	if err := req.Valid(); err != nil {
		return nil, err
	}
	return submit(ctx, rt.pool, func(ctx context.Context) (*stats.SimReport, error) {
		id := req.ModelID
		if req.ModelName != "" {
			ent, ok := rt.lab.EntryByName(req.ModelName)
			if !ok {
				return nil, errs.Warnf("model not found: %s", req.ModelName)
			}
			id = ent.MID
		}
		sim, err := rt.lab.NewSimulator(id)
		if err != nil {
			return nil, err
		}
		return sim.Run(ctx, SimOptions{
			Runs:       req.Runs,
			MaxSteps:   req.MaxSteps,
			Workers:    req.Workers,
			Confidence: req.Confidence,
		})
	})
}

// Models 目錄摘要。
func (rt *CheckRuntime) Models() ([]catalog.Summary, error) {
	return rt.lab.Summary()
}

func (rt *CheckRuntime) Pool() *CheckPool {
	return rt.pool
}

// Close 可重複呼叫。
func (rt *CheckRuntime) Close() {
	rt.closeWithReason("closed")
}

func (rt *CheckRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		rt.pool.closeWithReason(reason)
	})
}

func (rt *CheckRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *CheckRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
