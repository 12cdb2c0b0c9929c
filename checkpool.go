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

	"github.com/zintix-labs/petlab/errs"
)

// maxFailures 連續失敗（panic 或 fatal）達到此數量時池進入關閉狀態。
const maxFailures = 100

// CheckPool 限制同時進行的檢驗數量，並把執行中的 panic 收斂成 Fatal 錯誤。
//
// 每個工作都在自己的 Checker 上執行，池本身不保存任何引擎狀態：
//  1. slots：容量即併發上限，取得 slot 才能執行。
//  2. done：關閉訊號，關閉後所有新工作直接失敗。
//
// 連續失敗太多代表系統可能正在連續故障：池會以 overwhelmed_by_failures 關閉，讓上層接管。
type CheckPool struct {
	slots         chan struct{}
	done          chan struct{}
	closeOnce     sync.Once
	poolsize      int
	inflight      atomic.Int32 // 執行中
	completed     atomic.Int64 // 成功完成
	panics        atomic.Int32 // panic 次數
	fatals        atomic.Int32 // fatal 次數
	failStreak    atomic.Int32 // 連續失敗
	closeReason   atomic.Value // string
	closeInflight atomic.Int32 // 關閉當下 inflight（快照）
}

// newCheckPool n 至少為 1。
func newCheckPool(n int) *CheckPool {
	n = max(1, n)
	p := &CheckPool{
		slots:    make(chan struct{}, n),
		done:     make(chan struct{}),
		poolsize: n,
	}
	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	return p
}

func (p *CheckPool) Close() {
	p.closeWithReason("closed")
}

func (p *CheckPool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// closeWithReason reason 只會被寫入一次。
func (p *CheckPool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		p.closeInflight.Store(p.inflight.Load())
		close(p.done)
	})
}

// isFatalErr 只有錯誤本身宣告 fatal 才算失敗；請求錯誤不影響池的健康度。
func isFatalErr(err error) bool {
	if e, ok := errs.AsErr(err); ok {
		return e.ErrLv == errs.Fatal
	}
	return false
}

// submit 取得 slot 後執行 fn。
//
// method 不能有型別參數，所以寫成 free function。
func submit[T any](ctx context.Context, p *CheckPool, fn func(context.Context) (T, error)) (out T, err error) {
	select {
	case <-p.done:
		return out, errs.NewFatal("check pool closed: " + p.ClosedReason())
	case <-ctx.Done():
		return out, errs.Wrap(ctx.Err(), "check canceled/timeout while waiting for slot")
	case p.slots <- struct{}{}:
		p.inflight.Add(1)
	}

	defer func() {
		p.inflight.Add(-1)
		<-p.slots
		failed := false
		if r := recover(); r != nil {
			failed = true
			p.panics.Add(1)
			err = errs.NewFatal("check panic: " + errs.Recovered(r).Error())
		} else if isFatalErr(err) {
			failed = true
			p.fatals.Add(1)
		}
		if !failed {
			p.failStreak.Store(0)
			if err == nil {
				p.completed.Add(1)
			}
			return
		}
		if p.failStreak.Add(1) >= maxFailures {
			p.closeWithReason("overwhelmed_by_failures")
		}
	}()

	return fn(ctx)
}

func (p *CheckPool) PoolSize() int {
	return p.poolsize
}

func (p *CheckPool) Inflight() int {
	return int(p.inflight.Load())
}

func (p *CheckPool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (p *CheckPool) Panics() int {
	return int(p.panics.Load())
}

func (p *CheckPool) Fatals() int {
	return int(p.fatals.Load())
}

// CheckPoolMetrics 拉取式觀測快照；由上層決定如何輸出（/metrics、log）。
type CheckPoolMetrics struct {
	PoolSize      int    `json:"pool_size"`
	Available     int    `json:"available"` // 當下空閒 slot（近似值）
	Inflight      int    `json:"inflight"`
	Completed     int64  `json:"completed"`
	Panics        int    `json:"panics"`
	Fatals        int    `json:"fatals"`
	Closed        bool   `json:"closed"`
	CloseReason   string `json:"close_reason"`
	CloseInflight int    `json:"close_inflight"` // -1 表示尚未關閉
}

func (p *CheckPool) Metrics() CheckPoolMetrics {
	return CheckPoolMetrics{
		PoolSize:      p.poolsize,
		Available:     p.poolsize - len(p.slots),
		Inflight:      int(p.inflight.Load()),
		Completed:     p.completed.Load(),
		Panics:        int(p.panics.Load()),
		Fatals:        int(p.fatals.Load()),
		Closed:        p.Closed(),
		CloseReason:   p.ClosedReason(),
		CloseInflight: int(p.closeInflight.Load()),
	}
}
