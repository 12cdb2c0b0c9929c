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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/petlab"
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/server/logger"
)

const (
	DefaultAddr     = ":5808"
	DefaultDBPath   = ":memory:"
	DefaultPoolSize = 2
	maxPoolSize     = 10
)

// SvrCfg 服務組裝所需的全部依賴。
type SvrCfg struct {
	Log      *slog.Logger
	PoolSize int
	Lab      *petlab.Petlab
	Addr     string
	DBPath   string
	// CheckTimeout 單一請求的上限；0 表示只受模型設定的 timeout 約束
	CheckTimeout time.Duration
}

// Valid 補預設值並檢查必要欄位。
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("async log handler is not ready")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.PoolSize <= 0 {
		sc.PoolSize = DefaultPoolSize
	}
	sc.PoolSize = min(maxPoolSize, sc.PoolSize)
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if sc.DBPath == "" {
		sc.DBPath = DefaultDBPath
	}
	if sc.CheckTimeout < 0 {
		return errs.NewWarn("check timeout must be >= 0")
	}
	if sc.Lab == nil {
		return errs.NewFatal("petlab is required")
	}
	return nil
}
