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

// Package v1 /v1 底下的 JSON API。
package v1

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/zintix-labs/petlab"
	"github.com/zintix-labs/petlab/dto"
	"github.com/zintix-labs/petlab/server/metrics"
	"github.com/zintix-labs/petlab/store"
)

// Deps handler 共用的依賴；Store 與 Metrics 可為 nil。
type Deps struct {
	Log          *slog.Logger
	Runtime      *petlab.CheckRuntime
	Store        *store.Store
	Metrics      *metrics.Metrics
	CheckTimeout time.Duration
}

// modelLabel metrics 與 log 用的模型名稱。
func modelLabel(id uint64, name string, inline bool) string {
	switch {
	case name != "":
		return name
	case inline:
		return "inline"
	default:
		return "id:" + strconv.FormatUint(id, 10)
	}
}

func checkLabel(req *dto.CheckRequest) string {
	return modelLabel(uint64(req.ModelID), req.ModelName, req.Inline())
}
