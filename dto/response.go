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

package dto

import (
	"time"

	"github.com/zintix-labs/petlab/catalog"
	"github.com/zintix-labs/petlab/spec"
	"github.com/zintix-labs/petlab/stats"
)

// ModelList GET /v1/models
type ModelList struct {
	Models []catalog.Summary `json:"models"`
}

// ResultItem 已儲存結果的列表項目（不含完整報表）。
type ResultItem struct {
	RunID     string    `json:"run_id"`
	ModelID   spec.MID  `json:"model_id"`
	ModelName string    `json:"model_name"`
	Solved    bool      `json:"solved"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
	CreatedAt time.Time `json:"created_at"`
}

type ResultList struct {
	Results []ResultItem `json:"results"`
}

// CheckResponse 檢驗結果；Saved 表示已寫入 store。
type CheckResponse struct {
	Report *stats.CheckReport `json:"report"`
	Saved  bool               `json:"saved"`
}

// ErrorBody 錯誤回應。
type ErrorBody struct {
	Error  string `json:"error"`
	Level  string `json:"level,omitempty"`
	Status int    `json:"status"`
}
