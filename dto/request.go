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

// Package dto 定義 HTTP 邊界的請求解碼與回應結構。
//
// 這裡只負責解碼與基本型別轉換，模型是否存在、設定是否合法由上層（Petlab / CheckRuntime）決定。
package dto

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/spec"
)

// maxBody POST body 上限（1MiB）。
const maxBody = 1 << 20

// CheckRequest 一次檢驗請求。
//
// 模型三選一：model_id、model（名稱）、或內嵌的 model_json / model_yaml。
// check 內非零欄位覆寫模型預設的檢驗設定。
type CheckRequest struct {
	ModelID   spec.MID          `json:"model_id,omitempty"`
	ModelName string            `json:"model,omitempty"`
	ModelJSON json.RawMessage   `json:"model_json,omitempty"`
	ModelYAML string            `json:"model_yaml,omitempty"`
	Check     spec.CheckSetting `json:"check"`
	// Save 結果寫入 store，之後可用 /v1/results/{id} 取回。
	Save bool `json:"save,omitempty"`
}

// Inline 是否為內嵌模型。
func (r *CheckRequest) Inline() bool {
	return len(r.ModelJSON) > 0 || r.ModelYAML != ""
}

// Valid 模型來源必須剛好一個。
func (r *CheckRequest) Valid() error {
	n := 0
	if r.ModelID != 0 {
		n++
	}
	if r.ModelName != "" {
		n++
	}
	if len(r.ModelJSON) > 0 {
		n++
	}
	if r.ModelYAML != "" {
		n++
	}
	if n != 1 {
		return errs.NewWarn("exactly one of model_id, model, model_json, model_yaml is required")
	}
	return nil
}

// DecodeCheckRequest 把 HTTP 請求解碼成 CheckRequest。
//
// 支援：
//   - GET：query string（model_id/model/mode/precision/direction/heuristic/step_bound/seed/timeout/rng/save）。
//     內嵌模型只能用 POST。
//   - POST：JSON body，DisallowUnknownFields 嚴格拒絕未知欄位。
func DecodeCheckRequest(r *http.Request) (*CheckRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(CheckRequest)
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		id, err := queryUint(q.Get("model_id"), "model_id")
		if err != nil {
			return nil, err
		}
		req.ModelID = spec.MID(id)
		req.ModelName = q.Get("model")
		cs := &req.Check
		cs.Mode = q.Get("mode")
		cs.Direction = q.Get("direction")
		cs.Heuristic = q.Get("heuristic")
		cs.Timeout = q.Get("timeout")
		cs.RNG = q.Get("rng")
		cs.Components = q.Get("components")
		if s := q.Get("precision"); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errs.Warnf("invalid precision: %v", err)
			}
			cs.Precision = v
		}
		if s := q.Get("step_bound"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.Warnf("invalid step_bound: %v", err)
			}
			cs.StepBound = &v
		}
		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.Warnf("invalid seed: %v", err)
			}
			cs.Seed = v
		}
		if s := q.Get("save"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return nil, errs.Warnf("invalid save: %v", err)
			}
			req.Save = v
		}
	case http.MethodPost:
		if err := decodeJSON(r, req); err != nil {
			return nil, err
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}
	if err := req.Valid(); err != nil {
		return nil, err
	}
	return req, nil
}

// SimRequest 一次蒙地卡羅模擬請求（只接受目錄內的模型）。
type SimRequest struct {
	ModelID    spec.MID `json:"model_id,omitempty"`
	ModelName  string   `json:"model,omitempty"`
	Runs       int      `json:"runs"`
	MaxSteps   int      `json:"max_steps"`
	Workers    int      `json:"workers,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

func (r *SimRequest) Valid() error {
	if (r.ModelID == 0) == (r.ModelName == "") {
		return errs.NewWarn("exactly one of model_id, model is required")
	}
	if r.Runs < 1 || r.MaxSteps < 1 {
		return errs.NewWarn("runs and max_steps must > 0")
	}
	return nil
}

// DecodeSimRequest 只接受 POST JSON。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	req := new(SimRequest)
	if err := decodeJSON(r, req); err != nil {
		return nil, err
	}
	if err := req.Valid(); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Warnf("invalid json: %v", err)
	}
	return nil
}

func queryUint(s, name string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, errs.Warnf("invalid %s: %v", name, err)
	}
	return u, nil
}
