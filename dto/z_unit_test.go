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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDecodeCheckRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/check?model_id=7&precision=0.001&direction=min&step_bound=3&seed=42&save=true", nil)
	req, err := DecodeCheckRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ModelID != 7 || req.Check.Precision != 0.001 || req.Check.Direction != "min" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Check.StepBound == nil || *req.Check.StepBound != 3 || req.Check.Seed != 42 || !req.Save {
		t.Fatalf("unexpected request: %+v", req)
	}
	r = httptest.NewRequest(http.MethodGet, "/v1/check?model=core_birthdeath&mode=core", nil)
	req, err = DecodeCheckRequest(r)
	if err != nil || req.Check.Mode != "core" {
		t.Fatalf("mode must be decoded: %+v %v", req, err)
	}
}

func TestDecodeCheckRequestGETBadNumber(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/check?model_id=x", nil)
	if _, err := DecodeCheckRequest(r); err == nil {
		t.Fatalf("expected error for bad model_id")
	}
	r = httptest.NewRequest(http.MethodGet, "/v1/check?model=coin&precision=abc", nil)
	if _, err := DecodeCheckRequest(r); err == nil {
		t.Fatalf("expected error for bad precision")
	}
}

func TestDecodeCheckRequestPOSTInline(t *testing.T) {
	payload := map[string]any{
		"model_json": map[string]any{
			"model_name": "inline",
			"initial":    []string{"a"},
			"targets":    []string{"a"},
			"states":     []map[string]any{{"name": "a"}},
		},
		"check": map[string]any{"precision": 0.01},
	}
	data, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, "/v1/check", bytes.NewReader(data))
	req, err := DecodeCheckRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.Inline() || req.Check.Precision != 0.01 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeCheckRequestNeedsOneModel(t *testing.T) {
	cases := []string{
		`{"check":{}}`,
		`{"model_id":1,"model":"coin"}`,
		`{"model":"coin","model_yaml":"model_name: x"}`,
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodPost, "/v1/check", bytes.NewReader([]byte(c)))
		if _, err := DecodeCheckRequest(r); err == nil {
			t.Fatalf("expected error for %s", c)
		}
	}
}

func TestDecodeCheckRequestRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"model_id":1,"unknown":true}`)
	r := httptest.NewRequest(http.MethodPost, "/v1/check", bytes.NewReader(data))
	if _, err := DecodeCheckRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestDecodeSimRequest(t *testing.T) {
	data := []byte(`{"model":"coin","runs":100,"max_steps":50,"workers":2}`)
	r := httptest.NewRequest(http.MethodPost, "/v1/simulate", bytes.NewReader(data))
	req, err := DecodeSimRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ModelName != "coin" || req.Runs != 100 || req.MaxSteps != 50 || req.Workers != 2 {
		t.Fatalf("unexpected request: %+v", req)
	}

	r = httptest.NewRequest(http.MethodPost, "/v1/simulate", bytes.NewReader([]byte(`{"model":"coin","runs":0,"max_steps":5}`)))
	if _, err := DecodeSimRequest(r); err == nil {
		t.Fatalf("expected error for zero runs")
	}
	r = httptest.NewRequest(http.MethodGet, "/v1/simulate", nil)
	if _, err := DecodeSimRequest(r); err == nil {
		t.Fatalf("expected error for GET")
	}
}
