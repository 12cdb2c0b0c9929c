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

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/petlab/demo"
	"github.com/zintix-labs/petlab/dto"
	"github.com/zintix-labs/petlab/server/api"
	"github.com/zintix-labs/petlab/server/netsvr"
	"github.com/zintix-labs/petlab/server/svrcfg"
	"github.com/zintix-labs/petlab/stats"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	lab, err := demo.NewPetlab()
	if err != nil {
		t.Fatalf("new petlab: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	lab.SetLogger(log)
	svc, err := Build(&svrcfg.SvrCfg{Log: log, Lab: lab, PoolSize: 2})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	svr := netsvr.NewChiServer("", 0)
	api.RegisterRoutes(svr, svc.Deps)
	ts := httptest.NewServer(svr.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = svc.Close()
	})
	return ts
}

func getJSON(t *testing.T, url string, want int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s status %d, want %d: %s", url, resp.StatusCode, want, b)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}

func postJSON(t *testing.T, url string, body any, want int, v any) {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST %s status %d, want %d: %s", url, resp.StatusCode, want, raw)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}

func TestHealthAndModels(t *testing.T) {
	ts := newTestServer(t)
	var h map[string]string
	getJSON(t, ts.URL+"/healthz", http.StatusOK, &h)
	if h["status"] != "ok" {
		t.Fatalf("health = %v", h)
	}
	var ml dto.ModelList
	getJSON(t, ts.URL+"/v1/models", http.StatusOK, &ml)
	if len(ml.Models) != 12 {
		t.Fatalf("models = %d, want 12", len(ml.Models))
	}
}

func TestCheckGetAndSave(t *testing.T) {
	ts := newTestServer(t)

	var cr dto.CheckResponse
	getJSON(t, ts.URL+"/v1/check?model=coin&seed=7&save=true", http.StatusOK, &cr)
	if !cr.Saved || cr.Report == nil || len(cr.Report.Results) != 1 {
		t.Fatalf("unexpected response: %+v", cr)
	}
	res := cr.Report.Results[0]
	if !res.Solved || res.Verdict != "true" {
		t.Fatalf("coin result = %+v", res)
	}
	if res.Bounds.Lower > 0.3+1e-6 || res.Bounds.Upper < 0.3-1e-6 {
		t.Fatalf("bounds %+v exclude 0.3", res.Bounds)
	}

	var list dto.ResultList
	getJSON(t, ts.URL+"/v1/results?model_id=2", http.StatusOK, &list)
	if len(list.Results) != 1 || list.Results[0].RunID != cr.Report.RunID {
		t.Fatalf("results = %+v", list)
	}

	var rep stats.CheckReport
	getJSON(t, ts.URL+"/v1/results/"+cr.Report.RunID, http.StatusOK, &rep)
	if rep.ModelName != "coin" || rep.RunID != cr.Report.RunID {
		t.Fatalf("stored report = %+v", rep)
	}
}

func TestCheckPostInline(t *testing.T) {
	ts := newTestServer(t)
	yml := strings.Join([]string{
		"model_id: 900",
		"model_name: inline_coin",
		"initial: [s]",
		"targets: [g]",
		"states:",
		"  - name: s",
		"    choices:",
		"      - transitions:",
		"          - {to: g, prob: 0.5}",
		"          - {to: x, prob: 0.5}",
		"  - name: g",
		"  - name: x",
	}, "\n")
	var cr dto.CheckResponse
	postJSON(t, ts.URL+"/v1/check", map[string]any{"model_yaml": yml}, http.StatusOK, &cr)
	if cr.Saved || !cr.Report.Solved() {
		t.Fatalf("inline check = %+v", cr)
	}
	if v := cr.Report.Results[0].Value; v == nil || *v < 0.5-1e-6 || *v > 0.5+1e-6 {
		t.Fatalf("value = %v", v)
	}
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)
	var eb dto.ErrorBody
	getJSON(t, ts.URL+"/v1/check", http.StatusBadRequest, &eb)
	if eb.Status != http.StatusBadRequest || eb.Level != "warn" {
		t.Fatalf("error body = %+v", eb)
	}
	getJSON(t, ts.URL+"/v1/check?model=nope", http.StatusBadRequest, nil)
	getJSON(t, ts.URL+"/v1/results/not-a-uuid", http.StatusBadRequest, nil)
	getJSON(t, ts.URL+"/v1/results/8b0f1c3e-4d7a-4f5e-9c1a-2b3c4d5e6f70", http.StatusNotFound, nil)
	postJSON(t, ts.URL+"/v1/simulate", map[string]any{"model": "coin"}, http.StatusBadRequest, nil)
	postJSON(t, ts.URL+"/v1/check", map[string]any{"model": "coin", "bogus": 1}, http.StatusBadRequest, nil)
}

func TestSimulate(t *testing.T) {
	ts := newTestServer(t)
	var rep stats.SimReport
	postJSON(t, ts.URL+"/v1/simulate", dto.SimRequest{ModelName: "chain3", Runs: 50, MaxSteps: 100, Workers: 2}, http.StatusOK, &rep)
	if rep.Runs != 50 || rep.Hits != 50 {
		t.Fatalf("sim report = %+v", rep)
	}
}

func TestMetricsAndCompression(t *testing.T) {
	ts := newTestServer(t)
	getJSON(t, ts.URL+"/v1/check?model=chain3", http.StatusOK, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{"petlab_check_total", "petlab_pool_size", "petlab_http_requests_total"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %s", want)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/models", nil)
	req.Header.Set("Accept-Encoding", "zstd")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Encoding") != "zstd" {
		t.Fatalf("content-encoding = %q", resp.Header.Get("Content-Encoding"))
	}
	zr, err := zstd.NewReader(resp.Body)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer zr.Close()
	var ml dto.ModelList
	if err := json.NewDecoder(zr).Decode(&ml); err != nil || len(ml.Models) != 12 {
		t.Fatalf("decode compressed: %v (%d models)", err, len(ml.Models))
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}
