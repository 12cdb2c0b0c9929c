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

package api

import (
	"net/http"

	v1 "github.com/zintix-labs/petlab/server/api/v1"
	"github.com/zintix-labs/petlab/server/httperr"
	"github.com/zintix-labs/petlab/server/netsvr"
	"github.com/zintix-labs/petlab/server/netsvr/middleware"
)

// RegisterRoutes chi 要求 middleware 先於路由註冊。
func RegisterRoutes(svr netsvr.NetRouter, d *v1.Deps) {
	registerMiddleware(svr, d)
	registerOps(svr, d)
	registerV1API(svr, d)
}

func registerMiddleware(svr netsvr.NetRouter, d *v1.Deps) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.Recover(d.Log))
	svr.Use(middleware.AccessLog(d.Log))
	svr.Use(middleware.Metrics(d.Metrics))
	svr.Use(middleware.Compression("/metrics"))
}

// registerOps 健康檢查與 prometheus
func registerOps(svr netsvr.NetRouter, d *v1.Deps) {
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Runtime.Closed() {
			httperr.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "closed", "reason": d.Runtime.ClosedReason(),
			})
			return
		}
		httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		svr.Handle("/metrics", d.Metrics.Handler())
	}
}

func registerV1API(svr netsvr.NetRouter, d *v1.Deps) {
	models := v1.NewModelsHandler(d)
	check := v1.NewCheckHandler(d)
	sim := v1.NewSimHandler(d)
	res := v1.NewResultsHandler(d)
	svr.Group("/v1", func(r netsvr.NetRouter) {
		r.Get("/models", models.List)

		r.Get("/check", check.Check)
		r.Post("/check", check.Check)
		r.Post("/simulate", sim.Simulate)

		r.Get("/results", res.List)
		r.Get("/results/{id}", res.Get)
	})
}
