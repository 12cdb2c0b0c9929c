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

package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/petlab/dto"
	"github.com/zintix-labs/petlab/server/httperr"
	"github.com/zintix-labs/petlab/server/netsvr/middleware"
)

type CheckHandler struct{ d *Deps }

func NewCheckHandler(d *Deps) *CheckHandler { return &CheckHandler{d: d} }

// Check GET|POST /v1/check
//
// 未收斂（timeout / canceled）仍回 200，報表帶 stop_reason 與當下的區間。
func (h *CheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeCheckRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Save && h.d.Store == nil {
		httperr.Errs(w, errSaveDisabled)
		return
	}

	ctx := r.Context()
	if h.d.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.d.CheckTimeout)
		defer cancel()
	}

	start := time.Now()
	rep, err := h.d.Runtime.Check(ctx, req)
	if h.d.Metrics != nil {
		h.d.Metrics.ObserveCheck(checkLabel(req), rep, time.Since(start))
	}
	if err != nil {
		httperr.Log(h.d.Log, "v1.check", err)
		httperr.Errs(w, err)
		return
	}

	resp := dto.CheckResponse{Report: rep}
	if req.Save {
		// 請求 ctx 可能已逾時，寫入用獨立期限
		sctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer cancel()
		if err := h.d.Store.Save(sctx, rep); err != nil {
			httperr.Log(h.d.Log, "v1.check save", err)
			httperr.Errs(w, err)
			return
		}
		resp.Saved = true
	}
	h.d.Log.Debug("v1.check",
		slog.String("req_id", middleware.GetReqId(r)),
		slog.String("run_id", rep.RunID),
		slog.String("stop", rep.StopReason),
	)
	httperr.WriteJSON(w, http.StatusOK, resp)
}
