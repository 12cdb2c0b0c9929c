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
	"net/http"

	"github.com/zintix-labs/petlab/dto"
	"github.com/zintix-labs/petlab/server/httperr"
)

type SimHandler struct{ d *Deps }

func NewSimHandler(d *Deps) *SimHandler { return &SimHandler{d: d} }

// Simulate POST /v1/simulate
func (h *SimHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx := r.Context()
	if h.d.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.d.CheckTimeout)
		defer cancel()
	}
	rep, err := h.d.Runtime.Simulate(ctx, req)
	if h.d.Metrics != nil {
		h.d.Metrics.ObserveSimulation(modelLabel(uint64(req.ModelID), req.ModelName, false), err)
	}
	if err != nil {
		httperr.Log(h.d.Log, "v1.simulate", err)
		httperr.Errs(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, rep)
}
