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
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/petlab/dto"
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/server/httperr"
	"github.com/zintix-labs/petlab/spec"
	"github.com/zintix-labs/petlab/store"
)

var errSaveDisabled = errs.NewWarn("result store is disabled")

type ResultsHandler struct{ d *Deps }

func NewResultsHandler(d *Deps) *ResultsHandler { return &ResultsHandler{d: d} }

// List GET /v1/results?model_id=&limit=
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.d.Store == nil {
		httperr.Errs(w, errSaveDisabled)
		return
	}
	q := r.URL.Query()
	var (
		mid   uint64
		limit int
		err   error
	)
	if s := q.Get("model_id"); s != "" {
		if mid, err = strconv.ParseUint(s, 10, 32); err != nil {
			httperr.Errs(w, errs.Warnf("invalid model_id: %v", err))
			return
		}
	}
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			httperr.Errs(w, errs.Warnf("invalid limit %q", s))
			return
		}
	}
	items, err := h.d.Store.List(r.Context(), spec.MID(mid), limit)
	if err != nil {
		httperr.Log(h.d.Log, "v1.results", err)
		httperr.Errs(w, err)
		return
	}
	if items == nil {
		items = []dto.ResultItem{}
	}
	httperr.WriteJSON(w, http.StatusOK, dto.ResultList{Results: items})
}

// Get GET /v1/results/{id}
func (h *ResultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.d.Store == nil {
		httperr.Errs(w, errSaveDisabled)
		return
	}
	rep, err := h.d.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httperr.WriteJSON(w, http.StatusNotFound, dto.ErrorBody{
			Error: err.Error(), Level: "warn", Status: http.StatusNotFound,
		})
		return
	}
	if err != nil {
		httperr.Log(h.d.Log, "v1.results get", err)
		httperr.Errs(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, rep)
}
