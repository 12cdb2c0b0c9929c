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
	"net/http"

	"github.com/zintix-labs/petlab/dto"
	"github.com/zintix-labs/petlab/server/httperr"
)

type ModelsHandler struct{ d *Deps }

func NewModelsHandler(d *Deps) *ModelsHandler { return &ModelsHandler{d: d} }

// List GET /v1/models
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	sums, err := h.d.Runtime.Models()
	if err != nil {
		httperr.Log(h.d.Log, "v1.models", err)
		httperr.Errs(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, dto.ModelList{Models: sums})
}
