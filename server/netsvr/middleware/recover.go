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

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/server/httperr"
)

// Recover 把 handler 的 panic 轉成 500，並以 slog 記下 stack。
//
// http.ErrAbortHandler 照原樣往上丟（net/http 自己會處理）。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				if rv == nil {
					return
				}
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				err := errs.Recovered(rv)
				log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
					slog.String("path", r.URL.Path),
					slog.String("req_id", GetReqId(r)),
					slog.Any("err", err),
					slog.String("stack", string(debug.Stack())),
				)
				httperr.Errs(w, errs.NewFatal("internal error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
