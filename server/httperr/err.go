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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/petlab/dto"
	"github.com/zintix-labs/petlab/errs"
)

// StatusCode 錯誤 → HTTP status。
//
//   - ctx 逾時 504，取消 408
//   - errs.Warn 400（請求或模型設定錯誤）
//   - 其他 500
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	var e *errs.E
	if errors.As(err, &e) && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func level(err error) string {
	var e *errs.E
	if errors.As(err, &e) {
		return errs.ErrLv(e.ErrLv)
	}
	return ""
}

// WriteJSON 以 JSON 寫回 v；編碼失敗時已無法改 status，只能放棄。
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Errs 寫回 dto.ErrorBody。500 不外露內部訊息。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	body := dto.ErrorBody{Error: err.Error(), Level: level(err), Status: status}
	if status == http.StatusInternalServerError {
		body.Error = http.StatusText(status)
	}
	WriteJSON(w, status, body)
}

// Log 只記錄值得關注的錯誤；400 屬於呼叫端問題不記。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch status := StatusCode(err); {
	case status >= 500:
		log.Error(msg, slog.Any("err", err), slog.Int("status", status))
	case status == http.StatusRequestTimeout:
		log.Warn(msg, slog.Any("err", err), slog.Int("status", status))
	}
}
