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

// Package logger 組裝 slog：依模式選 handler，可選擇包一層非同步派送。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zintix-labs/petlab/errs"
)

type LogMode uint8

const (
	ModeDev LogMode = iota
	ModeProd
	ModeSilence
)

var modeNames = map[string]LogMode{
	"dev":     ModeDev,
	"prod":    ModeProd,
	"silence": ModeSilence,
}

// ParseMode "dev" | "prod" | "silence"，大小寫不拘。
func ParseMode(s string) (LogMode, error) {
	if m, ok := modeNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return ModeDev, errs.Warnf("unknown log mode %q", s)
}

func (m LogMode) String() string {
	for k, v := range modeNames {
		if v == m {
			return k
		}
	}
	return "unknown"
}

// NewDefaultLogger 同步 logger。
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(handlerFor(mode, nil))
}

// NewDefaultAsyncLogger 非同步 logger，隊列 8192 筆。
func NewDefaultAsyncLogger(mode LogMode) *slog.Logger {
	return slog.New(NewAsyncHandler(handlerFor(mode, nil), 8192))
}

// NewLogger 以呼叫端自備的 handler 建 logger；nil 退回 dev。
func NewLogger(h slog.Handler) *slog.Logger {
	if h == nil {
		h = handlerFor(ModeDev, nil)
	}
	return slog.New(h)
}

// NewAsync 回傳 logger 與其 AsyncHandler（關閉時需要後者 drain）。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(handlerFor(mode, nil), buf)
	return slog.New(ah), ah
}

// NewTo 寫到指定的 w；測試與 CLI 的 --log-file 使用。
func NewTo(w io.Writer, mode LogMode) *slog.Logger {
	return slog.New(handlerFor(mode, w))
}

// handlerFor dev: text/stderr/debug；prod: json/stdout/info；silence: 丟棄。
func handlerFor(mode LogMode, w io.Writer) slog.Handler {
	switch mode {
	case ModeProd:
		if w == nil {
			w = os.Stdout
		}
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, nil)
	default:
		if w == nil {
			w = os.Stderr
		}
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}
