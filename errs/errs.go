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

// Package errs 定義 petlab 全域共用的分級錯誤型別。
//
// 分級原則：
//   - Fatal：系統或模型層級的不可恢復問題（設定檔壞掉、不變式被破壞）。
//   - Warn：呼叫端的輸入問題（參數錯誤、找不到模型），可由上層修正後重試。
//   - Log：僅需記錄的事件。
//
// 不變式違反（例如負機率、lower > upper、對目標狀態做更新）屬於程式錯誤，
// 一律以 Assert / Panicf 直接 panic，panic 值為 Fatal 等級的 *E。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端追加的上下文；Cause 串接下層錯誤；ErrLv 為嚴重度。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 以訊息包裝底層錯誤。
//
// ErrLevel 規則：
//   - cause 已經是 *E：沿用其 ErrLv。
//   - 其他錯誤（標準庫或三方依賴）：一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	r := New(levelOf(cause), msg)
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，另外附加上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := NewWithExtra(levelOf(cause), msg, extra)
	r.Cause = cause
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// IsFatal 回報 err 是否為（或包裝了）Fatal 等級的 *E。
func IsFatal(err error) bool {
	e, ok := AsErr(err)
	return ok && e.ErrLv == Fatal
}

// ============================================================
// ** 不變式 **
// ============================================================

// Panicf 以 Fatal 等級的 *E 直接 panic。
// 只用於程式錯誤（不變式被破壞），不可用於輸入驗證。
func Panicf(format string, a ...any) {
	panic(Fatalf(format, a...))
}

// Assert 在 cond 為 false 時 panic。
func Assert(cond bool, format string, a ...any) {
	if !cond {
		panic(Fatalf(format, a...))
	}
}

// Recovered 把 recover() 取得的值轉成 error；非 *E 的值包成 Fatal。
func Recovered(r any) error {
	switch v := r.(type) {
	case nil:
		return nil
	case *E:
		return v
	case error:
		return Wrap(v, "recovered panic")
	default:
		return Fatalf("recovered panic: %v", v)
	}
}

func levelOf(cause error) ErrLevel {
	var e *E
	if errors.As(cause, &e) {
		return e.ErrLv
	}
	return Fatal
}
