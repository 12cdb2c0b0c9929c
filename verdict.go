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

package petlab

import (
	"strconv"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/bounds"
	"github.com/zintix-labs/petlab/spec"
)

const (
	VerdictTrue    = "true"
	VerdictFalse   = "false"
	VerdictUnknown = "unknown"
	// VerdictCore core 已學完，Value 為逃出機率上界
	VerdictCore = "core"
)

// Verdict 把已收斂的區間解讀成報表上的結論。
type Verdict interface {
	// Interpret 未收斂一律回傳 (nil, unknown)。
	Interpret(b bounds.Bounds, solved bool) (value *float64, verdict string)
}

// AverageVerdict 回報 (lower+upper)/2。
type AverageVerdict struct{}

func (AverageVerdict) Interpret(b bounds.Bounds, solved bool) (*float64, string) {
	if !solved {
		return nil, VerdictUnknown
	}
	v := b.Average()
	return &v, strconv.FormatFloat(v, 'g', 8, 64)
}

// ThresholdVerdict 整個區間都滿足 (或都不滿足) Op Value 才下結論。
type ThresholdVerdict struct {
	Op    string
	Value float64
}

func (t ThresholdVerdict) Interpret(b bounds.Bounds, solved bool) (*float64, string) {
	if !solved {
		return nil, VerdictUnknown
	}
	holds := func(x float64) bool {
		switch t.Op {
		case ">=":
			return x >= t.Value
		case ">":
			return x > t.Value
		case "<=":
			return x <= t.Value
		default:
			return x < t.Value
		}
	}
	lo, hi := holds(b.Lower), holds(b.Upper)
	switch {
	case lo && hi:
		return nil, VerdictTrue
	case !lo && !hi:
		return nil, VerdictFalse
	default:
		return nil, VerdictUnknown
	}
}

// CoreVerdict core 模式的解讀：回報逃出機率上界。
type CoreVerdict struct{}

func (CoreVerdict) Interpret(b bounds.Bounds, solved bool) (*float64, string) {
	if !solved {
		return nil, VerdictUnknown
	}
	v := b.Upper
	return &v, VerdictCore
}

// NewVerdict 依設定建立；設定已通過 spec 檢查。
func NewVerdict(is spec.InterpretationSetting) (Verdict, error) {
	switch is.Kind {
	case "", "average":
		return AverageVerdict{}, nil
	case "threshold":
		return ThresholdVerdict{Op: is.Op, Value: is.Value}, nil
	default:
		return nil, errs.Warnf("unknown interpretation %q", is.Kind)
	}
}
