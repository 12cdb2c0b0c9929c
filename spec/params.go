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

package spec

import (
	"bytes"

	"github.com/zintix-labs/petlab/errs"
	"gopkg.in/yaml.v3"
)

// DecodeParams 把 ms.Params 由 map[string]any 轉成生成器自己的參數型別 T。
// 未知欄位視為錯誤；Params 為空時 out 保持原值（可預先填預設）。
func DecodeParams[T any](ms *ModelSetting, out *T) error {
	if len(ms.Params) == 0 {
		return nil
	}
	// 先把 map[string]any -> YAML bytes
	bs, err := yaml.Marshal(ms.Params)
	if err != nil {
		return errs.Wrap(err, "spec.params : marshal failed")
	}
	// 再把 YAML bytes -> 自定義的型別
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true) // 嚴格檢查：多寫/拼錯欄位就報錯
	if err = dec.Decode(out); err != nil {
		return errs.Wrap(err, "spec.params : decode failed")
	}
	return nil
}
