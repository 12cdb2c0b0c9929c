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
	"encoding/json"

	"github.com/zintix-labs/petlab/errs"
	"gopkg.in/yaml.v3"
)

// GetModelSettingByYAML
// 會讀取 YAML 設定、補齊預設值並執行基本檢查後回傳。
func GetModelSettingByYAML(data []byte) (*ModelSetting, error) {
	ms := &ModelSetting{}
	if err := yaml.Unmarshal(data, ms); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := ms.init(); err != nil {
		return nil, errs.Wrap(err, "model setting initialized err")
	}
	return ms, nil
}

// GetModelSettingByJSON
// 會讀取 Json 設定、補齊預設值並執行基本檢查後回傳
func GetModelSettingByJSON(data []byte) (*ModelSetting, error) {
	ms := &ModelSetting{}
	if err := json.Unmarshal(data, ms); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := ms.init(); err != nil {
		return nil, errs.Wrap(err, "model setting initialized err")
	}
	return ms, nil
}

// GetCheckSettingByYAML 單獨的檢驗設定（例如 CLI 的 --check 檔案）。
func GetCheckSettingByYAML(data []byte) (*CheckSetting, error) {
	cs := &CheckSetting{}
	if err := yaml.Unmarshal(data, cs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := cs.init(); err != nil {
		return nil, err
	}
	return cs, nil
}

func GetCheckSettingByJSON(data []byte) (*CheckSetting, error) {
	cs := &CheckSetting{}
	if err := json.Unmarshal(data, cs); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := cs.init(); err != nil {
		return nil, err
	}
	return cs, nil
}
