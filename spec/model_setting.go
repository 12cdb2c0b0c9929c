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
	"math"
	"strings"

	"github.com/zintix-labs/petlab/errs"
)

// MID 模型編號（catalog 內唯一）
type MID uint

// LogicKey 對應已註冊的 Go 生成器。
type LogicKey string

// ExplicitLogic 由 ModelSetting.States 直接建立的內建生成器。
const ExplicitLogic LogicKey = "explicit"

// ModelSetting 一個可檢驗模型的完整描述。
//
// 兩種寫法：
//   - 顯式：列出 states / initial / targets，logic_key 省略或為 explicit
//   - 生成器：logic_key 指向已註冊的 Go 生成器，參數放在 params
//
// avoid 列出的狀態（以報表上的字串表示比對）被視為吸收的失敗狀態，
// 檢驗的是 "¬avoid U target"。同時是 target 的狀態以 target 計。
type ModelSetting struct {
	ModelID   MID            `yaml:"model_id"   json:"model_id"`
	ModelName string         `yaml:"model_name" json:"model_name"`
	LogicKey  LogicKey       `yaml:"logic_key"  json:"logic_key"`
	Initial   []string       `yaml:"initial"    json:"initial"`
	Targets   []string       `yaml:"targets"    json:"targets"`
	Avoid     []string       `yaml:"avoid"      json:"avoid,omitempty"`
	States    []StateSetting `yaml:"states"     json:"states"`
	Params    map[string]any `yaml:"params"     json:"params"`
	Check     CheckSetting   `yaml:"check"      json:"check"`
}

type StateSetting struct {
	Name    string          `yaml:"name"    json:"name"`
	Choices []ChoiceSetting `yaml:"choices" json:"choices"`
}

type ChoiceSetting struct {
	Label       string              `yaml:"label"       json:"label"`
	Transitions []TransitionSetting `yaml:"transitions" json:"transitions"`
}

type TransitionSetting struct {
	To   string  `yaml:"to"   json:"to"`
	Prob float64 `yaml:"prob" json:"prob"`
}

// IsExplicit 是否為顯式模型。
func (ms *ModelSetting) IsExplicit() bool {
	return ms.LogicKey == ExplicitLogic
}

func (ms *ModelSetting) init() error {
	ms.ModelName = strings.TrimSpace(ms.ModelName)
	if ms.LogicKey == "" && len(ms.States) > 0 {
		ms.LogicKey = ExplicitLogic
	}
	if err := ms.Check.init(); err != nil {
		return errs.Wrap(err, "model_name: "+ms.ModelName)
	}
	return ms.valid()
}

func (ms *ModelSetting) valid() error {
	if ms.ModelName == "" {
		return errs.NewFatal("model_name is required")
	}
	if ms.LogicKey == "" {
		return errs.Fatalf("model_name: %s err: logic_key or states is required", ms.ModelName)
	}
	if !ms.IsExplicit() {
		if len(ms.States) > 0 {
			return errs.Fatalf("model_name: %s err: states are only allowed for explicit models", ms.ModelName)
		}
		return nil
	}
	return ms.validExplicit()
}

// validExplicit 每個被引用的狀態都必須宣告；choice 機率總和為 1。
func (ms *ModelSetting) validExplicit() error {
	declared := make(map[string]struct{}, len(ms.States))
	for _, st := range ms.States {
		if st.Name == "" {
			return errs.Fatalf("model_name: %s err: state without name", ms.ModelName)
		}
		if _, dup := declared[st.Name]; dup {
			return errs.Fatalf("model_name: %s err: duplicate state %q", ms.ModelName, st.Name)
		}
		declared[st.Name] = struct{}{}
	}
	need := func(kind, name string) error {
		if _, ok := declared[name]; !ok {
			return errs.Fatalf("model_name: %s err: %s references undeclared state %q", ms.ModelName, kind, name)
		}
		return nil
	}
	if len(ms.Initial) == 0 {
		return errs.Fatalf("model_name: %s err: empty initial", ms.ModelName)
	}
	for _, s := range ms.Initial {
		if err := need("initial", s); err != nil {
			return err
		}
	}
	for _, s := range ms.Targets {
		if err := need("targets", s); err != nil {
			return err
		}
	}
	for _, s := range ms.Avoid {
		if err := need("avoid", s); err != nil {
			return err
		}
	}
	for _, st := range ms.States {
		for ci, ch := range st.Choices {
			if len(ch.Transitions) == 0 {
				return errs.Fatalf("model_name: %s err: state %q choice %d has no transitions", ms.ModelName, st.Name, ci)
			}
			sum := 0.0
			for _, tr := range ch.Transitions {
				if err := need("transition", tr.To); err != nil {
					return err
				}
				if tr.Prob <= 0 || tr.Prob > 1 {
					return errs.Fatalf("model_name: %s err: state %q invalid probability %v", ms.ModelName, st.Name, tr.Prob)
				}
				sum += tr.Prob
			}
			if math.Abs(sum-1) > 1e-9 {
				return errs.Fatalf("model_name: %s err: state %q choice %d sums to %v", ms.ModelName, st.Name, ci, sum)
			}
		}
	}
	return nil
}
