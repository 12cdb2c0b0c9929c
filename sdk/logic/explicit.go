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

package logic

import (
	"slices"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/model"
	"github.com/zintix-labs/petlab/spec"
)

// Explicit 由 ModelSetting.States 建立的有限模型，狀態以名稱表示。
type Explicit struct {
	initial []string
	targets map[string]struct{}
	states  map[string][]model.Choice[string]
}

func NewExplicit(ms *spec.ModelSetting) (*Explicit, error) {
	if !ms.IsExplicit() {
		return nil, errs.Fatalf("model %s is not explicit", ms.ModelName)
	}
	ex := &Explicit{
		initial: slices.Clone(ms.Initial),
		targets: make(map[string]struct{}, len(ms.Targets)),
		states:  make(map[string][]model.Choice[string], len(ms.States)),
	}
	for _, t := range ms.Targets {
		ex.targets[t] = struct{}{}
	}
	for _, st := range ms.States {
		choices := make([]model.Choice[string], 0, len(st.Choices))
		for _, ch := range st.Choices {
			c := model.Choice[string]{Label: ch.Label}
			for _, tr := range ch.Transitions {
				c.Transitions = append(c.Transitions, model.Transition[string]{To: tr.To, Prob: tr.Prob})
			}
			choices = append(choices, c)
		}
		ex.states[st.Name] = choices
	}
	return ex, nil
}

func (ex *Explicit) InitialStates() ([]string, error) {
	return slices.Clone(ex.initial), nil
}

func (ex *Explicit) Choices(s string) ([]model.Choice[string], error) {
	ch, ok := ex.states[s]
	if !ok {
		return nil, errs.Warnf("explicit: undeclared state %q", s)
	}
	return ch, nil
}

func (ex *Explicit) IsTarget(s string) bool {
	_, ok := ex.targets[s]
	return ok
}

// NumStates 宣告的狀態數
func (ex *Explicit) NumStates() int {
	return len(ex.states)
}
