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

package demo_logic

import (
	"fmt"
	"log"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/logic"
	"github.com/zintix-labs/petlab/sdk/model"
	"github.com/zintix-labs/petlab/spec"
)

const GamblerKey spec.LogicKey = "gambler"

func init() {
	if err := logic.Register[Money](GamblerKey, buildGambler, Logics); err != nil {
		log.Fatalf("%s register failed: %v", GamblerKey, err)
	}
}

// Money 賭徒手上的籌碼。
type Money struct {
	M int
}

func (m Money) String() string {
	return fmt.Sprintf("$%d", m.M)
}

type gamblerParams struct {
	Goal  int     `yaml:"goal"`
	P     float64 `yaml:"p"` // 單次下注勝率
	Start int     `yaml:"start"`
}

// Gambler 賭徒問題：每一步選擇下注額 b (1..min(m, goal-m))，
// 以機率 p 得到 m+b，否則 m-b。籌碼歸零為死結。
type Gambler struct {
	params gamblerParams
}

func buildGambler(ms *spec.ModelSetting) (model.Generator[Money], func(Money) bool, error) {
	p := gamblerParams{Goal: 100, P: 0.4, Start: 50}
	if err := spec.DecodeParams(ms, &p); err != nil {
		return nil, nil, err
	}
	if p.Goal <= 1 || !(p.P > 0 && p.P < 1) || p.Start < 0 || p.Start > p.Goal {
		return nil, nil, errs.Warnf("gambler: invalid params %+v", p)
	}
	g := &Gambler{params: p}
	return g, g.IsTarget, nil
}

func (g *Gambler) InitialStates() ([]Money, error) {
	return []Money{{M: g.params.Start}}, nil
}

func (g *Gambler) IsTarget(m Money) bool {
	return m.M >= g.params.Goal
}

func (g *Gambler) Choices(m Money) ([]model.Choice[Money], error) {
	if m.M <= 0 || m.M >= g.params.Goal {
		return nil, nil
	}
	maxBet := min(m.M, g.params.Goal-m.M)
	out := make([]model.Choice[Money], 0, maxBet)
	for b := 1; b <= maxBet; b++ {
		out = append(out, model.Choice[Money]{
			Label: fmt.Sprintf("bet=%d", b),
			Transitions: []model.Transition[Money]{
				{To: Money{M: m.M + b}, Prob: g.params.P},
				{To: Money{M: m.M - b}, Prob: 1 - g.params.P},
			},
		})
	}
	return out, nil
}
