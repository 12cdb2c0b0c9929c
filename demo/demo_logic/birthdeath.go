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
	"log"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/logic"
	"github.com/zintix-labs/petlab/sdk/model"
	"github.com/zintix-labs/petlab/spec"
)

// ============================================================
// ** 註冊 **
// ============================================================

const BirthDeathKey spec.LogicKey = "birthdeath"

func init() {
	if err := logic.Register[int](BirthDeathKey, buildBirthDeath, Logics); err != nil {
		log.Fatalf("%s register failed: %v", BirthDeathKey, err)
	}
}

// ============================================================
// ** 參數 **
// ============================================================

type birthDeathParams struct {
	P         float64 `yaml:"p"`         // 往上一格的機率
	Target    int     `yaml:"target"`    // 抵達即成功
	Start     int     `yaml:"start"`     // 初始族群
	Absorbing bool    `yaml:"absorbing"` // true: 0 為死結；false: 0 反射
}

func (p birthDeathParams) valid() error {
	if !(p.P > 0 && p.P < 1) {
		return errs.Warnf("birthdeath: p must be in (0,1), got %v", p.P)
	}
	if p.Target <= 0 {
		return errs.Warnf("birthdeath: target must be positive, got %d", p.Target)
	}
	if p.Start < 0 {
		return errs.Warnf("birthdeath: start must be non-negative, got %d", p.Start)
	}
	return nil
}

// ============================================================
// ** 生成器 **
// ============================================================

// BirthDeath 非負整數上的生滅鏈；狀態空間無上界，只有被探索到的部分會被建立。
type BirthDeath struct {
	params birthDeathParams
}

func buildBirthDeath(ms *spec.ModelSetting) (model.Generator[int], func(int) bool, error) {
	p := birthDeathParams{P: 0.5, Target: 10, Start: 1, Absorbing: true}
	if err := spec.DecodeParams(ms, &p); err != nil {
		return nil, nil, err
	}
	if err := p.valid(); err != nil {
		return nil, nil, err
	}
	bd := &BirthDeath{params: p}
	return bd, bd.IsTarget, nil
}

func (bd *BirthDeath) InitialStates() ([]int, error) {
	return []int{bd.params.Start}, nil
}

func (bd *BirthDeath) IsTarget(n int) bool {
	return n == bd.params.Target
}

func (bd *BirthDeath) Choices(n int) ([]model.Choice[int], error) {
	p := bd.params.P
	if n == 0 {
		if bd.params.Absorbing {
			return nil, nil
		}
		return []model.Choice[int]{{Transitions: []model.Transition[int]{{To: 1, Prob: p}, {To: 0, Prob: 1 - p}}}}, nil
	}
	return []model.Choice[int]{{Transitions: []model.Transition[int]{{To: n + 1, Prob: p}, {To: n - 1, Prob: 1 - p}}}}, nil
}
