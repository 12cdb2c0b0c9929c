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

// Package logic 以 logic key 管理 Go 生成器。
//
// 每次檢驗都透過 Registry.Build 取得新的 explorer.Factory；
// 顯式模型（logic_key: explicit）由內建的 Explicit 處理，不需註冊。
package logic

import (
	"fmt"
	"maps"
	"slices"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/explorer"
	"github.com/zintix-labs/petlab/sdk/model"
	"github.com/zintix-labs/petlab/spec"
)

// Builder 依模型設定（通常是 params）建立可探索的模型。
type Builder func(ms *spec.ModelSetting) (explorer.Factory, error)

// GeneratorBuilder 具型別的生成器與 target 判斷。
type GeneratorBuilder[S comparable] func(ms *spec.ModelSetting) (model.Generator[S], func(S) bool, error)

// Register 把具型別的生成器註冊成 Builder。
//
// 這是 free function 而不是 method，因為 method 不能有型別參數。
func Register[S comparable](lkey spec.LogicKey, gb GeneratorBuilder[S], reg *Registry) error {
	return reg.Register(lkey, func(ms *spec.ModelSetting) (explorer.Factory, error) {
		gen, target, err := gb(ms)
		if err != nil {
			return nil, err
		}
		return explorer.BindUntil(gen, target, avoidOf[S](ms)), nil
	})
}

// avoidOf 以狀態的字串表示（與報表上的 state 相同）比對 ms.Avoid；未設定時為 nil。
func avoidOf[S comparable](ms *spec.ModelSetting) func(S) bool {
	if len(ms.Avoid) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ms.Avoid))
	for _, a := range ms.Avoid {
		set[a] = struct{}{}
	}
	return func(s S) bool {
		_, ok := set[fmt.Sprint(s)]
		return ok
	}
}

type Registry struct {
	builders map[spec.LogicKey]Builder
}

func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[spec.LogicKey]Builder, 16),
	}
}

func (r *Registry) Register(lkey spec.LogicKey, b Builder) error {
	if lkey == "" || lkey == spec.ExplicitLogic {
		return errs.Fatalf("logic key %q is reserved", lkey)
	}
	if _, ok := r.builders[lkey]; ok {
		return errs.Fatalf("duplicate logic builder: %s", lkey)
	}
	r.builders[lkey] = b
	return nil
}

// Build 顯式模型直接建 Explicit；其餘查表。
func (r *Registry) Build(ms *spec.ModelSetting) (explorer.Factory, error) {
	if ms.IsExplicit() {
		ex, err := NewExplicit(ms)
		if err != nil {
			return nil, err
		}
		return explorer.BindUntil[string](ex, ex.IsTarget, avoidOf[string](ms)), nil
	}
	b, ok := r.builders[ms.LogicKey]
	if !ok {
		return nil, errs.NewFatal(fmt.Sprintf("logic is not exist: %s", ms.LogicKey))
	}
	return b(ms)
}

func (r *Registry) IsExist(lkey spec.LogicKey) bool {
	if lkey == spec.ExplicitLogic {
		return true
	}
	_, ok := r.builders[lkey]
	return ok
}

// Keys 已註冊的 logic key（遞增，不含 explicit）。
func (r *Registry) Keys() []spec.LogicKey {
	return slices.Sorted(maps.Keys(r.builders))
}

// MergeRegistry 合併多個 registry；重複 key 一律視為錯誤。
func MergeRegistry(regs ...*Registry) (*Registry, error) {
	out := NewRegistry()
	origin := make(map[spec.LogicKey]int, 16)
	for i, r := range regs {
		if r == nil {
			continue
		}
		for lkey, b := range r.builders {
			if _, ok := out.builders[lkey]; ok {
				return nil, errs.Fatalf("duplicate logic key %s (registry #%d and #%d)", lkey, origin[lkey], i)
			}
			out.builders[lkey] = b
			origin[lkey] = i
		}
	}
	return out, nil
}
