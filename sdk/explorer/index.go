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

package explorer

// StateIndex 把不透明狀態對應到連續的整數 id（0,1,2...）。
type StateIndex[S comparable] struct {
	ids    map[S]int
	states []S
}

func NewStateIndex[S comparable]() *StateIndex[S] {
	return &StateIndex[S]{ids: make(map[S]int)}
}

// ID 查詢既有 id。
func (x *StateIndex[S]) ID(s S) (int, bool) {
	id, ok := x.ids[s]
	return id, ok
}

// Add 取得 id，不存在時配置新的 id 並回報 added。
func (x *StateIndex[S]) Add(s S) (id int, added bool) {
	if id, ok := x.ids[s]; ok {
		return id, false
	}
	id = len(x.states)
	x.ids[s] = id
	x.states = append(x.states, s)
	return id, true
}

func (x *StateIndex[S]) State(id int) S {
	return x.states[id]
}

func (x *StateIndex[S]) Len() int {
	return len(x.states)
}
