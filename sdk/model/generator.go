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

package model

// Transition 單一後繼與其機率。
type Transition[S comparable] struct {
	To   S
	Prob float64
}

// Choice 一個（可選標籤的）非決定性選擇；以 slice 保存以維持決定性的探索順序。
type Choice[S comparable] struct {
	Label       string
	Transitions []Transition[S]
}

// Generator 按需產生狀態空間的外部邊界。
//
// 引擎只使用 S 的相等性，不會檢查其內容；Choices 對同一 S 必須回傳相同結果。
type Generator[S comparable] interface {
	InitialStates() ([]S, error)
	Choices(state S) ([]Choice[S], error)
}

// Model 以整數 id 觀看（部分）狀態圖。
type Model interface {
	NumStates() int
	Choices(state int) []*Distribution
}
