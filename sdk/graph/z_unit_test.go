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

package graph

import (
	"reflect"
	"testing"

	"github.com/zintix-labs/petlab/sdk/model"
)

type fixed [][]*model.Distribution

func (f fixed) NumStates() int { return len(f) }
func (f fixed) Choices(s int) []*model.Distribution { return f[s] }

func dist(kv ...float64) *model.Distribution {
	b := model.NewBuilder()
	for i := 0; i+1 < len(kv); i += 2 {
		b.Add(int(kv[i]), kv[i+1])
	}
	return b.Build()
}

func TestSCCsSortedAndFiltered(t *testing.T) {
	succ := map[int][]int{
		5: {3, 5},
		3: {5, 9}, // 9 不在集合內
		1: {1},
	}
	got := SCCs([]int{5, 3, 1}, func(s int) []int { return succ[s] })
	want := [][]int{{1}, {3, 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SCCs = %v, want %v", got, want)
	}
	if SCCs(nil, nil) != nil {
		t.Fatalf("empty input must give nil")
	}
}

func TestMECRefinement(t *testing.T) {
	// 4 為 fringe（不在已探索集合內）
	m := fixed{
		{dist(1, 1), dist(4, 1)},
		{dist(0, 1)},
		{dist(0, 0.5, 3, 0.5)},
		{dist(2, 1)},
		nil,
	}
	got := MECAnalyser{}.FindComponents(m, []int{3, 2, 1, 0})
	if want := [][]int{{0, 1}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("MECs = %v, want %v", got, want)
	}
	if IsBottom(m, []int{0, 1}) {
		t.Fatalf("{0,1} can leave through 4, it is not bottom")
	}
}

func TestMECSingletonNeedsStayingChoice(t *testing.T) {
	m := fixed{
		{dist(0, 1), dist(1, 1)},
		{dist(2, 1)},
		{},
	}
	got := MECAnalyser{}.FindComponents(m, []int{0, 1, 2})
	if want := [][]int{{0}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("MECs = %v, want %v", got, want)
	}
}

func TestBSCC(t *testing.T) {
	m := fixed{
		{dist(1, 0.5, 2, 0.5)},
		{dist(2, 1)},
		{dist(1, 1)},
		{},
	}
	if got, want := (BSCCAnalyser{}).FindComponents(m, []int{0, 1, 2, 3}), [][]int{{1, 2}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("BSCCs = %v, want %v", got, want)
	}
	if got, want := (SCCAnalyser{}).FindComponents(m, []int{3, 2, 1, 0}), [][]int{{0}, {1, 2}, {3}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("SCCs = %v, want %v", got, want)
	}
}

func TestDeterministicOutput(t *testing.T) {
	m := fixed{
		{dist(1, 1)},
		{dist(0, 1)},
		{dist(3, 1)},
		{dist(2, 1)},
	}
	a := MECAnalyser{}.FindComponents(m, []int{0, 1, 2, 3})
	b := MECAnalyser{}.FindComponents(m, []int{3, 1, 2, 0})
	if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(a, [][]int{{0, 1}, {2, 3}}) {
		t.Fatalf("output must be order independent: %v vs %v", a, b)
	}
}
