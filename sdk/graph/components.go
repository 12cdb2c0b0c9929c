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

// Package graph 在已探索子圖上找 end component。
//
// 所有輸出都經過排序：每個 component 內部遞增，component 之間依最小成員遞增。
// 相同輸入必得相同輸出，driver 才能判斷哪些 component 是新的。
package graph

import (
	"slices"

	gg "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/zintix-labs/petlab/sdk/model"
)

// Analyser 在 states 所誘導的子圖上回傳互斥的 component。
//
// 不在 states 內的後繼（例如 fringe 狀態）一律視為「離開」。
type Analyser interface {
	FindComponents(m model.Model, states []int) [][]int
}

// SCCs 以 Tarjan 求 states 上的強連通分量；succ 中不在 states 內的點被忽略。
func SCCs(states []int, succ func(s int) []int) [][]int {
	if len(states) == 0 {
		return nil
	}
	in := setOf(states)
	g := simple.NewDirectedGraph()
	for _, s := range states {
		if g.Node(int64(s)) == nil {
			g.AddNode(simple.Node(s))
		}
	}
	for _, s := range states {
		for _, t := range succ(s) {
			// simple.DirectedGraph 不允許自環；自環也不影響強連通性
			if t == s {
				continue
			}
			if _, ok := in[t]; !ok {
				continue
			}
			g.SetEdge(g.NewEdge(simple.Node(s), simple.Node(t)))
		}
	}
	raw := topo.TarjanSCC(g)
	comps := make([][]int, len(raw))
	for i, c := range raw {
		comps[i] = nodesToInts(c)
	}
	return normalize(comps)
}

// SCCAnalyser 回傳全部 SCC（含單點）。
type SCCAnalyser struct{}

func (SCCAnalyser) FindComponents(m model.Model, states []int) [][]int {
	return SCCs(states, func(s int) []int { return successors(m, s, nil) })
}

// BSCCAnalyser 馬可夫鏈用：只保留沒有任何邊離開的 SCC。
// 沒有 choice 的死結狀態不算。
type BSCCAnalyser struct{}

func (BSCCAnalyser) FindComponents(m model.Model, states []int) [][]int {
	out := make([][]int, 0)
	for _, c := range (SCCAnalyser{}).FindComponents(m, states) {
		if IsBottom(m, c) {
			out = append(out, c)
		}
	}
	return out
}

// MECAnalyser MDP 用：反覆剪掉會離開候選集合的 choice、剔除沒有剩餘 choice 的狀態，
// 再以 SCC 細分，直到每個集合都穩定。
type MECAnalyser struct{}

func (MECAnalyser) FindComponents(m model.Model, states []int) [][]int {
	out := make([][]int, 0)
	work := [][]int{sorted(states)}
	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]

		cset := setOf(c)
		for changed := true; changed; {
			changed = false
			for _, s := range c {
				if _, ok := cset[s]; !ok {
					continue
				}
				if !hasStayingChoice(m, s, cset) {
					delete(cset, s)
					changed = true
				}
			}
		}
		if len(cset) == 0 {
			continue
		}
		rest := make([]int, 0, len(cset))
		for _, s := range c {
			if _, ok := cset[s]; ok {
				rest = append(rest, s)
			}
		}
		sccs := SCCs(rest, func(s int) []int { return successors(m, s, cset) })
		if len(sccs) == 1 && len(sccs[0]) == len(rest) {
			out = append(out, rest)
			continue
		}
		work = append(work, sccs...)
	}
	return normalize(out)
}

// IsBottom 每個成員至少有一個 choice，且所有 choice 都留在 comp 內。
func IsBottom(m model.Model, comp []int) bool {
	in := setOf(comp)
	for _, s := range comp {
		choices := m.Choices(s)
		if len(choices) == 0 {
			return false
		}
		for _, d := range choices {
			if !d.SubsetOf(func(t int) bool { _, ok := in[t]; return ok }) {
				return false
			}
		}
	}
	return true
}

func hasStayingChoice(m model.Model, s int, in map[int]struct{}) bool {
	for _, d := range m.Choices(s) {
		if d.SubsetOf(func(t int) bool { _, ok := in[t]; return ok }) {
			return true
		}
	}
	return false
}

// successors 不為 nil 的 allowed 集合時，只計入完全留在集合內的 choice。
func successors(m model.Model, s int, allowed map[int]struct{}) []int {
	out := make([]int, 0)
	for _, d := range m.Choices(s) {
		if allowed != nil && !d.SubsetOf(func(t int) bool { _, ok := allowed[t]; return ok }) {
			continue
		}
		out = append(out, d.Support()...)
	}
	return out
}

func normalize(comps [][]int) [][]int {
	out := make([][]int, 0, len(comps))
	for _, c := range comps {
		out = append(out, sorted(c))
	}
	slices.SortFunc(out, func(a, b []int) int { return a[0] - b[0] })
	return out
}

func sorted(s []int) []int {
	c := slices.Clone(s)
	slices.Sort(c)
	return c
}

func setOf(s []int) map[int]struct{} {
	m := make(map[int]struct{}, len(s))
	for _, v := range s {
		m[v] = struct{}{}
	}
	return m
}

// nodesToInts gonum 節點轉回狀態 id。
func nodesToInts(nodes []gg.Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = int(n.ID())
	}
	return out
}
