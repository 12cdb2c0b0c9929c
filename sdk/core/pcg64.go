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

package core

import (
	r2 "math/rand/v2"
)

// PCG64 math/rand/v2 的 PCG 來源；有界整數與浮點交給 rand.Rand（無偏）。
type PCG64 struct {
	src *r2.PCG
	r   *r2.Rand
}

// NewPCG64WithSeed seed 經 splitmix64 展開成兩個 64-bit 狀態，相鄰 seed 也不會相關。
func NewPCG64WithSeed(seed int64) *PCG64 {
	x := uint64(seed) ^ 0x9e3779b97f4a7c15
	src := r2.NewPCG(splitmix64(x), splitmix64(x^0xDA942042E4DD58B5))
	return &PCG64{src: src, r: r2.New(src)}
}

func (p *PCG64) Uint64() uint64 { return p.src.Uint64() }

// UintN [0,n)；n == 0 回傳 0。
func (p *PCG64) UintN(n uint) uint {
	if n == 0 {
		return 0
	}
	return uint(p.r.Uint64N(uint64(n)))
}

// IntN [0,n)；n <= 0 回傳 -1。
func (p *PCG64) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return p.r.IntN(n)
}

// Float64 [0,1)，53 bits。
func (p *PCG64) Float64() float64 { return p.r.Float64() }

func (p *PCG64) Snapshot() ([]byte, error) { return p.src.MarshalBinary() }

func (p *PCG64) Restore(data []byte) error { return p.src.UnmarshalBinary(data) }

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
