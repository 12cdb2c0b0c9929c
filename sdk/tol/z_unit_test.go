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

package tol

import "testing"

func TestEqTolerant(t *testing.T) {
	if !Eq(0.1+0.2, 0.3) {
		t.Fatalf("0.1+0.2 should equal 0.3 within tolerance")
	}
	if Eq(0.3, 0.3001) {
		t.Fatalf("0.3 and 0.3001 must differ")
	}
}

func TestOrdering(t *testing.T) {
	if !Leq(1.0+1e-15, 1.0) {
		t.Fatalf("Leq should absorb rounding noise")
	}
	if !Geq(1.0-1e-15, 1.0) {
		t.Fatalf("Geq should absorb rounding noise")
	}
	if Less(1.0-1e-15, 1.0) {
		t.Fatalf("Less must not fire on rounding noise")
	}
	if !Less(0.5, 0.6) {
		t.Fatalf("0.5 < 0.6")
	}
}

func TestZeroOneClamp(t *testing.T) {
	if !IsZero(1e-14) || IsZero(1e-6) {
		t.Fatalf("IsZero tolerance wrong")
	}
	if !IsOne(1 - 1e-14) {
		t.Fatalf("IsOne tolerance wrong")
	}
	if Clamp01(-1e-15) != 0 || Clamp01(1+1e-15) != 1 || Clamp01(0.4) != 0.4 {
		t.Fatalf("Clamp01 wrong")
	}
}
