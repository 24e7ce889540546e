// Copyright 2025 go-highway Authors
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

package matmul

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/ajroetker/go-synet/hwy"
)

func testCapabilities() []hwy.Capability {
	return []hwy.Capability{
		hwy.CapabilityFor(hwy.DispatchScalar),
		hwy.CapabilityFor(hwy.DispatchNEON),
		hwy.CapabilityFor(hwy.DispatchAVX2),
		hwy.CapabilityFor(hwy.DispatchAVX512),
	}
}

func randSlice(rng *rand.Rand, n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = rng.Float32()*2 - 1
	}
	return s
}

func assertClose(t *testing.T, name string, got, want []float32, tol float64) {
	t.Helper()
	for i := range want {
		ref := math.Abs(float64(want[i]))
		if diff := math.Abs(float64(got[i] - want[i])); diff > tol*math.Max(1, ref) {
			t.Fatalf("%s: index %d: got %v, want %v (diff %v)", name, i, got[i], want[i], diff)
		}
	}
}

func TestGEMMSmall(t *testing.T) {
	// 2x3 * 3x2 = 2x2
	a := []float32{1, 2, 3, 4, 5, 6}
	b := []float32{7, 8, 9, 10, 11, 12}
	want := []float32{58, 64, 139, 154}

	for _, c := range testCapabilities() {
		got := make([]float32, 4)
		New(c, false).NN(2, 2, 3, a, 3, b, 2, got, 2)
		assertClose(t, c.String(), got, want, 1e-6)
	}
}

func TestGEMMNN(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	shapes := []struct{ m, n, k int }{
		{1, 1, 1},
		{3, 5, 7},
		{4, 16, 9},
		{7, 33, 130},
		{17, 9, 300},
		{130, 20, 3},
	}
	for _, c := range testCapabilities() {
		for _, noFMA := range []bool{false, true} {
			g := New(c, noFMA)
			for _, s := range shapes {
				t.Run(fmt.Sprintf("%s/noFMA=%v/%dx%dx%d", c, noFMA, s.m, s.n, s.k), func(t *testing.T) {
					// Strided operands: two extra columns of padding per row.
					lda, ldb, ldc := s.k+2, s.n+2, s.n+2
					a := randSlice(rng, s.m*lda)
					b := randSlice(rng, s.k*ldb)
					got := make([]float32, s.m*ldc)
					want := make([]float32, s.m*ldc)
					for i := range got {
						got[i] = 42
						want[i] = 42
					}
					GemmScalar(s.m, s.n, s.k, a, lda, b, ldb, want, ldc)
					g.NN(s.m, s.n, s.k, a, lda, b, ldb, got, ldc)
					assertClose(t, "NN", got, want, 1e-4)
				})
			}
		}
	}
}

func TestGEMMNT(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	shapes := []struct{ m, n, k int }{
		{1, 1, 1},
		{2, 3, 5},
		{5, 8, 31},
		{16, 7, 64},
	}
	for _, c := range testCapabilities() {
		g := New(c, false)
		for _, s := range shapes {
			t.Run(fmt.Sprintf("%s/%dx%dx%d", c, s.m, s.n, s.k), func(t *testing.T) {
				a := randSlice(rng, s.m*s.k)
				b := randSlice(rng, s.n*s.k)
				got := make([]float32, s.m*s.n)
				want := make([]float32, s.m*s.n)
				GemmNTScalar(s.m, s.n, s.k, a, s.k, b, s.k, want, s.n)
				g.NT(s.m, s.n, s.k, a, s.k, b, s.k, got, s.n)
				assertClose(t, "NT", got, want, 1e-4)
			})
		}
	}
}

func TestGEMMZeroK(t *testing.T) {
	c := []float32{1, 2, 3, 4}
	New(hwy.Detect(), false).NN(2, 2, 0, nil, 0, nil, 2, c, 2)
	for i, v := range c {
		if v != 0 {
			t.Errorf("c[%d] = %v, want 0", i, v)
		}
	}
}

func TestGEMMShortOperandPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NN with a short b slice did not panic")
		}
	}()
	New(hwy.Detect(), false).NN(2, 2, 2, make([]float32, 4), 2, make([]float32, 3), 2, make([]float32, 4), 2)
}

func TestMicroTileFitsRegisters(t *testing.T) {
	for _, c := range testCapabilities() {
		p := CacheParamsFor(c)
		if p.Mr > maxMr || hwy.DivHi(p.Nr, c.Lanes32()) > maxNv {
			t.Errorf("%s: micro-tile %dx%d exceeds %dx%d vectors", c, p.Mr, p.Nr, maxMr, maxNv)
		}
	}
}

func TestGEMMDoesNotAllocate(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const m, n, k = 9, 21, 13
	a, b := randSlice(rng, m*k), randSlice(rng, k*n)
	bt := randSlice(rng, n*k)
	c := make([]float32, m*n)
	for _, cp := range testCapabilities() {
		g := New(cp, false)
		allocs := testing.AllocsPerRun(10, func() {
			g.NN(m, n, k, a, k, b, n, c, n)
			g.NT(m, n, k, a, k, bt, k, c, n)
		})
		if allocs != 0 {
			t.Errorf("%s: GEMM allocated %v times per run", cp, allocs)
		}
	}
}

func TestGEMMU8I8NT(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := New(hwy.Detect(), false)
	for _, overflow16 := range []bool{false, true} {
		for _, s := range []struct{ m, n, k int }{{1, 1, 1}, {3, 5, 7}, {4, 9, 64}} {
			t.Run(fmt.Sprintf("overflow16=%v/%dx%dx%d", overflow16, s.m, s.n, s.k), func(t *testing.T) {
				a := make([]uint8, s.m*s.k)
				b := make([]int8, s.n*s.k)
				for i := range a {
					a[i] = uint8(rng.Intn(256))
				}
				for i := range b {
					b[i] = int8(rng.Intn(256) - 128)
				}
				got := make([]int32, s.m*s.n)
				want := make([]int32, s.m*s.n)
				GemmU8I8Scalar(s.m, s.n, s.k, a, s.k, b, s.k, want, s.n, overflow16)
				g.U8I8NT(s.m, s.n, s.k, a, s.k, b, s.k, got, s.n, overflow16)
				for i := range want {
					if got[i] != want[i] {
						t.Fatalf("c[%d] = %d, want %d", i, got[i], want[i])
					}
				}
			})
		}
	}
}

func TestU8I8Saturation(t *testing.T) {
	// 255*127 + 255*127 = 64770 saturates to 32767 per pair.
	a := []uint8{255, 255, 255, 255}
	b := []int8{127, 127, 127, 127}
	c := make([]int32, 1)
	New(hwy.Detect(), false).U8I8NT(1, 1, 4, a, 4, b, 4, c, 1, true)
	if c[0] != 2*32767 {
		t.Errorf("saturated sum = %d, want %d", c[0], 2*32767)
	}
	New(hwy.Detect(), false).U8I8NT(1, 1, 4, a, 4, b, 4, c, 1, false)
	if c[0] != 4*255*127 {
		t.Errorf("exact sum = %d, want %d", c[0], 4*255*127)
	}
}

func BenchmarkGEMMNN(b *testing.B) {
	rng := rand.New(rand.NewSource(4))
	const m, n, k = 64, 256, 288
	a, bm, c := randSlice(rng, m*k), randSlice(rng, k*n), make([]float32, m*n)
	g := New(hwy.Detect(), false)
	b.ResetTimer()
	for range b.N {
		g.NN(m, n, k, a, k, bm, n, c, n)
	}
}
