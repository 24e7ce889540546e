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
	"github.com/ajroetker/go-synet/hwy"
	"github.com/ajroetker/go-synet/hwy/contrib/vec"
)

// GEMM multiplies single-precision row-major matrices at the lane count of
// a fixed capability. All operands are strided: element (i, j) of a matrix
// with leading dimension ld lives at index i*ld+j.
//
// A GEMM holds no mutable state and may be shared between goroutines.
type GEMM struct {
	k      vec.Kernels32
	params CacheParams
}

// New returns a GEMM bound to c. noFMA requests separate multiply and add.
func New(c hwy.Capability, noFMA bool) *GEMM {
	return &GEMM{k: vec.New32(c, noFMA), params: CacheParamsFor(c)}
}

// Kernels returns the slice kernels the GEMM runs on.
func (g *GEMM) Kernels() vec.Kernels32 {
	return g.k
}

// NN computes C[M×N] = A[M×K] · B[K×N]. C is overwritten.
func (g *GEMM) NN(m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	if m <= 0 || n <= 0 {
		return
	}
	checkOperand("c", c, m, n, ldc)
	if k <= 0 {
		for i := range m {
			clear(c[i*ldc : i*ldc+n])
		}
		return
	}
	checkOperand("a", a, m, k, lda)
	checkOperand("b", b, k, n, ldb)

	p := g.params
	for i0 := 0; i0 < m; i0 += p.Mc {
		mc := min(p.Mc, m-i0)
		for k0 := 0; k0 < k; k0 += p.Kc {
			kc := min(p.Kc, k-k0)
			for j := 0; j < n; j += p.Nr {
				nr := min(p.Nr, n-j)
				for i := i0; i < i0+mc; i += p.Mr {
					mr := min(p.Mr, i0+mc-i)
					g.microNN(mr, nr, kc, a[i*lda+k0:], lda, b[k0*ldb+j:], ldb, c[i*ldc+j:], ldc, k0 == 0)
				}
			}
		}
	}
}

// Micro-tile register bounds: CacheParamsFor never exceeds four rows of
// two vectors.
const (
	maxMr = 4
	maxNv = 2
)

// microNN updates an mr×nr tile of C with a kc-deep slice of A·B, keeping
// the tile in mr·ceil(nr/lanes) accumulators. The tile starts from zero
// when first is set and from the stored values of C otherwise.
func (g *GEMM) microNN(mr, nr, kc int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int, first bool) {
	lanes := g.k.Lanes()
	nv := hwy.DivHi(nr, lanes)
	var acc [maxMr][maxNv]hwy.Vec[float32]
	for r := range mr {
		for v := range nv {
			if first {
				acc[r][v] = g.k.Zero()
				continue
			}
			off := r*ldc + v*lanes
			acc[r][v] = g.k.Load(c[off : off+min(lanes, nr-v*lanes)])
		}
	}

	var bv [maxNv]hwy.Vec[float32]
	for p := range kc {
		off := p * ldb
		for v := range nv {
			bv[v] = g.k.Load(b[off+v*lanes : off+v*lanes+min(lanes, nr-v*lanes)])
		}
		for r := range mr {
			ar := g.k.Set(a[r*lda+p])
			for v := range nv {
				acc[r][v] = g.k.MulAdd(ar, bv[v], acc[r][v])
			}
		}
	}

	for r := range mr {
		for v := range nv {
			off := r*ldc + v*lanes
			hwy.Store(acc[r][v], c[off:off+min(lanes, nr-v*lanes)])
		}
	}
}

// NT computes C[M×N] = A[M×K] · B[N×K]ᵀ. C is overwritten.
//
// Four rows of B are processed per pass so each load of A feeds four
// accumulators.
func (g *GEMM) NT(m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	if m <= 0 || n <= 0 {
		return
	}
	checkOperand("c", c, m, n, ldc)
	if k <= 0 {
		for i := range m {
			clear(c[i*ldc : i*ldc+n])
		}
		return
	}
	checkOperand("a", a, m, k, lda)
	checkOperand("b", b, n, k, ldb)

	lanes := g.k.Lanes()
	for i := range m {
		arow := a[i*lda : i*lda+k]
		crow := c[i*ldc : i*ldc+n]

		var j int
		for ; j+4 <= n; j += 4 {
			b0 := b[j*ldb : j*ldb+k]
			b1 := b[(j+1)*ldb : (j+1)*ldb+k]
			b2 := b[(j+2)*ldb : (j+2)*ldb+k]
			b3 := b[(j+3)*ldb : (j+3)*ldb+k]
			s0, s1, s2, s3 := g.k.Zero(), g.k.Zero(), g.k.Zero(), g.k.Zero()
			for p := 0; p < k; p += lanes {
				e := min(p+lanes, k)
				va := g.k.Load(arow[p:e])
				s0 = g.k.MulAdd(va, g.k.Load(b0[p:e]), s0)
				s1 = g.k.MulAdd(va, g.k.Load(b1[p:e]), s1)
				s2 = g.k.MulAdd(va, g.k.Load(b2[p:e]), s2)
				s3 = g.k.MulAdd(va, g.k.Load(b3[p:e]), s3)
			}
			crow[j] = hwy.ReduceSum(s0)
			crow[j+1] = hwy.ReduceSum(s1)
			crow[j+2] = hwy.ReduceSum(s2)
			crow[j+3] = hwy.ReduceSum(s3)
		}

		for ; j < n; j++ {
			crow[j] = g.k.Dot(arow, b[j*ldb:j*ldb+k])
		}
	}
}

func checkOperand[T any](name string, s []T, rows, cols, ld int) {
	if ld < cols {
		panic("matmul: " + name + " leading dimension smaller than row length")
	}
	if len(s) < (rows-1)*ld+cols {
		panic("matmul: " + name + " slice too short")
	}
}
