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

package conv

import "github.com/ajroetker/go-synet/hwy/contrib/vec"

// transform1D holds the matrices of a one-dimensional minimal filtering
// algorithm F(m, r): m outputs of an r-tap correlation from n = m+r-1
// inputs,
//
//	y = Aᵀ · ((G · g) ⊙ (Bᵀ · d))
//
// bt is n×n, g is n×r and at is m×n, all row-major. Two-dimensional
// transforms apply one transform per axis.
type transform1D struct {
	m, r      int
	bt, g, at []float32
}

// n returns the input tile length.
func (t transform1D) n() int {
	return t.m + t.r - 1
}

var (
	// Identity for the unit axis of 1xk kernels.
	winogradIdentity = transform1D{
		m: 1, r: 1,
		bt: []float32{1},
		g:  []float32{1},
		at: []float32{1},
	}

	// F(2,2), interpolation points 0, -1 and infinity.
	winogradF2x2 = transform1D{
		m: 2, r: 2,
		bt: []float32{
			1, 1, 0,
			0, 1, 0,
			0, 1, 1,
		},
		g: []float32{
			1, 0,
			-1, 1,
			0, 1,
		},
		at: []float32{
			1, 1, 0,
			0, -1, 1,
		},
	}

	// F(4,2), interpolation points 0, 1, -1, 2 and infinity.
	winogradF4x2 = transform1D{
		m: 4, r: 2,
		bt: []float32{
			2, -1, -2, 1, 0,
			0, -2, -1, 1, 0,
			0, 2, -3, 1, 0,
			0, -1, 0, 1, 0,
			0, 2, -1, -2, 1,
		},
		g: []float32{
			1.0 / 2, 0,
			-1.0 / 2, -1.0 / 2,
			-1.0 / 6, 1.0 / 6,
			1.0 / 6, 1.0 / 3,
			0, 1,
		},
		at: []float32{
			1, 1, 1, 1, 0,
			0, 1, -1, 2, 0,
			0, 1, 1, 4, 0,
			0, 1, -1, 8, 1,
		},
	}

	// F(2,3), interpolation points 0, 1, -1 and infinity.
	winogradF2x3 = transform1D{
		m: 2, r: 3,
		bt: []float32{
			-1, 0, 1, 0,
			0, 1, 1, 0,
			0, -1, 1, 0,
			0, -1, 0, 1,
		},
		g: []float32{
			-1, 0, 0,
			1.0 / 2, 1.0 / 2, 1.0 / 2,
			1.0 / 2, -1.0 / 2, 1.0 / 2,
			0, 0, 1,
		},
		at: []float32{
			1, 1, 1, 0,
			0, 1, -1, 1,
		},
	}

	// F(3,3), interpolation points 0, 1, -1, 2 and infinity.
	winogradF3x3 = transform1D{
		m: 3, r: 3,
		bt: []float32{
			2, -1, -2, 1, 0,
			0, -2, -1, 1, 0,
			0, 2, -3, 1, 0,
			0, -1, 0, 1, 0,
			0, 2, -1, -2, 1,
		},
		g: []float32{
			1.0 / 2, 0, 0,
			-1.0 / 2, -1.0 / 2, -1.0 / 2,
			-1.0 / 6, 1.0 / 6, -1.0 / 6,
			1.0 / 6, 1.0 / 3, 2.0 / 3,
			0, 0, 1,
		},
		at: []float32{
			1, 1, 1, 1, 0,
			0, 1, -1, 2, 0,
			0, 1, 1, 4, 1,
		},
	}

	// F(4,3), interpolation points 0, 1, -1, 2, -2 and infinity.
	winogradF4x3 = transform1D{
		m: 4, r: 3,
		bt: []float32{
			4, 0, -5, 0, 1, 0,
			0, -4, -4, 1, 1, 0,
			0, 4, -4, -1, 1, 0,
			0, -2, -1, 2, 1, 0,
			0, 2, -1, -2, 1, 0,
			0, 4, 0, -5, 0, 1,
		},
		g: []float32{
			1.0 / 4, 0, 0,
			-1.0 / 6, -1.0 / 6, -1.0 / 6,
			-1.0 / 6, 1.0 / 6, -1.0 / 6,
			1.0 / 24, 1.0 / 12, 1.0 / 6,
			1.0 / 24, -1.0 / 12, 1.0 / 6,
			0, 0, 1,
		},
		at: []float32{
			1, 1, 1, 1, 1, 0,
			0, 1, -1, 2, -2, 0,
			0, 1, 1, 4, 4, 0,
			0, 1, -1, 8, -8, 1,
		},
	}

	// F(4,5), interpolation points 0, 1, -1, 2, -2, 1/2, -1/2 and infinity.
	winogradF4x5 = transform1D{
		m: 4, r: 5,
		bt: []float32{
			-1, 0, 21.0 / 4, 0, -21.0 / 4, 0, 1, 0,
			0, 1, 1, -17.0 / 4, -17.0 / 4, 1, 1, 0,
			0, -1, 1, 17.0 / 4, -17.0 / 4, -1, 1, 0,
			0, 1.0 / 2, 1.0 / 4, -5.0 / 2, -5.0 / 4, 2, 1, 0,
			0, -1.0 / 2, 1.0 / 4, 5.0 / 2, -5.0 / 4, -2, 1, 0,
			0, 2, 4, -5.0 / 2, -5, 1.0 / 2, 1, 0,
			0, -2, 4, 5.0 / 2, -5, -1.0 / 2, 1, 0,
			0, -1, 0, 21.0 / 4, 0, -21.0 / 4, 0, 1,
		},
		g: []float32{
			-1, 0, 0, 0, 0,
			-2.0 / 9, -2.0 / 9, -2.0 / 9, -2.0 / 9, -2.0 / 9,
			-2.0 / 9, 2.0 / 9, -2.0 / 9, 2.0 / 9, -2.0 / 9,
			1.0 / 90, 1.0 / 45, 2.0 / 45, 4.0 / 45, 8.0 / 45,
			1.0 / 90, -1.0 / 45, 2.0 / 45, -4.0 / 45, 8.0 / 45,
			32.0 / 45, 16.0 / 45, 8.0 / 45, 4.0 / 45, 2.0 / 45,
			32.0 / 45, -16.0 / 45, 8.0 / 45, -4.0 / 45, 2.0 / 45,
			0, 0, 0, 0, 1,
		},
		at: []float32{
			1, 1, 1, 1, 1, 1, 1, 0,
			0, 1, -1, 2, -2, 1.0 / 2, -1.0 / 2, 0,
			0, 1, 1, 4, 4, 1.0 / 4, 1.0 / 4, 0,
			0, 1, -1, 8, -8, 1.0 / 8, -1.0 / 8, 1,
		},
	}
)

// winogradTransform returns F(block, kernel) for one axis.
func winogradTransform(kernel, block int) transform1D {
	switch {
	case kernel == 1:
		return winogradIdentity
	case kernel == 2 && block == 4:
		return winogradF4x2
	case kernel == 2:
		return winogradF2x2
	case kernel == 3 && block == 4:
		return winogradF4x3
	case kernel == 3 && block == 3:
		return winogradF3x3
	case kernel == 3:
		return winogradF2x3
	default:
		return winogradF4x5
	}
}

// sandwich computes out (p×t) = left (p×q) · x (q×s) · rightᵀ, where right
// is t×s. tmp must hold p*s elements.
func sandwich(left []float32, p, q int, x []float32, s int, right []float32, t int, tmp, out []float32) {
	for a := range p {
		for j := range s {
			var sum float32
			for i := range q {
				sum += left[a*q+i] * x[i*s+j]
			}
			tmp[a*s+j] = sum
		}
	}
	for a := range p {
		for b := range t {
			var sum float32
			for j := range s {
				sum += tmp[a*s+j] * right[b*s+j]
			}
			out[a*t+b] = sum
		}
	}
}

// sandwichRows is sandwich applied to width independent problems at once.
// Element (r, ℓ) of x lives at x[r*xs+ℓ] and element (r, ℓ) of out at
// out[r*os+ℓ]. tmp must hold p*s*width elements.
func sandwichRows(k vec.Kernels32, left []float32, p, q int, x []float32, xs, s int,
	right []float32, t int, out []float32, os int, tmp []float32, width int) {
	for a := range p {
		for j := range s {
			row := tmp[(a*s+j)*width : (a*s+j+1)*width]
			clear(row)
			for i := range q {
				if l := left[a*q+i]; l != 0 {
					r := (i*s + j) * xs
					k.MulConstAddTo(row, l, x[r:r+width])
				}
			}
		}
	}
	for a := range p {
		for b := range t {
			row := out[(a*t+b)*os : (a*t+b)*os+width]
			clear(row)
			for j := range s {
				if r := right[b*s+j]; r != 0 {
					k.MulConstAddTo(row, r, tmp[(a*s+j)*width:(a*s+j+1)*width])
				}
			}
		}
	}
}
