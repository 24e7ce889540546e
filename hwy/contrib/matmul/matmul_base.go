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

// GemmScalar is the pure Go reference implementation of
// C[M×N] = A[M×K] · B[K×N] over strided row-major operands.
// C is overwritten.
func GemmScalar(m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	for i := range m {
		row := c[i*ldc : i*ldc+n]
		clear(row)
		for p := range k {
			aip := a[i*lda+p]
			for j := range n {
				row[j] += aip * b[p*ldb+j]
			}
		}
	}
}

// GemmNTScalar is the pure Go reference implementation of
// C[M×N] = A[M×K] · B[N×K]ᵀ over strided row-major operands.
func GemmNTScalar(m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	for i := range m {
		for j := range n {
			var sum float32
			for p := range k {
				sum += a[i*lda+p] * b[j*ldb+p]
			}
			c[i*ldc+j] = sum
		}
	}
}

// GemmU8I8Scalar is the pure Go reference implementation of the quantized
// product C[M×N] = A[M×K] · B[N×K]ᵀ with uint8 A, int8 B and int32 C.
// With overflow16 set, each pair of adjacent products along K is summed and
// saturated to int16 before accumulation.
func GemmU8I8Scalar(m, n, k int, a []uint8, lda int, b []int8, ldb int, c []int32, ldc int, overflow16 bool) {
	for i := range m {
		for j := range n {
			ar := a[i*lda : i*lda+k]
			br := b[j*ldb : j*ldb+k]
			var sum int32
			if overflow16 {
				for p := 0; p < k; p += 2 {
					pair := int32(ar[p]) * int32(br[p])
					if p+1 < k {
						pair += int32(ar[p+1]) * int32(br[p+1])
					}
					sum += saturate16(pair)
				}
			} else {
				for p := range k {
					sum += int32(ar[p]) * int32(br[p])
				}
			}
			c[i*ldc+j] = sum
		}
	}
}

func saturate16(v int32) int32 {
	return min(max(v, -32768), 32767)
}
