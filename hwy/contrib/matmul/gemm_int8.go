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

// U8I8NT computes the quantized product C[M×N] = A[M×K] · B[N×K]ᵀ with
// uint8 activations A, int8 weights B and int32 accumulators C.
//
// With overflow16 set, adjacent products along K are summed in pairs and
// each pair is saturated to int16 before it is accumulated, which matches
// the narrowed arithmetic of 16-bit multiply-add instructions.
func (g *GEMM) U8I8NT(m, n, k int, a []uint8, lda int, b []int8, ldb int, c []int32, ldc int, overflow16 bool) {
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

	for i := range m {
		arow := a[i*lda : i*lda+k]
		crow := c[i*ldc : i*ldc+n]
		var j int
		for ; j+4 <= n; j += 4 {
			b0 := b[j*ldb : j*ldb+k]
			b1 := b[(j+1)*ldb : (j+1)*ldb+k]
			b2 := b[(j+2)*ldb : (j+2)*ldb+k]
			b3 := b[(j+3)*ldb : (j+3)*ldb+k]
			if overflow16 {
				crow[j] = dotU8I8Sat(arow, b0)
				crow[j+1] = dotU8I8Sat(arow, b1)
				crow[j+2] = dotU8I8Sat(arow, b2)
				crow[j+3] = dotU8I8Sat(arow, b3)
				continue
			}
			var s0, s1, s2, s3 int32
			for p, av := range arow {
				x := int32(av)
				s0 += x * int32(b0[p])
				s1 += x * int32(b1[p])
				s2 += x * int32(b2[p])
				s3 += x * int32(b3[p])
			}
			crow[j], crow[j+1], crow[j+2], crow[j+3] = s0, s1, s2, s3
		}
		for ; j < n; j++ {
			brow := b[j*ldb : j*ldb+k]
			if overflow16 {
				crow[j] = dotU8I8Sat(arow, brow)
				continue
			}
			var s int32
			for p, av := range arow {
				s += int32(av) * int32(brow[p])
			}
			crow[j] = s
		}
	}
}

func dotU8I8Sat(a []uint8, b []int8) int32 {
	var sum int32
	k := len(a)
	var p int
	for ; p+2 <= k; p += 2 {
		sum += saturate16(int32(a[p])*int32(b[p]) + int32(a[p+1])*int32(b[p+1]))
	}
	if p < k {
		sum += saturate16(int32(a[p]) * int32(b[p]))
	}
	return sum
}
