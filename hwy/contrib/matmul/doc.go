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

// Package matmul provides the single-precision and quantized matrix
// products the convolution strategies are built on.
//
// A GEMM is bound to a fixed hwy.Capability, so the lane count, register
// blocking and FMA use follow that capability rather than the running CPU:
//
//	// C = A * B where A is MxK, B is KxN, C is MxN
//	g := matmul.New(hwy.Detect(), false)
//	g.NN(M, N, K, a, K, b, N, c, N)
//
//	// C = A * Bᵀ where B is NxK
//	g.NT(M, N, K, a, K, b, K, c, N)
//
// U8I8NT multiplies uint8 activations by int8 weights into int32
// accumulators, optionally with the 16-bit pairwise saturation of
// multiply-add instructions. GemmScalar, GemmNTScalar and GemmU8I8Scalar
// are the reference loops.
package matmul
