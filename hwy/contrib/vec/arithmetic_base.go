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

// Package vec provides element-wise vector arithmetic operations using SIMD.
//
// Operations come in two flavors:
//   - Base functions (BaseAdd, BaseMaxTo, BaseScale) run at the lane count of the
//     detected dispatch level.
//   - Kernels32 methods run at the lane count of an explicit hwy.Capability
//     and honor an optional no-FMA contract. The convolution strategies use
//     these so that their results depend only on the capability they were
//     created with.
package vec

import "github.com/ajroetker/go-synet/hwy"

// BaseAdd performs in-place element-wise addition: dst[i] += s[i].
//
// If the slices have different lengths, the operation uses the minimum length.
// Returns early if either slice is empty.
//
// Example:
//
//	dst := []float32{1, 2, 3, 4}
//	s := []float32{5, 6, 7, 8}
//	BaseAdd(dst, s)  // dst is now {6, 8, 10, 12}
func BaseAdd[T hwy.Floats](dst, s []T) {
	if len(dst) == 0 || len(s) == 0 {
		return
	}

	n := min(len(dst), len(s))
	lanes := hwy.Zero[T]().NumLanes()

	// Process full vectors
	var i int
	for i = 0; i+lanes <= n; i += lanes {
		vd := hwy.Load(dst[i:])
		vs := hwy.Load(s[i:])
		hwy.Store(hwy.Add(vd, vs), dst[i:])
	}

	// Handle tail elements with scalar code
	for ; i < n; i++ {
		dst[i] += s[i]
	}
}

// BaseMaxTo performs in-place element-wise maximum: dst[i] = max(dst[i], s[i]).
func BaseMaxTo[T hwy.Floats](dst, s []T) {
	if len(dst) == 0 || len(s) == 0 {
		return
	}

	n := min(len(dst), len(s))
	lanes := hwy.Zero[T]().NumLanes()

	var i int
	for i = 0; i+lanes <= n; i += lanes {
		vd := hwy.Load(dst[i:])
		vs := hwy.Load(s[i:])
		hwy.Store(hwy.Max(vd, vs), dst[i:])
	}

	for ; i < n; i++ {
		dst[i] = max(dst[i], s[i])
	}
}

// BaseScale multiplies each element of dst by c in place: dst[i] *= c.
//
// Example:
//
//	dst := []float32{1, 2, 3, 4}
//	BaseScale(2, dst)  // dst is now {2, 4, 6, 8}
func BaseScale[T hwy.Floats](c T, dst []T) {
	if len(dst) == 0 {
		return
	}

	n := len(dst)
	vc := hwy.Set(c)
	lanes := vc.NumLanes()

	var i int
	for i = 0; i+lanes <= n; i += lanes {
		hwy.Store(hwy.Mul(hwy.Load(dst[i:]), vc), dst[i:])
	}

	for ; i < n; i++ {
		dst[i] *= c
	}
}
