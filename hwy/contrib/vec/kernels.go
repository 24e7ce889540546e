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

package vec

import "github.com/ajroetker/go-synet/hwy"

// Kernels32 runs float32 slice kernels at the lane count of a fixed
// capability. The zero value is not usable; construct with New32.
type Kernels32 struct {
	lanes int
	fma   bool
}

// New32 returns kernels bound to c. When noFMA is set, multiply-add is
// performed as a separate multiply and add even if c has FMA, which makes
// results bit-compatible with non-FMA builds.
func New32(c hwy.Capability, noFMA bool) Kernels32 {
	return Kernels32{lanes: c.Lanes32(), fma: c.FMA && !noFMA}
}

// Lanes returns the vector lane count.
func (k Kernels32) Lanes() int {
	return k.lanes
}

// Load loads one vector from src; missing elements are zero.
func (k Kernels32) Load(src []float32) hwy.Vec[float32] {
	return hwy.LoadN(src, k.lanes)
}

// Set broadcasts v.
func (k Kernels32) Set(v float32) hwy.Vec[float32] {
	return hwy.SetN(v, k.lanes)
}

// Zero returns a zero vector.
func (k Kernels32) Zero() hwy.Vec[float32] {
	return hwy.ZeroN[float32](k.lanes)
}

// MulAdd returns a*b + c.
func (k Kernels32) MulAdd(a, b, c hwy.Vec[float32]) hwy.Vec[float32] {
	if k.fma {
		return hwy.FMA(a, b, c)
	}
	return hwy.Add(hwy.Mul(a, b), c)
}

// MulAddScalar returns a*b + c for scalars with the same rounding as MulAdd.
func (k Kernels32) MulAddScalar(a, b, c float32) float32 {
	if k.fma {
		return hwy.GetLane(hwy.FMA(hwy.SetN(a, 1), hwy.SetN(b, 1), hwy.SetN(c, 1)))
	}
	return a*b + c
}

// Dot returns the dot product of a and b over min(len(a), len(b)) elements.
func (k Kernels32) Dot(a, b []float32) float32 {
	n := min(len(a), len(b))
	lanes := k.lanes
	sum0, sum1 := k.Zero(), k.Zero()

	var i int
	for ; i+2*lanes <= n; i += 2 * lanes {
		sum0 = k.MulAdd(k.Load(a[i:]), k.Load(b[i:]), sum0)
		sum1 = k.MulAdd(k.Load(a[i+lanes:]), k.Load(b[i+lanes:]), sum1)
	}
	for ; i+lanes <= n; i += lanes {
		sum0 = k.MulAdd(k.Load(a[i:]), k.Load(b[i:]), sum0)
	}
	if i < n {
		sum1 = k.MulAdd(k.Load(a[i:n]), k.Load(b[i:n]), sum1)
	}
	return hwy.ReduceSum(hwy.Add(sum0, sum1))
}

// MulConstAddTo performs dst[i] += a * x[i] over min(len(dst), len(x))
// elements.
func (k Kernels32) MulConstAddTo(dst []float32, a float32, x []float32) {
	n := min(len(dst), len(x))
	va := k.Set(a)
	lanes := k.lanes

	var i int
	for ; i+lanes <= n; i += lanes {
		hwy.Store(k.MulAdd(va, k.Load(x[i:]), k.Load(dst[i:])), dst[i:])
	}
	if i < n {
		hwy.Store(k.MulAdd(va, k.Load(x[i:n]), k.Load(dst[i:n])), dst[i:n])
	}
}

// Fill sets every element of dst to v.
func (k Kernels32) Fill(dst []float32, v float32) {
	if v == 0 {
		clear(dst)
		return
	}
	vv := k.Set(v)
	lanes := k.lanes

	var i int
	for ; i+lanes <= len(dst); i += lanes {
		hwy.Store(vv, dst[i:])
	}
	for ; i < len(dst); i++ {
		dst[i] = v
	}
}
