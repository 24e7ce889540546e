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

package hwy

import "math"

// This file provides the portable implementations of all Highway operations.
// Every vector has the lane count it was created with; binary operations
// work on the common prefix of their operands.

// Load creates a vector by loading data from a slice.
func Load[T Lanes](src []T) Vec[T] {
	return LoadN(src, MaxLanes[T]())
}

// LoadN creates a vector of lanes elements loaded from src. Lanes beyond
// len(src) are zero. lanes is capped at MaxVecLanes.
func LoadN[T Lanes](src []T, lanes int) Vec[T] {
	v := Vec[T]{n: clampLanes(lanes)}
	copy(v.data[:v.n], src)
	return v
}

// Store writes a vector's data to a slice.
func Store[T Lanes](v Vec[T], dst []T) {
	n := min(len(dst), v.n)
	copy(dst[:n], v.data[:n])
}

// Set creates a vector with all lanes set to the same value.
func Set[T Lanes](value T) Vec[T] {
	return SetN(value, MaxLanes[T]())
}

// SetN creates a vector of lanes elements all set to value.
func SetN[T Lanes](value T, lanes int) Vec[T] {
	v := Vec[T]{n: clampLanes(lanes)}
	for i := range v.n {
		v.data[i] = value
	}
	return v
}

// Zero creates a vector with all lanes set to zero.
func Zero[T Lanes]() Vec[T] {
	return ZeroN[T](MaxLanes[T]())
}

// ZeroN creates a vector of lanes zero elements.
func ZeroN[T Lanes](lanes int) Vec[T] {
	return Vec[T]{n: clampLanes(lanes)}
}

// GetLane returns the first lane of v.
func GetLane[T Lanes](v Vec[T]) T {
	return v.data[0]
}

func clampLanes(lanes int) int {
	return max(0, min(lanes, MaxVecLanes))
}

// Add performs element-wise addition.
func Add[T Lanes](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = a.data[i] + b.data[i]
	}
	return r
}

// Sub performs element-wise subtraction.
func Sub[T Lanes](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = a.data[i] - b.data[i]
	}
	return r
}

// Mul performs element-wise multiplication.
func Mul[T Lanes](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = a.data[i] * b.data[i]
	}
	return r
}

// Div performs element-wise division.
func Div[T Floats](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = a.data[i] / b.data[i]
	}
	return r
}

// Neg negates each lane.
func Neg[T Lanes](v Vec[T]) Vec[T] {
	r := Vec[T]{n: v.n}
	for i := range r.n {
		r.data[i] = -v.data[i]
	}
	return r
}

// Abs computes the absolute value of each lane.
func Abs[T Lanes](v Vec[T]) Vec[T] {
	r := Vec[T]{n: v.n}
	for i := range r.n {
		val := v.data[i]
		if val < 0 {
			val = -val
		}
		r.data[i] = val
	}
	return r
}

// Min returns element-wise minimum.
func Min[T Lanes](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		if a.data[i] < b.data[i] {
			r.data[i] = a.data[i]
		} else {
			r.data[i] = b.data[i]
		}
	}
	return r
}

// Max returns element-wise maximum.
func Max[T Lanes](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		if a.data[i] > b.data[i] {
			r.data[i] = a.data[i]
		} else {
			r.data[i] = b.data[i]
		}
	}
	return r
}

// FMA performs fused multiply-add: a*b + c with a single rounding step
// for float64 and a product computed exactly for float32.
func FMA[T Floats](a, b, c Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n, c.n)}
	for i := range r.n {
		r.data[i] = T(math.FMA(float64(a.data[i]), float64(b.data[i]), float64(c.data[i])))
	}
	return r
}

// MulAdd performs fused multiply-add: a*b + c.
// This is an alias for FMA with the common a.MulAdd(b, c) semantics.
func MulAdd[T Floats](a, b, c Vec[T]) Vec[T] {
	return FMA(a, b, c)
}

// RoundToEven rounds each lane to the nearest integer, ties to even.
func RoundToEven[T Floats](v Vec[T]) Vec[T] {
	r := Vec[T]{n: v.n}
	for i := range r.n {
		r.data[i] = T(math.RoundToEven(float64(v.data[i])))
	}
	return r
}

// ConvertToInt32 truncates each lane toward zero.
func ConvertToInt32[T Floats](v Vec[T]) Vec[int32] {
	r := Vec[int32]{n: v.n}
	for i := range r.n {
		r.data[i] = int32(v.data[i])
	}
	return r
}

// Pow2 returns 2^k for each lane of k.
func Pow2[T Floats](k Vec[int32]) Vec[T] {
	r := Vec[T]{n: k.n}
	for i := range r.n {
		r.data[i] = T(math.Ldexp(1, int(k.data[i])))
	}
	return r
}

// ReduceSum sums all lanes.
func ReduceSum[T Lanes](v Vec[T]) T {
	var sum T
	for i := range v.n {
		sum += v.data[i]
	}
	return sum
}

// LessThan performs element-wise less-than comparison.
func LessThan[T Lanes](a, b Vec[T]) Mask[T] {
	m := Mask[T]{n: min(a.n, b.n)}
	for i := range m.n {
		if a.data[i] < b.data[i] {
			m.bits |= 1 << uint(i)
		}
	}
	return m
}

// GreaterThan performs element-wise greater-than comparison.
func GreaterThan[T Lanes](a, b Vec[T]) Mask[T] {
	m := Mask[T]{n: min(a.n, b.n)}
	for i := range m.n {
		if a.data[i] > b.data[i] {
			m.bits |= 1 << uint(i)
		}
	}
	return m
}

// IfThenElse performs conditional selection.
func IfThenElse[T Lanes](mask Mask[T], a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(mask.n, a.n, b.n)}
	for i := range r.n {
		if mask.IsSet(i) {
			r.data[i] = a.data[i]
		} else {
			r.data[i] = b.data[i]
		}
	}
	return r
}

// ZeroIfNegative returns zero for negative lanes, original value otherwise.
// Useful for clamping negative values to zero.
func ZeroIfNegative[T Lanes](v Vec[T]) Vec[T] {
	r := Vec[T]{n: v.n}
	for i := range r.n {
		if v.data[i] >= 0 {
			r.data[i] = v.data[i]
		}
	}
	return r
}
