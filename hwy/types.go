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

// Package hwy provides portable vector operations with runtime CPU dispatch.
//
// It follows the Highway C++ library's design philosophy: write once,
// run well everywhere. The detected instruction set only decides the lane
// count of a vector; every operation is written once over Vec[T] and the
// kernels in hwy/contrib are written in terms of those operations.
//
// Basic usage:
//
//	import "github.com/ajroetker/go-synet/hwy"
//
//	// Load data into vectors
//	a := hwy.Load(data1)
//	b := hwy.Load(data2)
//
//	// Perform vector operations
//	result := hwy.Add(a, b)
//
//	// Store results
//	hwy.Store(result, output)
//
// Kernels that must follow an explicit Capability rather than the detected
// one use the lane-count variants LoadN, SetN and ZeroN.
package hwy

// Floats is a constraint for floating-point types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer types.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integers is a constraint for all integer types.
type Integers interface {
	SignedInts | UnsignedInts
}

// Lanes is a constraint for all types that can be stored in vector lanes.
type Lanes interface {
	Floats | Integers
}

// MaxVecLanes bounds the lane count of any vector: 64-byte vectors of
// 32-bit lanes.
const MaxVecLanes = 16

// Vec is a portable vector handle. Lanes live in a fixed array so vectors
// are plain values and operations on them never allocate.
//
// Vec instances should not be created directly; use Load, Set, or Zero instead.
type Vec[T Lanes] struct {
	data [MaxVecLanes]T
	n    int
}

// NumLanes returns the number of lanes (elements) in this vector.
func (v Vec[T]) NumLanes() int {
	return v.n
}

// Mask represents the result of a comparison operation.
// It can be used with IfThenElse to perform conditional operations.
//
// Mask instances should not be created directly; use comparison operations
// like LessThan or GreaterThan instead.
type Mask[T Lanes] struct {
	// bit i is set if lane i is active.
	bits uint32
	n    int
}

// IsSet reports whether lane i is active.
func (m Mask[T]) IsSet(i int) bool {
	return m.bits&(1<<uint(i)) != 0
}
