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

import "fmt"

// Capability describes the vector instruction set a kernel is bound to.
//
// Detect returns the capability of the running CPU. Tests and tools pin a
// level with CapabilityFor so that code selection stays a pure function of
// its inputs rather than of global state.
type Capability struct {
	// Level is the instruction set.
	Level DispatchLevel

	// Width is the vector register width in bytes.
	Width int

	// FMA reports whether fused multiply-add is available.
	FMA bool
}

// Detect returns the capability detected at startup (honoring HWY_NO_SIMD).
func Detect() Capability {
	return Capability{Level: CurrentLevel(), Width: CurrentWidth(), FMA: hasFMA}
}

// CapabilityFor returns the canonical capability of a dispatch level.
func CapabilityFor(level DispatchLevel) Capability {
	switch level {
	case DispatchAVX512:
		return Capability{Level: level, Width: 64, FMA: true}
	case DispatchAVX2:
		return Capability{Level: level, Width: 32, FMA: true}
	case DispatchNEON:
		return Capability{Level: level, Width: 16, FMA: true}
	case DispatchSSE2:
		return Capability{Level: level, Width: 16}
	default:
		return Capability{Level: DispatchScalar, Width: 16}
	}
}

// Lanes32 returns the number of 32-bit lanes per vector.
func (c Capability) Lanes32() int {
	if c.Width < 4 {
		return 1
	}
	return min(c.Width/4, MaxVecLanes)
}

// String returns the level name, e.g. "avx2".
func (c Capability) String() string {
	return c.Level.String()
}

// GoString returns a detailed description used in diagnostics.
func (c Capability) GoString() string {
	return fmt.Sprintf("hwy.Capability{Level: %s, Width: %d, FMA: %t}", c.Level, c.Width, c.FMA)
}
