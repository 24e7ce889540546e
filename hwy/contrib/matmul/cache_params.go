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

import "github.com/ajroetker/go-synet/hwy"

// CacheParams defines architecture-specific blocking parameters for the
// blocked matmul loops.
//
// The parameters are tuned for cache hierarchy:
//   - Mr × Nr: Micro-tile dimensions (register blocking)
//   - Kc: K-blocking for L1 cache (one strip of A rows times Kc)
//   - Mc: M-blocking for L2 cache (rows of A revisited per K block)
type CacheParams struct {
	Mr int // Micro-tile rows (register blocking)
	Nr int // Micro-tile columns (register blocking, in elements not vectors)
	Kc int // K-blocking (L1 cache)
	Mc int // M-blocking (L2 cache)
}

// CacheParamsFor returns the blocking parameters for a capability.
func CacheParamsFor(c hwy.Capability) CacheParams {
	switch c.Level {
	case hwy.DispatchAVX512:
		return CacheParamsAVX512()
	case hwy.DispatchAVX2:
		return CacheParamsAVX2()
	case hwy.DispatchNEON:
		return CacheParamsNEON()
	default:
		p := CacheParamsFallback()
		p.Nr = 2 * c.Lanes32()
		return p
	}
}

// Blocking parameters tuned for different architectures.
// These are conservative estimates that should work well across most CPUs
// in each architecture family.

// CacheParamsAVX512 returns blocking parameters for AVX-512.
// Optimized for 512-bit vectors (16 float32s per vector).
// Assumes: 32KB L1d, 1MB L2 (typical for Skylake-X and later)
func CacheParamsAVX512() CacheParams {
	return CacheParams{
		Mr: 4,   // 4 rows per micro-tile
		Nr: 32,  // 2 vectors × 16 lanes = 32 columns
		Kc: 512, // L1 blocking: 4 * 512 * 4 bytes = 8KB strip of A
		Mc: 512, // L2 blocking: 512 * 512 * 4 bytes = 1MB panel of A
	}
}

// CacheParamsAVX2 returns blocking parameters for AVX2.
// Optimized for 256-bit vectors (8 float32s per vector).
// Assumes: 32KB L1d, 256KB L2 (typical for Haswell and later)
func CacheParamsAVX2() CacheParams {
	return CacheParams{
		Mr: 4,   // 4 rows per micro-tile
		Nr: 16,  // 2 vectors × 8 lanes = 16 columns
		Kc: 256, // L1 blocking: 4 * 256 * 4 bytes = 4KB strip of A
		Mc: 256, // L2 blocking: 256 * 256 * 4 bytes = 256KB panel of A
	}
}

// CacheParamsNEON returns blocking parameters for ARM NEON.
// Optimized for 128-bit vectors (4 float32s per vector).
// Assumes: 32-64KB L1d, 256KB-1MB L2 (typical for Cortex-A76 and later)
func CacheParamsNEON() CacheParams {
	return CacheParams{
		Mr: 4,   // 4 rows per micro-tile
		Nr: 8,   // 2 vectors × 4 lanes = 8 columns
		Kc: 256, // L1 blocking: 4 * 256 * 4 bytes = 4KB strip of A
		Mc: 256, // L2 blocking: 256 * 256 * 4 bytes = 256KB panel of A
	}
}

// CacheParamsFallback returns conservative blocking parameters for fallback.
// Uses smaller blocks that should work on any hardware.
func CacheParamsFallback() CacheParams {
	return CacheParams{
		Mr: 4,   // 4 rows per micro-tile
		Nr: 8,   // 8 columns (no vectorization assumed)
		Kc: 128, // Small K-blocking
		Mc: 128, // Small M-blocking
	}
}
