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

// Package activation provides the element-wise activation functions fused
// into convolution outputs.
//
// Each Kind reads its parameters from a small float32 slice. Missing
// scalar parameters take the defaults listed on the Kind constants; PReLU
// reads one slope per channel.
package activation

import "strings"

// Kind identifies an activation function.
type Kind int

const (
	// Identity returns x unchanged.
	Identity Kind = iota

	// ReLU computes max(0, x).
	ReLU

	// LeakyReLU computes max(0, x) + slope*min(0, x). params: [slope=0].
	LeakyReLU

	// RestrictRange clamps x to [lower, upper]. params: [lower=0, upper=6].
	RestrictRange

	// PReLU is LeakyReLU with one slope per channel. params: [slope_c...].
	PReLU

	// ELU computes x for x >= 0 and alpha*(exp(x)-1) otherwise. params: [alpha=1].
	ELU

	// HSwish computes max(min(x, shift)+shift, 0)*scale*x. params: [shift=3, scale=1/6].
	HSwish

	// Mish computes x*tanh(softplus(x)), or x above threshold. params: [threshold=20].
	Mish

	// HardSigmoid computes clamp(scale*x+shift, 0, 1). params: [scale=1/6, shift=0.5].
	HardSigmoid

	// Swish computes x/(1+exp(-slope*x)). params: [slope=1].
	Swish

	// GELU computes x*(1+erf(x/sqrt(2)))/2.
	GELU

	numKinds
)

var kindNames = [...]string{
	Identity:      "identity",
	ReLU:          "relu",
	LeakyReLU:     "leakyrelu",
	RestrictRange: "restrictrange",
	PReLU:         "prelu",
	ELU:           "elu",
	HSwish:        "hswish",
	Mish:          "mish",
	HardSigmoid:   "hardsigmoid",
	Swish:         "swish",
	GELU:          "gelu",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= Identity && k < numKinds
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, numKinds)
	for k := Identity; k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind returns the kind named name (case-insensitive).
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return Identity, false
}

// ScalarParams returns the number of scalar parameters the kind reads.
// PReLU returns -1: it reads one slope per channel.
func (k Kind) ScalarParams() int {
	switch k {
	case LeakyReLU, ELU, Mish, Swish:
		return 1
	case RestrictRange, HSwish, HardSigmoid:
		return 2
	case PReLU:
		return -1
	default:
		return 0
	}
}

var defaults = [...][]float32{
	LeakyReLU:     {0},
	RestrictRange: {0, 6},
	ELU:           {1},
	HSwish:        {3, 1.0 / 6},
	Mish:          {20},
	HardSigmoid:   {1.0 / 6, 0.5},
	Swish:         {1},
}

// param returns params[i], or the kind's default when params is short.
func param(k Kind, params []float32, i int) float32 {
	if i < len(params) {
		return params[i]
	}
	if int(k) < len(defaults) && i < len(defaults[k]) {
		return defaults[k][i]
	}
	return 0
}

// Resolve returns the scalar parameters of k with defaults filled in.
// For PReLU, Identity, ReLU and GELU it returns params unchanged.
func Resolve(k Kind, params []float32) []float32 {
	n := k.ScalarParams()
	if n <= 0 {
		return params
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = param(k, params, i)
	}
	return out
}
