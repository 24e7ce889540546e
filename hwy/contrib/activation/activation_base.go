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

package activation

import (
	"github.com/ajroetker/go-synet/hwy"
	"github.com/ajroetker/go-synet/hwy/contrib/math"
)

// The BaseXxxVec functions map one vector to one vector. Apply and
// ApplyInterleaved chain them after the bias add so each element is loaded
// and stored once.

// BaseReLUVec computes max(0, x).
func BaseReLUVec[T hwy.Floats](x hwy.Vec[T]) hwy.Vec[T] {
	return hwy.ZeroIfNegative(x)
}

// BaseLeakyReLUVec computes max(0, x) + alpha*min(0, x).
//
// Unlike the max(x, alpha*x) shortcut this form is also correct for
// alpha > 1. PReLU uses it with a vector of per-channel slopes.
func BaseLeakyReLUVec[T hwy.Floats](x, alpha hwy.Vec[T]) hwy.Vec[T] {
	zero := hwy.ZeroN[T](x.NumLanes())
	return hwy.MulAdd(alpha, hwy.Min(x, zero), hwy.Max(x, zero))
}

// BaseRestrictRangeVec clamps x to [lower, upper].
func BaseRestrictRangeVec[T hwy.Floats](x, lower, upper hwy.Vec[T]) hwy.Vec[T] {
	return hwy.Min(hwy.Max(lower, x), upper)
}

// BaseHSwishVec computes the hard swish max(min(x, shift)+shift, 0)*scale*x.
//
// With the default shift 3 and scale 1/6 this is x*relu6(x+3)/6 as used in
// MobileNetV3.
func BaseHSwishVec[T hwy.Floats](x, shift, scale hwy.Vec[T]) hwy.Vec[T] {
	gate := hwy.ZeroIfNegative(hwy.Add(hwy.Min(x, shift), shift))
	return hwy.Mul(hwy.Mul(gate, scale), x)
}

// BaseHardSigmoidVec computes max(0, min(x*scale+shift, 1)).
func BaseHardSigmoidVec[T hwy.Floats](x, scale, shift hwy.Vec[T]) hwy.Vec[T] {
	one := hwy.SetN(T(1), x.NumLanes())
	return hwy.ZeroIfNegative(hwy.Min(hwy.MulAdd(x, scale, shift), one))
}

// BaseELUVec computes the Exponential Linear Unit activation.
//
// ELU(x) = x if x >= 0, else alpha * (exp(x) - 1)
//
// ELU has smooth gradients everywhere and can push mean activations toward zero.
func BaseELUVec[T hwy.Floats](x, alpha hwy.Vec[T]) hwy.Vec[T] {
	n := x.NumLanes()
	zero := hwy.ZeroN[T](n)
	one := hwy.SetN(T(1), n)
	neg := hwy.Mul(alpha, hwy.Sub(math.BaseExpVec(hwy.Min(x, zero)), one))
	return hwy.IfThenElse(hwy.LessThan(x, zero), neg, x)
}

// BaseMishVec computes x*tanh(log(1+exp(x))), passing x through unchanged
// above threshold.
//
// With e = exp(x), tanh(log(1+e)) = e(e+2) / (e(e+2)+2), which needs no
// logarithm. The exponent is capped where the ratio has already rounded
// to one.
func BaseMishVec[T hwy.Floats](x, threshold hwy.Vec[T]) hwy.Vec[T] {
	n := x.NumLanes()
	two := hwy.SetN(T(2), n)
	e := math.BaseExpVec(hwy.Min(x, hwy.SetN(T(20), n)))
	num := hwy.Mul(e, hwy.Add(e, two))
	y := hwy.Mul(x, hwy.Div(num, hwy.Add(num, two)))
	return hwy.IfThenElse(hwy.GreaterThan(x, threshold), x, y)
}

// BaseSwishVec computes x * sigmoid(slope*x).
//
// With slope 1 this is SiLU, used in EfficientNet, GPT-J, and other modern
// architectures.
func BaseSwishVec[T hwy.Floats](x, slope hwy.Vec[T]) hwy.Vec[T] {
	return hwy.Mul(x, math.BaseSigmoidVec(hwy.Mul(slope, x)))
}

// BaseGELUVec computes the Gaussian Error Linear Unit activation function.
//
// GELU(x) = x * 0.5 * (1 + erf(x / sqrt(2)))
//
// This is the exact GELU formula used in BERT, GPT, and other transformer models.
func BaseGELUVec[T hwy.Floats](x hwy.Vec[T]) hwy.Vec[T] {
	n := x.NumLanes()
	half := hwy.SetN(T(0.5), n)
	invSqrt2 := hwy.SetN(T(0.7071067811865476), n)
	erf := math.BaseErfVec(hwy.Mul(x, invSqrt2))
	return hwy.Mul(hwy.Mul(x, half), hwy.Add(hwy.SetN(T(1), n), erf))
}
