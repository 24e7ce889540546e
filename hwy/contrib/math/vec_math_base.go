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

package math

import (
	stdmath "math"

	"github.com/ajroetker/go-synet/hwy"
)

// Constants are broadcast to the lane count of the argument so the
// functions work on vectors of any capability.

// BaseExpVec computes e^x for a single vector.
// Lanes above the overflow threshold are +Inf, lanes below the underflow
// threshold are 0.
func BaseExpVec[T hwy.Floats](x hwy.Vec[T]) hwy.Vec[T] {
	n := x.NumLanes()
	overflow := hwy.SetN(T(expOverflow_f32), n)
	underflow := hwy.SetN(T(expUnderflow_f32), n)
	one := hwy.SetN(T(expOne_f32), n)
	zero := hwy.SetN(T(expZero_f32), n)
	inf := hwy.SetN(T(stdmath.Inf(1)), n)
	invLn2 := hwy.SetN(T(expInvLn2_f32), n)
	ln2Hi := hwy.SetN(T(expLn2Hi_f32), n)
	ln2Lo := hwy.SetN(T(expLn2Lo_f32), n)

	c1 := hwy.SetN(T(expC1_f32), n)
	c2 := hwy.SetN(T(expC2_f32), n)
	c3 := hwy.SetN(T(expC3_f32), n)
	c4 := hwy.SetN(T(expC4_f32), n)
	c5 := hwy.SetN(T(expC5_f32), n)
	c6 := hwy.SetN(T(expC6_f32), n)

	overflowMask := hwy.GreaterThan(x, overflow)
	underflowMask := hwy.LessThan(x, underflow)

	// k = round(x / ln(2)), r = x - k*ln(2)
	kFloat := hwy.RoundToEven(hwy.Mul(x, invLn2))
	r := hwy.Sub(x, hwy.Mul(kFloat, ln2Hi))
	r = hwy.Sub(r, hwy.Mul(kFloat, ln2Lo))

	p := hwy.MulAdd(c6, r, c5)
	p = hwy.MulAdd(p, r, c4)
	p = hwy.MulAdd(p, r, c3)
	p = hwy.MulAdd(p, r, c2)
	p = hwy.MulAdd(p, r, c1)
	p = hwy.MulAdd(p, r, one)

	result := hwy.Mul(p, hwy.Pow2[T](hwy.ConvertToInt32(kFloat)))
	result = hwy.IfThenElse(overflowMask, inf, result)
	return hwy.IfThenElse(underflowMask, zero, result)
}

// BaseSigmoidVec computes 1/(1+e^-x), saturating to 0 and 1 outside ±20.
func BaseSigmoidVec[T hwy.Floats](x hwy.Vec[T]) hwy.Vec[T] {
	n := x.NumLanes()
	one := hwy.SetN(T(sigmoidOne_f32), n)
	zero := hwy.ZeroN[T](n)
	satHi := hwy.SetN(T(sigmoidSat_f32), n)
	satLo := hwy.Neg(satHi)

	clamped := hwy.Max(hwy.Min(x, satHi), satLo)
	result := hwy.Div(one, hwy.Add(one, BaseExpVec(hwy.Neg(clamped))))

	result = hwy.IfThenElse(hwy.GreaterThan(x, satHi), one, result)
	return hwy.IfThenElse(hwy.LessThan(x, satLo), zero, result)
}

// BaseErfVec computes the error function erf(x).
func BaseErfVec[T hwy.Floats](x hwy.Vec[T]) hwy.Vec[T] {
	n := x.NumLanes()
	a1 := hwy.SetN(T(erfA1_f32), n)
	a2 := hwy.SetN(T(erfA2_f32), n)
	a3 := hwy.SetN(T(erfA3_f32), n)
	a4 := hwy.SetN(T(erfA4_f32), n)
	a5 := hwy.SetN(T(erfA5_f32), n)
	p := hwy.SetN(T(erfP_f32), n)
	one := hwy.SetN(T(erfOne_f32), n)
	zero := hwy.SetN(T(erfZero_f32), n)

	// erf(-x) = -erf(x)
	absX := hwy.Abs(x)
	signMask := hwy.LessThan(x, zero)

	t := hwy.Div(one, hwy.Add(one, hwy.Mul(p, absX)))

	poly := hwy.MulAdd(a5, t, a4)
	poly = hwy.MulAdd(poly, t, a3)
	poly = hwy.MulAdd(poly, t, a2)
	poly = hwy.MulAdd(poly, t, a1)
	poly = hwy.Mul(poly, t)

	// erf(|x|) = 1 - poly * e^(-x²)
	expNegX2 := BaseExpVec(hwy.Neg(hwy.Mul(absX, absX)))
	erfAbs := hwy.Sub(one, hwy.Mul(poly, expNegX2))

	return hwy.IfThenElse(signMask, hwy.Neg(erfAbs), erfAbs)
}
