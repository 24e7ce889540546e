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

// Exp: range reduction x = k*ln2 + r with a split ln2, then a degree-6
// Taylor polynomial for e^r.
const (
	expLn2Hi_f32  float32 = 0.693359375
	expLn2Lo_f32  float32 = -2.12194440e-4
	expInvLn2_f32 float32 = 1.44269504088896341

	expOverflow_f32  float32 = 88.72283905206835
	expUnderflow_f32 float32 = -87.33654475055310

	expC1_f32 float32 = 1.0
	expC2_f32 float32 = 0.5
	expC3_f32 float32 = 0.16666666666666666
	expC4_f32 float32 = 0.041666666666666664
	expC5_f32 float32 = 0.008333333333333333
	expC6_f32 float32 = 0.001388888888888889

	expOne_f32  float32 = 1.0
	expZero_f32 float32 = 0.0
)

// Sigmoid saturates beyond ±sigmoidSat_f32.
const (
	sigmoidOne_f32 float32 = 1.0
	sigmoidSat_f32 float32 = 20.0
)

// Erf: Abramowitz and Stegun 7.1.26, absolute error below 1.5e-7.
const (
	erfA1_f32   float32 = 0.254829592
	erfA2_f32   float32 = -0.284496736
	erfA3_f32   float32 = 1.421413741
	erfA4_f32   float32 = -1.453152027
	erfA5_f32   float32 = 1.061405429
	erfP_f32    float32 = 0.3275911
	erfOne_f32  float32 = 1.0
	erfZero_f32 float32 = 0.0
)
