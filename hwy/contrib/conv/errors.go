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

package conv

import "errors"

var (
	// ErrInvalidParam reports a Param that violates a shape invariant.
	ErrInvalidParam = errors.New("conv: invalid convolution parameters")

	// ErrWeightSize reports a weight slice shorter than the layer needs.
	ErrWeightSize = errors.New("conv: weight slice too short")

	// ErrBiasSize reports a non-nil bias shorter than DstC.
	ErrBiasSize = errors.New("conv: bias slice too short")

	// ErrParamsSize reports PReLU slopes shorter than DstC.
	ErrParamsSize = errors.New("conv: activation params too short")

	// ErrNotBound is the panic value of Forward on a layer whose
	// parameters were never set.
	ErrNotBound = errors.New("conv: Forward before SetParams")

	// ErrQuantization reports invalid quantization scales or zero points.
	ErrQuantization = errors.New("conv: invalid quantization")
)
