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

import "github.com/ajroetker/go-synet/hwy/contrib/activation"

// BiasAndActivation adds bias and applies kind in place to one image of
// channels×size outputs in a single pass.
//
// For ChannelFirst, dst holds channels contiguous planes of size elements
// and bias[c] and the PReLU slope params[c] are broadcast over plane c.
// For ChannelLast, dst holds size pixels of channels interleaved values.
// A nil bias adds nothing. Unknown kinds apply the bias only.
func BiasAndActivation(dst, bias, params []float32, kind activation.Kind, channels, size int, layout Layout) {
	if len(dst) < channels*size {
		panic("conv: dst slice too short")
	}
	if bias != nil && len(bias) < channels {
		panic("conv: bias slice too short")
	}
	switch layout {
	case ChannelLast:
		if bias != nil {
			bias = bias[:channels]
		}
		activation.ApplyInterleaved(kind, params, dst[:channels*size], bias, channels)
	default:
		for c := range channels {
			var b float32
			if bias != nil {
				b = bias[c]
			}
			activation.Apply(kind, params, dst[c*size:(c+1)*size], b, c)
		}
	}
}

// epilogue is the bias and activation bound by SetParams.
type epilogue struct {
	kind   activation.Kind
	bias   []float32
	params []float32
}

// apply runs the epilogue over a whole image laid out as layout.
func (e *epilogue) apply(dst []float32, channels, size int, layout Layout) {
	BiasAndActivation(dst, e.bias, e.params, e.kind, channels, size, layout)
}

// biasAt returns the bias of channel c.
func (e *epilogue) biasAt(c int) float32 {
	if e.bias == nil {
		return 0
	}
	return e.bias[c]
}

// fillBias sets dst to the bias values of channels [c0, c0+len(dst)).
func (e *epilogue) fillBias(dst []float32, c0 int) {
	if e.bias == nil {
		clear(dst)
		return
	}
	copy(dst, e.bias[c0:c0+len(dst)])
}

// activatePlane applies the activation to the plane of channel c.
func (e *epilogue) activatePlane(plane []float32, c int) {
	activation.Apply(e.kind, e.params, plane, 0, c)
}

// activatePixels applies the activation to interleaved pixels of channels
// values each.
func (e *epilogue) activatePixels(pixels []float32, channels int) {
	activation.ApplyInterleaved(e.kind, e.params, pixels, nil, channels)
}
