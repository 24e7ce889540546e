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
	stdmath "math"

	"github.com/ajroetker/go-synet/hwy"
)

// Activate applies kind to a single value. channel selects the PReLU slope.
// Unknown kinds return x unchanged.
func Activate(kind Kind, x float32, params []float32, channel int) float32 {
	switch kind {
	case ReLU:
		return max(0, x)
	case LeakyReLU:
		return max(0, x) + param(kind, params, 0)*min(0, x)
	case RestrictRange:
		return min(max(param(kind, params, 0), x), param(kind, params, 1))
	case PReLU:
		var slope float32
		if channel < len(params) {
			slope = params[channel]
		}
		return max(0, x) + slope*min(0, x)
	case ELU:
		if x >= 0 {
			return x
		}
		return param(kind, params, 0) * float32(stdmath.Expm1(float64(x)))
	case HSwish:
		shift, scale := param(kind, params, 0), param(kind, params, 1)
		return max(min(x, shift)+shift, 0) * scale * x
	case Mish:
		if x > param(kind, params, 0) {
			return x
		}
		v := float64(x)
		return float32(v * stdmath.Tanh(stdmath.Log1p(stdmath.Exp(v))))
	case HardSigmoid:
		return max(0, min(x*param(kind, params, 0)+param(kind, params, 1), 1))
	case Swish:
		return float32(float64(x) / (1 + stdmath.Exp(-float64(param(kind, params, 0))*float64(x))))
	case GELU:
		v := float64(x)
		return float32(v * 0.5 * (1 + stdmath.Erf(v*0.7071067811865476)))
	default:
		return x
	}
}

// kernel is one activation with its parameters broadcast to vectors.
type kernel struct {
	kind Kind
	a, b hwy.Vec[float32]
}

// newKernel resolves params for kind. The PReLU slope of channel goes to a;
// ApplyInterleaved replaces it per vector of channels.
func newKernel(kind Kind, params []float32, channel int) kernel {
	k := kernel{kind: kind}
	if kind == PReLU {
		var slope float32
		if channel < len(params) {
			slope = params[channel]
		}
		k.a = hwy.Set(slope)
		return k
	}
	k.a = hwy.Set(param(kind, params, 0))
	k.b = hwy.Set(param(kind, params, 1))
	return k
}

func (k *kernel) apply(x hwy.Vec[float32]) hwy.Vec[float32] {
	switch k.kind {
	case ReLU:
		return BaseReLUVec(x)
	case LeakyReLU, PReLU:
		return BaseLeakyReLUVec(x, k.a)
	case RestrictRange:
		return BaseRestrictRangeVec(x, k.a, k.b)
	case ELU:
		return BaseELUVec(x, k.a)
	case HSwish:
		return BaseHSwishVec(x, k.a, k.b)
	case Mish:
		return BaseMishVec(x, k.a)
	case HardSigmoid:
		return BaseHardSigmoidVec(x, k.a, k.b)
	case Swish:
		return BaseSwishVec(x, k.a)
	case GELU:
		return BaseGELUVec(x)
	default:
		return x
	}
}

// Apply adds bias and runs kind over data in place, one load and one store
// per element. Every element belongs to channel, which selects the PReLU
// slope. Unknown kinds add the bias only.
func Apply(kind Kind, params []float32, data []float32, bias float32, channel int) {
	if !kind.Valid() {
		kind = Identity
	}
	if kind == Identity && bias == 0 {
		return
	}
	k := newKernel(kind, params, channel)
	vb := hwy.Set(bias)
	lanes := vb.NumLanes()

	var i int
	for ; i+lanes <= len(data); i += lanes {
		x := hwy.Add(hwy.Load(data[i:]), vb)
		hwy.Store(k.apply(x), data[i:])
	}
	for ; i < len(data); i++ {
		data[i] = Activate(kind, data[i]+bias, params, channel)
	}
}

// ApplyInterleaved adds bias and runs kind over data in place, where data
// holds rows of channels interleaved values (element i belongs to channel
// i%channels). bias, when not nil, and the PReLU slopes hold one value per
// channel. Each row is processed in vectors of channels, the last one
// partial, so bias and slopes line up with their channels.
func ApplyInterleaved(kind Kind, params []float32, data []float32, bias []float32, channels int) {
	if channels <= 0 {
		return
	}
	if !kind.Valid() {
		kind = Identity
	}
	if bias == nil {
		if kind == Identity {
			return
		}
		if kind != PReLU {
			Apply(kind, params, data, 0, 0)
			return
		}
	}
	k := newKernel(kind, params, 0)
	lanes := k.a.NumLanes()
	for off := 0; off+channels <= len(data); off += channels {
		row := data[off : off+channels]
		for c := 0; c < channels; c += lanes {
			n := min(lanes, channels-c)
			x := hwy.LoadN(row[c:c+n], lanes)
			if bias != nil {
				x = hwy.Add(x, hwy.LoadN(bias[c:c+n], lanes))
			}
			if kind == PReLU {
				k.a = hwy.LoadN(params[min(c, len(params)):min(c+n, len(params))], lanes)
			}
			hwy.Store(k.apply(x), row[c:c+n])
		}
	}
}
