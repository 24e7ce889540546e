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

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-synet/hwy/contrib/activation"
)

func TestBiasAndActivation(t *testing.T) {
	const channels, size = 7, 13
	rng := rand.New(rand.NewSource(3))
	for _, kind := range activation.Kinds() {
		for _, layout := range []Layout{ChannelFirst, ChannelLast} {
			t.Run(kind.String()+"/"+layout.String(), func(t *testing.T) {
				src := randSlice(rng, channels*size)
				for i := range src {
					src[i] *= 4
				}
				bias := randSlice(rng, channels)
				var params []float32
				if kind == activation.PReLU {
					params = randSlice(rng, channels)
				}

				want := make([]float32, len(src))
				resolved := activation.Resolve(kind, params)
				for i, v := range src {
					c := i / size
					if layout == ChannelLast {
						c = i % channels
					}
					want[i] = activation.Activate(kind, v+bias[c], resolved, c)
				}

				got := append([]float32(nil), src...)
				BiasAndActivation(got, bias, resolved, kind, channels, size, layout)
				requireClose(t, "fused", want, got)
			})
		}
	}
}

func TestBiasAndActivationNilBias(t *testing.T) {
	dst := []float32{-1, 2, -3, 4}
	BiasAndActivation(dst, nil, nil, activation.ReLU, 2, 2, ChannelLast)
	assert.Equal(t, []float32{0, 2, 0, 4}, dst)

	dst = []float32{-1, 2, -3, 4}
	BiasAndActivation(dst, nil, nil, activation.Identity, 2, 2, ChannelFirst)
	assert.Equal(t, []float32{-1, 2, -3, 4}, dst)
}

func TestBiasAndActivationPanics(t *testing.T) {
	require.Panics(t, func() {
		BiasAndActivation(make([]float32, 3), nil, nil, activation.ReLU, 2, 2, ChannelFirst)
	})
	require.Panics(t, func() {
		BiasAndActivation(make([]float32, 4), []float32{1}, nil, activation.ReLU, 2, 2, ChannelFirst)
	})
}

func TestEpilogueFillBias(t *testing.T) {
	e := &epilogue{bias: []float32{1, 2, 3, 4}}
	dst := make([]float32, 2)
	e.fillBias(dst, 1)
	assert.Equal(t, []float32{2, 3}, dst)
	assert.Equal(t, float32(4), e.biasAt(3))

	e.bias = nil
	e.fillBias(dst, 1)
	assert.Equal(t, []float32{0, 0}, dst)
	assert.Zero(t, e.biasAt(3))
}

func TestBiasAndActivationSinglePass(t *testing.T) {
	const channels, size = 5, 9
	rng := rand.New(rand.NewSource(4))
	bias := randSlice(rng, channels)
	slopes := randSlice(rng, channels)
	for _, layout := range []Layout{ChannelFirst, ChannelLast} {
		dst := randSlice(rng, channels*size+3)
		tail := append([]float32(nil), dst[channels*size:]...)
		allocs := testing.AllocsPerRun(10, func() {
			BiasAndActivation(dst, bias, slopes, activation.PReLU, channels, size, layout)
			BiasAndActivation(dst, bias, nil, activation.Swish, channels, size, layout)
		})
		assert.Zero(t, allocs, layout.String())
		assert.Equal(t, tail, dst[channels*size:], "%s: wrote past the image", layout)
	}
}
