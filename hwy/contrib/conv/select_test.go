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

	"github.com/ajroetker/go-synet/hwy"
)

func TestSelect(t *testing.T) {
	th := DefaultThresholds()
	for _, tc := range algorithmCases {
		p, err := Validate(tc.p)
		require.NoError(t, err, tc.name)
		for _, c := range testCapabilities() {
			assert.Equal(t, tc.want, Select(p, c, th), "%s on %s", tc.name, c)
		}
	}
}

func TestSelectPointwiseScenario(t *testing.T) {
	for _, tt := range []struct {
		layout Layout
		want   Algorithm
	}{
		{ChannelFirst, GemmNN},
		{ChannelLast, DirectChannelLast},
	} {
		p := layer(tt.layout, 64, 8, 8, 128, 1, 1, 1, 0)
		c, err := New(p, WithCapability(hwy.CapabilityFor(hwy.DispatchAVX2)))
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.Algorithm(), tt.layout.String())

		rng := rand.New(rand.NewSource(64))
		src, weight, bias, params := testData(rng, c.Param(), 0)
		want := make([]float32, c.Param().SizeD())
		ConvolutionScalar(c.Param(), src, weight, bias, params, want)
		requireClose(t, c.String(), want, runLayer(t, c, src, weight, bias, params))
	}
}

func TestSelectWinogradScenario(t *testing.T) {
	for _, layout := range []Layout{ChannelFirst, ChannelLast} {
		p := layer(layout, 16, 32, 32, 16, 3, 3, 1, 1)
		c, err := New(p)
		require.NoError(t, err)
		require.Equal(t, Winograd, c.Algorithm(), layout.String())

		gemm := forced(t, p, c.Capability(), GemmNN)
		rng := rand.New(rand.NewSource(32))
		src, weight, bias, params := testData(rng, c.Param(), 0)
		want := runLayer(t, gemm, src, weight, bias, params)
		got := runLayer(t, c, src, weight, bias, params)
		requireClose(t, c.String(), want, got)
	}
}

func TestSelectDeterministic(t *testing.T) {
	th := DefaultThresholds()
	for _, tc := range algorithmCases {
		p, err := Validate(tc.p)
		require.NoError(t, err)
		c := hwy.CapabilityFor(hwy.DispatchAVX512)
		first := Select(p, c, th)
		for range 10 {
			require.Equal(t, first, Select(p, c, th), tc.name)
		}
	}
}

func TestSelectThresholds(t *testing.T) {
	p, err := Validate(layer(ChannelFirst, 16, 12, 12, 8, 3, 3, 1, 1))
	require.NoError(t, err)
	c := hwy.CapabilityFor(hwy.DispatchNEON)

	th := DefaultThresholds()
	require.Equal(t, Winograd, Select(p, c, th))

	th.WinogradMinSrcC = 17
	assert.Equal(t, DirectChannelFirst, Select(p, c, th))

	th.DirectChannelFirstMaxRatio = 1.5
	assert.Equal(t, GemmNN, Select(p, c, th))

	th.GemmNTMaxSide = 13
	assert.Equal(t, GemmNT, Select(p, c, th))
}

func TestSelectLaneDependent(t *testing.T) {
	// DirectChannelLast needs at least one full vector of output channels.
	p, err := Validate(layer(ChannelLast, 5, 12, 12, 8, 3, 3, 1, 1))
	require.NoError(t, err)
	th := DefaultThresholds()
	assert.Equal(t, DirectChannelLast, Select(p, hwy.CapabilityFor(hwy.DispatchAVX2), th))
	assert.Equal(t, GemmNN, Select(p, hwy.CapabilityFor(hwy.DispatchAVX512), th))
}

func TestWinogradBlock(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name         string
		p            Param
		blockY, blkX int
	}{
		{"nchw", layer(ChannelFirst, 16, 64, 64, 16, 3, 3, 1, 1), 2, 2},
		{"nhwc large", layer(ChannelLast, 16, 64, 64, 16, 3, 3, 1, 1), 4, 4},
		{"nhwc medium", with(layer(ChannelLast, 16, 6, 6, 16, 3, 3, 1, 1), func(p *Param) { p.Batch = 4 }), 3, 3},
		{"nhwc medium indivisible", with(layer(ChannelLast, 16, 7, 7, 16, 3, 3, 1, 1), func(p *Param) { p.Batch = 4 }), 2, 2},
		{"nhwc small", layer(ChannelLast, 16, 6, 6, 16, 3, 3, 1, 1), 2, 2},
		{"2x2 large", layer(ChannelLast, 16, 16, 16, 16, 2, 2, 1, 0), 4, 4},
		{"1x3", layer(ChannelLast, 48, 8, 8, 16, 1, 3, 1, 0), 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Validate(tt.p)
			require.NoError(t, err)
			y, x := winogradBlock(p, th)
			assert.Equal(t, tt.blockY, y)
			assert.Equal(t, tt.blkX, x)
		})
	}
}

func TestAlgorithmString(t *testing.T) {
	names := map[Algorithm]string{
		GemmNN:              "GemmNN",
		GemmNT:              "GemmNT",
		Winograd:            "Winograd",
		DirectChannelFirst:  "DirectChannelFirst",
		DirectChannelLast:   "DirectChannelLast",
		DepthwiseDotProduct: "DepthwiseDotProduct",
		Algorithm(42):       "Unknown",
	}
	for a, want := range names {
		assert.Equal(t, want, a.String())
	}
}
