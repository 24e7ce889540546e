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
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-synet/hwy"
	"github.com/ajroetker/go-synet/hwy/contrib/activation"
	"github.com/ajroetker/go-synet/hwy/contrib/workerpool"
)

// layer fills the defaults of a test shape: batch 1, unit stride and
// dilation, one group, square padding pad.
func layer(layout Layout, srcC, srcH, srcW, dstC, kernelY, kernelX, stride, pad int) Param {
	return Param{
		Batch: 1, SrcC: srcC, SrcH: srcH, SrcW: srcW, DstC: dstC,
		KernelY: kernelY, KernelX: kernelX,
		DilationY: 1, DilationX: 1, StrideY: stride, StrideX: stride,
		PadY: pad, PadX: pad, PadH: pad, PadW: pad,
		Group: 1, Layout: layout,
	}
}

func with(p Param, f func(*Param)) Param {
	f(&p)
	return p
}

// algorithmCases are shapes whose strategy is the same under the default
// thresholds at every capability in testCapabilities.
var algorithmCases = []struct {
	name string
	p    Param
	want Algorithm
}{
	{"depthwise full kernel nchw", with(layer(ChannelFirst, 8, 5, 5, 8, 5, 5, 1, 0), func(p *Param) { p.Group = 8 }), DepthwiseDotProduct},
	{"depthwise full kernel nhwc", with(layer(ChannelLast, 20, 3, 4, 20, 3, 4, 1, 0), func(p *Param) { p.Group = 20 }), DepthwiseDotProduct},

	{"winograd 3x3 nchw", layer(ChannelFirst, 16, 12, 12, 8, 3, 3, 1, 1), Winograd},
	{"winograd 3x3 nchw batch", with(layer(ChannelFirst, 11, 7, 9, 5, 3, 3, 1, 0), func(p *Param) { p.Batch = 2 }), Winograd},
	{"winograd 3x3 nhwc tile 4", layer(ChannelLast, 16, 16, 16, 16, 3, 3, 1, 1), Winograd},
	{"winograd 3x3 nhwc tile 3", with(layer(ChannelLast, 12, 6, 6, 8, 3, 3, 1, 1), func(p *Param) { p.Batch = 4 }), Winograd},
	{"winograd 3x3 nhwc partial tiles", layer(ChannelLast, 10, 7, 7, 7, 3, 3, 1, 0), Winograd},
	{"winograd 2x2 nhwc", with(layer(ChannelLast, 12, 9, 9, 8, 2, 2, 1, 0), func(p *Param) { p.PadH, p.PadX = 1, 1 }), Winograd},
	{"winograd 2x2 nhwc tile 4", with(layer(ChannelLast, 10, 8, 8, 5, 2, 2, 1, 0), func(p *Param) { p.Batch = 4 }), Winograd},
	{"winograd 1x3 nhwc", with(layer(ChannelLast, 34, 4, 10, 6, 1, 3, 1, 0), func(p *Param) { p.PadX, p.PadW = 1, 1 }), Winograd},
	{"winograd 1x5 nhwc", with(layer(ChannelLast, 12, 3, 12, 4, 1, 5, 1, 0), func(p *Param) { p.PadX, p.PadW = 2, 2 }), Winograd},

	{"gemm nt", layer(ChannelFirst, 4, 5, 5, 6, 3, 3, 1, 1), GemmNT},

	{"direct nchw 3x3", with(layer(ChannelFirst, 4, 10, 10, 6, 3, 3, 1, 1), func(p *Param) { p.Batch = 2 }), DirectChannelFirst},
	{"direct nchw 3x3 stride 2", layer(ChannelFirst, 2, 11, 11, 3, 3, 3, 2, 1), DirectChannelFirst},
	{"direct nchw grouped", with(layer(ChannelFirst, 4, 9, 9, 4, 3, 3, 1, 1), func(p *Param) { p.Group = 2 }), DirectChannelFirst},
	{"direct nchw depthwise", with(layer(ChannelFirst, 6, 9, 9, 6, 3, 3, 1, 1), func(p *Param) { p.Group = 6 }), DirectChannelFirst},
	{"direct nchw 1x1", layer(ChannelFirst, 1, 8, 8, 4, 1, 1, 1, 0), DirectChannelFirst},

	{"direct nhwc pointwise", layer(ChannelLast, 64, 8, 8, 128, 1, 1, 1, 0), DirectChannelLast},
	{"direct nhwc 3x3 stride 2", layer(ChannelLast, 8, 20, 20, 16, 3, 3, 2, 1), DirectChannelLast},
	{"direct nhwc odd channels", with(layer(ChannelLast, 5, 12, 12, 20, 3, 3, 1, 1), func(p *Param) { p.Batch = 2 }), DirectChannelLast},
	{"direct nhwc dilated", with(layer(ChannelLast, 4, 14, 14, 16, 3, 3, 1, 2), func(p *Param) { p.DilationY, p.DilationX = 2, 2 }), DirectChannelLast},
	{"direct nhwc depthwise", with(layer(ChannelLast, 12, 9, 9, 12, 3, 3, 2, 1), func(p *Param) { p.Group = 12 }), DirectChannelLast},

	{"gemm nn pointwise nchw", layer(ChannelFirst, 64, 8, 8, 128, 1, 1, 1, 0), GemmNN},
	{"gemm nn grouped nhwc", with(layer(ChannelLast, 8, 7, 7, 6, 3, 3, 1, 1), func(p *Param) { p.Group = 2 }), GemmNN},
	{"gemm nn dilated nchw", with(layer(ChannelFirst, 3, 9, 9, 4, 3, 3, 1, 0), func(p *Param) { p.DilationY, p.DilationX = 2, 2 }), GemmNN},
	{"gemm nn strided pointwise nchw", layer(ChannelFirst, 8, 8, 8, 4, 1, 1, 2, 0), GemmNN},
	{"gemm nn narrow nhwc", layer(ChannelLast, 3, 6, 6, 2, 3, 3, 1, 1), GemmNN},
	{"gemm nn rectangular kernel nchw", with(layer(ChannelFirst, 20, 7, 9, 8, 5, 3, 1, 0), func(p *Param) {
		p.PadY, p.PadX, p.PadH, p.PadW = 2, 1, 2, 1
	}), GemmNN},
}

// testData returns random inputs, weights, bias and activation parameters
// for p. Every fourth case has no bias.
func testData(rng *rand.Rand, p Param, i int) (src, weight, bias, params []float32) {
	src = randSlice(rng, p.Batch*p.SizeS())
	weight = randSlice(rng, p.SizeW())
	if i%4 != 3 {
		bias = randSlice(rng, p.DstC)
	}
	if p.Activation == activation.PReLU {
		params = randSlice(rng, p.DstC)
	}
	return src, weight, bias, params
}

// closeTo compares outputs within 1e-3 of the larger of 1 and the largest
// reference magnitude.
func closeTo(want []float32) cmp.Option {
	var m float64 = 1
	for _, v := range want {
		m = math.Max(m, math.Abs(float64(v)))
	}
	return cmpopts.EquateApprox(1e-3, 1e-3*m)
}

func runLayer(t *testing.T, c *Convolution, src, weight, bias, params []float32) []float32 {
	t.Helper()
	_, err := c.SetParams(weight, bias, params)
	require.NoError(t, err)
	p := c.Param()
	dst := make([]float32, p.Batch*p.SizeD())
	var buf []float32
	if n := c.RequiredBufferSize(); n > 0 {
		buf = make([]float32, n)
	}
	c.Forward(src, buf, dst)
	return dst
}

func TestConvolutionMatchesScalar(t *testing.T) {
	kinds := activation.Kinds()
	for i, tc := range algorithmCases {
		p := tc.p
		p.Activation = kinds[i%len(kinds)]
		rng := rand.New(rand.NewSource(int64(i + 1)))
		src, weight, bias, params := testData(rng, p, i)

		vp, err := Validate(p)
		require.NoError(t, err, tc.name)
		want := make([]float32, vp.Batch*vp.SizeD())
		ConvolutionScalar(vp, src, weight, bias, params, want)

		for _, hc := range testCapabilities() {
			t.Run(tc.name+"/"+hc.String(), func(t *testing.T) {
				c, err := New(p, WithCapability(hc))
				require.NoError(t, err)
				require.Equal(t, tc.want, c.Algorithm(), "param %s", vp)

				got := runLayer(t, c, src, weight, bias, params)
				if diff := cmp.Diff(want, got, closeTo(want)); diff != "" {
					t.Fatalf("%s with %s (-want +got):\n%s", c, p.Activation, diff)
				}
			})
		}
	}
}

func TestConvolutionNoFMA(t *testing.T) {
	p := layer(ChannelLast, 16, 16, 16, 16, 3, 3, 1, 1)
	rng := rand.New(rand.NewSource(7))
	src, weight, bias, params := testData(rng, p, 0)

	fast, err := New(p, WithCapability(hwy.CapabilityFor(hwy.DispatchAVX2)))
	require.NoError(t, err)
	p.Compatibility = CompatibilityNoFMA
	exact, err := New(p, WithCapability(hwy.CapabilityFor(hwy.DispatchAVX2)))
	require.NoError(t, err)
	sse, err := New(p, WithCapability(hwy.CapabilityFor(hwy.DispatchSSE2)))
	require.NoError(t, err)

	a := runLayer(t, fast, src, weight, bias, params)
	b := runLayer(t, exact, src, weight, bias, params)
	requireClose(t, "fma vs no fma", a, b)

	requireClose(t, "avx2 vs sse2", b, runLayer(t, sse, src, weight, bias, params))
}

// forced builds a layer bound to alg regardless of the selector.
func forced(t *testing.T, p Param, c hwy.Capability, alg Algorithm) *Convolution {
	t.Helper()
	vp, err := Validate(p)
	require.NoError(t, err)
	o := defaultOptions()
	o.capability = c
	return newConvolution(vp, o, alg)
}

func TestDirectChannelFirstRejectsDilation(t *testing.T) {
	p := with(layer(ChannelFirst, 2, 9, 9, 2, 3, 3, 1, 0), func(p *Param) { p.DilationY = 2 })
	require.Panics(t, func() { forced(t, p, hwy.Detect(), DirectChannelFirst) })
}

func TestStrategiesAgree(t *testing.T) {
	tests := []struct {
		name string
		p    Param
		algs []Algorithm
	}{
		{
			"winograd vs gemm nchw",
			layer(ChannelFirst, 16, 32, 32, 16, 3, 3, 1, 1),
			[]Algorithm{Winograd, GemmNN, GemmNT, DirectChannelFirst},
		},
		{
			"winograd vs gemm nhwc",
			layer(ChannelLast, 16, 32, 32, 16, 3, 3, 1, 1),
			[]Algorithm{Winograd, GemmNN, DirectChannelLast},
		},
		{
			"winograd 2x2 vs direct",
			with(layer(ChannelLast, 8, 12, 12, 8, 2, 2, 1, 0), func(p *Param) { p.PadY, p.PadW = 1, 1 }),
			[]Algorithm{Winograd, GemmNN, DirectChannelLast},
		},
		{
			"depthwise vs grouped gemm nchw",
			with(layer(ChannelFirst, 10, 3, 3, 10, 3, 3, 1, 0), func(p *Param) { p.Group = 10 }),
			[]Algorithm{DepthwiseDotProduct, GemmNN, DirectChannelFirst},
		},
		{
			"depthwise vs grouped gemm nhwc",
			with(layer(ChannelLast, 10, 5, 3, 10, 5, 3, 1, 0), func(p *Param) { p.Group = 10 }),
			[]Algorithm{DepthwiseDotProduct, GemmNN, DirectChannelLast},
		},
		{
			"grouped gemm nhwc",
			with(layer(ChannelLast, 8, 7, 7, 6, 3, 3, 1, 1), func(p *Param) { p.Group = 2 }),
			[]Algorithm{GemmNN},
		},
		{
			"grouped gemm nchw",
			with(layer(ChannelFirst, 6, 8, 7, 9, 3, 3, 1, 1), func(p *Param) { p.Group = 3 }),
			[]Algorithm{GemmNN, DirectChannelFirst},
		},
		{
			"direct nchw 2x2 stride 2",
			layer(ChannelFirst, 6, 10, 10, 5, 2, 2, 2, 0),
			[]Algorithm{DirectChannelFirst, GemmNN, GemmNT},
		},
		{
			"direct nchw 3x3 stride 3",
			layer(ChannelFirst, 3, 13, 13, 4, 3, 3, 3, 2),
			[]Algorithm{DirectChannelFirst, GemmNN, GemmNT},
		},
		{
			"direct nchw 2x2 stride 1",
			layer(ChannelFirst, 5, 9, 7, 3, 2, 2, 1, 1),
			[]Algorithm{DirectChannelFirst, GemmNN, GemmNT},
		},
		{
			"direct nchw generic 4x4",
			layer(ChannelFirst, 3, 11, 9, 4, 4, 4, 1, 1),
			[]Algorithm{DirectChannelFirst, GemmNN, GemmNT},
		},
		{
			"direct nchw generic 5x5 stride 2",
			layer(ChannelFirst, 2, 12, 13, 3, 5, 5, 2, 2),
			[]Algorithm{DirectChannelFirst, GemmNN},
		},
		{
			"direct nchw rectangular 3x5 stride 2x1",
			with(layer(ChannelFirst, 3, 10, 12, 4, 3, 5, 1, 1), func(p *Param) { p.StrideY, p.PadW = 2, 2 }),
			[]Algorithm{DirectChannelFirst, GemmNN},
		},
		{
			"direct nchw square kernel rectangular stride",
			with(layer(ChannelFirst, 2, 9, 11, 3, 3, 3, 1, 0), func(p *Param) { p.StrideX = 2 }),
			[]Algorithm{DirectChannelFirst, GemmNN},
		},
		{
			"direct nhwc wide strided",
			with(layer(ChannelLast, 7, 15, 17, 40, 3, 3, 2, 1), func(p *Param) { p.PadH, p.PadW = 0, 0 }),
			[]Algorithm{DirectChannelLast, GemmNN},
		},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			p.Activation = activation.RestrictRange
			rng := rand.New(rand.NewSource(int64(100 + i)))
			src, weight, bias, _ := testData(rng, p, i)
			params := []float32{-0.5, 2}

			vp, err := Validate(p)
			require.NoError(t, err)
			want := make([]float32, vp.Batch*vp.SizeD())
			ConvolutionScalar(vp, src, weight, bias, params, want)

			for _, hc := range testCapabilities() {
				for _, alg := range tt.algs {
					c := forced(t, p, hc, alg)
					got := runLayer(t, c, src, weight, bias, params)
					if diff := cmp.Diff(want, got, closeTo(want)); diff != "" {
						t.Fatalf("%s (-want +got):\n%s", c, diff)
					}
				}
			}
		})
	}
}

func TestForwardDoesNotAllocate(t *testing.T) {
	tests := []struct {
		p    Param
		kind activation.Kind
		algs []Algorithm
	}{
		{layer(ChannelFirst, 8, 12, 12, 8, 3, 3, 1, 1), activation.GELU,
			[]Algorithm{Winograd, GemmNN, GemmNT, DirectChannelFirst}},
		{layer(ChannelLast, 8, 12, 12, 8, 3, 3, 1, 1), activation.PReLU,
			[]Algorithm{Winograd, GemmNN, DirectChannelLast}},
		{with(layer(ChannelFirst, 6, 5, 5, 6, 5, 5, 1, 0), func(p *Param) { p.Group = 6 }), activation.Mish,
			[]Algorithm{DepthwiseDotProduct}},
		{with(layer(ChannelLast, 6, 3, 4, 6, 3, 4, 1, 0), func(p *Param) { p.Group = 6 }), activation.PReLU,
			[]Algorithm{DepthwiseDotProduct}},
		{with(layer(ChannelLast, 6, 9, 9, 6, 3, 3, 1, 1), func(p *Param) { p.Group = 6 }), activation.ELU,
			[]Algorithm{DirectChannelLast}},
	}
	for i, tt := range tests {
		p := tt.p
		p.Activation = tt.kind
		rng := rand.New(rand.NewSource(int64(200 + i)))
		src, weight, bias, params := testData(rng, p, i)
		for _, alg := range tt.algs {
			c := forced(t, p, hwy.Detect(), alg)
			_, err := c.SetParams(weight, bias, params)
			require.NoError(t, err)
			dst := make([]float32, p.Batch*c.Param().SizeD())
			buf := make([]float32, c.RequiredBufferSize())
			allocs := testing.AllocsPerRun(3, func() { c.Forward(src, buf, dst) })
			assert.Zero(t, allocs, "%s allocated per Forward", c)
		}
	}
}

func TestSetParams(t *testing.T) {
	p := layer(ChannelLast, 16, 16, 16, 16, 3, 3, 1, 1)
	c, err := New(p)
	require.NoError(t, err)
	require.Equal(t, Winograd, c.Algorithm())

	_, err = c.SetParams(make([]float32, p.SizeW()-1), nil, nil)
	require.ErrorIs(t, err, ErrWeightSize)

	_, err = c.SetParams(make([]float32, p.SizeW()), make([]float32, 3), nil)
	require.ErrorIs(t, err, ErrBiasSize)

	internal, err := c.SetParams(make([]float32, p.SizeW()), nil, nil)
	require.NoError(t, err)
	assert.True(t, internal, "winograd keeps transformed weights")

	p.Activation = activation.PReLU
	c, err = New(p)
	require.NoError(t, err)
	_, err = c.SetParams(make([]float32, p.SizeW()), nil, make([]float32, 4))
	require.ErrorIs(t, err, ErrParamsSize)

	gemm, err := New(layer(ChannelFirst, 64, 8, 8, 128, 1, 1, 1, 0))
	require.NoError(t, err)
	require.Equal(t, GemmNN, gemm.Algorithm())
	internal, err = gemm.SetParams(make([]float32, 64*128), nil, nil)
	require.NoError(t, err)
	assert.False(t, internal, "gemm reads caller weights")
	assert.Zero(t, gemm.RequiredBufferSize(), "pointwise gemm needs no scratch")
}

func TestForwardPreconditions(t *testing.T) {
	p := layer(ChannelFirst, 4, 10, 10, 6, 3, 3, 1, 1)
	c, err := New(p)
	require.NoError(t, err)
	vp := c.Param()
	src := make([]float32, vp.SizeS())
	dst := make([]float32, vp.SizeD())
	buf := make([]float32, c.RequiredBufferSize())

	require.PanicsWithValue(t, ErrNotBound, func() { c.Forward(src, buf, dst) })

	_, err = c.SetParams(make([]float32, vp.SizeW()), nil, nil)
	require.NoError(t, err)
	require.Panics(t, func() { c.Forward(src[:1], buf, dst) })
	require.Panics(t, func() { c.Forward(src, buf, dst[:1]) })
	require.NotPanics(t, func() { c.Forward(src, buf, dst) })
}

func TestForwardParallel(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Close()

	for _, p := range []Param{
		with(layer(ChannelLast, 16, 12, 12, 8, 3, 3, 1, 1), func(p *Param) { p.Batch = 5 }),
		with(layer(ChannelFirst, 3, 9, 9, 4, 3, 3, 1, 0), func(p *Param) { p.Batch = 7; p.DilationY = 2 }),
	} {
		c, err := New(p)
		require.NoError(t, err)
		rng := rand.New(rand.NewSource(11))
		src, weight, bias, params := testData(rng, c.Param(), 0)
		want := runLayer(t, c, src, weight, bias, params)

		got := make([]float32, len(want))
		buf := make([]float32, c.ParallelBufferSize(pool.NumWorkers()))
		c.ForwardParallel(pool, src, buf, got)
		assert.Equal(t, want, got, c.String())
	}
}

func TestConvolutionString(t *testing.T) {
	c, err := New(layer(ChannelFirst, 64, 8, 8, 128, 1, 1, 1, 0), WithCapability(hwy.CapabilityFor(hwy.DispatchScalar)))
	require.NoError(t, err)
	assert.Equal(t, "scalar::GemmNN", c.String())
	assert.Equal(t, hwy.DispatchScalar, c.Capability().Level)
}

func BenchmarkConvolution(b *testing.B) {
	for _, tc := range algorithmCases {
		b.Run(tc.name, func(b *testing.B) {
			c, err := New(tc.p)
			require.NoError(b, err)
			p := c.Param()
			rng := rand.New(rand.NewSource(1))
			src, weight, bias, params := testData(rng, p, 0)
			_, err = c.SetParams(weight, bias, params)
			require.NoError(b, err)
			buf := make([]float32, c.RequiredBufferSize())
			dst := make([]float32, p.Batch*p.SizeD())
			for b.Loop() {
				c.Forward(src, buf, dst)
			}
		})
	}
}
