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

package pooling

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-synet/hwy/contrib/conv"
	"github.com/ajroetker/go-synet/hwy/contrib/workerpool"
)

// reference pools one channel-first image with explicit padding checks.
func reference(p Param, src []float32) []float32 {
	dst := make([]float32, p.SizeD())
	for c := range p.Channels {
		for dy := range p.DstH {
			for dx := range p.DstW {
				v := float32(math.Inf(-1))
				if p.Method == Average {
					v = 0
				}
				n := 0
				for ky := range p.KernelY {
					for kx := range p.KernelX {
						y, x := dy*p.StrideY-p.PadY+ky, dx*p.StrideX-p.PadX+kx
						if y < 0 || y >= p.SrcH || x < 0 || x >= p.SrcW {
							continue
						}
						s := src[(c*p.SrcH+y)*p.SrcW+x]
						if p.Method == Max {
							v = max(v, s)
						} else {
							v += s
						}
						n++
					}
				}
				if p.Method == Average {
					if p.ExcludePad {
						v /= float32(n)
					} else {
						v /= float32(p.KernelY * p.KernelX)
					}
				}
				dst[(c*p.DstH+dy)*p.DstW+dx] = v
			}
		}
	}
	return dst
}

func toNHWC(src []float32, c, h, w int) []float32 {
	dst := make([]float32, len(src))
	for i := range c {
		for y := range h {
			for x := range w {
				dst[(y*w+x)*c+i] = src[(i*h+y)*w+x]
			}
		}
	}
	return dst
}

func TestForward(t *testing.T) {
	tests := []struct {
		name string
		p    Param
	}{
		{"max 2x2", Param{Channels: 5, SrcH: 8, SrcW: 8, KernelY: 2, KernelX: 2, StrideY: 2, StrideX: 2}},
		{"max 3x3 padded", Param{Channels: 9, SrcH: 7, SrcW: 9, KernelY: 3, KernelX: 3, StrideY: 2, StrideX: 2, PadY: 1, PadX: 1, PadH: 1, PadW: 1}},
		{"average 3x3 padded", Param{Channels: 17, SrcH: 6, SrcW: 5, KernelY: 3, KernelX: 3, StrideY: 1, StrideX: 1, PadY: 1, PadX: 1, PadH: 1, PadW: 1, Method: Average}},
		{"average exclude pad", Param{Channels: 3, SrcH: 6, SrcW: 7, KernelY: 3, KernelX: 2, StrideY: 2, StrideX: 1, PadY: 2, PadX: 1, Method: Average, ExcludePad: true}},
		{"global average", Param{Channels: 20, SrcH: 4, SrcW: 4, KernelY: 4, KernelX: 4, StrideY: 1, StrideX: 1, Method: Average}},
	}
	rng := rand.New(rand.NewSource(1))
	for _, tt := range tests {
		for _, layout := range []conv.Layout{conv.ChannelFirst, conv.ChannelLast} {
			t.Run(tt.name+"/"+layout.String(), func(t *testing.T) {
				p := tt.p
				p.Batch, p.Layout = 1, layout
				p, err := Validate(p)
				require.NoError(t, err)

				src := make([]float32, p.SizeS())
				for i := range src {
					src[i] = rng.Float32()*2 - 1
				}
				want := reference(p, src)
				if layout == conv.ChannelLast {
					src = toNHWC(src, p.Channels, p.SrcH, p.SrcW)
					want = toNHWC(want, p.Channels, p.DstH, p.DstW)
				}

				got := make([]float32, p.SizeD())
				Forward(p, src, got)
				assert.InDeltaSlice(t, want, got, 1e-5)
			})
		}
	}
}

func TestValidate(t *testing.T) {
	p, err := Validate(Param{Batch: 1, Channels: 1, SrcH: 7, SrcW: 7, KernelY: 3, KernelX: 3, StrideY: 2, StrideX: 2, PadY: 1, PadX: 1, PadH: 1, PadW: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, p.DstH)
	assert.Equal(t, 4, p.DstW)

	for _, bad := range []Param{
		{Batch: 1, Channels: 0, SrcH: 4, SrcW: 4, KernelY: 2, KernelX: 2, StrideY: 1, StrideX: 1},
		{Batch: 1, Channels: 1, SrcH: 4, SrcW: 4, KernelY: 2, KernelX: 2, StrideY: 1, StrideX: 1, PadY: 2},
		{Batch: 1, Channels: 1, SrcH: 1, SrcW: 4, KernelY: 3, KernelX: 2, StrideY: 1, StrideX: 1},
		{Batch: 1, Channels: 1, SrcH: 4, SrcW: 4, KernelY: 2, KernelX: 2, StrideY: 1, StrideX: 1, Method: Method(5)},
	} {
		_, err := Validate(bad)
		assert.ErrorIs(t, err, ErrInvalidParam, "%+v", bad)
	}
}

func TestParallelForward(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	p, err := Validate(Param{Batch: 9, Channels: 6, SrcH: 10, SrcW: 10, KernelY: 3, KernelX: 3, StrideY: 2, StrideX: 2, Method: Average, Layout: conv.ChannelLast})
	require.NoError(t, err)
	src := make([]float32, p.Batch*p.SizeS())
	for i := range src {
		src[i] = float32(i%17) - 8
	}
	want := make([]float32, p.Batch*p.SizeD())
	Forward(p, src, want)

	got := make([]float32, len(want))
	ParallelForward(pool, p, src, got)
	assert.Equal(t, want, got)

	clear(got)
	ParallelForward(nil, p, src, got)
	assert.Equal(t, want, got)
}
