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

// Package pooling implements max and average pooling over channel-first
// and channel-last images.
//
// Windows that overhang the padded edges only see the pixels inside the
// image. Max pooling ignores the padding; average pooling divides by the
// full kernel area, or with ExcludePad by the number of pixels inside.
package pooling

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-synet/hwy/contrib/conv"
	"github.com/ajroetker/go-synet/hwy/contrib/vec"
	"github.com/ajroetker/go-synet/hwy/contrib/workerpool"
)

// ErrInvalidParam reports a Param that violates a shape invariant.
var ErrInvalidParam = errors.New("pooling: invalid pooling parameters")

// Method selects the reduction.
type Method int

const (
	// Max takes the largest value in each window.
	Max Method = iota

	// Average takes the mean of each window.
	Average
)

// String returns "max" or "average".
func (m Method) String() string {
	switch m {
	case Max:
		return "max"
	case Average:
		return "average"
	default:
		return "unknown"
	}
}

// Param describes a pooling layer. Validate fills DstH and DstW.
type Param struct {
	Batch, Channels  int
	SrcH, SrcW       int
	DstH, DstW       int
	KernelY, KernelX int
	StrideY, StrideX int

	PadY, PadX, PadH, PadW int

	Method     Method
	ExcludePad bool
	Layout     conv.Layout
}

// Validate checks p and returns a copy with the output dimensions filled
// in. Errors wrap ErrInvalidParam.
func Validate(p Param) (Param, error) {
	if p.Batch < 1 || p.Channels < 1 || p.SrcH < 1 || p.SrcW < 1 ||
		p.KernelY < 1 || p.KernelX < 1 || p.StrideY < 1 || p.StrideX < 1 {
		return p, fmt.Errorf("%w: dimensions must be positive", ErrInvalidParam)
	}
	if p.PadY < 0 || p.PadX < 0 || p.PadH < 0 || p.PadW < 0 {
		return p, fmt.Errorf("%w: negative padding", ErrInvalidParam)
	}
	if p.PadY >= p.KernelY || p.PadX >= p.KernelX || p.PadH >= p.KernelY || p.PadW >= p.KernelX {
		return p, fmt.Errorf("%w: padding %d,%d,%d,%d must be smaller than kernel %dx%d",
			ErrInvalidParam, p.PadY, p.PadX, p.PadH, p.PadW, p.KernelY, p.KernelX)
	}
	if p.Method != Max && p.Method != Average {
		return p, fmt.Errorf("%w: unknown method %d", ErrInvalidParam, int(p.Method))
	}
	if p.Layout != conv.ChannelFirst && p.Layout != conv.ChannelLast {
		return p, fmt.Errorf("%w: unknown layout %d", ErrInvalidParam, int(p.Layout))
	}
	spanH := p.SrcH + p.PadY + p.PadH - p.KernelY
	spanW := p.SrcW + p.PadX + p.PadW - p.KernelX
	if spanH < 0 || spanW < 0 {
		return p, fmt.Errorf("%w: kernel %dx%d exceeds padded source %dx%d",
			ErrInvalidParam, p.KernelY, p.KernelX, p.SrcH+p.PadY+p.PadH, p.SrcW+p.PadX+p.PadW)
	}
	p.DstH = spanH/p.StrideY + 1
	p.DstW = spanW/p.StrideX + 1
	return p, nil
}

// SizeS returns the number of source elements per image.
func (p Param) SizeS() int {
	return p.Channels * p.SrcH * p.SrcW
}

// SizeD returns the number of destination elements per image.
func (p Param) SizeD() int {
	return p.Channels * p.DstH * p.DstW
}

// window returns the source range [y0, y1) × [x0, x1) of output (dy, dx).
func (p Param) window(dy, dx int) (y0, y1, x0, x1 int) {
	y0 = dy*p.StrideY - p.PadY
	x0 = dx*p.StrideX - p.PadX
	y1 = min(y0+p.KernelY, p.SrcH)
	x1 = min(x0+p.KernelX, p.SrcW)
	return max(y0, 0), y1, max(x0, 0), x1
}

func (p Param) norm(y0, y1, x0, x1 int) float32 {
	if p.ExcludePad {
		return 1 / float32((y1-y0)*(x1-x0))
	}
	return 1 / float32(p.KernelY*p.KernelX)
}

// Forward pools Batch images of a validated p from src into dst.
func Forward(p Param, src, dst []float32) {
	if len(src) < p.Batch*p.SizeS() {
		panic("pooling: src slice too short")
	}
	if len(dst) < p.Batch*p.SizeD() {
		panic("pooling: dst slice too short")
	}
	forwardRange(p, src, dst, 0, p.Batch)
}

// ParallelForward is Forward with the images spread over pool. A nil pool
// runs sequentially.
func ParallelForward(pool *workerpool.Pool, p Param, src, dst []float32) {
	if pool == nil {
		Forward(p, src, dst)
		return
	}
	if len(src) < p.Batch*p.SizeS() {
		panic("pooling: src slice too short")
	}
	if len(dst) < p.Batch*p.SizeD() {
		panic("pooling: dst slice too short")
	}
	pool.ParallelFor(p.Batch, func(start, end int) {
		forwardRange(p, src, dst, start, end)
	})
}

func forwardRange(p Param, src, dst []float32, start, end int) {
	sizeS, sizeD := p.SizeS(), p.SizeD()
	for b := start; b < end; b++ {
		s := src[b*sizeS : (b+1)*sizeS]
		d := dst[b*sizeD : (b+1)*sizeD]
		if p.Layout == conv.ChannelLast {
			forwardNHWC(p, s, d)
		} else {
			forwardNCHW(p, s, d)
		}
	}
}

func forwardNCHW(p Param, src, dst []float32) {
	for c := range p.Channels {
		plane := src[c*p.SrcH*p.SrcW:]
		out := dst[c*p.DstH*p.DstW:]
		for dy := range p.DstH {
			for dx := range p.DstW {
				y0, y1, x0, x1 := p.window(dy, dx)
				var v float32
				if p.Method == Max {
					v = plane[y0*p.SrcW+x0]
					for y := y0; y < y1; y++ {
						for _, s := range plane[y*p.SrcW+x0 : y*p.SrcW+x1] {
							v = max(v, s)
						}
					}
				} else {
					for y := y0; y < y1; y++ {
						for _, s := range plane[y*p.SrcW+x0 : y*p.SrcW+x1] {
							v += s
						}
					}
					v *= p.norm(y0, y1, x0, x1)
				}
				out[dy*p.DstW+dx] = v
			}
		}
	}
}

// forwardNHWC reduces whole pixels of channels at a time.
func forwardNHWC(p Param, src, dst []float32) {
	ch := p.Channels
	for dy := range p.DstH {
		for dx := range p.DstW {
			y0, y1, x0, x1 := p.window(dy, dx)
			out := dst[(dy*p.DstW+dx)*ch : (dy*p.DstW+dx+1)*ch]
			if p.Method == Max {
				copy(out, src[(y0*p.SrcW+x0)*ch:])
			} else {
				clear(out)
			}
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					pix := src[(y*p.SrcW+x)*ch : (y*p.SrcW+x+1)*ch]
					if p.Method == Max {
						vec.BaseMaxTo(out, pix)
					} else {
						vec.BaseAdd(out, pix)
					}
				}
			}
			if p.Method == Average {
				vec.BaseScale(p.norm(y0, y1, x0, x1), out)
			}
		}
	}
}
