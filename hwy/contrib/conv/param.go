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
	"fmt"

	"github.com/ajroetker/go-synet/hwy"
	"github.com/ajroetker/go-synet/hwy/contrib/activation"
)

// Layout is the memory order of a 4D tensor.
type Layout int

const (
	// ChannelFirst stores tensors as [N][C][H][W] (NCHW).
	ChannelFirst Layout = iota

	// ChannelLast stores tensors as [N][H][W][C] (NHWC).
	ChannelLast
)

// String returns "nchw" or "nhwc".
func (l Layout) String() string {
	switch l {
	case ChannelFirst:
		return "nchw"
	case ChannelLast:
		return "nhwc"
	default:
		return "unknown"
	}
}

// ParseLayout returns the layout named by name ("nchw" or "nhwc").
func ParseLayout(name string) (Layout, bool) {
	switch name {
	case "nchw":
		return ChannelFirst, true
	case "nhwc":
		return ChannelLast, true
	}
	return ChannelFirst, false
}

// Compatibility selects numeric contracts that trade speed for
// reproducibility.
type Compatibility uint

const (
	// CompatibilityFast allows every optimization.
	CompatibilityFast Compatibility = 0

	// CompatibilityNoFMA performs multiply-add as separate operations.
	CompatibilityNoFMA Compatibility = 1 << 0

	// CompatibilityOverflow16i makes quantized kernels saturate each pair
	// of products to int16, as 16-bit multiply-add instructions do.
	CompatibilityOverflow16i Compatibility = 1 << 1
)

// Param describes a convolution layer. Validate fills DstH and DstW.
type Param struct {
	Batch int

	SrcC, SrcH, SrcW int
	DstC, DstH, DstW int

	KernelY, KernelX     int
	DilationY, DilationX int
	StrideY, StrideX     int

	// PadY and PadX pad the top and left edges, PadH and PadW the bottom
	// and right edges.
	PadY, PadX, PadH, PadW int

	Group int

	Activation    activation.Kind
	Layout        Layout
	Compatibility Compatibility
}

// Validate checks the shape invariants of p and returns a copy with the
// output dimensions filled in. Errors wrap ErrInvalidParam.
func Validate(p Param) (Param, error) {
	positive := []struct {
		name  string
		value int
	}{
		{"batch", p.Batch},
		{"source channels", p.SrcC},
		{"source height", p.SrcH},
		{"source width", p.SrcW},
		{"destination channels", p.DstC},
		{"kernel height", p.KernelY},
		{"kernel width", p.KernelX},
		{"vertical dilation", p.DilationY},
		{"horizontal dilation", p.DilationX},
		{"vertical stride", p.StrideY},
		{"horizontal stride", p.StrideX},
		{"group", p.Group},
	}
	for _, f := range positive {
		if f.value < 1 {
			return p, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParam, f.name, f.value)
		}
	}
	if p.PadY < 0 || p.PadX < 0 || p.PadH < 0 || p.PadW < 0 {
		return p, fmt.Errorf("%w: negative padding %d,%d,%d,%d", ErrInvalidParam, p.PadY, p.PadX, p.PadH, p.PadW)
	}
	if p.SrcC%p.Group != 0 || p.DstC%p.Group != 0 {
		return p, fmt.Errorf("%w: channels %d->%d not divisible by group %d", ErrInvalidParam, p.SrcC, p.DstC, p.Group)
	}
	if p.Layout != ChannelFirst && p.Layout != ChannelLast {
		return p, fmt.Errorf("%w: unknown layout %d", ErrInvalidParam, int(p.Layout))
	}
	if !p.Activation.Valid() {
		return p, fmt.Errorf("%w: unknown activation %d", ErrInvalidParam, int(p.Activation))
	}

	var ok bool
	if p.DstH, ok = outputSize(p.SrcH, p.PadY, p.PadH, p.KernelY, p.DilationY, p.StrideY); !ok {
		return p, fmt.Errorf("%w: kernel height %d (dilation %d) exceeds padded source height %d",
			ErrInvalidParam, p.KernelY, p.DilationY, p.SrcH+p.PadY+p.PadH)
	}
	if p.DstW, ok = outputSize(p.SrcW, p.PadX, p.PadW, p.KernelX, p.DilationX, p.StrideX); !ok {
		return p, fmt.Errorf("%w: kernel width %d (dilation %d) exceeds padded source width %d",
			ErrInvalidParam, p.KernelX, p.DilationX, p.SrcW+p.PadX+p.PadW)
	}
	return p, nil
}

// outputSize returns (src + padBefore + padAfter - (dilation*(kernel-1)+1)) / stride + 1,
// or false if the dilated kernel does not fit in the padded source.
func outputSize(src, padBefore, padAfter, kernel, dilation, stride int) (int, bool) {
	span := src + padBefore + padAfter - (dilation*(kernel-1) + 1)
	if span < 0 {
		return 0, false
	}
	return span/stride + 1, true
}

// IsKernel reports whether the kernel is k×k.
func (p Param) IsKernel(k int) bool {
	return p.KernelY == k && p.KernelX == k
}

// IsKernelYX reports whether the kernel is ky×kx.
func (p Param) IsKernelYX(ky, kx int) bool {
	return p.KernelY == ky && p.KernelX == kx
}

// IsDilation reports whether both dilations equal d.
func (p Param) IsDilation(d int) bool {
	return p.DilationY == d && p.DilationX == d
}

// IsStride reports whether both strides equal s.
func (p Param) IsStride(s int) bool {
	return p.StrideY == s && p.StrideX == s
}

// IsPad reports whether all four pads equal pad.
func (p Param) IsPad(pad int) bool {
	return p.PadY == pad && p.PadX == pad && p.PadH == pad && p.PadW == pad
}

// IsDepthwise reports whether every group holds exactly one input and one
// output channel.
func (p Param) IsDepthwise() bool {
	return p.SrcC == p.Group && p.DstC == p.Group
}

// Is1x1 reports a pointwise convolution: 1×1 kernel, unit stride and
// dilation, no padding.
func (p Param) Is1x1() bool {
	return p.IsKernel(1) && p.IsDilation(1) && p.IsStride(1) && p.IsPad(0)
}

// NoseH returns the first output row whose window does not cross the top edge.
func (p Param) NoseH() int {
	return min(hwy.DivHi(p.PadY, p.StrideY), p.DstH)
}

// NoseW returns the first output column whose window does not cross the left edge.
func (p Param) NoseW() int {
	return min(hwy.DivHi(p.PadX, p.StrideX), p.DstW)
}

// BodyH returns the first output row whose window crosses the bottom edge.
func (p Param) BodyH() int {
	return bodySize(p.PadY, p.SrcH, p.KernelY, p.DilationY, p.StrideY, p.DstH)
}

// BodyW returns the first output column whose window crosses the right edge.
func (p Param) BodyW() int {
	return bodySize(p.PadX, p.SrcW, p.KernelX, p.DilationX, p.StrideX, p.DstW)
}

func bodySize(pad, src, kernel, dilation, stride, dst int) int {
	span := pad + src - (kernel-1)*dilation - 1
	if span < 0 {
		return 0
	}
	return min(span/stride+1, dst)
}

// SizeS returns the number of source elements per image.
func (p Param) SizeS() int {
	return p.SrcC * p.SrcH * p.SrcW
}

// SizeD returns the number of destination elements per image.
func (p Param) SizeD() int {
	return p.DstC * p.DstH * p.DstW
}

// SizeW returns the number of weight elements.
func (p Param) SizeW() int {
	return p.KernelY * p.KernelX * p.SrcC / p.Group * p.DstC
}

// String returns a compact description, e.g. "1x64x56x56-64x3x3-1-1-1-nhwc".
func (p Param) String() string {
	return fmt.Sprintf("%dx%dx%dx%d-%dx%dx%d-%d-%d-%d-%s",
		p.Batch, p.SrcC, p.SrcH, p.SrcW, p.DstC, p.KernelY, p.KernelX,
		p.DilationX, p.StrideX, p.Group, p.Layout)
}
