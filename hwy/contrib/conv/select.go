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

import "github.com/ajroetker/go-synet/hwy"

// Algorithm identifies a convolution strategy.
type Algorithm int

const (
	// GemmNN expands the input to columns (or rows) and multiplies.
	GemmNN Algorithm = iota

	// GemmNT multiplies weights against transposed image rows.
	GemmNT

	// Winograd uses minimal-filtering tile transforms.
	Winograd

	// DirectChannelFirst slides specialized kernels over NCHW planes.
	DirectChannelFirst

	// DirectChannelLast slides blocked kernels over NHWC pixels.
	DirectChannelLast

	// DepthwiseDotProduct computes one dot product per channel.
	DepthwiseDotProduct
)

// String returns the strategy name.
func (a Algorithm) String() string {
	switch a {
	case GemmNN:
		return "GemmNN"
	case GemmNT:
		return "GemmNT"
	case Winograd:
		return "Winograd"
	case DirectChannelFirst:
		return "DirectChannelFirst"
	case DirectChannelLast:
		return "DirectChannelLast"
	case DepthwiseDotProduct:
		return "DepthwiseDotProduct"
	default:
		return "Unknown"
	}
}

// Select returns the strategy for a validated param. The result depends
// only on its arguments.
//
// Strategies are tried in a fixed order and the first applicable one wins:
// DepthwiseDotProduct, Winograd, GemmNT, DirectChannelFirst,
// DirectChannelLast, and GemmNN, which always applies.
func Select(p Param, c hwy.Capability, t Thresholds) Algorithm {
	switch {
	case depthwiseDotProductApplicable(p):
		return DepthwiseDotProduct
	case winogradApplicable(p, t):
		return Winograd
	case gemmNTApplicable(p, t):
		return GemmNT
	case directChannelFirstApplicable(p, t):
		return DirectChannelFirst
	case directChannelLastApplicable(p, c, t):
		return DirectChannelLast
	default:
		return GemmNN
	}
}

func depthwiseDotProductApplicable(p Param) bool {
	return p.IsDepthwise() && p.IsPad(0) && p.IsDilation(1) &&
		p.KernelY == p.SrcH && p.KernelX == p.SrcW
}

func winogradApplicable(p Param, t Thresholds) bool {
	if !p.IsDilation(1) || !p.IsStride(1) || p.Group != 1 || p.SrcC < t.WinogradMinSrcC {
		return false
	}
	trans := p.Layout == ChannelLast
	area := p.SrcH * p.SrcW * p.Batch
	rowPad := p.PadY == 0 && p.PadH == 0 && p.PadX == p.PadW
	switch {
	case p.IsKernelYX(1, 3):
		return trans && rowPad && (p.PadX == 0 || p.PadX == 1) &&
			p.SrcC >= t.Winograd1x3MinSrcC && p.SrcW >= t.WinogradRowMinSrcW && area >= t.WinogradMinArea
	case p.IsKernelYX(1, 5):
		return trans && rowPad && (p.PadX == 0 || p.PadX == 2) &&
			p.SrcW >= t.WinogradRowMinSrcW && area >= t.WinogradMinArea
	case p.IsKernel(2):
		return trans && (p.IsPad(0) || (p.PadY+p.PadH == 1 && p.PadX+p.PadW == 1)) &&
			p.SrcH >= t.WinogradMinSide && p.SrcW >= t.WinogradMinSide && area >= t.WinogradMinArea
	case p.IsKernel(3):
		if !p.IsPad(0) && !p.IsPad(1) {
			return false
		}
		if trans {
			return p.SrcH >= t.WinogradMinSide && p.SrcW >= t.WinogradMinSide && area >= t.WinogradMinArea
		}
		return p.SrcH >= t.WinogradMinSideChannelFirst && p.SrcW >= t.WinogradMinSideChannelFirst
	}
	return false
}

// winogradBlock returns the output tile size for a Winograd-applicable param.
func winogradBlock(p Param, t Thresholds) (blockY, blockX int) {
	trans := p.Layout == ChannelLast
	area := p.SrcH * p.SrcW * p.Batch
	switch {
	case p.KernelY == 1:
		return 1, 4
	case p.IsKernel(2):
		if trans && p.SrcH >= t.WinogradTile4MinSide && p.SrcW >= t.WinogradTile4MinSide && area >= t.WinogradTile4MinArea {
			return 4, 4
		}
		return 2, 2
	default:
		if trans && p.SrcH >= t.WinogradTile4MinSide && p.SrcW >= t.WinogradTile4MinSide && area >= t.WinogradTile4MinArea {
			return 4, 4
		}
		if trans && p.SrcH >= t.WinogradTile3MinSide && p.SrcW >= t.WinogradTile3MinSide && area >= t.WinogradTile3MinArea &&
			p.DstH%3 == 0 && p.DstW%3 == 0 {
			return 3, 3
		}
		return 2, 2
	}
}

func gemmNTApplicable(p Param, t Thresholds) bool {
	return p.Layout == ChannelFirst && p.Group == 1 &&
		p.SrcH < t.GemmNTMaxSide && p.SrcW < t.GemmNTMaxSide
}

func directChannelFirstApplicable(p Param, t Thresholds) bool {
	if p.Layout != ChannelFirst || !p.IsDilation(1) ||
		p.KernelY != p.KernelX || p.StrideY != p.StrideX {
		return false
	}
	if _, ok := directKernels[directKey{kernel: p.KernelX, stride: p.StrideX}]; !ok {
		return false
	}
	ratio := float64(p.SrcC/p.Group) * float64(p.StrideX*p.StrideX*p.StrideY) / float64(p.KernelX*p.KernelY)
	return ratio < t.DirectChannelFirstMaxRatio
}

func directChannelLastApplicable(p Param, c hwy.Capability, t Thresholds) bool {
	if p.Layout != ChannelLast {
		return false
	}
	if p.IsDepthwise() {
		return true
	}
	if p.Group != 1 || p.DstC < c.Lanes32() {
		return false
	}
	if p.Is1x1() {
		if p.SrcC >= 2*p.DstC || p.SrcC > t.DirectChannelLast1x1MaxSrcC {
			return false
		}
	} else if p.DstW < t.DirectChannelLastMinBodyW+p.PadX+p.PadW {
		return false
	}
	if p.KernelY > p.SrcH || p.KernelX > p.SrcW {
		return false
	}
	if p.StrideY > 1 && p.StrideX > 1 && p.SrcC > t.DirectChannelLastStridedMaxSrcC &&
		p.KernelY*p.KernelX < t.DirectChannelLastStridedMinTaps*p.StrideY*p.StrideX {
		return false
	}
	return (p.PadX+p.PadW)*t.DirectChannelLastPadRatio <= p.SrcW
}
