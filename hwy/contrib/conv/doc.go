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

// Package conv implements the forward pass of 2D convolution layers with
// fused bias and activation.
//
// A layer is described by a Param. New validates it and selects one of
// several strategies for the shape and the vector capability:
//
//   - DepthwiseDotProduct: per-channel dot product when the kernel covers
//     the whole input plane.
//   - Winograd: minimal-filtering transforms for small stride-1 kernels
//     (1x3, 1x5, 2x2 and 3x3) with 2x2, 3x3 or 4x4 output tiles.
//   - GemmNT: image-to-row expansion multiplied against transposed rows,
//     for channel-first layers with tiny planes.
//   - DirectChannelFirst and DirectChannelLast: sliding-window kernels
//     specialized by kernel size and stride.
//   - GemmNN: image-to-column (channel-first) or image-to-row
//     (channel-last) expansion followed by a blocked matrix multiply. This
//     is the always-applicable fallback.
//
// Usage:
//
//	c, err := conv.New(conv.Param{
//	    Batch: 1, SrcC: 64, SrcH: 56, SrcW: 56, DstC: 64,
//	    KernelY: 3, KernelX: 3, PadY: 1, PadX: 1, PadH: 1, PadW: 1,
//	    Activation: activation.ReLU, Layout: conv.ChannelLast,
//	})
//	if err != nil {
//	    return err
//	}
//	if _, err := c.SetParams(weight, bias, nil); err != nil {
//	    return err
//	}
//	buf := make([]float32, c.RequiredBufferSize())
//	c.Forward(src, buf, dst)
//
// Weights follow the data layout: [DstC][SrcC/Group][KernelY][KernelX] for
// ChannelFirst and [KernelY][KernelX][SrcC/Group][DstC] for ChannelLast.
//
// A Convolution is read-only after SetParams. Concurrent Forward calls are
// safe as long as each call uses its own scratch buffer.
package conv
