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

// ConvolutionScalar is the straightforward convolution every strategy must
// agree with. It processes p.Batch images with OIHW weights for
// ChannelFirst and HWIO weights for ChannelLast, then adds bias (nil for
// none) and applies p.Activation with params resolved to their defaults.
func ConvolutionScalar(p Param, src, weight, bias, params, dst []float32) {
	params = activation.Resolve(p.Activation, params)
	cg, dg := p.SrcC/p.Group, p.DstC/p.Group
	sizeS, sizeD := p.SizeS(), p.SizeD()
	for b := range p.Batch {
		s := src[b*sizeS : (b+1)*sizeS]
		d := dst[b*sizeD : (b+1)*sizeD]
		for dy := range p.DstH {
			for dx := range p.DstW {
				for o := range p.DstC {
					grp := o / dg
					var sum float32
					for c := range cg {
						ic := grp*cg + c
						for ky := range p.KernelY {
							sy := dy*p.StrideY - p.PadY + ky*p.DilationY
							if sy < 0 || sy >= p.SrcH {
								continue
							}
							for kx := range p.KernelX {
								sx := dx*p.StrideX - p.PadX + kx*p.DilationX
								if sx < 0 || sx >= p.SrcW {
									continue
								}
								if p.Layout == ChannelFirst {
									sum += s[(ic*p.SrcH+sy)*p.SrcW+sx] * weight[weightIndex(p, o, c, ky, kx)]
								} else {
									sum += s[(sy*p.SrcW+sx)*p.SrcC+ic] * weight[weightIndex(p, o, c, ky, kx)]
								}
							}
						}
					}
					if bias != nil {
						sum += bias[o]
					}
					sum = activation.Activate(p.Activation, sum, params, o)
					if p.Layout == ChannelFirst {
						d[(o*p.DstH+dy)*p.DstW+dx] = sum
					} else {
						d[(dy*p.DstW+dx)*p.DstC+o] = sum
					}
				}
			}
		}
	}
}
