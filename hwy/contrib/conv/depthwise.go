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

import "github.com/ajroetker/go-synet/hwy/contrib/vec"

// depthwiseDot handles depthwise layers whose kernel covers the whole
// unpadded image, so every channel reduces to a single dot product.
type depthwiseDot struct {
	p      Param
	k      vec.Kernels32
	ep     *epilogue
	weight []float32
}

func newDepthwiseDot(p Param, k vec.Kernels32, ep *epilogue) *depthwiseDot {
	return &depthwiseDot{p: p, k: k, ep: ep}
}

func (d *depthwiseDot) bufferSize() int {
	return 0
}

func (d *depthwiseDot) setWeight(weight []float32) bool {
	d.weight = weight
	return false
}

func (d *depthwiseDot) forward(src, _, dst []float32) {
	p := d.p
	size := p.SrcH * p.SrcW
	if p.Layout == ChannelFirst {
		for c := range p.SrcC {
			dst[c] = d.k.Dot(src[c*size:(c+1)*size], d.weight[c*size:(c+1)*size])
		}
		d.ep.apply(dst, p.DstC, 1, ChannelFirst)
		return
	}
	out := dst[:p.DstC]
	d.ep.fillBias(out, 0)
	for i := range size {
		mulAddTo(d.k, out, src[i*p.SrcC:], d.weight[i*p.SrcC:])
	}
	d.ep.activatePixels(out, p.DstC)
}
