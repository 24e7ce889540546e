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
	"github.com/ajroetker/go-synet/hwy"
	"github.com/ajroetker/go-synet/hwy/contrib/vec"
)

// directNHWCMicroW is the widest run of body pixels computed together.
const directNHWCMicroW = 6

// directNHWC convolves channel-last pixels directly.
//
// Dense layers re-lay the weights in blocks of microD output channels,
// [blocks][KernelY][KernelX][SrcC][microD], zero-padded past DstC. Each
// block of a run of pixels keeps its accumulators in registers, starting
// from the bias, and broadcasts one input value per tap and channel.
// Pixels whose window lies inside the image skip bounds checks.
//
// Depthwise layers multiply whole pixels of channels by the HWIO weights,
// which already hold one [C] vector per tap.
type directNHWC struct {
	p      Param
	k      vec.Kernels32
	ep     *epilogue
	microD int
	blocks int
	weight []float32
	bias   []float32
}

func newDirectNHWC(p Param, k vec.Kernels32, ep *epilogue) *directNHWC {
	d := &directNHWC{p: p, k: k, ep: ep, microD: k.Lanes()}
	if p.DstC >= 2*k.Lanes() {
		d.microD = 2 * k.Lanes()
	}
	d.blocks = hwy.DivHi(p.DstC, d.microD)
	return d
}

func (d *directNHWC) bufferSize() int {
	return 0
}

func (d *directNHWC) setWeight(weight []float32) bool {
	p := d.p
	if p.IsDepthwise() {
		d.weight = weight
		return false
	}
	taps := p.KernelY * p.KernelX
	d.weight = make([]float32, d.blocks*taps*p.SrcC*d.microD)
	for t := range taps {
		for c := range p.SrcC {
			for o := range p.DstC {
				blk, i := o/d.microD, o%d.microD
				d.weight[((blk*taps+t)*p.SrcC+c)*d.microD+i] = weight[(t*p.SrcC+c)*p.DstC+o]
			}
		}
	}
	d.bias = make([]float32, d.blocks*d.microD)
	d.ep.fillBias(d.bias[:p.DstC], 0)
	return true
}

func (d *directNHWC) forward(src, _, dst []float32) {
	if d.p.IsDepthwise() {
		d.forwardDepthwise(src, dst)
		return
	}
	p := d.p
	noseH, bodyH := p.NoseH(), p.BodyH()
	noseW, bodyW := p.NoseW(), p.BodyW()
	row := p.DstW * p.DstC
	for dy := range p.DstH {
		inside := dy >= noseH && dy < bodyH
		for dx := 0; dx < p.DstW; {
			if !inside || dx < noseW || dx >= bodyW {
				d.pixels(src, dst, dy, dx, 1, true)
				dx++
				continue
			}
			n := bodyW - dx
			switch {
			case n >= directNHWCMicroW:
				n = directNHWCMicroW
			case n >= 2:
				n = 2
			}
			d.pixels(src, dst, dy, dx, n, false)
			dx += n
		}
		d.ep.activatePixels(dst[dy*row:(dy+1)*row], p.DstC)
	}
}

// pixels computes n adjacent output pixels of row dy starting at column
// dx0. checked enables bounds checks and requires n == 1.
func (d *directNHWC) pixels(src, dst []float32, dy, dx0, n int, checked bool) {
	p := d.p
	k := d.k
	lanes := k.Lanes()
	wide := d.microD > lanes
	taps := p.KernelY * p.KernelX
	var acc0, acc1 [directNHWCMicroW]hwy.Vec[float32]

	for blk := range d.blocks {
		b0 := k.Load(d.bias[blk*d.microD:])
		b1 := b0
		if wide {
			b1 = k.Load(d.bias[blk*d.microD+lanes:])
		}
		for i := range n {
			acc0[i], acc1[i] = b0, b1
		}

		for ky := range p.KernelY {
			sy := dy*p.StrideY - p.PadY + ky*p.DilationY
			if checked && (sy < 0 || sy >= p.SrcH) {
				continue
			}
			for kx := range p.KernelX {
				sx := dx0*p.StrideX - p.PadX + kx*p.DilationX
				if checked && (sx < 0 || sx >= p.SrcW) {
					continue
				}
				w := d.weight[(blk*taps+ky*p.KernelX+kx)*p.SrcC*d.microD:]
				s := src[(sy*p.SrcW+sx)*p.SrcC:]
				for c := range p.SrcC {
					w0 := k.Load(w[c*d.microD:])
					if wide {
						w1 := k.Load(w[c*d.microD+lanes:])
						for i := range n {
							v := k.Set(s[i*p.StrideX*p.SrcC+c])
							acc0[i] = k.MulAdd(v, w0, acc0[i])
							acc1[i] = k.MulAdd(v, w1, acc1[i])
						}
						continue
					}
					for i := range n {
						acc0[i] = k.MulAdd(k.Set(s[i*p.StrideX*p.SrcC+c]), w0, acc0[i])
					}
				}
			}
		}

		c0 := blk * d.microD
		width := min(d.microD, p.DstC-c0)
		for i := range n {
			out := dst[((dy*p.DstW+dx0+i)*p.DstC + c0):]
			hwy.Store(acc0[i], out[:min(lanes, width)])
			if width > lanes {
				hwy.Store(acc1[i], out[lanes:width])
			}
		}
	}
}

func (d *directNHWC) forwardDepthwise(src, dst []float32) {
	p := d.p
	ch := p.DstC
	for dy := range p.DstH {
		for dx := range p.DstW {
			out := dst[(dy*p.DstW+dx)*ch : (dy*p.DstW+dx+1)*ch]
			d.ep.fillBias(out, 0)
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
					mulAddTo(d.k, out, src[(sy*p.SrcW+sx)*ch:], d.weight[(ky*p.KernelX+kx)*ch:])
				}
			}
		}
		row := p.DstW * ch
		d.ep.activatePixels(dst[dy*row:(dy+1)*row], ch)
	}
}

// mulAddTo performs dst[i] += a[i] * b[i] over len(dst) elements.
func mulAddTo(k vec.Kernels32, dst, a, b []float32) {
	n := len(dst)
	lanes := k.Lanes()

	var i int
	for ; i+lanes <= n; i += lanes {
		hwy.Store(k.MulAdd(k.Load(a[i:]), k.Load(b[i:]), k.Load(dst[i:])), dst[i:])
	}
	for ; i < n; i++ {
		dst[i] = k.MulAddScalar(a[i], b[i], dst[i])
	}
}
