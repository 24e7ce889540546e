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

type directKey struct {
	kernel, stride int
}

// directKernel accumulates one padded input plane into one output plane:
//
//	dst[y][x] += Σ weight[ky][kx] · src[y·stride+ky][x·stride+kx]
type directKernel func(k vec.Kernels32, src []float32, srcW int, weight, dst []float32, dstH, dstW int)

// directKernels lists the square kernel and stride pairs that have a
// specialized channel-first kernel.
var directKernels = map[directKey]directKernel{
	{kernel: 1, stride: 1}: directStride1(1),
	{kernel: 2, stride: 1}: directStride1(2),
	{kernel: 3, stride: 1}: directStride1(3),
	{kernel: 2, stride: 2}: direct2x2Stride2,
	{kernel: 3, stride: 2}: direct3x3Stride2,
	{kernel: 3, stride: 3}: directStrided(3, 3, 3, 3),
}

// directStride1 adds each tap as a scaled row: stride-one output rows are
// contiguous windows of input rows.
func directStride1(kernel int) directKernel {
	return func(k vec.Kernels32, src []float32, srcW int, weight, dst []float32, dstH, dstW int) {
		for y := range dstH {
			row := dst[y*dstW : (y+1)*dstW]
			for ky := range kernel {
				s := src[(y+ky)*srcW:]
				for kx := range kernel {
					k.MulConstAddTo(row, weight[ky*kernel+kx], s[kx:kx+dstW])
				}
			}
		}
	}
}

func direct2x2Stride2(_ vec.Kernels32, src []float32, srcW int, weight, dst []float32, dstH, dstW int) {
	w0, w1, w2, w3 := weight[0], weight[1], weight[2], weight[3]
	for y := range dstH {
		s0 := src[2*y*srcW:]
		s1 := s0[srcW:]
		row := dst[y*dstW : (y+1)*dstW]
		for x := range row {
			i := 2 * x
			row[x] += s0[i]*w0 + s0[i+1]*w1 + s1[i]*w2 + s1[i+1]*w3
		}
	}
}

func direct3x3Stride2(_ vec.Kernels32, src []float32, srcW int, weight, dst []float32, dstH, dstW int) {
	w := weight[:9]
	for y := range dstH {
		s0 := src[2*y*srcW:]
		s1 := s0[srcW:]
		s2 := s1[srcW:]
		row := dst[y*dstW : (y+1)*dstW]
		for x := range row {
			i := 2 * x
			row[x] += s0[i]*w[0] + s0[i+1]*w[1] + s0[i+2]*w[2] +
				s1[i]*w[3] + s1[i+1]*w[4] + s1[i+2]*w[5] +
				s2[i]*w[6] + s2[i+1]*w[7] + s2[i+2]*w[8]
		}
	}
}

// directStrided handles any kernel and stride, including rectangular ones.
func directStrided(kernelY, kernelX, strideY, strideX int) directKernel {
	return func(_ vec.Kernels32, src []float32, srcW int, weight, dst []float32, dstH, dstW int) {
		for y := range dstH {
			row := dst[y*dstW : (y+1)*dstW]
			for ky := range kernelY {
				s := src[(y*strideY+ky)*srcW:]
				wk := weight[ky*kernelX : (ky+1)*kernelX]
				for x := range row {
					i := x * strideX
					var sum float32
					for kx, wv := range wk {
						sum += s[i+kx] * wv
					}
					row[x] += sum
				}
			}
		}
	}
}

// directNCHW convolves channel-first planes one output channel at a time.
// Each output plane starts from its bias and accumulates every input
// plane of its group. Padded layers first copy the group's channels into a
// zero-bordered scratch image.
type directNCHW struct {
	p      Param
	k      vec.Kernels32
	ep     *epilogue
	kernel directKernel
	weight []float32
}

// newDirectNCHW picks the specialized kernel for square kernels and
// strides and the generic one otherwise. Dilated layers are not supported.
func newDirectNCHW(p Param, k vec.Kernels32, ep *epilogue) *directNCHW {
	if !p.IsDilation(1) {
		panic("conv: direct channel-first convolution needs unit dilation")
	}
	kernel, ok := directKernels[directKey{kernel: p.KernelX, stride: p.StrideX}]
	if !ok || p.KernelY != p.KernelX || p.StrideY != p.StrideX {
		kernel = directStrided(p.KernelY, p.KernelX, p.StrideY, p.StrideX)
	}
	return &directNCHW{p: p, k: k, ep: ep, kernel: kernel}
}

func (d *directNCHW) paddedSize() (int, int) {
	p := d.p
	return p.SrcH + p.PadY + p.PadH, p.SrcW + p.PadX + p.PadW
}

func (d *directNCHW) bufferSize() int {
	if d.p.IsPad(0) {
		return 0
	}
	h, w := d.paddedSize()
	return d.p.SrcC / d.p.Group * h * w
}

func (d *directNCHW) setWeight(weight []float32) bool {
	d.weight = weight
	return false
}

func (d *directNCHW) forward(src, buf, dst []float32) {
	p := d.p
	cg, dg := p.SrcC/p.Group, p.DstC/p.Group
	taps := p.KernelY * p.KernelX
	size := p.DstH * p.DstW
	sh, sw := d.paddedSize()

	for grp := range p.Group {
		in := src[grp*cg*p.SrcH*p.SrcW:]
		if !p.IsPad(0) {
			padImage(p, in, cg, buf[:cg*sh*sw])
			in = buf
		}
		for o := range dg {
			oc := grp*dg + o
			plane := dst[oc*size : (oc+1)*size]
			d.k.Fill(plane, d.ep.biasAt(oc))
			for c := range cg {
				d.kernel(d.k, in[c*sh*sw:], sw, d.weight[(oc*cg+c)*taps:], plane, p.DstH, p.DstW)
			}
			d.ep.activatePlane(plane, oc)
		}
	}
}

// padImage copies channels planes of src into buf with the layer's zero
// border.
func padImage(p Param, src []float32, channels int, buf []float32) {
	sh, sw := p.SrcH+p.PadY+p.PadH, p.SrcW+p.PadX+p.PadW
	clear(buf)
	for c := range channels {
		for y := range p.SrcH {
			s := src[(c*p.SrcH+y)*p.SrcW:]
			copy(buf[(c*sh+y+p.PadY)*sw+p.PadX:], s[:p.SrcW])
		}
	}
}
