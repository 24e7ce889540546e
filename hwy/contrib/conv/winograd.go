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
	"github.com/ajroetker/go-synet/hwy/contrib/matmul"
	"github.com/ajroetker/go-synet/hwy/contrib/vec"
)

// winograd convolves with F(mY×mX, KY×KX) minimal filtering. The image is
// cut into overlapping tiles of nY×nX inputs; each of the nY·nX transform
// coefficients then needs one matrix product over channels:
//
//	ChannelFirst: D_i (DstC × tiles) = U_i (DstC × SrcC) · V_i (SrcC × tiles)
//	ChannelLast:  D_i (tiles × DstC) = V_i (tiles × SrcC) · U_i (SrcC × DstC)
//
// Weights are transformed once by setWeight. The input and output
// transforms run on rows of vectors: across channels for ChannelLast and
// across one row of tiles for ChannelFirst.
type winograd struct {
	p      Param
	gemm   *matmul.GEMM
	ep     *epilogue
	ty, tx transform1D

	tilesY, tilesX int
	count          int
	weight         []float32
}

func newWinograd(p Param, t Thresholds, gemm *matmul.GEMM, ep *epilogue) *winograd {
	blockY, blockX := winogradBlock(p, t)
	w := &winograd{
		p:    p,
		gemm: gemm,
		ep:   ep,
		ty:   winogradTransform(p.KernelY, blockY),
		tx:   winogradTransform(p.KernelX, blockX),
	}
	w.tilesY = (p.DstH + w.ty.m - 1) / w.ty.m
	w.tilesX = (p.DstW + w.tx.m - 1) / w.tx.m
	w.count = w.ty.n() * w.tx.n()
	return w
}

// block returns the output tile size.
func (w *winograd) block() (int, int) {
	return w.ty.m, w.tx.m
}

func (w *winograd) tiles() int {
	return w.tilesY * w.tilesX
}

// rowWidth is the vector row length of the input and output transforms.
func (w *winograd) rowWidth() int {
	if w.p.Layout == ChannelFirst {
		return w.tilesX
	}
	return max(w.p.SrcC, w.p.DstC)
}

// bufferSize covers the transformed input and output plus the transform
// scratch: gathered tile, intermediate product and output tile rows.
func (w *winograd) bufferSize() int {
	ny, nx := w.ty.n(), w.tx.n()
	scratch := (2*ny*nx + w.ty.m*w.tx.m) * w.rowWidth()
	return w.count*w.tiles()*(w.p.SrcC+w.p.DstC) + scratch
}

func (w *winograd) setWeight(weight []float32) bool {
	p := w.p
	ny, nx := w.ty.n(), w.tx.n()
	w.weight = make([]float32, w.count*p.DstC*p.SrcC)
	g := make([]float32, p.KernelY*p.KernelX)
	tmp := make([]float32, ny*p.KernelX)
	u := make([]float32, w.count)
	for o := range p.DstC {
		for c := range p.SrcC {
			for ky := range p.KernelY {
				for kx := range p.KernelX {
					g[ky*p.KernelX+kx] = weight[weightIndex(p, o, c, ky, kx)]
				}
			}
			sandwich(w.ty.g, ny, p.KernelY, g, p.KernelX, w.tx.g, nx, tmp, u)
			for i, v := range u {
				if p.Layout == ChannelFirst {
					w.weight[(i*p.DstC+o)*p.SrcC+c] = v
				} else {
					w.weight[(i*p.SrcC+c)*p.DstC+o] = v
				}
			}
		}
	}
	return true
}

// weightIndex locates tap (ky, kx) of input channel c (within its group)
// for output channel o: OIHW for ChannelFirst, HWIO for ChannelLast.
func weightIndex(p Param, o, c, ky, kx int) int {
	cg := p.SrcC / p.Group
	if p.Layout == ChannelFirst {
		return ((o*cg+c)*p.KernelY+ky)*p.KernelX + kx
	}
	return ((ky*p.KernelX+kx)*cg+c)*p.DstC + o
}

func (w *winograd) forward(src, buf, dst []float32) {
	p := w.p
	tiles := w.tiles()
	in := buf[:w.count*p.SrcC*tiles]
	out := buf[len(in) : len(in)+w.count*p.DstC*tiles]
	scratch := buf[len(in)+len(out):]
	k := w.gemm.Kernels()

	w.setInput(k, src, in, scratch)
	for i := range w.count {
		if p.Layout == ChannelFirst {
			w.gemm.NN(p.DstC, tiles, p.SrcC,
				w.weight[i*p.DstC*p.SrcC:], p.SrcC,
				in[i*p.SrcC*tiles:], tiles,
				out[i*p.DstC*tiles:], tiles)
		} else {
			w.gemm.NN(tiles, p.DstC, p.SrcC,
				in[i*tiles*p.SrcC:], p.SrcC,
				w.weight[i*p.SrcC*p.DstC:], p.DstC,
				out[i*tiles*p.DstC:], p.DstC)
		}
	}
	w.setOutput(k, out, dst, scratch)
	w.ep.apply(dst, p.DstC, p.DstH*p.DstW, p.Layout)
}

// setInput writes V = Bᵀ_y · d · B_x for every channel and tile. Tiles
// start at tile·m - pad and read zeros outside the image.
func (w *winograd) setInput(k vec.Kernels32, src, in, scratch []float32) {
	p := w.p
	ny, nx := w.ty.n(), w.tx.n()
	tiles := w.tiles()
	width := w.rowWidth()
	d := scratch[:ny*nx*width]
	tmp := scratch[ny*nx*width : 2*ny*nx*width]

	if p.Layout == ChannelFirst {
		for ty := range w.tilesY {
			y0 := ty*w.ty.m - p.PadY
			for c := range p.SrcC {
				plane := src[c*p.SrcH*p.SrcW : (c+1)*p.SrcH*p.SrcW]
				for i := range ny {
					y := y0 + i
					for j := range nx {
						row := d[(i*nx+j)*width : (i*nx+j+1)*width]
						if y < 0 || y >= p.SrcH {
							clear(row)
							continue
						}
						for tx := range row {
							x := tx*w.tx.m - p.PadX + j
							if x < 0 || x >= p.SrcW {
								row[tx] = 0
							} else {
								row[tx] = plane[y*p.SrcW+x]
							}
						}
					}
				}
				sandwichRows(k, w.ty.bt, ny, ny, d, width, nx, w.tx.bt, nx,
					in[c*tiles+ty*w.tilesX:], p.SrcC*tiles, tmp, width)
			}
		}
		return
	}

	width = p.SrcC
	for ty := range w.tilesY {
		y0 := ty*w.ty.m - p.PadY
		for tx := range w.tilesX {
			x0 := tx*w.tx.m - p.PadX
			t := ty*w.tilesX + tx
			for i := range ny {
				y := y0 + i
				for j := range nx {
					x := x0 + j
					row := d[(i*nx+j)*width : (i*nx+j+1)*width]
					if y < 0 || y >= p.SrcH || x < 0 || x >= p.SrcW {
						clear(row)
					} else {
						copy(row, src[(y*p.SrcW+x)*p.SrcC:])
					}
				}
			}
			sandwichRows(k, w.ty.bt, ny, ny, d, width, nx, w.tx.bt, nx,
				in[t*p.SrcC:], tiles*p.SrcC, tmp, width)
		}
	}
}

// setOutput writes Y = Aᵀ_y · m · A_x for every output channel and tile,
// clipping tiles that overhang the image.
func (w *winograd) setOutput(k vec.Kernels32, out, dst, scratch []float32) {
	p := w.p
	my, mx := w.ty.m, w.tx.m
	ny, nx := w.ty.n(), w.tx.n()
	tiles := w.tiles()
	width := w.rowWidth()
	tmp := scratch[ny*nx*width : 2*ny*nx*width]
	y := scratch[2*ny*nx*width : (2*ny*nx+my*mx)*width]

	if p.Layout == ChannelFirst {
		for ty := range w.tilesY {
			for o := range p.DstC {
				sandwichRows(k, w.ty.at, my, ny, out[o*tiles+ty*w.tilesX:], p.DstC*tiles, nx, w.tx.at, mx,
					y, width, tmp, width)
				plane := dst[o*p.DstH*p.DstW : (o+1)*p.DstH*p.DstW]
				for a := range my {
					dy := ty*my + a
					if dy >= p.DstH {
						break
					}
					for b := range mx {
						row := y[(a*mx+b)*width : (a*mx+b+1)*width]
						for tx, v := range row {
							dx := tx*mx + b
							if dx >= p.DstW {
								break
							}
							plane[dy*p.DstW+dx] = v
						}
					}
				}
			}
		}
		return
	}

	width = p.DstC
	for ty := range w.tilesY {
		for tx := range w.tilesX {
			t := ty*w.tilesX + tx
			sandwichRows(k, w.ty.at, my, ny, out[t*p.DstC:], tiles*p.DstC, nx, w.tx.at, mx,
				y, width, tmp, width)
			for a := range my {
				dy := ty*my + a
				if dy >= p.DstH {
					break
				}
				for b := range mx {
					dx := tx*mx + b
					if dx >= p.DstW {
						break
					}
					pix := (dy*p.DstW + dx) * p.DstC
					copy(dst[pix:pix+p.DstC], y[(a*mx+b)*width:(a*mx+b+1)*width])
				}
			}
		}
	}
}
