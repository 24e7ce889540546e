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

import "github.com/ajroetker/go-synet/hwy/contrib/matmul"

// gemmNN convolves by expanding the image and multiplying:
//
//	ChannelFirst: dst[g] (DstC/G × DstH·DstW) = W[g] (DstC/G × K) · cols (K × DstH·DstW)
//	ChannelLast:  dst[g] (DstH·DstW × DstC/G) = rows (DstH·DstW × K) · W[g] (K × DstC/G)
//
// with K = SrcC/G·KernelY·KernelX. Pointwise layers use the image itself
// as the expanded matrix and need no scratch buffer.
type gemmNN struct {
	p      Param
	gemm   *matmul.GEMM
	ep     *epilogue
	tables colTables
	weight []float32
	k      int
}

func newGemmNN(p Param, gemm *matmul.GEMM, ep *epilogue) *gemmNN {
	return &gemmNN{
		p:      p,
		gemm:   gemm,
		ep:     ep,
		tables: newColTables(p),
		k:      p.SrcC / p.Group * p.KernelY * p.KernelX,
	}
}

func (g *gemmNN) bufferSize() int {
	if g.p.Is1x1() {
		return 0
	}
	return g.p.DstH * g.p.DstW * g.k
}

func (g *gemmNN) setWeight(weight []float32) bool {
	g.weight = weight
	return false
}

func (g *gemmNN) forward(src, buf, dst []float32) {
	p := g.p
	cg, dg := p.SrcC/p.Group, p.DstC/p.Group
	n := p.DstH * p.DstW

	if p.Layout == ChannelFirst {
		hw := p.SrcH * p.SrcW
		for grp := range p.Group {
			cols := src[grp*cg*hw:]
			if !p.Is1x1() {
				imgToCol(p, cols, cg, buf, g.tables)
				cols = buf
			}
			g.gemm.NN(dg, n, g.k, g.weight[grp*dg*g.k:], g.k, cols, n, dst[grp*dg*n:], n)
		}
		g.ep.apply(dst, p.DstC, n, ChannelFirst)
		return
	}

	for grp := range p.Group {
		rows, lda := src[grp*cg:], p.SrcC
		if !p.Is1x1() {
			imgToRowNHWC(p, src, grp*cg, cg, buf, 0)
			rows, lda = buf, g.k
		}
		g.gemm.NN(n, dg, g.k, rows, lda, g.weight[grp*dg:], p.DstC, dst[grp*dg:], p.DstC)
	}
	g.ep.apply(dst, p.DstC, n, ChannelLast)
}

// gemmNT convolves a channel-first, single-group image as
// dst (DstC × DstH·DstW) = W (DstC × K) · rowsᵀ, where rows holds one
// expanded receptive field per output pixel.
type gemmNT struct {
	p      Param
	gemm   *matmul.GEMM
	ep     *epilogue
	weight []float32
	k      int
}

func newGemmNT(p Param, gemm *matmul.GEMM, ep *epilogue) *gemmNT {
	return &gemmNT{p: p, gemm: gemm, ep: ep, k: p.SrcC * p.KernelY * p.KernelX}
}

func (g *gemmNT) bufferSize() int {
	return g.p.DstH * g.p.DstW * g.k
}

func (g *gemmNT) setWeight(weight []float32) bool {
	g.weight = weight
	return false
}

func (g *gemmNT) forward(src, buf, dst []float32) {
	p := g.p
	n := p.DstH * p.DstW
	imgToRowNCHW(p, src, p.SrcC, buf, 0)
	g.gemm.NT(p.DstC, n, g.k, g.weight, g.k, buf, g.k, dst, n)
	g.ep.apply(dst, p.DstC, n, ChannelFirst)
}
