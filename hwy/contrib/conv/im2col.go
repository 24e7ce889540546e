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

// colTables holds, per kernel column, the number of leading (nose) and
// trailing (tail) output columns whose source column falls in the
// horizontal padding. They drive the contiguous-copy path of imgToCol.
type colTables struct {
	nose, tail []int
}

func newColTables(p Param) colTables {
	t := colTables{nose: make([]int, p.KernelX), tail: make([]int, p.KernelX)}
	for kx := range p.KernelX {
		off := kx*p.DilationX - p.PadX
		t.nose[kx] = min(p.DstW, max(0, -off))
		t.tail[kx] = min(p.DstW, max(0, p.DstW-(p.SrcW-off)))
	}
	return t
}

// imgToCol expands channels planes of an NCHW image into buf as a
// [channels*KernelY*KernelX][DstH*DstW] matrix. Padding reads as zero.
func imgToCol(p Param, src []float32, channels int, buf []float32, t colTables) {
	n := p.DstH * p.DstW
	hw := p.SrcH * p.SrcW
	if len(buf) < channels*p.KernelY*p.KernelX*n {
		panic("conv: buf slice too short")
	}

	switch {
	case p.IsKernel(1) && p.IsPad(0):
		// Pointwise with stride: decimate each plane.
		for c := range channels {
			plane := src[c*hw:]
			row := buf[c*n:]
			for dy := range p.DstH {
				srow := plane[dy*p.StrideY*p.SrcW:]
				drow := row[dy*p.DstW : (dy+1)*p.DstW]
				for dx := range drow {
					drow[dx] = srow[dx*p.StrideX]
				}
			}
		}

	case p.IsStride(1) && p.IsDilation(1):
		for c := range channels {
			plane := src[c*hw:]
			for ky := range p.KernelY {
				for kx := range p.KernelX {
					row := buf[((c*p.KernelY+ky)*p.KernelX+kx)*n:]
					nose, tail := t.nose[kx], t.tail[kx]
					body := p.DstW - nose - tail
					for dy := range p.DstH {
						out := row[dy*p.DstW : (dy+1)*p.DstW]
						sy := dy - p.PadY + ky
						if sy < 0 || sy >= p.SrcH || body <= 0 {
							clear(out)
							continue
						}
						clear(out[:nose])
						sx := nose - p.PadX + kx
						copy(out[nose:nose+body], plane[sy*p.SrcW+sx:sy*p.SrcW+sx+body])
						clear(out[nose+body:])
					}
				}
			}
		}

	default:
		for c := range channels {
			plane := src[c*hw:]
			for ky := range p.KernelY {
				for kx := range p.KernelX {
					row := buf[((c*p.KernelY+ky)*p.KernelX+kx)*n:]
					for dy := range p.DstH {
						out := row[dy*p.DstW : (dy+1)*p.DstW]
						sy := dy*p.StrideY - p.PadY + ky*p.DilationY
						if sy < 0 || sy >= p.SrcH {
							clear(out)
							continue
						}
						srow := plane[sy*p.SrcW : (sy+1)*p.SrcW]
						for dx := range out {
							sx := dx*p.StrideX - p.PadX + kx*p.DilationX
							if sx >= 0 && sx < p.SrcW {
								out[dx] = srow[sx]
							} else {
								out[dx] = 0
							}
						}
					}
				}
			}
		}
	}
}

// imgToRowNCHW expands channels planes of an NCHW image into buf as a
// [DstH*DstW][channels*KernelY*KernelX] matrix, filling padding with zero.
func imgToRowNCHW[T float32 | uint8](p Param, src []T, channels int, buf []T, zero T) {
	hw := p.SrcH * p.SrcW
	k := channels * p.KernelY * p.KernelX
	if len(buf) < p.DstH*p.DstW*k {
		panic("conv: buf slice too short")
	}
	for dy := range p.DstH {
		for dx := range p.DstW {
			row := buf[(dy*p.DstW+dx)*k : (dy*p.DstW+dx+1)*k]
			i := 0
			for c := range channels {
				plane := src[c*hw : (c+1)*hw]
				for ky := range p.KernelY {
					sy := dy*p.StrideY - p.PadY + ky*p.DilationY
					for kx := range p.KernelX {
						sx := dx*p.StrideX - p.PadX + kx*p.DilationX
						if sy >= 0 && sy < p.SrcH && sx >= 0 && sx < p.SrcW {
							row[i] = plane[sy*p.SrcW+sx]
						} else {
							row[i] = zero
						}
						i++
					}
				}
			}
		}
	}
}

// imgToRowNHWC expands the channels [c0, c0+channels) of an NHWC image into
// buf as a [DstH*DstW][KernelY*KernelX*channels] matrix, filling padding
// with zero.
func imgToRowNHWC[T float32 | uint8](p Param, src []T, c0, channels int, buf []T, zero T) {
	k := p.KernelY * p.KernelX * channels
	if len(buf) < p.DstH*p.DstW*k {
		panic("conv: buf slice too short")
	}
	for dy := range p.DstH {
		for dx := range p.DstW {
			row := buf[(dy*p.DstW+dx)*k : (dy*p.DstW+dx+1)*k]
			for ky := range p.KernelY {
				sy := dy*p.StrideY - p.PadY + ky*p.DilationY
				for kx := range p.KernelX {
					sx := dx*p.StrideX - p.PadX + kx*p.DilationX
					seg := row[(ky*p.KernelX+kx)*channels : (ky*p.KernelX+kx+1)*channels]
					if sy < 0 || sy >= p.SrcH || sx < 0 || sx >= p.SrcW {
						for i := range seg {
							seg[i] = zero
						}
						continue
					}
					off := (sy*p.SrcW+sx)*p.SrcC + c0
					copy(seg, src[off:off+channels])
				}
			}
		}
	}
}
