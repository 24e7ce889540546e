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
	"log/slog"
	"math"

	"github.com/ajroetker/go-synet/hwy/contrib/activation"
	"github.com/ajroetker/go-synet/hwy/contrib/matmul"
)

// Quantization holds the affine mappings real = scale·(q - zero) of the
// uint8 source and destination tensors.
type Quantization struct {
	SrcScale float32
	SrcZero  int32
	DstScale float32
	DstZero  int32
}

func (q Quantization) validate() error {
	if !(q.SrcScale > 0) || !(q.DstScale > 0) {
		return fmt.Errorf("%w: scales must be positive, got %g and %g", ErrQuantization, q.SrcScale, q.DstScale)
	}
	if q.SrcZero < 0 || q.SrcZero > math.MaxUint8 || q.DstZero < 0 || q.DstZero > math.MaxUint8 {
		return fmt.Errorf("%w: zero points %d and %d outside [0, 255]", ErrQuantization, q.SrcZero, q.DstZero)
	}
	return nil
}

// Quantized is a convolution layer over uint8 activations and int8
// weights. Each group expands its receptive fields into uint8 rows, padded
// with SrcZero, and multiplies them against the int8 weight rows into
// int32 accumulators. The zero point is removed afterwards using the
// per-channel weight sums:
//
//	y[o] = SrcScale·scale[o]·(acc[o] - SrcZero·Σ w[o]) + bias[o]
type Quantized struct {
	param  Param
	q      Quantization
	gemm   *matmul.GEMM
	ep     *epilogue
	k      int
	weight []int8
	scale  []float32
	wsum   []int32
	bound  bool
}

// QuantizedBuffer is the scratch memory of Quantized.Forward.
type QuantizedBuffer struct {
	Cols []uint8
	Acc  []int32
}

// NewQuantized validates p and q. Errors wrap ErrInvalidParam or
// ErrQuantization.
func NewQuantized(p Param, q Quantization, opts ...Option) (*Quantized, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p, err := Validate(p)
	if err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	l := &Quantized{
		param: p,
		q:     q,
		gemm:  matmul.New(o.capability, true),
		ep:    &epilogue{kind: p.Activation},
		k:     p.SrcC / p.Group * p.KernelY * p.KernelX,
	}
	o.logger.Debug("quantized convolution created",
		slog.String("param", p.String()),
		slog.Bool("overflow16", l.overflow16()))
	return l, nil
}

func (l *Quantized) overflow16() bool {
	return l.param.Compatibility&CompatibilityOverflow16i != 0
}

// SetParams quantizes weight symmetrically per output channel and binds
// bias and activation parameters as Convolution.SetParams does.
func (l *Quantized) SetParams(weight, bias, params []float32) error {
	p := l.param
	if len(weight) < p.SizeW() {
		return fmt.Errorf("%w: got %d, need %d", ErrWeightSize, len(weight), p.SizeW())
	}
	if bias != nil && len(bias) < p.DstC {
		return fmt.Errorf("%w: got %d, need %d", ErrBiasSize, len(bias), p.DstC)
	}
	if p.Activation == activation.PReLU && len(params) < p.DstC {
		return fmt.Errorf("%w: PReLU needs %d slopes, got %d", ErrParamsSize, p.DstC, len(params))
	}

	cg := p.SrcC / p.Group
	l.weight = make([]int8, p.DstC*l.k)
	l.scale = make([]float32, p.DstC)
	l.wsum = make([]int32, p.DstC)
	row := make([]float32, l.k)
	for o := range p.DstC {
		// Row order matches the expansion: (c, ky, kx) for ChannelFirst
		// and (ky, kx, c) for ChannelLast.
		var maxAbs float32
		for a := range l.k {
			var c, ky, kx int
			if p.Layout == ChannelFirst {
				c, ky, kx = a/(p.KernelY*p.KernelX), a/p.KernelX%p.KernelY, a%p.KernelX
			} else {
				ky, kx, c = a/(p.KernelX*cg), a/cg%p.KernelX, a%cg
			}
			row[a] = weight[weightIndex(p, o, c, ky, kx)]
			maxAbs = max(maxAbs, float32(math.Abs(float64(row[a]))))
		}
		if maxAbs == 0 {
			maxAbs = 1
		}
		scale := maxAbs / math.MaxInt8
		l.scale[o] = scale
		q := l.weight[o*l.k : (o+1)*l.k]
		var sum int32
		for a, w := range row {
			v := int32(math.Round(float64(w / scale)))
			v = min(max(v, -math.MaxInt8), math.MaxInt8)
			q[a] = int8(v)
			sum += v
		}
		l.wsum[o] = sum
	}
	l.ep.bias = bias
	l.ep.params = activation.Resolve(p.Activation, params)
	l.bound = true
	return nil
}

// NewBuffer allocates scratch memory for Forward.
func (l *Quantized) NewBuffer() *QuantizedBuffer {
	p := l.param
	n := p.DstH * p.DstW
	return &QuantizedBuffer{
		Cols: make([]uint8, n*l.k),
		Acc:  make([]int32, n*p.DstC/p.Group),
	}
}

// Forward runs Batch uint8 images into float32 outputs.
func (l *Quantized) Forward(src []uint8, buf *QuantizedBuffer, dst []float32) {
	if !l.bound {
		panic(ErrNotBound)
	}
	p := l.param
	if len(src) < p.Batch*p.SizeS() {
		panic("conv: src slice too short")
	}
	if len(dst) < p.Batch*p.SizeD() {
		panic("conv: dst slice too short")
	}
	sizeS, sizeD := p.SizeS(), p.SizeD()
	for b := range p.Batch {
		l.forward(src[b*sizeS:(b+1)*sizeS], buf, dst[b*sizeD:(b+1)*sizeD])
	}
}

// ForwardUint8 is Forward followed by requantization with DstScale and
// DstZero. dst32 holds the float32 image and must be SizeD long.
func (l *Quantized) ForwardUint8(src []uint8, buf *QuantizedBuffer, dst32 []float32, dst []uint8) {
	if !l.bound {
		panic(ErrNotBound)
	}
	p := l.param
	if len(src) < p.Batch*p.SizeS() {
		panic("conv: src slice too short")
	}
	if len(dst) < p.Batch*p.SizeD() {
		panic("conv: dst slice too short")
	}
	if len(dst32) < p.SizeD() {
		panic("conv: dst32 slice too short")
	}
	sizeS, sizeD := p.SizeS(), p.SizeD()
	for b := range p.Batch {
		l.forward(src[b*sizeS:(b+1)*sizeS], buf, dst32[:sizeD])
		requantize(dst32[:sizeD], l.q.DstScale, l.q.DstZero, dst[b*sizeD:(b+1)*sizeD])
	}
}

func requantize(src []float32, scale float32, zero int32, dst []uint8) {
	inv := 1 / scale
	for i, v := range src {
		q := int32(math.Round(float64(v*inv))) + zero
		dst[i] = uint8(min(max(q, 0), math.MaxUint8))
	}
}

func (l *Quantized) forward(src []uint8, buf *QuantizedBuffer, dst []float32) {
	p := l.param
	cg, dg := p.SrcC/p.Group, p.DstC/p.Group
	n := p.DstH * p.DstW
	zero := uint8(l.q.SrcZero)
	if len(buf.Cols) < n*l.k || len(buf.Acc) < n*dg {
		panic("conv: buf slice too short")
	}

	for grp := range p.Group {
		if p.Layout == ChannelFirst {
			imgToRowNCHW(p, src[grp*cg*p.SrcH*p.SrcW:], cg, buf.Cols, zero)
		} else {
			imgToRowNHWC(p, src, grp*cg, cg, buf.Cols, zero)
		}
		l.gemm.U8I8NT(n, dg, l.k, buf.Cols, l.k, l.weight[grp*dg*l.k:], l.k, buf.Acc, dg, l.overflow16())

		for o := range dg {
			oc := grp*dg + o
			scale := l.q.SrcScale * l.scale[oc]
			corr := l.q.SrcZero * l.wsum[oc]
			for i := range n {
				v := scale * float32(buf.Acc[i*dg+o]-corr)
				if p.Layout == ChannelFirst {
					dst[oc*n+i] = v
				} else {
					dst[i*p.DstC+oc] = v
				}
			}
		}
	}
	l.ep.apply(dst, p.DstC, n, p.Layout)
}

// Param returns the validated parameters.
func (l *Quantized) Param() Param {
	return l.param
}

// WeightScales returns the per-channel weight scales chosen by SetParams.
func (l *Quantized) WeightScales() []float32 {
	return l.scale
}
