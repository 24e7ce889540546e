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

	"github.com/ajroetker/go-synet/hwy"
	"github.com/ajroetker/go-synet/hwy/contrib/activation"
	"github.com/ajroetker/go-synet/hwy/contrib/matmul"
	"github.com/ajroetker/go-synet/hwy/contrib/workerpool"
)

// algorithm is one convolution strategy bound to a Param. forward
// processes a single image, bias and activation included.
type algorithm interface {
	// bufferSize returns the scratch elements forward needs per image.
	bufferSize() int

	// setWeight binds the caller's weights and reports whether the
	// strategy keeps its own transformed copy.
	setWeight(weight []float32) bool

	forward(src, buf, dst []float32)
}

// Convolution is a convolution layer bound to one strategy.
type Convolution struct {
	param      Param
	capability hwy.Capability
	alg        Algorithm
	impl       algorithm
	ep         *epilogue
	bound      bool
	logger     *slog.Logger
}

// New validates p and selects a strategy for it. Errors wrap
// ErrInvalidParam.
func New(p Param, opts ...Option) (*Convolution, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p, err := Validate(p)
	if err != nil {
		return nil, err
	}

	return newConvolution(p, o, Select(p, o.capability, o.thresholds)), nil
}

// newConvolution binds a validated p to the strategy alg, which must be
// able to handle it.
func newConvolution(p Param, o options, alg Algorithm) *Convolution {
	c := &Convolution{
		param:      p,
		capability: o.capability,
		alg:        alg,
		ep:         &epilogue{kind: p.Activation},
		logger:     o.logger,
	}
	gemm := matmul.New(o.capability, p.Compatibility&CompatibilityNoFMA != 0)
	switch alg {
	case DepthwiseDotProduct:
		c.impl = newDepthwiseDot(p, gemm.Kernels(), c.ep)
	case Winograd:
		c.impl = newWinograd(p, o.thresholds, gemm, c.ep)
	case GemmNT:
		c.impl = newGemmNT(p, gemm, c.ep)
	case DirectChannelFirst:
		c.impl = newDirectNCHW(p, gemm.Kernels(), c.ep)
	case DirectChannelLast:
		c.impl = newDirectNHWC(p, gemm.Kernels(), c.ep)
	default:
		c.impl = newGemmNN(p, gemm, c.ep)
	}

	c.logger.Debug("convolution strategy selected",
		"algorithm", alg,
		"param", p,
		"capability", o.capability,
		"buffer", c.impl.bufferSize())
	return c
}

// Init builds a layer from its individual dimensions. It returns nil when
// the parameters are invalid or when the source and destination layouts
// differ.
func Init(batch, srcC, srcH, srcW int, srcLayout Layout, dstC int, dstLayout Layout,
	kernelY, kernelX, dilationY, dilationX, strideY, strideX,
	padY, padX, padH, padW, group int, act activation.Kind, opts ...Option) *Convolution {
	if srcLayout != dstLayout {
		return nil
	}
	c, err := New(Param{
		Batch: batch,
		SrcC:  srcC, SrcH: srcH, SrcW: srcW,
		DstC:    dstC,
		KernelY: kernelY, KernelX: kernelX,
		DilationY: dilationY, DilationX: dilationX,
		StrideY: strideY, StrideX: strideX,
		PadY: padY, PadX: padX, PadH: padH, PadW: padW,
		Group:      group,
		Activation: act,
		Layout:     srcLayout,
	}, opts...)
	if err != nil {
		return nil
	}
	return c
}

// SetParams binds the weights, the bias (nil for none) and the activation
// parameters. Missing scalar activation parameters take their defaults;
// PReLU needs one slope per output channel.
//
// internal reports whether the layer keeps its own transformed copy of the
// weights. When it is false the layer reads weight directly, and the caller
// must keep it alive and unchanged.
func (c *Convolution) SetParams(weight, bias, params []float32) (internal bool, err error) {
	p := c.param
	if len(weight) < p.SizeW() {
		return false, fmt.Errorf("%w: got %d, need %d", ErrWeightSize, len(weight), p.SizeW())
	}
	if bias != nil && len(bias) < p.DstC {
		return false, fmt.Errorf("%w: got %d, need %d", ErrBiasSize, len(bias), p.DstC)
	}
	if p.Activation == activation.PReLU && len(params) < p.DstC {
		return false, fmt.Errorf("%w: PReLU needs %d slopes, got %d", ErrParamsSize, p.DstC, len(params))
	}

	c.ep.bias = bias
	c.ep.params = activation.Resolve(p.Activation, params)
	internal = c.impl.setWeight(weight[:p.SizeW()])
	c.bound = true
	return internal, nil
}

// RequiredBufferSize returns the scratch elements Forward needs.
func (c *Convolution) RequiredBufferSize() int {
	return c.impl.bufferSize()
}

// ParallelBufferSize returns the scratch elements ForwardParallel needs
// with the given number of workers.
func (c *Convolution) ParallelBufferSize(workers int) int {
	return max(workers, 1) * c.impl.bufferSize()
}

// Forward runs Batch images from src into dst. buf must hold
// RequiredBufferSize elements and may be nil when that is zero.
func (c *Convolution) Forward(src, buf, dst []float32) {
	c.check(src, buf, dst, c.impl.bufferSize())
	p := c.param
	sizeS, sizeD := p.SizeS(), p.SizeD()
	for b := range p.Batch {
		c.impl.forward(src[b*sizeS:(b+1)*sizeS], buf, dst[b*sizeD:(b+1)*sizeD])
	}
}

// ForwardParallel is Forward with the images of the batch spread over
// pool. buf must hold ParallelBufferSize(pool.NumWorkers()) elements;
// each worker uses its own part.
func (c *Convolution) ForwardParallel(pool *workerpool.Pool, src, buf, dst []float32) {
	size := c.impl.bufferSize()
	c.check(src, buf, dst, c.ParallelBufferSize(pool.NumWorkers()))
	p := c.param
	sizeS, sizeD := p.SizeS(), p.SizeD()
	pool.ParallelForWorker(p.Batch, func(worker, start, end int) {
		wbuf := buf[worker*size : (worker+1)*size]
		for b := start; b < end; b++ {
			c.impl.forward(src[b*sizeS:(b+1)*sizeS], wbuf, dst[b*sizeD:(b+1)*sizeD])
		}
	})
}

func (c *Convolution) check(src, buf, dst []float32, bufSize int) {
	if !c.bound {
		panic(ErrNotBound)
	}
	p := c.param
	if len(src) < p.Batch*p.SizeS() {
		panic("conv: src slice too short")
	}
	if len(dst) < p.Batch*p.SizeD() {
		panic("conv: dst slice too short")
	}
	if len(buf) < bufSize {
		panic("conv: buf slice too short")
	}
}

// Algorithm returns the selected strategy.
func (c *Convolution) Algorithm() Algorithm {
	return c.alg
}

// Param returns the validated parameters.
func (c *Convolution) Param() Param {
	return c.param
}

// Capability returns the capability the layer is bound to.
func (c *Convolution) Capability() hwy.Capability {
	return c.capability
}

// String describes the layer as "<capability>::<algorithm>", e.g.
// "avx2::Winograd".
func (c *Convolution) String() string {
	return c.capability.String() + "::" + c.alg.String()
}
