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

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-synet/hwy/contrib/conv"
	"github.com/ajroetker/go-synet/hwy/contrib/workerpool"
)

func newBenchCmd(root *rootOptions) *cobra.Command {
	var iterations, workers int
	cmd := &cobra.Command{
		Use:   "bench SHAPE...",
		Short: "Time Forward for each shape and capability",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseShapes(args)
			if err != nil {
				return err
			}
			caps, err := root.capabilities()
			if err != nil {
				return err
			}
			var pool *workerpool.Pool
			if workers > 1 {
				pool = workerpool.New(workers)
				defer pool.Close()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SHAPE\tLAYER\tTIME/OP\tGFLOPS")
			for _, p := range params {
				for _, c := range caps {
					l, err := conv.New(p, conv.WithCapability(c), conv.WithLogger(root.logger))
					if err != nil {
						return err
					}
					elapsed, err := bench(l, pool, iterations)
					if err != nil {
						return err
					}
					flops := 2 * float64(p.Batch*p.DstC*p.DstH*p.DstW) * float64(p.SrcC/p.Group*p.KernelY*p.KernelX)
					fmt.Fprintf(w, "%s\t%s\t%v\t%.2f\n", p, l, elapsed, flops/float64(elapsed.Nanoseconds()))
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 20, "timed Forward calls per layer")
	cmd.Flags().IntVar(&workers, "workers", 1, "split the batch over this many workers")
	return cmd
}

// bench returns the mean duration of one Forward call.
func bench(l *conv.Convolution, pool *workerpool.Pool, iterations int) (time.Duration, error) {
	p := l.Param()
	src, weight, bias, params := layerData(p, 1)
	if _, err := l.SetParams(weight, bias, params); err != nil {
		return 0, err
	}
	dst := make([]float32, p.Batch*p.SizeD())
	var forward func()
	if pool != nil {
		buf := make([]float32, l.ParallelBufferSize(pool.NumWorkers()))
		forward = func() { l.ForwardParallel(pool, src, buf, dst) }
	} else {
		buf := make([]float32, l.RequiredBufferSize())
		forward = func() { l.Forward(src, buf, dst) }
	}

	forward()
	start := time.Now()
	for range max(iterations, 1) {
		forward()
	}
	return time.Since(start) / time.Duration(max(iterations, 1)), nil
}
