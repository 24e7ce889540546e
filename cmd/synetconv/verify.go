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
	"math"
	"runtime"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-synet/hwy"
	"github.com/ajroetker/go-synet/hwy/contrib/conv"
)

type verifyResult struct {
	param     conv.Param
	layer     string
	maxError  float64
	tolerance float64
}

func (r verifyResult) ok() bool {
	return r.maxError <= r.tolerance
}

func newVerifyCmd(root *rootOptions) *cobra.Command {
	var tolerance float64
	var jobs int
	cmd := &cobra.Command{
		Use:   "verify SHAPE...",
		Short: "Compare the selected strategies against the scalar reference",
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

			type job struct {
				p conv.Param
				c hwy.Capability
			}
			var work []job
			for _, p := range params {
				for _, c := range caps {
					work = append(work, job{p, c})
				}
			}
			results := make([]verifyResult, len(work))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for i, j := range work {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					r, err := verify(j.p, j.c, tolerance, root)
					results[i] = r
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SHAPE\tLAYER\tMAX ERROR\tSTATUS")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%.3g\t%s\n", r.param, r.layer, r.maxError, lo.Ternary(r.ok(), "ok", "FAIL"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed := lo.CountBy(results, func(r verifyResult) bool { return !r.ok() }); failed > 0 {
				return fmt.Errorf("%d of %d layers exceed tolerance %g", failed, len(results), tolerance)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-3, "largest error allowed, relative to max(1, |reference|)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "layers verified concurrently")
	return cmd
}

func verify(p conv.Param, c hwy.Capability, tolerance float64, root *rootOptions) (verifyResult, error) {
	l, err := conv.New(p, conv.WithCapability(c), conv.WithLogger(root.logger))
	if err != nil {
		return verifyResult{}, err
	}
	src, weight, bias, params := layerData(p, 1)
	if _, err := l.SetParams(weight, bias, params); err != nil {
		return verifyResult{}, err
	}
	got := make([]float32, p.Batch*p.SizeD())
	l.Forward(src, make([]float32, l.RequiredBufferSize()), got)

	want := make([]float32, len(got))
	conv.ConvolutionScalar(p, src, weight, bias, params, want)

	r := verifyResult{param: p, layer: l.String(), tolerance: tolerance}
	for i := range want {
		diff := math.Abs(float64(got[i] - want[i]))
		r.maxError = math.Max(r.maxError, diff/math.Max(1, math.Abs(float64(want[i]))))
	}
	root.logger.Debug("verified", "param", p, "layer", r.layer, "maxError", r.maxError)
	return r, nil
}
