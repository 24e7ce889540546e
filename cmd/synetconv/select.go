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
	"math/rand"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-synet/hwy/contrib/activation"
	"github.com/ajroetker/go-synet/hwy/contrib/conv"
)

func newSelectCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select SHAPE...",
		Short: "Print the strategy chosen for each shape and capability",
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
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SHAPE\tCAPABILITY\tALGORITHM\tBUFFER")
			for _, p := range params {
				for _, c := range caps {
					l, err := conv.New(p, conv.WithCapability(c), conv.WithLogger(root.logger))
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p, c, l.Algorithm(), l.RequiredBufferSize())
				}
			}
			return w.Flush()
		},
	}
}

// layerData returns deterministic random inputs for p.
func layerData(p conv.Param, seed int64) (src, weight, bias, params []float32) {
	rng := rand.New(rand.NewSource(seed))
	fill := func(n int) []float32 {
		s := make([]float32, n)
		for i := range s {
			s[i] = rng.Float32()*2 - 1
		}
		return s
	}
	src = fill(p.Batch * p.SizeS())
	weight = fill(p.SizeW())
	bias = fill(p.DstC)
	if p.Activation == activation.PReLU {
		params = fill(p.DstC)
	}
	return src, weight, bias, params
}
