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
	"log/slog"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-synet/hwy"
)

type rootOptions struct {
	verbose bool
	levels  string
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "synetconv",
		Short:         "Select, verify and benchmark convolution strategies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log strategy selection details")
	cmd.PersistentFlags().StringVar(&opts.levels, "levels", "", "comma-separated capabilities ("+strings.Join(levelNames(), ",")+") or 'all'; default detected")

	cmd.AddCommand(newSelectCmd(opts), newVerifyCmd(opts), newBenchCmd(opts))
	return cmd
}

func levelNames() []string {
	return lo.Map(allLevels(), func(l hwy.DispatchLevel, _ int) string { return l.String() })
}

func allLevels() []hwy.DispatchLevel {
	return []hwy.DispatchLevel{hwy.DispatchScalar, hwy.DispatchSSE2, hwy.DispatchAVX2, hwy.DispatchAVX512, hwy.DispatchNEON}
}

// capabilities parses --levels.
func (o *rootOptions) capabilities() ([]hwy.Capability, error) {
	if strings.TrimSpace(o.levels) == "" {
		c := hwy.Detect()
		o.logger.Debug("detected capability", "capability", fmt.Sprintf("%#v", c))
		return []hwy.Capability{c}, nil
	}
	names := lo.Uniq(lo.Compact(lo.Map(strings.Split(o.levels, ","), func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	})))
	if len(names) == 1 && names[0] == "all" {
		names = levelNames()
	}
	caps := make([]hwy.Capability, 0, len(names))
	for _, name := range names {
		level, ok := hwy.ParseDispatchLevel(name)
		if !ok {
			return nil, fmt.Errorf("unknown level %q (want one of %s)", name, strings.Join(levelNames(), ","))
		}
		caps = append(caps, hwy.CapabilityFor(level))
		o.logger.Debug("requested capability", "capability", fmt.Sprintf("%#v", caps[len(caps)-1]))
	}
	return caps, nil
}
