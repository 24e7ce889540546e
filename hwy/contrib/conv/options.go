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
	"io"
	"log/slog"

	"github.com/ajroetker/go-synet/hwy"
)

type options struct {
	capability hwy.Capability
	thresholds Thresholds
	logger     *slog.Logger
}

func defaultOptions() options {
	return options{
		capability: hwy.Detect(),
		thresholds: DefaultThresholds(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures New and NewQuantized.
type Option func(*options)

// WithCapability binds the layer to c instead of the detected capability.
func WithCapability(c hwy.Capability) Option {
	return func(o *options) {
		o.capability = c
	}
}

// WithThresholds replaces the selector thresholds.
func WithThresholds(t Thresholds) Option {
	return func(o *options) {
		o.thresholds = t
	}
}

// WithLogger reports strategy selection on l at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
