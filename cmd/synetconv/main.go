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

// Command synetconv inspects and exercises the convolution engine.
//
// Usage:
//
//	synetconv select c=64,h=56,w=56,k=3,p=1,layout=nhwc
//	synetconv verify --levels all c=16,h=32,w=32,k=3,p=1 c=64,d=128,h=8,w=8
//	synetconv bench --iterations 50 c=256,h=14,w=14,k=3,p=1,act=relu
//
// A shape is a comma-separated list of key=value pairs; see shapeKeys for
// the keys and their defaults. --levels selects the capabilities to run
// with: a comma-separated list of scalar, sse2, avx2, avx512 and neon, or
// "all". The default is the detected capability.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
