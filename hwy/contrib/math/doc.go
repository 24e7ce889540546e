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


// Package math provides vectorized transcendental functions over hwy.Vec.
//
// Each BaseXxxVec function maps one vector to one vector without touching
// memory, so activation kernels can chain them per register. Accuracy is
// within a few float32 ulps of the standard library over the ranges the
// activations use.
package math
