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
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/go-synet/hwy/contrib/activation"
	"github.com/ajroetker/go-synet/hwy/contrib/conv"
)

// shapeKeys lists the keys of a shape string. c, h and w are required; d
// defaults to c, n, k, s, dil and g to 1, p to 0, layout to nchw and act to
// identity. k, s, p and dil set both axes; ky, kx, sy, sx, py, px, ph and pw
// override one side.
var shapeKeys = []string{
	"n", "c", "h", "w", "d",
	"k", "ky", "kx", "s", "sy", "sx", "dil",
	"p", "py", "px", "ph", "pw",
	"g", "layout", "act",
}

// parseShape parses a shape string such as "c=64,h=56,w=56,k=3,p=1".
func parseShape(spec string) (conv.Param, error) {
	fields := lo.Compact(lo.Map(strings.Split(spec, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	kv := make(map[string]string, len(fields))
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return conv.Param{}, fmt.Errorf("shape %q: field %q is not key=value", spec, field)
		}
		if !lo.Contains(shapeKeys, key) {
			return conv.Param{}, fmt.Errorf("shape %q: unknown key %q", spec, key)
		}
		kv[key] = value
	}

	var err error
	get := func(def int, keys ...string) int {
		v := def
		for _, key := range keys {
			s, ok := kv[key]
			if !ok || err != nil {
				continue
			}
			var n int
			if n, err = strconv.Atoi(s); err != nil {
				err = fmt.Errorf("shape %q: %s: %w", spec, key, err)
				continue
			}
			v = n
		}
		return v
	}
	for _, key := range []string{"c", "h", "w"} {
		if _, ok := kv[key]; !ok {
			return conv.Param{}, fmt.Errorf("shape %q: missing %q", spec, key)
		}
	}

	p := conv.Param{
		Batch: get(1, "n"),
		SrcC:  get(0, "c"),
		SrcH:  get(0, "h"),
		SrcW:  get(0, "w"),
		Group: get(1, "g"),
	}
	p.DstC = get(p.SrcC, "d")
	p.KernelY, p.KernelX = get(1, "k", "ky"), get(1, "k", "kx")
	p.StrideY, p.StrideX = get(1, "s", "sy"), get(1, "s", "sx")
	p.DilationY = get(1, "dil")
	p.DilationX = p.DilationY
	p.PadY, p.PadX = get(0, "p", "py"), get(0, "p", "px")
	p.PadH, p.PadW = get(0, "p", "ph"), get(0, "p", "pw")
	if err != nil {
		return conv.Param{}, err
	}

	if name, ok := kv["layout"]; ok {
		if p.Layout, ok = conv.ParseLayout(name); !ok {
			return conv.Param{}, fmt.Errorf("shape %q: unknown layout %q", spec, name)
		}
	}
	if name, ok := kv["act"]; ok {
		if p.Activation, ok = activation.ParseKind(name); !ok {
			return conv.Param{}, fmt.Errorf("shape %q: unknown activation %q", spec, name)
		}
	}
	return conv.Validate(p)
}

func parseShapes(args []string) ([]conv.Param, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no shapes given")
	}
	params := make([]conv.Param, 0, len(args))
	for _, arg := range args {
		p, err := parseShape(arg)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}
