/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cssa converts block-parameter SSA functions into conventional SSA
// form ahead of register allocation, by grouping every block parameter with
// its incoming arguments into virtual registers and inserting copies where
// the members of a group would interfere.
package cssa

import (
	`context`
	`fmt`
	`runtime`
	`sync`

	`github.com/bytedance/gopkg/util/gopool`

	`github.com/cloudwego/cssa/internal/isa`
	`github.com/cloudwego/cssa/internal/opts`
	`github.com/cloudwego/cssa/internal/regalloc`
	`github.com/cloudwego/cssa/ir`

	_ `github.com/cloudwego/cssa/internal/isa/amd64`
)

// Result is the register partition of a coalesced function.
type Result = regalloc.Result

// Stats records what coalescing did to a single function.
type Stats = regalloc.Stats

var contextPool = sync.Pool {
	New: func() interface{} {
		return regalloc.NewContext()
	},
}

// Coalesce converts fn into conventional SSA form in place, and returns the
// virtual registers it built. On error fn may be partially rewritten.
func Coalesce(fn *ir.Function, options ...Option) (*Result, error) {
	if o, err := buildOptions(options); err != nil {
		return nil, err
	} else if target, err := lookupTarget(o.Target); err != nil {
		return nil, err
	} else {
		return coalesce(fn, target, o)
	}
}

// CoalesceAll coalesces many functions in parallel. Results are in the same
// order as fns, and the first error stops nothing but is the one returned.
func CoalesceAll(ctx context.Context, fns []*ir.Function, options ...Option) ([]*Result, error) {
	o, err := buildOptions(options)
	if err != nil {
		return nil, err
	}

	/* find the target */
	target, err := lookupTarget(o.Target)
	if err != nil {
		return nil, err
	}

	/* size the worker pool */
	nw := o.Workers
	if nw == 0 {
		nw = runtime.GOMAXPROCS(0)
	}

	/* dispatch every function */
	wg := new(sync.WaitGroup)
	ret := make([]*Result, len(fns))
	errs := make([]error, len(fns))
	pool := gopool.NewPool("cssa", int32(nw), gopool.NewConfig())

	/* each function gets its own context from the pool */
	for i, fn := range fns {
		i, fn := i, fn
		wg.Add(1)
		pool.CtxGo(ctx, func() {
			defer wg.Done()
			if errs[i] = ctx.Err(); errs[i] == nil {
				ret[i], errs[i] = coalesce(fn, target, o)
			}
		})
	}

	/* wait for all of them */
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}

	/* all done */
	return ret, nil
}

func lookupTarget(name string) (isa.TargetISA, error) {
	if target, err := isa.Lookup(name); err != nil {
		return nil, &OptionError { Name: "Target", Value: name }
	} else {
		return target, nil
	}
}

func coalesce(fn *ir.Function, target isa.TargetISA, o opts.Options) (ret *Result, err error) {
	ctx := contextPool.Get().(*regalloc.Context)

	/* invariant violations are reported as errors */
	defer func() {
		if v := recover(); v != nil {
			ret, err = nil, newCompileError(fn, v)
		} else {
			contextPool.Put(ctx)
		}
	}()

	/* run all the passes */
	ret = ctx.Run(fn, target, o)
	return
}

func newCompileError(fn *ir.Function, v interface{}) *CompileError {
	switch e := v.(type) {
		case error  : return &CompileError { Func: fn.Name, Reason: e.Error(), Cause: e }
		case string : return &CompileError { Func: fn.Name, Reason: e }
		default     : return &CompileError { Func: fn.Name, Reason: fmt.Sprint(e) }
	}
}
