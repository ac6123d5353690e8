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

package regalloc

import (
	`github.com/sirupsen/logrus`

	`github.com/cloudwego/cssa/internal/isa`
	`github.com/cloudwego/cssa/internal/liveness`
	`github.com/cloudwego/cssa/internal/opts`
	`github.com/cloudwego/cssa/ir`
)

// Context holds the analyses of the function being coalesced. It can be
// reused for many functions, but not concurrently.
type Context struct {
	Func       *ir.Function
	ISA        isa.TargetISA
	Options    opts.Options
	CFG        *ir.ControlFlowGraph
	DomTree    *ir.DominatorTree
	Liveness   *liveness.Liveness
	VirtRegs   *VirtRegs
	Coalescing *Coalescing
	Log        *logrus.Entry
}

func NewContext() *Context {
	return &Context {
		CFG        : ir.NewControlFlowGraph(),
		Liveness   : liveness.New(),
		VirtRegs   : NewVirtRegs(),
		Coalescing : NewCoalescing(),
	}
}

// Result is the register partition of a coalesced function.
type Result struct {
	Func      *ir.Function
	Registers [][]ir.Value
	Stats     Stats
	vreg      map[ir.Value]int
}

// RegisterOf returns the index of the register holding v in Registers, or
// -1 if v shares its register with nothing.
func (self *Result) RegisterOf(v ir.Value) int {
	if id, ok := self.vreg[v]; ok {
		return id
	} else {
		return -1
	}
}

func (self *Context) result() *Result {
	ret := &Result {
		Func  : self.Func,
		Stats : self.Coalescing.Stats(),
		vreg  : make(map[ir.Value]int),
	}

	/* copy out of the reusable scratch space */
	for _, id := range self.VirtRegs.AllVirtRegs() {
		vals := append([]ir.Value(nil), self.VirtRegs.Values(id)...)
		for _, v := range vals {
			ret.vreg[v] = len(ret.Registers)
		}
		ret.Registers = append(ret.Registers, vals)
	}

	/* all done */
	return ret
}

// Run applies every pass to fn in order, and returns the resulting
// partition. Invariant violations panic.
func (self *Context) Run(fn *ir.Function, target isa.TargetISA, options opts.Options) *Result {
	self.Func = fn
	self.ISA = target
	self.Options = options
	self.VirtRegs.Clear()

	/* prepare the logger */
	if options.Logger == nil {
		self.Log = opts.DefaultLogger().WithField("func", fn.Name)
	} else {
		self.Log = options.Logger.WithField("func", fn.Name)
	}

	/* execute all the passes */
	for _, p := range Passes {
		self.Log.Debugf("running pass: %s", p.Name)
		p.Pass.Apply(self)
	}

	/* record the process-wide counters */
	ret := self.result()
	ret.Stats.record()
	self.Log.Debugf("coalesced: %s", ret.Stats)
	return ret
}
