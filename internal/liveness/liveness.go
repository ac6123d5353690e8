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

package liveness

import (
	`fmt`

	`github.com/cloudwego/cssa/internal/isa`
	`github.com/cloudwego/cssa/ir`
)

// Liveness keeps one live range for every value of a function. Ranges are
// computed once, then updated incrementally as copies are inserted.
type Liveness struct {
	ranges []*LiveRange
	blocks []ir.Block
	reach  []bool
}

func New() *Liveness {
	return new(Liveness)
}

func (self *Liveness) Clear() {
	for i := range self.ranges {
		self.ranges[i] = nil
	}
	self.ranges = self.ranges[:0]
	self.blocks = self.blocks[:0]
	self.reach = self.reach[:0]
}

func (self *Liveness) grow(v ir.Value) {
	for int(v) >= len(self.ranges) {
		self.ranges = append(self.ranges, nil)
	}
}

// Get returns the live range of v, or nil if v has none.
func (self *Liveness) Get(v ir.Value) *LiveRange {
	if int(v) >= len(self.ranges) {
		return nil
	} else {
		return self.ranges[v]
	}
}

func (self *Liveness) mustGet(v ir.Value) *LiveRange {
	if lr := self.Get(v); lr == nil {
		panic(fmt.Sprintf("liveness: %s has no live range", v))
	} else {
		return lr
	}
}

func (self *Liveness) define(v ir.Value, def ir.ProgramPoint, bb ir.Block, aff Affinity) *LiveRange {
	self.grow(v)
	lr := newLiveRange(v, def, bb, aff)
	self.ranges[v] = lr
	return lr
}

// Compute rebuilds the live ranges of every value in the reachable part of
// fn. Entry block parameters take their affinity from the signature, which
// must already be legalized.
func (self *Liveness) Compute(target isa.TargetISA, fn *ir.Function, cfg *ir.ControlFlowGraph) {
	self.Clear()
	entry := fn.Layout.EntryBlock()
	blocks := cfg.PostOrder()

	/* mark the reachable blocks */
	for i := 0; i < fn.NumBlocks(); i++ {
		self.reach = append(self.reach, false)
	}
	for _, bb := range blocks {
		self.reach[bb] = true
	}

	/* define all the values */
	for _, bb := range blocks {
		for i, v := range fn.BlockParams(bb) {
			rc := target.RegClassOf(fn.ValueType(v))
			aff := RegAffinity(rc)

			/* function arguments follow the calling convention */
			if bb == entry && i < len(fn.Signature.Params) {
				aff = AffinityOfArg(fn.Signature.Params[i].Location, rc)
			}

			/* define the parameter at block header */
			self.define(v, ir.PointAtBlock(bb), bb, aff)
		}

		/* instruction results */
		for _, ins := range fn.Layout.BlockInsts(bb) {
			for _, v := range fn.InstData(ins).Results {
				self.define(v, ir.PointAtInst(ins), bb, RegAffinity(target.RegClassOf(fn.ValueType(v))))
			}
		}
	}

	/* extend to every use */
	for _, bb := range blocks {
		for _, ins := range fn.Layout.BlockInsts(bb) {
			fn.InstData(ins).Uses(func(v ir.Value) {
				self.extendToUse(self.mustGet(v), bb, ins, fn, cfg)
			})
		}
	}
}

func (self *Liveness) extendToUse(lr *LiveRange, bb ir.Block, user ir.Inst, fn *ir.Function, cfg *ir.ControlFlowGraph) {
	if !lr.extendInBlock(bb, user, &fn.Layout) {
		return
	}

	/* the value became live-in, propagate to the predecessors */
	self.blocks = append(self.blocks[:0], bb)
	for len(self.blocks) != 0 {
		nb := len(self.blocks) - 1
		bb = self.blocks[nb]
		self.blocks = self.blocks[:nb]

		/* live-in means live-out of every predecessor */
		for _, p := range cfg.Predecessors(bb) {
			if self.reach[p.Block] && lr.extendInBlock(p.Block, p.Inst, &fn.Layout) {
				self.blocks = append(self.blocks, p.Block)
			}
		}
	}
}

// CreateDead creates a range for a new value defined at def, with no uses.
func (self *Liveness) CreateDead(v ir.Value, def ir.ProgramPoint, aff Affinity, layout *ir.Layout) *LiveRange {
	if self.Get(v) != nil {
		panic(fmt.Sprintf("liveness: %s already has a live range", v))
	} else {
		return self.define(v, def, layout.PointBlock(def), aff)
	}
}

// ExtendLocally extends the range of v to user, an instruction in bb. The
// value must already be live in bb, either by definition or as a live-in.
func (self *Liveness) ExtendLocally(v ir.Value, bb ir.Block, user ir.Inst, layout *ir.Layout) {
	lr := self.mustGet(v)

	/* the block must already be covered */
	if bb != lr.block && !lr.IsLiveIn(bb) {
		panic(fmt.Sprintf("liveness: %s is not live in %s", v, bb))
	}

	/* extend within the block */
	lr.extendInBlock(bb, user, layout)
}

// MoveDefLocally moves the definition of v to another point in the same
// block.
func (self *Liveness) MoveDefLocally(v ir.Value, def ir.ProgramPoint, layout *ir.Layout) {
	lr := self.mustGet(v)

	/* must stay in the same block */
	if bb := layout.PointBlock(def); bb != lr.block {
		panic(fmt.Sprintf("liveness: cannot move %s from %s to %s", v, lr.block, bb))
	}

	/* move the definition */
	lr.moveDef(def, layout)
}
