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
	`fmt`

	`github.com/sirupsen/logrus`

	`github.com/cloudwego/cssa/internal/isa`
	`github.com/cloudwego/cssa/internal/liveness`
	`github.com/cloudwego/cssa/ir`
)

// Coalescing converts a function into conventional SSA form, where every
// block parameter can share one register with all of its incoming arguments.
//
// The first phase unions parameters with their arguments, isolating the
// obvious conflicts with copies. The second phase checks every resulting
// virtual register for interference with a dominator forest walk, and splits
// the ones that interfere by inserting more copies.
type Coalescing struct {
	MaxRounds int
	Log       *logrus.Entry
	preorder  *ir.DominatorTreePreorder
	forest    DomForest
	worklist  []VirtReg
	params    []ir.Value
	dropped   map[ir.Value]struct{}
	stats     Stats
}

func NewCoalescing() *Coalescing {
	return &Coalescing {
		preorder : ir.NewDominatorTreePreorder(),
		dropped  : make(map[ir.Value]struct{}),
	}
}

func (self *Coalescing) Clear() {
	self.forest.Clear()
	self.preorder.Clear()
	self.stats = Stats{}
	self.params = self.params[:0]
	self.worklist = self.worklist[:0]
	self.clearDropped()
}

func (self *Coalescing) clearDropped() {
	for v := range self.dropped {
		delete(self.dropped, v)
	}
}

// Stats returns the statistics of the last run.
func (self *Coalescing) Stats() Stats {
	return self.stats
}

type _Context struct {
	*Coalescing
	isa      isa.TargetISA
	fn       *ir.Function
	cfg      *ir.ControlFlowGraph
	domtree  *ir.DominatorTree
	liveness *liveness.Liveness
	virtregs *VirtRegs
	layout   *ir.Layout
}

// ConventionalSSA coalesces the block parameters of fn. The CFG, dominator
// tree and live ranges must be up to date. Copies are inserted into fn as
// needed, with their live ranges added to live, and the control flow is left
// alone. The resulting partition is left in virtregs.
func (self *Coalescing) ConventionalSSA(
	target   isa.TargetISA,
	fn       *ir.Function,
	cfg      *ir.ControlFlowGraph,
	domtree  *ir.DominatorTree,
	live     *liveness.Liveness,
	virtregs *VirtRegs,
) {
	ctx := &_Context {
		Coalescing : self,
		isa        : target,
		fn         : fn,
		cfg        : cfg,
		domtree    : domtree,
		liveness   : live,
		virtregs   : virtregs,
		layout     : &fn.Layout,
	}

	/* reset the scratch state */
	self.Clear()
	self.preorder.Compute(domtree)

	/* Phase 1: union parameters with their arguments */
	ctx.unionFindBlocks()
	virtregs.FinishUnionFind(nil)
	ctx.dumpVirtRegs("after union-find")

	/* Phase 2: break the interferences inside every virtual register */
	ctx.processVirtRegs()
	ctx.dumpVirtRegs("after coalescing")

	/* update the statistics */
	self.stats.Unions = virtregs.Unions()
	self.stats.VirtRegs = virtregs.Len()
}

func (self *_Context) debugf(format string, args ...interface{}) {
	if self.Log != nil {
		self.Log.Debugf(format, args...)
	}
}

func (self *_Context) dumpVirtRegs(stage string) {
	if self.Log != nil && self.Log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		self.Log.Debugf("virtual registers %s:\n%s", stage, self.virtregs)
	}
}

func (self *_Context) isReachable(bb ir.Block) bool {
	return self.domtree.IsReachable(bb)
}

func (self *_Context) unionFindBlocks() {
	for _, bb := range self.cfg.PostOrder() {
		if np := len(self.fn.BlockParams(bb)); np != 0 {
			self.isolateConflictingParams(bb)
			for i := 0; i < np; i++ {
				self.unionPredArgs(bb, i)
			}
		}
	}
}

// isolateConflictingParams looks for parameters that are still live when a
// back edge passes new values to them. Such a parameter would need to hold
// its old and new value at the same time, so it is moved into a copy at the
// top of the block, and a fresh parameter takes its slot.
func (self *_Context) isolateConflictingParams(bb ir.Block) {
	for _, pred := range self.cfg.Predecessors(bb) {
		if !self.isReachable(pred.Block) || !self.domtree.Dominates(bb, pred.Block) {
			continue
		}

		/* the parameter list changes as we isolate */
		for i := range self.fn.BlockParams(bb) {
			if p := self.fn.BlockParams(bb)[i]; self.liveness.Get(p).ReachesUse(pred.Inst, pred.Block, self.layout) {
				self.isolateParam(bb, p)
			}
		}
	}
}

func (self *_Context) unionPredArgs(bb ir.Block, argnum int) {
	param := self.fn.BlockParams(bb)[argnum]
	for _, pred := range self.cfg.Predecessors(bb) {
		if self.isReachable(pred.Block) {
			self.unionPredArg(bb, param, argnum, pred)
		}
	}
}

func (self *_Context) unionPredArg(bb ir.Block, param ir.Value, argnum int, pred ir.BlockPredecessor) {
	arg := self.fn.BranchArgs(pred.Inst)[argnum]

	/* function arguments on the stack cannot share a register with anything */
	if loc, ok := self.fn.EntryParamLocation(arg); ok && loc.IsStack() {
		self.debugf("%s is passed on stack, isolating", arg)
		self.stats.PinnedCopies++
		self.virtregs.Union(param, self.isolateArg(pred, argnum, arg))
		return
	}

	/* parameters of this block must have been isolated by now */
	if def := self.fn.ValueDef(arg); def.Kind == ir.ValueParam && def.Block == bb {
		panic(fmt.Sprintf("regalloc: %s was not isolated from the back edge %s", arg, pred.Inst))
	}

	/* the argument is live-in to the block, which conflicts with the parameter */
	if self.liveness.Get(arg).IsLiveIn(bb) {
		self.debugf("%s is live-in to %s, isolating", arg, bb)
		self.stats.ArgCopies++
		self.virtregs.Union(param, self.isolateArg(pred, argnum, arg))
		return
	}

	/* no obvious conflict */
	self.virtregs.Union(param, arg)
}

func (self *_Context) copyEncoding(ins ir.Inst, ty ir.Type) *isa.RecipeConstraints {
	enc, ok := self.isa.EncodeCopy(ty)
	if !ok {
		panic(fmt.Sprintf("regalloc: cannot encode copy of %s on %s", ty, self.isa.Name()))
	}

	/* look up the operand constraints */
	rc, ok := self.isa.OperandConstraints(enc)
	if !ok || len(rc.Ins) != 1 || len(rc.Outs) != 1 {
		panic(fmt.Sprintf("regalloc: bad copy encoding %s on %s", enc, self.isa.Name()))
	}

	/* all done */
	self.fn.Encodings[ins] = enc
	return rc
}

// isolateParam replaces param with a fresh parameter, and redefines param
// as a copy of it at the top of the block. Returns the fresh parameter.
func (self *_Context) isolateParam(bb ir.Block, param ir.Value) ir.Value {
	if def := self.fn.ValueDef(param); def.Kind != ir.ValueParam || def.Block != bb {
		panic(fmt.Sprintf("regalloc: %s is not a parameter of %s", param, bb))
	}

	/* param = copy new */
	np := self.fn.ReplaceBlockParam(param)
	ins := self.fn.InsertCopyAtTop(bb, param, np)
	rc := self.copyEncoding(ins, self.fn.ValueType(param))

	/* param now starts at the copy, and the new one dies there */
	self.liveness.MoveDefLocally(param, ir.PointAtInst(ins), self.layout)
	self.liveness.CreateDead(np, ir.PointAtBlock(bb), liveness.AffinityOf(rc.Ins[0]), self.layout)
	self.liveness.ExtendLocally(np, bb, ins, self.layout)

	/* all done */
	self.stats.ParamCopies++
	self.debugf("isolated %s in %s as %s = %s", param, bb, param, self.fn.FormatInst(ins))
	return np
}

// isolateArg inserts a copy of arg right before the branch, and passes the
// copy instead. Returns the copy. When the block ends with more than one
// branch, the copy sits after the earlier ones and only feeds this edge.
func (self *_Context) isolateArg(pred ir.BlockPredecessor, argnum int, arg ir.Value) ir.Value {
	ins, cv := self.fn.InsertCopyBefore(pred.Inst, arg)
	rc := self.copyEncoding(ins, self.fn.ValueType(arg))

	/* the copy lives until the branch */
	self.liveness.CreateDead(cv, ir.PointAtInst(ins), liveness.AffinityOf(rc.Outs[0]), self.layout)
	self.liveness.ExtendLocally(cv, pred.Block, pred.Inst, self.layout)

	/* pass the copy instead */
	self.fn.BranchArgs(pred.Inst)[argnum] = cv
	self.debugf("isolated %s in %s as %s", arg, pred.Block, self.fn.FormatInst(ins))
	return cv
}

func (self *_Context) defLess(a ir.Value, b ir.Value) bool {
	da := self.fn.ValueDef(a)
	db := self.fn.ValueDef(b)

	/* dominator tree pre-order, then layout order */
	if ret := self.preorder.PreCmp(da.Point(), db.Point(), self.layout); ret != 0 {
		return ret < 0
	}

	/* parameters of the same block, or results of the same instruction */
	if da.Num != db.Num {
		return da.Num < db.Num
	} else {
		return a < b
	}
}

func (self *_Context) processVirtRegs() {
	self.worklist = append(self.worklist[:0], self.virtregs.AllVirtRegs()...)

	/* keep going until no virtual register needs rework */
	for len(self.worklist) != 0 {
		nb := len(self.worklist) - 1
		vreg := self.worklist[nb]
		self.worklist = self.worklist[:nb]

		/* check for interference */
		if !self.analyze(vreg) {
			continue
		}

		/* guard against runaway re-synthesis */
		if self.MaxRounds > 0 && self.stats.Rounds >= self.MaxRounds {
			panic(fmt.Sprintf("regalloc: %s still interferes after %d rounds of re-synthesis", vreg, self.stats.Rounds))
		}

		/* rebuild the register */
		self.stats.Rounds++
		self.synthesize(vreg)
	}
}

func (self *_Context) isDropped(v ir.Value) bool {
	_, ok := self.dropped[v]
	return ok
}

// analyze walks the members of vreg in dominator order. Whenever a member
// is still live at the definition of a member it dominates, the dominating
// one is marked as dropped. Returns true if vreg has to be rebuilt.
func (self *_Context) analyze(vreg VirtReg) bool {
	vals := self.virtregs.SortValues(vreg, self.defLess)
	self.forest.Clear()
	self.clearDropped()
	self.params = self.params[:0]

	/* push every member to the forest */
	for _, v := range vals {
		def := self.fn.ValueDef(v)
		node := DomNode { Value: v, Def: def.Point(), Block: self.fn.DefBlock(v) }

		/* parameters are needed to rebuild the register */
		if def.Kind == ir.ValueParam {
			self.params = append(self.params, v)
		}

		/* find the nearest dominating member */
		parent, ok := self.forest.Push(node, self.layout, self.domtree, self.preorder)
		if !ok {
			continue
		}

		/* the dominating member must have ended before this definition */
		if !self.liveness.Get(parent.Value).OverlapsDef(node.Def, node.Block, self.layout) {
			continue
		}

		/* drop the dominating one, later members look past it */
		if parent.Value == v || !self.forest.Remove(parent.Value) {
			panic(fmt.Sprintf("regalloc: %s is not on the dominator forest stack", parent))
		}

		/* a popped node is never found again */
		self.dropped[parent.Value] = struct{}{}
		self.debugf("%s: %s interferes with %s, dropping %s", vreg, parent, node, parent.Value)
	}

	/* rebuild only when some of the members can stay */
	nd := len(self.dropped)
	self.stats.Dropped += nd
	return nd != 0 && nd < len(vals)
}

// synthesize dissolves vreg and unions its parameters with their arguments
// again, but every pair involving a dropped value gets a copy this time. The
// resulting registers are pushed to the worklist.
func (self *_Context) synthesize(vreg VirtReg) {
	self.virtregs.Remove(vreg)
	self.debugf("re-synthesizing %s with %d parameters and %d dropped values", vreg, len(self.params), len(self.dropped))

	/* union every parameter with its arguments */
	for _, p := range self.params {
		def := self.fn.ValueDef(p)
		preds := self.cfg.Predecessors(def.Block)

		/* rebuild every incoming edge */
		for _, pred := range preds {
			if !self.isReachable(pred.Block) {
				continue
			}

			/* isolate the dropped values */
			if arg := self.fn.BranchArgs(pred.Inst)[def.Num]; self.isDropped(p) || self.isDropped(arg) {
				self.stats.SynthesisCopies++
				self.virtregs.Union(p, self.isolateArg(pred, def.Num, arg))
			} else {
				self.unionPredArg(def.Block, p, def.Num, pred)
			}
		}
	}

	/* the new registers need to be checked again */
	self.virtregs.FinishUnionFind(&self.worklist)
}
