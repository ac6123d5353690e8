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
	`testing`

	`github.com/stretchr/testify/require`

	`github.com/cloudwego/cssa/internal/isa`
	`github.com/cloudwego/cssa/internal/isa/amd64`
	`github.com/cloudwego/cssa/ir`
)

type loopFunc struct {
	fn     *ir.Function
	cfg    *ir.ControlFlowGraph
	entry  ir.Block
	head   ir.Block
	latch  ir.Block
	exit   ir.Block
	arg    ir.Value
	one    ir.Value
	dead   ir.Value
	param  ir.Value
	sum    ir.Value
	add    ir.Inst
	brz    ir.Inst
	toward ir.Inst
	back   ir.Inst
	ret    ir.Inst
}

// blk0(arg):            one = iconst 1; dead = iconst 2; jump blk1(arg)
// blk1(param):          sum = iadd param, one; brz sum, blk3; jump blk2
// blk2:                 jump blk1(sum)
// blk3:                 return param
func buildLoop() *loopFunc {
	ret := new(loopFunc)
	sig := ir.Sig([]ir.Type { ir.I64 }, ir.I64)
	sig.Params[0].Location = ir.StackArg(0)
	ret.fn = ir.NewFunction("loop", sig)
	bd := ir.NewBuilder(ret.fn)

	/* create the blocks */
	entry, args := bd.CreateEntryBlock()
	ret.entry, ret.arg = entry, args[0]
	ret.head = bd.CreateBlock()
	ret.latch = bd.CreateBlock()
	ret.exit = bd.CreateBlock()
	ret.param = bd.AppendBlockParam(ret.head, ir.I64)

	/* entry block */
	ret.one = bd.Iconst(ir.I64, 1)
	ret.dead = bd.Iconst(ir.I64, 2)
	bd.Jump(ret.head, ret.arg)

	/* loop header */
	bd.SwitchToBlock(ret.head)
	ret.sum = bd.Iadd(ret.param, ret.one)
	ret.add = ret.fn.ValueDef(ret.sum).Inst
	ret.brz = bd.Brz(ret.sum, ret.exit)
	ret.toward = bd.Jump(ret.latch)

	/* loop latch */
	bd.SwitchToBlock(ret.latch)
	ret.back = bd.Jump(ret.head, ret.sum)

	/* loop exit */
	bd.SwitchToBlock(ret.exit)
	ret.ret = bd.Return(ret.param)

	/* compute the CFG */
	ret.cfg = ir.NewControlFlowGraph()
	ret.cfg.Compute(ret.fn)
	return ret
}

func computeLoop(t *testing.T) (*loopFunc, *Liveness) {
	lf := buildLoop()
	lv := New()
	lv.Compute(amd64.NewWithFeatures(false), lf.fn, lf.cfg)
	t.Log("\n" + lf.fn.String())
	return lf, lv
}

func TestLiveness_Compute(t *testing.T) {
	lf, lv := computeLoop(t)
	layout := &lf.fn.Layout

	/* the constant is live around the whole loop */
	one := lv.Get(lf.one)
	require.Equal(t, lf.entry, one.DefBlock())
	require.Equal(t, ir.PointAtInst(lf.fn.Layout.LastInst(lf.entry)), one.DefLocalEnd())
	require.True(t, one.IsLiveIn(lf.head))
	require.True(t, one.IsLiveIn(lf.latch))
	require.False(t, one.IsLiveIn(lf.exit))
	end, ok := one.LiveInLocalEnd(lf.head)
	require.True(t, ok)
	require.Equal(t, lf.toward, end)
	require.True(t, one.OverlapsDef(ir.PointAtBlock(lf.head), lf.head, layout))
	require.True(t, one.OverlapsDef(ir.PointAtInst(lf.add), lf.head, layout))
	t.Log(one)

	/* the argument dies at the entry jump */
	arg := lv.Get(lf.arg)
	require.True(t, arg.IsLocal())
	require.False(t, arg.OverlapsDef(ir.PointAtBlock(lf.head), lf.head, layout))
	require.True(t, arg.Affinity.IsStack())

	/* the loop parameter reaches the exit but not the latch */
	param := lv.Get(lf.param)
	require.Equal(t, ir.PointAtInst(lf.brz), param.DefLocalEnd())
	require.True(t, param.IsLiveIn(lf.exit))
	require.False(t, param.IsLiveIn(lf.latch))
	require.True(t, param.ReachesUse(lf.add, lf.head, layout))
	require.True(t, param.ReachesUse(lf.ret, lf.exit, layout))
	require.False(t, param.ReachesUse(lf.back, lf.latch, layout))
	require.False(t, param.ReachesUse(lf.toward, lf.head, layout))

	/* two definitions at the same point overlap */
	sum := lv.Get(lf.sum)
	require.True(t, sum.OverlapsDef(ir.PointAtInst(lf.add), lf.head, layout))
	require.True(t, sum.IsLiveIn(lf.latch))
	require.Equal(t, ir.PointAtInst(lf.toward), sum.DefLocalEnd())
	require.Equal(t, RegAffinity(isa.GPR), sum.Affinity)

	/* unused values are dead */
	require.True(t, lv.Get(lf.dead).IsDead())
	require.False(t, sum.IsDead())
}

func TestLiveness_InsertCopy(t *testing.T) {
	lf, lv := computeLoop(t)
	layout := &lf.fn.Layout

	/* copy the back edge argument */
	ins, cv := lf.fn.InsertCopyBefore(lf.back, lf.sum)
	lr := lv.CreateDead(cv, ir.PointAtInst(ins), RegAffinity(isa.GPR), layout)
	require.True(t, lr.IsDead())
	lv.ExtendLocally(cv, lf.latch, lf.back, layout)
	require.Equal(t, ir.PointAtInst(lf.back), lr.DefLocalEnd())
	require.True(t, lr.IsLocal())
	require.False(t, lr.IsDead())
	require.True(t, lr.ReachesUse(lf.back, lf.latch, layout))

	/* extending into another block is not local */
	require.Panics(t, func() { lv.ExtendLocally(cv, lf.head, lf.brz, layout) })
	require.Panics(t, func() { lv.CreateDead(cv, ir.PointAtInst(ins), Affinity{}, layout) })
}

func TestLiveness_MoveDef(t *testing.T) {
	lf, lv := computeLoop(t)
	layout := &lf.fn.Layout

	/* isolate the loop parameter with a copy at the top */
	np := lf.fn.ReplaceBlockParam(lf.param)
	ins := lf.fn.InsertCopyAtTop(lf.head, lf.param, np)
	lv.MoveDefLocally(lf.param, ir.PointAtInst(ins), layout)
	lv.CreateDead(np, ir.PointAtBlock(lf.head), RegAffinity(isa.GPR), layout)
	lv.ExtendLocally(np, lf.head, ins, layout)

	/* the old parameter now starts at the copy */
	old := lv.Get(lf.param)
	require.Equal(t, ir.PointAtInst(ins), old.Def())
	require.Equal(t, ir.PointAtInst(lf.brz), old.DefLocalEnd())
	require.False(t, old.OverlapsDef(ir.PointAtBlock(lf.head), lf.head, layout))

	/* the new parameter dies at the copy */
	lr := lv.Get(np)
	require.True(t, lr.OverlapsDef(ir.PointAtBlock(lf.head), lf.head, layout))
	require.False(t, lr.OverlapsDef(ir.PointAtInst(ins), lf.head, layout))
	require.False(t, lr.OverlapsDef(ir.PointAtInst(lf.add), lf.head, layout))

	/* moving to another block is not allowed */
	require.Panics(t, func() { lv.MoveDefLocally(lf.param, ir.PointAtInst(lf.back), layout) })
}
