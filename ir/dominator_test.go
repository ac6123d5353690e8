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

package ir

import (
	`fmt`
	`strings`
	`testing`

	`github.com/brianvoe/gofakeit/v6`
	`github.com/oleiade/lane`
	`github.com/stretchr/testify/require`
	`gonum.org/v1/gonum/graph/flow`
	`gonum.org/v1/gonum/graph/simple`
)

func cfgdot(fn *Function, cfg *ControlFlowGraph, dt *DominatorTree) string {
	q := lane.NewQueue()
	n := make(map[Block]bool)
	buf := []string {
		"digraph CFG {",
		`    node [ shape = "box" ]`,
		fmt.Sprintf(`    START -> %s`, fn.Layout.EntryBlock()),
	}

	/* breadth-first walk from the entry block */
	n[fn.Layout.EntryBlock()] = true
	for q.Enqueue(fn.Layout.EntryBlock()); !q.Empty(); {
		p := q.Dequeue().(Block)
		buf = append(buf, fmt.Sprintf(`    %s [ label = "%s\nidom = %s" ]`, p, p, dt.Idom(p)))

		/* add the edges */
		for _, ln := range cfg.Successors(p) {
			buf = append(buf, fmt.Sprintf(`    %s -> %s`, p, ln))
			if !n[ln] {
				n[ln] = true
				q.Enqueue(ln)
			}
		}
	}

	/* all done */
	buf = append(buf, "}")
	return strings.Join(buf, "\n")
}

func randomCFG(fk *gofakeit.Faker) *Function {
	fn := NewFunction("random", Sig(nil))
	bd := NewBuilder(fn)
	nb := fk.Number(2, 24)
	bd.CreateEntryBlock()

	/* create all the blocks */
	for i := 1; i < nb; i++ {
		bd.CreateBlock()
	}

	/* terminate each block with a random shape */
	for i := 0; i < nb; i++ {
		bd.SwitchToBlock(Block(i))
		switch fk.Number(0, 5) {
			case 0: {
				bd.Return()
			}
			case 1, 2: {
				bd.Jump(Block(fk.Number(0, nb - 1)))
			}
			default: {
				cc := bd.Iconst(I32, 0)
				bd.Brz(cc, Block(fk.Number(0, nb - 1)))
				bd.Jump(Block(fk.Number(0, nb - 1)))
			}
		}
	}

	/* all done */
	return fn
}

func oracle(fn *Function, cfg *ControlFlowGraph) flow.DominatorTree {
	g := simple.NewDirectedGraph()
	for i := 0; i < fn.NumBlocks(); i++ {
		g.AddNode(simple.Node(i))
	}

	/* self loops never affect dominance */
	for i := 0; i < fn.NumBlocks(); i++ {
		for _, s := range cfg.Successors(Block(i)) {
			if int(s) != i {
				g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(s)))
			}
		}
	}

	/* compute the reference tree */
	return flow.Dominators(g.Node(int64(fn.Layout.EntryBlock())), g)
}

func TestDominatorTree_Diamond(t *testing.T) {
	fn := buildSum()
	SplitBranchArgs(fn)
	cfg := NewControlFlowGraph()
	cfg.Compute(fn)
	dt := ComputeDominatorTree(fn, cfg)
	t.Log("\n" + cfgdot(fn, cfg, dt))

	/* blk0 immediately dominates everything */
	require.Equal(t, BlockInvalid, dt.Idom(0))
	require.Equal(t, Block(0), dt.Idom(1))
	require.Equal(t, Block(0), dt.Idom(2))
	require.Equal(t, Block(0), dt.Idom(3))
	require.True(t, dt.Dominates(0, 1))
	require.True(t, dt.Dominates(1, 1))
	require.False(t, dt.Dominates(2, 1))

	/* both arms precede the merge block in the predecessor list */
	preds := cfg.Predecessors(1)
	require.Len(t, preds, 2)
	require.Equal(t, Block(2), preds[0].Block)
	require.Equal(t, Block(3), preds[1].Block)
	require.Equal(t, Block(0), cfg.PostOrder()[len(cfg.PostOrder()) - 1])
}

func TestDominatorTree_PointDominance(t *testing.T) {
	fn := buildSum()
	cfg := NewControlFlowGraph()
	cfg.Compute(fn)
	dt := ComputeDominatorTree(fn, cfg)
	ins := fn.Layout.BlockInsts(0)

	/* same block compares by position, other blocks by tree */
	require.True(t, dt.DominatesPoint(PointAtBlock(0), PointAtInst(ins[0]), &fn.Layout))
	require.True(t, dt.DominatesPoint(PointAtInst(ins[0]), PointAtInst(ins[0]), &fn.Layout))
	require.False(t, dt.DominatesPoint(PointAtInst(ins[1]), PointAtInst(ins[0]), &fn.Layout))
	require.True(t, dt.DominatesPoint(PointAtInst(ins[0]), PointAtBlock(1), &fn.Layout))
	require.False(t, dt.DominatesPoint(PointAtBlock(1), PointAtInst(ins[0]), &fn.Layout))
}

func TestDominatorTree_Random(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		fk := gofakeit.New(seed)
		fn := randomCFG(fk)
		cfg := NewControlFlowGraph()
		cfg.Compute(fn)
		dt := ComputeDominatorTree(fn, cfg)
		ref := oracle(fn, cfg)
		pre := NewDominatorTreePreorder()
		pre.Compute(dt)

		/* reachable blocks are exactly those in the post-order */
		reach := make(map[Block]bool)
		for _, bb := range cfg.PostOrder() {
			reach[bb] = true
		}

		/* compare the immediate dominators with the reference */
		for i := 0; i < fn.NumBlocks(); i++ {
			bb := Block(i)
			require.Equal(t, reach[bb], dt.IsReachable(bb), "seed %d, %s", seed, bb)

			/* skip the root and unreachable blocks */
			if !reach[bb] || bb == dt.Root() {
				continue
			}

			/* the reference must agree */
			id := ref.DominatorOf(int64(bb))
			require.NotNil(t, id, "seed %d, %s", seed, bb)
			require.Equal(t, Block(id.ID()), dt.Idom(bb), "seed %d, %s\n%s", seed, bb, cfgdot(fn, cfg, dt))
		}

		/* the pre-order numbering agrees with the tree walk */
		for _, a := range cfg.PostOrder() {
			for _, b := range cfg.PostOrder() {
				require.Equal(t, dt.Dominates(a, b), pre.Dominates(a, b), "seed %d, %s, %s", seed, a, b)
				if pre.Dominates(a, b) && a != b {
					require.Equal(t, -1, pre.PreCmpBlock(a, b))
				}
			}
		}
	}
}
