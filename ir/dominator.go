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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071
 */

package ir

type _LtNode struct {
	semi     int
	node     Block
	dom      *_LtNode
	label    *_LtNode
	parent   *_LtNode
	ancestor *_LtNode
	pred     []*_LtNode
	bucket   []*_LtNode
}

type _LengauerTarjan struct {
	cfg    *ControlFlowGraph
	nodes  []*_LtNode
	vertex []int
}

func newLengauerTarjan(cfg *ControlFlowGraph, nb int) *_LengauerTarjan {
	ret := &_LengauerTarjan {
		cfg    : cfg,
		vertex : make([]int, nb),
	}

	/* -1 means not visited */
	for i := range ret.vertex {
		ret.vertex[i] = -1
	}

	/* all done */
	return ret
}

func (self *_LengauerTarjan) dfs(bb Block) {
	i := len(self.nodes)
	self.vertex[bb] = i

	/* create a new node */
	p := &_LtNode {
		semi : i,
		node : bb,
	}

	/* add to node list */
	p.label = p
	self.nodes = append(self.nodes, p)

	/* traverse the successors */
	for _, w := range self.cfg.Successors(bb) {
		idx := self.vertex[w]

		/* not visited yet */
		if idx < 0 {
			self.dfs(w)
			idx = self.vertex[w]
			self.nodes[idx].parent = p
		}

		/* add predecessors */
		q := self.nodes[idx]
		q.pred = append(q.pred, p)
	}
}

func (self *_LengauerTarjan) eval(p *_LtNode) *_LtNode {
	if p.ancestor == nil {
		return p
	} else {
		self.compress(p)
		return p.label
	}
}

func (self *_LengauerTarjan) link(p *_LtNode, q *_LtNode) {
	q.ancestor = p
}

func (self *_LengauerTarjan) compress(p *_LtNode) {
	if p.ancestor.ancestor != nil {
		self.compress(p.ancestor)
		if p.label.semi > p.ancestor.label.semi { p.label = p.ancestor.label }
		p.ancestor = p.ancestor.ancestor
	}
}

func minInt(a int, b int) int {
	if a < b {
		return a
	} else {
		return b
	}
}

// DominatorTree holds the immediate dominator of every reachable block.
type DominatorTree struct {
	root     Block
	idom     []Block
	depth    []int
	children [][]Block
}

func (self *DominatorTree) Root() Block {
	return self.root
}

func (self *DominatorTree) IsReachable(bb Block) bool {
	return int(bb) < len(self.depth) && self.depth[bb] >= 0
}

// Idom returns the immediate dominator of bb, or BlockInvalid for the root
// and unreachable blocks.
func (self *DominatorTree) Idom(bb Block) Block {
	return self.idom[bb]
}

// Children returns the blocks immediately dominated by bb, in reverse
// post-order of the CFG.
func (self *DominatorTree) Children(bb Block) []Block {
	return self.children[bb]
}

// Dominates reports whether a dominates b. Every block dominates itself.
// Unreachable blocks are not dominated by anything.
func (self *DominatorTree) Dominates(a Block, b Block) bool {
	if !self.IsReachable(a) || !self.IsReachable(b) {
		return false
	}

	/* walk up the tree until we reach the depth of a */
	for self.depth[b] > self.depth[a] {
		b = self.idom[b]
	}

	/* a dominates b iff they meet */
	return a == b
}

// DominatesPoint reports whether the program point a dominates b. The point
// a is expected to be a definition point. Branches never define values, so
// a definition always precedes the control tail of its block.
func (self *DominatorTree) DominatesPoint(a ProgramPoint, b ProgramPoint, layout *Layout) bool {
	ba := layout.PointBlock(a)
	bb := layout.PointBlock(b)

	/* same block, compare by position */
	if ba == bb {
		return layout.Cmp(a, b) <= 0
	} else {
		return self.Dominates(ba, bb)
	}
}

// ComputeDominatorTree builds the dominator tree for the reachable part of
// the CFG, which must already be computed.
func ComputeDominatorTree(fn *Function, cfg *ControlFlowGraph) *DominatorTree {
	nb := fn.NumBlocks()
	entry := fn.Layout.EntryBlock()

	/* construct the tree */
	ret := &DominatorTree {
		root     : entry,
		idom     : make([]Block, nb),
		depth    : make([]int, nb),
		children : make([][]Block, nb),
	}

	/* everything is unreachable by default */
	for i := 0; i < nb; i++ {
		ret.idom[i] = BlockInvalid
		ret.depth[i] = -1
	}

	/* empty function */
	if entry == BlockInvalid {
		return ret
	}

	/* Step 1: Carry out a depth-first search of the problem graph. Number the vertices
	 * from 1 to n as they are reached during the search. Initialize the variables used
	 * in succeeding steps. */
	lt := newLengauerTarjan(cfg, nb)
	lt.dfs(entry)

	/* perform Step 2 and Step 3 simultaneously */
	for i := len(lt.nodes) - 1; i > 0; i-- {
		p := lt.nodes[i]
		q := (*_LtNode)(nil)

		/* Step 2: Compute the semidominators of all vertices by applying Theorem 4.
		 * Carry out the computation vertex by vertex in decreasing order by number. */
		for _, v := range p.pred {
			q = lt.eval(v)
			p.semi = minInt(p.semi, q.semi)
		}

		/* link the ancestor */
		lt.link(p.parent, p)
		lt.nodes[p.semi].bucket = append(lt.nodes[p.semi].bucket, p)

		/* Step 3: Implicitly define the immediate dominator of each vertex by applying Corollary 1 */
		for _, v := range p.parent.bucket {
			if q = lt.eval(v); q.semi < v.semi {
				v.dom = q
			} else {
				v.dom = p.parent
			}
		}

		/* clear the bucket */
		p.parent.bucket = p.parent.bucket[:0]
	}

	/* Step 4: Explicitly define the immediate dominator of each vertex, carrying out the
	 * computation vertex by vertex in increasing order by number. */
	for _, p := range lt.nodes[1:] {
		if p.dom.node != lt.nodes[p.semi].node {
			p.dom = p.dom.dom
		}
	}

	/* the root has depth 0, DFS order guarantees parents come first */
	ret.depth[entry] = 0
	for _, p := range lt.nodes[1:] {
		ret.idom[p.node] = p.dom.node
	}

	/* depth follows the immediate dominators, which are numbered before their children */
	for _, p := range lt.nodes[1:] {
		ret.depth[p.node] = ret.depth[p.dom.node] + 1
	}

	/* children are ordered by reverse post-order, which keeps pre-order numbering stable */
	po := cfg.PostOrder()
	for i := len(po) - 1; i >= 0; i-- {
		if bb := po[i]; bb != entry {
			id := ret.idom[bb]
			ret.children[id] = append(ret.children[id], bb)
		}
	}

	/* all done */
	return ret
}
