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
	`github.com/oleiade/lane`
)

// BlockPredecessor is an incoming edge: the predecessor block together with
// the branch instruction that transfers control.
type BlockPredecessor struct {
	Block Block
	Inst  Inst
}

type _CFGNode struct {
	preds []BlockPredecessor
	succs []Block
}

type ControlFlowGraph struct {
	nodes []_CFGNode
	order []Block
	valid bool
}

func NewControlFlowGraph() *ControlFlowGraph {
	return new(ControlFlowGraph)
}

func (self *ControlFlowGraph) Clear() {
	self.nodes = self.nodes[:0]
	self.order = self.order[:0]
	self.valid = false
}

func (self *ControlFlowGraph) IsValid() bool {
	return self.valid
}

// Compute rebuilds the graph from the branches of fn.
func (self *ControlFlowGraph) Compute(fn *Function) {
	self.Clear()
	nb := fn.NumBlocks()

	/* resize the node table */
	for i := 0; i < nb; i++ {
		self.nodes = append(self.nodes, _CFGNode{})
	}

	/* scan every branch in the layout */
	for _, bb := range fn.Layout.Blocks() {
		for _, ins := range fn.BranchTail(bb) {
			if p := fn.InstData(ins); p.Opcode.IsBranch() {
				self.addEdge(bb, ins, p.Dest)
			}
		}
	}

	/* compute the post-order */
	self.postorder(fn.Layout.EntryBlock())
	self.valid = true
}

func (self *ControlFlowGraph) addEdge(from Block, ins Inst, to Block) {
	self.nodes[to].preds = append(self.nodes[to].preds, BlockPredecessor { Block: from, Inst: ins })

	/* successors are unique */
	for _, v := range self.nodes[from].succs {
		if v == to {
			return
		}
	}

	/* add to successor list */
	self.nodes[from].succs = append(self.nodes[from].succs, to)
}

type _DfsFrame struct {
	bb  Block
	idx int
}

func (self *ControlFlowGraph) postorder(entry Block) {
	if entry == BlockInvalid {
		return
	}

	/* visited set */
	st := lane.NewStack()
	vis := make([]bool, len(self.nodes))

	/* start from the entry block */
	vis[entry] = true
	st.Push(&_DfsFrame { bb: entry })

	/* iterative depth-first search */
	for !st.Empty() {
		fp := st.Head().(*_DfsFrame)
		ss := self.nodes[fp.bb].succs

		/* find the next unvisited successor */
		for fp.idx < len(ss) && vis[ss[fp.idx]] {
			fp.idx++
		}

		/* all the successors are visited, emit the current node */
		if fp.idx == len(ss) {
			self.order = append(self.order, fp.bb)
			st.Pop()
			continue
		}

		/* descend into the successor */
		vis[ss[fp.idx]] = true
		st.Push(&_DfsFrame { bb: ss[fp.idx] })
	}
}

func (self *ControlFlowGraph) Predecessors(bb Block) []BlockPredecessor {
	return self.nodes[bb].preds
}

func (self *ControlFlowGraph) Successors(bb Block) []Block {
	return self.nodes[bb].succs
}

// PostOrder returns the blocks reachable from the entry block in post-order.
func (self *ControlFlowGraph) PostOrder() []Block {
	return self.order
}
