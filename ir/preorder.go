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

	`github.com/oleiade/lane`
)

type _PreorderNode struct {
	pre  uint32
	post uint32
}

// DominatorTreePreorder numbers the dominator tree in pre-order and
// post-order, which answers block dominance in constant time.
type DominatorTreePreorder struct {
	nodes []_PreorderNode
	stack *lane.Stack
	seen  []bool
}

func NewDominatorTreePreorder() *DominatorTreePreorder {
	return &DominatorTreePreorder {
		stack: lane.NewStack(),
	}
}

func (self *DominatorTreePreorder) Clear() {
	self.nodes = self.nodes[:0]
	self.seen = self.seen[:0]
}

func (self *DominatorTreePreorder) Compute(dt *DominatorTree) {
	var pre  uint32
	var post uint32

	/* reset the tables */
	self.Clear()
	nb := len(dt.idom)

	/* resize the tables */
	for i := 0; i < nb; i++ {
		self.seen = append(self.seen, false)
		self.nodes = append(self.nodes, _PreorderNode{})
	}

	/* empty function */
	if dt.root == BlockInvalid {
		return
	}

	/* start from the root */
	pre++
	self.seen[dt.root] = true
	self.nodes[dt.root].pre = pre
	self.stack.Push(dt.root)

	/* walk the tree, every node is numbered twice */
	for !self.stack.Empty() {
		tail := true
		this := self.stack.Head().(Block)

		/* push the first child that has not been seen yet */
		for _, p := range dt.children[this] {
			if !self.seen[p] {
				pre++
				tail = false
				self.seen[p] = true
				self.nodes[p].pre = pre
				self.stack.Push(p)
				break
			}
		}

		/* all the children are visited, pop the current node */
		if tail {
			post++
			self.stack.Pop()
			self.nodes[this].post = post
		}
	}
}

func (self *DominatorTreePreorder) node(bb Block) *_PreorderNode {
	if p := &self.nodes[bb]; p.pre == 0 {
		panic(fmt.Sprintf("ir: %s is unreachable", bb))
	} else {
		return p
	}
}

// Dominates reports whether a dominates b. Both blocks must be reachable.
func (self *DominatorTreePreorder) Dominates(a Block, b Block) bool {
	na := self.node(a)
	nb := self.node(b)
	return na.pre <= nb.pre && na.post >= nb.post
}

// PreCmpBlock compares two blocks by their dominator tree pre-order.
func (self *DominatorTreePreorder) PreCmpBlock(a Block, b Block) int {
	na := self.node(a).pre
	nb := self.node(b).pre

	/* compare the pre-order number */
	switch {
		case na < nb : return -1
		case na > nb : return 1
		default      : return 0
	}
}

// PreCmp compares two program points by the pre-order of their blocks, and
// then by layout order inside the same block.
func (self *DominatorTreePreorder) PreCmp(a ProgramPoint, b ProgramPoint, layout *Layout) int {
	if ret := self.PreCmpBlock(layout.PointBlock(a), layout.PointBlock(b)); ret != 0 {
		return ret
	} else {
		return layout.Cmp(a, b)
	}
}
