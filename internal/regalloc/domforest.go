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

	`github.com/cloudwego/cssa/ir`
)

// DomNode is a value definition pushed onto the dominator forest.
type DomNode struct {
	Value ir.Value
	Def   ir.ProgramPoint
	Block ir.Block
}

func (self DomNode) String() string {
	return fmt.Sprintf("%s@%s", self.Value, self.Def)
}

// DomForest is the stack of the dominator forest walk. Nodes must be pushed
// in dominator tree pre-order, and the stack then always holds a chain of
// blocks, each one dominating the next.
type DomForest struct {
	stack []DomNode
}

func (self *DomForest) Clear() {
	self.stack = self.stack[:0]
}

func (self *DomForest) Len() int {
	return len(self.stack)
}

// Contains reports whether v is currently on the stack.
func (self *DomForest) Contains(v ir.Value) bool {
	for _, p := range self.stack {
		if p.Value == v {
			return true
		}
	}
	return false
}

// Remove takes v off the stack, keeping the order of the other nodes.
// Returns false if v is not on the stack.
func (self *DomForest) Remove(v ir.Value) bool {
	for i, p := range self.stack {
		if p.Value == v {
			self.stack = append(self.stack[:i], self.stack[i + 1:]...)
			return true
		}
	}
	return false
}

// Push adds a node to the forest, and returns the nearest node on the stack
// whose definition dominates the definition of the new one.
func (self *DomForest) Push(node DomNode, layout *ir.Layout, domtree *ir.DominatorTree, preorder *ir.DominatorTreePreorder) (DomNode, bool) {
	for len(self.stack) != 0 {
		top := self.stack[len(self.stack) - 1]

		/* pop until the top block dominates the new one */
		if !preorder.Dominates(top.Block, node.Block) {
			self.stack = self.stack[:len(self.stack) - 1]
			continue
		}

		/* then find the nearest dominating definition */
		self.stack = append(self.stack, node)
		for i := len(self.stack) - 2; i >= 0; i-- {
			if p := self.stack[i]; domtree.DominatesPoint(p.Def, node.Def, layout) {
				return p, true
			}
		}

		/* nothing dominates it */
		return DomNode{}, false
	}

	/* the stack is empty, start a new tree */
	self.stack = append(self.stack, node)
	return DomNode{}, false
}
