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

type _ArgEdge struct {
	from Block
	inst Inst
}

// HasSoleBranch reports whether ins is the only control instruction of its
// block. Copies inserted right before such a branch dominate its successor.
func (self *Function) HasSoleBranch(ins Inst) bool {
	tail := self.BranchTail(self.Layout.InstBlock(ins))
	return len(tail) == 1 && tail[0] == ins
}

// SplitBranchArgs makes every branch that passes block arguments the only
// control instruction of its block, by routing the edge through a new block
// that holds a single jump. Returns the number of blocks inserted.
func SplitBranchArgs(fn *Function) int {
	var edges []_ArgEdge

	/* find all branches with arguments that share their block */
	for _, bb := range fn.Layout.Blocks() {
		if tail := fn.BranchTail(bb); len(tail) > 1 {
			for _, ins := range tail {
				if p := fn.InstData(ins); p.Opcode.IsBranch() && len(p.VarArgs) != 0 {
					edges = append(edges, _ArgEdge {
						from : bb,
						inst : ins,
					})
				}
			}
		}
	}

	/* insert a forwarding block on each edge */
	for _, e := range edges {
		bb := fn.MakeBlock()
		fn.Layout.AppendBlock(bb)

		/* move the destination and arguments to the new jump */
		p := fn.InstData(e.inst)
		tr := fn.MakeInst(InstData { Opcode: OpJump, Dest: p.Dest, VarArgs: p.VarArgs })

		/* redirect the original branch */
		fn.Layout.AppendInst(tr, bb)
		fn.InstData(e.inst).Dest = bb
		fn.InstData(e.inst).VarArgs = nil
	}

	/* all done */
	return len(edges)
}
