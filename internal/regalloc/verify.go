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

	`github.com/cloudwego/cssa/internal/liveness`
	`github.com/cloudwego/cssa/ir`
)

// InterferenceError reports a virtual register that cannot be assigned to a
// single register.
type InterferenceError struct {
	Func    string
	VirtReg VirtReg
	Values  [2]ir.Value
	Reason  string
}

func (self *InterferenceError) Error() string {
	return fmt.Sprintf("regalloc: %s in function %s: %s and %s %s", self.VirtReg, self.Func, self.Values[0], self.Values[1], self.Reason)
}

// Verify checks the output of ConventionalSSA. No two members of a virtual
// register may be live at the definition of one another, and every block
// parameter must share its virtual register with all of its arguments.
func Verify(fn *ir.Function, cfg *ir.ControlFlowGraph, domtree *ir.DominatorTree, live *liveness.Liveness, virtregs *VirtRegs) error {
	layout := &fn.Layout

	/* pairwise interference check */
	for _, vreg := range virtregs.AllVirtRegs() {
		vals := virtregs.Values(vreg)
		for i, a := range vals {
			for _, b := range vals[i + 1:] {
				if interferes(fn, live, layout, a, b) {
					return &InterferenceError {
						Func    : fn.Name,
						VirtReg : vreg,
						Values  : [2]ir.Value { a, b },
						Reason  : "interfere",
					}
				}
			}
		}
	}

	/* every edge must stay inside one register */
	for _, bb := range cfg.PostOrder() {
		for i, p := range fn.BlockParams(bb) {
			vreg := virtregs.Get(p)
			for _, pred := range cfg.Predecessors(bb) {
				if !domtree.IsReachable(pred.Block) {
					continue
				}

				/* the argument must be in the same register */
				if arg := fn.BranchArgs(pred.Inst)[i]; vreg == NoVirtReg || virtregs.Get(arg) != vreg {
					return &InterferenceError {
						Func    : fn.Name,
						VirtReg : vreg,
						Values  : [2]ir.Value { p, arg },
						Reason  : fmt.Sprintf("are not coalesced on the edge from %s", pred.Inst),
					}
				}
			}
		}
	}

	/* all checked */
	return nil
}

func interferes(fn *ir.Function, live *liveness.Liveness, layout *ir.Layout, a ir.Value, b ir.Value) bool {
	da := fn.ValueDef(a)
	db := fn.ValueDef(b)
	return live.Get(a).OverlapsDef(db.Point(), fn.DefBlock(b), layout) || live.Get(b).OverlapsDef(da.Point(), fn.DefBlock(a), layout)
}
