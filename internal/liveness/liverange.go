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
	`sort`
	`strings`

	`golang.org/x/exp/slices`

	`github.com/cloudwego/cssa/ir`
)

// LiveRange is the set of program points where a value is live. It is made
// of a local interval starting at the definition, and one interval for every
// other block the value is live-in to.
type LiveRange struct {
	Affinity Affinity
	value    ir.Value
	block    ir.Block
	def      ir.ProgramPoint
	end      ir.ProgramPoint
	liveins  []Interval
}

func newLiveRange(v ir.Value, def ir.ProgramPoint, bb ir.Block, aff Affinity) *LiveRange {
	return &LiveRange {
		Affinity : aff,
		value    : v,
		block    : bb,
		def      : def,
		end      : def,
	}
}

func (self *LiveRange) Value() ir.Value {
	return self.value
}

// Def is the program point where the value is defined.
func (self *LiveRange) Def() ir.ProgramPoint {
	return self.def
}

// DefBlock is the block containing the definition.
func (self *LiveRange) DefBlock() ir.Block {
	return self.block
}

// DefLocalEnd is the last point of the local interval in the defining block.
func (self *LiveRange) DefLocalEnd() ir.ProgramPoint {
	return self.end
}

// IsDead reports whether the value has no uses.
func (self *LiveRange) IsDead() bool {
	return self.def == self.end
}

// IsLocal reports whether the value never leaves its defining block.
func (self *LiveRange) IsLocal() bool {
	return len(self.liveins) == 0
}

func (self *LiveRange) LiveIns() []Interval {
	return self.liveins
}

func (self *LiveRange) search(bb ir.Block) (int, bool) {
	i := sort.Search(len(self.liveins), func(i int) bool { return self.liveins[i].Block >= bb })
	return i, i < len(self.liveins) && self.liveins[i].Block == bb
}

func (self *LiveRange) IsLiveIn(bb ir.Block) bool {
	_, ok := self.search(bb)
	return ok
}

// LiveInLocalEnd returns the last instruction of bb where the value is still
// live, if the value is live-in to bb.
func (self *LiveRange) LiveInLocalEnd(bb ir.Block) (ir.Inst, bool) {
	if i, ok := self.search(bb); !ok {
		return ir.InstInvalid, false
	} else {
		return self.liveins[i].End, true
	}
}

// OverlapsDef reports whether the value is live at def, a definition point
// in bb. Two definitions at the same point always overlap.
func (self *LiveRange) OverlapsDef(def ir.ProgramPoint, bb ir.Block, layout *ir.Layout) bool {
	if def == self.def {
		return true
	}

	/* inside the local interval */
	if bb == self.block && layout.Cmp(def, self.def) >= 0 && layout.Cmp(def, self.end) < 0 {
		return true
	}

	/* inside a live-in interval */
	if end, ok := self.LiveInLocalEnd(bb); ok {
		return layout.Cmp(def, ir.PointAtInst(end)) < 0
	} else {
		return false
	}
}

// ReachesUse reports whether the value is live up to user, an instruction in
// bb.
func (self *LiveRange) ReachesUse(user ir.Inst, bb ir.Block, layout *ir.Layout) bool {
	pp := ir.PointAtInst(user)

	/* inside the local interval */
	if bb == self.block && layout.Cmp(pp, self.def) > 0 && layout.Cmp(pp, self.end) <= 0 {
		return true
	}

	/* inside a live-in interval */
	if end, ok := self.LiveInLocalEnd(bb); ok {
		return layout.Cmp(pp, ir.PointAtInst(end)) <= 0
	} else {
		return false
	}
}

// extendInBlock makes the value live up to the instruction to in block bb.
// Returns true if the value becomes live-in to bb for the first time.
func (self *LiveRange) extendInBlock(bb ir.Block, to ir.Inst, layout *ir.Layout) bool {
	pp := ir.PointAtInst(to)

	/* the defining block only extends the local interval */
	if bb == self.block {
		if layout.Cmp(pp, self.end) > 0 {
			self.end = pp
		}
		return false
	}

	/* already live-in, extend the interval if needed */
	i, ok := self.search(bb)
	if ok {
		if layout.Cmp(pp, ir.PointAtInst(self.liveins[i].End)) > 0 {
			self.liveins[i].End = to
		}
		return false
	}

	/* new live-in interval */
	self.liveins = slices.Insert(self.liveins, i, Interval { Block: bb, End: to })
	return true
}

func (self *LiveRange) moveDef(def ir.ProgramPoint, layout *ir.Layout) {
	if self.def = def; layout.Cmp(self.end, def) < 0 {
		self.end = def
	}
}

func (self *LiveRange) String() string {
	ret := make([]string, 0, len(self.liveins))
	for _, iv := range self.liveins {
		ret = append(ret, iv.String())
	}
	return fmt.Sprintf("%s: %s@%s-%s [%s]", self.value, self.Affinity, self.def, self.end, strings.Join(ret, ", "))
}
