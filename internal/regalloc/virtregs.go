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
	`math`
	`strings`

	`golang.org/x/exp/slices`

	`github.com/cloudwego/cssa/ir`
)

// VirtReg names a set of values that should end up in the same register.
type VirtReg uint32

const (
	NoVirtReg = VirtReg(math.MaxUint32)
)

func (self VirtReg) String() string {
	if self == NoVirtReg {
		return "vreg?"
	} else {
		return fmt.Sprintf("vreg%d", uint32(self))
	}
}

type _UnionKey struct {
	root  ir.Value
	value ir.Value
}

// VirtRegs is a union-find forest over values, plus the virtual registers
// built from it. Values are unioned first, then FinishUnionFind turns every
// set with more than one member into a virtual register.
//
// A root of the forest stores its rank as -(rank + 1), other values store
// the index of their parent.
type VirtRegs struct {
	uf      []int32
	vreg    []VirtReg
	regs    [][]ir.Value
	live    int
	unions  int
	pending []ir.Value
	keys    []_UnionKey
}

func NewVirtRegs() *VirtRegs {
	return new(VirtRegs)
}

func (self *VirtRegs) Clear() {
	self.uf = self.uf[:0]
	self.vreg = self.vreg[:0]
	self.regs = self.regs[:0]
	self.live = 0
	self.unions = 0
	self.pending = self.pending[:0]
}

func (self *VirtRegs) grow(v ir.Value) {
	for int(v) >= len(self.uf) {
		self.uf = append(self.uf, -1)
		self.vreg = append(self.vreg, NoVirtReg)
	}
}

func (self *VirtRegs) find(v ir.Value) ir.Value {
	self.grow(v)

	/* path halving */
	for {
		p := self.uf[v]
		if p < 0 {
			return v
		}

		/* the parent is a root */
		gp := self.uf[p]
		if gp < 0 {
			return ir.Value(p)
		}

		/* skip one level */
		self.uf[v] = gp
		v = ir.Value(gp)
	}
}

// Union merges the sets containing a and b. Neither value may belong to a
// finished virtual register.
func (self *VirtRegs) Union(a ir.Value, b ir.Value) {
	ra := self.find(a)
	rb := self.find(b)

	/* already in the same set */
	if ra == rb {
		return
	}

	/* finished registers are immutable */
	if self.vreg[a] != NoVirtReg || self.vreg[b] != NoVirtReg {
		panic(fmt.Sprintf("regalloc: union of %s and %s after they were assigned", a, b))
	}

	/* union by rank, the root stores -(rank + 1) */
	ka := -self.uf[ra]
	kb := -self.uf[rb]

	/* attach the lower ranked tree to the higher one */
	if ka < kb {
		self.uf[ra] = int32(rb)
	} else if ka > kb {
		self.uf[rb] = int32(ra)
	} else {
		self.uf[rb] = int32(ra)
		self.uf[ra]--
	}

	/* record both ends for FinishUnionFind */
	self.unions++
	self.pending = append(self.pending, a, b)
}

// FinishUnionFind creates a virtual register for every set formed since the
// last call. The new registers are appended to newRegs when it is not nil.
func (self *VirtRegs) FinishUnionFind(newRegs *[]VirtReg) {
	self.keys = self.keys[:0]

	/* group the pending values by their root */
	for _, v := range self.pending {
		self.keys = append(self.keys, _UnionKey { root: self.find(v), value: v })
	}

	/* sort by root, then by value */
	slices.SortFunc(self.keys, func(a _UnionKey, b _UnionKey) bool {
		if a.root != b.root {
			return a.root < b.root
		} else {
			return a.value < b.value
		}
	})

	/* scan every group */
	for i := 0; i < len(self.keys); {
		j := i
		rr := self.keys[i].root
		vals := []ir.Value(nil)

		/* collect the distinct members */
		for ; j < len(self.keys) && self.keys[j].root == rr; j++ {
			if n := len(vals); n == 0 || vals[n - 1] != self.keys[j].value {
				vals = append(vals, self.keys[j].value)
			}
		}

		/* singletons do not get a register */
		if i = j; len(vals) < 2 {
			continue
		}

		/* allocate the register */
		id := VirtReg(len(self.regs))
		self.regs = append(self.regs, vals)
		self.live++

		/* assign every member */
		for _, v := range vals {
			self.vreg[v] = id
		}

		/* notify the caller */
		if newRegs != nil {
			*newRegs = append(*newRegs, id)
		}
	}

	/* clear the pending list */
	self.pending = self.pending[:0]
}

// Get returns the virtual register of v, or NoVirtReg if v is alone.
func (self *VirtRegs) Get(v ir.Value) VirtReg {
	if int(v) >= len(self.vreg) {
		return NoVirtReg
	} else {
		return self.vreg[v]
	}
}

// Values returns the members of a virtual register.
func (self *VirtRegs) Values(vreg VirtReg) []ir.Value {
	return self.regs[vreg]
}

// SortValues sorts the members of a virtual register in place, and returns
// them.
func (self *VirtRegs) SortValues(vreg VirtReg, less func(a ir.Value, b ir.Value) bool) []ir.Value {
	slices.SortFunc(self.regs[vreg], less)
	return self.regs[vreg]
}

// Remove dissolves a virtual register. Its members become singletons again,
// and can be unioned afresh.
func (self *VirtRegs) Remove(vreg VirtReg) {
	vals := self.regs[vreg]
	if vals == nil {
		panic(fmt.Sprintf("regalloc: %s was already removed", vreg))
	}

	/* reset every member */
	for _, v := range vals {
		self.uf[v] = -1
		self.vreg[v] = NoVirtReg
	}

	/* mark the register as removed */
	self.live--
	self.regs[vreg] = nil
}

// AllVirtRegs lists every register that has not been removed.
func (self *VirtRegs) AllVirtRegs() []VirtReg {
	ret := make([]VirtReg, 0, self.live)
	for i, vals := range self.regs {
		if vals != nil {
			ret = append(ret, VirtReg(i))
		}
	}
	return ret
}

func (self *VirtRegs) Len() int {
	return self.live
}

// Unions counts the unions that actually merged two sets.
func (self *VirtRegs) Unions() int {
	return self.unions
}

func (self *VirtRegs) String() string {
	ret := make([]string, 0, self.live)
	for _, id := range self.AllVirtRegs() {
		ss := make([]string, 0, len(self.regs[id]))
		for _, v := range self.regs[id] {
			ss = append(ss, v.String())
		}
		ret = append(ret, fmt.Sprintf("%s = [%s]", id, strings.Join(ss, " ")))
	}
	return strings.Join(ret, "\n")
}
