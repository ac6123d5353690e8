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

	`golang.org/x/exp/slices`
)

const (
	_SeqStride = 16
)

// ProgramPoint is either the header of a block, or an instruction.
type ProgramPoint struct {
	block Block
	inst  Inst
}

func PointAtBlock(bb Block) ProgramPoint {
	return ProgramPoint { block: bb, inst: InstInvalid }
}

func PointAtInst(ins Inst) ProgramPoint {
	return ProgramPoint { block: BlockInvalid, inst: ins }
}

func (self ProgramPoint) IsBlock() bool {
	return self.inst == InstInvalid
}

func (self ProgramPoint) Block() Block {
	if !self.IsBlock() {
		panic("ir: program point is not a block header")
	} else {
		return self.block
	}
}

func (self ProgramPoint) Inst() Inst {
	if self.IsBlock() {
		panic("ir: program point is not an instruction")
	} else {
		return self.inst
	}
}

func (self ProgramPoint) String() string {
	if self.IsBlock() {
		return self.block.String()
	} else {
		return self.inst.String()
	}
}

type _BlockNode struct {
	seq   uint32
	used  bool
	insts []Inst
}

type _InstNode struct {
	seq   uint32
	block Block
}

// Layout orders blocks and the instructions inside them. Every instruction
// carries a sequence number, so program points in the same block compare in
// constant time.
type Layout struct {
	order  []Block
	blocks []_BlockNode
	insts  []_InstNode
}

func (self *Layout) blockNode(bb Block) *_BlockNode {
	for int(bb) >= len(self.blocks) {
		self.blocks = append(self.blocks, _BlockNode{})
	}
	return &self.blocks[bb]
}

func (self *Layout) instNode(ins Inst) *_InstNode {
	for int(ins) >= len(self.insts) {
		self.insts = append(self.insts, _InstNode { block: BlockInvalid })
	}
	return &self.insts[ins]
}

func (self *Layout) renumber(bb Block) {
	for i, ins := range self.blocks[bb].insts {
		self.insts[ins].seq = uint32(i + 1) * _SeqStride
	}
}

func (self *Layout) AppendBlock(bb Block) {
	if p := self.blockNode(bb); p.used {
		panic(fmt.Sprintf("ir: %s is already in layout", bb))
	} else {
		p.used = true
		p.seq = uint32(len(self.order))
		self.order = append(self.order, bb)
	}
}

func (self *Layout) Blocks() []Block {
	return self.order
}

func (self *Layout) EntryBlock() Block {
	if len(self.order) == 0 {
		return BlockInvalid
	} else {
		return self.order[0]
	}
}

func (self *Layout) IsBlockInserted(bb Block) bool {
	return int(bb) < len(self.blocks) && self.blocks[bb].used
}

func (self *Layout) BlockInsts(bb Block) []Inst {
	return self.blocks[bb].insts
}

func (self *Layout) InstBlock(ins Inst) Block {
	if int(ins) >= len(self.insts) || self.insts[ins].block == BlockInvalid {
		panic(fmt.Sprintf("ir: %s is not in layout", ins))
	} else {
		return self.insts[ins].block
	}
}

func (self *Layout) FirstInst(bb Block) Inst {
	if ins := self.blocks[bb].insts; len(ins) == 0 {
		return InstInvalid
	} else {
		return ins[0]
	}
}

func (self *Layout) LastInst(bb Block) Inst {
	if ins := self.blocks[bb].insts; len(ins) == 0 {
		return InstInvalid
	} else {
		return ins[len(ins) - 1]
	}
}

// PrevInst returns the instruction right before ins in its block.
func (self *Layout) PrevInst(ins Inst) Inst {
	bb := self.InstBlock(ins)
	idx := self.indexOf(bb, ins)

	/* first instruction has nothing before it */
	if idx == 0 {
		return InstInvalid
	} else {
		return self.blocks[bb].insts[idx - 1]
	}
}

func (self *Layout) indexOf(bb Block, ins Inst) int {
	for i, v := range self.blocks[bb].insts {
		if v == ins {
			return i
		}
	}
	panic(fmt.Sprintf("ir: %s is not in %s", ins, bb))
}

func (self *Layout) insertAt(bb Block, idx int, ins Inst) {
	if p := self.instNode(ins); p.block != BlockInvalid {
		panic(fmt.Sprintf("ir: %s is already in layout", ins))
	} else {
		p.block = bb
	}

	/* insert into the instruction list */
	p := &self.blocks[bb]
	p.insts = slices.Insert(p.insts, idx, ins)
	self.renumber(bb)
}

func (self *Layout) AppendInst(ins Inst, bb Block) {
	if !self.IsBlockInserted(bb) {
		panic(fmt.Sprintf("ir: %s is not in layout", bb))
	} else {
		self.insertAt(bb, len(self.blocks[bb].insts), ins)
	}
}

func (self *Layout) InsertInstBefore(ins Inst, before Inst) {
	bb := self.InstBlock(before)
	self.insertAt(bb, self.indexOf(bb, before), ins)
}

func (self *Layout) InsertInstAtTop(ins Inst, bb Block) {
	if !self.IsBlockInserted(bb) {
		panic(fmt.Sprintf("ir: %s is not in layout", bb))
	} else {
		self.insertAt(bb, 0, ins)
	}
}

// PointBlock returns the block a program point belongs to.
func (self *Layout) PointBlock(pp ProgramPoint) Block {
	if pp.IsBlock() {
		return pp.block
	} else {
		return self.InstBlock(pp.inst)
	}
}

func (self *Layout) seqOf(pp ProgramPoint) (uint32, uint32) {
	if pp.IsBlock() {
		return self.blocks[pp.block].seq, 0
	} else {
		p := &self.insts[pp.inst]
		return self.blocks[p.block].seq, p.seq
	}
}

// Cmp orders two program points by their position in the layout. A block
// header comes before every instruction of that block.
func (self *Layout) Cmp(a ProgramPoint, b ProgramPoint) int {
	ba, sa := self.seqOf(a)
	bb, sb := self.seqOf(b)

	/* compare blocks first */
	switch {
		case ba < bb : return -1
		case ba > bb : return 1
		case sa < sb : return -1
		case sa > sb : return 1
		default      : return 0
	}
}
