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
)

type ArgKind uint8

const (
	ArgUnassigned ArgKind = iota
	ArgReg
	ArgStack
)

// ArgLocation is where the calling convention places a function argument.
type ArgLocation struct {
	Kind   ArgKind
	Reg    uint8
	Offset int32
}

func RegArg(reg uint8) ArgLocation {
	return ArgLocation { Kind: ArgReg, Reg: reg }
}

func StackArg(offs int32) ArgLocation {
	return ArgLocation { Kind: ArgStack, Offset: offs }
}

func (self ArgLocation) IsStack() bool {
	return self.Kind == ArgStack
}

func (self ArgLocation) IsAssigned() bool {
	return self.Kind != ArgUnassigned
}

func (self ArgLocation) String() string {
	switch self.Kind {
		case ArgReg   : return fmt.Sprintf("r%d", self.Reg)
		case ArgStack : return fmt.Sprintf("ss%d", self.Offset)
		default       : return "-"
	}
}

type AbiParam struct {
	Type     Type
	Location ArgLocation
}

type Signature struct {
	Params  []AbiParam
	Returns []AbiParam
}

// Sig is a shorthand for a signature with unassigned argument locations.
func Sig(params []Type, returns ...Type) Signature {
	ret := Signature {
		Params  : make([]AbiParam, len(params)),
		Returns : make([]AbiParam, len(returns)),
	}

	/* copy the parameter types */
	for i, t := range params {
		ret.Params[i].Type = t
	}

	/* copy the return types */
	for i, t := range returns {
		ret.Returns[i].Type = t
	}

	/* all done */
	return ret
}

type ValueKind uint8

const (
	ValueDetached ValueKind = iota
	ValueParam
	ValueResult
)

// ValueDef tells where a value is defined. Block is valid for parameters,
// Inst is valid for instruction results. Num is the parameter or result
// index.
type ValueDef struct {
	Kind  ValueKind
	Block Block
	Inst  Inst
	Num   int
}

func (self ValueDef) Point() ProgramPoint {
	switch self.Kind {
		case ValueParam  : return PointAtBlock(self.Block)
		case ValueResult : return PointAtInst(self.Inst)
		default          : panic("ir: point of a detached value")
	}
}

type ValueData struct {
	Type Type
	Def  ValueDef
}

type BlockData struct {
	Params []Value
}

type Function struct {
	Name      string
	Signature Signature
	Layout    Layout
	Encodings map[Inst]Encoding
	values    []ValueData
	insts     []InstData
	blocks    []BlockData
}

func NewFunction(name string, sig Signature) *Function {
	return &Function {
		Name      : name,
		Signature : sig,
		Encodings : make(map[Inst]Encoding),
	}
}

func (self *Function) NumValues() int { return len(self.values) }
func (self *Function) NumInsts()  int { return len(self.insts)  }
func (self *Function) NumBlocks() int { return len(self.blocks) }

func (self *Function) makeValue(ty Type, def ValueDef) Value {
	ret := Value(len(self.values))
	self.values = append(self.values, ValueData { Type: ty, Def: def })
	return ret
}

func (self *Function) ValueType(v Value) Type {
	return self.values[v].Type
}

func (self *Function) ValueDef(v Value) ValueDef {
	return self.values[v].Def
}

// DefBlock returns the block containing the definition of v.
func (self *Function) DefBlock(v Value) Block {
	switch def := self.values[v].Def; def.Kind {
		case ValueParam  : return def.Block
		case ValueResult : return self.Layout.InstBlock(def.Inst)
		default          : panic(fmt.Sprintf("ir: %s is detached", v))
	}
}

func (self *Function) MakeBlock() Block {
	ret := Block(len(self.blocks))
	self.blocks = append(self.blocks, BlockData{})
	return ret
}

func (self *Function) AppendBlockParam(bb Block, ty Type) Value {
	nb := len(self.blocks[bb].Params)
	ret := self.makeValue(ty, ValueDef { Kind: ValueParam, Block: bb, Num: nb })
	self.blocks[bb].Params = append(self.blocks[bb].Params, ret)
	return ret
}

func (self *Function) BlockParams(bb Block) []Value {
	return self.blocks[bb].Params
}

// ReplaceBlockParam puts a fresh value of the same type in the parameter
// slot of old. The old value becomes detached until it is redefined.
func (self *Function) ReplaceBlockParam(old Value) Value {
	def := self.values[old].Def
	ty := self.values[old].Type

	/* must be a block parameter */
	if def.Kind != ValueParam {
		panic(fmt.Sprintf("ir: %s is not a block parameter", old))
	}

	/* create the new value, and detach the old one */
	ret := self.makeValue(ty, def)
	self.values[old].Def = ValueDef { Kind: ValueDetached, Block: BlockInvalid, Inst: InstInvalid }
	self.blocks[def.Block].Params[def.Num] = ret
	return ret
}

func (self *Function) MakeInst(data InstData) Inst {
	ret := Inst(len(self.insts))
	self.insts = append(self.insts, data)
	return ret
}

// MakeInstResult appends a new result value to an instruction.
func (self *Function) MakeInstResult(inst Inst, ty Type) Value {
	nb := len(self.insts[inst].Results)
	ret := self.makeValue(ty, ValueDef { Kind: ValueResult, Block: BlockInvalid, Inst: inst, Num: nb })
	self.insts[inst].Results = append(self.insts[inst].Results, ret)
	return ret
}

func (self *Function) attachResult(inst Inst, v Value) {
	if self.values[v].Def.Kind != ValueDetached {
		panic(fmt.Sprintf("ir: %s is still attached", v))
	}

	/* redefine the value as the next result */
	nb := len(self.insts[inst].Results)
	self.values[v].Def = ValueDef { Kind: ValueResult, Block: BlockInvalid, Inst: inst, Num: nb }
	self.insts[inst].Results = append(self.insts[inst].Results, v)
}

func (self *Function) InstData(inst Inst) *InstData {
	return &self.insts[inst]
}

func (self *Function) IsBranch(inst Inst) bool {
	return self.insts[inst].Opcode.IsBranch()
}

// BranchArgs returns the block arguments of a branch. The slice aliases the
// instruction, so writing to it rewrites the branch.
func (self *Function) BranchArgs(inst Inst) []Value {
	if !self.insts[inst].Opcode.IsBranch() {
		panic(fmt.Sprintf("ir: %s is not a branch", inst))
	} else {
		return self.insts[inst].VarArgs
	}
}

// BranchTail returns the trailing group of control instructions of a block.
func (self *Function) BranchTail(bb Block) []Inst {
	ins := self.Layout.BlockInsts(bb)
	pos := len(ins)

	/* scan backwards until the first ordinary instruction */
	for pos > 0 {
		if op := self.insts[ins[pos - 1]].Opcode; op.IsBranch() || op == OpReturn {
			pos--
		} else {
			break
		}
	}

	/* the tail group */
	return ins[pos:]
}

// InsertCopyBefore inserts "copy src" right before the given instruction,
// and returns the copy together with its result.
func (self *Function) InsertCopyBefore(at Inst, src Value) (Inst, Value) {
	ins := self.MakeInst(InstData { Opcode: OpCopy, Args: []Value { src } })
	ret := self.MakeInstResult(ins, self.ValueType(src))
	self.Layout.InsertInstBefore(ins, at)
	return ins, ret
}

// InsertCopyAtTop inserts "dst = copy src" as the first instruction of the
// block. The destination must be a detached value.
func (self *Function) InsertCopyAtTop(bb Block, dst Value, src Value) Inst {
	ins := self.MakeInst(InstData { Opcode: OpCopy, Args: []Value { src } })
	self.attachResult(ins, dst)
	self.Layout.InsertInstAtTop(ins, bb)
	return ins
}

// EntryParamLocation returns the ABI location of an entry block parameter,
// if the value is one.
func (self *Function) EntryParamLocation(v Value) (ArgLocation, bool) {
	if def := self.values[v].Def; def.Kind != ValueParam {
		return ArgLocation{}, false
	} else if def.Block != self.Layout.EntryBlock() {
		return ArgLocation{}, false
	} else if def.Num >= len(self.Signature.Params) {
		return ArgLocation{}, false
	} else {
		return self.Signature.Params[def.Num].Location, true
	}
}
