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
	`math`
)

// Builder appends instructions to the current block of a function.
type Builder struct {
	fn  *Function
	cur Block
}

func NewBuilder(fn *Function) *Builder {
	return &Builder { fn: fn, cur: BlockInvalid }
}

func (self *Builder) Func() *Function {
	return self.fn
}

func (self *Builder) Current() Block {
	return self.cur
}

// CreateBlock makes a new block and appends it to the layout.
func (self *Builder) CreateBlock() Block {
	ret := self.fn.MakeBlock()
	self.fn.Layout.AppendBlock(ret)
	return ret
}

// CreateEntryBlock makes the entry block, with one parameter for each
// argument of the signature.
func (self *Builder) CreateEntryBlock() (Block, []Value) {
	if self.fn.Layout.EntryBlock() != BlockInvalid {
		panic("ir: entry block already exists")
	}

	/* create the block and its parameters */
	bb := self.CreateBlock()
	for _, p := range self.fn.Signature.Params {
		self.fn.AppendBlockParam(bb, p.Type)
	}

	/* the entry block becomes current */
	self.cur = bb
	return bb, self.fn.BlockParams(bb)
}

func (self *Builder) AppendBlockParam(bb Block, ty Type) Value {
	return self.fn.AppendBlockParam(bb, ty)
}

func (self *Builder) SwitchToBlock(bb Block) {
	self.cur = bb
}

func (self *Builder) ins(data InstData) Inst {
	if self.cur == BlockInvalid {
		panic("ir: no current block")
	}

	/* the current block must not be terminated */
	if last := self.fn.Layout.LastInst(self.cur); last != InstInvalid {
		if self.fn.insts[last].Opcode.IsTerminator() {
			panic(fmt.Sprintf("ir: %s is already terminated", self.cur))
		}
	}

	/* non-branch instructions cannot follow a branch */
	if !data.Opcode.IsBranch() && data.Opcode != OpReturn && len(self.fn.BranchTail(self.cur)) != 0 {
		panic(fmt.Sprintf("ir: %s cannot follow a branch", data.Opcode))
	}

	/* append the instruction */
	ret := self.fn.MakeInst(data)
	self.fn.Layout.AppendInst(ret, self.cur)
	return ret
}

func (self *Builder) unary(op Opcode, ty Type, args ...Value) Value {
	ins := self.ins(InstData { Opcode: op, Args: args })
	return self.fn.MakeInstResult(ins, ty)
}

func (self *Builder) binary(op Opcode, x Value, y Value) Value {
	if tx, ty := self.fn.ValueType(x), self.fn.ValueType(y); tx != ty {
		panic(fmt.Sprintf("ir: type mismatch for %s: %s and %s", op, tx, ty))
	} else {
		return self.unary(op, tx, x, y)
	}
}

func (self *Builder) Iconst(ty Type, imm int64) Value {
	ins := self.ins(InstData { Opcode: OpIconst, Imm: imm })
	return self.fn.MakeInstResult(ins, ty)
}

func (self *Builder) Fconst(ty Type, imm float64) Value {
	ins := self.ins(InstData { Opcode: OpFconst, Imm: int64(math.Float64bits(imm)) })
	return self.fn.MakeInstResult(ins, ty)
}

func (self *Builder) Iadd(x Value, y Value) Value { return self.binary(OpIadd, x, y) }
func (self *Builder) Isub(x Value, y Value) Value { return self.binary(OpIsub, x, y) }
func (self *Builder) Imul(x Value, y Value) Value { return self.binary(OpImul, x, y) }
func (self *Builder) Fadd(x Value, y Value) Value { return self.binary(OpFadd, x, y) }

func (self *Builder) Load(ty Type, addr Value) Value {
	return self.unary(OpLoad, ty, addr)
}

func (self *Builder) Store(val Value, addr Value) {
	self.ins(InstData { Opcode: OpStore, Args: []Value { val, addr } })
}

func (self *Builder) Copy(v Value) Value {
	return self.unary(OpCopy, self.fn.ValueType(v), v)
}

func (self *Builder) Call(name string, args []Value, rets ...Type) []Value {
	ins := self.ins(InstData { Opcode: OpCall, Args: args, Callee: name })
	res := make([]Value, 0, len(rets))

	/* create the result values */
	for _, t := range rets {
		res = append(res, self.fn.MakeInstResult(ins, t))
	}

	/* all done */
	return res
}

func (self *Builder) checkArgs(dest Block, args []Value) {
	if np := len(self.fn.BlockParams(dest)); np != len(args) {
		panic(fmt.Sprintf("ir: %s takes %d arguments, got %d", dest, np, len(args)))
	}
}

func (self *Builder) Jump(dest Block, args ...Value) Inst {
	self.checkArgs(dest, args)
	return self.ins(InstData { Opcode: OpJump, Dest: dest, VarArgs: args })
}

func (self *Builder) Brz(cond Value, dest Block, args ...Value) Inst {
	self.checkArgs(dest, args)
	return self.ins(InstData { Opcode: OpBrz, Args: []Value { cond }, Dest: dest, VarArgs: args })
}

func (self *Builder) Brnz(cond Value, dest Block, args ...Value) Inst {
	self.checkArgs(dest, args)
	return self.ins(InstData { Opcode: OpBrnz, Args: []Value { cond }, Dest: dest, VarArgs: args })
}

func (self *Builder) Return(vals ...Value) Inst {
	return self.ins(InstData { Opcode: OpReturn, Args: vals })
}
