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

type Opcode uint8

const (
	OpInvalid Opcode = iota
	OpIconst
	OpFconst
	OpIadd
	OpIsub
	OpImul
	OpFadd
	OpLoad
	OpStore
	OpCall
	OpCopy
	OpJump
	OpBrz
	OpBrnz
	OpReturn
)

var _OpcodeNames = [...]string {
	OpInvalid : "invalid",
	OpIconst  : "iconst",
	OpFconst  : "fconst",
	OpIadd    : "iadd",
	OpIsub    : "isub",
	OpImul    : "imul",
	OpFadd    : "fadd",
	OpLoad    : "load",
	OpStore   : "store",
	OpCall    : "call",
	OpCopy    : "copy",
	OpJump    : "jump",
	OpBrz     : "brz",
	OpBrnz    : "brnz",
	OpReturn  : "return",
}

func (self Opcode) String() string {
	if int(self) < len(_OpcodeNames) {
		return _OpcodeNames[self]
	} else {
		return fmt.Sprintf("op(%d)", uint8(self))
	}
}

// IsBranch reports whether the opcode transfers control to another block.
// Returns terminate the function and are not branches.
func (self Opcode) IsBranch() bool {
	return self == OpJump || self == OpBrz || self == OpBrnz
}

func (self Opcode) IsTerminator() bool {
	return self == OpJump || self == OpReturn
}

// InstData is the payload of an instruction. Args are the fixed operands,
// VarArgs are the block arguments passed by a branch. Branches never have
// results.
type InstData struct {
	Opcode  Opcode
	Args    []Value
	VarArgs []Value
	Results []Value
	Dest    Block
	Imm     int64
	Callee  string
}

// Uses calls fn for every value read by the instruction, fixed operands
// first.
func (self *InstData) Uses(fn func(Value)) {
	for _, v := range self.Args {
		fn(v)
	}
	for _, v := range self.VarArgs {
		fn(v)
	}
}
