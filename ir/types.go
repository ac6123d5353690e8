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

type (
	Value uint32
	Inst  uint32
	Block uint32
)

const (
	ValueInvalid = Value(math.MaxUint32)
	InstInvalid  = Inst(math.MaxUint32)
	BlockInvalid = Block(math.MaxUint32)
)

func (self Value) String() string {
	if self == ValueInvalid {
		return "v?"
	} else {
		return fmt.Sprintf("v%d", uint32(self))
	}
}

func (self Inst) String() string {
	if self == InstInvalid {
		return "inst?"
	} else {
		return fmt.Sprintf("inst%d", uint32(self))
	}
}

func (self Block) String() string {
	if self == BlockInvalid {
		return "blk?"
	} else {
		return fmt.Sprintf("blk%d", uint32(self))
	}
}

type Type uint8

const (
	TypeInvalid Type = iota
	I32
	I64
	F32
	F64
	Ptr
)

var _TypeNames = [...]string {
	TypeInvalid : "invalid",
	I32         : "i32",
	I64         : "i64",
	F32         : "f32",
	F64         : "f64",
	Ptr         : "ptr",
}

func (self Type) Bits() int {
	switch self {
		case I32, F32  : return 32
		case I64, F64  : return 64
		case Ptr       : return 64
		default        : panic("ir: invalid type")
	}
}

func (self Type) IsFloat() bool {
	return self == F32 || self == F64
}

func (self Type) String() string {
	if int(self) < len(_TypeNames) {
		return _TypeNames[self]
	} else {
		return fmt.Sprintf("type(%d)", uint8(self))
	}
}

// Encoding selects the machine encoding of an instruction. Recipe indexes
// into the target's recipe table, Bits carries recipe specific flags.
type Encoding struct {
	Recipe uint16
	Bits   uint16
}

func (self Encoding) IsLegal() bool {
	return self.Recipe != 0
}

func (self Encoding) String() string {
	if !self.IsLegal() {
		return "-"
	} else {
		return fmt.Sprintf("r%d#%02x", self.Recipe, self.Bits)
	}
}
