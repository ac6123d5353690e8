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

package amd64

import (
	`fmt`

	`github.com/chenzhuoyu/iasm/x86_64`

	`github.com/cloudwego/cssa/ir`
)

var _GPRegs = [16]x86_64.Register64 {
	x86_64.RAX, x86_64.RCX, x86_64.RDX, x86_64.RBX,
	x86_64.RSP, x86_64.RBP, x86_64.RSI, x86_64.RDI,
	x86_64.R8 , x86_64.R9 , x86_64.R10, x86_64.R11,
	x86_64.R12, x86_64.R13, x86_64.R14, x86_64.R15,
}

var _XMMRegs = [16]x86_64.XMMRegister {
	x86_64.XMM0 , x86_64.XMM1 , x86_64.XMM2 , x86_64.XMM3 ,
	x86_64.XMM4 , x86_64.XMM5 , x86_64.XMM6 , x86_64.XMM7 ,
	x86_64.XMM8 , x86_64.XMM9 , x86_64.XMM10, x86_64.XMM11,
	x86_64.XMM12, x86_64.XMM13, x86_64.XMM14, x86_64.XMM15,
}

// EmitCopy assembles a register to register copy with the given encoding.
// Registers are numbered the way the hardware encodes them.
func (self *Target) EmitCopy(enc ir.Encoding, dst uint8, src uint8) []byte {
	p := x86_64.DefaultArch.CreateProgram()
	defer p.Free()

	/* check the register number */
	if dst >= 16 || src >= 16 {
		panic(fmt.Sprintf("amd64: invalid register for copy: %d <- %d", dst, src))
	}

	/* select the instruction by recipe */
	switch enc.Recipe {
		case _R_movq_rr    : p.MOVQ(_GPRegs[src], _GPRegs[dst])
		case _R_movaps_rr  : p.MOVAPS(_XMMRegs[src], _XMMRegs[dst])
		case _R_vmovaps_rr : p.VMOVAPS(_XMMRegs[src], _XMMRegs[dst])
		default            : panic("amd64: not a copy encoding: " + self.RecipeName(enc))
	}

	/* assemble the program */
	return p.Assemble(0)
}
