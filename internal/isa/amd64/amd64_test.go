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
	`testing`

	`github.com/davecgh/go-spew/spew`
	`github.com/stretchr/testify/require`
	`golang.org/x/arch/x86/x86asm`

	`github.com/cloudwego/cssa/internal/isa`
	`github.com/cloudwego/cssa/ir`
)

func decode(t *testing.T, buf []byte) x86asm.Inst {
	ins, err := x86asm.Decode(buf, 64)
	require.NoError(t, err)
	require.Equal(t, len(buf), ins.Len, "trailing bytes: %s", spew.Sdump(buf))
	t.Log(x86asm.GNUSyntax(ins, 0, nil))
	return ins
}

func TestAMD64_EmitGPRCopy(t *testing.T) {
	tt := NewWithFeatures(false)
	enc, ok := tt.EncodeCopy(ir.I64)
	require.True(t, ok)

	/* movq %rax, %rcx */
	ins := decode(t, tt.EmitCopy(enc, 1, 0))
	require.Equal(t, x86asm.MOV, ins.Op)
	require.Equal(t, x86asm.RCX, ins.Args[0])
	require.Equal(t, x86asm.RAX, ins.Args[1])

	/* movq %r9, %r15 */
	ins = decode(t, tt.EmitCopy(enc, 15, 9))
	require.Equal(t, x86asm.MOV, ins.Op)
	require.Equal(t, x86asm.R15, ins.Args[0])
	require.Equal(t, x86asm.R9, ins.Args[1])
}

func TestAMD64_EmitFPRCopy(t *testing.T) {
	tt := NewWithFeatures(false)
	enc, ok := tt.EncodeCopy(ir.F64)
	require.True(t, ok)
	require.Equal(t, "movaps", tt.RecipeName(enc))

	/* movaps %xmm0, %xmm1 */
	ins := decode(t, tt.EmitCopy(enc, 1, 0))
	require.Equal(t, x86asm.MOVAPS, ins.Op)
	require.Equal(t, x86asm.X1, ins.Args[0])
	require.Equal(t, x86asm.X0, ins.Args[1])
}

func TestAMD64_EmitVEXCopy(t *testing.T) {
	tt := NewWithFeatures(true)
	enc, ok := tt.EncodeCopy(ir.F32)
	require.True(t, ok)
	require.Equal(t, "vmovaps", tt.RecipeName(enc))

	/* x86asm does not decode VEX, just check the prefix */
	buf := tt.EmitCopy(enc, 2, 3)
	require.NotEmpty(t, buf)
	require.Contains(t, []byte { 0xc4, 0xc5 }, buf[0], spew.Sdump(buf))
}

func TestAMD64_EmitInvalid(t *testing.T) {
	tt := NewWithFeatures(false)
	require.Panics(t, func() { tt.EmitCopy(ir.Encoding{}, 0, 1) })
	require.Panics(t, func() { tt.EmitCopy(ir.Encoding { Recipe: _R_movq_rr }, 16, 1) })
}

func TestAMD64_CopyConstraints(t *testing.T) {
	tt := NewWithFeatures(false)
	for _, ty := range []ir.Type { ir.I32, ir.I64, ir.Ptr, ir.F32, ir.F64 } {
		enc, ok := tt.EncodeCopy(ty)
		require.True(t, ok, ty.String())
		rc, ok := tt.OperandConstraints(enc)
		require.True(t, ok, ty.String())
		require.Len(t, rc.Outs, 1)
		require.Equal(t, tt.RegClassOf(ty), rc.Outs[0].Class)
		require.Equal(t, isa.ConstraintReg, rc.Outs[0].Kind)
	}

	/* no encoding for invalid types */
	_, ok := tt.EncodeCopy(ir.TypeInvalid)
	require.False(t, ok)
	_, ok = tt.OperandConstraints(ir.Encoding{})
	require.False(t, ok)
}

func TestAMD64_LegalizeSignature(t *testing.T) {
	tt := NewWithFeatures(false)
	sig := ir.Sig([]ir.Type {
		ir.I64, ir.F64, ir.I64, ir.I64, ir.I64, ir.I64, ir.I64, ir.I64, ir.F32,
	}, ir.I64)

	/* pin the 3rd argument to the stack */
	sig.Params[2].Location = ir.StackArg(0)
	tt.LegalizeSignature(&sig)

	/* check every location */
	require.Equal(t, ir.RegArg(7), sig.Params[0].Location)
	require.Equal(t, ir.RegArg(0), sig.Params[1].Location)
	require.Equal(t, ir.StackArg(0), sig.Params[2].Location)
	require.Equal(t, ir.RegArg(6), sig.Params[3].Location)
	require.Equal(t, ir.RegArg(2), sig.Params[4].Location)
	require.Equal(t, ir.RegArg(1), sig.Params[5].Location)
	require.Equal(t, ir.RegArg(8), sig.Params[6].Location)
	require.Equal(t, ir.RegArg(9), sig.Params[7].Location)
	require.Equal(t, ir.RegArg(1), sig.Params[8].Location)
	require.Equal(t, ir.RegArg(0), sig.Returns[0].Location)
}

func TestAMD64_Lookup(t *testing.T) {
	tt, err := isa.Lookup(Name)
	require.NoError(t, err)
	require.Equal(t, Name, tt.Name())
	require.Contains(t, isa.Targets(), Name)
	_, err = isa.Lookup("pdp11")
	require.Error(t, err)

	/* copies are emitted through the interface */
	enc, ok := tt.EncodeCopy(ir.I64)
	require.True(t, ok)
	ins := decode(t, tt.EmitCopy(enc, 3, 7))
	require.Equal(t, x86asm.MOV, ins.Op)
	require.Equal(t, x86asm.RBX, ins.Args[0])
	require.Equal(t, x86asm.RDI, ins.Args[1])
}
