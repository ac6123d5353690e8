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
	`github.com/klauspost/cpuid/v2`

	`github.com/cloudwego/cssa/internal/isa`
	`github.com/cloudwego/cssa/internal/opts`
	`github.com/cloudwego/cssa/ir`
)

const (
	Name = "amd64"
)

const (
	_R_invalid uint16 = iota
	_R_movq_rr
	_R_movaps_rr
	_R_vmovaps_rr
)

const (
	_B_vex uint16 = 1 << iota
)

var _RecipeNames = [...]string {
	_R_movq_rr    : "movq",
	_R_movaps_rr  : "movaps",
	_R_vmovaps_rr : "vmovaps",
}

var _RecipeTab = [...]isa.RecipeConstraints {
	_R_movq_rr: {
		Ins  : []isa.OperandConstraint {{ Kind: isa.ConstraintReg, Class: isa.GPR }},
		Outs : []isa.OperandConstraint {{ Kind: isa.ConstraintReg, Class: isa.GPR }},
	},
	_R_movaps_rr: {
		Ins  : []isa.OperandConstraint {{ Kind: isa.ConstraintReg, Class: isa.FPR }},
		Outs : []isa.OperandConstraint {{ Kind: isa.ConstraintReg, Class: isa.FPR }},
	},
	_R_vmovaps_rr: {
		Ins  : []isa.OperandConstraint {{ Kind: isa.ConstraintReg, Class: isa.FPR }},
		Outs : []isa.OperandConstraint {{ Kind: isa.ConstraintReg, Class: isa.FPR }},
	},
}

// System V argument registers, numbered the way the hardware encodes them.
var (
	_IntArgRegs   = [...]uint8 { 7, 6, 2, 1, 8, 9 }
	_FloatArgRegs = [...]uint8 { 0, 1, 2, 3, 4, 5, 6, 7 }
)

type Target struct {
	avx bool
}

func init() {
	isa.Register(Name, func() isa.TargetISA { return New() })
}

// New creates the target for the host CPU. AVX encodings are used when the
// CPU supports them, unless CSSA_NO_AVX is set.
func New() *Target {
	return NewWithFeatures(cpuid.CPU.Supports(cpuid.AVX) && !opts.NoAVX)
}

func NewWithFeatures(avx bool) *Target {
	return &Target { avx: avx }
}

func (self *Target) Name() string {
	return Name
}

func (self *Target) HasAVX() bool {
	return self.avx
}

func (self *Target) RegClassOf(ty ir.Type) isa.RegClass {
	if ty.IsFloat() {
		return isa.FPR
	} else {
		return isa.GPR
	}
}

func (self *Target) EncodeCopy(ty ir.Type) (ir.Encoding, bool) {
	switch ty {
		case ir.I32, ir.I64, ir.Ptr : return ir.Encoding { Recipe: _R_movq_rr }, true
		case ir.F32, ir.F64         : return self.encodeFloatCopy(), true
		default                     : return ir.Encoding{}, false
	}
}

func (self *Target) encodeFloatCopy() ir.Encoding {
	if self.avx {
		return ir.Encoding { Recipe: _R_vmovaps_rr, Bits: _B_vex }
	} else {
		return ir.Encoding { Recipe: _R_movaps_rr }
	}
}

func (self *Target) OperandConstraints(enc ir.Encoding) (*isa.RecipeConstraints, bool) {
	if enc.Recipe == _R_invalid || int(enc.Recipe) >= len(_RecipeTab) {
		return nil, false
	} else {
		return &_RecipeTab[enc.Recipe], true
	}
}

// RecipeName returns the mnemonic of an encoding recipe.
func (self *Target) RecipeName(enc ir.Encoding) string {
	if int(enc.Recipe) >= len(_RecipeNames) || _RecipeNames[enc.Recipe] == "" {
		return enc.String()
	} else {
		return _RecipeNames[enc.Recipe]
	}
}

// LegalizeSignature assigns System V locations to every parameter that does
// not have one yet. Parameters that run out of registers go to the stack in
// 8-byte slots.
func (self *Target) LegalizeSignature(sig *ir.Signature) {
	ni, nf, ns := 0, 0, int32(0)

	/* new stack slots go after the ones already assigned */
	for _, p := range sig.Params {
		if p.Location.IsStack() && p.Location.Offset + 8 > ns {
			ns = p.Location.Offset + 8
		}
	}

	/* assign the registers in order */
	for i := range sig.Params {
		p := &sig.Params[i]

		/* stack slots keep their offsets */
		if p.Location.IsStack() {
			continue
		}

		/* pick the next free register of the class */
		if p.Type.IsFloat() && nf < len(_FloatArgRegs) {
			if !p.Location.IsAssigned() { p.Location = ir.RegArg(_FloatArgRegs[nf]) }
			nf++
			continue
		} else if !p.Type.IsFloat() && ni < len(_IntArgRegs) {
			if !p.Location.IsAssigned() { p.Location = ir.RegArg(_IntArgRegs[ni]) }
			ni++
			continue
		}

		/* out of registers, spill to stack */
		if !p.Location.IsAssigned() {
			p.Location = ir.StackArg(ns)
			ns += 8
		}
	}

	/* return values always use registers */
	ri, rf := 0, 0
	for i := range sig.Returns {
		if p := &sig.Returns[i]; !p.Location.IsAssigned() {
			if p.Type.IsFloat() {
				p.Location = ir.RegArg(uint8(rf))
				rf++
			} else {
				p.Location = ir.RegArg(_ReturnRegs[ri % len(_ReturnRegs)])
				ri++
			}
		}
	}
}

var _ReturnRegs = [...]uint8 { 0, 2 }
