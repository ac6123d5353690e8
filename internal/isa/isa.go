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

package isa

import (
	`fmt`
	`sort`
	`sync`

	`github.com/cloudwego/cssa/ir`
)

type RegClass uint8

const (
	GPR RegClass = iota
	FPR
)

func (self RegClass) String() string {
	switch self {
		case GPR : return "gpr"
		case FPR : return "fpr"
		default  : return fmt.Sprintf("rc(%d)", uint8(self))
	}
}

type ConstraintKind uint8

const (
	ConstraintReg ConstraintKind = iota
	ConstraintFixed
	ConstraintTied
	ConstraintStack
)

// OperandConstraint restricts where an operand of an encoding may live.
type OperandConstraint struct {
	Kind  ConstraintKind
	Class RegClass
	Reg   uint8
}

// RecipeConstraints lists the constraints of the inputs and outputs of an
// encoding recipe.
type RecipeConstraints struct {
	Ins  []OperandConstraint
	Outs []OperandConstraint
}

// TargetISA describes the parts of a machine the register allocator needs.
//
// EmitCopy is the hook for the code emitter: it assembles a copy chosen by
// EncodeCopy between two hardware register numbers.
type TargetISA interface {
	Name() string
	RegClassOf(ty ir.Type) RegClass
	EncodeCopy(ty ir.Type) (ir.Encoding, bool)
	EmitCopy(enc ir.Encoding, dst uint8, src uint8) []byte
	OperandConstraints(enc ir.Encoding) (*RecipeConstraints, bool)
	LegalizeSignature(sig *ir.Signature)
}

var (
	targetsLock sync.RWMutex
	targetsTab  = make(map[string]func() TargetISA)
)

// Register makes a target available by name. Registering the same name twice
// panics.
func Register(name string, ctor func() TargetISA) {
	targetsLock.Lock()
	defer targetsLock.Unlock()

	/* check for duplicates */
	if _, ok := targetsTab[name]; ok {
		panic("isa: duplicated target " + name)
	} else {
		targetsTab[name] = ctor
	}
}

// Lookup creates an instance of the named target.
func Lookup(name string) (TargetISA, error) {
	targetsLock.RLock()
	ctor, ok := targetsTab[name]
	targetsLock.RUnlock()

	/* check for target */
	if !ok {
		return nil, fmt.Errorf("isa: unknown target %q", name)
	} else {
		return ctor(), nil
	}
}

// Targets lists all the registered target names in sorted order.
func Targets() []string {
	targetsLock.RLock()
	ret := make([]string, 0, len(targetsTab))

	/* collect all the names */
	for name := range targetsTab {
		ret = append(ret, name)
	}

	/* sort the names */
	targetsLock.RUnlock()
	sort.Strings(ret)
	return ret
}
