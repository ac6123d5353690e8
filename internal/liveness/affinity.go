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

package liveness

import (
	`fmt`

	`github.com/cloudwego/cssa/internal/isa`
	`github.com/cloudwego/cssa/ir`
)

type AffinityKind uint8

const (
	AffinityUnassigned AffinityKind = iota
	AffinityReg
	AffinityStack
)

// Affinity is a hint about where a value would prefer to live.
type Affinity struct {
	Kind  AffinityKind
	Class isa.RegClass
}

func RegAffinity(rc isa.RegClass) Affinity {
	return Affinity { Kind: AffinityReg, Class: rc }
}

// AffinityOf derives an affinity from an operand constraint.
func AffinityOf(oc isa.OperandConstraint) Affinity {
	if oc.Kind == isa.ConstraintStack {
		return Affinity { Kind: AffinityStack }
	} else {
		return RegAffinity(oc.Class)
	}
}

// AffinityOfArg derives an affinity from an ABI argument location.
func AffinityOfArg(loc ir.ArgLocation, rc isa.RegClass) Affinity {
	switch loc.Kind {
		case ir.ArgReg   : return RegAffinity(rc)
		case ir.ArgStack : return Affinity { Kind: AffinityStack }
		default          : return Affinity{}
	}
}

func (self Affinity) IsStack() bool {
	return self.Kind == AffinityStack
}

func (self Affinity) String() string {
	switch self.Kind {
		case AffinityReg   : return self.Class.String()
		case AffinityStack : return "stack"
		default            : return "unassigned"
	}
}

// Interval is the part of a live range inside a block where the value is
// live-in, from the block header up to and including End.
type Interval struct {
	Block ir.Block
	End   ir.Inst
}

func (self Interval) String() string {
	return fmt.Sprintf("%s-%s", self.Block, self.End)
}
