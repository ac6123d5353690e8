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
	`strings`
)

func joinValues(vals []Value) string {
	ret := make([]string, 0, len(vals))
	for _, v := range vals {
		ret = append(ret, v.String())
	}
	return strings.Join(ret, ", ")
}

func (self *Function) formatDest(p *InstData) string {
	if len(p.VarArgs) == 0 {
		return p.Dest.String()
	} else {
		return fmt.Sprintf("%s(%s)", p.Dest, joinValues(p.VarArgs))
	}
}

// FormatInst renders a single instruction.
func (self *Function) FormatInst(ins Inst) string {
	var ret strings.Builder
	var p = &self.insts[ins]

	/* result values */
	if len(p.Results) != 0 {
		ret.WriteString(joinValues(p.Results))
		ret.WriteString(" = ")
	}

	/* opcode and operands */
	switch ret.WriteString(p.Opcode.String()); p.Opcode {
		case OpIconst : fmt.Fprintf(&ret, ".%s %d", self.ValueType(p.Results[0]), p.Imm)
		case OpFconst : fmt.Fprintf(&ret, ".%s %g", self.ValueType(p.Results[0]), math.Float64frombits(uint64(p.Imm)))
		case OpLoad   : fmt.Fprintf(&ret, ".%s %s", self.ValueType(p.Results[0]), p.Args[0])
		case OpCall   : fmt.Fprintf(&ret, " %%%s(%s)", p.Callee, joinValues(p.Args))
		case OpJump   : fmt.Fprintf(&ret, " %s", self.formatDest(p))
		case OpBrz    : fallthrough
		case OpBrnz   : fmt.Fprintf(&ret, " %s, %s", p.Args[0], self.formatDest(p))
		default       : if len(p.Args) != 0 { fmt.Fprintf(&ret, " %s", joinValues(p.Args)) }
	}

	/* encoding, if any */
	if enc, ok := self.Encodings[ins]; ok {
		fmt.Fprintf(&ret, " ; %s", enc)
	}

	/* all done */
	return ret.String()
}

func (self *Function) formatParams(bb Block) string {
	ps := self.blocks[bb].Params
	ret := make([]string, 0, len(ps))

	/* format each parameter with its type */
	for _, v := range ps {
		ret = append(ret, fmt.Sprintf("%s: %s", v, self.ValueType(v)))
	}

	/* all done */
	return strings.Join(ret, ", ")
}

func (self *Function) formatSignature() string {
	ret := make([]string, 0, len(self.Signature.Params))
	for _, p := range self.Signature.Params {
		if p.Location.IsAssigned() {
			ret = append(ret, fmt.Sprintf("%s [%s]", p.Type, p.Location))
		} else {
			ret = append(ret, p.Type.String())
		}
	}
	return strings.Join(ret, ", ")
}

func (self *Function) String() string {
	ret := []string {
		fmt.Sprintf("function %%%s(%s) {", self.Name, self.formatSignature()),
	}

	/* dump every block in layout order */
	for _, bb := range self.Layout.Blocks() {
		if len(self.blocks[bb].Params) == 0 {
			ret = append(ret, bb.String() + ":")
		} else {
			ret = append(ret, fmt.Sprintf("%s(%s):", bb, self.formatParams(bb)))
		}

		/* dump the instructions */
		for _, ins := range self.Layout.BlockInsts(bb) {
			ret = append(ret, "    " + self.FormatInst(ins))
		}
	}

	/* join them together */
	ret = append(ret, "}")
	return strings.Join(ret, "\n")
}
