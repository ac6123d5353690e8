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

package regalloc

import (
	`fmt`

	`github.com/davecgh/go-spew/spew`
	`github.com/sirupsen/logrus`

	`github.com/cloudwego/cssa/ir`
)

type Pass interface {
	Apply(*Context)
}

type PassDescriptor struct {
	Pass Pass
	Name string
}

var Passes = [...]PassDescriptor {
	{ Name: "Branch Argument Splitting"  , Pass: new(SplitArgs) },
	{ Name: "Control Flow Graph"         , Pass: new(BuildCFG) },
	{ Name: "Dominator Tree"             , Pass: new(BuildDomTree) },
	{ Name: "ABI Legalization"           , Pass: new(LegalizeABI) },
	{ Name: "Liveness Analysis"          , Pass: new(ComputeLiveness) },
	{ Name: "Conventional SSA"           , Pass: new(CoalesceParams) },
	{ Name: "Interference Verification"  , Pass: new(VerifyCoalescing) },
}

// SplitArgs gives every branch with block arguments a block of its own. It
// changes the control flow, so it only runs when asked to.
type SplitArgs struct{}

func (SplitArgs) Apply(ctx *Context) {
	if !ctx.Options.SplitBranchArgs {
		return
	}

	/* route the edges through forwarding blocks */
	if n := ir.SplitBranchArgs(ctx.Func); n != 0 {
		ctx.Log.Debugf("inserted %d forwarding blocks", n)
	}
}

type BuildCFG struct{}

func (BuildCFG) Apply(ctx *Context) {
	ctx.CFG.Compute(ctx.Func)
}

type BuildDomTree struct{}

func (BuildDomTree) Apply(ctx *Context) {
	ctx.DomTree = ir.ComputeDominatorTree(ctx.Func, ctx.CFG)
}

// LegalizeABI assigns argument locations to the signature, and checks that
// it agrees with the entry block.
type LegalizeABI struct{}

func (LegalizeABI) Apply(ctx *Context) {
	fn := ctx.Func
	ctx.ISA.LegalizeSignature(&fn.Signature)

	/* the entry block receives the function arguments */
	if np, na := len(fn.BlockParams(fn.Layout.EntryBlock())), len(fn.Signature.Params); np != na {
		panic(fmt.Sprintf("regalloc: entry block of %s has %d parameters, but the signature has %d", fn.Name, np, na))
	}
}

type ComputeLiveness struct{}

func (ComputeLiveness) Apply(ctx *Context) {
	ctx.Liveness.Compute(ctx.ISA, ctx.Func, ctx.CFG)
}

// CoalesceParams runs both phases of the coalescing.
type CoalesceParams struct{}

func (CoalesceParams) Apply(ctx *Context) {
	cc := ctx.Coalescing
	cc.Log = ctx.Log.WithField("pass", "cssa")
	cc.MaxRounds = ctx.Options.MaxSynthesisRounds

	/* dump the function before and after */
	if ctx.Log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		ctx.Log.Tracef("before coalescing:\n%s", ctx.Func)
		defer func() { ctx.Log.Tracef("after coalescing:\n%s", ctx.Func) }()
	}

	/* coalesce the block parameters */
	cc.ConventionalSSA(ctx.ISA, ctx.Func, ctx.CFG, ctx.DomTree, ctx.Liveness, ctx.VirtRegs)
}

// VerifyCoalescing re-checks the partition when verification is enabled.
type VerifyCoalescing struct{}

func (VerifyCoalescing) Apply(ctx *Context) {
	if !ctx.Options.Verify {
		return
	}

	/* check for interference */
	err := Verify(ctx.Func, ctx.CFG, ctx.DomTree, ctx.Liveness, ctx.VirtRegs)
	if err == nil {
		return
	}

	/* dump the offending ranges */
	if e, ok := err.(*InterferenceError); ok {
		ctx.Log.Errorf("%v\n%s%s", err, spew.Sdump(ctx.Liveness.Get(e.Values[0])), spew.Sdump(ctx.Liveness.Get(e.Values[1])))
	}

	/* verification failure is a bug */
	panic(err)
}
