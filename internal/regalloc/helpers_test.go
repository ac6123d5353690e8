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
	`strings`
	`testing`

	`github.com/sirupsen/logrus`

	`github.com/cloudwego/cssa/internal/isa/amd64`
	`github.com/cloudwego/cssa/internal/opts`
	`github.com/cloudwego/cssa/ir`
)

type testWriter struct {
	t *testing.T
}

func (self testWriter) Write(p []byte) (int, error) {
	self.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func testOptions(t *testing.T) opts.Options {
	log := logrus.New()
	log.SetOutput(testWriter { t })
	log.SetLevel(logrus.DebugLevel)

	/* always verify in tests */
	return opts.Options {
		Target             : "amd64",
		Verify             : true,
		MaxSynthesisRounds : 1 << 16,
		Logger             : log,
	}
}

// prepare runs every pass before coalescing.
func prepare(t *testing.T, fn *ir.Function) *Context {
	ctx := NewContext()
	ctx.Func = fn
	ctx.ISA = amd64.NewWithFeatures(false)
	ctx.Options = testOptions(t)
	ctx.Log = ctx.Options.Logger.WithField("func", fn.Name)

	/* stop right before the coalescing */
	for _, p := range Passes {
		if _, ok := p.Pass.(*CoalesceParams); ok {
			break
		}
		p.Pass.Apply(ctx)
	}

	/* all done */
	return ctx
}

func coalesce(t *testing.T, fn *ir.Function) (*Context, *Result) {
	ctx := NewContext()
	ret := ctx.Run(fn, amd64.NewWithFeatures(false), testOptions(t))
	t.Logf("%s\n%s\n%s", fn, ctx.VirtRegs, ret.Stats)
	return ctx, ret
}

func i64s(n int) []ir.Type {
	ret := make([]ir.Type, n)
	for i := range ret {
		ret[i] = ir.I64
	}
	return ret
}

// blk0(c):    brz c, blk2; jump blk1
// blk1:       x = iconst 1; jump blk3(x)
// blk2:       y = iconst 2; jump blk3(y)
// blk3(r):    return r
func buildDiamond() *ir.Function {
	fn := ir.NewFunction("diamond", ir.Sig(i64s(1), ir.I64))
	bd := ir.NewBuilder(fn)
	_, args := bd.CreateEntryBlock()
	b1 := bd.CreateBlock()
	b2 := bd.CreateBlock()
	b3 := bd.CreateBlock()
	r := bd.AppendBlockParam(b3, ir.I64)

	/* entry */
	bd.Brz(args[0], b2)
	bd.Jump(b1)

	/* both arms */
	bd.SwitchToBlock(b1)
	bd.Jump(b3, bd.Iconst(ir.I64, 1))
	bd.SwitchToBlock(b2)
	bd.Jump(b3, bd.Iconst(ir.I64, 2))

	/* join */
	bd.SwitchToBlock(b3)
	bd.Return(r)
	return fn
}
