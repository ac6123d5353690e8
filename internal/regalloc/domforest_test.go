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
	`testing`

	`github.com/stretchr/testify/require`

	`github.com/cloudwego/cssa/ir`
)

func TestDomForest_Push(t *testing.T) {
	fn := buildDiamond()
	ctx := prepare(t, fn)
	pre := ir.NewDominatorTreePreorder()
	pre.Compute(ctx.DomTree)

	/* collect the values */
	blocks := fn.Layout.Blocks()
	c := fn.BlockParams(blocks[0])[0]
	x := fn.BranchArgs(fn.Layout.LastInst(blocks[1]))[0]
	y := fn.BranchArgs(fn.Layout.LastInst(blocks[2]))[0]
	r := fn.BlockParams(blocks[3])[0]

	/* build the nodes */
	node := func(v ir.Value) DomNode {
		return DomNode { Value: v, Def: fn.ValueDef(v).Point(), Block: fn.DefBlock(v) }
	}

	/* the first push starts a tree */
	var df DomForest
	_, ok := df.Push(node(c), &fn.Layout, ctx.DomTree, pre)
	require.False(t, ok)

	/* both arms are dominated by the entry */
	p, ok := df.Push(node(x), &fn.Layout, ctx.DomTree, pre)
	require.True(t, ok)
	require.Equal(t, c, p.Value)
	p, ok = df.Push(node(y), &fn.Layout, ctx.DomTree, pre)
	require.True(t, ok)
	require.Equal(t, c, p.Value)
	require.False(t, df.Contains(x))

	/* so is the join */
	p, ok = df.Push(node(r), &fn.Layout, ctx.DomTree, pre)
	require.True(t, ok)
	require.Equal(t, c, p.Value)
	require.Equal(t, 2, df.Len())
	require.True(t, df.Contains(c))
	require.True(t, df.Contains(r))
	require.False(t, df.Contains(y))

	/* removing keeps the rest in order */
	require.True(t, df.Remove(c))
	require.False(t, df.Remove(c))
	require.Equal(t, 1, df.Len())
	require.False(t, df.Contains(c))
	require.True(t, df.Contains(r))

	/* clearing empties the stack */
	df.Clear()
	require.Equal(t, 0, df.Len())
	t.Log(node(r))
}
