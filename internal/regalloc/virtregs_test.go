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

func TestVirtRegs_UnionFind(t *testing.T) {
	var nr []VirtReg
	vr := NewVirtRegs()

	/* two sets and a pair unioned twice */
	vr.Union(1, 2)
	vr.Union(3, 2)
	vr.Union(5, 6)
	vr.Union(6, 5)
	require.Equal(t, 3, vr.Unions())
	require.Equal(t, NoVirtReg, vr.Get(1))

	/* finish them */
	vr.FinishUnionFind(&nr)
	require.Len(t, nr, 2)
	require.Equal(t, 2, vr.Len())
	require.Equal(t, vr.Get(1), vr.Get(2))
	require.Equal(t, vr.Get(1), vr.Get(3))
	require.Equal(t, vr.Get(5), vr.Get(6))
	require.NotEqual(t, vr.Get(1), vr.Get(5))
	require.Equal(t, NoVirtReg, vr.Get(4))
	require.Equal(t, NoVirtReg, vr.Get(100))
	require.Equal(t, []ir.Value { 1, 2, 3 }, vr.Values(vr.Get(1)))
	t.Log("\n" + vr.String())

	/* assigned values are frozen */
	require.Panics(t, func() { vr.Union(1, 4) })
	require.Panics(t, func() { vr.Union(7, 6) })
}

func TestVirtRegs_Remove(t *testing.T) {
	var nr []VirtReg
	vr := NewVirtRegs()
	vr.Union(1, 2)
	vr.Union(2, 3)
	vr.Union(7, 8)
	vr.FinishUnionFind(nil)

	/* dissolve the first register */
	old := vr.Get(1)
	vr.Remove(old)
	require.Equal(t, 1, vr.Len())
	require.Equal(t, NoVirtReg, vr.Get(2))
	require.Equal(t, []VirtReg { vr.Get(7) }, vr.AllVirtRegs())
	require.Panics(t, func() { vr.Remove(old) })

	/* the members can be regrouped */
	vr.Union(1, 2)
	vr.FinishUnionFind(&nr)
	require.Equal(t, []VirtReg { vr.Get(1) }, nr)
	require.NotEqual(t, old, vr.Get(1))
	require.Equal(t, NoVirtReg, vr.Get(3))
	require.Equal(t, 2, vr.Len())
}

func TestVirtRegs_SortValues(t *testing.T) {
	vr := NewVirtRegs()
	vr.Union(9, 4)
	vr.Union(4, 6)
	vr.FinishUnionFind(nil)

	/* sort in reverse order */
	vals := vr.SortValues(vr.Get(4), func(a ir.Value, b ir.Value) bool { return a > b })
	require.Equal(t, []ir.Value { 9, 6, 4 }, vals)
	require.Equal(t, vals, vr.Values(vr.Get(9)))

	/* clearing drops everything */
	vr.Clear()
	require.Equal(t, 0, vr.Len())
	require.Equal(t, NoVirtReg, vr.Get(9))
	require.Empty(t, vr.AllVirtRegs())
}
