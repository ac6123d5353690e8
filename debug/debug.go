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

package debug

import (
	"sync/atomic"

	"github.com/cloudwego/cssa/internal/regalloc"
)

// A Stats records statistics about the coalescer, summed over every function
// coalesced so far.
type Stats struct {
	Funcs    int
	Copies   int
	Rounds   int
	Dropped  int
	VirtRegs int
}

// GetStats returns statistics of the coalescer.
func GetStats() Stats {
	return Stats{
		Funcs:    int(atomic.LoadUint64(&regalloc.FuncCount)),
		Copies:   int(atomic.LoadUint64(&regalloc.CopyCount)),
		Rounds:   int(atomic.LoadUint64(&regalloc.RoundCount)),
		Dropped:  int(atomic.LoadUint64(&regalloc.DropCount)),
		VirtRegs: int(atomic.LoadUint64(&regalloc.VRegCount)),
	}
}
