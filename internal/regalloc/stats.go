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
	`sync/atomic`
)

// Stats records what a single coalescing run did to a function.
type Stats struct {
	ParamCopies     int
	ArgCopies       int
	PinnedCopies    int
	SynthesisCopies int
	Rounds          int
	Dropped         int
	Unions          int
	VirtRegs        int
}

// Copies counts every copy inserted, for whatever reason.
func (self Stats) Copies() int {
	return self.ParamCopies + self.ArgCopies + self.PinnedCopies + self.SynthesisCopies
}

func (self Stats) String() string {
	return fmt.Sprintf(
		"copies=%d (param=%d arg=%d pinned=%d synthesis=%d) rounds=%d dropped=%d unions=%d vregs=%d",
		self.Copies(),
		self.ParamCopies,
		self.ArgCopies,
		self.PinnedCopies,
		self.SynthesisCopies,
		self.Rounds,
		self.Dropped,
		self.Unions,
		self.VirtRegs,
	)
}

// Process-wide counters, summed over every run.
var (
	FuncCount  uint64
	CopyCount  uint64
	RoundCount uint64
	DropCount  uint64
	VRegCount  uint64
)

func (self Stats) record() {
	atomic.AddUint64(&FuncCount, 1)
	atomic.AddUint64(&CopyCount, uint64(self.Copies()))
	atomic.AddUint64(&RoundCount, uint64(self.Rounds))
	atomic.AddUint64(&DropCount, uint64(self.Dropped))
	atomic.AddUint64(&VRegCount, uint64(self.VirtRegs))
}
