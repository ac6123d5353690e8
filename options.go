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

package cssa

import (
	`github.com/sirupsen/logrus`

	`github.com/cloudwego/cssa/internal/opts`
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithTarget selects the target ISA by name.
//
// This value can also be configured with the `CSSA_TARGET` environment
// variable.
//
// The default value of this option is "amd64".
func WithTarget(name string) Option {
	return func(o *opts.Options) { o.Target = name }
}

// WithVerify enables the interference check after coalescing. A failed check
// is reported as a CompileError.
//
// The default value of this option is "false".
func WithVerify(v bool) Option {
	return func(o *opts.Options) { o.Verify = v }
}

// WithMaxSynthesisRounds limits how many times the coalescer may rebuild
// interfering virtual registers in a single function before giving up.
//
// Set this option to "0" disables this limit.
//
// The default value of this option is "1048576".
func WithMaxSynthesisRounds(n int) Option {
	return func(o *opts.Options) { o.MaxSynthesisRounds = n }
}

// WithSplitBranchArgs routes every branch that passes block arguments, but is
// not the only branch of its block, through a new block holding a single
// jump before coalescing. Copies then never sit between two branches.
//
// The default value of this option is "false", which keeps the control flow
// of the function unchanged.
func WithSplitBranchArgs(v bool) Option {
	return func(o *opts.Options) { o.SplitBranchArgs = v }
}

// WithWorkers sets how many functions CoalesceAll processes at the same
// time. It has no effect on Coalesce.
//
// Set this option to "0" uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *opts.Options) { o.Workers = n }
}

// WithLogger sets the logger for debug output. Every entry carries the name
// of the function being coalesced.
func WithLogger(log *logrus.Logger) Option {
	return func(o *opts.Options) { o.Logger = log }
}

// SetVerify sets the default verification mode for all functions from now
// on.
//
// This value can also be configured with the `CSSA_VERIFY` environment
// variable.
//
// Returns the old opts.Verify value.
func SetVerify(v bool) bool {
	v, opts.Verify = opts.Verify, v
	return v
}

// SetMaxSynthesisRounds sets the default re-synthesis limit for all
// functions from now on.
//
// This value can also be configured with the `CSSA_MAX_SYNTHESIS_ROUNDS`
// environment variable.
//
// Returns the old opts.MaxSynthesisRounds value.
func SetMaxSynthesisRounds(n int) int {
	n, opts.MaxSynthesisRounds = opts.MaxSynthesisRounds, n
	return n
}

func buildOptions(options []Option) (opts.Options, error) {
	ret := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&ret)
	}

	/* validate the options */
	switch {
		case ret.MaxSynthesisRounds < 0 : return ret, &OptionError { Name: "MaxSynthesisRounds", Value: ret.MaxSynthesisRounds }
		case ret.Workers < 0            : return ret, &OptionError { Name: "Workers", Value: ret.Workers }
		case ret.Logger == nil          : return ret, &OptionError { Name: "Logger", Value: nil }
		default                         : return ret, nil
	}
}
