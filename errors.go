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
	`fmt`
)

// CompileError occures when coalescing a function fails. The function may
// have been partially rewritten and should be discarded.
type CompileError struct {
	Func   string
	Reason string
	Cause  error
}

func (self CompileError) Error() string {
	return fmt.Sprintf("CompileError(%s): %s", self.Func, self.Reason)
}

func (self CompileError) Unwrap() error {
	return self.Cause
}

// OptionError occures when an option has an invalid value.
type OptionError struct {
	Name  string
	Value interface{}
}

func (self OptionError) Error() string {
	return fmt.Sprintf("OptionError(%s): invalid value: %v", self.Name, self.Value)
}
