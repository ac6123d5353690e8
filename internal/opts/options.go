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

package opts

import (
	`sync`

	`github.com/sirupsen/logrus`
)

type Options struct {
	Target             string
	Verify             bool
	Workers            int
	MaxSynthesisRounds int
	SplitBranchArgs    bool
	Logger             *logrus.Logger
}

var (
	loggerOnce    sync.Once
	defaultLogger *logrus.Logger
)

// DefaultLogger returns the logger shared by every run that does not bring
// its own, at the level given by CSSA_LOG_LEVEL.
func DefaultLogger() *logrus.Logger {
	loggerOnce.Do(func() {
		defaultLogger = logrus.New()
		defaultLogger.SetLevel(LogLevel)
	})
	return defaultLogger
}

func GetDefaultOptions() Options {
	return Options {
		Target             : Target,
		Verify             : Verify,
		Workers            : Workers,
		MaxSynthesisRounds : MaxSynthesisRounds,
		Logger             : DefaultLogger(),
	}
}
