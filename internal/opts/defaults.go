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
	`os`
	`runtime`
	`strconv`

	`github.com/sirupsen/logrus`
)

const (
	_DefaultTarget             = "amd64"
	_DefaultMaxSynthesisRounds = 1 << 20    // runaway re-synthesis guard
	_DefaultLogLevel           = logrus.WarnLevel
)

var (
	Target             = stringOrDefault("CSSA_TARGET", _DefaultTarget)
	Verify             = boolOrDefault("CSSA_VERIFY", false)
	NoAVX              = boolOrDefault("CSSA_NO_AVX", false)
	Workers            = parseOrDefault("CSSA_WORKERS", runtime.GOMAXPROCS(0), 0)
	MaxSynthesisRounds = parseOrDefault("CSSA_MAX_SYNTHESIS_ROUNDS", _DefaultMaxSynthesisRounds, -1)
	LogLevel           = levelOrDefault("CSSA_LOG_LEVEL", _DefaultLogLevel)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("cssa: invalid value for " + key)
	} else if ret := int(val); ret <= min {
		panic("cssa: value too small for " + key)
	} else {
		return ret
	}
}

func boolOrDefault(key string, def bool) bool {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseBool(env); err != nil {
		panic("cssa: invalid value for " + key)
	} else {
		return val
	}
}

func stringOrDefault(key string, def string) string {
	if env := os.Getenv(key); env == "" {
		return def
	} else {
		return env
	}
}

func levelOrDefault(key string, def logrus.Level) logrus.Level {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := logrus.ParseLevel(env); err != nil {
		panic("cssa: invalid value for " + key)
	} else {
		return val
	}
}
