// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logctx defines the logging seam crossed by the EDHOC and
// OSCORE packages. Neither package prints directly; both accept a
// Logger and fall back to a no-op implementation when none is given, so
// the core has zero mandatory logging dependency.
package logctx

// Logger is the minimal tagged-message surface this module's packages
// call through, modeled on the "[SESSION_KEY] ..."-style calls used
// elsewhere in the pack. go.uber.org/zap's SugaredLogger already
// implements these four methods, so callers can plug it in without this
// module importing zap.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Noop discards every call. It is the default Logger when a caller
// leaves one unset.
type Noop struct{}

func (Noop) Debugf(string, ...interface{}) {}
func (Noop) Infof(string, ...interface{})  {}
func (Noop) Warnf(string, ...interface{})  {}
func (Noop) Errorf(string, ...interface{}) {}

// Default is the shared no-op Logger, reused instead of allocating a
// new Noop per context.
var Default Logger = Noop{}
