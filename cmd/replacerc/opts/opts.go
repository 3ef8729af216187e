// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package opts

import (
	"github.com/walteh/replacerc/pkg/config"
	"github.com/walteh/replacerc/pkg/log"
	"github.com/walteh/replacerc/pkg/operation"
	"github.com/walteh/replacerc/pkg/store"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string // Explicit config path, discovered from the working directory when empty
	Debug      bool
	Book       string // Book key for book and single scoped rules

	Config   *config.Config
	Store    store.Store
	Operator operation.Operator
	Reporter *log.Logger
}

// SkipSetup is the annotation key of commands that run without a config or store
const SkipSetup = "replacerc/skip-setup"
