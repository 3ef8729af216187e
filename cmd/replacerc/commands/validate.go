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

package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/replacerc/cmd/replacerc/opts"
	"github.com/walteh/replacerc/pkg/rule"
)

// NewValidateCmd creates the validate command
func NewValidateCmd(ro *opts.RootOpts) *cobra.Command {
	var isRegex bool

	cmd := &cobra.Command{
		Use:   "validate <pattern>",
		Short: "Check whether a pattern can be used in a rule",
		Args:  cobra.ExactArgs(1),
		Annotations: map[string]string{
			opts.SkipSetup: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v := rule.ValidatePattern(args[0], isRegex)
			if !v.Valid {
				ro.Reporter.Error(v.Message())
				return v.Err
			}
			ro.Reporter.Success("pattern is valid")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&isRegex, "regex", "r", false, "treat the pattern as a regular expression")

	return cmd
}
