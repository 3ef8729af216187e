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
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/replacerc/cmd/replacerc/opts"
	"github.com/walteh/replacerc/pkg/rule"
	"gitlab.com/tozd/go/errors"
)

// NewRulesCmd creates the rules command and its lifecycle subcommands
func NewRulesCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List and edit replacement rules",
	}

	cmd.AddCommand(
		newRulesListCmd(ro),
		newRulesAddCmd(ro),
		newRulesRemoveCmd(ro),
		newRulesToggleCmd(ro),
		newRulesUpdateCmd(ro),
	)

	return cmd
}

// scopeFlag resolves --scope, defaulting to book when a book key is set
func scopeFlag(ro *opts.RootOpts, raw string) (rule.Scope, error) {
	if raw == "" {
		if ro.Book != "" {
			return rule.ScopeBook, nil
		}
		return rule.ScopeGlobal, nil
	}
	scope, err := rule.ParseScope(raw)
	if err != nil {
		return "", err
	}
	if scope != rule.ScopeGlobal && ro.Book == "" {
		return "", errors.Errorf("--book is required for %s rules", scope)
	}
	return scope, nil
}

func scopeOf(r rule.Rule) rule.Scope {
	switch {
	case r.SingleInstance:
		return rule.ScopeSingle
	case r.Global:
		return rule.ScopeGlobal
	default:
		return rule.ScopeBook
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// renderRules formats a rule collection as a table
func renderRules(rules []rule.Rule) (string, error) {
	data := pterm.TableData{{"ID", "Scope", "Pattern", "Replacement", "Regex", "Case", "Enabled", "Order", "Target"}}
	for _, r := range rules {
		target := ""
		if r.SingleInstance {
			target = fmt.Sprintf("%s #%d", r.SectionScope, r.Occurrence())
		} else if r.SectionScope != "" {
			target = r.SectionScope
		}
		data = append(data, []string{
			r.ID,
			string(scopeOf(r)),
			strconv.Quote(r.Pattern),
			strconv.Quote(r.Replacement),
			yesNo(r.IsRegex),
			yesNo(r.CaseSensitive),
			yesNo(r.Enabled),
			strconv.FormatInt(r.Order, 10),
			target,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

func newRulesListCmd(ro *opts.RootOpts) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules",
		Long: `List prints the rules that would apply to the book given with --book,
library rules merged with book rules. With --scope only that collection is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				rules []rule.Rule
				err   error
			)
			switch {
			case scope != "":
				s, serr := scopeFlag(ro, scope)
				if serr != nil {
					return serr
				}
				rules, err = ro.Operator.Rules(ctx, s, ro.Book)
			case ro.Book != "":
				rules, err = ro.Operator.MergedRules(ctx, ro.Book)
			default:
				rules, err = ro.Operator.Rules(ctx, rule.ScopeGlobal, "")
			}
			if err != nil {
				return errors.Errorf("listing rules: %w", err)
			}

			if len(rules) == 0 {
				ro.Reporter.Info("no rules")
				return nil
			}

			table, err := renderRules(rules)
			if err != nil {
				return errors.Errorf("rendering rules: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}

	cmd.Flags().StringVarP(&scope, "scope", "s", "", "only list this collection: single, book or global")

	return cmd
}

func newRulesAddCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		scope      string
		isRegex    bool
		ignoreCase bool
		disabled   bool
		occurrence int
		section    string
		order      int64
	)

	cmd := &cobra.Command{
		Use:   "add <pattern> <replacement>",
		Short: "Add a rule",
		Long: `Add creates a rule in the library (global), a book's collection (book)
or targets one occurrence in one section (single). Adding a library or book
rule whose pattern already exists updates that rule instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := scopeFlag(ro, scope)
			if err != nil {
				return err
			}

			ruleOpts := rule.Options{
				Pattern:      args[0],
				Replacement:  args[1],
				IsRegex:      isRegex,
				Disabled:     disabled,
				Order:        order,
				SectionScope: section,
			}
			if ignoreCase {
				caseSensitive := false
				ruleOpts.CaseSensitive = &caseSensitive
			}
			if s == rule.ScopeSingle {
				if section == "" {
					return errors.Errorf("--section is required for single rules")
				}
				ruleOpts.OccurrenceIndex = &occurrence
			}

			r, err := ro.Operator.Create(ruleOpts)
			if err != nil {
				return err
			}

			if s != rule.ScopeGlobal {
				if err := ro.Store.RegisterBook(ctx, ro.Book); err != nil {
					return errors.Errorf("registering book %q: %w", ro.Book, err)
				}
			}

			added, err := ro.Operator.Add(ctx, s, ro.Book, r)
			if err != nil {
				return err
			}

			ro.Reporter.Successf("%s rule %s: %q → %q", s, added.ID, added.Pattern, added.Replacement)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scope, "scope", "s", "", "single, book or global (default: book with --book, global otherwise)")
	cmd.Flags().BoolVarP(&isRegex, "regex", "r", false, "treat the pattern as a regular expression")
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "match regardless of case")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "store the rule disabled")
	cmd.Flags().IntVar(&occurrence, "occurrence", 0, "zero-based match to replace for single rules")
	cmd.Flags().StringVar(&section, "section", "", "limit the rule to one section file")
	cmd.Flags().Int64Var(&order, "order", 0, "application order within the scope (default: creation time)")

	return cmd
}

func newRulesRemoveCmd(ro *opts.RootOpts) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scopeFlag(ro, scope)
			if err != nil {
				return err
			}
			if err := ro.Operator.Remove(cmd.Context(), s, ro.Book, args[0]); err != nil {
				return err
			}
			ro.Reporter.Successf("removed %s rule %s", s, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&scope, "scope", "s", "", "single, book or global")

	return cmd
}

func newRulesToggleCmd(ro *opts.RootOpts) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Enable or disable a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scopeFlag(ro, scope)
			if err != nil {
				return err
			}
			r, err := ro.Operator.Toggle(cmd.Context(), s, ro.Book, args[0])
			if err != nil {
				return err
			}
			state := "disabled"
			if r.Enabled {
				state = "enabled"
			}
			ro.Reporter.Successf("%s rule %s %s", s, r.ID, state)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scope, "scope", "s", "", "single, book or global")

	return cmd
}

func newRulesUpdateCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		scope         string
		pattern       string
		replacement   string
		isRegex       bool
		caseSensitive bool
		enabled       bool
		order         int64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a rule",
		Long:  `Update changes only the fields given as flags; a new pattern is validated again.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scopeFlag(ro, scope)
			if err != nil {
				return err
			}

			var patch rule.Patch
			flags := cmd.Flags()
			if flags.Changed("pattern") {
				patch.Pattern = &pattern
			}
			if flags.Changed("replacement") {
				patch.Replacement = &replacement
			}
			if flags.Changed("regex") {
				patch.IsRegex = &isRegex
			}
			if flags.Changed("case-sensitive") {
				patch.CaseSensitive = &caseSensitive
			}
			if flags.Changed("enabled") {
				patch.Enabled = &enabled
			}
			if flags.Changed("order") {
				patch.Order = &order
			}

			r, err := ro.Operator.Update(cmd.Context(), s, ro.Book, args[0], patch)
			if err != nil {
				return err
			}
			ro.Reporter.Successf("updated %s rule %s: %q → %q", s, r.ID, r.Pattern, r.Replacement)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scope, "scope", "s", "", "single, book or global")
	cmd.Flags().StringVar(&pattern, "pattern", "", "new pattern")
	cmd.Flags().StringVar(&replacement, "replacement", "", "new replacement")
	cmd.Flags().BoolVarP(&isRegex, "regex", "r", false, "treat the pattern as a regular expression")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", true, "match case exactly")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "apply the rule")
	cmd.Flags().Int64Var(&order, "order", 0, "application order within the scope")

	return cmd
}
