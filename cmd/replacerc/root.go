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

package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/replacerc/cmd/replacerc/commands"
	"github.com/walteh/replacerc/cmd/replacerc/opts"
	"github.com/walteh/replacerc/pkg/config"
	"github.com/walteh/replacerc/pkg/log"
	"github.com/walteh/replacerc/pkg/operation"
	"github.com/walteh/replacerc/pkg/store"
	"gitlab.com/tozd/go/errors"
)

// run executes the command line and closes the rule store afterwards
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd, ro := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if ro.Store != nil {
		if cerr := ro.Store.Close(); cerr != nil && err == nil {
			err = errors.Errorf("closing rule store: %w", cerr)
		}
	}
	return err
}

func newRootCmd() (*cobra.Command, *opts.RootOpts) {
	ro := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "replacerc",
		Short: "Manage and apply text replacement rules for e-books",
		Long: `replacerc keeps library-wide and per-book text replacement rules
and applies them to the section files of an unpacked EPUB.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd, ro)
			if cmd.Annotations[opts.SkipSetup] == "true" {
				return nil
			}
			return setup(cmd, ro)
		},
	}

	addRootFlags(cmd, ro)

	cmd.AddCommand(
		commands.NewApplyCmd(ro),
		commands.NewRestoreCmd(ro),
		commands.NewRulesCmd(ro),
		commands.NewValidateCmd(ro),
		newVersionCmd(),
	)

	return cmd, ro
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, ro *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&ro.ConfigFile, "config", "c", "", "config file path (default: discovered in the working directory)")
	cmd.PersistentFlags().BoolVarP(&ro.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&ro.Book, "book", "b", "", "book key for book and single scoped rules")
}

// setupLogging configures zerolog and the console reporter based on flags
func setupLogging(cmd *cobra.Command, ro *opts.RootOpts) {
	level := zerolog.WarnLevel
	if ro.Debug {
		level = zerolog.DebugLevel
	}

	base := zerolog.Ctx(cmd.Context())
	if base.GetLevel() == zerolog.Disabled {
		fresh := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
		base = &fresh
	}
	logger := base.Level(level)

	ro.Reporter = log.New(cmd.OutOrStdout(), level)
	ctx := logger.WithContext(cmd.Context())
	cmd.SetContext(log.NewContext(ctx, ro.Reporter))
}

// setup loads the config, opens the rule store and builds the operator
func setup(cmd *cobra.Command, ro *opts.RootOpts) error {
	ctx := cmd.Context()

	var (
		cfg *config.Config
		err error
	)
	if ro.ConfigFile != "" {
		cfg, err = config.Load(ctx, ro.ConfigFile)
	} else {
		wd, werr := os.Getwd()
		if werr != nil {
			return errors.Errorf("getting working directory: %w", werr)
		}
		cfg, err = config.Discover(ctx, wd)
	}
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Str("location", cfg.Location()).Msg("configuration loaded")

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}

	op, err := operation.New(operation.Options{Store: st})
	if err != nil {
		_ = st.Close()
		return errors.Errorf("creating operator: %w", err)
	}

	ro.Config = cfg
	ro.Store = st
	ro.Operator = op
	return nil
}
