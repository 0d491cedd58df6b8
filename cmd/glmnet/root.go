// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/katalvlaran/glmnet/config"
	"github.com/katalvlaran/glmnet/prior"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	seed       uint64
	verbose    bool

	newLogger func(verbose bool) (*zap.Logger, error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(productionLogger)
}

// newRootCmdWith builds the command tree with a custom logger factory.
func newRootCmdWith(newLogger func(verbose bool) (*zap.Logger, error)) *cobra.Command {
	opts := &rootOptions{newLogger: newLogger}

	cmd := &cobra.Command{
		Use:           "glmnet",
		Short:         "Sample and score network priors of a spike-train GLM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "model.yaml", "YAML model file")
	cmd.PersistentFlags().Uint64Var(&opts.seed, "seed", 1, "base RNG seed")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newSampleCmd(opts), newLogPCmd(opts))
	return cmd
}

// productionLogger builds a JSON logger at info (or debug) level.
func productionLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}

// load reads the model file and builds the logger.
func (o *rootOptions) load() (prior.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return prior.Config{}, nil, err
	}
	logger, err := o.newLogger(o.verbose)
	if err != nil {
		return prior.Config{}, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger, nil
}
