package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"jumbotron/internal/config"
)

const defaultConfigPath = "~/.jumbotron.yaml"

// configOptions is shared by every subcommand.
type configOptions struct {
	Path string
	fs   afero.Fs
}

func addConfigArgs(cmd *cobra.Command, o *configOptions) {
	cmd.PersistentFlags().StringVarP(&o.Path, "config", "c", defaultConfigPath,
		"Config file (YAML or JSON). Built-in defaults are used when the default file is absent.")
}

// resolve expands the config path. It returns "" when the flag was left at its
// default and no such file exists.
func (o *configOptions) resolve(cmd *cobra.Command) (string, error) {
	p, err := homedir.Expand(o.Path)
	if err != nil {
		return "", fmt.Errorf("--config: %w", err)
	}
	if cmd.Flags().Changed("config") {
		return p, nil
	}
	if _, err := o.fs.Stat(p); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	return p, nil
}

// load reads the config file, or returns the defaults when resolve found none.
func (o *configOptions) load(cmd *cobra.Command) (*config.Config, error) {
	p, err := o.resolve(cmd)
	if err != nil {
		return nil, err
	}
	if p == "" {
		return config.Default(), nil
	}
	cfg, err := config.NewConfigManager(p, config.WithFs(o.fs)).Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", p, err)
	}
	return cfg, nil
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	co := &configOptions{fs: fs}

	cmd := &cobra.Command{
		Use:           "jumbotron",
		Short:         "Countdown board for a recurring color timetable, with escalating cues.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	addConfigArgs(cmd, co)

	addRun(cmd, co)
	addRank(cmd, co)
	addTimetable(cmd, co)
	return cmd
}
