package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jumbotron/internal/app"
	"jumbotron/internal/config"
)

func addRun(topLevel *cobra.Command, co *configOptions) {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the countdown board until interrupted.",
		Example: `
jumbotron run
jumbotron run --config /etc/jumbotron.yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			p, err := co.resolve(cmd)
			if err != nil {
				return err
			}
			opts := app.Options{Watch: !noWatch}
			var a *app.App
			if p == "" {
				a, err = app.NewFromConfig(config.Default(), opts)
			} else {
				a, err = app.New(p, opts)
			}
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the config file when it changes.")
	topLevel.AddCommand(cmd)
}
