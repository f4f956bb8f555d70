package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jumbotron/internal/clock"
	"jumbotron/internal/config"
	"jumbotron/internal/present"
	"jumbotron/internal/schedule"
)

type rankOptions struct {
	At  string
	Top int
}

func (o *rankOptions) instant() (time.Time, error) {
	if o.At == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, o.At)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at: %w", err)
	}
	return t, nil
}

func addRank(topLevel *cobra.Command, co *configOptions) {
	ro := &rankOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the slots ranked by time until their next occurrence.",
		Example: `
jumbotron rank
jumbotron rank --at 2026-05-10T12:29:59-07:00 --top 5
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := co.load(cmd)
			if err != nil {
				return err
			}
			now, err := ro.instant()
			if err != nil {
				return err
			}
			return printRank(cmd, cfg, now, ro.Top)
		},
	}
	cmd.Flags().StringVar(&ro.At, "at", "", `Rank at this RFC 3339 instant instead of now, example: --at="2026-05-10T12:29:59Z".`)
	cmd.Flags().IntVar(&ro.Top, "top", 0, "Number of slots to show (0 shows all).")
	topLevel.AddCommand(cmd)
}

func printRank(cmd *cobra.Command, cfg *config.Config, now time.Time, top int) error {
	tt, err := cfg.BuildTimetable()
	if err != nil {
		return err
	}
	durs, err := cfg.Durations()
	if err != nil {
		return err
	}
	loc, err := config.LoadLocation("display.location", cfg.Display.Location)
	if err != nil {
		return err
	}

	ranked, err := schedule.NewCalculator(tt).Rank(now)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	if top <= 0 {
		top = len(ranked)
	}
	ranked = schedule.Top(ranked, top)

	previous := ""
	if len(ranked) > 0 {
		previous = tt.Previous(ranked[0].SlotID)
	}
	term := present.NewTerminal(cmd.OutOrStdout(), clock.NewFake(now), present.TerminalConfig{
		Location:      loc,
		ShowLocalTime: true,
		NoColor:       cfg.Display.NoColor,
	})
	return term.Render(present.BuildRows(ranked, durs.Cycle), previous)
}
