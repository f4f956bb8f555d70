package main

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func addTimetable(topLevel *cobra.Command, co *configOptions) {
	cmd := &cobra.Command{
		Use:     "timetable",
		Aliases: []string{"slots"},
		Short:   "List the configured slots in declaration order.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := co.load(cmd)
			if err != nil {
				return err
			}
			tt, err := cfg.BuildTimetable()
			if err != nil {
				return err
			}

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow("COLOR", "PREVIOUS", "TIMES")
			for _, s := range tt.Slots() {
				times := make([]string, 0, len(s.Times))
				for _, t := range s.Times {
					times = append(times, t.String())
				}
				tbl.AddRow(strings.ToUpper(s.ID), strings.ToUpper(tt.Previous(s.ID)), strings.Join(times, " "))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "zone:", tt.Zone())
			fmt.Fprintln(out, tbl)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
