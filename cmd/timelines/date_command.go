package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"timelines/internal/dates"
	"timelines/internal/wikipedia"
)

type dateView struct {
	Tag             string           `json:"tag"`
	Expression      dates.Expression `json:"expression"`
	Unresolved      bool             `json:"unresolved"`
	CandidateMonths []string         `json:"candidate_months"`
	DayPage         string           `json:"day_page,omitempty"`
}

func newDateCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "date <tag>...",
		Short:       "Parse temporal tags such as 1969-07-20, 1989-11 or 2004-SU",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			views := make([]dateView, 0, len(args))
			for _, tag := range args {
				expr := dates.Parse(tag)
				view := dateView{
					Tag:             tag,
					Expression:      expr,
					Unresolved:      dates.IsUnresolved(tag),
					CandidateMonths: expr.CandidateMonths(),
				}
				if title, ok := wikipedia.DayPageTitle(expr); ok {
					view.DayPage = title
				}
				views = append(views, view)
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}

			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					v.Tag,
					v.Expression.Kind.String(),
					dash(v.Expression.Year),
					dash(strings.Join(v.CandidateMonths, ",")),
					dash(v.DayPage),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tag", "Kind", "Year", "Months", "Day page"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print parsed expressions as JSON")
	return cmd
}
