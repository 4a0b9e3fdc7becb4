package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pixship/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showRuns bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently converted images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "History is disabled (history.enabled = false)")
				return nil
			}

			store, err := history.Open(cfg.HistoryDBPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			if showRuns {
				runs, err := store.RecentRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRunsTable(runs))
				return nil
			}

			convs, err := store.RecentConversions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(convs) == 0 {
				fmt.Fprintln(out, "No conversions recorded")
				return nil
			}
			fmt.Fprintln(out, renderConversionsTable(convs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rows")
	cmd.Flags().BoolVar(&showRuns, "runs", false, "List runs instead of individual images")
	return cmd
}

func renderConversionsTable(convs []history.Conversion) string {
	headers := []string{"When", "Source", "Output", "Size", "Saved", "Run"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(convs))
	for _, c := range convs {
		rows = append(rows, []string{
			humanize.Time(c.ConvertedAt),
			c.SourceName,
			c.OutputName,
			sizeLabel(c.BytesAfter),
			savingsLabel(c.BytesBefore, c.BytesAfter),
			shortID(c.RunID),
		})
	}
	return renderTable(headers, rows, aligns, nil)
}

func renderRunsTable(runs []history.Run) string {
	headers := []string{"Started", "Run", "Mode", "Converted", "Failed", "Outcome", "Took"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		took := "-"
		if !r.FinishedAt.IsZero() {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			shortID(r.ID),
			r.Mode,
			fmt.Sprintf("%d", r.Converted),
			fmt.Sprintf("%d", r.Failed),
			r.Outcome,
			took,
		})
	}
	return renderTable(headers, rows, aligns, nil)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
