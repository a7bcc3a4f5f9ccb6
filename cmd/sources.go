package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

func newSourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect registered sources",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every source with its schedule and last run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			states, err := d.Harvester.States(cmd.Context())
			if err != nil {
				return err
			}

			enabled := make(map[string]bool)
			for _, id := range d.Harvester.Enabled() {
				enabled[id] = true
			}

			renderSources(cmd.OutOrStdout(), d.Registry.All(), states, enabled)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <id>",
		Short: "Clear the last sync of a source so the next scheduled run harvests it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			if err = d.Harvester.Reset(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func renderSources(w io.Writer, spiders []spider.Spider, states []*domain.SourceState, enabled map[string]bool) {
	byID := make(map[string]*domain.SourceState, len(states))
	for _, st := range states {
		byID[st.SourceID] = st
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Frequency", "Enabled", "Last Sync", "Last Count", "Total", "Empty Runs"})

	for _, s := range spiders {
		row := table.Row{s.ID(), s.Frequency(), enabled[s.ID()], "never", 0, 0, 0}
		if st, ok := byID[s.ID()]; ok {
			if !st.LastSync().IsZero() {
				row[3] = st.LastSync().Format("2006-01-02 15:04")
			}
			row[4] = st.LastRecordCount
			row[5] = st.TotalDocuments
			row[6] = st.ConsecutiveEmpty
		}
		t.AppendRow(row)
	}

	t.Render()
}
