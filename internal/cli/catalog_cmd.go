package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/insights/internal/core"
	_ "github.com/JonMunkholm/insights/internal/core/analyses" // Register all analyses
	"github.com/JonMunkholm/insights/internal/dashboard"
)

type analysisRow struct {
	Name     core.AnalysisName `json:"name"`
	Label    string            `json:"label"`
	Group    string            `json:"group"`
	Endpoint string            `json:"endpoint"`
	Query    string            `json:"query,omitempty"`
}

func newAnalysesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyses",
		Short: "List the analyses every run requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defs := core.All()
			rows := make([]analysisRow, len(defs))
			for i, d := range defs {
				rows[i] = analysisRow{
					Name:     d.Spec.Name,
					Label:    d.Label,
					Group:    d.Group,
					Endpoint: d.Spec.Endpoint,
					Query:    d.Spec.Query.Encode(),
				}
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tGROUP\tENDPOINT\tLABEL")
			for _, r := range rows {
				endpoint := r.Endpoint
				if r.Query != "" {
					endpoint += "?" + r.Query
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Group, endpoint, r.Label)
			}
			return tw.Flush()
		},
	}
}

type surfaceRow struct {
	Tab      dashboard.Tab     `json:"tab"`
	Kind     string            `json:"kind"`
	Key      string            `json:"key"`
	Title    string            `json:"title"`
	Analysis core.AnalysisName `json:"analysis"`
}

func newSurfacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "surfaces",
		Short: "List the tables and charts of each dashboard tab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows []surfaceRow
			for _, tab := range dashboard.Tabs {
				for _, c := range dashboard.ChartsIn(tab) {
					rows = append(rows, surfaceRow{Tab: tab, Kind: string(c.Kind), Key: c.Key, Title: c.Title, Analysis: c.Analysis})
				}
				for _, t := range dashboard.TablesIn(tab) {
					rows = append(rows, surfaceRow{Tab: tab, Kind: "table", Key: t.Key, Title: t.Title, Analysis: t.Analysis})
				}
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "TAB\tKIND\tKEY\tTITLE")
			for _, r := range rows {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Tab, r.Kind, r.Key, r.Title)
			}
			return tw.Flush()
		},
	}
}
