package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/user/annuaire-crawler/internal/usecase"
)

var reportFlags struct {
	in, out string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a Markdown data-quality report",
	Long: `Computes contact and location coverage for every *.jsonl file of a directory and writes
one section per file followed by a global section.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rep, err := usecase.BuildReport(orDefault(reportFlags.in, cfg.CleanDir), log)
		if err != nil {
			return err
		}
		out := orDefault(reportFlags.out, cfg.ReportPath)
		if err := usecase.WriteReport(rep, out); err != nil {
			return err
		}

		g := rep.Global
		t := newTable(cmd)
		t.SetTitle("Global (%d records, %d files)", g.Total, len(rep.Files))
		t.AppendHeader(table.Row{"Indicator", "Count", "%"})
		t.AppendRows([]table.Row{
			{"No email", g.NoEmail, usecase.Pct(g.NoEmail, g.Total)},
			{"No telephone", g.NoTelephone, usecase.Pct(g.NoTelephone, g.Total)},
			{"No website", g.NoWebsite, usecase.Pct(g.NoWebsite, g.Total)},
			{"No coordinates", g.NoLatLng, usecase.Pct(g.NoLatLng, g.Total)},
			{"No contact at all", g.NoContactAtAll, usecase.Pct(g.NoContactAtAll, g.Total)},
			{"Likely empty page", g.EmptyPageLikely, usecase.Pct(g.EmptyPageLikely, g.Total)},
		})
		t.Render()
		cmd.Printf("report written to %s\n", out)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFlags.in, "in", "", "directory to analyze (default CLEAN_DIR)")
	reportCmd.Flags().StringVar(&reportFlags.out, "out", "", "Markdown output (default REPORT_PATH)")
	rootCmd.AddCommand(reportCmd)
}
