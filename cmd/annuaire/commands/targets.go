package commands

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/user/annuaire-crawler/internal/catalog"
)

var targetsCatalog string

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the listing targets of the catalogue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := catalog.Load(orDefault(targetsCatalog, cfg.TargetsFile))
		if err != nil {
			return err
		}

		t := newTable(cmd)
		t.AppendHeader(table.Row{"Code", "Kind", "Slug", "Output", "Limit", "Enabled", "URL"})
		for _, tc := range cat.Targets {
			target, err := cat.Resolve(tc.URL)
			if err != nil {
				return err
			}
			limit := "-"
			if tc.Limit > 0 {
				limit = strconv.Itoa(tc.Limit)
			}
			t.AppendRow(table.Row{target.Code, target.Kind, target.Slug, target.OutputFile, limit, !tc.Disabled, target.URL})
		}
		t.Render()
		return nil
	},
}

func init() {
	targetsCmd.Flags().StringVar(&targetsCatalog, "catalog", "", "target catalogue file (default TARGETS_FILE or built-in)")
	rootCmd.AddCommand(targetsCmd)
}
