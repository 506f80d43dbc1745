package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/annuaire-crawler/internal/usecase"
)

var mergeFlags struct {
	in, out string
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Concatenate the JSONL files of a directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := orDefault(mergeFlags.in, cfg.EnrichedDir)
		res, err := usecase.Merge(in, orDefault(mergeFlags.out, filepath.Join(in, "all.jsonl")), log)
		if err != nil {
			return err
		}
		cmd.Printf("%d lines from %d files written to %s\n", res.Lines, res.Files, res.Output)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeFlags.in, "in", "", "directory to merge (default ENRICHED_DIR)")
	mergeCmd.Flags().StringVar(&mergeFlags.out, "out", "", "output file (default <in>/all.jsonl)")
	rootCmd.AddCommand(mergeCmd)
}
