package commands

import (
	"github.com/spf13/cobra"

	"github.com/user/annuaire-crawler/internal/usecase"
)

var splitFlags struct {
	in, out string
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a JSON array of records into one CSV per department",
	Long: `Groups records by the first two characters of their codePostal and writes
collectivites_<dep>.csv files, semicolon separated with every value quoted.
Records without a postal code are skipped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := usecase.SplitByDepartment(splitFlags.in, splitFlags.out, log)
		if err != nil {
			return err
		}
		total := 0
		for _, n := range res.Rows {
			total += n
		}
		cmd.Printf("%d rows written to %d files in %s (%d skipped)\n", total, len(res.Files), splitFlags.out, res.Skipped)
		return nil
	},
}

func init() {
	splitCmd.Flags().StringVar(&splitFlags.in, "in", "", "JSON array of records")
	splitCmd.Flags().StringVar(&splitFlags.out, "out", "csv_by_departement", "output directory")
	_ = splitCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(splitCmd)
}
