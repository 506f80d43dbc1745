package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/annuaire-crawler/internal/usecase"
)

var enrichFlags struct {
	in, out string
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Add reference data to normalized mairie records",
	Long: `Looks every record of CLEAN_DIR up by postal code in the geographic reference API and
writes it, enriched or not, to ENRICHED_DIR. Lookups are paced at GEO_API_INTERVAL.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e := usecase.NewEnricher(newGeoClient(), log)
		stats, err := e.EnrichDir(cmd.Context(),
			orDefault(enrichFlags.in, cfg.CleanDir),
			orDefault(enrichFlags.out, cfg.EnrichedDir))
		if err != nil {
			return err
		}
		printFileStats(cmd, "Enriched", "Not enriched", stats)
		return nil
	},
}

var enrichEPCIFlags struct {
	in, out string
}

var enrichEPCICmd = &cobra.Command{
	Use:   "enrich-epci",
	Short: "Fetch details and member communes of a list of EPCI",
	Long: `Reads a JSON array of {"code", "nom"} objects and writes one flattened EPCI record per
entry. Entries whose lookup fails keep their base fields.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e := usecase.NewEnricher(newGeoClient(), log)
		stats, err := e.EnrichEPCIs(cmd.Context(), enrichEPCIFlags.in,
			orDefault(enrichEPCIFlags.out, filepath.Join(cfg.EnrichedDir, "epci", "epci_enrichi.jsonl")))
		if err != nil {
			return err
		}
		printFileStats(cmd, "Enriched", "Base only", []*usecase.FileStats{stats})
		return nil
	},
}

var linkEPCIFlags struct {
	in, index, out string
}

var linkEPCICmd = &cobra.Command{
	Use:   "link-epci",
	Short: "Attach each commune to its EPCI",
	Long: `Looks every record of a merged file up by name and department, then attaches the EPCI
found in the index file written by enrich-epci. Records that cannot be found are kept as is.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		idx, err := usecase.LoadEPCIIndex(orDefault(linkEPCIFlags.index, filepath.Join(cfg.EnrichedDir, "epci", "epci_enrichi.jsonl")))
		if err != nil {
			return err
		}
		e := usecase.NewEnricher(newGeoClient(), log)
		stats, err := e.LinkEPCIFile(cmd.Context(),
			orDefault(linkEPCIFlags.in, filepath.Join(cfg.EnrichedDir, "all.jsonl")),
			orDefault(linkEPCIFlags.out, "final.jsonl"), idx)
		if err != nil {
			return err
		}
		printFileStats(cmd, "Linked", "Not found", []*usecase.FileStats{stats})
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichFlags.in, "in", "", "normalized directory (default CLEAN_DIR)")
	enrichCmd.Flags().StringVar(&enrichFlags.out, "out", "", "output directory (default ENRICHED_DIR)")

	enrichEPCICmd.Flags().StringVar(&enrichEPCIFlags.in, "in", "", "JSON array of EPCI to enrich")
	enrichEPCICmd.Flags().StringVar(&enrichEPCIFlags.out, "out", "", "output file (default ENRICHED_DIR/epci/epci_enrichi.jsonl)")
	_ = enrichEPCICmd.MarkFlagRequired("in")

	linkEPCICmd.Flags().StringVar(&linkEPCIFlags.in, "in", "", "merged records (default ENRICHED_DIR/all.jsonl)")
	linkEPCICmd.Flags().StringVar(&linkEPCIFlags.index, "epci-index", "", "enriched EPCI file (default ENRICHED_DIR/epci/epci_enrichi.jsonl)")
	linkEPCICmd.Flags().StringVar(&linkEPCIFlags.out, "out", "", "output file (default final.jsonl)")

	rootCmd.AddCommand(enrichCmd, enrichEPCICmd, linkEPCICmd)
}
