package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/usecase"
)

var normalizeFlags struct {
	in, out         string
	epciIn, epciOut string
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Rewrite crawled JSONL files into the canonical record shape",
	Long: `Normalizes every *.jsonl file of DATA_DIR into CLEAN_DIR, and every file of EPCI_DIR
into CLEAN_DIR/epci. Each output file keeps one line per input line.`,
	RunE: runNormalize,
}

func init() {
	f := normalizeCmd.Flags()
	f.StringVar(&normalizeFlags.in, "in", "", "crawled mairie directory (default DATA_DIR)")
	f.StringVar(&normalizeFlags.out, "out", "", "output directory (default CLEAN_DIR)")
	f.StringVar(&normalizeFlags.epciIn, "epci-in", "", "crawled EPCI directory (default EPCI_DIR)")
	f.StringVar(&normalizeFlags.epciOut, "epci-out", "", "EPCI output directory (default CLEAN_DIR/epci)")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, _ []string) error {
	out := orDefault(normalizeFlags.out, cfg.CleanDir)
	passes := []struct{ in, out string }{
		{orDefault(normalizeFlags.in, cfg.DataDir), out},
		{orDefault(normalizeFlags.epciIn, cfg.EPCIDir), orDefault(normalizeFlags.epciOut, filepath.Join(out, "epci"))},
	}

	n := usecase.NewNormalizer(log)
	var all []*usecase.FileStats
	for _, p := range passes {
		stats, err := n.NormalizeDir(p.in, p.out)
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("input directory missing, skipping", zap.String("dir", p.in))
			continue
		}
		if err != nil {
			return err
		}
		all = append(all, stats...)
	}
	if len(all) == 0 {
		return fmt.Errorf("no input file found in %s or %s", passes[0].in, passes[1].in)
	}
	printFileStats(cmd, "Normalized", "Passed on", all)
	return nil
}
