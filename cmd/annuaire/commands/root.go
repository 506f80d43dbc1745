package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/adapter/geoapi"
	"github.com/user/annuaire-crawler/internal/usecase"
	"github.com/user/annuaire-crawler/pkg/config"
	"github.com/user/annuaire-crawler/pkg/logger"
)

var (
	envFile  string
	logLevel string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "annuaire",
	Short: "annuaire collects, cleans and enriches the French public directory of collectivities.",
	Long: `annuaire crawls the mairie and EPCI listings of the public administration directory,
then normalizes, enriches, merges and reports on the collected records.
Each stage reads the previous stage's directory and can be run on its own.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		log, err = logger.New(cfg.LogLevel, cfg.LogFormat)
		return err
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to read settings from (default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
}

// Execute runs the command line until completion or SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func newGeoClient() *geoapi.Client {
	return geoapi.NewClient(cfg.GeoAPIURL, cfg.GeoAPIInterval, cfg.GeoAPITimeout)
}

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(cmd.OutOrStdout())
	return t
}

func printFileStats(cmd *cobra.Command, done, passed string, stats []*usecase.FileStats) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"Input", "Output", "Lines", done, passed})
	total := usecase.FileStats{}
	for _, s := range stats {
		t.AppendRow(table.Row{s.Input, s.Output, s.Lines, s.Transformed, s.PassedOn})
		total.Lines += s.Lines
		total.Transformed += s.Transformed
		total.PassedOn += s.PassedOn
	}
	t.AppendFooter(table.Row{"", "Total", total.Lines, total.Transformed, total.PassedOn})
	t.Render()
}
