package main

import (
	"fmt"

	"github.com/sandevgo/parley/internal/config"
	"github.com/sandevgo/parley/internal/core"
	"github.com/sandevgo/parley/internal/service/report"
	"github.com/sandevgo/parley/internal/storage/sqlite"
	"github.com/sandevgo/parley/internal/transport/cli"
	"github.com/sandevgo/parley/pkg/log"
	"github.com/spf13/cobra"
)

var (
	reportOwner string
	reportTitle string
	reportFile  string
	reportURL   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manage negotiation reports",
}

var reportAddCmd = &cobra.Command{
	Use:          "add",
	Short:        "Ingest an analysis document as a report",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if (reportFile == "") == (reportURL == "") {
			return fmt.Errorf("exactly one of --file or --url is required")
		}

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg := config.NewAppConfig(ctx)

		db, err := initStorage(ctx, appCfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ingestor := report.NewIngestor(sqlite.NewReportsRepo(db))

		var rep *core.Report
		if reportFile != "" {
			rep, err = ingestor.FromFile(ctx, reportOwner, reportTitle, reportFile)
		} else {
			rep, err = ingestor.FromURL(ctx, reportOwner, reportTitle, reportURL)
		}
		if err != nil {
			return err
		}

		log.FromCtx(ctx).Info().Str("id", rep.ID).Str("title", rep.Title).Msg("report stored")
		fmt.Printf("Stored report %s — %s\n", rep.ID, rep.Title)
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List stored reports",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg := config.NewAppConfig(ctx)

		db, err := initStorage(ctx, appCfg)
		if err != nil {
			return err
		}
		defer db.Close()

		reports, err := sqlite.NewReportsRepo(db).ListReports(ctx, reportOwner)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No reports stored yet.")
			return nil
		}
		for _, r := range reports {
			fmt.Printf("%s  %s  (%s)\n", r.ID, r.Title, r.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportOwner, "owner", cli.DefaultSessionID, "owner the report belongs to")
	reportAddCmd.Flags().StringVar(&reportTitle, "title", "", "report title (defaults to file name or URL)")
	reportAddCmd.Flags().StringVar(&reportFile, "file", "", "path to an HTML or text document")
	reportAddCmd.Flags().StringVar(&reportURL, "url", "", "URL of an HTML document")

	reportCmd.AddCommand(reportAddCmd)
	reportCmd.AddCommand(reportListCmd)
	rootCmd.AddCommand(reportCmd)
}
