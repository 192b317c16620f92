package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"appsales/internal/cli"
	"appsales/internal/config"
	"appsales/internal/core"
)

const (
	historyCmdDB     = "db"
	historyCmdPeriod = "period"
)

func newHistoryCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "history",
		Short:   "List report runs stored by the sqlite sink",
		Example: "appsales history --period 2022-11",
		Args:    cobra.NoArgs,
		RunE:    runHistory,
	}
	c.Flags().String(historyCmdDB, "", "history database path (default: SQLITE_DB_PATH)")
	c.Flags().StringP(historyCmdPeriod, "p", "", "show per-app totals of one period (YYYY-MM)")
	return c
}

func runHistory(ccmd *cobra.Command, _ []string) error {
	dbPath, _ := ccmd.Flags().GetString(historyCmdDB)
	periodFlag, _ := ccmd.Flags().GetString(historyCmdPeriod)

	cfg := config.Load()
	if dbPath == "" {
		dbPath = cfg.SQLiteDBPath
	}
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	repo, err := cli.InitSQLite(logger, dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := ccmd.Context()
	tw := tabwriter.NewWriter(ccmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	if periodFlag != "" {
		period, err := core.ParsePeriod(periodFlag)
		if err != nil {
			return err
		}
		apps, err := repo.ListAppSummaries(ctx, period)
		if err != nil {
			return err
		}
		stored, err := repo.CountTransactions(ctx, period)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "Period\t%s\n", period)
		fmt.Fprintf(tw, "Stored transactions\t%d\n\n", stored)
		fmt.Fprintln(tw, "APP ID\tAPP\tCOUNT\tTOTAL")
		for _, app := range apps {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", app.ID, app.AppName, app.Count, app.TotalPaid.StringFixed(2))
		}
		return tw.Flush()
	}

	runs, err := repo.ListRuns(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "PERIOD\tCOUNT\tTOTAL\tAPPS\tGENERATED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", r.Period, r.Count, r.TotalPaid.StringFixed(2), r.Apps, r.GeneratedAt.Format("2006-01-02 15:04:05Z07:00"))
	}
	return tw.Flush()
}
