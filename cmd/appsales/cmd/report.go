package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"appsales/internal/backend"
	"appsales/internal/cli"
	"appsales/internal/core"
	"appsales/internal/log"
	"appsales/internal/partner"
	"appsales/internal/services"
)

const (
	reportCmdYear   = "year"
	reportCmdMonth  = "month"
	reportCmdOutput = "output"
	reportCmdSinks  = "sinks"
	reportCmdDryRun = "dry-run"
)

func newReportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "report",
		Short:   "Fetch a month of subscription sales and write the per-app report",
		Example: "appsales report --year 2022 --month 11 --sinks file,sqlite",
		Args:    cobra.NoArgs,
		RunE:    runReport,
	}
	c.Flags().IntP(reportCmdYear, "y", 0, "report year (default: year of the previous month)")
	c.Flags().IntP(reportCmdMonth, "m", 0, "report month 1-12 (default: previous month)")
	c.Flags().StringP(reportCmdOutput, "o", "", "base output directory of the file sink")
	c.Flags().StringP(reportCmdSinks, "s", "", "comma separated sinks: file,sqlite,sheets")
	c.Flags().Bool(reportCmdDryRun, false, "fetch and summarize without writing any sink")
	return c
}

func runReport(ccmd *cobra.Command, _ []string) error {
	year, _ := ccmd.Flags().GetInt(reportCmdYear)
	month, _ := ccmd.Flags().GetInt(reportCmdMonth)
	output, _ := ccmd.Flags().GetString(reportCmdOutput)
	sinkList, _ := ccmd.Flags().GetString(reportCmdSinks)
	dryRun, _ := ccmd.Flags().GetBool(reportCmdDryRun)

	cfg, err := cli.LoadAndValidateConfig(cli.Overrides{Year: year, Month: month, OutputDir: output, Sinks: sinkList})
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := cli.GracefulShutdown(ccmd.Context(), logger)
	defer stop()

	client, err := partner.New(partner.Config{
		Endpoint:    cfg.APIURL,
		AccessToken: cfg.AccessToken,
		Timeout:     cfg.HTTPTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("partner client: %w", err)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	bcfg.DryRun = dryRun

	res, err := backend.NewFactory(logger).CreateSinks(ctx, bcfg)
	if err != nil {
		return err
	}

	svc := services.NewReportService(client, res.Writers, res.Notifier, cfg.FetchTimeout, logger)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to release sinks", log.FieldError, err)
		}
	}()

	report, err := svc.Run(ctx, cfg.Period())
	if err != nil {
		logger.ErrorContext(ctx, "Report failed", log.FieldPeriod, cfg.Period().String(), log.FieldError, err)
		return err
	}

	return printReport(ccmd.OutOrStdout(), report)
}

func printReport(w io.Writer, r core.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Period\t%s\n", r.Period)
	fmt.Fprintf(tw, "Transactions\t%d\n", r.Summary.Count)
	fmt.Fprintf(tw, "Total paid\t%s\n\n", r.Summary.TotalPaid.StringFixed(2))
	fmt.Fprintln(tw, "APP ID\tAPP\tCOUNT\tTOTAL")
	for _, app := range r.Apps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", app.ID, app.AppName, app.Count, app.TotalPaid.StringFixed(2))
	}
	return tw.Flush()
}
