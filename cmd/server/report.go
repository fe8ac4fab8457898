package main

import (
	"context"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AngelCh415/agency-ops/internal/export"
	"github.com/AngelCh415/agency-ops/internal/metrics"
)

var reportFlags struct {
	mode    string
	year    int
	month   int
	quarter int
	months  int
	format  string
	out     string
	refresh bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a report computed from the store",
}

// reportRunner builds the RunE of a report subcommand.
func reportRunner(build func(ctx context.Context, svc *metrics.Service, q metrics.Query) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		f, err := export.ParseFormat(reportFlags.format)
		if err != nil {
			return err
		}
		if f == export.XLSX && reportFlags.out == "" {
			return eris.New("--format xlsx requires --out")
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if reportFlags.refresh {
			if env.ETL == nil {
				return eris.New("--refresh needs backend.base_url")
			}
			if _, err := env.ETL.Run(ctx); err != nil {
				return err
			}
		}

		q := env.Service.ParseQuery(selectorValues(cmd.Flags()))
		rep, err := build(ctx, env.Service, q)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if reportFlags.out != "" {
			file, err := os.Create(reportFlags.out)
			if err != nil {
				return eris.Wrap(err, "create output")
			}
			defer file.Close()
			w = file
		}
		return export.Write(w, f, rep)
	}
}

// selectorValues passes on only the selector flags the user set, so unset
// ones fall back to the current period like the HTTP API does.
func selectorValues(fs *pflag.FlagSet) url.Values {
	v := url.Values{}
	if fs.Changed("mode") {
		v.Set("mode", reportFlags.mode)
	}
	for name, val := range map[string]int{
		"year":    reportFlags.year,
		"month":   reportFlags.month,
		"quarter": reportFlags.quarter,
		"months":  reportFlags.months,
	} {
		if fs.Changed(name) {
			v.Set(name, strconv.Itoa(val))
		}
	}
	return v
}

func init() {
	pf := reportCmd.PersistentFlags()
	pf.StringVar(&reportFlags.mode, "mode", "month", "period mode: month, quarter, ytd, year, last_year")
	pf.IntVar(&reportFlags.year, "year", 0, "year (default current)")
	pf.IntVar(&reportFlags.month, "month", 0, "month 1-12 (default current)")
	pf.IntVar(&reportFlags.quarter, "quarter", 0, "quarter 1-4 (default current)")
	pf.IntVar(&reportFlags.months, "months", 0, "funnel trend length in months")
	pf.StringVar(&reportFlags.format, "format", "json", "output format: json, yaml, xlsx")
	pf.StringVarP(&reportFlags.out, "out", "o", "", "write to file instead of stdout")
	pf.BoolVar(&reportFlags.refresh, "refresh", false, "run ingest before reporting")

	reportCmd.AddCommand(
		&cobra.Command{
			Use:   "funnel",
			Short: "Lead funnel conversion rates and monthly trend",
			RunE: reportRunner(func(ctx context.Context, svc *metrics.Service, q metrics.Query) (any, error) {
				return svc.Funnel(ctx, q)
			}),
		},
		&cobra.Command{
			Use:   "sources",
			Short: "Lead intake by source",
			RunE: reportRunner(func(ctx context.Context, svc *metrics.Service, q metrics.Query) (any, error) {
				return svc.Sources(ctx, q)
			}),
		},
		&cobra.Command{
			Use:   "capacity",
			Short: "Colleague slot utilization for a month",
			RunE: reportRunner(func(ctx context.Context, svc *metrics.Service, q metrics.Query) (any, error) {
				return svc.Capacity(ctx, q)
			}),
		},
		&cobra.Command{
			Use:   "revenue",
			Short: "MRR by client for a period",
			RunE: reportRunner(func(ctx context.Context, svc *metrics.Service, q metrics.Query) (any, error) {
				return svc.Revenue(ctx, q)
			}),
		},
		&cobra.Command{
			Use:   "earnings",
			Short: "Colleague earnings for a period",
			RunE: reportRunner(func(ctx context.Context, svc *metrics.Service, q metrics.Query) (any, error) {
				return svc.Earnings(ctx, q)
			}),
		},
	)
	rootCmd.AddCommand(reportCmd)
}
