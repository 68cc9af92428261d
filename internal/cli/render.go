package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnfenner/beecker-sub000/internal/exporter"
	"github.com/johnfenner/beecker-sub000/internal/filters"
	"github.com/johnfenner/beecker-sub000/internal/funnel"
	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

type renderOptions struct {
	page    string
	file    string
	sheet   string
	groupBy string
	from    string
	to      string
	query   string
	where   []string
	out     string
	rows    bool
	asJSON  bool
}

func renderCmd(global *globalOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the funnel of one page",
		Long: `Render the funnel of one page as a terminal table, JSON, or a CSV/XLSX file.

Examples:
  funnelreport render --page linkedin --file leads.xlsx
  funnelreport render --page sdr --file sdr.csv --group-by prospector
  funnelreport render --page linkedin --from 2025-01-01 --to 2025-01-31 --out jan.xlsx
  funnelreport render --page linkedin --file leads.csv --where country=Chile --where campaign=Q1,Q2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.filter()
			if err != nil {
				return err
			}

			svc, err := global.service(cmd.Context(), opts.file, opts.sheet)
			if err != nil {
				return err
			}
			report, records, err := svc.RenderWithRecords(cmd.Context(), opts.page, f, opts.groupBy)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case opts.out != "":
				if !opts.rows {
					records = nil
				} else if records == nil {
					records = []funnel.Record{}
				}
				if err := writeExport(opts.out, report, records); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", opts.out)
				return nil
			case opts.asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			default:
				printReport(out, report)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&opts.page, "page", "", "page id (see 'funnelreport pages')")
	cmd.Flags().StringVar(&opts.file, "file", "", "local .csv or .xlsx export to read instead of the page source")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet of --file (default: first non-empty)")
	cmd.Flags().StringVar(&opts.groupBy, "group-by", "", "add one funnel per value of this field")
	cmd.Flags().StringVar(&opts.from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.query, "q", "", "free text searched in name and company")
	cmd.Flags().StringArrayVar(&opts.where, "where", nil, "field=value[,value] equality filter, repeatable")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write a .csv or .xlsx file instead of printing")
	cmd.Flags().BoolVar(&opts.rows, "rows", false, "export the filtered records with --out")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("page")

	return cmd
}

func (o *renderOptions) filter() (filters.Filter, error) {
	var f filters.Filter
	var err error

	if o.from != "" {
		if f.From, err = time.Parse(filters.DateLayout, o.from); err != nil {
			return f, fmt.Errorf("invalid --from %q: want YYYY-MM-DD", o.from)
		}
	}
	if o.to != "" {
		if f.To, err = time.Parse(filters.DateLayout, o.to); err != nil {
			return f, fmt.Errorf("invalid --to %q: want YYYY-MM-DD", o.to)
		}
	}

	for _, w := range o.where {
		field, values, ok := strings.Cut(w, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return f, fmt.Errorf("invalid --where %q: want field=value", w)
		}
		if f.Fields == nil {
			f.Fields = make(map[string][]string)
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				f.Fields[field] = append(f.Fields[field], v)
			}
		}
	}
	f.Query = o.query
	return f, nil
}

func writeExport(path string, report *domain.FunnelReport, records []funnel.Record) error {
	format, err := exporter.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return fmt.Errorf("--out %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := exporter.Export(file, format, report, records); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// printReport writes the stage table and, for grouped reports, one block
// per group
func printReport(w io.Writer, report *domain.FunnelReport) {
	titleColor.Fprintf(w, "%s (%s)", report.Title, report.Page)
	fmt.Fprintf(w, "  %d records\n", report.RecordCount)
	if report.Empty {
		warnColor.Fprintln(w, "No records reached any stage.")
	}
	printStages(w, report.Stages, report.Rates, report.RatesVsTotal)

	for _, g := range report.Groups {
		fmt.Fprintln(w)
		groupColor.Fprintf(w, "%s = %s", report.GroupBy, g.Key)
		fmt.Fprintf(w, "  %d records\n", g.RecordCount)
		printStages(w, g.Stages, g.Rates, g.RatesVsTotal)
	}

	printDataQuality(w, report.DataQuality)
}
