// Package cli implements the funnelreport command: offline funnel reports
// for a spreadsheet export or a configured page source.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnfenner/beecker-sub000/internal/config"
	"github.com/johnfenner/beecker-sub000/internal/infrastructure"
	"github.com/johnfenner/beecker-sub000/internal/pages"
	"github.com/johnfenner/beecker-sub000/internal/services"
	"github.com/johnfenner/beecker-sub000/internal/sources"
	"github.com/johnfenner/beecker-sub000/pkg/contracts"
)

// globalOptions are the flags shared by every subcommand
type globalOptions struct {
	pagesFile string
	logLevel  string
}

// NewRootCmd returns the funnelreport command tree
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "funnelreport",
		Short:   "Prospecting funnel reports from spreadsheets",
		Version: contracts.Version,
		Long: `funnelreport computes the same stage counts and conversion rates as the
dashboard, from a local CSV/XLSX export or from the page's configured source.`,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(contracts.GetFullVersionString() + "\n")
	rootCmd.PersistentFlags().StringVar(&opts.pagesFile, "pages", "", "YAML file with page definitions (default: built-in pages)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	rootCmd.AddCommand(renderCmd(opts))
	rootCmd.AddCommand(pagesCmd(opts))
	return rootCmd
}

func (o *globalOptions) logger() *slog.Logger {
	return infrastructure.NewLogger(os.Stderr, o.logLevel)
}

func (o *globalOptions) registry() (*pages.Registry, error) {
	defs, err := config.LoadPages(o.pagesFile)
	if err != nil {
		return nil, err
	}
	compiled, err := pages.CompileAll(defs)
	if err != nil {
		return nil, err
	}
	return pages.NewRegistry(compiled), nil
}

// service builds a funnel service. A non-empty file replaces every page
// source with that file.
func (o *globalOptions) service(ctx context.Context, file, sheet string) (*services.FunnelService, error) {
	registry, err := o.registry()
	if err != nil {
		return nil, err
	}
	logger := o.logger()

	var provider services.SourceProvider
	if file != "" {
		provider = fileProvider{path: file, sheet: sheet}
	} else {
		factory, err := configuredFactory(ctx, logger)
		if err != nil {
			return nil, err
		}
		provider = factory
	}
	return services.NewFunnelService(registry, provider, logger, services.WithMaxParallel(1)), nil
}

// fileProvider serves one local file for every page
type fileProvider struct {
	path  string
	sheet string
}

func (p fileProvider) For(config.SourceDefinition) (sources.Source, error) {
	switch ext := strings.ToLower(filepath.Ext(p.path)); ext {
	case ".csv", ".txt":
		return &sources.CSVSource{Path: p.path}, nil
	case ".xlsx", ".xlsm":
		return &sources.ExcelSource{Path: p.path, Sheet: p.sheet}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv or .xlsx)", ext)
	}
}

// configuredFactory reads sheet credentials from the regular configuration
func configuredFactory(ctx context.Context, logger *slog.Logger) (*sources.Factory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	factory := &sources.Factory{
		DefaultSpreadsheetID: cfg.Sheets.DefaultSpreadsheetID,
		Timeout:              cfg.Sheets.RequestTimeout,
		Logger:               logger,
	}
	if cfg.Sheets.HasCredentials() {
		srv, err := sources.NewSheetsService(ctx, cfg.Sheets)
		if err != nil {
			return nil, err
		}
		factory.Sheets = srv
	}
	return factory, nil
}
