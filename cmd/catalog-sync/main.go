package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/winefeed/catalog-sync/pkg/catalog"
	"github.com/winefeed/catalog-sync/pkg/config"
	"github.com/winefeed/catalog-sync/pkg/feed"
	"github.com/winefeed/catalog-sync/pkg/ftp"
	"github.com/winefeed/catalog-sync/pkg/report"
	"github.com/winefeed/catalog-sync/pkg/syncer"
)

type options struct {
	envFile     string
	apiURL      string
	ftpTimeout  time.Duration
	httpTimeout time.Duration
	logLevel    string
	logFormat   string
	reportPath  string
	progress    bool
	strict      bool
}

func main() {
	if err := newRootCommand(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stdout, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "catalog-sync",
		Short: "Download the product feed over FTP and update every product in the catalog API",
		Long: `catalog-sync downloads the XML product feed from FTP, converts every <product>
element into a catalog record and PUTs it to the catalog API, one record at a time.

Required environment variables (may be set in the --env-file):
  ` + strings.Join(config.Required, "\n  "),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(out, opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	f.StringVar(&opts.apiURL, "api-url", catalog.BaseURL, "catalog API base URL")
	f.DurationVar(&opts.ftpTimeout, "ftp-timeout", 5*time.Second, "FTP connect timeout")
	f.DurationVar(&opts.httpTimeout, "http-timeout", 10*time.Second, "timeout of a single catalog update request")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	f.StringVar(&opts.reportPath, "report", "", "write a JSON run report to this path")
	f.BoolVar(&opts.progress, "progress", false, "show a progress bar on stderr while uploading")
	f.BoolVar(&opts.strict, "strict", false, "exit with an error when any product fails to update")

	return cmd
}

func run(ctx context.Context, opts options) error {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return xerrors.Errorf("env file error: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	retriever := ftp.NewRetriever(ftp.Option{
		Host:     cfg.FTPHost,
		Username: cfg.FTPUsername,
		Password: cfg.FTPPassword,
		Filename: cfg.XMLFilename,
		Timeout:  opts.ftpTimeout,
	})
	publisher := catalog.NewClient(catalog.Option{
		BaseURL: opts.apiURL,
		Token:   cfg.APIToken,
		Timeout: opts.httpTimeout,
	})

	var progress io.Writer
	if opts.progress {
		progress = os.Stderr
	}
	s := syncer.New(retriever, feed.NewExtractor(), publisher, syncer.Option{Progress: progress})

	summary, runErr := s.Run(ctx)
	if opts.reportPath != "" {
		if err = report.Write(opts.reportPath, report.New(summary, runErr)); err != nil {
			slog.Error("Unable to write run report", slog.String("path", opts.reportPath), slog.String("error", err.Error()))
		}
	}
	if runErr != nil {
		return runErr
	}
	if opts.strict {
		return summary.Err()
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, xerrors.Errorf("invalid log level %q: %w", level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return nil, xerrors.Errorf("unknown log format %q", format)
}
