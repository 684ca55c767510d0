// Command mogfiledebug diagnoses one file in a MogileFS install: it asks
// a tracker for the file's debug descriptor, checks every physical copy
// over HTTP, and reports discrepancies between the copies and the
// tracker's bookkeeping. Strictly read-only.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelling/mogilefs-utils/internal/checker"
	"github.com/shelling/mogilefs-utils/internal/config"
	"github.com/shelling/mogilefs-utils/internal/descriptor"
	"github.com/shelling/mogilefs-utils/internal/logging"
	"github.com/shelling/mogilefs-utils/internal/report"
	"github.com/shelling/mogilefs-utils/internal/tracker"
)

var version = "dev"

func main() {
	os.Exit(run())
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func run() int {
	var (
		trackers    []string
		domain      string
		key         string
		fid         int64
		pathsStr    string
		digestStr   string
		workers     int
		timeout     time.Duration
		verbose     bool
		quiet       bool
		logFile     string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "mogfiledebug --trackers=host:port --domain=<domain> --key=<key>",
		Short: "Dump and verify everything MogileFS knows about one file",
		Long: `mogfiledebug queries a tracker for a file's debug descriptor, probes
every physical copy over HTTP, and cross-checks the copies against the
authoritative record. Discrepancies are reported as text; they never
affect the exit status. The file is selected either by --domain/--key
or by --fid.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "mogfiledebug %s\n", version)
				return nil
			}

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults,
				&trackers, &pathsStr, &digestStr, &workers, &timeout)

			policy, err := checker.ParsePolicy(pathsStr)
			if err != nil {
				return err
			}
			digest, err := checker.ParseDigest(digestStr)
			if err != nil {
				return err
			}
			if len(trackers) == 0 {
				return errors.New("at least one tracker is required")
			}

			// Configure logging.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, lfErr := os.Create(logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = logging.NewMultiHandler(textHandler, jsonHandler)
			}
			slog.SetDefault(slog.New(logHandler))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Select the file by fid when given, otherwise by domain/key.
			// An empty key is passed through; rejecting it is the
			// tracker's call.
			var query tracker.Query = tracker.ByKey{Domain: domain, Key: key}
			if cmd.Flags().Changed("fid") {
				query = tracker.ByFID{FID: fid}
			}

			slog.Debug("querying tracker",
				"trackers", trackers,
				"domain", domain,
				"key", key,
				"fid", fid,
				"policy", policy.String(),
			)

			tc := tracker.New(trackers, timeout)
			fields, err := tc.FileDebug(ctx, query)
			if err != nil {
				slog.Error("tracker query failed", "error", err)
				return &exitError{code: 1}
			}

			desc := descriptor.Parse(fields)
			slog.Debug("descriptor parsed",
				"paths", len(desc.Paths),
				"groups", len(desc.Groups),
				"record", desc.Record != nil,
			)

			ck := checker.New(policy, digest, timeout, workers)
			results := ck.Check(ctx, desc.Paths)

			rep := report.Reconcile(desc, policy, digest, results)
			rep.Render(os.Stdout)
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	rootCmd.Flags().
		StringSliceVar(&trackers, "trackers", []string{"127.0.0.1:7001"}, "tracker host:port list, tried in order")
	rootCmd.Flags().StringVar(&domain, "domain", "", "domain the key belongs to")
	rootCmd.Flags().StringVar(&key, "key", "", "key of the file to inspect")
	rootCmd.Flags().Int64Var(&fid, "fid", 0, "numeric file ID (alternative to --domain/--key)")
	rootCmd.Flags().
		StringVar(&pathsStr, "paths", "fetch", "how to check each copy: print, stat or fetch")
	rootCmd.Flags().
		StringVar(&digestStr, "digest", "md5", "digest for fetched copies: md5, sha1 or blake3")
	rootCmd.Flags().
		IntVar(&workers, "workers", checker.DefaultWorkers, "parallel path checks")
	rootCmd.Flags().
		DurationVar(&timeout, "timeout", tracker.DefaultTimeout, "per-request timeout for tracker and HTTP calls")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprint(os.Stderr, rootCmd.UsageString())
		return 2
	}

	return 0
}

// applyConfigDefaults applies config file defaults for flags not
// explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	trackers *[]string,
	paths *string,
	digest *string,
	workers *int,
	timeout *time.Duration,
) {
	if !cmd.Flags().Changed("trackers") && len(defaults.Trackers) > 0 {
		*trackers = defaults.Trackers
	}
	if !cmd.Flags().Changed("paths") && defaults.Paths != nil {
		*paths = *defaults.Paths
	}
	if !cmd.Flags().Changed("digest") && defaults.Digest != nil {
		*digest = *defaults.Digest
	}
	if !cmd.Flags().Changed("workers") && defaults.Workers != nil {
		*workers = *defaults.Workers
	}
	if !cmd.Flags().Changed("timeout") && defaults.Timeout != nil {
		if d, err := time.ParseDuration(*defaults.Timeout); err == nil {
			*timeout = d
		} else {
			slog.Warn("invalid timeout in config", "value", *defaults.Timeout, "error", err)
		}
	}
}
