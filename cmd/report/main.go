// report is the command-line companion to reportd: it runs the same
// pipeline on local mail files without the HTTP layer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"dispatchreport/internal/ingest"
	"dispatchreport/internal/report"
	"dispatchreport/internal/template"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	templatePath string
	layoutPath   string
	required     string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "report",
		Short:         "Turn incident mail text into filled report workbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.templatePath, "template", "template.xlsm", "base workbook to fill")
	cmd.PersistentFlags().StringVar(&opts.layoutPath, "layout", "", "JSON cell layout override")
	cmd.PersistentFlags().StringVar(&opts.required, "required", "", "comma-separated fields that must be present")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newExtractCmd(opts))
	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	return cmd
}

// newService builds the pipeline for one-shot use; no history store.
func newService(opts *rootOptions) (*report.Service, error) {
	templateBytes, err := os.ReadFile(opts.templatePath)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	layout := template.DefaultLayout()
	if opts.layoutPath != "" {
		layout, err = template.LoadLayout(opts.layoutPath)
		if err != nil {
			return nil, err
		}
	}
	required, err := report.ParseRequiredFields(opts.required)
	if err != nil {
		return nil, err
	}
	return report.NewService(templateBytes, layout, nil, required, slog.Default()), nil
}

func readMail(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newExtractCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <mail-file>",
		Short: "Parse a mail file and print the extracted record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts)
			if err != nil {
				return err
			}
			text, err := readMail(args[0])
			if err != nil {
				return err
			}
			rec := svc.Extract(cmd.Context(), text)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec.Map())
		},
	}
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var outDir string
	var sets []string
	cmd := &cobra.Command{
		Use:   "generate <mail-file>",
		Short: "Generate a filled workbook from a mail file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts)
			if err != nil {
				return err
			}
			text, err := readMail(args[0])
			if err != nil {
				return err
			}
			edits := map[string]string{}
			for _, s := range sets {
				k, v, ok := strings.Cut(s, "=")
				if !ok {
					return fmt.Errorf("--set expects key=value, got %q", s)
				}
				edits[k] = v
			}
			res, err := svc.GenerateFromText(cmd.Context(), text, edits)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			out := filepath.Join(outDir, res.Filename)
			if err := os.WriteFile(out, res.Artifact, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for generated workbooks")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a record field, e.g. --set affiliation=札幌支店")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var inbox, outDir string
	var scan bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch an inbox directory and convert mail files as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService(opts)
			if err != nil {
				return err
			}
			events, errCh, err := ingest.StartWatcher(cmd.Context(), ingest.WatchConfig{
				Root:        inbox,
				InitialScan: scan,
			}, slog.Default())
			if err != nil {
				return err
			}
			go func() {
				for err := range errCh {
					slog.Warn("inbox watcher", "error", err)
				}
			}()
			return ingest.NewRunner(svc, outDir, slog.Default()).Run(cmd.Context(), events)
		},
	}
	cmd.Flags().StringVar(&inbox, "inbox", "./inbox", "directory to watch for mail files")
	cmd.Flags().StringVarP(&outDir, "out", "o", "./out", "directory for generated workbooks")
	cmd.Flags().BoolVar(&scan, "scan", false, "also convert mail files already present in the inbox")
	return cmd
}
