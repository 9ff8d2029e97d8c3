// Package main provides the websentry binary entry point.
// WebSentry performs a lightweight, unauthenticated security review of a
// single web page and produces JSON and HTML reports.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/Jerold2105/websentry-ai/llm/providers"

	"github.com/Jerold2105/websentry-ai/config"
	"github.com/Jerold2105/websentry-ai/report"
	"github.com/Jerold2105/websentry-ai/scanner"
	"github.com/Jerold2105/websentry-ai/store"
	"github.com/Jerold2105/websentry-ai/webapp"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "websentry",
		Short: "Lightweight web page security review",
		Long: `WebSentry fetches a single web page, checks its response headers
against a fixed set of baseline security rules, and produces a structured
report with an executive summary.

The summary is written by an LLM when one is configured and always falls
back to a deterministic rule-based paragraph otherwise.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to websentry.yaml (default: search current and parent directories)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	cmd.AddCommand(scanCmd(&configPath, &logLevel))
	cmd.AddCommand(serveCmd(&configPath, &logLevel))
	cmd.AddCommand(versionCmd())

	return cmd
}

func scanCmd(configPath, logLevel *string) *cobra.Command {
	var (
		outJSON string
		outHTML string
	)

	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Scan one page and write JSON and HTML reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*logLevel)
			cfg, err := config.NewLoader(logger).Load(*configPath)
			if err != nil {
				return err
			}

			url := args[0]
			fmt.Printf("Scanning %s\n\n", url)

			ctx, stop := signalContext()
			defer stop()

			sc := scanner.New(cfg, scanner.WithLogger(logger))
			rep, err := sc.Scan(ctx, url)
			if err != nil {
				return err
			}

			fmt.Printf("Page title: %s\n\n", rep.Title)

			if outJSON != "" || outHTML != "" {
				if err := writeExplicitArtifacts(rep, outJSON, outHTML); err != nil {
					return err
				}
			} else {
				artifacts, err := store.New(cfg.Reports.Dir).Save(rep)
				if err != nil {
					return err
				}
				fmt.Printf("Saved JSON report: %s\n", artifacts.JSONPath)
				fmt.Printf("Saved HTML report: %s\n\n", artifacts.HTMLPath)
			}

			printFindings(rep)
			return nil
		},
	}

	cmd.Flags().StringVar(&outJSON, "out-json", "", "Explicit output path for the JSON report")
	cmd.Flags().StringVar(&outHTML, "out-html", "", "Explicit output path for the HTML report")

	return cmd
}

func serveCmd(configPath, logLevel *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scan web UI and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*logLevel)
			cfg, err := config.NewLoader(logger).Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signalContext()
			defer stop()

			sc := scanner.New(cfg, scanner.WithLogger(logger))
			st := store.New(cfg.Reports.Dir)
			server := webapp.NewServer(cfg, sc, st, logger)

			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", report.ToolName, report.ToolVersion)
		},
	}
}

// writeExplicitArtifacts writes the report to caller-chosen paths.
func writeExplicitArtifacts(rep *report.Report, outJSON, outHTML string) error {
	if outJSON != "" {
		f, err := os.Create(outJSON)
		if err != nil {
			return fmt.Errorf("create %s: %w", outJSON, err)
		}
		defer f.Close()
		if err := rep.WriteJSON(f); err != nil {
			return fmt.Errorf("write %s: %w", outJSON, err)
		}
		fmt.Printf("Saved JSON report: %s\n", outJSON)
	}

	if outHTML != "" {
		f, err := os.Create(outHTML)
		if err != nil {
			return fmt.Errorf("create %s: %w", outHTML, err)
		}
		defer f.Close()
		if err := report.RenderHTML(f, rep); err != nil {
			return fmt.Errorf("write %s: %w", outHTML, err)
		}
		fmt.Printf("Saved HTML report: %s\n", outHTML)
	}

	return nil
}

// printFindings prints the console summary after a CLI scan.
func printFindings(rep *report.Report) {
	if len(rep.Findings) == 0 {
		fmt.Println("No obvious issues detected.")
		return
	}

	for i, f := range rep.Findings {
		fmt.Printf("[%d] %s\n", i+1, f.Title)
		fmt.Printf("    Severity  : %s\n", f.Severity)
		fmt.Printf("    Evidence  : %s\n", f.Evidence)
		fmt.Printf("    Mitigation: %s\n\n", f.Mitigation)
	}
}

// newLogger builds the process logger at the requested level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
