package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stake-plus/trustek/src/actions"
	"github.com/stake-plus/trustek/src/ai/core"
	"github.com/stake-plus/trustek/src/factcheck"
)

var (
	checkImage   string
	checkTimeout time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check [claim]",
	Short: "Fact-check a single claim or image from the command line",
	Example: `  trustek check "The Eiffel Tower is in Paris"
  trustek check --image ./photo.jpg`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkImage, "image", "", "Path to an image to check instead of a claim")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 3*time.Minute, "Overall deadline including retries")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The CLI has no shared session store.
	cfg.RedisURL = ""

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	rt, err := actions.Bootstrap(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer rt.Close()

	req := core.AnalysisRequest{Mode: core.ModeText, Claim: strings.Join(args, " ")}
	if checkImage != "" {
		img, err := os.ReadFile(checkImage)
		if err != nil {
			return err
		}
		req = core.AnalysisRequest{Mode: core.ModeImage, Image: img, FileName: filepath.Base(checkImage)}
	}

	report, err := rt.Service.Submit(ctx, "cli", req)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), factcheck.UserMessage(err))
		return err
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *factcheck.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n%s\n", report.Label, report.Text)
	if len(report.Sources) == 0 {
		return
	}
	fmt.Fprintln(out, "\nSources:")
	for i, src := range report.Sources {
		fmt.Fprintf(out, "  %d. %s (%s)\n     %s\n", i+1, src.Title, src.Host, src.URI)
	}
}
