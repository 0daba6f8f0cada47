// Command tailor runs the résumé tailoring pipeline from the terminal or as an
// HTTP server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"resume-tailor/internal/analyses"
	"resume-tailor/internal/bootstrap"
	"resume-tailor/internal/jobdesc"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/config"
)

// cli carries what the commands need from the outside world.
type cli struct {
	stdout     io.Writer
	loadConfig func() config.Config
	newLLM     func(config.Config) llm.Client
	fetchJob   analyses.JobFetcher
}

func defaultCLI() *cli {
	return &cli{
		stdout:     os.Stdout,
		loadConfig: config.Load,
		newLLM:     bootstrap.BuildLLM,
		fetchJob:   jobdesc.NewFetcher(jobdesc.Options{}).Fetch,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "tailor",
		Short:         "Tailor a résumé to a job description",
		Long:          "Extracts text from a PDF, DOC, or DOCX résumé, asks Gemini for an ATS-style analysis against a job description, and writes the tailored résumé as DOCX.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.stdout)
	root.AddCommand(newAnalyzeCmd(c), newGenerateCmd(c), newServeCmd(c))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultCLI()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
