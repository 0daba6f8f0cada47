package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-tailor/internal/analyses"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/render"
)

const cliSession = "cli"

type analyzeOptions struct {
	file    string
	text    string
	job     string
	jobFile string
	jobURL  string
	docxOut string
	asJSON  bool
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a résumé against a job description",
		Long:  "Analyze a résumé file (--file) or pasted text (--text) against a job description given inline (--job), in a file (--job-file), or by URL (--job-url).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runAnalyze(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Path to a PDF, DOC, or DOCX résumé")
	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Résumé text")
	cmd.Flags().StringVarP(&opts.job, "job", "j", "", "Job description text")
	cmd.Flags().StringVar(&opts.jobFile, "job-file", "", "Path to a file holding the job description")
	cmd.Flags().StringVar(&opts.jobURL, "job-url", "", "URL of the job posting")
	cmd.Flags().StringVarP(&opts.docxOut, "docx", "o", "", "Write the tailored résumé to this DOCX path")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full result as JSON")
	cmd.MarkFlagsMutuallyExclusive("file", "text")
	cmd.MarkFlagsOneRequired("file", "text")
	cmd.MarkFlagsMutuallyExclusive("job", "job-file", "job-url")
	cmd.MarkFlagsOneRequired("job", "job-file", "job-url")
	return cmd
}

func (c *cli) runAnalyze(cmd *cobra.Command, opts analyzeOptions) error {
	ctx := cmd.Context()
	cfg := c.loadConfig()

	jobDescription, err := c.jobDescription(cmd, opts)
	if err != nil {
		return err
	}

	in := analyses.Input{
		SessionKey:     cliSession,
		JobDescription: jobDescription,
	}
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("open résumé: %w", err)
		}
		defer f.Close()
		in.Source = analyses.SourceFile
		in.File = f
		in.FileName = filepath.Base(opts.file)
		in.MediaType = extract.MediaTypeFor(mime.TypeByExtension(filepath.Ext(opts.file)), opts.file)
	} else {
		in.Source = analyses.SourceText
		in.ResumeText = opts.text
	}

	svc := analyses.NewService(c.newLLM(cfg), nil, cfg.LLMModel)
	result, err := svc.Analyze(ctx, in)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if opts.docxOut != "" {
		docx, err := render.GenerateDOCX(result.GeneratedResume)
		if err != nil {
			return fmt.Errorf("render docx: %w", err)
		}
		if err := os.WriteFile(opts.docxOut, docx, 0o644); err != nil {
			return fmt.Errorf("write docx: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printSummary(out, result)
	if opts.docxOut != "" {
		fmt.Fprintf(out, "Tailored résumé: %s\n", opts.docxOut)
	}
	return nil
}

func (c *cli) jobDescription(cmd *cobra.Command, opts analyzeOptions) (string, error) {
	switch {
	case opts.jobFile != "":
		raw, err := os.ReadFile(opts.jobFile)
		if err != nil {
			return "", fmt.Errorf("read job description: %w", err)
		}
		return string(raw), nil
	case opts.jobURL != "":
		if c.fetchJob == nil {
			return "", fmt.Errorf("fetching job URLs is not available")
		}
		text, err := c.fetchJob(cmd.Context(), opts.jobURL)
		if err != nil {
			return "", fmt.Errorf("fetch job description: %w", err)
		}
		return text, nil
	default:
		return opts.job, nil
	}
}

func printSummary(w io.Writer, result analyses.Result) {
	fmt.Fprintf(w, "ATS score: %.0f\n", result.ATSScore)
	fmt.Fprintf(w, "Matched keywords: %s\n", joinOrNone(result.MatchedKeywords))
	fmt.Fprintf(w, "Missing keywords: %s\n", joinOrNone(result.MissingKeywords))
	if len(result.Tips) > 0 {
		fmt.Fprintln(w, "Tips:")
		for _, tip := range result.Tips {
			fmt.Fprintf(w, "  - %s\n", tip)
		}
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
