package main

// Inspect the analysis prompt, and optionally the backend's raw and parsed reply:
//   go run ./cmd/prompttest -resume cv.pdf -jd job.txt
//   go run ./cmd/prompttest -resume cv.pdf -jd job.txt -send -out reply.json

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resume-tailor/internal/analyses"
	"resume-tailor/internal/bootstrap"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume file (pdf, doc or docx)")
	jdPath := flag.String("jd", "", "Path to job description file")
	send := flag.Bool("send", false, "Send the prompt to the configured backend")
	outPath := flag.String("out", "", "Path to write the parsed JSON result (optional, needs -send)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" || strings.TrimSpace(*jdPath) == "" {
		exitErr("-resume and -jd are required")
	}

	resumeBytes, err := os.ReadFile(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}
	fileName := filepath.Base(*resumePath)
	extracted, err := extract.Extract(context.Background(), resumeBytes, extract.MediaTypeFor("", fileName), fileName)
	if err != nil {
		exitErr(fmt.Sprintf("extract resume text: %v", err))
	}

	jdBytes, err := os.ReadFile(*jdPath)
	if err != nil {
		exitErr(fmt.Sprintf("read job description: %v", err))
	}

	req := llm.BuildAnalysisRequest(extracted.Text, strings.TrimSpace(string(jdBytes)))
	fmt.Fprintf(os.Stderr, "prompt %s sha256=%s pages=%d chars=%d\n", req.PromptVersion, req.Hash(), extracted.Pages, len(extracted.Text))
	if !*send {
		fmt.Println(req.Text)
		return
	}

	cfg.LLMModel = *model
	reply, err := bootstrap.BuildLLM(cfg).Send(context.Background(), req)
	if err != nil {
		exitErr(fmt.Sprintf("llm send: %v", err))
	}
	fmt.Fprintf(os.Stderr, "--- raw reply ---\n%s\n--- end raw reply ---\n", reply)

	result, err := analyses.ParseResult(reply)
	if err != nil {
		exitErr(fmt.Sprintf("parse reply: %v", err))
	}
	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
