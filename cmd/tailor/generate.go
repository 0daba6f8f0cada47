package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"resume-tailor/internal/render"
)

func newGenerateCmd(c *cli) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render plain text as a DOCX document",
		Long:  "Render plain text as a DOCX document, one paragraph per line. Use --in - to read from stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				raw []byte
				err error
			)
			if in == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(in)
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			docx, err := render.GenerateDOCX(string(raw))
			if err != nil {
				return fmt.Errorf("render docx: %w", err)
			}
			if err := os.WriteFile(out, docx, 0o644); err != nil {
				return fmt.Errorf("write docx: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d paragraphs)\n", out, len(render.Paragraphs(string(raw))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Text file to render, or - for stdin")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output DOCX path")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
