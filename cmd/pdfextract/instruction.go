package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/api"
	"github.com/jackzampolin/pdfextract/internal/instruction"
	"github.com/jackzampolin/pdfextract/internal/server/endpoints"
)

var instructionFlags struct {
	mode   string
	fields string
	format string
}

var instructionCmd = &cobra.Command{
	Use:   "instruction",
	Short: "Print the instruction sent to the model for every page",
	Long: `Print the instruction that accompanies each page image.

The instruction depends only on the mode, the field list and the output
format, so it can be previewed without a PDF or credentials.

Examples:
  pdfextract instruction --fields "name, date, total_amount"
  pdfextract instruction --mode auto -f Markdown`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, text, err := requestFromFlags(cmd, instructionFlags.mode, instructionFlags.fields, instructionFlags.format)
		if err != nil {
			return err
		}
		return api.Output(endpoints.InstructionResponse{
			Mode:        req.Mode.String(),
			Fields:      req.Fields,
			Format:      req.Format.String(),
			Instruction: text,
			Artifact:    req.Format.Artifact(),
		})
	},
}

func init() {
	addRequestFlags(instructionCmd, &instructionFlags.mode, &instructionFlags.fields, &instructionFlags.format)
	rootCmd.AddCommand(instructionCmd)
}

func addRequestFlags(cmd *cobra.Command, mode, fields, format *string) {
	cmd.Flags().StringVar(mode, "mode", "", "manual or auto (default: manual when --fields is set, else auto)")
	cmd.Flags().StringVar(fields, "fields", "", `Comma-separated field names; manual mode defaults to "`+instruction.DefaultFields+`"`)
	cmd.Flags().StringVarP(format, "format", "f", instruction.FormatJSON.String(), "Output format: JSON, XML, Markdown or HTML")
}

// requestFromFlags turns CLI flags into a validated request and its
// instruction text. An explicit --mode manual without --fields uses
// instruction.DefaultFields.
func requestFromFlags(cmd *cobra.Command, mode, fields, format string) (instruction.Request, string, error) {
	names := instruction.ParseFields(fields)
	if mode == "" {
		mode = "auto"
		if len(names) > 0 {
			mode = "manual"
		}
	}
	if strings.EqualFold(strings.TrimSpace(mode), "manual") && !cmd.Flags().Changed("fields") {
		names = instruction.ParseFields(instruction.DefaultFields)
	}

	req, err := instruction.NewRequest(mode, names, format)
	if err != nil {
		return instruction.Request{}, "", err
	}
	text, err := req.Instruction()
	if err != nil {
		return instruction.Request{}, "", err
	}
	return req, text, nil
}
