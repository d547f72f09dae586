package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/api"
	"github.com/jackzampolin/pdfextract/internal/instruction"
)

// InstructionRequest is the body of POST /api/instruction.
type InstructionRequest struct {
	Mode   string   `json:"mode"`
	Fields []string `json:"fields,omitempty"`
	Format string   `json:"format"`
}

// InstructionResponse carries the directive the model would receive.
type InstructionResponse struct {
	Mode        string               `json:"mode"`
	Fields      []string             `json:"fields,omitempty"`
	Format      string               `json:"format"`
	Instruction string               `json:"instruction"`
	Artifact    instruction.Artifact `json:"artifact"`
}

// Text renders the instruction alone for text output.
func (r InstructionResponse) Text() string {
	return r.Instruction + "\n"
}

// defaultMode picks manual when fields were supplied and auto otherwise.
func defaultMode(mode string, fields []string) string {
	if mode != "" {
		return mode
	}
	if len(fields) > 0 {
		return "manual"
	}
	return "auto"
}

// buildInstruction validates the request and renders its directive.
func buildInstruction(mode string, fields []string, format string) (instruction.Request, string, error) {
	req, err := instruction.NewRequest(defaultMode(mode, fields), fields, format)
	if err != nil {
		return instruction.Request{}, "", err
	}
	text, err := req.Instruction()
	if err != nil {
		return instruction.Request{}, "", err
	}
	return req, text, nil
}

// InstructionEndpoint handles POST /api/instruction.
type InstructionEndpoint struct{}

var _ api.Endpoint = (*InstructionEndpoint)(nil)

func (e *InstructionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/instruction", e.handler
}

func (e *InstructionEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Preview an instruction
//	@Description	Build the directive sent to the model for a mode, field list and format
//	@Tags			extract
//	@Accept			json
//	@Produce		json
//	@Param			request	body		InstructionRequest	true	"Extraction request"
//	@Success		200		{object}	InstructionResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/instruction [post]
func (e *InstructionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var body InstructionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req, text, err := buildInstruction(body.Mode, body.Fields, body.Format)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, InstructionResponse{
		Mode:        req.Mode.String(),
		Fields:      req.Fields,
		Format:      req.Format.String(),
		Instruction: text,
		Artifact:    req.Format.Artifact(),
	})
}

func (e *InstructionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var mode, fields, format string
	cmd := &cobra.Command{
		Use:   "instruction",
		Short: "Preview the instruction the server would send",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp InstructionResponse
			body := InstructionRequest{
				Mode:   mode,
				Fields: instruction.ParseFields(fields),
				Format: format,
			}
			if err := client.Post(cmd.Context(), "/api/instruction", body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "manual or auto (default: manual when --fields is set)")
	cmd.Flags().StringVar(&fields, "fields", "", "Comma-separated field names for manual mode")
	cmd.Flags().StringVarP(&format, "format", "f", "JSON", fmt.Sprintf("Output format %v", instruction.Formats))
	return cmd
}
