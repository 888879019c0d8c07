package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flemzord/ctxwin/internal/wire"
)

func assembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble a context window from a request file",
		Long: "Reads an assembly request (JSON or YAML) and prints the assembled context.\n" +
			"Use -f - to read from stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			format, _ := cmd.Flags().GetString("format")
			promptOnly, _ := cmd.Flags().GetBool("prompt-only")
			window, _ := cmd.Flags().GetInt("window")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := newApp(cmd.Context(), cfg, newLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			r, format, err := openInput(cmd, file, format)
			if err != nil {
				return fmt.Errorf("assemble: %w", err)
			}
			defer func() { _ = r.Close() }()

			decode := wire.DecodeJSON
			if format == "yaml" {
				decode = wire.DecodeYAML
			}
			req, err := decode(r)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("window") {
				req.ContextWindowTokens = window
			}

			assembled := rt.recorder.Build(cmd.Context(), rt.assembler, req.Input())
			if promptOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), assembled.Render())
				return err
			}
			return wire.EncodeJSON(cmd.OutOrStdout(), wire.NewResponse(assembled))
		},
	}
	cmd.Flags().StringP("file", "f", "-", "Request file (JSON or YAML), - for stdin")
	cmd.Flags().String("format", "", "Request format: json or yaml (default: from extension, else json)")
	cmd.Flags().Bool("prompt-only", false, "Print only the rendered prompt")
	cmd.Flags().Int("window", 0, "Override the request's context window (tokens)")
	return cmd
}

func measureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Fill in missing token counts of history entries",
		Long: "Reads a measure request (speaker_name and history, JSON or YAML) and prints the\n" +
			"history with every token count set, for storage alongside the messages.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			format, _ := cmd.Flags().GetString("format")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := newApp(cmd.Context(), cfg, newLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			r, format, err := openInput(cmd, file, format)
			if err != nil {
				return fmt.Errorf("measure: %w", err)
			}
			defer func() { _ = r.Close() }()

			decode := wire.DecodeMeasureJSON
			if format == "yaml" {
				decode = wire.DecodeMeasureYAML
			}
			req, err := decode(r)
			if err != nil {
				return err
			}
			measured := rt.assembler.MeasureEntries(req.History, req.SpeakerName)
			return wire.EncodeJSON(cmd.OutOrStdout(), wire.NewMeasureResponse(measured))
		},
	}
	cmd.Flags().StringP("file", "f", "-", "Request file (JSON or YAML), - for stdin")
	cmd.Flags().String("format", "", "Request format: json or yaml (default: from extension, else json)")
	return cmd
}

// openInput opens file, or stdin for "-", and resolves the request format
// from the extension when none is given.
func openInput(cmd *cobra.Command, file, format string) (io.ReadCloser, string, error) {
	if format == "" {
		format = formatFromPath(file)
	}
	if file == "-" {
		return io.NopCloser(cmd.InOrStdin()), format, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, "", err
	}
	return f, format, nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
