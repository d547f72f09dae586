package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/raster"
)

var rendererCmd = &cobra.Command{
	Use:   "renderer",
	Short: "Check and maintain the page renderer",
	Long: `Check and maintain the page renderer.

Pages are rasterized with pdftoppm on the host, with MuPDF in-process (fitz),
or with pdftoppm inside a short-lived poppler container (docker).

Examples:
  pdfextract renderer check                     # Verify the configured renderer
  pdfextract renderer check --renderer docker   # Pull the poppler image
  pdfextract renderer cleanup                   # Remove leftover render containers`,
}

var rendererName string

var rendererCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the configured renderer can run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		name := cfg.Extraction.Renderer
		if rendererName != "" {
			name = rendererName
		}

		r, err := raster.NewRenderer(name, cfg.RendererOptions(slog.Default()))
		if err != nil {
			return err
		}
		if c, ok := r.(io.Closer); ok {
			defer c.Close()
		}

		switch r := r.(type) {
		case *raster.PdftoppmRenderer:
			if err := r.Available(); err != nil {
				return err
			}
		case *raster.DockerRenderer:
			fmt.Fprintf(cmd.OutOrStdout(), "Ensuring image %s...\n", r.Image())
			if err := r.Pull(ctx); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Renderer %s is ready\n", r.Name())
		return nil
	},
}

var rendererCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove render containers left behind by interrupted runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}

		r, err := raster.NewDockerRenderer(raster.DockerConfig{
			Image:  mgr.Get().Renderer.DockerImage,
			Logger: slog.Default(),
		})
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.Cleanup(ctx); err != nil {
			return fmt.Errorf("failed to clean up render containers: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Render containers removed")
		return nil
	},
}

func init() {
	rendererCheckCmd.Flags().StringVar(&rendererName, "renderer", "", "Renderer to check (default: extraction.renderer)")

	rendererCmd.AddCommand(rendererCheckCmd)
	rendererCmd.AddCommand(rendererCleanupCmd)
	rootCmd.AddCommand(rendererCmd)
}
