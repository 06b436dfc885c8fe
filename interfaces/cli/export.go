package cli

import (
	"os"

	"github.com/spf13/cobra"

	"canvas-backend/domain/services"
	"canvas-backend/infrastructure/export"
)

var plain = services.NewDefaultTagExtractor(0)

var (
	exportOut  string
	exportFont string
	exportOpts = export.DefaultOptions()
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the canvas to a PNG image",
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	f := exportCmd.Flags()
	f.StringVarP(&exportOut, "out", "o", "canvas.png", "output file")
	f.StringVar(&exportFont, "font", "", "TrueType font for block text; text is skipped without one")
	f.Float64Var(&exportOpts.Margin, "margin", exportOpts.Margin, "margin around the scene in pixels")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, cleanup, err := openContainer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	snap, err := c.Session.Scene(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	opts := exportOpts
	opts.FontPath = exportFont
	if err := export.WritePNG(f, snap, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	good.Printf("wrote %s ", exportOut)
	subtle.Printf("(%d blocks, %d connections)\n", len(snap.Entities), len(snap.Edges))
	return nil
}
