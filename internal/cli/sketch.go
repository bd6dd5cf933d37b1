package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"room-studio/internal/common/logging"
	"room-studio/internal/room/render"

	"github.com/spf13/cobra"
)

// newSketchCmd рисует схему раскладки без обращения к моделям.
// Формат выбирается по расширению -o (.png или .svg).
func newSketchCmd() *cobra.Command {
	var (
		output   string
		roomType string
		width    int
		height   int
	)

	cmd := &cobra.Command{
		Use:   "sketch LAYOUT",
		Short: "Draw a layout document as a PNG or SVG floor sketch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readLayout(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = sidecar(args[0], ".png")
			}

			var format render.Format
			switch strings.ToLower(filepath.Ext(output)) {
			case ".png":
				format = render.FormatPNG
			case ".svg":
				format = render.FormatSVG
			default:
				return fmt.Errorf("unsupported output extension %q (want .png or .svg)", filepath.Ext(output))
			}

			sk := render.NewSketch(format)
			sk.Width, sk.Height = width, height
			img, err := sk.Render(cmd.Context(), render.Request{Layout: doc, RoomType: roomType})
			if err != nil {
				return err
			}
			if err := writeFile(output, img.Data); err != nil {
				return err
			}
			logging.FromContext(cmd.Context()).Info("sketch written", "path", output, "bytes", len(img.Data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .png or .svg (default LAYOUT with .png)")
	cmd.Flags().StringVar(&roomType, "room", "", "room type for the caption")
	cmd.Flags().IntVar(&width, "width", 1024, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", 768, "image height in pixels")

	return cmd
}
