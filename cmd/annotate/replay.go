package main

import (
	"context"

	"github.com/spf13/cobra"

	"pdf-annotator/internal/app"
	"pdf-annotator/internal/document"
	"pdf-annotator/internal/layout"
	"pdf-annotator/internal/replay"
	"pdf-annotator/pkg/geometry"
)

func newReplayCmd() *cobra.Command {
	var (
		outDir string
		scale  float64
	)
	cmd := &cobra.Command{
		Use:   "replay <document> <script.yaml>",
		Short: "Annotate a document from a script and export the touched pages",
		Long: `Replay plays a YAML script of tool toggles and pointer events against the
annotation tools, then exports every page that received input.

  zoom: 1
  steps:
    - tool: highlighter
    - {action: down, page: 1, x: 72, y: 100}
    - {action: move, page: 1, x: 300, y: 104}
    - {action: up, page: 1, x: 300, y: 104}
    - tool: image
    - {action: click, page: 2, x: 200, y: 600, image: stamp.png}

Coordinates are pixels of the page at the script zoom.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			script, err := replay.Load(args[1])
			if err != nil {
				return err
			}

			player := replay.NewPlayer(logger)
			s, err := openSession(ctx, args[0], func(o *app.Options) {
				o.Editor = player
				o.Picker = player
				o.Signature = player
			})
			if err != nil {
				return err
			}
			defer s.close()

			vp := prepareReplay(ctx, s, script.Zoom)
			if err := player.Run(ctx, script, s.viewer.Controller(), vp); err != nil {
				return err
			}

			touched := player.Touched()
			if len(touched) == 0 {
				printWarning(cmd.OutOrStdout(), "script touched no pages")
				return nil
			}
			if scale <= 0 {
				scale = cfg.Render.ExportScale
			}
			written, err := exportPages(ctx, cmd, s.viewer.Renderer(), touched, scale, outDir)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "replayed %d step(s), exported %d page(s) to %s",
				len(script.Steps), written, outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	cmd.Flags().Float64Var(&scale, "scale", 0, "export scale (default: config export_scale)")
	return cmd
}

// prepareReplay renders every slot at zoom so text snapping sees the page
// text, and returns the viewport lookup for script coordinates.
func prepareReplay(ctx context.Context, s *session, zoom float64) replay.ViewportFunc {
	v := s.viewer
	v.SetZoom(zoom)
	r := v.Renderer()
	slots, _ := v.Slots()
	due := make([]int, len(slots))
	for i := range slots {
		due[i] = i
	}
	r.OnDue(ctx, due...)
	r.Wait()

	doc := s.document()
	return func(page int) (geometry.Viewport, bool) {
		if vp, ok := r.Viewport(page); ok {
			return vp, true
		}
		if page < 1 || page > doc.NumPages() {
			return geometry.Viewport{}, false
		}
		pg, err := doc.Page(ctx, page)
		if err != nil {
			return geometry.Viewport{}, false
		}
		vp, err := document.ViewportFor(pg, layout.ClampZoom(zoom), v.Rotation())
		return vp, err == nil
	}
}
