package api

import (
	"image/color"
	"net/http"

	"github.com/fogleman/gg"

	"snowfight/internal/arena"
	"snowfight/internal/config"
	"snowfight/internal/object"
)

const minimapPixels = 640

// handleArenaMinimap renders a PNG snapshot of current grid occupancy
// and live objects for visual debugging — a read-only, strictly
// additive operational endpoint (SPEC_FULL.md §12). Adapted from the
// canvas-drawing idiom used for video-stream frame rendering, repointed
// at grid occupancy instead of a live camera feed.
func handleArenaMinimap(a *arena.Arena, world config.WorldConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dc := gg.NewContext(minimapPixels, minimapPixels)
		dc.SetColor(color.RGBA{R: 20, G: 24, B: 38, A: 255})
		dc.Clear()

		scale := float64(minimapPixels) / world.Width

		_, objects := a.Grid().Snapshot()
		for _, o := range objects {
			x, y := o.Origin2D()
			px, py := x*scale, y*scale

			if o.Kind == object.KindPlayer {
				dc.SetColor(color.RGBA{R: 80, G: 200, B: 255, A: 255})
				dc.DrawCircle(px, py, 5)
			} else {
				dc.SetColor(color.RGBA{R: 255, G: 255, B: 255, A: 200})
				dc.DrawCircle(px, py, 2)
			}
			dc.Fill()
		}

		w.Header().Set("Content-Type", "image/png")
		_ = dc.EncodePNG(w)
	}
}
