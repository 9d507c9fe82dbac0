package timeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"

	"github.com/samber/lo"
	qrcode "github.com/skip2/go-qrcode"

	"discord-chat-shorts/internal/config"
	"discord-chat-shorts/internal/scenario"
	"discord-chat-shorts/internal/scene"
)

var (
	titleColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	watermarkColor = color.RGBA{R: 128, G: 128, B: 128, A: 255} // gray
)

// Overlay kinds, for inspection and logs.
const (
	OverlayTitle     = "title"
	OverlayWatermark = "watermark"
	OverlayQR        = "qr"
)

// Overlay is a persistent layer composited over the scene sequence.
// Start and End always span the full timeline.
type Overlay struct {
	Kind       string
	Image      *image.RGBA
	Pos        image.Point
	Start, End float64
}

// Timeline is the full ordered composition: background, concatenated
// scenes, persistent overlays. Ephemeral — built, encoded, discarded.
type Timeline struct {
	Width, Height int
	Background    color.RGBA
	Scenes        []*scene.Scene
	Overlays      []Overlay
	Duration      float64
}

// SceneAt maps timeline time to (scene index, scene-local time).
func (tl *Timeline) SceneAt(t float64) (int, float64) {
	elapsed := 0.0
	for i, s := range tl.Scenes {
		if t < elapsed+s.Duration {
			return i, t - elapsed
		}
		elapsed += s.Duration
	}
	last := len(tl.Scenes) - 1
	return last, tl.Scenes[last].Duration
}

// Compose builds one scene per message, in transcript order, and
// concatenates them into a continuous timeline with hard cuts. A nil
// timeline with a nil error means there is nothing to render — the
// normal terminal state for an empty transcript.
func Compose(ctx context.Context, scen *scenario.Scenario, builder *scene.Builder) (*Timeline, error) {
	if len(scen.Contents) == 0 {
		return nil, nil
	}

	layout := builder.Layout
	tl := &Timeline{
		Width:      layout.Width,
		Height:     layout.Height,
		Background: layout.Background.RGBA(),
	}

	// Strictly sequential: one scene at a time, transcript order.
	for i := range scen.Contents {
		s, err := builder.Build(ctx, &scen.Contents[i], scen.Chatters)
		if err != nil {
			return nil, fmt.Errorf("scene %d (%s): %w", i, scen.Contents[i].Username, err)
		}
		tl.Scenes = append(tl.Scenes, s)
	}

	tl.Duration = lo.SumBy(tl.Scenes, func(s *scene.Scene) float64 { return s.Duration })
	tl.Overlays = buildOverlays(scen.Descriptions, layout, builder.Fonts, tl.Duration)
	return tl, nil
}

// buildOverlays creates the persistent layers. Each one exists only
// when its source field is non-empty, and spans the whole timeline.
func buildOverlays(desc scenario.Descriptions, layout config.Layout, fonts *scene.Fonts, duration float64) []Overlay {
	var overlays []Overlay

	if desc.Title != "" {
		img := scene.RenderText(fonts.Title, desc.Title, layout.ContentWidth(), 0, titleColor)
		overlays = append(overlays, Overlay{
			Kind:  OverlayTitle,
			Image: img,
			Pos:   image.Point{X: layout.SidePadding, Y: layout.TitleOffsetTop},
			Start: 0,
			End:   duration,
		})
	}

	if desc.Watermark != "" {
		img := scene.RenderText(fonts.Watermark, desc.Watermark, layout.ContentWidth(), 0, watermarkColor)
		overlays = append(overlays, Overlay{
			Kind:  OverlayWatermark,
			Image: img,
			Pos:   image.Point{X: layout.SidePadding, Y: layout.Height - layout.WatermarkOffsetBot},
			Start: 0,
			End:   duration,
		})
	}

	if desc.Link != "" {
		if img := qrOverlayImage(desc.Link, layout.QROverlaySize); img != nil {
			overlays = append(overlays, Overlay{
				Kind:  OverlayQR,
				Image: img,
				Pos: image.Point{
					X: (layout.Width - layout.QROverlaySize) / 2,
					Y: layout.Height - layout.WatermarkOffsetBot - layout.QROverlaySize - 30,
				},
				Start: 0,
				End:   duration,
			})
		}
	}

	return overlays
}

// qrOverlayImage encodes the channel link as a QR code. Generation
// failure (oversized payload) only costs the overlay, never the run.
func qrOverlayImage(link string, size int) *image.RGBA {
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		log.Printf("[!] QR overlay skipped: %v", err)
		return nil
	}
	src := q.Image(size)

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	return img
}
