package renderer

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"discord-chat-shorts/internal/effects"
	"discord-chat-shorts/internal/system"
	"discord-chat-shorts/internal/timeline"
)

// FrameAt flattens the timeline at time t into a single RGBA frame:
// background, the active scene's content (with its entry animation
// applied), then every overlay whose window covers t. Pure with
// respect to inputs; frames come from the shared pool and must be
// returned with Release after use.
func FrameAt(tl *timeline.Timeline, t float64) *image.RGBA {
	frame := system.GetFrame(image.Rect(0, 0, tl.Width, tl.Height))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(tl.Background), image.Point{}, draw.Src)

	idx, local := tl.SceneAt(t)
	s := tl.Scenes[idx]

	tr := effects.ForTag(s.Animation).At(local, s.Duration)
	if isIdentity(tr) {
		s.RenderContent(frame, local)
	} else {
		scratch := system.GetFrame(frame.Bounds())
		s.RenderContent(scratch, local)
		drawTransformed(frame, scratch, tr)
		system.PutFrame(scratch)
	}

	for _, ov := range tl.Overlays {
		if t < ov.Start || t >= ov.End {
			continue
		}
		r := ov.Image.Bounds().Add(ov.Pos)
		draw.Draw(frame, r, ov.Image, ov.Image.Bounds().Min, draw.Over)
	}

	return frame
}

// Release returns a frame obtained from FrameAt to the pool.
func Release(frame *image.RGBA) {
	system.PutFrame(frame)
}

func isIdentity(tr effects.Transform) bool {
	return tr.Scale == 1 && tr.Alpha == 1 && tr.OffsetY == 0
}

// drawTransformed composites src onto dst scaled about the frame
// center, shifted by OffsetY and attenuated by Alpha.
func drawTransformed(dst, src *image.RGBA, tr effects.Transform) {
	if tr.Alpha <= 0 {
		return
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dstW := int(float64(w) * tr.Scale)
	dstH := int(float64(h) * tr.Scale)
	if dstW < 1 || dstH < 1 {
		return
	}

	x0 := (w - dstW) / 2
	y0 := (h-dstH)/2 + int(tr.OffsetY)
	dr := image.Rect(x0, y0, x0+dstW, y0+dstH)

	var opts *xdraw.Options
	if tr.Alpha < 1 {
		alpha := uint8(tr.Alpha * 255)
		opts = &xdraw.Options{
			SrcMask: image.NewUniform(color.Alpha{A: alpha}),
		}
	}
	xdraw.ApproxBiLinear.Scale(dst, dr, src, b, xdraw.Over, opts)
}
