package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"regexp"
	"strings"
)

// Tenor share links point at an HTML page, not at the media itself.
// The direct GIF URL is embedded in the page body.
var tenorMediaRe = regexp.MustCompile(`https://media1\.tenor\.com/[^\s"']+\.gif`)

// AnimatedClip is a decoded animated attachment: coalesced frames with
// per-frame delays and a natural playback duration. The scene length of
// an animated attachment follows this duration, not the scenario's.
type AnimatedClip struct {
	Frames   []*image.RGBA
	Delays   []float64 // seconds per frame
	Duration float64
}

// FrameAt returns the frame visible at time t. Past the natural end it
// holds the last frame, since scenes never outlive the clip by more
// than rounding.
func (c *AnimatedClip) FrameAt(t float64) *image.RGBA {
	if len(c.Frames) == 0 {
		return nil
	}
	elapsed := 0.0
	for i, d := range c.Delays {
		elapsed += d
		if t < elapsed {
			return c.Frames[i]
		}
	}
	return c.Frames[len(c.Frames)-1]
}

// Bounds returns the frame size of the clip.
func (c *AnimatedClip) Bounds() image.Rectangle {
	if len(c.Frames) == 0 {
		return image.Rectangle{}
	}
	return c.Frames[0].Bounds()
}

// FetchAnimated downloads and decodes an animated GIF, resolving
// GIF-host share pages to the underlying media first. Frames are
// scaled to fit within maxSize x maxSize.
func (f *Fetcher) FetchAnimated(ctx context.Context, url string, maxSize int) (*AnimatedClip, error) {
	mediaURL := url
	if strings.HasPrefix(url, "https://tenor.com") {
		page, err := f.get(ctx, url)
		if err != nil {
			return nil, err
		}
		match := tenorMediaRe.Find(page)
		if match == nil {
			return nil, &Error{URL: url, Stage: "resolve", Err: fmt.Errorf("no direct GIF URL in share page")}
		}
		mediaURL = string(match)
	}

	data, err := f.get(ctx, mediaURL)
	if err != nil {
		return nil, err
	}

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{URL: mediaURL, Stage: "decode", Err: err}
	}
	if len(decoded.Image) == 0 {
		return nil, &Error{URL: mediaURL, Stage: "decode", Err: fmt.Errorf("GIF has no frames")}
	}

	return coalesce(decoded, maxSize), nil
}

// coalesce flattens the GIF's delta frames onto a running canvas, so
// every output frame is complete, then scales each one down to the
// attachment box.
func coalesce(g *gif.GIF, maxSize int) *AnimatedClip {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	clip := &AnimatedClip{
		Frames: make([]*image.RGBA, 0, len(g.Image)),
		Delays: make([]float64, 0, len(g.Image)),
	}

	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		delay := 0.1 // GIF convention: zero delay plays at 10cs
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = float64(g.Delay[i]) / 100.0
		}

		clip.Frames = append(clip.Frames, FitWithin(canvas, maxSize, maxSize))
		clip.Delays = append(clip.Delays, delay)
		clip.Duration += delay
	}

	return clip
}
