package renderer

import (
	"context"
	"image"
	"testing"
	"time"

	"golang.org/x/image/font/basicfont"

	"discord-chat-shorts/internal/config"
	"discord-chat-shorts/internal/fetch"
	"discord-chat-shorts/internal/scenario"
	"discord-chat-shorts/internal/scene"
	"discord-chat-shorts/internal/timeline"
)

func testTimeline(t *testing.T, desc scenario.Descriptions, animation string) *timeline.Timeline {
	t.Helper()

	layout := config.DefaultLayout()
	layout.Width, layout.Height = 200, 400
	layout.SidePadding = 20
	layout.AvatarSize = 40
	layout.TitleOffsetTop = 20
	face := basicfont.Face7x13

	builder := &scene.Builder{
		Fetcher: fetch.New(5 * time.Second),
		Layout:  layout,
		Fonts: &scene.Fonts{
			Title:     face,
			Username:  face,
			Message:   face,
			Watermark: face,
		},
		DefaultSound: "/nonexistent/notification.mp3",
	}

	scen := &scenario.Scenario{
		Descriptions: desc,
		Chatters:     map[string]scenario.Chatter{},
		Contents: []scenario.Message{
			{Username: "a", Content: "hello there", Duration: 2.0, Animation: animation},
		},
	}

	tl, err := timeline.Compose(context.Background(), scen, builder)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	return tl
}

func TestFrameBackgroundColor(t *testing.T) {
	tl := testTimeline(t, scenario.Descriptions{}, scenario.AnimNone)
	frame := FrameAt(tl, 0.5)
	defer Release(frame)

	bg := tl.Background
	// Corners are never covered by the centered content block.
	r, g, b, _ := frame.At(0, 0).RGBA()
	if uint8(r>>8) != bg.R || uint8(g>>8) != bg.G || uint8(b>>8) != bg.B {
		t.Errorf("Corner pixel is not background: got (%d,%d,%d), want (%d,%d,%d)",
			r>>8, g>>8, b>>8, bg.R, bg.G, bg.B)
	}
}

func countNonBackground(tl *timeline.Timeline, frame *image.RGBA, top, bottom int) int {
	bg := tl.Background
	count := 0
	for y := top; y < bottom; y++ {
		for x := 0; x < tl.Width; x++ {
			i := frame.PixOffset(x, y)
			if frame.Pix[i] != bg.R || frame.Pix[i+1] != bg.G || frame.Pix[i+2] != bg.B {
				count++
			}
		}
	}
	return count
}

func TestOverlayPixelsPresentIffConfigured(t *testing.T) {
	// Title band is the rows at TitleOffsetTop; content is centered far below it.
	with := testTimeline(t, scenario.Descriptions{Title: "TITLE"}, scenario.AnimNone)
	frame := FrameAt(with, 0.5)
	if countNonBackground(with, frame, 20, 45) == 0 {
		t.Errorf("Expected title pixels in the top band")
	}
	Release(frame)

	without := testTimeline(t, scenario.Descriptions{}, scenario.AnimNone)
	frame = FrameAt(without, 0.5)
	if countNonBackground(without, frame, 20, 45) != 0 {
		t.Errorf("Expected no pixels in the title band without a title")
	}
	Release(frame)
}

func TestEntryAnimationChangesEarlyFrames(t *testing.T) {
	tl := testTimeline(t, scenario.Descriptions{}, scenario.AnimScaleFade)

	early := FrameAt(tl, 0.0) // alpha 0: content invisible
	settled := FrameAt(tl, 1.0)
	defer Release(early)
	defer Release(settled)

	if countNonBackground(tl, early, 0, tl.Height) != 0 {
		t.Errorf("scaleFade at t=0 should show background only")
	}
	if countNonBackground(tl, settled, 0, tl.Height) == 0 {
		t.Errorf("Settled frame should show content")
	}
}

func TestStaticSceneFramesAreStable(t *testing.T) {
	tl := testTimeline(t, scenario.Descriptions{Watermark: "W"}, scenario.AnimNone)

	a := FrameAt(tl, 0.3)
	b := FrameAt(tl, 1.7)
	defer Release(a)
	defer Release(b)

	if len(a.Pix) != len(b.Pix) {
		t.Fatalf("Frame sizes differ")
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("Static scene frames differ at byte %d", i)
		}
	}
}
