package effects

import (
	"math"

	"discord-chat-shorts/internal/scenario"
)

// Transform is the per-frame treatment of a scene's content block.
// Identity means "draw as composed".
type Transform struct {
	Scale   float64 // uniform scale about the block center
	Alpha   float64 // 0..1 opacity multiplier
	OffsetY float64 // vertical displacement in pixels (positive = down)
}

var identity = Transform{Scale: 1, Alpha: 1, OffsetY: 0}

// Effect maps scene-local time to a content transform. Implementations
// are pure; the renderer samples them once per frame.
type Effect interface {
	At(t, duration float64) Transform
}

// ForTag returns the Effect for a normalized animation tag. Unknown
// tags were already mapped to "none" at scenario ingestion.
func ForTag(tag string) Effect {
	switch tag {
	case scenario.AnimScaleFade:
		return scaleFade{}
	case scenario.AnimPop:
		return pop{}
	case scenario.AnimSlideUp:
		return slideUp{}
	default:
		return none{}
	}
}

// entryWindow is how long the entry animation runs: 0.35s, but never
// more than a third of the scene so short scenes keep readable time.
func entryWindow(duration float64) float64 {
	w := 0.35
	if limit := duration / 3; limit < w {
		w = limit
	}
	return w
}

// progress returns eased 0..1 entry progress, 1 after the window.
func progress(t, duration float64) float64 {
	w := entryWindow(duration)
	if w <= 0 || t >= w {
		return 1
	}
	if t < 0 {
		t = 0
	}
	return easeInOutCubic(t / w)
}

type none struct{}

func (none) At(t, duration float64) Transform {
	return identity
}

type scaleFade struct{}

func (scaleFade) At(t, duration float64) Transform {
	p := progress(t, duration)
	return Transform{
		Scale:   lerp(0.85, 1.0, p),
		Alpha:   p,
		OffsetY: 0,
	}
}

type pop struct{}

func (pop) At(t, duration float64) Transform {
	w := entryWindow(duration)
	if w <= 0 || t >= w {
		return identity
	}
	if t < 0 {
		t = 0
	}
	// Overshoot: grows past 1.0 and settles back.
	p := easeOutBack(t / w)
	return Transform{
		Scale:   lerp(0.6, 1.0, p),
		Alpha:   math.Min(1, t/w*2),
		OffsetY: 0,
	}
}

type slideUp struct{}

func (slideUp) At(t, duration float64) Transform {
	p := progress(t, duration)
	return Transform{
		Scale:   1,
		Alpha:   p,
		OffsetY: lerp(60, 0, p),
	}
}
