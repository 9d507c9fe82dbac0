package effects

import (
	"math"
	"testing"

	"discord-chat-shorts/internal/scenario"
)

func TestEntryWindowClamping(t *testing.T) {
	if w := entryWindow(3.0); w != 0.35 {
		t.Errorf("Expected window 0.35 for long scene, got %f", w)
	}
	// Short scene: window limited to a third of the duration.
	if w := entryWindow(0.6); math.Abs(w-0.2) > 1e-9 {
		t.Errorf("Expected window 0.2 for 0.6s scene, got %f", w)
	}
}

func TestEffectsSettleToIdentity(t *testing.T) {
	duration := 2.0
	for _, tag := range []string{
		scenario.AnimNone,
		scenario.AnimScaleFade,
		scenario.AnimPop,
		scenario.AnimSlideUp,
	} {
		eff := ForTag(tag)
		for _, at := range []float64{0.5, 1.0, duration} {
			tr := eff.At(at, duration)
			if tr.Scale != 1 || tr.Alpha != 1 || tr.OffsetY != 0 {
				t.Errorf("%s at t=%.2f: expected identity, got %+v", tag, at, tr)
			}
		}
	}
}

func TestScaleFadeEntry(t *testing.T) {
	eff := ForTag(scenario.AnimScaleFade)

	start := eff.At(0, 2.0)
	if math.Abs(start.Scale-0.85) > 1e-9 {
		t.Errorf("Expected start scale 0.85, got %f", start.Scale)
	}
	if start.Alpha != 0 {
		t.Errorf("Expected start alpha 0, got %f", start.Alpha)
	}

	mid := eff.At(0.175, 2.0)
	if mid.Scale <= start.Scale || mid.Scale >= 1 {
		t.Errorf("Mid-entry scale should be between 0.85 and 1, got %f", mid.Scale)
	}
	if mid.Alpha <= 0 || mid.Alpha >= 1 {
		t.Errorf("Mid-entry alpha should be between 0 and 1, got %f", mid.Alpha)
	}
}

func TestSlideUpEntry(t *testing.T) {
	eff := ForTag(scenario.AnimSlideUp)

	start := eff.At(0, 2.0)
	if start.OffsetY != 60 {
		t.Errorf("Expected start offset 60, got %f", start.OffsetY)
	}
	if start.Scale != 1 {
		t.Errorf("slideUp must not scale, got %f", start.Scale)
	}

	settled := eff.At(0.35, 2.0)
	if settled.OffsetY != 0 {
		t.Errorf("Expected settled offset 0, got %f", settled.OffsetY)
	}
}

func TestPopOvershoots(t *testing.T) {
	eff := ForTag(scenario.AnimPop)

	overshot := false
	for ft := 0.0; ft < 0.35; ft += 0.01 {
		tr := eff.At(ft, 2.0)
		if tr.Scale > 1.0 {
			overshot = true
		}
	}
	if !overshot {
		t.Errorf("pop should overshoot scale past 1.0 during entry")
	}

	if tr := eff.At(0.35, 2.0); tr != identity {
		t.Errorf("pop should settle to identity, got %+v", tr)
	}
}

func TestUnknownTagIsStatic(t *testing.T) {
	eff := ForTag("wobble")
	if tr := eff.At(0, 2.0); tr != identity {
		t.Errorf("Unknown tag should be static, got %+v", tr)
	}
}
