package audioclip

import "math"

// Pure clip transforms. No I/O happens here: the scene builder decodes
// once, then shapes the clip to its scene with these functions. All of
// them return a new clip and leave the input untouched.

// durationEpsilon absorbs rounding from frame arithmetic: a clip within
// one frame of the target is already "fitting".
const durationEpsilon = 1.0 / SampleRate

// FitToDuration time-compresses a clip that is longer than target so
// its duration becomes exactly target. Pitch is not preserved: the
// whole clip is resampled, so it plays faster rather than truncated.
// Clips at or under target are returned as-is.
func FitToDuration(clip *Clip, target float64) *Clip {
	if clip == nil || target <= 0 {
		return clip
	}
	if clip.Duration() <= target+durationEpsilon {
		return clip
	}

	srcFrames := clip.Frames()
	dstFrames := int(math.Round(target * float64(clip.SampleRate)))
	if dstFrames <= 0 || srcFrames == 0 {
		return Silence(0)
	}

	out := &Clip{
		Samples:    make([]float64, dstFrames*clip.Channels),
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
	}

	// Linear interpolation per channel across the frame axis.
	step := float64(srcFrames-1) / float64(dstFrames-1)
	if dstFrames == 1 {
		step = 0
	}
	for f := 0; f < dstFrames; f++ {
		pos := float64(f) * step
		i := int(pos)
		frac := pos - float64(i)
		j := i + 1
		if j >= srcFrames {
			j = srcFrames - 1
		}
		for ch := 0; ch < clip.Channels; ch++ {
			a := clip.Samples[i*clip.Channels+ch]
			b := clip.Samples[j*clip.Channels+ch]
			out.Samples[f*clip.Channels+ch] = a + (b-a)*frac
		}
	}
	return out
}

// Normalize scales the clip so its peak amplitude lands on targetDB
// (e.g. -3 dB). A silent clip is returned unchanged: there is nothing
// to scale and no meaningful gain to compute.
func Normalize(clip *Clip, targetDB float64) *Clip {
	if clip == nil {
		return nil
	}
	peak := clip.Peak()
	if peak == 0 {
		return clip
	}

	targetAmplitude := math.Pow(10, targetDB/20.0)
	factor := targetAmplitude / peak

	out := &Clip{
		Samples:    make([]float64, len(clip.Samples)),
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
	}
	for i, s := range clip.Samples {
		out.Samples[i] = s * factor
	}
	return out
}

// FitAndNormalize shapes a clip to its scene: time-compressed when too
// long, then peak-limited to targetDB. Deterministic, no I/O.
func FitAndNormalize(clip *Clip, target float64, targetDB float64) *Clip {
	return Normalize(FitToDuration(clip, target), targetDB)
}

// PadTo appends trailing silence so the clip lasts exactly duration.
// Segment audio must match segment video to the frame, otherwise the
// lossless concat step drifts. Longer clips are returned unchanged.
func PadTo(clip *Clip, duration float64) *Clip {
	if clip == nil {
		return Silence(duration)
	}
	wantFrames := int(math.Round(duration * float64(clip.SampleRate)))
	if wantFrames <= clip.Frames() {
		return clip
	}

	out := &Clip{
		Samples:    make([]float64, wantFrames*clip.Channels),
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
	}
	copy(out.Samples, clip.Samples)
	return out
}
