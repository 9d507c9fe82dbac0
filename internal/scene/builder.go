package scene

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"

	"discord-chat-shorts/internal/audioclip"
	"discord-chat-shorts/internal/config"
	"discord-chat-shorts/internal/fetch"
	"discord-chat-shorts/internal/scenario"
)

var (
	usernameColor = color.RGBA{R: 211, G: 211, B: 211, A: 255} // lightgray
	messageColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Scene is one fully positioned, timed audio/visual unit for a single
// chat message. Width and height always equal the configured frame
// size; Content holds the static composite (avatar, username, body
// text or still attachment) on a transparent background. Animated
// attachments stay separate so the renderer can pick the right frame
// per output frame.
type Scene struct {
	Duration  float64
	Animation string

	Content *image.RGBA
	Anim    *fetch.AnimatedClip
	AnimPos image.Point

	Audio *audioclip.Clip
}

// RenderContent draws the scene's visual state at scene-local time t
// onto dst, which must be frame-sized.
func (s *Scene) RenderContent(dst *image.RGBA, t float64) {
	draw.Draw(dst, s.Content.Bounds(), s.Content, image.Point{}, draw.Over)
	if s.Anim != nil {
		frame := s.Anim.FrameAt(t)
		if frame != nil {
			r := frame.Bounds().Add(s.AnimPos)
			draw.Draw(dst, r, frame, frame.Bounds().Min, draw.Over)
		}
	}
}

// Builder turns message records into scenes. One instance serves a
// whole render; it is used strictly sequentially.
type Builder struct {
	Fetcher      *fetch.Fetcher
	Layout       config.Layout
	Fonts        *Fonts
	DefaultSound string
}

// Build computes the vertical block layout for one message and
// resolves its media. Avatar and sound failures degrade (placeholder,
// silence); attachment failures are fatal for the whole render.
func (b *Builder) Build(ctx context.Context, msg *scenario.Message, chatters map[string]scenario.Chatter) (*Scene, error) {
	layout := b.Layout
	duration := msg.Duration

	avatar := b.resolveAvatar(ctx, msg.Username, chatters)
	username := RenderText(b.Fonts.Username, msg.Username, layout.ContentWidth(), 0, usernameColor)

	// Body: the attachment replaces message text entirely when present.
	var body image.Image
	var anim *fetch.AnimatedClip
	if att := msg.Attachment(); att != nil {
		if att.Animated() {
			clip, err := b.Fetcher.FetchAnimated(ctx, att.URL, layout.AttachmentSize)
			if err != nil {
				return nil, fmt.Errorf("attachment %s: %w", att.URL, err)
			}
			anim = clip
			// Animated attachments play once at natural speed.
			duration = clip.Duration
		} else {
			img, err := b.Fetcher.FetchImage(ctx, att.URL, layout.AttachmentSize, layout.AttachmentSize)
			if err != nil {
				return nil, fmt.Errorf("attachment %s: %w", att.URL, err)
			}
			body = img
		}
	} else {
		body = RenderText(b.Fonts.Message, msg.Content, layout.ContentWidth(), layout.MessageMaxTextLines, messageColor)
	}

	var bodyW, bodyH int
	if anim != nil {
		bodyW, bodyH = anim.Bounds().Dx(), anim.Bounds().Dy()
	} else {
		bodyW, bodyH = body.Bounds().Dx(), body.Bounds().Dy()
	}

	// Vertical block: avatar, gap, username, gap, body — centered as a
	// whole within the frame.
	totalH := layout.AvatarSize + layout.AvatarUserGap + username.Bounds().Dy() + layout.UserMessageGap + bodyH
	startY := (layout.Height - totalH) / 2

	avatarY := startY
	usernameY := avatarY + layout.AvatarSize + layout.AvatarUserGap
	bodyY := usernameY + username.Bounds().Dy() + layout.UserMessageGap

	content := image.NewRGBA(image.Rect(0, 0, layout.Width, layout.Height))
	drawCenteredX(content, avatar, layout.Width, avatarY)
	drawCenteredX(content, username, layout.Width, usernameY)

	scene := &Scene{
		Duration:  duration,
		Animation: msg.Animation,
		Content:   content,
		Anim:      anim,
	}
	if anim != nil {
		scene.AnimPos = image.Point{X: (layout.Width - bodyW) / 2, Y: bodyY}
	} else {
		drawCenteredX(content, body, layout.Width, bodyY)
	}

	scene.Audio = b.resolveSound(ctx, msg.Sound, duration)
	return scene, nil
}

func drawCenteredX(dst *image.RGBA, src image.Image, frameW, y int) {
	w := src.Bounds().Dx()
	x := (frameW - w) / 2
	r := image.Rect(x, y, x+w, y+src.Bounds().Dy())
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}

// resolveAvatar looks the username up in the chatter map. Any failure
// (unknown chatter, missing URL, fetch or decode error) degrades to a
// transparent placeholder of avatar size.
func (b *Builder) resolveAvatar(ctx context.Context, username string, chatters map[string]scenario.Chatter) image.Image {
	size := b.Layout.AvatarSize
	url := chatters[username].AvatarURL
	if url == "" {
		return fetch.Placeholder(size, size)
	}

	avatar, err := b.Fetcher.FetchAvatar(ctx, url, size)
	if err != nil {
		log.Printf("[!] Avatar fetch failed for %s: %v", username, err)
		return fetch.Placeholder(size, size)
	}
	return avatar
}

// resolveSound picks the message sound, falling back to the default
// notification when the path is absent or does not exist. A sound
// longer than the scene is time-compressed to fit and peak-limited;
// a shorter one plays at natural length with trailing silence.
func (b *Builder) resolveSound(ctx context.Context, soundPath string, duration float64) *audioclip.Clip {
	path := soundPath
	if path == "" || !fileExists(path) {
		if path != "" {
			log.Printf("[!] Sound file not found: %s, using default", path)
		}
		path = b.DefaultSound
	}
	if path == "" || !fileExists(path) {
		log.Printf("[!] No usable sound (default missing), scene stays silent")
		return nil
	}

	clip, err := audioclip.DecodeFile(ctx, path)
	if err != nil {
		log.Printf("[!] Sound decode failed: %s: %v", path, err)
		return nil
	}

	if clip.Duration() > duration {
		clip = audioclip.FitAndNormalize(clip, duration, b.Layout.TargetPeakDB)
	}
	return clip
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
