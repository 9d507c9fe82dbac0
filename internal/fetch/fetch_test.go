package fetch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func gifBytes(t *testing.T, frames int, delay int) []byte {
	t.Helper()
	g := &gif.GIF{Config: image.Config{Width: 8, Height: 8}}
	palette := color.Palette{color.Black, color.White}
	for i := 0; i < frames; i++ {
		p := image.NewPaletted(image.Rect(0, 0, 8, 8), palette)
		for j := range p.Pix {
			p.Pix[j] = uint8(i % 2)
		}
		g.Image = append(g.Image, p)
		g.Delay = append(g.Delay, delay)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("gif encode: %v", err)
	}
	return buf.Bytes()
}

func TestFetchImageScalesDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, 1600, 800, color.RGBA{R: 255, A: 255}))
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	img, err := f.FetchImage(context.Background(), srv.URL, 800, 800)
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != 800 || b.Dy() != 400 {
		t.Errorf("Expected 800x400, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestFetchImageErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/404":
			http.NotFound(w, r)
		case "/garbage":
			w.Write([]byte("this is not an image"))
		}
	}))
	defer srv.Close()

	f := New(5 * time.Second)

	_, err := f.FetchImage(context.Background(), srv.URL+"/404", 800, 800)
	var fe *Error
	if !errors.As(err, &fe) || fe.Stage != "status" {
		t.Errorf("Expected status error, got %v", err)
	}

	_, err = f.FetchImage(context.Background(), srv.URL+"/garbage", 800, 800)
	if !errors.As(err, &fe) || fe.Stage != "decode" {
		t.Errorf("Expected decode error, got %v", err)
	}

	_, err = f.FetchImage(context.Background(), "http://127.0.0.1:1/none", 800, 800)
	if !errors.As(err, &fe) || fe.Stage != "request" {
		t.Errorf("Expected request error, got %v", err)
	}
}

func TestFetchAvatarCircle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, 300, 200, color.RGBA{G: 255, A: 255}))
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	img, err := f.FetchAvatar(context.Background(), srv.URL, 250)
	if err != nil {
		t.Fatalf("FetchAvatar failed: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != 250 || b.Dy() != 250 {
		t.Fatalf("Expected 250x250, got %dx%d", b.Dx(), b.Dy())
	}

	rgba := img.(*image.RGBA)
	// Center opaque, corners fully masked out.
	if _, _, _, a := rgba.At(125, 125).RGBA(); a == 0 {
		t.Errorf("Center pixel should be opaque")
	}
	for _, pt := range []image.Point{{0, 0}, {249, 0}, {0, 249}, {249, 249}} {
		if _, _, _, a := rgba.At(pt.X, pt.Y).RGBA(); a != 0 {
			t.Errorf("Corner %v should be transparent", pt)
		}
	}
}

func TestFetchAnimatedTenorResolution(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/media.gif":
			w.Write(gifBytes(t, 3, 20))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	// Direct media URL decodes without page resolution.
	f := New(5 * time.Second)
	clip, err := f.FetchAnimated(context.Background(), srv.URL+"/media.gif", 800)
	if err != nil {
		t.Fatalf("FetchAnimated failed: %v", err)
	}
	if len(clip.Frames) != 3 {
		t.Errorf("Expected 3 frames, got %d", len(clip.Frames))
	}
	if math.Abs(clip.Duration-0.6) > 1e-9 {
		t.Errorf("Expected duration 0.6, got %f", clip.Duration)
	}
}

func TestTenorPagePattern(t *testing.T) {
	page := []byte(`<html><img src="https://media1.tenor.com/m/abc123/funny.gif"></html>`)
	match := tenorMediaRe.Find(page)
	if string(match) != "https://media1.tenor.com/m/abc123/funny.gif" {
		t.Errorf("Unexpected match: %q", match)
	}

	if tenorMediaRe.Find([]byte(`<html>no media here</html>`)) != nil {
		t.Errorf("Expected no match on plain page")
	}
}

func TestAnimatedClipFrameAt(t *testing.T) {
	g, err := gif.DecodeAll(bytes.NewReader(gifBytes(t, 3, 50)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	clip := coalesce(g, 800)

	tests := []struct {
		t    float64
		want int
	}{
		{0.0, 0},
		{0.49, 0},
		{0.51, 1},
		{1.2, 2},
		{99.0, 2}, // past the end holds the last frame
	}
	for _, tt := range tests {
		got := clip.FrameAt(tt.t)
		if got != clip.Frames[tt.want] {
			t.Errorf("FrameAt(%.2f): expected frame %d", tt.t, tt.want)
		}
	}
}

func TestPlaceholderTransparent(t *testing.T) {
	p := Placeholder(250, 250)
	b := p.Bounds()
	if b.Dx() != 250 || b.Dy() != 250 {
		t.Fatalf("Expected 250x250, got %dx%d", b.Dx(), b.Dy())
	}
	for _, px := range p.Pix {
		if px != 0 {
			t.Fatalf("Placeholder must be fully transparent")
		}
	}
}

func TestFitWithinNeverUpscales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	out := FitWithin(img, 800, 800)
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 50 {
		t.Errorf("Small image should not be upscaled, got %v", out.Bounds())
	}
}
