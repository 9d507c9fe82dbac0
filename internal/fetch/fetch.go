package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	xdraw "golang.org/x/image/draw"
)

// Fetcher resolves remote media references into decoded in-memory
// images. Failures come back as *Error; the caller decides whether to
// substitute a placeholder (avatars, sounds) or abort (attachments).
// That keeps the degradable-vs-fatal policy in one auditable place
// instead of scattered recover blocks.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher. A zero timeout falls back to 15s: a hanging
// avatar download must not stall the whole render forever.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Error describes a failed media resolution.
type Error struct {
	URL   string
	Stage string // "request", "status", "decode", "resolve"
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Placeholder returns a fully transparent image of the requested size.
// It is what degradable failures render as.
func Placeholder(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Stage: "request", Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Stage: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{URL: url, Stage: "status", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: url, Stage: "request", Err: err}
	}
	return data, nil
}

// FetchImage downloads and decodes a still image, scaled down to fit
// within maxW x maxH (aspect preserved, never upscaled).
func (f *Fetcher) FetchImage(ctx context.Context, url string, maxW, maxH int) (image.Image, error) {
	data, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{URL: url, Stage: "decode", Err: err}
	}

	return FitWithin(img, maxW, maxH), nil
}

// FitWithin scales img down so it fits inside maxW x maxH, preserving
// aspect ratio. Images already inside the box pass through untouched.
func FitWithin(img image.Image, maxW, maxH int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	dstW, dstH := w, h
	if w > maxW || h > maxH {
		scale := float64(maxW) / float64(w)
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
		dstW = int(float64(w) * scale)
		dstH = int(float64(h) * scale)
		if dstW < 1 {
			dstW = 1
		}
		if dstH < 1 {
			dstH = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
