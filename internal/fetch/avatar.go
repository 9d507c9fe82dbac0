package fetch

import (
	"bytes"
	"context"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// FetchAvatar downloads an avatar and masks it to a circle of
// size x size pixels. The source is center-cropped to fill the square
// (never letterboxed) before masking.
func (f *Fetcher) FetchAvatar(ctx context.Context, url string, size int) (image.Image, error) {
	data, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{URL: url, Stage: "decode", Err: err}
	}

	return CircleMask(coverSquare(img, size)), nil
}

// coverSquare center-crops img to a square and scales it to
// size x size (crop to fill, never letterbox).
func coverSquare(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	side := w
	if h < side {
		side = h
	}
	crop := image.Rect(
		b.Min.X+(w-side)/2,
		b.Min.Y+(h-side)/2,
		b.Min.X+(w-side)/2+side,
		b.Min.Y+(h-side)/2+side,
	)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, xdraw.Over, nil)
	return dst
}

// CircleMask multiplies the alpha channel by an inscribed-circle mask
// with a ~1px feathered edge so avatars do not alias at the rim.
func CircleMask(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	size := b.Dx()
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	copy(out.Pix, img.Pix)

	cx := float64(size) / 2
	cy := float64(size) / 2
	r := float64(size) / 2

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			dist := math.Sqrt(dx*dx + dy*dy)

			var cover float64
			switch {
			case dist <= r-1:
				continue // fully inside, keep pixel
			case dist >= r:
				cover = 0
			default:
				cover = r - dist
			}

			i := out.PixOffset(x, y)
			// Premultiplied alpha: scale all four components.
			out.Pix[i+0] = uint8(float64(out.Pix[i+0]) * cover)
			out.Pix[i+1] = uint8(float64(out.Pix[i+1]) * cover)
			out.Pix[i+2] = uint8(float64(out.Pix[i+2]) * cover)
			out.Pix[i+3] = uint8(float64(out.Pix[i+3]) * cover)
		}
	}
	return out
}
