package scene

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Text layout is pure: faces in, measured line boxes out. Keeping it
// free of I/O lets layout tests run on an embedded face without any
// font files or network.

// WrapText splits text into lines that fit within maxWidth when drawn
// with face. Words longer than the line are broken by rune.
func WrapText(face font.Face, text string, maxWidth int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(face, paragraph, maxWidth)...)
	}
	return lines
}

func wrapParagraph(face font.Face, paragraph string, maxWidth int) []string {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if textWidth(face, candidate) <= maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		// The word alone may still overflow; break it by rune.
		for textWidth(face, word) > maxWidth {
			cut := len([]rune(word))
			runes := []rune(word)
			for cut > 1 && textWidth(face, string(runes[:cut])) > maxWidth {
				cut--
			}
			lines = append(lines, string(runes[:cut]))
			word = string(runes[cut:])
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// LineHeight returns the vertical advance for face in pixels.
func LineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}

// RenderText rasterizes text into a tight image of width boxWidth,
// one centered line per row. maxLines of 0 means unlimited; overflow
// is cut with an ellipsis on the last visible line.
func RenderText(face font.Face, text string, boxWidth int, maxLines int, clr color.Color) *image.RGBA {
	lines := WrapText(face, text, boxWidth)
	if len(lines) == 0 {
		return image.NewRGBA(image.Rect(0, 0, boxWidth, 0))
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = ellipsize(face, lines[maxLines-1], boxWidth)
	}

	lineH := LineHeight(face)
	ascent := face.Metrics().Ascent.Ceil()
	img := image.NewRGBA(image.Rect(0, 0, boxWidth, lineH*len(lines)))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: face,
	}
	for i, line := range lines {
		w := textWidth(face, line)
		x := (boxWidth - w) / 2
		if x < 0 {
			x = 0
		}
		d.Dot = fixed.P(x, i*lineH+ascent)
		d.DrawString(line)
	}
	return img
}

func ellipsize(face font.Face, line string, maxWidth int) string {
	const ellipsis = "…"
	if textWidth(face, line+ellipsis) <= maxWidth {
		return line + ellipsis
	}
	runes := []rune(line)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if textWidth(face, string(runes)+ellipsis) <= maxWidth {
			break
		}
	}
	return string(runes) + ellipsis
}
