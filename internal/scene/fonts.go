package scene

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"discord-chat-shorts/internal/config"
)

// Fonts holds one face per text role, sized per the layout profile.
// Missing font files are a configuration error: the renderer cannot
// degrade text, so loading fails hard at startup.
type Fonts struct {
	Title     font.Face
	Username  font.Face
	Message   font.Face
	Watermark font.Face
}

// LoadFonts parses the three configured font files and builds the
// per-role faces. The username face reuses the message font at its
// own size.
func LoadFonts(titlePath, messagePath, watermarkPath string, layout config.Layout) (*Fonts, error) {
	titleFont, err := parseFont(titlePath)
	if err != nil {
		return nil, err
	}
	messageFont, err := parseFont(messagePath)
	if err != nil {
		return nil, err
	}
	watermarkFont, err := parseFont(watermarkPath)
	if err != nil {
		return nil, err
	}

	f := &Fonts{}
	if f.Title, err = newFace(titleFont, layout.TitleFontSize); err != nil {
		return nil, fmt.Errorf("title face: %w", err)
	}
	if f.Username, err = newFace(messageFont, layout.UsernameFontSize); err != nil {
		return nil, fmt.Errorf("username face: %w", err)
	}
	if f.Message, err = newFace(messageFont, layout.MessageFontSize); err != nil {
		return nil, fmt.Errorf("message face: %w", err)
	}
	if f.Watermark, err = newFace(watermarkFont, layout.WatermarkFontSize); err != nil {
		return nil, fmt.Errorf("watermark face: %w", err)
	}
	return f, nil
}

func parseFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", path, err)
	}
	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", path, err)
	}
	return fnt, nil
}

func newFace(fnt *opentype.Font, sizePx int) (font.Face, error) {
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(sizePx),
		DPI:     72, // size is given in pixels
		Hinting: font.HintingFull,
	})
}
