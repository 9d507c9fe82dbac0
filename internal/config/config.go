package config

import (
	"fmt"
	"image/color"
	"os"

	"gopkg.in/yaml.v3"
)

// Config — итоговая конфигурация одного запуска рендера.
type Config struct {
	ScenarioPath string
	OutputVideo  string
	FPS          int
	Workers      int

	TitleFont     string
	MessageFont   string
	WatermarkFont string

	DefaultSoundPath string
	FetchTimeoutSec  float64

	VideoEncoder string
	AudioCodec   string
	Preset       string
	Quality      int

	Layout Layout

	ShowStats    bool
	BuildVersion string
}

// Layout описывает геометрию кадра. Все размеры в пикселях.
// Значения по умолчанию соответствуют вертикальному формату Shorts.
type Layout struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	SidePadding    int `yaml:"side_padding"`
	AvatarSize     int `yaml:"avatar_size"`
	AvatarUserGap  int `yaml:"avatar_user_gap"`
	UserMessageGap int `yaml:"user_message_gap"`
	AttachmentSize int `yaml:"attachment_size"`

	TitleFontSize     int `yaml:"title_font_size"`
	MessageFontSize   int `yaml:"message_font_size"`
	UsernameFontSize  int `yaml:"username_font_size"`
	WatermarkFontSize int `yaml:"watermark_font_size"`

	TitleOffsetTop      int `yaml:"title_offset_top"`
	WatermarkOffsetBot  int `yaml:"watermark_offset_bottom"`
	QROverlaySize       int `yaml:"qr_overlay_size"`
	MessageMaxTextLines int `yaml:"message_max_text_lines"`

	Background RGB `yaml:"background"`

	DefaultDuration float64 `yaml:"default_duration"`
	TargetPeakDB    float64 `yaml:"target_peak_db"`
}

type RGB struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// DefaultLayout возвращает профиль, совпадающий с исходными константами.
func DefaultLayout() Layout {
	return Layout{
		Width:  1080,
		Height: 1920,

		SidePadding:    100,
		AvatarSize:     250,
		AvatarUserGap:  30,
		UserMessageGap: 20,
		AttachmentSize: 800,

		TitleFontSize:     70,
		MessageFontSize:   60,
		UsernameFontSize:  50,
		WatermarkFontSize: 40,

		TitleOffsetTop:      150,
		WatermarkOffsetBot:  150,
		QROverlaySize:       160,
		MessageMaxTextLines: 4,

		Background: RGB{R: 22, G: 23, B: 27},

		DefaultDuration: 2.0,
		TargetPeakDB:    -3.0,
	}
}

// LoadLayout читает YAML-профиль поверх значений по умолчанию.
// Пустой путь означает стандартный профиль.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return layout, fmt.Errorf("чтение профиля %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return layout, fmt.Errorf("разбор профиля %s: %w", path, err)
	}
	if err := layout.Validate(); err != nil {
		return layout, fmt.Errorf("профиль %s: %w", path, err)
	}
	return layout, nil
}

func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("некорректный размер кадра %dx%d", l.Width, l.Height)
	}
	if l.Width%2 != 0 || l.Height%2 != 0 {
		// yuv420p требует четных размеров
		return fmt.Errorf("размеры кадра должны быть четными, получено %dx%d", l.Width, l.Height)
	}
	if l.ContentWidth() <= 0 {
		return fmt.Errorf("отступы %d не оставляют места для контента", l.SidePadding)
	}
	if l.AvatarSize <= 0 || l.AttachmentSize <= 0 {
		return fmt.Errorf("размеры аватара/вложения должны быть положительными")
	}
	if l.DefaultDuration <= 0 {
		return fmt.Errorf("длительность по умолчанию должна быть положительной")
	}
	return nil
}

// ContentWidth — ширина текстового блока: кадр минус боковые отступы.
func (l Layout) ContentWidth() int {
	return l.Width - 2*l.SidePadding
}

// SegmentParams — параметры кодирования одного сегмента (сцены).
type SegmentParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	SceneIndex    int

	VideoEncoder string
	AudioCodec   string
	Preset       string
	Quality      int
}
