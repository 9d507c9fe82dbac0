package audioclip

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"

	"discord-chat-shorts/internal/system"
)

// Стандартный формат PCM всего пайплайна: 44.1кГц, стерео, s16le на
// входе/выходе ffmpeg, float64 внутри.
const (
	SampleRate = 44100
	Channels   = 2
)

// Clip — декодированный звук в памяти. Сэмплы interleaved
// ([L R L R ...]), в диапазоне [-1, 1].
type Clip struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Frames возвращает количество кадров (пар сэмплов для стерео).
func (c *Clip) Frames() int {
	if c == nil || c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration — естественная длительность клипа в секундах.
func (c *Clip) Duration() float64 {
	if c == nil || c.SampleRate == 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// Peak — пиковая амплитуда (максимум модуля сэмпла).
func (c *Clip) Peak() float64 {
	peak := 0.0
	for _, s := range c.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// Silence создает тихий клип заданной длительности.
func Silence(duration float64) *Clip {
	frames := int(math.Round(duration * SampleRate))
	if frames < 0 {
		frames = 0
	}
	return &Clip{
		Samples:    make([]float64, frames*Channels),
		SampleRate: SampleRate,
		Channels:   Channels,
	}
}

// DecodeFile декодирует аудиофайл через ffmpeg в PCM.
// Декодирование через пайп, без временных файлов.
func DecodeFile(ctx context.Context, path string) (*Clip, error) {
	// ffprobe дает длительность заранее — преаллоцируем буфер
	var buf bytes.Buffer
	if dur, err := system.ProbeAudioDuration(path); err == nil && dur > 0 {
		buf.Grow(int(dur*SampleRate*Channels)*2 + 4096)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-ac", fmt.Sprintf("%d", Channels),
		"-",
	)
	var errBuf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w, log: %s", path, err, errBuf.String())
	}

	return FromS16LE(buf.Bytes()), nil
}

// FromS16LE преобразует сырые s16le-байты в клип.
func FromS16LE(raw []byte) *Clip {
	n := len(raw) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float64(v) / 32768.0
	}
	// Обрезаем неполный кадр, чтобы каналы не разъехались
	samples = samples[:(len(samples)/Channels)*Channels]
	return &Clip{Samples: samples, SampleRate: SampleRate, Channels: Channels}
}

// ToS16LE сериализует клип обратно в сырые байты для ffmpeg.
func (c *Clip) ToS16LE() []byte {
	out := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		v := s
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(math.Round(v*32767))))
	}
	return out
}
