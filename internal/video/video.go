package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"discord-chat-shorts/internal/audioclip"
	"discord-chat-shorts/internal/config"
)

// FrameFunc выдаёт кадр сегмента по индексу. Буфер может
// переиспользоваться между вызовами — кодировщик пишет Pix сразу.
type FrameFunc func(frameIndex int) *image.RGBA

type Encoder interface {
	EncodeSegment(ctx context.Context, segPath string, params config.SegmentParams, frame FrameFunc, audio *audioclip.Clip) error
	Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string) error
}

type FFmpegEncoder struct{}

// FrameCount возвращает число кадров сегмента при заданной длительности.
func FrameCount(duration float64, fps int) int {
	n := int(math.Round(duration * float64(fps)))
	if n < 1 {
		n = 1
	}
	return n
}

func (e *FFmpegEncoder) EncodeSegment(
	ctx context.Context,
	segPath string,
	params config.SegmentParams,
	frame FrameFunc,
	audio *audioclip.Clip,
) error {
	// Каждый сегмент несёт аудиодорожку, иначе concat по копии
	// потоков разойдётся. Пустой звук — тишина нужной длины.
	audio = audioclip.PadTo(audio, params.Duration)

	audioPath := segPath + ".pcm"
	if err := os.WriteFile(audioPath, audio.ToS16LE(), 0644); err != nil {
		return fmt.Errorf("audio temp write error: %w", err)
	}
	defer os.Remove(audioPath)

	args := e.buildFFmpegArgs(segPath, audioPath, params)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	// Запись raw RGBA кадров
	total := FrameCount(params.Duration, params.FPS)
	for i := 0; i < total; i++ {
		img := frame(i)
		if _, err := stdin.Write(img.Pix); err != nil {
			stdin.Close()
			cmd.Wait()
			return fmt.Errorf("write raw error: %w, output: %s", err, stderr.String())
		}
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, stderr.String())
	}

	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(segPath, audioPath string, params config.SegmentParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", audioclip.SampleRate),
		"-ac", fmt.Sprintf("%d", audioclip.Channels),
		"-i", audioPath,
		"-t", fmt.Sprintf("%f", params.Duration),
		"-pix_fmt", "yuv420p",
		"-c:v", params.VideoEncoder,
	}

	// Качество в зависимости от энкодера
	switch params.VideoEncoder {
	case "h264_videotoolbox":
		bitrate := params.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", params.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", params.Quality), "-preset", params.Preset)
	}

	args = append(args, "-c:a", params.AudioCodec, "-b:a", "192k")
	args = append(args, segPath)
	return args
}

func (e *FFmpegEncoder) Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string) error {
	concatFilePath := filepath.Join(tmpDir, "inputs.txt")
	f, err := os.Create(concatFilePath)
	if err != nil {
		return err
	}
	for _, p := range segmentPaths {
		absPath, _ := filepath.Abs(p)
		fmt.Fprintf(f, "file '%s'\n", absPath)
	}
	f.Close()

	// Склейка без перекодирования, сначала во временный файл —
	// итоговый путь появляется только целиком.
	tmpOut := filepath.Join(tmpDir, "final"+filepath.Ext(finalPath))

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat", "-safe", "0", "-i", concatFilePath,
		"-c", "copy", tmpOut,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat error: %v, output: %s", err, string(out))
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return err
	}
	if err := os.Rename(tmpOut, finalPath); err != nil {
		// Rename через границу файловых систем не работает — копируем.
		data, rerr := os.ReadFile(tmpOut)
		if rerr != nil {
			return err
		}
		if werr := os.WriteFile(finalPath, data, 0644); werr != nil {
			return werr
		}
		os.Remove(tmpOut)
	}
	return nil
}
