package engine

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"discord-chat-shorts/internal/config"
	"discord-chat-shorts/internal/renderer"
	"discord-chat-shorts/internal/scenario"
	"discord-chat-shorts/internal/scene"
	"discord-chat-shorts/internal/system"
	"discord-chat-shorts/internal/timeline"
	"discord-chat-shorts/internal/video"
)

type RenderProject struct {
	Config  *config.Config
	Builder *scene.Builder
	Encoder video.Encoder
	tempDir string
}

func NewRenderProject(cfg *config.Config, builder *scene.Builder, enc video.Encoder) *RenderProject {
	return &RenderProject{
		Config:  cfg,
		Builder: builder,
		Encoder: enc,
	}
}

func (p *RenderProject) Run(ctx context.Context, scen *scenario.Scenario) error {
	startTime := time.Now()

	fmt.Println("[*] Сборка сцен...")
	tl, err := timeline.Compose(ctx, scen, p.Builder)
	if err != nil {
		return fmt.Errorf("ошибка сборки таймлайна: %w", err)
	}
	if tl == nil {
		// Пустой сценарий — нормальное завершение, файл не создаётся
		fmt.Println("[*] Сценарий не содержит сообщений, видео не создаётся")
		return nil
	}
	composeEnd := time.Now()

	p.tempDir, err = os.MkdirTemp("", "chatshorts_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(p.tempDir)

	sceneCount := len(tl.Scenes)

	workers := p.Config.Workers
	if workers <= 0 {
		workers = system.SuggestWorkers(tl.Width, tl.Height)
	}
	if workers > sceneCount {
		workers = sceneCount
	}

	fmt.Println("--- [PROJECT: CHAT RENDER] ---")
	fmt.Printf("[*] Сценарий: %s | Сообщений: %d | Длительность: %.2fs\n", scen.Name, sceneCount, tl.Duration)
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Воркеров: %d\n", tl.Width, tl.Height, p.Config.FPS, workers)
	fmt.Println("------------------------------")

	offsets := SceneOffsets(tl)
	results := make([]string, sceneCount)

	encodeStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range tl.Scenes {
		i := i
		g.Go(func() error {
			s := tl.Scenes[i]
			segPath := filepath.Join(p.tempDir, fmt.Sprintf("s%03d.mp4", i))

			params := config.SegmentParams{
				Width:        tl.Width,
				Height:       tl.Height,
				FPS:          p.Config.FPS,
				Duration:     s.Duration,
				SceneIndex:   i,
				VideoEncoder: p.Config.VideoEncoder,
				AudioCodec:   p.Config.AudioCodec,
				Preset:       p.Config.Preset,
				Quality:      p.Config.Quality,
			}

			// Кадры сегмента берутся из общего таймлайна по смещению.
			// Предыдущий кадр возвращаем в пул перед запросом нового.
			var last *image.RGBA
			frameFn := func(fi int) *image.RGBA {
				if last != nil {
					renderer.Release(last)
				}
				t := offsets[i] + float64(fi)/float64(p.Config.FPS)
				last = renderer.FrameAt(tl, t)
				return last
			}

			err := p.Encoder.EncodeSegment(gctx, segPath, params, frameFn, s.Audio)
			if last != nil {
				renderer.Release(last)
			}
			if err != nil {
				return fmt.Errorf("сегмент %d: %w", i, err)
			}

			results[i] = segPath
			fmt.Printf("[>] Ready: %d/%d\n", i+1, sceneCount)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	encodeEnd := time.Now()

	fmt.Println("[*] Сборка финального видео...")
	concatStart := time.Now()
	if err := p.Encoder.Concatenate(ctx, results, p.Config.OutputVideo, p.tempDir); err != nil {
		return fmt.Errorf("ошибка сборки финального видео: %w", err)
	}

	totalTime := time.Since(startTime)
	composeTime := composeEnd.Sub(startTime)
	encodeTime := encodeEnd.Sub(encodeStart)
	concatTime := time.Since(concatStart)

	fmt.Printf("[+++] Успех! Видео сохранено: %s\n", p.Config.OutputVideo)

	if p.Config.ShowStats {
		report := fmt.Sprintf(
			"--- [PERFORMANCE REPORT] ---\n"+
				"Build: %s\n"+
				"Total Time: %.2fs\n"+
				"Compose (fetch+layout): %.2fs\n"+
				"Encoding: %.2fs\n"+
				"Concatenation: %.2fs\n"+
				"Video seconds per wall second: %.2f\n"+
				"----------------------------\n",
			p.Config.BuildVersion, totalTime.Seconds(), composeTime.Seconds(), encodeTime.Seconds(), concatTime.Seconds(),
			tl.Duration/totalTime.Seconds(),
		)
		fmt.Print(report)

		// Логирование в файл
		logEntry := fmt.Sprintf("[%s] Build: %s | Scenario: %s | Messages: %d | Total: %.2fs | Compose: %.2fs | Encode: %.2fs\n",
			time.Now().Format("2006-01-02 15:04:05"),
			p.Config.BuildVersion,
			scen.Name,
			sceneCount,
			totalTime.Seconds(),
			composeTime.Seconds(),
			encodeTime.Seconds(),
		)

		f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			f.WriteString(logEntry)
			f.Close()
		} else {
			fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
		}
	}

	return nil
}

// SceneOffsets возвращает стартовое время каждой сцены на таймлайне.
func SceneOffsets(tl *timeline.Timeline) []float64 {
	offsets := make([]float64, len(tl.Scenes))
	elapsed := 0.0
	for i, s := range tl.Scenes {
		offsets[i] = elapsed
		elapsed += s.Duration
	}
	return offsets
}
