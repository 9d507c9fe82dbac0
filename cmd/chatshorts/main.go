package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"discord-chat-shorts/internal/config"
	"discord-chat-shorts/internal/engine"
	"discord-chat-shorts/internal/fetch"
	"discord-chat-shorts/internal/scenario"
	"discord-chat-shorts/internal/scene"
	"discord-chat-shorts/internal/system"
	"discord-chat-shorts/internal/video"
)

const buildVersion = "chatshorts-1.0"

// envOr: значение переменной окружения или запасное.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// .env необязателен — флаги и окружение его перекрывают
	_ = godotenv.Load()

	// Создаем нужные директории, если их нет
	dirs := []string{"input/scenarios", "input/sounds", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	scenarioPtr := flag.String("scenario", "", "Путь к JSON-сценарию (по умолчанию: самый свежий файл в input/scenarios/)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, output/<имя сценария>.mp4)")
	fpsPtr := flag.Int("fps", 30, "FPS")
	workersPtr := flag.Int("workers", 0, "Число воркеров кодирования (0 - авто по CPU и памяти)")
	profilePtr := flag.String("profile", envOr("LAYOUT_PROFILE", ""), "YAML-профиль геометрии кадра (пусто - вертикальный формат Shorts)")
	titleFontPtr := flag.String("font-title", envOr("TITLE_FONT", "fonts/title.ttf"), "Шрифт заголовка")
	messageFontPtr := flag.String("font-message", envOr("MESSAGE_FONT", "fonts/message.ttf"), "Шрифт сообщений и имен")
	watermarkFontPtr := flag.String("font-watermark", envOr("WATERMARK_FONT", "fonts/watermark.ttf"), "Шрифт вотермарки")
	soundPtr := flag.String("sound-default", envOr("DEFAULT_SOUND", "input/sounds/discord-notification.mp3"), "Звук сообщения по умолчанию")
	timeoutPtr := flag.Float64("timeout", 15, "Таймаут загрузки медиа (сек)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	statsPtr := flag.Bool("stats", false, "Печатать отчет о производительности")

	flag.Parse()

	layout, err := config.LoadLayout(*profilePtr)
	if err != nil {
		log.Fatalf("[-] Ошибка профиля: %v", err)
	}

	scenarioPath := *scenarioPtr
	if scenarioPath == "" {
		latest, err := system.FindLatestScenario("input/scenarios")
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите сценарий в input/scenarios/", err)
		}
		scenarioPath = latest
		fmt.Printf("[*] Выбран сценарий: %s\n", scenarioPath)
	}

	scen, err := scenario.Read(scenarioPath, layout.DefaultDuration)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения сценария: %v", err)
	}

	fonts, err := scene.LoadFonts(*titleFontPtr, *messageFontPtr, *watermarkFontPtr, layout)
	if err != nil {
		// Шрифты обязательны: без них кадр не собрать
		log.Fatalf("[-] Ошибка загрузки шрифтов: %v", err)
	}

	finalOutput := *outputPtr
	if finalOutput == "" {
		finalOutput = filepath.Join("output", scen.Name+".mp4")
	}

	encoderName, _ := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}

	quality := *qualityPtr
	if quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			quality = 75 // Хорошее качество для VideoToolbox
		case "h264_nvenc":
			quality = 28 // Эквивалент CRF для NVENC
		default:
			quality = 23 // Стандартный CRF для x264
		}
	}

	cfg := &config.Config{
		ScenarioPath:     scenarioPath,
		OutputVideo:      finalOutput,
		FPS:              *fpsPtr,
		Workers:          *workersPtr,
		TitleFont:        *titleFontPtr,
		MessageFont:      *messageFontPtr,
		WatermarkFont:    *watermarkFontPtr,
		DefaultSoundPath: *soundPtr,
		FetchTimeoutSec:  *timeoutPtr,
		VideoEncoder:     encoderName,
		AudioCodec:       "libmp3lame",
		Preset:           "ultrafast",
		Quality:          quality,
		Layout:           layout,
		ShowStats:        *statsPtr,
		BuildVersion:     buildVersion,
	}

	if cfg.ShowStats {
		system.LogHostInfo()
	}

	// Инициализируем зависимости
	builder := &scene.Builder{
		Fetcher:      fetch.New(time.Duration(cfg.FetchTimeoutSec * float64(time.Second))),
		Layout:       cfg.Layout,
		Fonts:        fonts,
		DefaultSound: cfg.DefaultSoundPath,
	}

	project := engine.NewRenderProject(cfg, builder, &video.FFmpegEncoder{})
	if err := project.Run(context.Background(), scen); err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}
}
