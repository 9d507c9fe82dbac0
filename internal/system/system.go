package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// FindLatestScenario возвращает самый свежий JSON-сценарий в папке.
// Генератор сценариев складывает их в ./scenarios с таймстампом в имени.
func FindLatestScenario(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(strings.ToLower(f.Name()), ".json") {
			info, err := f.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(latestTime) {
				latestTime = info.ModTime()
				latestFile = filepath.Join(dir, f.Name())
			}
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено JSON-сценариев", dir)
	}

	return latestFile, nil
}

// ProbeAudioDuration возвращает длительность аудиофайла через ffprobe.
func ProbeAudioDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, err
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration)
	if err != nil {
		return 0, err
	}

	return duration, nil
}

func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)

	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	for _, enc := range encoders {
		cmd := exec.Command("ffmpeg", "-encoders")
		out, err := cmd.CombinedOutput()
		if err == nil && strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}

// SuggestWorkers подбирает размер пула кодирования сегментов.
// Каждый воркер держит в памяти поток RGBA-кадров и процесс ffmpeg,
// поэтому ограничиваем пул и по ядрам, и по доступной памяти.
func SuggestWorkers(frameW, frameH int) int {
	workers := runtime.NumCPU()
	if counts, err := cpu.Counts(true); err == nil && counts > 0 {
		workers = counts
	}
	if workers > 4 {
		// GPU/кодировщик все равно не переварит больше
		workers = 4
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return workers
	}

	// Грубая оценка: ~64 кадра RGBA на воркера в полете
	perWorker := uint64(frameW*frameH*4) * 64
	if perWorker > 0 {
		byMem := int(vm.Available / perWorker)
		if byMem < 1 {
			byMem = 1
		}
		if byMem < workers {
			workers = byMem
		}
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// LogHostInfo печатает краткую сводку о машине перед кодированием.
func LogHostInfo() {
	counts, _ := cpu.Counts(true)
	vm, err := mem.VirtualMemory()
	if err != nil {
		fmt.Printf("[*] Хост: %d логических ядер\n", counts)
		return
	}
	fmt.Printf("[*] Хост: %d логических ядер, %.1f ГБ свободно из %.1f ГБ\n",
		counts, float64(vm.Available)/1e9, float64(vm.Total)/1e9)
}
