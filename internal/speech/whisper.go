package speech

import (
	"io"
	"runtime"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperRecognizer реализует Recognizer через whisper.cpp.
type WhisperRecognizer struct {
	mu    sync.Mutex
	model whisper.Model
}

// NewWhisper загружает модель whisper.cpp из файла. Блокирующий вызов,
// используется как Loader по умолчанию.
func NewWhisper(modelPath string) (Recognizer, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, err
	}

	return &WhisperRecognizer{model: model}, nil
}

// Transcribe распознаёт речь из аудио сэмплов.
func (w *WhisperRecognizer) Transcribe(samples []float32, lang string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, err := w.model.NewContext()
	if err != nil {
		return "", err
	}

	// Только транскрипция, без перевода
	ctx.SetTranslate(false)

	// Половина ядер - оставляем место другим процессам
	threads := runtime.NumCPU() / 2
	if threads < 1 {
		threads = 1
	}
	ctx.SetThreads(uint(threads))

	// Для "auto" включится автодетект языка
	if lang != "" {
		ctx.SetLanguage(lang)
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", err
	}

	var result strings.Builder
	for {
		segment, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		result.WriteString(segment.Text)
	}

	return strings.TrimSpace(result.String()), nil
}

// Close освобождает ресурсы.
func (w *WhisperRecognizer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
}
