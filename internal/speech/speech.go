// Package speech держит активный контекст распознавания и абстракцию
// над движком.
package speech

// MinSamples - минимальная длина аудио для запуска распознавания
// (0.3 сек при 16 кГц). Более короткая запись даёт пустой результат
// без обращения к движку - экономия, не требование корректности.
const MinSamples = 4800

// Сентинелы вместо ошибок: в пути без UI тихая деградация
// предпочтительнее потери записанного аудио.
const (
	NotLoadedText = "[Model not loaded]"
	FailedText    = "[Transcription failed]"
)

// Recognizer - интерфейс движка распознавания речи.
type Recognizer interface {
	// Transcribe распознаёт речь из аудио сэмплов.
	// samples - данные float32, 16 кГц, mono.
	// lang - язык распознавания ("ru", "en", "auto").
	Transcribe(samples []float32, lang string) (string, error)

	// Close освобождает ресурсы движка.
	Close()
}

// Loader загружает движок из файла модели. Вызов блокирующий.
type Loader func(modelPath string) (Recognizer, error)
