// Package models управляет жизненным циклом моделей распознавания:
// каталог, загрузка, удаление, наличие на диске.
package models

import "errors"

// Ошибки жизненного цикла моделей.
var (
	ErrUnknownModel       = errors.New("модель не найдена в каталоге")
	ErrDownloadInProgress = errors.New("загрузка модели уже идёт")
	ErrAlreadyDownloaded  = errors.New("модель уже скачана")
	ErrModelNotDownloaded = errors.New("модель не скачана")
	ErrModelActive        = errors.New("модель сейчас используется")
)

// ModelInfo - неизменяемое описание модели из каталога.
type ModelInfo struct {
	ID       string // Уникальный идентификатор: "whisper-tiny-q5"
	Name     string // Отображаемое имя: "Tiny Q5"
	Filename string // Имя файла артефакта: "ggml-tiny-q5_1.bin"
	URL      string // URL для скачивания
	Size     int64  // Ожидаемый размер в байтах (для прогресса)
}

// Catalog - все доступные модели. Статический список, не мутируется.
var Catalog = []ModelInfo{
	{
		ID:       "whisper-tiny-q5",
		Name:     "Tiny Q5",
		Filename: "ggml-tiny-q5_1.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny-q5_1.bin",
		Size:     32 * 1024 * 1024,
	},
	{
		ID:       "whisper-base-q5",
		Name:     "Base Q5",
		Filename: "ggml-base-q5_1.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base-q5_1.bin",
		Size:     60 * 1024 * 1024,
	},
	{
		ID:       "whisper-small-q5",
		Name:     "Small Q5",
		Filename: "ggml-small-q5_1.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small-q5_1.bin",
		Size:     190 * 1024 * 1024,
	},
	{
		ID:       "whisper-turbo",
		Name:     "Large v3 Turbo",
		Filename: "ggml-large-v3-turbo.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3-turbo.bin",
		Size:     1624 * 1024 * 1024,
	},
}

// DefaultModelID - модель по умолчанию, её наличие гарантирует Watchdog.
func DefaultModelID() string {
	return "whisper-turbo"
}

// Get возвращает модель по ID или ErrUnknownModel.
func Get(id string) (ModelInfo, error) {
	for _, m := range Catalog {
		if m.ID == id {
			return m, nil
		}
	}
	return ModelInfo{}, ErrUnknownModel
}
