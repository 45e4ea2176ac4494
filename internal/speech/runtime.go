package speech

import (
	"fmt"
	"log"
	"sync"

	"sotto/internal/models"
)

// Runtime - общий слот с именем активной модели и загруженным движком.
// Ровно один на процесс. При смене модели запись заменяется целиком
// под блокировкой, чтобы читатель никогда не увидел имя одной модели
// с движком другой.
type Runtime struct {
	mu      sync.RWMutex
	manager *models.Manager
	loader  Loader
	modelID string
	rec     Recognizer
}

// NewRuntime создаёт пустой Runtime (модель не загружена).
func NewRuntime(manager *models.Manager) *Runtime {
	return &Runtime{
		manager: manager,
		loader:  NewWhisper,
	}
}

// Activate синхронно загружает модель и делает её активной.
// Требует наличия артефакта на диске (ErrModelNotDownloaded) и
// отсутствия идущей загрузки (ErrDownloadInProgress). Загрузка движка
// выполняется вне блокировки; при ошибке предыдущий runtime остаётся
// нетронутым.
func (rt *Runtime) Activate(modelID string) error {
	info, err := models.Get(modelID)
	if err != nil {
		return err
	}

	if rt.manager.IsDownloadInProgress(modelID) {
		return models.ErrDownloadInProgress
	}
	if !rt.manager.IsDownloaded(info) {
		return models.ErrModelNotDownloaded
	}

	rec, err := rt.loader(rt.manager.ArtifactPath(info))
	if err != nil {
		return fmt.Errorf("ошибка загрузки модели %s: %w", modelID, err)
	}

	rt.mu.Lock()
	old := rt.rec
	rt.rec = rec
	rt.modelID = modelID
	rt.mu.Unlock()

	log.Printf("Активная модель: %s", modelID)

	// Старый движок закрывается в фоне - Activate не ждёт
	if old != nil {
		go old.Close()
	}

	return nil
}

// Transcribe распознаёт записанные сэмплы активным движком.
// Без загруженного движка возвращается сентинел, а не ошибка. Аудио
// короче MinSamples даёт пустой результат без вызова движка. Ошибка
// движка деградирует в сентинел - запись важнее падения.
func (rt *Runtime) Transcribe(samples []float32, lang string) string {
	if len(samples) < MinSamples {
		return ""
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if rt.rec == nil {
		return NotLoadedText
	}

	text, err := rt.rec.Transcribe(samples, lang)
	if err != nil {
		log.Printf("Ошибка распознавания: %v", err)
		return FailedText
	}
	return text
}

// ActiveModelID возвращает ID активной модели ("" если нет).
func (rt *Runtime) ActiveModelID() string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.modelID
}

// IsLoaded возвращает true если движок загружен.
func (rt *Runtime) IsLoaded() bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.rec != nil
}

// Close выгружает активный движок.
func (rt *Runtime) Close() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.rec != nil {
		rt.rec.Close()
		rt.rec = nil
		rt.modelID = ""
	}
}
