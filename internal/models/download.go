package models

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
)

// downloadChunk - размер блока чтения. Прогресс обновляется после
// каждого блока: крупнее блок - грубее прогресс.
const downloadChunk = 32 * 1024

// Manager управляет артефактами моделей на диске и загрузками.
// Сетевой и дисковый I/O всегда выполняется вне блокировок реестра.
type Manager struct {
	modelsDir string
	registry  *Registry
	client    *http.Client
	onEvent   func(Event)
}

// NewManager создаёт менеджер моделей в директории models/ рядом с
// бинарником.
func NewManager() (*Manager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("не удалось определить путь к бинарнику: %w", err)
	}

	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось разрешить симлинки: %w", err)
	}

	return NewManagerDir(filepath.Join(filepath.Dir(execPath), "models"))
}

// NewManagerDir создаёт менеджер моделей в указанной директории.
func NewManagerDir(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию моделей: %w", err)
	}

	return &Manager{
		modelsDir: dir,
		registry:  NewRegistry(),
		client:    http.DefaultClient,
	}, nil
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// Registry возвращает реестр загрузок.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// OnEvent устанавливает обработчик событий. Обработчик вызывается
// синхронно из горутины воркера и не должен блокироваться надолго.
func (m *Manager) OnEvent(fn func(Event)) {
	m.onEvent = fn
}

func (m *Manager) emit(ev Event) {
	if m.onEvent != nil {
		m.onEvent(ev)
	}
}

// ArtifactPath возвращает полный путь к файлу модели.
func (m *Manager) ArtifactPath(info ModelInfo) string {
	return filepath.Join(m.modelsDir, info.Filename)
}

// IsDownloaded проверяет, что артефакт модели лежит на диске.
// Частично записанный файл под финальным именем не появляется никогда:
// воркер публикует артефакт атомарным rename.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	stat, err := os.Stat(m.ArtifactPath(info))
	return err == nil && stat.Size() > 0
}

// ListDownloaded возвращает скачанные модели из каталога.
func (m *Manager) ListDownloaded() []ModelInfo {
	var downloaded []ModelInfo
	for _, info := range Catalog {
		if m.IsDownloaded(info) {
			downloaded = append(downloaded, info)
		}
	}
	return downloaded
}

// StartDownload запускает фоновую загрузку модели.
// Синхронно возвращает ErrUnknownModel, ErrDownloadInProgress или
// ErrAlreadyDownloaded без побочных эффектов; успех означает, что
// право на загрузку зарезервировано и воркер запущен.
func (m *Manager) StartDownload(modelID string) error {
	return m.start(modelID, false)
}

// RefreshDownload принудительно перекачивает модель, даже если
// артефакт уже есть на диске.
func (m *Manager) RefreshDownload(modelID string) error {
	return m.start(modelID, true)
}

func (m *Manager) start(modelID string, overwrite bool) error {
	info, err := Get(modelID)
	if err != nil {
		return err
	}

	if err := m.registry.Claim(info.ID, func() bool { return m.IsDownloaded(info) }, overwrite); err != nil {
		return err
	}

	status := EventQueued
	if overwrite {
		status = EventRefreshing
	}
	m.emit(Event{ModelID: info.ID, Total: info.Size, Percent: -1, Status: status})

	go m.download(info, overwrite)

	return nil
}

// download - воркер одной загрузки. Работает до завершения или ошибки,
// отмены нет; любая ошибка записывается в реестр и не роняет процесс.
func (m *Manager) download(info ModelInfo, overwrite bool) {
	finalPath := m.ArtifactPath(info)
	tmpPath := finalPath + ".tmp"

	log.Printf("Загрузка модели %s (%s)", info.ID, info.URL)

	total, err := m.fetch(info, tmpPath, finalPath, overwrite)
	if err != nil {
		os.Remove(tmpPath)
		m.registry.Finish(info.ID, err)
		log.Printf("Загрузка %s не удалась: %v", info.ID, err)
		m.emit(Event{ModelID: info.ID, Percent: -1, Status: EventError, Err: err.Error()})
		return
	}

	m.registry.Finish(info.ID, nil)
	log.Printf("Модель %s скачана: %s", info.ID, finalPath)
	m.emit(Event{ModelID: info.ID, Downloaded: total, Total: total, Percent: 100, Status: EventCompleted})
}

// fetch качает артефакт во временный файл и публикует его атомарным
// rename. Возвращает итоговый размер в байтах.
func (m *Manager) fetch(info ModelInfo, tmpPath, finalPath string, overwrite bool) (int64, error) {
	resp, err := m.client.Get(info.URL)
	if err != nil {
		return 0, fmt.Errorf("ошибка сети: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("не удалось создать временный файл: %w", err)
	}
	defer file.Close()

	var downloaded int64
	buf := make([]byte, downloadChunk)

	m.emit(Event{ModelID: info.ID, Total: total, Percent: percent(0, total), Status: EventStarted})

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return 0, fmt.Errorf("ошибка записи на диск: %w", werr)
			}
			downloaded += int64(n)

			m.registry.UpdateProgress(info.ID, downloaded, total)
			m.emit(Event{
				ModelID:    info.ID,
				Downloaded: downloaded,
				Total:      total,
				Percent:    percent(downloaded, total),
				Status:     EventDownloading,
			})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("ошибка скачивания: %w", err)
		}
	}

	if err := file.Sync(); err != nil {
		return 0, fmt.Errorf("ошибка сброса на диск: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if overwrite {
		// Короткое окно без артефакта под финальным именем -
		// принятая гонка при refresh.
		os.Remove(finalPath)
	}

	// Единственный момент, когда артефакт становится видимым.
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return 0, fmt.Errorf("ошибка публикации артефакта: %w", err)
	}

	return downloaded, nil
}

// Remove удаляет артефакт модели. Активная модель и модель с идущей
// загрузкой не удаляются.
func (m *Manager) Remove(modelID, activeID string) error {
	info, err := Get(modelID)
	if err != nil {
		return err
	}

	if modelID == activeID {
		return ErrModelActive
	}
	if m.registry.InProgress(modelID) {
		return ErrDownloadInProgress
	}
	if !m.IsDownloaded(info) {
		return ErrModelNotDownloaded
	}

	if err := os.Remove(m.ArtifactPath(info)); err != nil {
		return fmt.Errorf("не удалось удалить артефакт: %w", err)
	}

	m.registry.Forget(modelID)
	m.emit(Event{ModelID: modelID, Percent: -1, Status: EventRemoved})
	return nil
}

// ModelStatus - сводка по одной модели для меню и статусных запросов.
type ModelStatus struct {
	ID              string
	Name            string
	Downloaded      bool
	InProgress      bool
	Active          bool
	DownloadedBytes int64
	TotalBytes      int64
	LastError       string
}

// Statuses возвращает сводку по каждой модели каталога. Снимок реестра
// берётся за одно взятие мьютекса; не больше одной модели активно.
func (m *Manager) Statuses(activeID string) []ModelStatus {
	snapshot := m.registry.Snapshot()

	out := make([]ModelStatus, 0, len(Catalog))
	for _, info := range Catalog {
		st := ModelStatus{
			ID:         info.ID,
			Name:       info.Name,
			Downloaded: m.IsDownloaded(info),
			Active:     info.ID == activeID,
		}
		if rec, ok := snapshot[info.ID]; ok {
			st.InProgress = rec.Status == StatusDownloading
			st.DownloadedBytes = rec.Downloaded
			st.TotalBytes = rec.Total
			st.LastError = rec.Err
		}
		out = append(out, st)
	}
	return out
}

// IsDownloadInProgress сообщает, идёт ли сейчас загрузка модели.
func (m *Manager) IsDownloadInProgress(modelID string) bool {
	return m.registry.InProgress(modelID)
}
