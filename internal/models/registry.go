package models

import "sync"

// Status - состояние загрузки модели.
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// DownloadRecord - состояние одной загрузки. Пока Status ==
// StatusDownloading, запись принадлежит только своему воркеру.
type DownloadRecord struct {
	Status     Status
	Downloaded int64
	Total      int64 // 0 пока не пришли заголовки ответа
	Err        string
}

// Registry - общая карта загрузок model ID -> DownloadRecord под одним
// мьютексом. Вставка записи в Claim - точка синхронизации, которая
// гарантирует не больше одной активной загрузки на модель.
type Registry struct {
	mu      sync.Mutex
	records map[string]DownloadRecord
}

// NewRegistry создаёт пустой реестр загрузок.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]DownloadRecord),
	}
}

// Claim атомарно резервирует право на загрузку модели.
// Активная загрузка всегда отклоняется с ErrDownloadInProgress,
// независимо от overwrite. Уже скачанный артефакт отклоняется с
// ErrAlreadyDownloaded, если overwrite не запрошен; artifactExists
// опрашивается внутри критической секции, иначе Claim, гонящийся с
// завершающимся воркером, не увидит только что опубликованный
// артефакт. Один stat под мьютексом допустим - это не потоковый I/O.
// Успех вставляет запись StatusDownloading с обнулёнными счётчиками.
func (r *Registry) Claim(modelID string, artifactExists func() bool, overwrite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[modelID]; ok && rec.Status == StatusDownloading {
		return ErrDownloadInProgress
	}

	if !overwrite && artifactExists != nil && artifactExists() {
		return ErrAlreadyDownloaded
	}

	r.records[modelID] = DownloadRecord{Status: StatusDownloading}
	return nil
}

// UpdateProgress обновляет счётчики записи. No-op если записи нет
// (загрузка могла быть удалена параллельно).
func (r *Registry) UpdateProgress(modelID string, downloaded, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[modelID]
	if !ok {
		return
	}
	rec.Downloaded = downloaded
	rec.Total = total
	r.records[modelID] = rec
}

// Finish переводит запись в Completed или Failed, счётчики остаются
// как были на последнем обновлении.
func (r *Registry) Finish(modelID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[modelID]
	if !ok {
		return
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.Err = err.Error()
	} else {
		rec.Status = StatusCompleted
		rec.Err = ""
	}
	r.records[modelID] = rec
}

// InProgress возвращает true если загрузка модели сейчас идёт.
func (r *Registry) InProgress(modelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[modelID]
	return ok && rec.Status == StatusDownloading
}

// Get возвращает копию записи загрузки.
func (r *Registry) Get(modelID string) (DownloadRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[modelID]
	return rec, ok
}

// Forget удаляет запись (при удалении модели).
func (r *Registry) Forget(modelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, modelID)
}

// Snapshot возвращает согласованную копию всей карты за одно взятие
// мьютекса. Между разными вызовами снимок может устареть - отчёт о
// статусе согласован в конечном счёте, не транзакционен.
func (r *Registry) Snapshot() map[string]DownloadRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]DownloadRecord, len(r.records))
	for id, rec := range r.records {
		out[id] = rec
	}
	return out
}
