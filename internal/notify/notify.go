// Package notify предоставляет системные уведомления.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"
)

const appName = "Sotto"

// Notifier отправляет системные уведомления.
// Флаг переключается из горутины меню, а уведомления шлют горутины
// горячей клавиши и воркеров загрузки.
type Notifier struct {
	mu      sync.RWMutex
	enabled bool
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Enabled возвращает true если уведомления включены.
func (n *Notifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Inserted показывает уведомление об успешной вставке текста.
func (n *Notifier) Inserted(text string) {
	if len(text) > 100 {
		text = text[:100] + "..."
	}
	n.notify("Готово", text)
}

// Empty показывает уведомление о пустом результате распознавания.
func (n *Notifier) Empty() {
	n.notify("Пусто", "Речь не распознана")
}

// DownloadCompleted показывает уведомление о завершённой загрузке.
func (n *Notifier) DownloadCompleted(modelName string) {
	n.notify("Модель скачана", modelName)
}

// DownloadFailed показывает уведомление об ошибке загрузки.
func (n *Notifier) DownloadFailed(modelName, msg string) {
	n.notify("Ошибка загрузки "+modelName, msg)
}

// ModelActivated показывает уведомление о смене активной модели.
func (n *Notifier) ModelActivated(modelName string) {
	n.notify("Модель активна", modelName)
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(msg string) {
	n.notify("Ошибка", msg)
}

// Info показывает информационное уведомление.
func (n *Notifier) Info(msg string) {
	if len(msg) > 100 {
		msg = msg[:100] + "..."
	}
	n.notify("", msg)
}

func (n *Notifier) notify(title, message string) {
	if !n.Enabled() {
		return
	}
	// Ошибки уведомлений не критичны - игнорируем
	if title != "" {
		_ = beeep.Notify(appName+": "+title, message, "")
	} else {
		_ = beeep.Notify(appName, message, "")
	}
}
