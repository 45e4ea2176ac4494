package models

import (
	"errors"
	"log"
	"time"
)

// WatchdogInterval - период проверки наличия модели по умолчанию.
const WatchdogInterval = time.Minute

// StartWatchdog запускает фоновый цикл, который гарантирует наличие
// артефакта модели defaultID: если его нет и загрузка не идёт,
// загрузка запускается так же, как по команде пользователя. Цикл
// никогда не блокируется, не отменяет идущие загрузки и при
// недоступности сети просто пробует снова на следующем тике.
// Возвращает функцию остановки.
func (m *Manager) StartWatchdog(defaultID string, interval time.Duration) func() {
	if interval <= 0 {
		interval = WatchdogInterval
	}

	stop := make(chan struct{})
	go m.watch(defaultID, interval, stop)

	return func() { close(stop) }
}

func (m *Manager) watch(defaultID string, interval time.Duration, stop chan struct{}) {
	info, err := Get(defaultID)
	if err != nil {
		log.Printf("Watchdog: модель %s не найдена в каталоге, цикл не запущен", defaultID)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if m.IsDownloaded(info) || m.registry.InProgress(info.ID) {
			continue
		}

		log.Printf("Watchdog: модель %s отсутствует, запускаю загрузку", info.ID)
		if err := m.StartDownload(info.ID); err != nil && !errors.Is(err, ErrDownloadInProgress) {
			log.Printf("Watchdog: не удалось запустить загрузку %s: %v", info.ID, err)
		}
	}
}
