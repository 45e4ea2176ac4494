// Package tray предоставляет иконку в системном трее с меню управления
// моделями.
package tray

import (
	"github.com/getlantern/systray"
	"sotto/embedded"
)

// State представляет состояние приложения для отображения в трее.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

// Callbacks содержит обработчики событий меню.
type Callbacks struct {
	OnDownloadModel       func()
	OnSwitchModel         func()
	OnRefreshModel        func()
	OnRemoveModel         func()
	OnShowStatuses        func()
	OnNotificationsToggle func() bool
	OnQuit                func()
}

// Tray управляет иконкой в системном трее.
type Tray struct {
	callbacks   Callbacks
	status      *systray.MenuItem
	downloadBtn *systray.MenuItem
	switchBtn   *systray.MenuItem
	refreshBtn  *systray.MenuItem
	removeBtn   *systray.MenuItem
	statusesBtn *systray.MenuItem
	notifyBtn   *systray.MenuItem
	quitBtn     *systray.MenuItem
}

// New создаёт новый Tray.
func New(callbacks Callbacks) *Tray {
	return &Tray{
		callbacks: callbacks,
	}
}

// Run запускает системный трей. Блокирующая функция.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(embedded.IconIdle)
	systray.SetTitle("Sotto")
	systray.SetTooltip("Sotto: удерживайте горячую клавишу для записи")

	t.status = systray.AddMenuItem("Готов", "")
	t.status.Disable()

	systray.AddSeparator()
	t.downloadBtn = systray.AddMenuItem("Скачать модель...", "Скачать модель из каталога")
	t.switchBtn = systray.AddMenuItem("Сменить модель...", "Выбрать активную модель")
	t.refreshBtn = systray.AddMenuItem("Перекачать модель...", "Скачать модель заново")
	t.removeBtn = systray.AddMenuItem("Удалить модель...", "Удалить скачанную модель")
	t.statusesBtn = systray.AddMenuItem("Статус моделей", "Показать состояние всех моделей")

	systray.AddSeparator()
	t.notifyBtn = systray.AddMenuItemCheckbox("Уведомления", "Системные уведомления", true)

	systray.AddSeparator()
	t.quitBtn = systray.AddMenuItem("Выход", "Завершить приложение")

	go t.handleClicks()
}

func (t *Tray) handleClicks() {
	for {
		select {
		case <-t.downloadBtn.ClickedCh:
			if t.callbacks.OnDownloadModel != nil {
				t.callbacks.OnDownloadModel()
			}
		case <-t.switchBtn.ClickedCh:
			if t.callbacks.OnSwitchModel != nil {
				t.callbacks.OnSwitchModel()
			}
		case <-t.refreshBtn.ClickedCh:
			if t.callbacks.OnRefreshModel != nil {
				t.callbacks.OnRefreshModel()
			}
		case <-t.removeBtn.ClickedCh:
			if t.callbacks.OnRemoveModel != nil {
				t.callbacks.OnRemoveModel()
			}
		case <-t.statusesBtn.ClickedCh:
			if t.callbacks.OnShowStatuses != nil {
				t.callbacks.OnShowStatuses()
			}
		case <-t.notifyBtn.ClickedCh:
			if t.callbacks.OnNotificationsToggle != nil {
				if t.callbacks.OnNotificationsToggle() {
					t.notifyBtn.Check()
				} else {
					t.notifyBtn.Uncheck()
				}
			}
		case <-t.quitBtn.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (t *Tray) onExit() {
	if t.callbacks.OnQuit != nil {
		t.callbacks.OnQuit()
	}
}

// SetState переключает иконку по состоянию приложения.
func (t *Tray) SetState(state State) {
	switch state {
	case StateRecording:
		systray.SetIcon(embedded.IconRecording)
		t.setStatus("Запись...")
	case StateProcessing:
		systray.SetIcon(embedded.IconProcessing)
		t.setStatus("Распознавание...")
	default:
		systray.SetIcon(embedded.IconIdle)
		t.setStatus("Готов")
	}
}

// SetDownloadProgress показывает прогресс загрузки в строке статуса.
func (t *Tray) SetDownloadProgress(text string) {
	t.setStatus(text)
}

func (t *Tray) setStatus(text string) {
	if t.status != nil {
		t.status.SetTitle(text)
	}
}
